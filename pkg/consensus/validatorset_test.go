package consensus

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestStaticValidatorSetRotation(t *testing.T) {
	vals := []common.Address{
		common.HexToAddress("0x1"),
		common.HexToAddress("0x2"),
		common.HexToAddress("0x3"),
		common.HexToAddress("0x4"),
	}
	vs := NewStaticValidatorSet(vals)

	if vs.Count() != 4 {
		t.Fatalf("count = %d, want 4", vs.Count())
	}
	for round := uint64(0); round < 8; round++ {
		got := vs.Get(round)
		want := vals[round%4]
		if got != want {
			t.Errorf("Get(%d) = %s, want %s", round, got.Hex(), want.Hex())
		}
	}
}

func TestStaticValidatorSetContains(t *testing.T) {
	member := common.HexToAddress("0xaa")
	stranger := common.HexToAddress("0xbb")
	vs := NewStaticValidatorSet([]common.Address{member})

	if !vs.Contains(member) {
		t.Error("expected member to be contained")
	}
	if vs.Contains(stranger) {
		t.Error("expected stranger to not be contained")
	}
}

func TestStaticValidatorSetList(t *testing.T) {
	vals := []common.Address{common.HexToAddress("0x1"), common.HexToAddress("0x2")}
	vs := NewStaticValidatorSet(vals)
	list := vs.List()
	if len(list) != 2 || list[0] != vals[0] || list[1] != vals[1] {
		t.Errorf("List() = %v, want %v", list, vals)
	}
	list[0] = common.Address{}
	if vs.Get(0) == (common.Address{}) {
		t.Error("List() leaked a mutable reference to internal state")
	}
}
