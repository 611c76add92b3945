// file: pkg/consensus/validatorset.go
package consensus

import "github.com/ethereum/go-ethereum/common"

// ValidatorSet is the fixed, enumerable committee the engine draws primaries
// from and checks authorization against. Dynamic validator sets are a
// non-goal; the only implementation here is a static, round-robin one.
type ValidatorSet interface {
	// Get returns the validator whose turn it is at the given round
	// counter (height+view), round-robin over the ordered committee.
	Get(round uint64) common.Address
	// Contains reports whether addr is a member of the committee.
	Contains(addr common.Address) bool
	// Count returns the committee size, N.
	Count() int
}

// StaticValidatorSet is a committee fixed at construction time, ordered the
// way the primary rotation schedule visits it.
type StaticValidatorSet struct {
	ordered []common.Address
	index   map[common.Address]struct{}
}

// NewStaticValidatorSet builds a committee from an ordered validator list.
// The order determines primary rotation (validator i is primary whenever
// round % len(list) == i).
func NewStaticValidatorSet(validators []common.Address) *StaticValidatorSet {
	idx := make(map[common.Address]struct{}, len(validators))
	ordered := make([]common.Address, len(validators))
	copy(ordered, validators)
	for _, v := range ordered {
		idx[v] = struct{}{}
	}
	return &StaticValidatorSet{ordered: ordered, index: idx}
}

func (s *StaticValidatorSet) Get(round uint64) common.Address {
	if len(s.ordered) == 0 {
		return common.Address{}
	}
	return s.ordered[round%uint64(len(s.ordered))]
}

func (s *StaticValidatorSet) Contains(addr common.Address) bool {
	_, ok := s.index[addr]
	return ok
}

func (s *StaticValidatorSet) Count() int { return len(s.ordered) }

// List returns the committee in rotation order, for diagnostics and the
// RPC explorer; it is not part of the ValidatorSet interface itself.
func (s *StaticValidatorSet) List() []common.Address {
	out := make([]common.Address, len(s.ordered))
	copy(out, s.ordered)
	return out
}
