package consensus

import "testing"

func sealedHeader(t *testing.T, vs ValidatorSet, signers []*Engine, number Height, view View) *Header {
	t.Helper()
	h := &Header{Number: number, GasLimit: 8_000_000}

	primaryIdx := -1
	for i, e := range signers {
		if vs.Get(uint64(number)+uint64(view)) == e.signer.get().Address() {
			primaryIdx = i
		}
	}
	if primaryIdx < 0 {
		t.Fatalf("no engine holds the primary key for height=%d view=%d", number, view)
	}

	for _, e := range signers {
		e.height.Store(uint64(number))
		e.view.Store(uint64(view))
		e.proposed.Store(false)
		e.sealed.Store(false)
	}

	seal, err := signers[primaryIdx].GenerateSeal(h)
	if err != nil {
		t.Fatalf("generate proposal seal: %v", err)
	}
	fields, err := seal.EncodeFields()
	if err != nil {
		t.Fatalf("encode proposal seal: %v", err)
	}
	h.Seal = fields

	for _, e := range signers {
		if _, err := e.IsProposal(h); err != nil {
			t.Fatalf("is_proposal: %v", err)
		}
	}

	commit, err := signers[primaryIdx].GenerateSeal(h)
	if err != nil {
		t.Fatalf("generate commit seal: %v", err)
	}
	commitFields, err := commit.EncodeFields()
	if err != nil {
		t.Fatalf("encode commit seal: %v", err)
	}
	h.Seal = commitFields
	return h
}

func TestVerifyBlockBasicRejectsWrongArity(t *testing.T) {
	h := &Header{Number: 1, Seal: [][]byte{{}, {}}}
	if err := VerifyBlockBasic(h); err == nil {
		t.Fatal("expected arity error")
	}
}

func TestVerifyBlockUnorderedAcceptsQuorumCommit(t *testing.T) {
	engines, _, _ := fourValidatorNetwork(t)
	h := sealedHeader(t, engines[0].validators, engines, 1, 0)

	if err := VerifyBlockBasic(h); err != nil {
		t.Fatalf("VerifyBlockBasic: %v", err)
	}
	if err := VerifyBlockUnordered(h, engines[0].validators); err != nil {
		t.Fatalf("VerifyBlockUnordered: %v", err)
	}
}

func TestVerifyBlockUnorderedAcceptsFreshProposal(t *testing.T) {
	engines, _, _ := fourValidatorNetwork(t)
	vs := engines[0].validators

	primaryIdx := -1
	for i, e := range engines {
		if vs.Get(1) == e.signer.get().Address() {
			primaryIdx = i
		}
	}
	if primaryIdx < 0 {
		t.Fatal("no engine holds the primary key for height=1 view=0")
	}

	h := &Header{Number: 1, GasLimit: 8_000_000}
	seal, err := engines[primaryIdx].GenerateSeal(h)
	if err != nil {
		t.Fatalf("generate proposal seal: %v", err)
	}
	if len(seal.VoteSignatures) != 0 {
		t.Fatal("expected a fresh proposal with no vote signatures yet")
	}
	fields, err := seal.EncodeFields()
	if err != nil {
		t.Fatalf("encode proposal seal: %v", err)
	}
	h.Seal = fields

	if err := VerifyBlockBasic(h); err != nil {
		t.Fatalf("VerifyBlockBasic: %v", err)
	}
	if err := VerifyBlockUnordered(h, vs); err != nil {
		t.Fatalf("VerifyBlockUnordered should accept a proposal with an empty vote field: %v", err)
	}
}

func TestVerifyBlockUnorderedRejectsShortOfQuorum(t *testing.T) {
	engines, _, _ := fourValidatorNetwork(t)
	h := sealedHeader(t, engines[0].validators, engines, 1, 0)

	seal, err := DecodeSeal(h.Seal)
	if err != nil {
		t.Fatalf("decode seal: %v", err)
	}
	seal.VoteSignatures = seal.VoteSignatures[:1]
	fields, err := seal.EncodeFields()
	if err != nil {
		t.Fatalf("encode seal: %v", err)
	}
	h.Seal = fields

	if err := VerifyBlockUnordered(h, engines[0].validators); err == nil {
		t.Fatal("expected quorum error")
	}
}

func TestVerifyBlockFamilyRejectsGenesisHeight(t *testing.T) {
	h := &Header{Number: 0}
	parent := &Header{Number: 0, GasLimit: 8_000_000}
	if err := VerifyBlockFamily(h, parent, 1024); err != ErrRidiculousNumber {
		t.Fatalf("err = %v, want ErrRidiculousNumber", err)
	}
}

func TestVerifyBlockFamilyRejectsGasLimitOutOfBound(t *testing.T) {
	parent := &Header{Number: 1, GasLimit: 8_000_000}
	h := &Header{Number: 2, GasLimit: parent.GasLimit * 2}
	if err := VerifyBlockFamily(h, parent, 1024); err != ErrInvalidGasLimit {
		t.Fatalf("err = %v, want ErrInvalidGasLimit", err)
	}
}

func TestVerifyBlockFamilyAcceptsSmallAdjustment(t *testing.T) {
	parent := &Header{Number: 1, GasLimit: 8_000_000}
	h := &Header{Number: 2, GasLimit: parent.GasLimit + 1}
	if err := VerifyBlockFamily(h, parent, 1024); err != nil {
		t.Fatalf("VerifyBlockFamily: %v", err)
	}
}
