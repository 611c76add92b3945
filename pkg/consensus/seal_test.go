package consensus

import "testing"

func TestSealEncodeDecodeRoundTrip(t *testing.T) {
	var propSig, voteSig1, voteSig2 Signature
	propSig[0] = 1
	voteSig1[0] = 2
	voteSig2[0] = 3

	seal := Seal{
		View:                 3,
		ProposalSignature:    propSig,
		ViewChangeSignatures: []Signature{voteSig1},
		VoteSignatures:       []Signature{voteSig1, voteSig2},
	}

	fields, err := seal.EncodeFields()
	if err != nil {
		t.Fatalf("EncodeFields: %v", err)
	}
	if len(fields) != SealFieldCount {
		t.Fatalf("len(fields) = %d, want %d", len(fields), SealFieldCount)
	}

	got, err := DecodeSeal(fields)
	if err != nil {
		t.Fatalf("DecodeSeal: %v", err)
	}
	if got.View != seal.View {
		t.Errorf("View = %d, want %d", got.View, seal.View)
	}
	if got.ProposalSignature != seal.ProposalSignature {
		t.Error("ProposalSignature mismatch")
	}
	if len(got.VoteSignatures) != 2 {
		t.Errorf("len(VoteSignatures) = %d, want 2", len(got.VoteSignatures))
	}
}

func TestDecodeSealRejectsWrongArity(t *testing.T) {
	_, err := DecodeSeal([][]byte{{}, {}})
	if err == nil {
		t.Fatal("expected arity error")
	}
	var arityErr *InvalidSealArityError
	if _, ok := err.(*InvalidSealArityError); !ok {
		_ = arityErr
		t.Fatalf("expected *InvalidSealArityError, got %T", err)
	}
}

func TestSealEmptyFieldsRoundTrip(t *testing.T) {
	seal := Seal{View: 0}
	fields, err := seal.EncodeFields()
	if err != nil {
		t.Fatalf("EncodeFields: %v", err)
	}
	got, err := DecodeSeal(fields)
	if err != nil {
		t.Fatalf("DecodeSeal: %v", err)
	}
	if len(got.ViewChangeSignatures) != 0 || len(got.VoteSignatures) != 0 {
		t.Error("expected empty signature lists to round-trip as empty")
	}
}
