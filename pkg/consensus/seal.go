// file: pkg/consensus/seal.go
package consensus

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// SealFieldCount is the number of raw header-seal fields Abab headers
// carry: view, proposal signature, view-change signatures, vote
// signatures.
const SealFieldCount = 4

// Seal is the decoded form of a header's four seal fields.
type Seal struct {
	View                 View
	ProposalSignature    Signature
	ViewChangeSignatures []Signature
	VoteSignatures       []Signature
}

// EncodeFields produces the four raw RLP-encoded seal fields for h.Seal.
// An empty signature list encodes as the single-byte RLP empty list.
func (s Seal) EncodeFields() ([][]byte, error) {
	view, err := rlp.EncodeToBytes(uint64(s.View))
	if err != nil {
		return nil, fmt.Errorf("encode seal view: %w", err)
	}
	prop, err := rlp.EncodeToBytes(s.ProposalSignature)
	if err != nil {
		return nil, fmt.Errorf("encode proposal signature: %w", err)
	}
	vc, err := rlp.EncodeToBytes(s.ViewChangeSignatures)
	if err != nil {
		return nil, fmt.Errorf("encode view-change signatures: %w", err)
	}
	votes, err := rlp.EncodeToBytes(s.VoteSignatures)
	if err != nil {
		return nil, fmt.Errorf("encode vote signatures: %w", err)
	}
	return [][]byte{view, prop, vc, votes}, nil
}

// DecodeSeal parses the four raw seal fields from a header.
func DecodeSeal(fields [][]byte) (Seal, error) {
	if len(fields) != SealFieldCount {
		return Seal{}, &InvalidSealArityError{Expected: SealFieldCount, Found: len(fields)}
	}
	var s Seal
	var view uint64
	if err := rlp.DecodeBytes(fields[0], &view); err != nil {
		return Seal{}, fmt.Errorf("decode seal view: %w", err)
	}
	s.View = View(view)
	if err := rlp.DecodeBytes(fields[1], &s.ProposalSignature); err != nil {
		return Seal{}, fmt.Errorf("decode proposal signature: %w", err)
	}
	if err := rlp.DecodeBytes(fields[2], &s.ViewChangeSignatures); err != nil {
		return Seal{}, fmt.Errorf("decode view-change signatures: %w", err)
	}
	if err := rlp.DecodeBytes(fields[3], &s.VoteSignatures); err != nil {
		return Seal{}, fmt.Errorf("decode vote signatures: %w", err)
	}
	return s, nil
}
