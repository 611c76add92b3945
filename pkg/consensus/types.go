// file: pkg/consensus/types.go
//
// Package consensus implements the Abab Byzantine-fault-tolerant consensus
// engine: round-robin primary rotation, vote aggregation, and the seal
// construction/verification rules that let an import pipeline check that a
// block was committed by a quorum of a fixed, enumerable validator set.
package consensus

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Height is a monotonically nondecreasing block counter; it increments on
// commit and never resets.
type Height uint64

// View is a monotonically nondecreasing counter within a height; it resets
// to 0 on height change and otherwise increments on view-change timeout.
type View uint64

// Signature is an opaque fixed-size secp256k1-style signature blob
// (R || S || V, 65 bytes, Ethereum-compatible).
type Signature [65]byte

// VoteTag distinguishes the three forms a ViewVote can take.
type VoteTag uint8

const (
	TagViewChange VoteTag = iota
	TagProposal
	TagVote
)

func (t VoteTag) String() string {
	switch t {
	case TagViewChange:
		return "view-change"
	case TagProposal:
		return "proposal"
	case TagVote:
		return "vote"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ViewVote is the (height, view, vote) tuple every consensus message
// commits to. BlockHash is the zero hash for ViewChange votes. Two
// ViewVotes are aligned exactly when they compare equal with Go's built-in
// ==, since every field is comparable.
type ViewVote struct {
	Height    Height
	View      View
	Tag       VoteTag
	BlockHash common.Hash
}

// Digest is the value a signature over this ViewVote commits to.
func (vv ViewVote) Digest() common.Hash {
	enc, err := rlp.EncodeToBytes(vv)
	if err != nil {
		panic(fmt.Sprintf("consensus: encode view_vote: %v", err))
	}
	return crypto.Keccak256Hash(enc)
}

// ViewChangeDigest is the digest a ViewChange signature over (height, view)
// must recover to.
func ViewChangeDigest(h Height, v View) common.Hash {
	return ViewVote{Height: h, View: v, Tag: TagViewChange}.Digest()
}

// ProposalDigest is the digest a Proposal signature over
// (height, view, block_hash) must recover to.
func ProposalDigest(h Height, v View, blockHash common.Hash) common.Hash {
	return ViewVote{Height: h, View: v, Tag: TagProposal, BlockHash: blockHash}.Digest()
}

// VoteDigest is the digest a Vote signature over (height, view, block_hash)
// must recover to.
func VoteDigest(h Height, v View, blockHash common.Hash) common.Hash {
	return ViewVote{Height: h, View: v, Tag: TagVote, BlockHash: blockHash}.Digest()
}

// Message (AbabMessage) is a signed assertion by one validator.
type Message struct {
	Signature Signature
	ViewVote  ViewVote
}

// EncodeMessage produces the wire bytes for a Message: an RLP encoding of
// (signature, view_vote).
func EncodeMessage(m Message) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return enc, nil
}

// DecodeMessage parses wire bytes produced by EncodeMessage.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := rlp.DecodeBytes(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	return m, nil
}
