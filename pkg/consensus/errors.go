// file: pkg/consensus/errors.go
package consensus

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidSeal is returned when a seal field contains a duplicate
	// signer.
	ErrInvalidSeal = errors.New("consensus: invalid seal: duplicate signer")
	// ErrSealNotReady is returned by GenerateSeal when this node has
	// already proposed for the current (height, view) but the seal it
	// would now produce (the commit seal) is not yet backed by quorum, or
	// has already been produced for this (height, view).
	ErrSealNotReady = errors.New("consensus: seal not ready")
	// ErrRidiculousNumber is returned when verifying a header whose
	// block number cannot possibly be valid (e.g. genesis, height 0).
	ErrRidiculousNumber = errors.New("consensus: ridiculous block number")
	// ErrInvalidGasLimit is returned when a header's gas limit falls
	// outside the bound allowed relative to its parent.
	ErrInvalidGasLimit = errors.New("consensus: invalid gas limit")
)

// NotAuthorizedError is returned when a message's recovered signer is not a
// member of the validator set.
type NotAuthorizedError struct {
	Signer common.Address
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("consensus: not authorized: %s", e.Signer.Hex())
}

// DoubleVoteError is returned when a signer has signed two conflicting
// ViewVotes for the same (height, view).
type DoubleVoteError struct {
	Signer common.Address
}

func (e *DoubleVoteError) Error() string {
	return fmt.Sprintf("consensus: double vote by %s", e.Signer.Hex())
}

// BadSealFieldSizeError is returned when a seal's view-change or vote
// signature list doesn't fall within the quorum bound required.
type BadSealFieldSizeError struct {
	Min, Max, Found int
}

func (e *BadSealFieldSizeError) Error() string {
	return fmt.Sprintf("consensus: bad seal field size: want [%d,%d], got %d", e.Min, e.Max, e.Found)
}

// NotProposerError is returned when a block's proposal signature recovers
// to an address other than the primary for its (height, view).
type NotProposerError struct {
	Expected, Found common.Address
}

func (e *NotProposerError) Error() string {
	return fmt.Sprintf("consensus: not proposer: expected %s, got %s", e.Expected.Hex(), e.Found.Hex())
}

// InvalidSealArityError is returned when a header's seal does not have
// exactly the four fields Abab seals require.
type InvalidSealArityError struct {
	Expected, Found int
}

func (e *InvalidSealArityError) Error() string {
	return fmt.Sprintf("consensus: invalid seal arity: expected %d, got %d", e.Expected, e.Found)
}
