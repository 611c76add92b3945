// file: pkg/consensus/verify.go
package consensus

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	abcrypto "github.com/abab/abab/pkg/crypto"
)

// VerifyBlockBasic checks the parts of a header that can be validated
// without any external context: seal arity and a non-empty vote field.
func VerifyBlockBasic(h *Header) error {
	if len(h.Seal) != SealFieldCount {
		return &InvalidSealArityError{Expected: SealFieldCount, Found: len(h.Seal)}
	}
	if len(h.Seal[3]) < 1 {
		return &BadSealFieldSizeError{Min: 1, Max: -1, Found: len(h.Seal[3])}
	}
	return nil
}

// VerifyBlockUnordered checks a header against the validator set: the
// proposal signature recovers to the expected primary, every view-change
// and vote signature recovers to a committee member with no duplicates,
// and each quorum threshold is met.
func VerifyBlockUnordered(h *Header, vs ValidatorSet) error {
	seal, err := DecodeSeal(h.Seal)
	if err != nil {
		return err
	}

	bare := BareHash(h)
	proposalDigest := ProposalDigest(h.Number, seal.View, bare)
	signer, err := recoverAddress(proposalDigest, seal.ProposalSignature)
	if err != nil {
		return fmt.Errorf("recover proposal signer: %w", err)
	}
	expected := vs.Get(uint64(h.Number) + uint64(seal.View))
	if signer != expected {
		return &NotProposerError{Expected: expected, Found: signer}
	}

	if seal.View == 0 {
		if len(seal.ViewChangeSignatures) != 0 {
			return &BadSealFieldSizeError{Min: 0, Max: 0, Found: len(seal.ViewChangeSignatures)}
		}
	} else {
		n := vs.Count()
		need := n/3 + 1
		count, err := countDistinctAuthorized(vs, seal.ViewChangeSignatures, ViewChangeDigest(h.Number, seal.View))
		if err != nil {
			return err
		}
		if count < need {
			return &BadSealFieldSizeError{Min: need, Max: n, Found: count}
		}
	}

	if len(seal.VoteSignatures) != 0 {
		n := vs.Count()
		need := 2*n/3 + 1
		count, err := countDistinctAuthorized(vs, seal.VoteSignatures, VoteDigest(h.Number, seal.View, bare))
		if err != nil {
			return err
		}
		if count < need {
			return &BadSealFieldSizeError{Min: need, Max: n, Found: count}
		}
	}

	return nil
}

// VerifyBlockFamily checks a header against its immediate parent: gas limit
// must stay within the configured bound, and block number must be
// strictly positive (height 0 is genesis, never a sealed block).
func VerifyBlockFamily(h, parent *Header, gasLimitBoundDivisor uint64) error {
	if h.Number == 0 {
		return ErrRidiculousNumber
	}
	if gasLimitBoundDivisor == 0 {
		return nil
	}
	bound := parent.GasLimit / gasLimitBoundDivisor
	var diff uint64
	if h.GasLimit > parent.GasLimit {
		diff = h.GasLimit - parent.GasLimit
	} else {
		diff = parent.GasLimit - h.GasLimit
	}
	if diff >= bound {
		return ErrInvalidGasLimit
	}
	return nil
}

func countDistinctAuthorized(vs ValidatorSet, sigs []Signature, digest common.Hash) (int, error) {
	seen := make(map[common.Address]struct{}, len(sigs))
	for _, sig := range sigs {
		addr, err := recoverAddress(digest, sig)
		if err != nil {
			return 0, fmt.Errorf("recover signer: %w", err)
		}
		if !vs.Contains(addr) {
			return 0, &NotAuthorizedError{Signer: addr}
		}
		if _, dup := seen[addr]; dup {
			return 0, ErrInvalidSeal
		}
		seen[addr] = struct{}{}
	}
	return len(seen), nil
}

func recoverAddress(digest common.Hash, sig Signature) (common.Address, error) {
	return abcrypto.RecoverAddress(digest[:], sig[:])
}
