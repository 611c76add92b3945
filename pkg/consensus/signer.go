// file: pkg/consensus/signer.go
package consensus

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	abcrypto "github.com/abab/abab/pkg/crypto"
)

// Signer is this validator's own signing identity: sign a digest, report
// its address, and check whether an address is its own. Account/key
// storage beyond the signing key itself is out of scope; installing a
// signer is just swapping in a loaded key.
type Signer interface {
	Sign(digest common.Hash) (Signature, error)
	Address() common.Address
	IsAddress(addr common.Address) bool
}

// KeySigner is a Signer backed by a secp256k1 key held in memory via
// pkg/crypto. It is internally synchronized so set() can be called
// concurrently with sign()/address() from the engine's own goroutines.
type KeySigner struct {
	mu  sync.RWMutex
	key *abcrypto.Signer
}

// NewKeySigner returns a Signer with no key loaded; until Set is called,
// Sign returns an error and Address returns the zero address.
func NewKeySigner() *KeySigner { return &KeySigner{} }

// Set installs (or replaces) the signing key.
func (s *KeySigner) Set(key *abcrypto.Signer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
}

func (s *KeySigner) Sign(digest common.Hash) (Signature, error) {
	s.mu.RLock()
	key := s.key
	s.mu.RUnlock()
	if key == nil {
		return Signature{}, fmt.Errorf("consensus: signer has no key set")
	}
	raw, err := key.Sign(digest[:])
	if err != nil {
		return Signature{}, fmt.Errorf("consensus: sign digest: %w", err)
	}
	var sig Signature
	copy(sig[:], raw)
	return sig, nil
}

func (s *KeySigner) Address() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return common.Address{}
	}
	return s.key.Address()
}

func (s *KeySigner) IsAddress(addr common.Address) bool {
	return s.Address() == addr
}

// signerHandle is a swappable Signer reference, mirroring clientHandle.
// The engine's own signer can be replaced wholesale via SetSigner, which a
// concurrent sign/address call must never observe half-done.
type signerHandle struct {
	mu sync.RWMutex
	s  Signer
}

func (h *signerHandle) set(s Signer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.s = s
}

func (h *signerHandle) get() Signer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.s
}
