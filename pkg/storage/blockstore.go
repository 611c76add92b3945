// file: pkg/storage/blockstore.go
package storage

import (
	"sync"

	"github.com/abab/abab/pkg/consensus"
)

// SealArchive persists sealed headers (proposal or commit) and the
// watermark of the last committed height. It is the durable side of the
// Client a host wires up to the engine: UpdateSealing reads the parent
// header from it and saves each sealed header to it. Nothing reads it back
// on restart; the engine always starts at height 1.
type SealArchive interface {
	SaveHeader(h *consensus.Header) error
	GetHeader(height consensus.Height) (*consensus.Header, bool)
	SetCommittedHeight(height consensus.Height)
	GetCommittedHeight() (consensus.Height, bool)
}

// InMemorySealArchive is a SealArchive with no durability, used in tests.
type InMemorySealArchive struct {
	mu        sync.Mutex
	headers   map[consensus.Height]*consensus.Header
	committed consensus.Height
	hasCommit bool
}

func NewInMemorySealArchive() *InMemorySealArchive {
	return &InMemorySealArchive{headers: make(map[consensus.Height]*consensus.Header)}
}

func (s *InMemorySealArchive) SaveHeader(h *consensus.Header) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers[h.Number] = h
	return nil
}

func (s *InMemorySealArchive) GetHeader(height consensus.Height) (*consensus.Header, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.headers[height]
	return h, ok
}

func (s *InMemorySealArchive) SetCommittedHeight(height consensus.Height) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = height
	s.hasCommit = true
}

func (s *InMemorySealArchive) GetCommittedHeight() (consensus.Height, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed, s.hasCommit
}
