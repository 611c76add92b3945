package storage

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/abab/abab/pkg/consensus"
)

// PebbleStore is the durable SealArchive backing a validator's data
// directory. Keys: h:<8-byte-height> -> rlp(Header), cm -> 8-byte height.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

func kHeader(h consensus.Height) []byte { return append([]byte("h:"), heightKey(h)...) }
func kCommitted() []byte                { return []byte("cm") }

func (s *PebbleStore) SaveHeader(h *consensus.Header) error {
	val, err := rlp.EncodeToBytes(h)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	return s.db.Set(kHeader(h.Number), val, pebble.Sync)
}

func (s *PebbleStore) GetHeader(height consensus.Height) (*consensus.Header, bool) {
	val, closer, err := s.db.Get(kHeader(height))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, false
		}
		panic(err)
	}
	defer closer.Close()
	var out consensus.Header
	if err := rlp.DecodeBytes(val, &out); err != nil {
		panic(fmt.Errorf("decode header: %w", err))
	}
	return &out, true
}

func (s *PebbleStore) SetCommittedHeight(height consensus.Height) {
	if err := s.db.Set(kCommitted(), heightKey(height), pebble.Sync); err != nil {
		panic(err)
	}
}

func (s *PebbleStore) GetCommittedHeight() (consensus.Height, bool) {
	val, closer, err := s.db.Get(kCommitted())
	if err != nil {
		if err == pebble.ErrNotFound {
			return 0, false
		}
		panic(err)
	}
	defer closer.Close()
	var h uint64
	for _, b := range val {
		h = h<<8 | uint64(b)
	}
	return consensus.Height(h), true
}

var _ SealArchive = (*PebbleStore)(nil)
