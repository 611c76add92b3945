package storage

import (
	"encoding/binary"

	"github.com/abab/abab/pkg/consensus"
)

func heightKey(h consensus.Height) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(h))
	return k[:]
}
