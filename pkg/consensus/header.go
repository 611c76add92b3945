// file: pkg/consensus/header.go
package consensus

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Header is the minimal slice of a block header this engine needs. Body,
// state root, and the rest of the header are the import pipeline's
// business (out of scope); this mirrors only what generate_seal,
// is_proposal, and the verify_* family read or write.
type Header struct {
	ParentHash common.Hash
	Number     Height
	GasLimit   uint64
	GasUsed    uint64
	Time       uint64
	Author     common.Address
	Difficulty uint64

	// Seal holds the four raw RLP-encoded fields once sealed: nil/empty
	// before sealing.
	Seal [][]byte
}

type bareHeader struct {
	ParentHash common.Hash
	Number     uint64
	GasLimit   uint64
	GasUsed    uint64
	Time       uint64
	Author     common.Address
	Difficulty uint64
}

// BareHash hashes everything in the header except the seal. This is the
// value a proposal's signature, and every vote on that proposal, commits
// to.
func BareHash(h *Header) common.Hash {
	enc, err := rlp.EncodeToBytes(bareHeader{
		ParentHash: h.ParentHash,
		Number:     uint64(h.Number),
		GasLimit:   h.GasLimit,
		GasUsed:    h.GasUsed,
		Time:       h.Time,
		Author:     h.Author,
		Difficulty: h.Difficulty,
	})
	if err != nil {
		panic(fmt.Sprintf("consensus: encode bare header: %v", err))
	}
	return crypto.Keccak256Hash(enc)
}
