// file: pkg/consensus/votecollector.go
package consensus

import (
	"bytes"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// VoteCollector is the engine's only mutable bookkeeping: every signed
// message it accepts is recorded here, bucketed by the exact ViewVote it
// commits to, with one slot per signer so quorum counting and equivocation
// detection are both a single map lookup. Internally synchronized so it can
// be shared between the message-handling path and the timer callback.
type VoteCollector struct {
	mu sync.Mutex

	// buckets holds, per ViewVote, the signature each signer submitted
	// for it.
	buckets map[ViewVote]map[common.Address]Signature

	// bySigner records the one ViewVote each signer has committed to for
	// a given (height, view), regardless of which Tag it carries. A
	// second, different ViewVote from the same signer at the same
	// (height, view) is a double vote.
	bySigner map[signerRound]ViewVote

	// order preserves insertion order so GetUpTo can replay everything
	// known at or below a given (height, view) in the order it arrived.
	order []record

	// low is the watermark set by ThrowOutOld: any ViewVote with
	// (height, view) below low is considered pruned/unknown.
	low ViewVote
}

type signerRound struct {
	Signer common.Address
	Height Height
	View   View
}

type record struct {
	Message Message
	Signer  common.Address
}

// NewVoteCollector returns an empty collector.
func NewVoteCollector() *VoteCollector {
	return &VoteCollector{
		buckets:  make(map[ViewVote]map[common.Address]Signature),
		bySigner: make(map[signerRound]ViewVote),
	}
}

// Vote inserts signer's message. If signer has already committed to a
// different ViewVote at the same (height, view), it reports a double vote
// and does not record the new message (the collector keeps the first vote
// it saw, which is what any honest verifier would have seen too).
func (c *VoteCollector) Vote(msg Message, signer common.Address) (conflicting common.Address, isDouble bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vv := msg.ViewVote
	key := signerRound{Signer: signer, Height: vv.Height, View: vv.View}
	if prev, ok := c.bySigner[key]; ok && prev != vv {
		return signer, true
	}
	c.bySigner[key] = vv

	bucket := c.buckets[vv]
	if bucket == nil {
		bucket = make(map[common.Address]Signature)
		c.buckets[vv] = bucket
	}
	if _, already := bucket[signer]; !already {
		bucket[signer] = msg.Signature
		c.order = append(c.order, record{Message: msg, Signer: signer})
	}
	return common.Address{}, false
}

// CountAlignedVotes returns the number of distinct signers who have
// committed to exactly vv.
func (c *VoteCollector) CountAlignedVotes(vv ViewVote) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets[vv])
}

// RoundSignatures returns every signature collected for vv, ordered by
// signer address so the resulting seal field is deterministic regardless
// of arrival order.
func (c *VoteCollector) RoundSignatures(vv ViewVote) []Signature {
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket := c.buckets[vv]
	if len(bucket) == 0 {
		return nil
	}
	addrs := make([]common.Address, 0, len(bucket))
	for a := range bucket {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	sigs := make([]Signature, len(addrs))
	for i, a := range addrs {
		sigs[i] = bucket[a]
	}
	return sigs
}

// Get recovers the signer of a locally known message, if it is present in
// the bucket its ViewVote maps to.
func (c *VoteCollector) Get(msg Message) (common.Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, sig := range c.buckets[msg.ViewVote] {
		if sig == msg.Signature {
			return addr, true
		}
	}
	return common.Address{}, false
}

// GetUpTo returns every message recorded at or below vv's (height, view),
// in the order it was first recorded.
func (c *VoteCollector) GetUpTo(vv ViewVote) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Message
	for _, r := range c.order {
		if heightViewLE(r.Message.ViewVote, vv) {
			out = append(out, r.Message)
		}
	}
	return out
}

// IsOldOrKnown reports whether msg is either below the pruning watermark,
// or a message whose exact signature is already recorded for its ViewVote.
// This check happens before signer recovery, so it can only compare raw
// signature bytes, not signer identity.
func (c *VoteCollector) IsOldOrKnown(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	vv := msg.ViewVote
	if heightViewLess(vv, c.low) {
		return true
	}
	for _, sig := range c.buckets[vv] {
		if sig == msg.Signature {
			return true
		}
	}
	return false
}

// ThrowOutOld discards everything strictly older than vv's (height, view)
// and raises the pruning watermark to vv.
func (c *VoteCollector) ThrowOutOld(vv ViewVote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.low = vv

	for k := range c.buckets {
		if heightViewLess(k, vv) {
			delete(c.buckets, k)
		}
	}
	for k := range c.bySigner {
		if k.Height < vv.Height || (k.Height == vv.Height && k.View < vv.View) {
			delete(c.bySigner, k)
		}
	}
	kept := c.order[:0:0]
	for _, r := range c.order {
		if !heightViewLess(r.Message.ViewVote, vv) {
			kept = append(kept, r)
		}
	}
	c.order = kept
}

func heightViewLess(a, b ViewVote) bool {
	if a.Height != b.Height {
		return a.Height < b.Height
	}
	return a.View < b.View
}

func heightViewLE(a, b ViewVote) bool {
	if a.Height != b.Height {
		return a.Height < b.Height
	}
	return a.View <= b.View
}
