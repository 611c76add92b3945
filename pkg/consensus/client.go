// file: pkg/consensus/client.go
package consensus

import "sync"

// Client is the host's callback surface. The engine never owns the client
// and never blocks waiting on it; both methods are expected to return
// quickly and do their real work elsewhere.
type Client interface {
	// UpdateSealing asks the sealing pipeline to re-evaluate whether a
	// seal (proposal or commit) can now be produced.
	UpdateSealing()
	// BroadcastConsensusMessage hands an encoded Message to the
	// transport layer for gossip to the rest of the committee.
	BroadcastConsensusMessage(data []byte)
}

// clientHandle is a mutex-guarded, swappable, possibly-absent reference to
// the host's Client. Go has no portable weak pointer, so this is the
// idiomatic approximation of a non-owning handle: calls through it are
// no-ops when absent, and the host (not the engine) is responsible for
// not creating a reference cycle that would keep the client alive solely
// through the engine.
type clientHandle struct {
	mu sync.RWMutex
	c  Client
}

func (h *clientHandle) set(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.c = c
}

func (h *clientHandle) get() Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.c
}
