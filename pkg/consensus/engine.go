// file: pkg/consensus/engine.go
package consensus

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/abab/abab/pkg/util"
)

// Metrics is the subset of instrumentation the engine reports to; satisfied
// by pkg/metrics.Collector. Nil-safe: every call site checks for nil so the
// engine works unmetered in tests.
type Metrics interface {
	VoteReceived(tag VoteTag)
	ViewChanged(height Height, view View)
	Committed(height Height)
	SetHeightView(height Height, view View)
}

// Engine is the Abab consensus state machine. (height, view, proposed) are
// the three fields every other validator's observable state depends on;
// they're held as atomics for cheap reads and mutated only while holding mu,
// since several transitions (advancing the view, sealing) are read-modify-
// write operations that must not race each other.
type Engine struct {
	mu sync.Mutex

	height   atomic.Uint64
	view     atomic.Uint64
	proposed atomic.Bool
	sealed   atomic.Bool

	// proposalHash is the bare hash of this node's own proposal for the
	// current (height, view). Only GenerateSeal sets it, so it is valid
	// while proposed is true on the primary; IsProposal leaves it as is.
	proposalHash common.Hash

	validators ValidatorSet
	signer     *signerHandle
	collector  *VoteCollector
	timeout    *TimeoutService
	client     *clientHandle

	timeoutDuration      time.Duration
	gasLimitBoundDivisor uint64
	blockReward          uint64

	logger  *zap.SugaredLogger
	metrics Metrics
}

// EngineConfig bundles the construction-time parameters an Engine needs.
type EngineConfig struct {
	Validators           ValidatorSet
	Signer               Signer
	Timeout              time.Duration
	GasLimitBoundDivisor uint64
	BlockReward          uint64
	Logger               *zap.SugaredLogger
	Metrics              Metrics
	Clock                util.Clock
}

// NewEngine constructs an engine at height 1, view 0, with its timeout timer
// armed when cfg.Timeout is positive (a zero Timeout leaves it unarmed).
// Clock defaults to util.RealClock{} if nil.
func NewEngine(cfg EngineConfig) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	e := &Engine{
		validators:           cfg.Validators,
		signer:               &signerHandle{},
		collector:            NewVoteCollector(),
		client:               &clientHandle{},
		timeoutDuration:      cfg.Timeout,
		gasLimitBoundDivisor: cfg.GasLimitBoundDivisor,
		blockReward:          cfg.BlockReward,
		logger:               cfg.Logger,
		metrics:              cfg.Metrics,
	}
	e.height.Store(1)
	if cfg.Signer != nil {
		e.signer.set(cfg.Signer)
	}
	e.timeout = NewTimeoutService(clock, e.step, cfg.Logger)
	if e.timeoutDuration > 0 {
		e.timeout.SetTimeout(e.timeoutDuration)
	}
	return e
}

// Height is the current block height, read with sequentially-consistent
// atomic semantics.
func (e *Engine) Height() Height { return Height(e.height.Load()) }

// View is the current view within Height.
func (e *Engine) View() View { return View(e.view.Load()) }

// Proposed reports whether a proposal for the current (height, view) is in
// hand: this node's own (GenerateSeal) or the primary's, accepted through
// IsProposal.
func (e *Engine) Proposed() bool { return e.proposed.Load() }

// Name identifies the consensus algorithm, as the import pipeline's
// Engine trait requires.
func (e *Engine) Name() string { return "Abab" }

// Version is the engine's protocol version string.
func (e *Engine) Version() string { return "1.0.0" }

// SealFields is the number of raw header-seal fields this engine produces.
func (e *Engine) SealFields() int { return SealFieldCount }

// MaximumUncleCount is always zero: Abab has no uncle/ommer concept.
func (e *Engine) MaximumUncleCount() int { return 0 }

// IsSealer reports whether addr is a member of the validator set.
func (e *Engine) IsSealer(addr common.Address) bool { return e.validators.Contains(addr) }

// RegisterClient installs the host's Client callback surface.
func (e *Engine) RegisterClient(c Client) { e.client.set(c) }

// SetSigner installs (or replaces) this node's signing identity.
func (e *Engine) SetSigner(s Signer) { e.signer.set(s) }

// Stop disarms the engine's timeout timer. The engine does not otherwise
// own any goroutines.
func (e *Engine) Stop() { e.timeout.Stop() }

func (e *Engine) primary(height Height, view View) common.Address {
	return e.validators.Get(uint64(height) + uint64(view))
}

// HandleMessage decodes, authenticates, and records wire bytes received
// from the transport layer, then feeds the result into handleValidMessage.
func (e *Engine) HandleMessage(data []byte) error {
	msg, err := DecodeMessage(data)
	if err != nil {
		return fmt.Errorf("handle message: %w", err)
	}
	if e.collector.IsOldOrKnown(msg) {
		return nil
	}
	signer, err := recoverAddress(msg.ViewVote.Digest(), msg.Signature)
	if err != nil {
		return fmt.Errorf("handle message: recover signer: %w", err)
	}
	if !e.validators.Contains(signer) {
		return &NotAuthorizedError{Signer: signer}
	}
	if conflict, double := e.collector.Vote(msg, signer); double {
		return &DoubleVoteError{Signer: conflict}
	}
	if e.metrics != nil {
		e.metrics.VoteReceived(msg.ViewVote.Tag)
	}
	if c := e.client.get(); c != nil {
		c.BroadcastConsensusMessage(data)
	}
	e.handleValidMessage(msg, signer)
	return nil
}

// handleValidMessage reacts to a message that has already passed
// authentication and equivocation checks.
func (e *Engine) handleValidMessage(msg Message, signer common.Address) {
	vv := msg.ViewVote
	if vv.Height != e.Height() {
		// Messages for other heights are retained by the collector for
		// later catch-up but don't drive this height's state machine.
		return
	}

	self := e.signer.get()
	if self == nil {
		return
	}

	switch vv.Tag {
	case TagVote:
		if !e.Proposed() {
			return
		}
		if e.primary(vv.Height, vv.View) != self.Address() {
			return
		}
		n := e.validators.Count()
		if e.collector.CountAlignedVotes(vv)*3 > 2*n {
			if c := e.client.get(); c != nil {
				c.UpdateSealing()
			}
		}
	case TagViewChange:
		// vv carries the view the sender is abandoning, not the view it
		// wants: the candidate view under consideration is vv.View + 1.
		if vv.View < e.View() {
			return
		}
		candidate := vv.View + 1
		if e.primary(vv.Height, candidate) != self.Address() {
			return
		}
		n := e.validators.Count()
		if e.collector.CountAlignedVotes(vv)*3 > n {
			e.advanceView(vv.Height, candidate)
		}
	default:
		return
	}
}

// advanceView moves to a new view within the current height: resets
// proposed/sealed, reschedules the timer, and asks the sealing pipeline to
// try again (the new primary may be us).
func (e *Engine) advanceView(height Height, newView View) {
	e.mu.Lock()
	e.view.Store(uint64(newView))
	e.proposed.Store(false)
	e.sealed.Store(false)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.ViewChanged(height, newView)
		e.metrics.SetHeightView(height, newView)
	}
	if e.timeoutDuration > 0 {
		e.timeout.SetTimeout(e.timeoutDuration)
	}
	if c := e.client.get(); c != nil {
		c.UpdateSealing()
	}
}

// toNextHeight advances to the next height, view 0, and garbage-collects
// every message below it from the collector.
func (e *Engine) toNextHeight(newHeight Height) {
	e.mu.Lock()
	e.height.Store(uint64(newHeight))
	e.view.Store(0)
	e.proposed.Store(false)
	e.sealed.Store(false)
	e.mu.Unlock()

	e.collector.ThrowOutOld(ViewVote{Height: newHeight, View: 0})
	if e.metrics != nil {
		e.metrics.Committed(newHeight - 1)
		e.metrics.SetHeightView(newHeight, 0)
	}
	if e.timeoutDuration > 0 {
		e.timeout.SetTimeout(e.timeoutDuration)
	}
	if c := e.client.get(); c != nil {
		c.UpdateSealing()
	}
}

// step fires on view timeout: broadcast a ViewChange for the current
// (height, view), record it locally, rebroadcast every message the
// collector already knows about at or below that point (so a validator
// that just joined or missed a gossip round catches up), and reschedule.
func (e *Engine) step() {
	if e.timeoutDuration > 0 {
		e.timeout.SetTimeout(e.timeoutDuration)
	}

	height, view := e.Height(), e.View()
	vv := ViewVote{Height: height, View: view, Tag: TagViewChange}
	signer := e.signer.get()
	if signer == nil {
		return
	}
	sig, err := signer.Sign(vv.Digest())
	if err != nil {
		if e.logger != nil {
			e.logger.Warnw("step: sign failed", "err", err)
		}
		return
	}

	msg := Message{Signature: sig, ViewVote: vv}
	e.collector.Vote(msg, signer.Address())

	for _, m := range e.collector.GetUpTo(vv) {
		data, err := EncodeMessage(m)
		if err != nil {
			if e.logger != nil {
				e.logger.Warnw("step: encode failed", "err", err)
			}
			continue
		}
		if c := e.client.get(); c != nil {
			c.BroadcastConsensusMessage(data)
		}
	}

	e.handleValidMessage(msg, signer.Address())
}

// IsProposal reports whether header carries a fresh proposal (as opposed
// to an already-committed block): a committed header's vote-signature
// field is non-empty. Observing a commit at or above our current height
// advances us to the height after it; a proposal never changes the height.
func (e *Engine) IsProposal(h *Header) (bool, error) {
	seal, err := DecodeSeal(h.Seal)
	if err != nil {
		return false, err
	}
	if len(seal.VoteSignatures) > 0 {
		if h.Number >= e.Height() {
			e.toNextHeight(h.Number + 1)
		}
		return false, nil
	}

	bare := BareHash(h)
	vv := ViewVote{Height: h.Number, View: seal.View, Tag: TagProposal, BlockHash: bare}
	signer, err := recoverAddress(vv.Digest(), seal.ProposalSignature)
	if err != nil {
		return false, fmt.Errorf("is_proposal: recover signer: %w", err)
	}
	expected := e.primary(vv.Height, vv.View)
	if signer != expected {
		return false, &NotProposerError{Expected: expected, Found: signer}
	}

	e.collector.Vote(Message{Signature: seal.ProposalSignature, ViewVote: vv}, signer)
	e.mu.Lock()
	current := vv.Height == e.Height() && vv.View == e.View()
	if current {
		e.proposed.Store(true)
	}
	e.mu.Unlock()
	if current {
		e.voteForProposal(vv.Height, vv.View, bare)
	}
	return true, nil
}

// voteForProposal signs and broadcasts this node's own Vote for a proposal
// it has just accepted, unless this node is the proposal's own primary (the
// primary's proposal signature already stands in for its vote, so only the
// non-primary validators send Vote messages).
func (e *Engine) voteForProposal(height Height, view View, blockHash common.Hash) {
	self := e.signer.get()
	if self == nil || e.primary(height, view) == self.Address() {
		return
	}
	voteVV := ViewVote{Height: height, View: view, Tag: TagVote, BlockHash: blockHash}
	sig, err := self.Sign(voteVV.Digest())
	if err != nil {
		if e.logger != nil {
			e.logger.Warnw("is_proposal: sign vote failed", "err", err)
		}
		return
	}
	voteMsg := Message{Signature: sig, ViewVote: voteVV}
	if _, double := e.collector.Vote(voteMsg, self.Address()); double {
		return
	}
	data, err := EncodeMessage(voteMsg)
	if err != nil {
		if e.logger != nil {
			e.logger.Warnw("is_proposal: encode vote failed", "err", err)
		}
		return
	}
	if c := e.client.get(); c != nil {
		c.BroadcastConsensusMessage(data)
	}
}

// GenerateSeal produces the seal fields for header, whose Number must equal
// this engine's current height. If this node has not yet proposed for the
// current (height, view), it signs and returns an initial proposal seal
// (vote field empty). If it has already proposed and its own proposal now
// has a quorum of aligned votes, it assembles and returns the commit seal.
// Otherwise it returns ErrSealNotReady.
func (e *Engine) GenerateSeal(header *Header) (Seal, error) {
	height, view := e.Height(), e.View()
	if header.Number != height {
		return Seal{}, fmt.Errorf("generate seal: header height %d != engine height %d", header.Number, height)
	}
	signer := e.signer.get()
	if signer == nil {
		return Seal{}, fmt.Errorf("generate seal: no signer set")
	}
	primary := e.primary(height, view)
	if primary != signer.Address() {
		return Seal{}, fmt.Errorf("generate seal: not primary at height=%d view=%d", height, view)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vcVV := ViewVote{Height: height, View: view, Tag: TagViewChange}

	if !e.proposed.Load() {
		bare := BareHash(header)
		propVV := ViewVote{Height: height, View: view, Tag: TagProposal, BlockHash: bare}
		sig, err := signer.Sign(propVV.Digest())
		if err != nil {
			return Seal{}, fmt.Errorf("generate seal: sign proposal: %w", err)
		}
		e.collector.Vote(Message{Signature: sig, ViewVote: propVV}, signer.Address())
		e.proposalHash = bare
		e.proposed.Store(true)

		return Seal{
			View:                 view,
			ProposalSignature:    sig,
			ViewChangeSignatures: e.collector.RoundSignatures(vcVV),
			VoteSignatures:       nil,
		}, nil
	}

	if e.sealed.Load() {
		return Seal{}, ErrSealNotReady
	}

	ownVote := ViewVote{Height: height, View: view, Tag: TagVote, BlockHash: e.proposalHash}
	n := e.validators.Count()
	if e.collector.CountAlignedVotes(ownVote)*3 <= 2*n {
		return Seal{}, ErrSealNotReady
	}

	propVV := ViewVote{Height: height, View: view, Tag: TagProposal, BlockHash: e.proposalHash}
	propSigs := e.collector.RoundSignatures(propVV)
	var propSig Signature
	if len(propSigs) > 0 {
		propSig = propSigs[0]
	}

	seal := Seal{
		View:                 view,
		ProposalSignature:    propSig,
		ViewChangeSignatures: e.collector.RoundSignatures(vcVV),
		VoteSignatures:       e.collector.RoundSignatures(ownVote),
	}
	e.collector.ThrowOutOld(ownVote)
	e.sealed.Store(true)
	return seal, nil
}

// PopulateFromParent fills in the difficulty and gas limit of a new header
// before it is proposed: difficulty copied from the parent, gas limit
// nudged toward [gasFloor, gasCeil] by at most parent.GasLimit/D per block.
func (e *Engine) PopulateFromParent(header, parent *Header, gasFloor, gasCeil uint64) {
	header.Difficulty = parent.Difficulty
	header.GasLimit = calcGasLimit(parent.GasLimit, gasFloor, gasCeil, e.gasLimitBoundDivisor)
}

func calcGasLimit(parentLimit, floor, ceil, divisor uint64) uint64 {
	if divisor == 0 {
		return parentLimit
	}
	delta := parentLimit / divisor
	if delta == 0 {
		delta = 1
	}
	if parentLimit < floor {
		limit := parentLimit + delta
		if limit > floor {
			limit = floor
		}
		return limit
	}
	if parentLimit > ceil {
		limit := parentLimit - delta
		if limit < ceil {
			limit = ceil
		}
		return limit
	}
	return parentLimit
}

// RewardSink receives the block reward this engine credits on close. Block
// execution and state application are out of scope; only the crediting
// call site belongs to the engine.
type RewardSink interface {
	CreditBlockReward(addr common.Address, amount uint64)
}

// OnCloseBlock credits the configured block reward to header.Author.
func (e *Engine) OnCloseBlock(header *Header, sink RewardSink) {
	if sink != nil && e.blockReward > 0 {
		sink.CreditBlockReward(header.Author, e.blockReward)
	}
}
