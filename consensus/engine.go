// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package consensus

import (
	"fmt"
	"sync"
	"time"

	"github.com/los-network/los-core/crypto"
	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/lerrors"
	"github.com/los-network/los-core/log"
	"github.com/los-network/los-core/params"
)

// Broadcaster fans a consensus message out to every other validator. The
// coordinator (C9) wires this to transport.WSBus or transport.MemBus; tests
// wire it to an in-memory fake.
type Broadcaster interface {
	BroadcastPrePrepare(PrePrepareMsg) error
	BroadcastVote(VoteMsg) error
	BroadcastViewChange(ViewChangeMsg) error
}

// Finalizer is invoked once a Commit quorum is reached for a round. The
// coordinator's implementation appends the block to the ledger (C2) and
// advances whatever depends on chain height (C5/C6/C7 epoch clocks).
type Finalizer func(height uint64, blockHash string, block *ledger.Block) error

// round holds the in-flight voting state for a single (height, view).
type round struct {
	height   uint64
	view     uint64
	proposal *PrePrepareMsg
	votes    [2]map[string]VoteMsg // indexed by Phase{Prepare,Commit} - 1, keyed by validator address
	prepared bool
	started  time.Time
}

func newRound(height, view uint64, now time.Time) *round {
	return &round{
		height: height,
		view:   view,
		votes:  [2]map[string]VoteMsg{make(map[string]VoteMsg), make(map[string]VoteMsg)},
		started: now,
	}
}

func (r *round) voteMap(phase Phase) map[string]VoteMsg { return r.votes[phase-PhasePrepare] }

// Engine drives one height's worth of Pre-Prepare/Prepare/Commit voting.
// A new Engine is constructed per height by the coordinator; the
// validator set and minimum voting power are genesis-pinned inputs.
type Engine struct {
	mu sync.Mutex

	self       string
	signingKey crypto.PrivateKey
	chainID    uint64

	validators *ValidatorSet
	minPower   uint64 // P_min, §4.4's Open Question, pinned via genesis.ConsensusParams.MinPower

	broadcaster Broadcaster
	finalizer   Finalizer
	finalized   *finalizedCache

	// PubKeyLookup resolves a validator address to its known public key,
	// for Pre-Prepare signature verification. The coordinator wires this
	// to the ledger's AccountState.PublicKey (populated on an account's
	// first block).
	PubKeyLookup func(address string) crypto.PublicKey

	cur *round
	now func() time.Time
}

// New constructs a consensus engine for one validator node.
func New(self string, signingKey crypto.PrivateKey, chainID uint64, validators *ValidatorSet, minPower uint64, b Broadcaster, f Finalizer) *Engine {
	return &Engine{
		self:        self,
		signingKey:  signingKey,
		chainID:     chainID,
		validators:  validators,
		minPower:    minPower,
		broadcaster: b,
		finalizer:   f,
		finalized:   newFinalizedCache(params.FinalizedCacheSize),
		now:         time.Now,
	}
}

// StartRound begins voting at (height, view=0). If this node is the
// elected leader for view 0, it immediately broadcasts a Pre-Prepare for
// candidate.
func (e *Engine) StartRound(height uint64, candidate *ledger.Block) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cur = newRound(height, 0, e.now())

	leader := e.validators.LeaderForView(0)
	if leader != e.self {
		return nil
	}
	return e.proposeLocked(candidate)
}

func (e *Engine) proposeLocked(candidate *ledger.Block) error {
	hash := candidate.Hash(e.chainID)
	msg := PrePrepareMsg{
		View:      e.cur.view,
		Height:    e.cur.height,
		BlockHash: hash,
		Block:     candidate,
		Leader:    e.self,
	}
	sig, err := crypto.Sign(e.signingKey, prePrepareSigningPayload(msg))
	if err != nil {
		return fmt.Errorf("consensus: sign pre-prepare: %w", err)
	}
	msg.Signature = sig
	e.cur.proposal = &msg

	log.Info("⚡ proposing block", "height", msg.Height, "view", msg.View, "hash", msg.BlockHash[:16])
	if err := e.broadcaster.BroadcastPrePrepare(msg); err != nil {
		return err
	}
	return e.castPrepareLocked(hash)
}

// HandlePrePrepare processes a leader's proposal. On acceptance it casts
// this validator's own Prepare vote.
func (e *Engine) HandlePrePrepare(msg PrePrepareMsg) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil || msg.Height != e.cur.height {
		return lerrors.New(lerrors.KindWrongView, "pre-prepare for height %d, expected %d", msg.Height, e.cur.height)
	}
	if msg.View != e.cur.view {
		return lerrors.New(lerrors.KindWrongView, "pre-prepare view %d != current view %d", msg.View, e.cur.view)
	}
	expectedLeader := e.validators.LeaderForView(msg.View)
	if msg.Leader != expectedLeader {
		return lerrors.New(lerrors.KindNotEligibleVoter, "pre-prepare from %s, expected leader %s", msg.Leader, expectedLeader)
	}
	if !crypto.Verify(e.leaderPubKey(msg.Leader), prePrepareSigningPayload(msg), msg.Signature) {
		return lerrors.New(lerrors.KindNotEligibleVoter, "invalid pre-prepare signature")
	}
	if msg.Block.Hash(e.chainID) != msg.BlockHash {
		return lerrors.New(lerrors.KindFormat, "pre-prepare hash does not match embedded block")
	}

	e.cur.proposal = &msg
	return e.castPrepareLocked(msg.BlockHash)
}

func (e *Engine) castPrepareLocked(blockHash string) error {
	vote := VoteMsg{Phase: PhasePrepare, View: e.cur.view, Height: e.cur.height, BlockHash: blockHash, Validator: e.self}
	sig, err := crypto.Sign(e.signingKey, voteSigningPayload(vote))
	if err != nil {
		return fmt.Errorf("consensus: sign prepare: %w", err)
	}
	vote.Signature = sig
	e.cur.voteMap(PhasePrepare)[e.self] = vote
	if err := e.broadcaster.BroadcastVote(vote); err != nil {
		return err
	}
	if !e.cur.prepared && e.hasQuorumLocked(PhasePrepare, blockHash) {
		e.cur.prepared = true
		return e.castCommitLocked(blockHash)
	}
	return nil
}

// HandleVote processes a Prepare or Commit vote from another validator,
// advancing the round to Commit (on Prepare quorum) or finalizing (on
// Commit quorum).
func (e *Engine) HandleVote(msg VoteMsg) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil || msg.Height != e.cur.height || msg.View != e.cur.view {
		return lerrors.New(lerrors.KindWrongView, "vote for (%d,%d), current round is (%d,%d)", msg.Height, msg.View, e.cur.height, e.cur.view)
	}
	if e.finalized.Contains(msg.BlockHash) {
		return lerrors.New(lerrors.KindStaleVote, "block %s already finalized", msg.BlockHash)
	}
	stake := e.validators.StakeOf(msg.Validator)
	if !e.validators.Contains(msg.Validator) || stake.Cmp(ledger.NewAmount(e.minPower)) < 0 {
		return lerrors.New(lerrors.KindNotEligibleVoter, "validator %s below minimum voting power", msg.Validator)
	}

	e.cur.voteMap(msg.Phase)[msg.Validator] = msg

	switch msg.Phase {
	case PhasePrepare:
		if !e.cur.prepared && e.hasQuorumLocked(PhasePrepare, msg.BlockHash) {
			e.cur.prepared = true
			return e.castCommitLocked(msg.BlockHash)
		}
	case PhaseCommit:
		if e.hasQuorumLocked(PhaseCommit, msg.BlockHash) {
			return e.finalizeLocked(msg.BlockHash)
		}
	}
	return nil
}

func (e *Engine) castCommitLocked(blockHash string) error {
	vote := VoteMsg{Phase: PhaseCommit, View: e.cur.view, Height: e.cur.height, BlockHash: blockHash, Validator: e.self}
	sig, err := crypto.Sign(e.signingKey, voteSigningPayload(vote))
	if err != nil {
		return fmt.Errorf("consensus: sign commit: %w", err)
	}
	vote.Signature = sig
	e.cur.voteMap(PhaseCommit)[e.self] = vote
	if err := e.broadcaster.BroadcastVote(vote); err != nil {
		return err
	}
	if e.hasQuorumLocked(PhaseCommit, blockHash) {
		return e.finalizeLocked(blockHash)
	}
	return nil
}

func (e *Engine) finalizeLocked(blockHash string) error {
	if e.cur.proposal == nil || e.cur.proposal.BlockHash != blockHash {
		return lerrors.New(lerrors.KindFormat, "commit quorum for unknown proposal %s", blockHash)
	}
	block := e.cur.proposal.Block
	height := e.cur.height
	e.finalized.Add(blockHash)
	log.Info("🔒 block finalized", "height", height, "hash", blockHash[:16], "view", e.cur.view)
	return e.finalizer(height, blockHash, block)
}

// hasQuorumLocked sums the stake of every distinct vote cast for
// blockHash in phase and compares against the 2/3-of-total-stake
// threshold (the stake-weighted rendering of classical PBFT's 2f+1).
func (e *Engine) hasQuorumLocked(phase Phase, blockHash string) bool {
	voting := ledger.ZeroAmount()
	for _, v := range e.cur.voteMap(phase) {
		if v.BlockHash != blockHash {
			continue
		}
		voting, _ = voting.Add(e.validators.StakeOf(v.Validator))
	}
	total := e.validators.TotalStake()
	threshold, _ := total.MulDivFloor(ledger.NewAmount(2), ledger.NewAmount(3))
	return voting.Cmp(threshold) > 0
}

// CheckViewChangeTimeout advances to the next view if the current leader
// has not produced a Pre-Prepare within PrePrepareTimeoutMs of round
// start. candidate is this node's block to propose if the new view
// elects it leader. Returns the ViewChangeMsg broadcast, or nil if no
// timeout fired.
func (e *Engine) CheckViewChangeTimeout(candidate *ledger.Block) (*ViewChangeMsg, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil || e.cur.proposal != nil {
		return nil, nil
	}
	if e.now().Sub(e.cur.started) < time.Duration(params.PrePrepareTimeoutMs)*time.Millisecond {
		return nil, nil
	}

	newView := e.cur.view + 1
	msg := ViewChangeMsg{NewView: newView, Height: e.cur.height, Validator: e.self}
	sig, err := crypto.Sign(e.signingKey, viewChangeSigningPayload(msg))
	if err != nil {
		return nil, fmt.Errorf("consensus: sign view-change: %w", err)
	}
	msg.Signature = sig

	e.cur = newRound(e.cur.height, newView, e.now())
	log.Warn("⏱️ leader timeout, advancing view", "height", msg.Height, "newView", newView)

	if err := e.broadcaster.BroadcastViewChange(msg); err != nil {
		return &msg, err
	}
	if e.validators.LeaderForView(newView) == e.self {
		if err := e.proposeLocked(candidate); err != nil {
			return &msg, err
		}
	}
	return &msg, nil
}

// HandleViewChange adopts a peer's view-change once this node's own view
// has fallen behind, and proposes if the new view elects it leader.
func (e *Engine) HandleViewChange(msg ViewChangeMsg, candidate *ledger.Block) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil || msg.Height != e.cur.height || msg.NewView <= e.cur.view {
		return nil
	}
	e.cur = newRound(msg.Height, msg.NewView, e.now())
	if e.validators.LeaderForView(msg.NewView) != e.self {
		return nil
	}
	return e.proposeLocked(candidate)
}

func (e *Engine) leaderPubKey(addr string) crypto.PublicKey {
	if e.PubKeyLookup == nil {
		return nil
	}
	return e.PubKeyLookup(addr)
}

func prePrepareSigningPayload(msg PrePrepareMsg) []byte {
	buf := make([]byte, 0, 64+len(msg.BlockHash)+len(msg.Leader))
	buf = append(buf, []byte("PREPREPARE")...)
	buf = appendU64LE(buf, msg.View)
	buf = appendU64LE(buf, msg.Height)
	buf = append(buf, []byte(msg.BlockHash)...)
	buf = append(buf, []byte(msg.Leader)...)
	return buf
}

func voteSigningPayload(msg VoteMsg) []byte {
	buf := make([]byte, 0, 64+len(msg.BlockHash)+len(msg.Validator))
	buf = append(buf, []byte(msg.Phase.String())...)
	buf = appendU64LE(buf, msg.View)
	buf = appendU64LE(buf, msg.Height)
	buf = append(buf, []byte(msg.BlockHash)...)
	buf = append(buf, []byte(msg.Validator)...)
	return buf
}

func viewChangeSigningPayload(msg ViewChangeMsg) []byte {
	buf := make([]byte, 0, 32+len(msg.Validator))
	buf = append(buf, []byte("VIEWCHANGE")...)
	buf = appendU64LE(buf, msg.NewView)
	buf = appendU64LE(buf, msg.Height)
	buf = append(buf, []byte(msg.Validator)...)
	return buf
}

func appendU64LE(buf []byte, v uint64) []byte {
	var tmp [8]byte
	for i := 0; i < 8; i++ {
		tmp[i] = byte(v >> (8 * i))
	}
	return append(buf, tmp[:]...)
}
