// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package consensus implements the 3-phase aBFT engine (C4): Pre-Prepare,
// Prepare, Commit, with linear stake weighting, leader rotation by sorted
// validator address, and a timeout-driven view change. It never touches
// the ledger directly — a round's outcome is handed to a Finalizer
// callback so the coordinator (C9) decides how finalized blocks are
// appended.
package consensus

import "github.com/los-network/los-core/ledger"

// Phase identifies which of the three voting rounds a message belongs to.
type Phase uint8

const (
	PhasePrePrepare Phase = iota
	PhasePrepare
	PhaseCommit
)

func (p Phase) String() string {
	switch p {
	case PhasePrePrepare:
		return "pre-prepare"
	case PhasePrepare:
		return "prepare"
	case PhaseCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// PrePrepareMsg is the leader's proposal for a round: one candidate block
// at a given (view, height).
type PrePrepareMsg struct {
	View      uint64
	Height    uint64
	BlockHash string
	Block     *ledger.Block
	Leader    string
	Signature []byte
}

// VoteMsg is a Prepare or Commit ballot cast by a validator.
type VoteMsg struct {
	Phase     Phase
	View      uint64
	Height    uint64
	BlockHash string
	Validator string
	Signature []byte
}

// ViewChangeMsg is broadcast by a validator that timed out waiting on the
// current leader, nominating the next leader in rotation order.
type ViewChangeMsg struct {
	NewView   uint64
	Height    uint64
	Validator string
	Signature []byte
}

// Validator is a consensus participant's stake-weighted voting identity.
// The coordinator rebuilds the set from the validator registry at
// round-start (node.buildValidatorSet), never caching it across rounds,
// so a Slash applied mid-epoch takes effect on the very next round.
type Validator struct {
	Address  string
	StakeCil ledger.Amount
}
