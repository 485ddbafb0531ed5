// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package slashing implements the slashing accountability engine (C8):
// offence/penalty classification, evidence detection helpers, and the
// multi-validator proposal/confirmation protocol that must reach
// ceil(2n/3)+1 distinct confirmations before a Slash debits stake.
package slashing

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/los-network/los-core/crypto"
	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/lerrors"
	"github.com/los-network/los-core/log"
	"github.com/los-network/los-core/params"
	"github.com/los-network/los-core/validators"
)

// Offence identifies one of §4.8's four slashable offences.
type Offence string

const (
	OffenceDoubleSign         Offence = "DoubleSign"
	OffenceFraudulentMintBurn Offence = "FraudulentMintBurn"
	OffenceExtendedDowntime   Offence = "ExtendedDowntime"
	OffenceOracleManipulation Offence = "OracleManipulation"
)

// PenaltyBps returns the slash percentage, in basis points of stake, for
// offence (§4.8's table).
func PenaltyBps(o Offence) uint64 {
	switch o {
	case OffenceDoubleSign:
		return params.SlashDoubleSignBps
	case OffenceFraudulentMintBurn:
		return params.SlashFraudMintBps
	case OffenceExtendedDowntime:
		return params.SlashDowntimeBps
	case OffenceOracleManipulation:
		return params.SlashOracleManipBps
	default:
		return 0
	}
}

// PostState returns the validators.Status a target transitions to once
// the offence is confirmed (§4.8's "Post-state" column).
func PostState(o Offence) validators.Status {
	switch o {
	case OffenceDoubleSign, OffenceFraudulentMintBurn:
		return validators.StatusBanned
	default:
		return validators.StatusSlashed
	}
}

// DetectDoubleSign reports whether a and b are two distinct blocks
// signed for the same (account, previous) pair — the double-sign
// evidence condition (§4.8).
func DetectDoubleSign(chainID uint64, a, b *ledger.Block) bool {
	if a.Account != b.Account || a.Previous != b.Previous {
		return false
	}
	return a.Hash(chainID) != b.Hash(chainID)
}

// DetectExtendedDowntime reports whether p's uptime has fallen below the
// threshold. The caller is responsible for only invoking this once the
// observation window (DowntimeWindowBlocks finalized blocks) has
// actually elapsed — this function only evaluates the ratio itself.
func DetectExtendedDowntime(p validators.Profile) bool {
	return p.UptimeBps() < params.MinUptimeBps
}

// EvidenceHash deterministically derives the dedup key for a piece of
// slashing evidence from the offence, the target, and whatever
// offence-specific identifiers the caller supplies (e.g. the two
// conflicting block hashes for a double-sign, or a burn txid for
// fraudulent mint/burn).
func EvidenceHash(offence Offence, target string, parts ...string) string {
	buf := []byte(string(offence) + "|" + target)
	for _, p := range parts {
		buf = append(buf, '|')
		buf = append(buf, []byte(p)...)
	}
	digest := crypto.Hash(buf)
	return hex.EncodeToString(digest[:])
}

// SlashProposal is a validator's signed accusation (or echoed
// confirmation — the protocol does not distinguish the two once
// broadcast, §4.8). AmountSnapshot is informational only (what the
// submitter observed); the debited amount is always recomputed from the
// target's live stake once quorum is reached, to defeat front-running.
type SlashProposal struct {
	EvidenceHash   string
	Target         string
	Offence        Offence
	AmountSnapshot ledger.Amount
	Validator      string
}

// ValidatorSet is the narrow slice of consensus.ValidatorSet the
// confirmation quorum needs, duck-typed like oracle.ValidatorSet.
type ValidatorSet interface {
	Len() int
}

type proposalRound struct {
	target    string
	offence   Offence
	confirmed map[string]struct{}
}

// Coordinator accumulates SlashProposal confirmations per evidence hash
// and, once ceil(2n/3)+1 distinct validators have confirmed, debits the
// target's live stake and flips its status.
type Coordinator struct {
	mu         sync.Mutex
	validators ValidatorSet
	registry   *validators.Registry
	pending    map[string]*proposalRound
	finalized  map[string]struct{}
}

// NewCoordinator wires a slashing coordinator to the live validator set
// and the registry it will debit.
func NewCoordinator(vs ValidatorSet, registry *validators.Registry) *Coordinator {
	return &Coordinator{
		validators: vs,
		registry:   registry,
		pending:    make(map[string]*proposalRound),
		finalized:  make(map[string]struct{}),
	}
}

// quorum is ceil(2n/3)+1 distinct confirmations (§4.8).
func (c *Coordinator) quorum() int {
	n := c.validators.Len()
	return (2*n+2)/3 + 1
}

// SlashResult is the outcome of a confirmed slash, for the coordinator
// to route as a Slash block through C4.
type SlashResult struct {
	Target    string
	Offence   Offence
	AmountCil ledger.Amount
	NewStatus validators.Status
}

// HandleProposal records p and, once its evidence hash reaches quorum for
// the first time, executes the slash and returns the result. A nil
// result with a nil error means the evidence is recorded but not yet at
// quorum.
func (c *Coordinator) HandleProposal(p SlashProposal) (*SlashResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, done := c.finalized[p.EvidenceHash]; done {
		return nil, lerrors.New(lerrors.KindDedupViolation, "slashing: evidence %s already finalized", p.EvidenceHash)
	}

	round, ok := c.pending[p.EvidenceHash]
	if !ok {
		round = &proposalRound{target: p.Target, offence: p.Offence, confirmed: make(map[string]struct{})}
		c.pending[p.EvidenceHash] = round
	}
	if round.target != p.Target || round.offence != p.Offence {
		return nil, lerrors.New(lerrors.KindFormat, "slashing: evidence %s target/offence mismatch", p.EvidenceHash)
	}

	wasQuorum := len(round.confirmed) >= c.quorum()
	round.confirmed[p.Validator] = struct{}{}
	if wasQuorum || len(round.confirmed) < c.quorum() {
		return nil, nil
	}

	profile, ok := c.registry.Get(round.target)
	if !ok {
		return nil, fmt.Errorf("slashing: unknown target %s", round.target)
	}
	bps := PenaltyBps(round.offence)
	amount, err := profile.StakeCil.MulDivFloor(ledger.NewAmount(bps), ledger.NewAmount(10_000))
	if err != nil {
		return nil, err
	}
	if err := c.registry.DebitStake(round.target, amount); err != nil {
		return nil, err
	}
	status := PostState(round.offence)
	if err := c.registry.SetStatus(round.target, status); err != nil {
		return nil, err
	}

	c.finalized[p.EvidenceHash] = struct{}{}
	delete(c.pending, p.EvidenceHash)

	log.Warn("🔨 validator slashed", "target", round.target, "offence", round.offence,
		"amount", amount.String(), "newStatus", status)

	return &SlashResult{Target: round.target, Offence: round.offence, AmountCil: amount, NewStatus: status}, nil
}
