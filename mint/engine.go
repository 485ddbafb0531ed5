// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package mint

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/log"
	"github.com/los-network/los-core/params"
)

// LedgerView is the narrow read slice of ledger.Ledger the mint engine
// needs for restart recovery, kept separate from ledger's mutation API
// the same way validator.LedgerView is (Design Note "collaborator
// boundary").
type LedgerView interface {
	AllBlocks() []*ledger.Block
}

// mineLinkPrefix is the wire tag prefix every PoW Mint block's Link must
// start with, `"MINE:{epoch}:{nonce}"` (§4.2).
const mineLinkPrefix = "MINE:"

// MineLink formats the Link field of a PoW Mint block.
func MineLink(epoch, nonce uint64) string {
	return mineLinkPrefix + strconv.FormatUint(epoch, 10) + ":" + strconv.FormatUint(nonce, 10)
}

// Engine tracks the live mining epoch: its difficulty, which addresses
// have already been admitted this epoch, and the reward budget they
// split. It satisfies validator.MiningView without either package
// importing the other's concrete type.
type Engine struct {
	mu sync.Mutex

	genesisUnix int64
	epochLenSec int64

	currentEpoch   uint64
	difficultyBits uint64

	admitted     map[string]struct{} // address admitted this epoch
	admittedList []string            // insertion order, for reward splitting
	lastCount    int                 // miners admitted in the epoch that just closed
}

// New constructs a mint engine starting at the epoch the given time falls
// in, with the genesis difficulty floor.
func New(genesisUnix, epochLenSec int64, now time.Time) *Engine {
	return &Engine{
		genesisUnix:    genesisUnix,
		epochLenSec:    epochLenSec,
		currentEpoch:   EpochForTime(genesisUnix, epochLenSec, now),
		difficultyBits: params.MinDifficultyBits,
		admitted:       make(map[string]struct{}),
	}
}

// CurrentEpoch implements validator.MiningView.
func (e *Engine) CurrentEpoch() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentEpoch
}

// DifficultyBits implements validator.MiningView.
func (e *Engine) DifficultyBits() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.difficultyBits
}

// HasAdmitted implements validator.MiningView (I5: at most one Mint per
// (address, epoch) for PoW mining).
func (e *Engine) HasAdmitted(address string, epoch uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.currentEpoch {
		return false
	}
	_, ok := e.admitted[address]
	return ok
}

// RemainingEpochReward implements validator.MiningView. Because the
// final per-miner share (epoch_reward / k) is only known once the epoch
// closes and k is final, a block submitted mid-epoch is checked against
// the fair-share ceiling assuming it becomes the next admission — a
// bound that only shrinks as more miners arrive. A miner admitted early
// is checked against the count at its own submission, so its declared
// amount can exceed epoch_reward / k for the epoch's final k. See
// DESIGN.md for why this, rather than a two-phase commit, was chosen.
func (e *Engine) RemainingEpochReward(epoch uint64) (ledger.Amount, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := len(e.admittedList)
	budget := EpochRewardCil(epoch)
	share, err := budget.MulDivFloor(ledger.NewAmount(1), ledger.NewAmount(uint64(count+1)))
	if err != nil {
		return ledger.ZeroAmount(), count
	}
	return share, count
}

// AdmitMiner records a validated PoW Mint block's admission once C4
// finalizes it, so later submissions in the same epoch see the shrunken
// fair share and HasAdmitted can reject a second attempt.
func (e *Engine) AdmitMiner(address string, epoch uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.currentEpoch {
		return fmt.Errorf("mint: admit for epoch %d but current epoch is %d", epoch, e.currentEpoch)
	}
	if _, ok := e.admitted[address]; ok {
		return fmt.Errorf("mint: %s already admitted for epoch %d", address, epoch)
	}
	e.admitted[address] = struct{}{}
	e.admittedList = append(e.admittedList, address)
	return nil
}

// EpochCloseResult summarizes the epoch boundary. The coordinator uses
// ClosedEpoch to issue validator rewards; PerMinerReward is reported
// here, but no Mint block is issued or adjusted from it.
type EpochCloseResult struct {
	ClosedEpoch    uint64
	MinerCount     int
	Miners         []string
	PerMinerReward ledger.Amount
	NewEpoch       uint64
	NewDifficulty  uint64
}

// AdvanceEpoch closes the current epoch (if wall-clock time has moved
// past it) and retargets difficulty from the observed miner count,
// returning nil if the epoch has not actually rolled over yet.
func (e *Engine) AdvanceEpoch(now time.Time) *EpochCloseResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	epoch := EpochForTime(e.genesisUnix, e.epochLenSec, now)
	if epoch <= e.currentEpoch {
		return nil
	}

	closed := e.currentEpoch
	count := len(e.admittedList)
	miners := e.admittedList

	budget := EpochRewardCil(closed)
	perMiner := ledger.ZeroAmount()
	if count > 0 {
		if share, err := budget.MulDivFloor(ledger.NewAmount(1), ledger.NewAmount(uint64(count))); err == nil {
			perMiner = share
		}
	}

	e.lastCount = count
	e.difficultyBits = NextDifficultyBits(e.difficultyBits, count)
	e.currentEpoch = epoch
	e.admitted = make(map[string]struct{})
	e.admittedList = nil

	log.Info("⛏️  mining epoch closed",
		"epoch", closed, "miners", count, "reward", budget.String(),
		"newEpoch", epoch, "newDifficulty", e.difficultyBits)

	return &EpochCloseResult{
		ClosedEpoch:    closed,
		MinerCount:     count,
		Miners:         miners,
		PerMinerReward: perMiner,
		NewEpoch:       epoch,
		NewDifficulty:  e.difficultyBits,
	}
}

// RecoverFromLedger rebuilds current_epoch_miners after a restart by
// scanning the ledger for Mint blocks whose link begins with
// "MINE:{current_epoch}:" (§4.5, "Restart recovery").
func (e *Engine) RecoverFromLedger(view LedgerView) {
	e.mu.Lock()
	epoch := e.currentEpoch
	prefix := mineLinkPrefix + strconv.FormatUint(epoch, 10) + ":"
	e.mu.Unlock()

	for _, b := range view.AllBlocks() {
		if b.BlockType != ledger.Mint || !strings.HasPrefix(b.Link, prefix) {
			continue
		}
		_ = e.AdmitMiner(b.Account, epoch)
	}

	log.Info("⛏️  mining admissions recovered from ledger", "epoch", epoch, "count", func() int {
		e.mu.Lock()
		defer e.mu.Unlock()
		return len(e.admittedList)
	}())
}
