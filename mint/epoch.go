// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package mint implements the PoW mint engine (C5): epoch scheduling,
// per-address-per-epoch dedup, difficulty retargeting, and the halving
// schedule for mining rewards. It satisfies validator.MiningView so C3
// can check submitted Mint(PoW) blocks without importing this package.
package mint

import (
	"time"

	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/params"
)

// EpochForTime derives the current epoch purely from wall-clock time, the
// genesis start, and the epoch length — never from a mutable counter
// (§4.5, Design Note "global epoch clock as deterministic pure function").
func EpochForTime(genesisUnix, epochLenSec int64, now time.Time) uint64 {
	elapsed := now.Unix() - genesisUnix
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / epochLenSec)
}

// maxHalvings is the point past which MINING_REWARD_PER_EPOCH_CIL >> n
// has shifted all the way to zero for any practical base value; spec.md
// names it explicitly ("zero after 64 halvings") rather than leaving it
// to fall out of the shift.
const maxHalvings = 64

// EpochRewardCil computes the mining reward budget for epoch, halved
// every MiningHalvingIntervalEpochs epochs, floored at zero.
func EpochRewardCil(epoch uint64) ledger.Amount {
	halvings := epoch / params.MiningHalvingIntervalEpochs
	if halvings >= maxHalvings {
		return ledger.ZeroAmount()
	}
	base := params.MiningRewardPerEpoch.Uint64()
	return ledger.NewAmount(base >> halvings)
}

// difficultyTarget and the adjustment table are spec.md §4.5's
// "Difficulty retargeting (on epoch close)" rules, reproduced verbatim.
const difficultyTarget = params.DifficultyTarget

// NextDifficultyBits applies the retarget table to the miner count
// observed during the epoch that just closed, clamped to
// [MinDifficultyBits, MaxDifficultyBits].
func NextDifficultyBits(current uint64, minerCount int) uint64 {
	next := int64(current)
	switch {
	case minerCount > 2*difficultyTarget:
		next += int64(minAdjust(log2Floor(minerCount/difficultyTarget)+1, params.MaxDifficultyAdj))
	case minerCount > difficultyTarget:
		next++
	case minerCount > difficultyTarget/2:
		// no change
	case minerCount > 0:
		next--
	default: // minerCount == 0
		next -= 2
	}

	if next < params.MinDifficultyBits {
		next = params.MinDifficultyBits
	}
	if next > params.MaxDifficultyBits {
		next = params.MaxDifficultyBits
	}
	return uint64(next)
}

func minAdjust(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// log2Floor returns floor(log2(n)) for n >= 1; callers only invoke this
// when minerCount > 2*difficultyTarget > 0.
func log2Floor(n int) int {
	bits := 0
	for n > 1 {
		n >>= 1
		bits++
	}
	return bits
}
