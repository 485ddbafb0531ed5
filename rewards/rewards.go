// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package rewards implements the validator reward engine (C7): the
// halving epoch pool budget, per-validator eligibility, and the
// proportional stake-weighted distribution of that budget.
package rewards

import (
	"strconv"

	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/params"
	"github.com/los-network/los-core/validators"
)

// rewardLinkPrefix is the wire tag prefix for a reward Mint block's
// Link, "REWARD:{epoch}" (§4.2).
const rewardLinkPrefix = "REWARD:"

// maxHalvings matches mint.EpochRewardCil's floor: past this many
// halvings the per-epoch budget has shifted to zero.
const maxHalvings = 64

// EpochBudgetCil computes §4.7's per-epoch pool budget,
// `5000 * 10^11 >> (epoch/48)`, capped at whatever remains in the pool.
func EpochBudgetCil(epoch uint64, remainingPool ledger.Amount) ledger.Amount {
	halvings := epoch / params.RewardHalvingIntervalEpochs
	var raw uint64
	if halvings < maxHalvings {
		raw = params.RewardPerEpoch.Uint64() >> halvings
	}
	budget := ledger.NewAmount(raw)
	if budget.Cmp(remainingPool) > 0 {
		return remainingPool
	}
	return budget
}

// Eligible reports whether p qualifies for a reward at the close of
// currentEpoch, per §4.7's five eligibility conditions.
func Eligible(p validators.Profile, currentEpoch uint64) bool {
	if p.StakeCil.Cmp(ledger.AmountFromUint256(params.MinValidatorStakeCil)) < 0 {
		return false
	}
	if p.UptimeBps() < params.MinUptimeBps {
		return false
	}
	if currentEpoch < p.RegisteredEpoch+1 {
		return false
	}
	if p.IsGenesis {
		return false
	}
	if p.Status != validators.StatusActive {
		return false
	}
	return true
}

// Distribution is one eligible validator's share of an epoch's budget.
type Distribution struct {
	Address string
	Link    string
	Amount  ledger.Amount
}

// Distribute applies §4.7's proportional distribution: each eligible
// validator i with weight w_i=stake_cil_i receives
// budget * w_i / sum(w_j), integer division, remainder left in the pool.
func Distribute(epoch uint64, budget ledger.Amount, profiles []validators.Profile) []Distribution {
	totalWeight := ledger.ZeroAmount()
	eligible := make([]validators.Profile, 0, len(profiles))
	for _, p := range profiles {
		if !Eligible(p, epoch) {
			continue
		}
		eligible = append(eligible, p)
		if sum, err := totalWeight.Add(p.StakeCil); err == nil {
			totalWeight = sum
		}
	}
	if totalWeight.IsZero() {
		return nil
	}

	link := RewardLink(epoch)
	out := make([]Distribution, 0, len(eligible))
	for _, p := range eligible {
		share, err := budget.MulDivFloor(p.StakeCil, totalWeight)
		if err != nil || share.IsZero() {
			continue
		}
		out = append(out, Distribution{Address: p.Address, Link: link, Amount: share})
	}
	return out
}

// RewardLink formats the Link field of a reward Mint block.
func RewardLink(epoch uint64) string {
	return rewardLinkPrefix + strconv.FormatUint(epoch, 10)
}
