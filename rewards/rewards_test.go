// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/params"
	"github.com/los-network/los-core/validators"
)

func eligibleProfile(addr string, stake uint64) validators.Profile {
	return validators.Profile{
		Address:            addr,
		StakeCil:           ledger.NewAmount(stake),
		RegisteredEpoch:    0,
		HeartbeatsSeen:     100,
		ExpectedHeartbeats: 100,
		Status:             validators.StatusActive,
		IsGenesis:          false,
		TotalSlashedCil:    ledger.ZeroAmount(),
	}
}

func TestEpochBudgetCilHalvesAndCaps(t *testing.T) {
	full := EpochBudgetCil(0, ledger.MaxAmount128())
	half := EpochBudgetCil(48, ledger.MaxAmount128())
	assert.Equal(t, full.Uint256().Uint64()/2, half.Uint256().Uint64())

	capped := EpochBudgetCil(0, ledger.NewAmount(1))
	assert.Equal(t, "1", capped.String())
}

func TestEligibleRejectsEachFailureMode(t *testing.T) {
	base := eligibleProfile("v1", 2000*uint64(params.CilPerLos.Uint64()))
	assert.True(t, Eligible(base, 1))

	underStaked := base
	underStaked.StakeCil = ledger.NewAmount(1)
	assert.False(t, Eligible(underStaked, 1))

	lowUptime := base
	lowUptime.HeartbeatsSeen = 10
	assert.False(t, Eligible(lowUptime, 1))

	probation := base
	probation.RegisteredEpoch = 5
	assert.False(t, Eligible(probation, 5))

	genesis := base
	genesis.IsGenesis = true
	assert.False(t, Eligible(genesis, 1))

	slashed := base
	slashed.Status = validators.StatusSlashed
	assert.False(t, Eligible(slashed, 1))
}

func TestDistributeSplitsProportionallyToStake(t *testing.T) {
	profiles := []validators.Profile{
		eligibleProfile("v1", 3000*uint64(params.CilPerLos.Uint64())),
		eligibleProfile("v2", 1000*uint64(params.CilPerLos.Uint64())),
	}
	budget := ledger.NewAmount(4000)
	dist := Distribute(10, budget, profiles)

	byAddr := map[string]ledger.Amount{}
	for _, d := range dist {
		byAddr[d.Address] = d.Amount
		assert.Equal(t, "REWARD:10", d.Link)
	}
	assert.Equal(t, "3000", byAddr["v1"].String())
	assert.Equal(t, "1000", byAddr["v2"].String())
}

func TestDistributeExcludesIneligibleValidators(t *testing.T) {
	ineligible := eligibleProfile("v2", 1000)
	ineligible.IsGenesis = true
	profiles := []validators.Profile{
		eligibleProfile("v1", 3000*uint64(params.CilPerLos.Uint64())),
		ineligible,
	}
	dist := Distribute(10, ledger.NewAmount(4000), profiles)
	assert.Len(t, dist, 1)
	assert.Equal(t, "v1", dist[0].Address)
}
