// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package mint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEpochForTimeAdvancesOnBoundary(t *testing.T) {
	genesis := int64(1_700_000_000)
	assert.Equal(t, uint64(0), EpochForTime(genesis, 120, time.Unix(genesis, 0)))
	assert.Equal(t, uint64(0), EpochForTime(genesis, 120, time.Unix(genesis+119, 0)))
	assert.Equal(t, uint64(1), EpochForTime(genesis, 120, time.Unix(genesis+120, 0)))
}

func TestNextDifficultyBitsRetargetTable(t *testing.T) {
	// S4 from spec.md: difficulty=20, 25 miners (>2*target=20) ->
	// 20 + min(floor(log2(25/10))+1, 4) = 22.
	assert.Equal(t, uint64(22), NextDifficultyBits(20, 25))

	assert.Equal(t, uint64(21), NextDifficultyBits(20, 11)) // > target, +1
	assert.Equal(t, uint64(20), NextDifficultyBits(20, 10)) // == target, no change
	assert.Equal(t, uint64(20), NextDifficultyBits(20, 6))  // target/2 < n <= target
	assert.Equal(t, uint64(19), NextDifficultyBits(20, 5))  // 0 < n <= target/2, -1
	assert.Equal(t, uint64(18), NextDifficultyBits(20, 0))  // n == 0, -2
}

func TestNextDifficultyBitsClampsToBounds(t *testing.T) {
	assert.Equal(t, uint64(16), NextDifficultyBits(16, 0)) // floor
	assert.Equal(t, uint64(40), NextDifficultyBits(40, 999))
}

func TestEpochRewardCilHalves(t *testing.T) {
	full := EpochRewardCil(0)
	halved := EpochRewardCil(8760)
	assert.Equal(t, full.Uint256().Uint64()/2, halved.Uint256().Uint64())
	assert.True(t, EpochRewardCil(8760*64).IsZero())
}
