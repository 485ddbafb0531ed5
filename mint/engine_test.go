// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package mint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/los-network/los-core/ledger"
)

func TestAdmitMinerRejectsSecondAttemptSameEpoch(t *testing.T) {
	e := New(1_700_000_000, 120, time.Unix(1_700_000_000, 0))
	epoch := e.CurrentEpoch()

	require.NoError(t, e.AdmitMiner("alice", epoch))
	assert.True(t, e.HasAdmitted("alice", epoch))

	err := e.AdmitMiner("alice", epoch)
	assert.Error(t, err)
}

func TestRemainingEpochRewardShrinksAsMinersJoin(t *testing.T) {
	e := New(1_700_000_000, 120, time.Unix(1_700_000_000, 0))
	epoch := e.CurrentEpoch()

	shareAlone, count0 := e.RemainingEpochReward(epoch)
	assert.Equal(t, 0, count0)

	require.NoError(t, e.AdmitMiner("alice", epoch))
	shareAfterOne, count1 := e.RemainingEpochReward(epoch)
	assert.Equal(t, 1, count1)
	assert.True(t, shareAfterOne.Cmp(shareAlone) <= 0, "share must not grow as admissions increase")
}

func TestAdvanceEpochClosesAndRetargets(t *testing.T) {
	e := New(1_700_000_000, 120, time.Unix(1_700_000_000, 0))
	epoch := e.CurrentEpoch()

	require.NoError(t, e.AdmitMiner("alice", epoch))
	require.NoError(t, e.AdmitMiner("bob", epoch))

	result := e.AdvanceEpoch(time.Unix(1_700_000_000+120, 0))
	require.NotNil(t, result)
	assert.Equal(t, epoch, result.ClosedEpoch)
	assert.Equal(t, 2, result.MinerCount)
	assert.ElementsMatch(t, []string{"alice", "bob"}, result.Miners)
	assert.Equal(t, epoch+1, result.NewEpoch)
	assert.Equal(t, uint64(1), e.CurrentEpoch())
	assert.False(t, e.HasAdmitted("alice", epoch), "admissions reset after epoch close")

	// no time has passed since the previous close -> nil, not another close
	assert.Nil(t, e.AdvanceEpoch(time.Unix(1_700_000_000+120, 0)))
}

func TestRecoverFromLedgerRebuildsAdmissions(t *testing.T) {
	e := New(1_700_000_000, 120, time.Unix(1_700_000_000, 0))
	epoch := e.CurrentEpoch()

	l := ledger.New(2, ledger.NewAmount(1_000_000), ledger.ZeroAmount())
	mintBlock := &ledger.Block{
		Account:   "alice",
		Previous:  ledger.GenesisPrevious,
		BlockType: ledger.Mint,
		Amount:    ledger.NewAmount(1),
		Fee:       ledger.ZeroAmount(),
		Link:      MineLink(epoch, 42),
	}
	require.NoError(t, l.Append(mintBlock))

	e.RecoverFromLedger(l)
	assert.True(t, e.HasAdmitted("alice", epoch))
}
