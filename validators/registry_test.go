// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/los-network/los-core/ledger"
)

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("v1", ledger.NewAmount(1000), "onion1", 0, false))
	assert.Error(t, r.Register("v1", ledger.NewAmount(1000), "onion1", 0, false))
}

func TestUptimeBpsClampsAtFullUptimeWithNoExpectedHeartbeats(t *testing.T) {
	p := Profile{HeartbeatsSeen: 0, ExpectedHeartbeats: 0}
	assert.Equal(t, uint64(10_000), p.UptimeBps())
}

func TestUptimeBpsComputesRatio(t *testing.T) {
	p := Profile{HeartbeatsSeen: 95, ExpectedHeartbeats: 100}
	assert.Equal(t, uint64(9_500), p.UptimeBps())
}

func TestDebitStakeReducesBalanceAndTracksSlashed(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("v1", ledger.NewAmount(1000), "onion1", 0, false))
	require.NoError(t, r.DebitStake("v1", ledger.NewAmount(100)))

	p, ok := r.Get("v1")
	require.True(t, ok)
	assert.Equal(t, "900", p.StakeCil.String())
	assert.Equal(t, "100", p.TotalSlashedCil.String())
	assert.Equal(t, "900", r.TotalStake().String())
}

func TestDebitStakeRejectsOverdraw(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("v1", ledger.NewAmount(50), "onion1", 0, false))
	assert.Error(t, r.DebitStake("v1", ledger.NewAmount(100)))
}
