// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package slashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/validators"
)

type fixedValidatorSet int

func (n fixedValidatorSet) Len() int { return int(n) }

func newRegistryWithStake(t *testing.T, addr string, stake uint64) *validators.Registry {
	t.Helper()
	r := validators.New()
	require.NoError(t, r.Register(addr, ledger.NewAmount(stake), "onion1", 0, false))
	return r
}

func TestQuorumIsCeilTwoThirdsPlusOne(t *testing.T) {
	c := NewCoordinator(fixedValidatorSet(4), validators.New())
	// ceil(2*4/3)+1 = ceil(2.67)+1 = 3+1 = 4
	assert.Equal(t, 4, c.quorum())

	c7 := NewCoordinator(fixedValidatorSet(7), validators.New())
	// ceil(14/3)+1 = 5+1 = 6
	assert.Equal(t, 6, c7.quorum())
}

func TestHandleProposalFinalizesAtQuorumAndBansForDoubleSign(t *testing.T) {
	reg := newRegistryWithStake(t, "bad-actor", 1000)
	c := NewCoordinator(fixedValidatorSet(4), reg)

	hash := EvidenceHash(OffenceDoubleSign, "bad-actor", "hashA", "hashB")
	proposal := func(validator string) SlashProposal {
		return SlashProposal{EvidenceHash: hash, Target: "bad-actor", Offence: OffenceDoubleSign, Validator: validator}
	}

	res, err := c.HandleProposal(proposal("v1"))
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = c.HandleProposal(proposal("v2"))
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = c.HandleProposal(proposal("v3"))
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = c.HandleProposal(proposal("v4"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "bad-actor", res.Target)
	assert.Equal(t, "1000", res.AmountCil.String())
	assert.Equal(t, validators.StatusBanned, res.NewStatus)

	p, ok := reg.Get("bad-actor")
	require.True(t, ok)
	assert.Equal(t, "0", p.StakeCil.String())
	assert.Equal(t, validators.StatusBanned, p.Status)
}

func TestHandleProposalSlashesOnePercentForDowntime(t *testing.T) {
	reg := newRegistryWithStake(t, "slow-validator", 10_000)
	c := NewCoordinator(fixedValidatorSet(3), reg)

	hash := EvidenceHash(OffenceExtendedDowntime, "slow-validator")
	proposal := func(validator string) SlashProposal {
		return SlashProposal{EvidenceHash: hash, Target: "slow-validator", Offence: OffenceExtendedDowntime, Validator: validator}
	}

	require.Nil(t, mustHandle(t, c, proposal("v1")))
	require.Nil(t, mustHandle(t, c, proposal("v2")))
	res := mustHandle(t, c, proposal("v3"))
	require.NotNil(t, res)
	assert.Equal(t, "100", res.AmountCil.String())
	assert.Equal(t, validators.StatusSlashed, res.NewStatus)
}

func mustHandle(t *testing.T, c *Coordinator, p SlashProposal) *SlashResult {
	t.Helper()
	res, err := c.HandleProposal(p)
	require.NoError(t, err)
	return res
}

func TestHandleProposalRejectsDuplicateConfirmationFromSameValidator(t *testing.T) {
	reg := newRegistryWithStake(t, "v-target", 1000)
	c := NewCoordinator(fixedValidatorSet(4), reg)
	hash := EvidenceHash(OffenceOracleManipulation, "v-target")

	_, err := c.HandleProposal(SlashProposal{EvidenceHash: hash, Target: "v-target", Offence: OffenceOracleManipulation, Validator: "v1"})
	require.NoError(t, err)
	_, err = c.HandleProposal(SlashProposal{EvidenceHash: hash, Target: "v-target", Offence: OffenceOracleManipulation, Validator: "v1"})
	require.NoError(t, err)

	p, ok := reg.Get("v-target")
	require.True(t, ok)
	assert.Equal(t, "1000", p.StakeCil.String()) // still below quorum: same validator confirmed twice
}

func TestHandleProposalRejectsAlreadyFinalizedEvidence(t *testing.T) {
	reg := newRegistryWithStake(t, "v-target", 1000)
	c := NewCoordinator(fixedValidatorSet(2), reg)
	hash := EvidenceHash(OffenceFraudulentMintBurn, "v-target", "burn-txid-1")

	// n=2: quorum is ceil(4/3)+1 = 3 confirmations.
	require.Nil(t, mustHandle(t, c, SlashProposal{EvidenceHash: hash, Target: "v-target", Offence: OffenceFraudulentMintBurn, Validator: "v1"}))
	require.Nil(t, mustHandle(t, c, SlashProposal{EvidenceHash: hash, Target: "v-target", Offence: OffenceFraudulentMintBurn, Validator: "v2"}))
	res := mustHandle(t, c, SlashProposal{EvidenceHash: hash, Target: "v-target", Offence: OffenceFraudulentMintBurn, Validator: "v3"})
	require.NotNil(t, res)

	_, err := c.HandleProposal(SlashProposal{EvidenceHash: hash, Target: "v-target", Offence: OffenceFraudulentMintBurn, Validator: "v4"})
	assert.Error(t, err)
}

func TestDetectDoubleSignRequiresSameAccountAndPreviousDifferentHash(t *testing.T) {
	a := &ledger.Block{BlockType: ledger.Send, Account: "v1", Previous: "prevhash", Link: "to-x"}
	b := &ledger.Block{BlockType: ledger.Send, Account: "v1", Previous: "prevhash", Link: "to-y"}
	assert.True(t, DetectDoubleSign(1, a, b))

	c := &ledger.Block{BlockType: ledger.Send, Account: "v1", Previous: "other-prev", Link: "to-y"}
	assert.False(t, DetectDoubleSign(1, a, c))
}

func TestDetectExtendedDowntimeUsesUptimeThreshold(t *testing.T) {
	healthy := validators.Profile{HeartbeatsSeen: 99, ExpectedHeartbeats: 100}
	assert.False(t, DetectExtendedDowntime(healthy))

	unhealthy := validators.Profile{HeartbeatsSeen: 90, ExpectedHeartbeats: 100}
	assert.True(t, DetectExtendedDowntime(unhealthy))
}
