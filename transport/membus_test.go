// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/los-network/los-core/consensus"
	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/oracle"
	"github.com/los-network/los-core/slashing"
)

type recordingDispatcher struct {
	prePrepares []consensus.PrePrepareMsg
	votes       []consensus.VoteMsg
	burnVotes   []oracle.BurnVote
	proposals   []slashing.SlashProposal
}

func (d *recordingDispatcher) HandlePrePrepare(m consensus.PrePrepareMsg) error {
	d.prePrepares = append(d.prePrepares, m)
	return nil
}
func (d *recordingDispatcher) HandleVote(m consensus.VoteMsg) error {
	d.votes = append(d.votes, m)
	return nil
}
func (d *recordingDispatcher) HandleViewChange(consensus.ViewChangeMsg, *ledger.Block) error {
	return nil
}
func (d *recordingDispatcher) HandleBurnVote(v oracle.BurnVote) error {
	d.burnVotes = append(d.burnVotes, v)
	return nil
}
func (d *recordingDispatcher) HandleSlashProposal(p slashing.SlashProposal) error {
	d.proposals = append(d.proposals, p)
	return nil
}

func TestMemBusFansOutToEverySubscriber(t *testing.T) {
	bus := NewMemBus()
	a := &recordingDispatcher{}
	b := &recordingDispatcher{}
	bus.Subscribe(a)
	bus.Subscribe(b)

	require.NoError(t, bus.BroadcastVote(consensus.VoteMsg{Phase: consensus.PhasePrepare, Height: 1, Validator: "v1"}))
	require.NoError(t, bus.BroadcastBurnVote(oracle.BurnVote{Txid: "tx1", Validator: "v1"}))
	require.NoError(t, bus.BroadcastSlashProposal(slashing.SlashProposal{EvidenceHash: "e1", Target: "bad"}))

	for _, d := range []*recordingDispatcher{a, b} {
		assert.Len(t, d.votes, 1)
		assert.Len(t, d.burnVotes, 1)
		assert.Len(t, d.proposals, 1)
	}
}

func TestMemBusSatisfiesConsensusBroadcaster(t *testing.T) {
	var _ consensus.Broadcaster = NewMemBus()
}
