// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package transport

import (
	"sync"

	"github.com/los-network/los-core/consensus"
	"github.com/los-network/los-core/oracle"
	"github.com/los-network/los-core/slashing"
)

// MemBus fans messages out to in-process Dispatchers directly, skipping
// the wire entirely. Single-binary devnets and tests wire every
// node.Coordinator's broadcaster to the same MemBus instead of standing
// up real websocket listeners.
type MemBus struct {
	mu   sync.RWMutex
	subs []Dispatcher
}

// NewMemBus returns an empty in-process bus.
func NewMemBus() *MemBus { return &MemBus{} }

// Subscribe registers d to receive every message broadcast from now on.
func (b *MemBus) Subscribe(d Dispatcher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, d)
}

func (b *MemBus) each(fn func(Dispatcher) error) error {
	b.mu.RLock()
	subs := append([]Dispatcher(nil), b.subs...)
	b.mu.RUnlock()

	var firstErr error
	for _, d := range subs {
		if err := fn(d); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *MemBus) BroadcastPrePrepare(m consensus.PrePrepareMsg) error {
	return b.each(func(d Dispatcher) error { return d.HandlePrePrepare(m) })
}

func (b *MemBus) BroadcastVote(m consensus.VoteMsg) error {
	return b.each(func(d Dispatcher) error { return d.HandleVote(m) })
}

func (b *MemBus) BroadcastViewChange(m consensus.ViewChangeMsg) error {
	return b.each(func(d Dispatcher) error { return d.HandleViewChange(m, nil) })
}

func (b *MemBus) BroadcastBurnVote(v oracle.BurnVote) error {
	return b.each(func(d Dispatcher) error { return d.HandleBurnVote(v) })
}

func (b *MemBus) BroadcastSlashProposal(p slashing.SlashProposal) error {
	return b.each(func(d Dispatcher) error { return d.HandleSlashProposal(p) })
}

var _ consensus.Broadcaster = (*MemBus)(nil)
