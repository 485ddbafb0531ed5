// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package validators is the validator-profile registry shared by C7
// (rewards) and C8 (slashing): stake, heartbeat-derived uptime,
// registration epoch, and status.
package validators

import (
	"fmt"
	"sort"
	"sync"

	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/lerrors"
	"github.com/los-network/los-core/log"
)

// Status is a validator's lifecycle state (§3 ValidatorProfile).
type Status string

const (
	StatusActive    Status = "Active"
	StatusSlashed   Status = "Slashed"
	StatusBanned    Status = "Banned"
	StatusUnstaking Status = "Unstaking"
)

// Profile is the per-validator projection (§3).
type Profile struct {
	Address            string
	StakeCil           ledger.Amount
	OnionEndpoint      string
	RegisteredEpoch    uint64
	HeartbeatsSeen     uint64
	ExpectedHeartbeats uint64
	Status             Status
	IsGenesis          bool
	TotalSlashedCil    ledger.Amount
}

// UptimeBps computes uptime_bps = min(10000, heartbeats_seen*10000/expected_heartbeats).
func (p Profile) UptimeBps() uint64 {
	if p.ExpectedHeartbeats == 0 {
		return 10_000
	}
	bps := p.HeartbeatsSeen * 10_000 / p.ExpectedHeartbeats
	if bps > 10_000 {
		bps = 10_000
	}
	return bps
}

// Registry is the mutable validator-profile store.
type Registry struct {
	mu         sync.RWMutex
	profiles   map[string]*Profile
	totalStake ledger.Amount
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{profiles: make(map[string]*Profile), totalStake: ledger.ZeroAmount()}
}

// Register enrolls a validator on first valid registration block (§3
// Lifecycle: "Validator profiles are created on first valid registration
// block").
func (r *Registry) Register(address string, stake ledger.Amount, onion string, registeredEpoch uint64, isGenesis bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[address]; exists {
		return fmt.Errorf("validators: %s already registered", address)
	}
	r.profiles[address] = &Profile{
		Address:         address,
		StakeCil:        stake,
		OnionEndpoint:   onion,
		RegisteredEpoch: registeredEpoch,
		Status:          StatusActive,
		IsGenesis:       isGenesis,
		TotalSlashedCil: ledger.ZeroAmount(),
	}
	sum, err := r.totalStake.Add(stake)
	if err != nil {
		delete(r.profiles, address)
		return lerrors.New(lerrors.KindOverflow, "validators: total stake overflow")
	}
	r.totalStake = sum
	return nil
}

// Get returns a copy of address's profile.
func (r *Registry) Get(address string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[address]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// All returns every registered profile, sorted by address.
func (r *Registry) All() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// RecordHeartbeat and ExpectHeartbeat update the uptime counters the
// rewards engine reads at epoch close. node.Coordinator calls neither, so
// in a running node ExpectedHeartbeats stays zero and UptimeBps reports
// full uptime.
func (r *Registry) RecordHeartbeat(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[address]; ok {
		p.HeartbeatsSeen++
	}
}

func (r *Registry) ExpectHeartbeat(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[address]; ok {
		p.ExpectedHeartbeats++
	}
}

// SetStatus transitions a validator's lifecycle status.
func (r *Registry) SetStatus(address string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[address]
	if !ok {
		return fmt.Errorf("validators: unknown address %s", address)
	}
	p.Status = status
	return nil
}

// DebitStake reduces a validator's stake (and credits total_slashed_cil)
// for C8's slash execution, keeping the registry's notion of stake in
// sync with what the ledger debited from the validator's account.
func (r *Registry) DebitStake(address string, amount ledger.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[address]
	if !ok {
		return fmt.Errorf("validators: unknown address %s", address)
	}
	newStake, err := p.StakeCil.Sub(amount)
	if err != nil {
		return lerrors.New(lerrors.KindOverflow, "validators: slash %s exceeds stake %s", amount, p.StakeCil)
	}
	newSlashed, err := p.TotalSlashedCil.Add(amount)
	if err != nil {
		return lerrors.New(lerrors.KindOverflow, "validators: total_slashed_cil overflow")
	}
	newTotal, err := r.totalStake.Sub(amount)
	if err != nil {
		return lerrors.New(lerrors.KindOverflow, "validators: registry total stake underflow")
	}
	p.StakeCil = newStake
	p.TotalSlashedCil = newSlashed
	r.totalStake = newTotal

	log.Warn("⚡ validator stake debited", "address", address, "amount", amount.String(), "remaining", newStake.String())
	return nil
}

// TotalStake returns the sum of every registered validator's current stake.
func (r *Registry) TotalStake() ledger.Amount {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totalStake
}
