// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package consensus

import (
	"sort"

	"github.com/los-network/los-core/ledger"
)

// ValidatorSet is the active validator roster for a round, sorted by
// address for deterministic leader rotation: every honest node must
// compute the identical schedule without a gossip round.
type ValidatorSet struct {
	ordered []Validator
	byAddr  map[string]ledger.Amount
}

// NewValidatorSet builds a set from an unordered validator list, sorting
// once up front.
func NewValidatorSet(validators []Validator) *ValidatorSet {
	ordered := append([]Validator(nil), validators...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Address < ordered[j].Address })

	byAddr := make(map[string]ledger.Amount, len(ordered))
	for _, v := range ordered {
		byAddr[v.Address] = v.StakeCil
	}
	return &ValidatorSet{ordered: ordered, byAddr: byAddr}
}

// Len reports the number of validators in the set.
func (vs *ValidatorSet) Len() int { return len(vs.ordered) }

// LeaderForView returns the validator address elected leader of the given
// view, rotating deterministically through the sorted roster.
func (vs *ValidatorSet) LeaderForView(view uint64) string {
	if len(vs.ordered) == 0 {
		return ""
	}
	return vs.ordered[view%uint64(len(vs.ordered))].Address
}

// StakeOf returns the validator's stake, or the zero Amount if addr is not
// in the set.
func (vs *ValidatorSet) StakeOf(addr string) ledger.Amount {
	if s, ok := vs.byAddr[addr]; ok {
		return s
	}
	return ledger.ZeroAmount()
}

// TotalStake sums every validator's stake.
func (vs *ValidatorSet) TotalStake() ledger.Amount {
	total := ledger.ZeroAmount()
	for _, v := range vs.ordered {
		total, _ = total.Add(v.StakeCil) // overflow error ignored: a sum above 2^128 is ruled out by TotalSupplyCil
	}
	return total
}

// Contains reports whether addr is a member of the set.
func (vs *ValidatorSet) Contains(addr string) bool {
	_, ok := vs.byAddr[addr]
	return ok
}
