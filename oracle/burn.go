// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package oracle

import (
	"strings"
	"sync"

	"github.com/holiman/uint256"

	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/lerrors"
)

// burnLinkPrefix is the wire tag prefix every burn-derived Mint block's
// Link must start with, "BURN:{external_txid}" (§4.2).
const burnLinkPrefix = "BURN:"

// BurnLink formats the Link field of a burn-yield Mint block.
func BurnLink(txid string) string {
	return burnLinkPrefix + txid
}

// BurnVote is one validator's independently-fetched confirmation that an
// external-chain burn transaction occurred (§4.6).
type BurnVote struct {
	Txid         string
	Asset        string
	AmountNative uint64
	Recipient    string
	Validator    string
}

// ValidatorSet is the narrow slice of consensus.ValidatorSet the burn
// quorum needs — duck-typed the same way validator.LedgerView is, so
// this package never imports consensus.
type ValidatorSet interface {
	Len() int
}

// LedgerView is the narrow read slice of ledger.Ledger burn-dedup
// recovery needs.
type LedgerView interface {
	AllBlocks() []*ledger.Block
}

type burnRound struct {
	votes map[string]BurnVote // validator address -> vote
}

// BurnCoordinator accumulates BurnVote messages per txid and reports
// finalization once quorum is reached, and globally dedups any txid that
// has already produced a finalized Mint (§4.6, "Deduplication").
type BurnCoordinator struct {
	mu             sync.Mutex
	validators     ValidatorSet
	denominators   map[string]uint64 // asset symbol -> native denominator
	pending        map[string]*burnRound
	finalizedTxids map[string]struct{}
}

// AssetConfig mirrors params.AssetConfig's two fields, so this package
// doesn't have to import params for a struct it only reads two fields of.
type AssetConfig struct {
	Symbol            string
	NativeDenominator uint64
}

// NewBurnCoordinator builds a coordinator from the genesis asset table
// (spec's Open Question #3: denominators are genesis data, never a
// hard-coded per-asset constant).
func NewBurnCoordinator(validators ValidatorSet, assets []AssetConfig) *BurnCoordinator {
	denom := make(map[string]uint64, len(assets))
	for _, a := range assets {
		denom[a.Symbol] = a.NativeDenominator
	}
	return &BurnCoordinator{
		validators:     validators,
		denominators:   denom,
		pending:        make(map[string]*burnRound),
		finalizedTxids: make(map[string]struct{}),
	}
}

// quorum is 2f+1 of the active validator set, with a floor of 2 once
// there are at least 3 validators (§4.6: "2f+1 of active validators;
// minimum 2 when n>=3").
func (c *BurnCoordinator) quorum() int {
	n := c.validators.Len()
	f := (n - 1) / 3
	q := 2*f + 1
	if n >= 3 && q < 2 {
		q = 2
	}
	return q
}

// HandleVote records v and reports whether this vote brought the txid to
// quorum for the first time. A txid that has already produced a
// finalized Mint is rejected outright.
func (c *BurnCoordinator) HandleVote(v BurnVote) (finalized bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, done := c.finalizedTxids[v.Txid]; done {
		return false, lerrors.New(lerrors.KindDedupViolation, "burn txid %s already finalized", v.Txid)
	}

	round, ok := c.pending[v.Txid]
	if !ok {
		round = &burnRound{votes: make(map[string]BurnVote)}
		c.pending[v.Txid] = round
	}
	wasQuorum := len(round.votes) >= c.quorum()
	round.votes[v.Validator] = v

	if !wasQuorum && len(round.votes) >= c.quorum() {
		c.finalizedTxids[v.Txid] = struct{}{}
		delete(c.pending, v.Txid)
		return true, nil
	}
	return false, nil
}

// Yield computes the integer-only yield formula from §4.6:
//
//	usd_cents_burned = (amount_native * price_micro_usd) / (10^4 * native_denominator)
//	yield_cil        = (usd_cents_burned * remaining_public_supply_cil) / PUBLIC_SUPPLY_CAP_CIL
//
// Every multiplication runs in 256-bit space and the final result is
// checked against the 128-bit CIL ceiling by AmountFromDecimalString;
// either stage overflowing is a rejected burn, never a silent wrap.
func (c *BurnCoordinator) Yield(asset string, amountNative, priceMicroUSD uint64, remainingPublicSupplyCil, publicSupplyCapCil ledger.Amount) (ledger.Amount, error) {
	denom, ok := c.denominators[asset]
	if !ok {
		return ledger.ZeroAmount(), lerrors.New(lerrors.KindFormat, "oracle: unknown asset %s", asset)
	}
	if publicSupplyCapCil.IsZero() {
		return ledger.ZeroAmount(), lerrors.New(lerrors.KindOverflow, "oracle: zero public supply cap")
	}

	amount := uint256.NewInt(amountNative)
	price := uint256.NewInt(priceMicroUSD)
	divisor, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(10_000), uint256.NewInt(denom))
	if overflow || divisor.IsZero() {
		return ledger.ZeroAmount(), lerrors.New(lerrors.KindOverflow, "oracle: denominator overflow")
	}

	usdCentsProduct, overflow := new(uint256.Int).MulOverflow(amount, price)
	if overflow {
		return ledger.ZeroAmount(), lerrors.New(lerrors.KindOverflow, "oracle: usd cents overflow")
	}
	usdCentsBurned := new(uint256.Int).Div(usdCentsProduct, divisor)

	yieldProduct, overflow := new(uint256.Int).MulOverflow(usdCentsBurned, remainingPublicSupplyCil.Uint256())
	if overflow {
		return ledger.ZeroAmount(), lerrors.New(lerrors.KindOverflow, "oracle: yield overflow")
	}
	yield := new(uint256.Int).Div(yieldProduct, publicSupplyCapCil.Uint256())

	return ledger.AmountFromDecimalString(yield.Dec())
}

// RecoverFromLedger rebuilds the global burn-txid dedup set after a
// restart by scanning for already-finalized BURN-tagged Mint blocks,
// mirroring mint.Engine.RecoverFromLedger's approach to its own dedup
// state.
func (c *BurnCoordinator) RecoverFromLedger(view LedgerView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range view.AllBlocks() {
		if b.BlockType != ledger.Mint || !strings.HasPrefix(b.Link, burnLinkPrefix) {
			continue
		}
		txid := strings.TrimPrefix(b.Link, burnLinkPrefix)
		c.finalizedTxids[txid] = struct{}{}
	}
}
