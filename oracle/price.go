// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package oracle implements the burn-verification and price-aggregation
// half of C6: BFT-median price submission voting, and the burn-vote
// quorum that feeds the yield formula used to mint a BURN-tagged Mint
// block once a cross-chain burn is verified.
package oracle

import (
	"sort"

	"github.com/los-network/los-core/lerrors"
	"github.com/los-network/los-core/params"
)

// PriceSubmission is a single validator's signed price observation for
// one asset within the epoch's 60-second submission window (§4.6).
type PriceSubmission struct {
	Asset         string
	PriceMicroUSD uint64
	Validator     string
}

// AggregatePrice reproduces §4.6's aggregation steps exactly: drop zero
// prices, sort and take the median (integer-averaging the two middles on
// an even count), reject submissions more than 20% off the median, and
// require at least OracleMinSubmissions survivors. The returned price is
// the median of all nonzero submissions, independent of how many survive
// the deviation filter — the filter only gates whether the round is
// trustworthy enough to finalize at all, not which inputs feed the
// median.
func AggregatePrice(submissions []PriceSubmission) (uint64, error) {
	nonzero := make([]uint64, 0, len(submissions))
	for _, s := range submissions {
		if s.PriceMicroUSD == 0 {
			continue
		}
		nonzero = append(nonzero, s.PriceMicroUSD)
	}
	if len(nonzero) == 0 {
		return 0, lerrors.New(lerrors.KindFormat, "oracle: no nonzero price submissions")
	}

	sort.Slice(nonzero, func(i, j int) bool { return nonzero[i] < nonzero[j] })
	median := medianOf(nonzero)

	survivors := 0
	for _, p := range nonzero {
		if deviationBps(p, median) <= params.OracleMaxDeviationBps {
			survivors++
		}
	}
	if survivors < params.OracleMinSubmissions {
		return 0, lerrors.New(lerrors.KindFormat, "oracle: only %d submissions within deviation band, need %d", survivors, params.OracleMinSubmissions)
	}
	return median, nil
}

func medianOf(sorted []uint64) uint64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func deviationBps(p, median uint64) uint64 {
	if median == 0 {
		return 0
	}
	var diff uint64
	if p > median {
		diff = p - median
	} else {
		diff = median - p
	}
	return diff * 10_000 / median
}
