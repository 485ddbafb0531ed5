// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregatePriceOddCountMedian(t *testing.T) {
	price, err := AggregatePrice([]PriceSubmission{
		{Asset: "ETH", PriceMicroUSD: 3_000_000_000, Validator: "v1"},
		{Asset: "ETH", PriceMicroUSD: 3_050_000_000, Validator: "v2"},
		{Asset: "ETH", PriceMicroUSD: 2_980_000_000, Validator: "v3"},
	})
	assert.NoError(t, err)
	assert.Equal(t, uint64(3_000_000_000), price)
}

func TestAggregatePriceDropsZeroesAndAveragesEvenCount(t *testing.T) {
	price, err := AggregatePrice([]PriceSubmission{
		{PriceMicroUSD: 0, Validator: "v0"},
		{PriceMicroUSD: 1_000, Validator: "v1"},
		{PriceMicroUSD: 1_100, Validator: "v2"},
	})
	assert.NoError(t, err)
	assert.Equal(t, uint64(1_050), price)
}

func TestAggregatePriceRejectsFewerThanTwoSurvivors(t *testing.T) {
	_, err := AggregatePrice([]PriceSubmission{
		{PriceMicroUSD: 100, Validator: "v1"},
		{PriceMicroUSD: 1_000, Validator: "v2"}, // >20% deviation from the median of {100,1000}=550
	})
	assert.Error(t, err)
}

func TestAggregatePriceNoSubmissionsErrors(t *testing.T) {
	_, err := AggregatePrice(nil)
	assert.Error(t, err)
}
