// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package node implements the per-node coordinator (C9): it wires the
// ledger (C2), validation pipeline (C3), consensus engine (C4), mint
// engine (C5), burn/oracle engine (C6), reward engine (C7), and slashing
// coordinator (C8) together, and drives the epoch clock and consensus
// round loop that turn their pure/stateful outputs into appended blocks.
package node

import (
	"github.com/los-network/los-core/crypto"
	"github.com/los-network/los-core/oracle"
	"github.com/los-network/los-core/params"
)

// Config is everything a Coordinator needs to start, resolved once from
// genesis + node-local configuration (ambient stack §2) before New is
// called.
type Config struct {
	ChainID     uint64
	Self        string
	PublicKey   crypto.PublicKey
	SigningKey  crypto.PrivateKey
	GenesisUnix int64
	EpochLenSec int64
	MinPower    uint64
	Assets      []params.AssetConfig
}

func assetConfigs(in []params.AssetConfig) []oracle.AssetConfig {
	out := make([]oracle.AssetConfig, len(in))
	for i, a := range in {
		out[i] = oracle.AssetConfig{Symbol: a.Symbol, NativeDenominator: a.NativeDenominator}
	}
	return out
}
