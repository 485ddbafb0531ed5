// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package params

import (
	"fmt"
	"os"

	"github.com/naoina/toml"
)

// GenesisAccount seeds the ledger at chain start.
type GenesisAccount struct {
	Address    string `toml:"address"`
	BalanceCil string `toml:"balance_cil"` // decimal string, parsed into uint256
	PubkeyHex  string `toml:"pubkey,omitempty"`
}

// GenesisValidator is a bootstrap validator declared in genesis.
type GenesisValidator struct {
	Address       string `toml:"address"`
	OnionEndpoint string `toml:"onion"`
	StakeCil      string `toml:"stake_cil"`
}

// AssetConfig resolves the Open Question on oracle asset denominators:
// the table is genesis data, never hard-coded per asset in code.
type AssetConfig struct {
	Symbol           string `toml:"symbol"`
	NativeDenominator uint64 `toml:"native_denominator"` // e.g. 1e18 for ETH-class, 1e8 for BTC-class
}

// ConsensusParams pins the Open Question "P_min" as a genesis-tunable
// consensus parameter instead of a compiled-in literal.
type ConsensusParams struct {
	MinPower uint64 `toml:"min_power"`
}

// Genesis is the embedded chain-start declaration (§6).
type Genesis struct {
	ChainID          uint64             `toml:"chain_id"`
	TotalSupplyCil   string             `toml:"total_supply_cil"`
	EpochStartUnix   int64              `toml:"epoch_start_unix"`
	EpochLenSeconds  int64              `toml:"epoch_len_seconds"`
	Accounts         []GenesisAccount   `toml:"accounts"`
	BootstrapValidators []GenesisValidator `toml:"bootstrap_validators"`
	Assets           []AssetConfig      `toml:"assets"`
	Consensus        ConsensusParams    `toml:"consensus"`
}

// LoadGenesis decodes a genesis TOML file the way go-ethereum decodes
// node/chain configuration with naoina/toml.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("params: read genesis: %w", err)
	}
	var g Genesis
	if err := toml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("params: decode genesis: %w", err)
	}
	if g.Consensus.MinPower == 0 {
		g.Consensus.MinPower = DefaultMinPower
	}
	addrs := make([]string, 0, len(g.BootstrapValidators))
	for _, v := range g.BootstrapValidators {
		addrs = append(addrs, v.Address)
	}
	SetBootstrapValidators(addrs)
	return &g, nil
}

// NodeConfig is the per-node runtime configuration (ambient stack §2).
type NodeConfig struct {
	GenesisPath  string `toml:"genesis_path"`
	DataDir      string `toml:"data_dir"`
	ListenAddr   string `toml:"listen_addr"`
	ValidatorSeedHex string `toml:"validator_seed_hex,omitempty"`
	MetricsAddr  string `toml:"metrics_addr,omitempty"`
	JWTSecretPath string `toml:"jwt_secret_path,omitempty"` // peer gossip auth, see transport.GenerateJWTSecret

	// AutoReceive is written by `losd init` and decoded here, but nothing
	// reads it: node.Coordinator never issues Receive blocks itself, so a
	// Receive is only ever one submitted and signed by the recipient,
	// whatever this is set to.
	AutoReceive bool `toml:"auto_receive"`
}

// LoadNodeConfig decodes a node configuration TOML file.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("params: read node config: %w", err)
	}
	var c NodeConfig
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("params: decode node config: %w", err)
	}
	return &c, nil
}
