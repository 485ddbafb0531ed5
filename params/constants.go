// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package params holds the fixed, binary-compatible constants of the LOS
// ledger and the genesis/node configuration loaders, mirroring the role
// go-ethereum's params package plays for chain configuration.
package params

import "github.com/holiman/uint256"

// Chain identifiers. 1 = mainnet, 2 = testnet.
const (
	ChainIDMainnet uint64 = 1
	ChainIDTestnet uint64 = 2
)

// Atomic unit and supply constants, all denominated in CIL.
var (
	CilPerLos           = uint256.NewInt(100_000_000_000) // 10^11
	TotalSupplyCil      = mustMulU64(2_193_623_600, CilPerLos)
	BaseFeeCil          = uint256.NewInt(100_000_000) // 10^8
	PublicSupplyCapCil  = mustMulU64(2_115_841_300, CilPerLos)
	RewardPoolCil       = mustMulU64(500_000, CilPerLos)
	MiningRewardPerEpoch = mustMulU64(100, CilPerLos)
	RewardPerEpoch       = mustMulU64(5000, CilPerLos)
	MinValidatorStakeCil = mustMulU64(1000, CilPerLos)
)

func mustMulU64(n uint64, unit *uint256.Int) *uint256.Int {
	out, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(n), unit)
	if overflow {
		panic("params: constant overflow")
	}
	return out
}

// Halving and eligibility constants.
const (
	RewardHalvingIntervalEpochs = 48
	MiningHalvingIntervalEpochs = 8760
	MinUptimeBps                = 9500

	// Mining domain separator, exactly as it must appear in the
	// fingerprint hash (see crypto.MiningFingerprint).
	MiningDomainTag = "LOS_MINE_V1"

	// Anti-spam PoW target on the canonical signing hash.
	AntiSpamMinZeroBits = 16

	// Difficulty bounds and retarget parameters for the PoW mint engine.
	MinDifficultyBits = 16
	MaxDifficultyBits = 40
	DifficultyTarget  = 10
	MaxDifficultyAdj  = 4

	// Epoch lengths in seconds.
	EpochLenMainnet = 3600
	EpochLenTestnet = 120

	// Consensus timing, in milliseconds unless noted.
	PrePrepareTimeoutMs  = 3000
	ViewChangeTimeoutMs  = 5000
	FinalizedCacheSize   = 10_000
	SignatureCacheSize   = 1000
	OracleWindowSeconds  = 60
	MaxTimestampDriftSec = 300

	// Default commit-phase stake-power floor (Open Question, pinned here
	// but overridable per genesis via Genesis.Consensus.MinPower).
	DefaultMinPower = 20_000

	// Per-block burn ceiling, in LOS (MaxBurnPerBlockCil gives it in CIL).
	MaxBurnPerBlockLos = 1000

	// Slashing penalties, in basis points of stake (10000 = 100%).
	SlashDoubleSignBps   = 10_000
	SlashFraudMintBps    = 10_000
	SlashDowntimeBps     = 100
	SlashOracleManipBps  = 100
	DowntimeWindowBlocks = 50_000

	// Oracle aggregation.
	OracleMaxDeviationBps = 2000
	OracleMinSubmissions  = 2
)

// MaxBurnPerBlockCil is MaxBurnPerBlockLos expressed in atomic units.
func MaxBurnPerBlockCil() *uint256.Int {
	return mustMulU64(MaxBurnPerBlockLos, CilPerLos)
}

// bootstrapValidators is the genesis validator set excluded from PoW
// mining (validator.validatePoWMint). It is populated by LoadGenesis from
// the genesis TOML file whose path the node is given, not from a genesis
// embedded in the binary, and is never accepted from a runtime flag.
var bootstrapValidators = map[string]struct{}{}

// SetBootstrapValidators installs the genesis bootstrap validator set.
// Called once, from genesis loading, never from a CLI flag or RPC call.
func SetBootstrapValidators(addrs []string) {
	m := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		m[a] = struct{}{}
	}
	bootstrapValidators = m
}

// IsBootstrapValidator reports whether addr is in the genesis bootstrap
// set.
func IsBootstrapValidator(addr string) bool {
	_, ok := bootstrapValidators[addr]
	return ok
}
