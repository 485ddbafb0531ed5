// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/los-network/los-core/keys"
	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/log"
	"github.com/los-network/los-core/metrics"
	"github.com/los-network/los-core/node"
	"github.com/los-network/los-core/params"
	"github.com/los-network/los-core/storekv"
	"github.com/los-network/los-core/transport"
	"github.com/los-network/los-core/validators"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Start the validator node daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "datadir", Value: "./losd-data"},
		&cli.StringFlag{Name: "passphrase", Required: true, Usage: "Passphrase protecting validator.json"},
	},
	Action: runNode,
}

func runNode(c *cli.Context) error {
	datadir := c.String("datadir")

	cfg, err := params.LoadNodeConfig(filepath.Join(datadir, "node.toml"))
	if err != nil {
		return fmt.Errorf("run: load node config (did you run 'losd init'?): %w", err)
	}
	genesis, err := params.LoadGenesis(cfg.GenesisPath)
	if err != nil {
		return fmt.Errorf("run: load genesis: %w", err)
	}

	id, err := keys.LoadFromFile(filepath.Join(datadir, "validator.json"), c.String("passphrase"))
	if err != nil {
		return fmt.Errorf("run: load validator identity (did you run 'losd account new'?): %w", err)
	}

	store, err := storekv.OpenPebble(filepath.Join(datadir, "chaindata"))
	if err != nil {
		return fmt.Errorf("run: open chaindata: %w", err)
	}
	defer store.Close()

	l, reg, err := seedLedger(genesis, store)
	if err != nil {
		return fmt.Errorf("run: seed ledger: %w", err)
	}

	var jwtSecret []byte
	if cfg.JWTSecretPath != "" {
		jwtSecret, err = transport.LoadJWTSecret(cfg.JWTSecretPath)
		if err != nil {
			return fmt.Errorf("run: load gossip jwt secret: %w", err)
		}
	}

	bus := transport.NewWSBus()
	nodeCfg := node.Config{
		ChainID:     genesis.ChainID,
		Self:        id.Address,
		PublicKey:   id.PublicKey,
		SigningKey:  id.PrivateKey,
		GenesisUnix: genesis.EpochStartUnix,
		EpochLenSec: genesis.EpochLenSeconds,
		MinPower:    genesis.Consensus.MinPower,
		Assets:      genesis.Assets,
	}
	coord := node.New(nodeCfg, l, reg, bus)

	recorder := metrics.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coord.Start(ctx)
	defer coord.Stop()

	gossipMux := http.NewServeMux()
	gossipMux.Handle("/gossip", transport.ServeHTTP(bus, coord, jwtSecret))
	gossipSrv := &http.Server{Addr: cfg.ListenAddr, Handler: gossipMux}
	go func() {
		if err := gossipSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("🔌 gossip server stopped", "err", err)
		}
	}()
	defer gossipSrv.Close()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("📊 metrics server stopped", "err", err)
		}
	}()
	defer metricsSrv.Close()

	for _, v := range genesis.BootstrapValidators {
		if v.Address == id.Address {
			continue
		}
		if err := transport.Dial(v.OnionEndpoint, bus, coord, jwtSecret, id.Address); err != nil {
			log.Warn("🔌 failed to dial bootstrap peer", "peer", v.Address, "endpoint", v.OnionEndpoint, "err", err)
		}
	}

	log.Info("🚀 losd started", "self", id.Address, "chainID", genesis.ChainID, "listen", cfg.ListenAddr, "metrics", cfg.MetricsAddr)
	recorder.ObservePools(l.RemainingMintPool(), l.RemainingRewardPool())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("📡 shutdown signal received")
	return nil
}

// seedLedger replays any persisted blocks from store, or (on a fresh
// datadir) appends each genesis account's bootstrap Mint block directly
// via ledger.Append (genesis blocks carry no signature to validate, the
// same way a system-originated Slash block bypasses validator.Validate).
func seedLedger(g *params.Genesis, store storekv.Store) (*ledger.Ledger, *validators.Registry, error) {
	allocated := ledger.ZeroAmount()
	for _, a := range g.Accounts {
		amt, err := ledger.AmountFromDecimalString(a.BalanceCil)
		if err != nil {
			return nil, nil, fmt.Errorf("genesis account %s: %w", a.Address, err)
		}
		allocated, err = allocated.Add(amt)
		if err != nil {
			return nil, nil, err
		}
	}
	rewardPool := ledger.AmountFromUint256(params.RewardPoolCil)
	publicCap := ledger.AmountFromUint256(params.PublicSupplyCapCil)
	remaining, err := publicCap.Sub(allocated)
	if err != nil {
		return nil, nil, fmt.Errorf("genesis allocation %s exceeds public supply cap", allocated)
	}
	mintPool, err := remaining.Sub(rewardPool)
	if err != nil {
		return nil, nil, fmt.Errorf("genesis allocation leaves no room for the reward pool")
	}

	l := ledger.New(g.ChainID, mintPool, rewardPool)

	existing, err := storekv.ReplayInto(store)
	if err != nil {
		return nil, nil, err
	}
	if len(existing) > 0 {
		for _, b := range existing {
			if err := l.Append(b); err != nil {
				return nil, nil, fmt.Errorf("replay block for %s: %w", b.Account, err)
			}
		}
	} else {
		for _, a := range g.Accounts {
			amt, _ := ledger.AmountFromDecimalString(a.BalanceCil)
			if amt.IsZero() {
				continue
			}
			b := &ledger.Block{
				ChainID:   g.ChainID,
				Account:   a.Address,
				Previous:  ledger.GenesisPrevious,
				BlockType: ledger.Mint,
				Amount:    amt,
				Link:      "GENESIS",
				Fee:       ledger.ZeroAmount(),
			}
			if err := l.Append(b); err != nil {
				return nil, nil, fmt.Errorf("append genesis block for %s: %w", a.Address, err)
			}
			if err := storekv.PersistBlock(store, g.ChainID, b); err != nil {
				return nil, nil, fmt.Errorf("persist genesis block for %s: %w", a.Address, err)
			}
		}
	}

	reg := validators.New()
	for _, v := range g.BootstrapValidators {
		stake, err := ledger.AmountFromDecimalString(v.StakeCil)
		if err != nil {
			return nil, nil, fmt.Errorf("genesis validator %s: %w", v.Address, err)
		}
		if err := reg.Register(v.Address, stake, v.OnionEndpoint, 0, true); err != nil {
			return nil, nil, fmt.Errorf("register bootstrap validator %s: %w", v.Address, err)
		}
	}
	return l, reg, nil
}
