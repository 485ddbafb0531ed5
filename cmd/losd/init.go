// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/los-network/los-core/keys"
	"github.com/los-network/los-core/log"
	"github.com/los-network/los-core/params"
	"github.com/los-network/los-core/transport"
)

var initCommand = &cli.Command{
	Name:  "init",
	Usage: "Write a node configuration pointing at an existing genesis file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "datadir", Value: "./losd-data", Usage: "Directory to hold the keystore, block store and node config"},
		&cli.StringFlag{Name: "genesis", Required: true, Usage: "Path to the genesis TOML file"},
		&cli.StringFlag{Name: "listen", Value: ":30400", Usage: "Peer gossip listen address"},
		&cli.StringFlag{Name: "metrics", Value: ":9100", Usage: "Prometheus metrics listen address"},
		&cli.BoolFlag{Name: "auto-receive", Value: true, Usage: "Value written to auto_receive in node.toml (not read by the node)"},
	},
	Action: func(c *cli.Context) error {
		datadir := c.String("datadir")
		if err := os.MkdirAll(datadir, 0o755); err != nil {
			return fmt.Errorf("init: create datadir: %w", err)
		}
		if _, err := params.LoadGenesis(c.String("genesis")); err != nil {
			return fmt.Errorf("init: genesis file is not valid: %w", err)
		}

		jwtPath := filepath.Join(datadir, "jwt.hex")
		if _, err := os.Stat(jwtPath); os.IsNotExist(err) {
			if err := transport.GenerateJWTSecret(jwtPath); err != nil {
				return fmt.Errorf("init: generate gossip jwt secret: %w", err)
			}
			log.Info("🔐 gossip auth secret generated", "path", jwtPath)
		}

		cfg := params.NodeConfig{
			GenesisPath:   c.String("genesis"),
			DataDir:       datadir,
			ListenAddr:    c.String("listen"),
			MetricsAddr:   c.String("metrics"),
			AutoReceive:   c.Bool("auto-receive"),
			JWTSecretPath: jwtPath,
		}
		path := filepath.Join(datadir, "node.toml")
		if err := writeNodeConfig(path, cfg); err != nil {
			return err
		}
		log.Info("🧱 node config written", "path", path, "datadir", datadir)
		return nil
	},
}

var accountCommand = &cli.Command{
	Name:  "account",
	Usage: "Manage this node's validator identity",
	Subcommands: []*cli.Command{
		{
			Name:  "new",
			Usage: "Generate a new validator keypair and write its encrypted keyfile",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "datadir", Value: "./losd-data"},
				&cli.StringFlag{Name: "passphrase", Required: true, Usage: "Passphrase to encrypt the keyfile under"},
			},
			Action: func(c *cli.Context) error {
				datadir := c.String("datadir")
				if err := os.MkdirAll(datadir, 0o755); err != nil {
					return err
				}
				store := keys.New()
				id, err := store.Generate()
				if err != nil {
					return fmt.Errorf("account new: %w", err)
				}
				path := filepath.Join(datadir, "validator.json")
				if err := keys.SaveToFile(path, id, c.String("passphrase")); err != nil {
					return fmt.Errorf("account new: save keyfile: %w", err)
				}
				log.Info("🔑 validator identity created", "address", id.Address, "keyfile", path)
				return nil
			},
		},
	},
}
