// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Command losd is the LOS validator node daemon: it loads genesis and
// node configuration, opens (or initializes) the on-disk keystore and
// block store, wires C2-C9 together via node.Coordinator, and serves
// peer gossip and Prometheus metrics until interrupted.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/los-network/los-core/log"
)

func main() {
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) { log.Debug(fmt.Sprintf(format, args...)) })); err != nil {
		log.Warn("⚙️  failed to set GOMAXPROCS from cgroup limits", "err", err)
	}

	app := &cli.App{
		Name:  "losd",
		Usage: "LOS validator node daemon",
		Commands: []*cli.Command{
			initCommand,
			accountCommand,
			runCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Crit("💥 losd exited with error", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
