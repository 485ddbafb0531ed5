// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package main

import (
	"fmt"
	"os"

	"github.com/naoina/toml"

	"github.com/los-network/los-core/params"
)

func writeNodeConfig(path string, cfg params.NodeConfig) error {
	body, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("write node config: encode: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write node config: %w", err)
	}
	return nil
}
