// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package storekv

import (
	"encoding/json"

	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/log"
)

// blockKeyPrefix namespaces every persisted block under a single byte
// range so NewIterator(blockKeyPrefix) replays the whole chain without
// touching any other future namespace (peer tables, genesis metadata)
// this store might grow.
var blockKeyPrefix = []byte("b/")

func blockKey(hash string) []byte {
	return append(append([]byte(nil), blockKeyPrefix...), []byte(hash)...)
}

// PersistBlock writes b under its own hash so ReplayInto can later find it
// again by iterating the b/ namespace; it never re-derives chain order,
// it only needs the raw set of blocks, since ledger.Append re-validates
// and re-links Previous as each one is re-appended.
func PersistBlock(s Store, chainID uint64, b *ledger.Block) error {
	body, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.Put(blockKey(b.Hash(chainID)), body)
}

// ReplayInto reloads every persisted block from s, in key (block hash)
// order, skipping any that fail to decode. It does not append them to a
// ledger and does not sequence them: re-appending them to a fresh
// ledger.Ledger in an order that satisfies ledger.Append's Previous-chain
// check is the caller's (cmd/losd's) job.
func ReplayInto(s Store) ([]*ledger.Block, error) {
	it := s.NewIterator(blockKeyPrefix)
	defer it.Release()

	var blocks []*ledger.Block
	for it.Next() {
		var b ledger.Block
		if err := json.Unmarshal(it.Value(), &b); err != nil {
			log.Warn("🗄️  skipping corrupt persisted block", "key", string(it.Key()), "err", err)
			continue
		}
		blocks = append(blocks, &b)
	}
	return blocks, it.Error()
}
