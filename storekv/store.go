// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package storekv implements the durable block-lattice persistence
// collaborator: a minimal ordered key-value interface in the shape
// go-ethereum's ethdb.KeyValueStore has always exposed (Get/Put/Delete/
// Has/NewIterator/Close), backed by cockroachdb/pebble for on-disk nodes
// and an in-memory map for tests and ephemeral devnets. node.Coordinator
// never imports this package directly; cmd/losd wires a Store into a
// ledger snapshot/replay helper at startup.
package storekv

import "io"

// Iterator walks a key range in ascending key order. Callers must call
// Release when done, mirroring pebble's own iterator lifecycle.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Store is the narrow persistence surface every block-lattice writer
// needs: point reads/writes plus a prefix scan for replaying an account's
// full history back into ledger.Ledger at startup.
type Store interface {
	io.Closer
	Get(key []byte) ([]byte, bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	NewIterator(prefix []byte) Iterator
}

// Batch groups writes into a single atomic commit, the way pebble's own
// Batch does.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Commit() error
}

// BatchStore is implemented by stores that can build a Batch; both
// PebbleStore and MemStore do.
type BatchStore interface {
	Store
	NewBatch() Batch
}
