// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package storekv

import (
	"bytes"

	"github.com/cockroachdb/pebble"

	"github.com/los-network/los-core/log"
)

// PebbleStore persists block-lattice keys on local disk via
// cockroachdb/pebble, an LSM-tree engine drop-in compatible with
// go-ethereum's own leveldb/pebble backends.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebble opens (creating if absent) a pebble store rooted at dir.
func OpenPebble(dir string) (*PebbleStore, error) {
	opts := &pebble.Options{}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	log.Info("🗄️  opened pebble store", "dir", dir)
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Get(key []byte) ([]byte, bool, error) {
	value, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := append([]byte(nil), value...)
	closer.Close()
	return out, true, nil
}

func (s *PebbleStore) Put(key, value []byte) error {
	return s.db.Set(key, value, pebble.Sync)
}

func (s *PebbleStore) Delete(key []byte) error {
	return s.db.Delete(key, pebble.Sync)
}

func (s *PebbleStore) Has(key []byte) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

// pebbleIterator adapts pebble.Iterator to the storekv.Iterator contract
// (pebble's own Next() returns validity directly, matching our shape
// already).
type pebbleIterator struct {
	it      *pebble.Iterator
	started bool
}

func (s *PebbleStore) NewIterator(prefix []byte) Iterator {
	upper := append(append([]byte(nil), prefix...), 0xff)
	it, _ := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	return &pebbleIterator{it: it}
}

func (i *pebbleIterator) Next() bool {
	if !i.started {
		i.started = true
		return i.it.First()
	}
	return i.it.Next()
}

func (i *pebbleIterator) Key() []byte   { return bytes.Clone(i.it.Key()) }
func (i *pebbleIterator) Value() []byte { return bytes.Clone(i.it.Value()) }
func (i *pebbleIterator) Error() error  { return i.it.Error() }
func (i *pebbleIterator) Release()      { i.it.Close() }

// pebbleBatch adapts pebble.Batch to storekv.Batch.
type pebbleBatch struct {
	b *pebble.Batch
}

func (s *PebbleStore) NewBatch() Batch {
	return &pebbleBatch{b: s.db.NewBatch()}
}

func (b *pebbleBatch) Put(key, value []byte) { _ = b.b.Set(key, value, nil) }
func (b *pebbleBatch) Delete(key []byte)     { _ = b.b.Delete(key, nil) }
func (b *pebbleBatch) Commit() error         { return b.b.Commit(pebble.Sync) }

var _ BatchStore = (*PebbleStore)(nil)
