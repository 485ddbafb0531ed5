// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package storekv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/los-network/los-core/ledger"
)

func TestMemStorePutGetDelete(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Put([]byte("k1"), []byte("v1")))

	v, ok, err := s.Get([]byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", string(v))

	require.NoError(t, s.Delete([]byte("k1")))
	_, ok, err = s.Get([]byte("k1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemStoreIteratorRespectsPrefixAndOrder(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Put([]byte("a/2"), []byte("two")))
	require.NoError(t, s.Put([]byte("a/1"), []byte("one")))
	require.NoError(t, s.Put([]byte("z/9"), []byte("nope")))

	it := s.NewIterator([]byte("a/"))
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"a/1", "a/2"}, keys)
}

func TestMemStoreBatchCommitsAtomically(t *testing.T) {
	s := NewMemStore()
	b := s.NewBatch()
	b.Put([]byte("k1"), []byte("v1"))
	b.Put([]byte("k2"), []byte("v2"))
	require.NoError(t, b.Commit())

	_, ok, _ := s.Get([]byte("k1"))
	assert.True(t, ok)
	_, ok, _ = s.Get([]byte("k2"))
	assert.True(t, ok)
}

func TestPersistBlockAndReplayInto(t *testing.T) {
	s := NewMemStore()
	block := &ledger.Block{
		Account:   "LOSabc",
		Previous:  ledger.GenesisPrevious,
		BlockType: ledger.Mint,
		Amount:    ledger.NewAmount(5),
		Link:      "GENESIS",
		Fee:       ledger.ZeroAmount(),
	}
	require.NoError(t, PersistBlock(s, 1, block))

	replayed, err := ReplayInto(s)
	require.NoError(t, err)
	require.Len(t, replayed, 1)
	assert.Equal(t, block.Account, replayed[0].Account)
	assert.Equal(t, block.Link, replayed[0].Link)
}
