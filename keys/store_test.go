// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package keys

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/los-network/los-core/crypto"
)

func TestGenerateAddsToStore(t *testing.T) {
	s := New()
	id, err := s.Generate()
	require.NoError(t, err)
	require.NotEmpty(t, id.Address)

	got, ok := s.Get(id.Address)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestSaveAndLoadFromFileRoundTrips(t *testing.T) {
	s := New()
	id, err := s.Generate()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "validator.json")
	require.NoError(t, SaveToFile(path, id, "correct horse battery staple"))

	loaded, err := LoadFromFile(path, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, id.Address, loaded.Address)
	assert.True(t, crypto.AddressMatchesPubkey(loaded.Address, loaded.PublicKey))
	assert.Equal(t, []byte(id.PrivateKey), []byte(loaded.PrivateKey))
}

func TestLoadFromFileRejectsWrongPassphrase(t *testing.T) {
	s := New()
	id, err := s.Generate()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "validator.json")
	require.NoError(t, SaveToFile(path, id, "correct horse battery staple"))

	_, err = LoadFromFile(path, "wrong passphrase")
	assert.Error(t, err)
}
