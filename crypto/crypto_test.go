// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeypairDeterministic(t *testing.T) {
	var seed [SeedSize]byte
	for i := range seed {
		seed[i] = byte(i)
	}
	pk1, sk1, err := GenerateKeypair(seed)
	require.NoError(t, err)
	pk2, sk2, err := GenerateKeypair(seed)
	require.NoError(t, err)

	assert.Equal(t, pk1, pk2)
	assert.Equal(t, sk1, sk2)
}

func TestGenerateKeypairVariesWithSeed(t *testing.T) {
	var seedA, seedB [SeedSize]byte
	seedB[0] = 1

	pkA, _, err := GenerateKeypair(seedA)
	require.NoError(t, err)
	pkB, _, err := GenerateKeypair(seedB)
	require.NoError(t, err)

	assert.NotEqual(t, pkA, pkB)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	var seed [SeedSize]byte
	seed[0] = 7
	pk, sk, err := GenerateKeypair(seed)
	require.NoError(t, err)

	msg := []byte("a block's canonical signing hash")
	sig, err := Sign(sk, msg)
	require.NoError(t, err)

	assert.True(t, Verify(pk, msg, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	var seed [SeedSize]byte
	seed[0] = 9
	pk, sk, err := GenerateKeypair(seed)
	require.NoError(t, err)

	msg := []byte("original message")
	sig, err := Sign(sk, msg)
	require.NoError(t, err)

	assert.False(t, Verify(pk, []byte("tampered message"), sig))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	var seedA, seedB [SeedSize]byte
	seedB[0] = 1
	_, skA, err := GenerateKeypair(seedA)
	require.NoError(t, err)
	pkB, _, err := GenerateKeypair(seedB)
	require.NoError(t, err)

	msg := []byte("message signed by A")
	sig, err := Sign(skA, msg)
	require.NoError(t, err)

	assert.False(t, Verify(pkB, msg, sig))
}

func TestSignRejectsMalformedKey(t *testing.T) {
	_, err := Sign(PrivateKey([]byte{0x01, 0x02}), []byte("msg"))
	assert.Error(t, err)
}

func TestAddressFromPubkeyRoundTrip(t *testing.T) {
	var seed [SeedSize]byte
	seed[0] = 3
	pk, _, err := GenerateKeypair(seed)
	require.NoError(t, err)

	addr, err := AddressFromPubkey(pk)
	require.NoError(t, err)

	decoded, err := ParseAddress(addr)
	require.NoError(t, err)
	assert.Len(t, decoded, 20)
	assert.True(t, AddressMatchesPubkey(addr, pk))
}

func TestAddressFromPubkeyDeterministic(t *testing.T) {
	var seed [SeedSize]byte
	seed[0] = 5
	pk, _, err := GenerateKeypair(seed)
	require.NoError(t, err)

	addr1, err := AddressFromPubkey(pk)
	require.NoError(t, err)
	addr2, err := AddressFromPubkey(pk)
	require.NoError(t, err)

	assert.Equal(t, addr1, addr2)
}

func TestParseAddressRejectsCorruptedChecksum(t *testing.T) {
	var seed [SeedSize]byte
	seed[0] = 11
	pk, _, err := GenerateKeypair(seed)
	require.NoError(t, err)

	addr, err := AddressFromPubkey(pk)
	require.NoError(t, err)

	corrupted := []byte(addr)
	last := corrupted[len(corrupted)-1]
	corrupted[len(corrupted)-1] = last + 1

	_, err = ParseAddress(string(corrupted))
	assert.Error(t, err)
}

func TestParseAddressRejectsBadPrefix(t *testing.T) {
	_, err := ParseAddress("XYZnotavalidaddressatall111")
	assert.Error(t, err)
}

func TestParseAddressRejectsBadLength(t *testing.T) {
	_, err := ParseAddress("LOS")
	assert.Error(t, err)
}

func TestAddressMatchesPubkeyRejectsMismatch(t *testing.T) {
	var seedA, seedB [SeedSize]byte
	seedB[0] = 1
	pkA, _, err := GenerateKeypair(seedA)
	require.NoError(t, err)
	pkB, _, err := GenerateKeypair(seedB)
	require.NoError(t, err)

	addrA, err := AddressFromPubkey(pkA)
	require.NoError(t, err)

	assert.False(t, AddressMatchesPubkey(addrA, pkB))
}

func TestHashDeterministic(t *testing.T) {
	data := []byte("some block bytes")
	assert.Equal(t, Hash(data), Hash(data))
}

func TestMiningFingerprintVariesWithNonce(t *testing.T) {
	a := MiningFingerprint(1, "LOS1abc", 10, 0)
	b := MiningFingerprint(1, "LOS1abc", 10, 1)
	assert.NotEqual(t, a, b)
}

func TestMiningFingerprintVariesWithChainID(t *testing.T) {
	a := MiningFingerprint(1, "LOS1abc", 10, 5)
	b := MiningFingerprint(2, "LOS1abc", 10, 5)
	assert.NotEqual(t, a, b)
}
