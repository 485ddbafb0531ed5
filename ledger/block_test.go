// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBlock() *Block {
	return &Block{
		Account:   "LOS1exampleaccountaddress",
		Previous:  GenesisPrevious,
		BlockType: Send,
		Amount:    NewAmount(42),
		Link:      "LOS1examplerecipientaddr",
		PublicKey: []byte{0xaa, 0xbb},
		Signature: []byte{0xcc, 0xdd, 0xee},
		Work:      12345,
		Timestamp: 1_700_000_000,
		Fee:       NewAmount(1),
	}
}

func TestSigningHashDeterministic(t *testing.T) {
	b1 := sampleBlock()
	b2 := sampleBlock()
	assert.Equal(t, b1.Hash(1), b2.Hash(1))
}

func TestSigningHashVariesWithChainID(t *testing.T) {
	b := sampleBlock()
	assert.NotEqual(t, b.Hash(1), b.Hash(2))
}

func TestSigningHashVariesWithEveryField(t *testing.T) {
	base := sampleBlock()
	baseHash := base.Hash(1)

	variants := []func(*Block){
		func(b *Block) { b.Account = "different" },
		func(b *Block) { b.Previous = "different" },
		func(b *Block) { b.BlockType = Receive },
		func(b *Block) { b.Amount = NewAmount(43) },
		func(b *Block) { b.Link = "different" },
		func(b *Block) { b.Work = 99 },
		func(b *Block) { b.Timestamp = 1 },
		func(b *Block) { b.Fee = NewAmount(2) },
	}
	for _, mutate := range variants {
		b := sampleBlock()
		mutate(b)
		assert.NotEqual(t, baseHash, b.Hash(1))
	}
}

func TestBlockJSONRoundTrip(t *testing.T) {
	b := sampleBlock()
	data, err := b.MarshalJSON()
	require.NoError(t, err)

	var decoded Block
	require.NoError(t, decoded.UnmarshalJSON(data))

	assert.Equal(t, b.Hash(1), decoded.Hash(1))
	assert.Equal(t, b.Account, decoded.Account)
	assert.Equal(t, b.Amount.String(), decoded.Amount.String())
}
