// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainID = uint64(2)

func mintBlock(account string, amount uint64) *Block {
	return &Block{
		Account:   account,
		Previous:  GenesisPrevious,
		BlockType: Mint,
		Amount:    NewAmount(amount),
		Link:      "GENESIS",
		Fee:       ZeroAmount(),
	}
}

func TestAppendSendReceiveRoundTrip(t *testing.T) {
	l := New(chainID, NewAmount(1000), NewAmount(1000))

	mint := mintBlock("alice", 500)
	require.NoError(t, l.Append(mint))
	assert.Equal(t, "500", l.GetAccount("alice").BalanceCil.String())

	send := &Block{
		Account:   "alice",
		Previous:  l.GetFrontier("alice"),
		BlockType: Send,
		Amount:    NewAmount(200),
		Fee:       NewAmount(1),
		Link:      "bob",
	}
	require.NoError(t, l.Append(send))
	assert.Equal(t, "299", l.GetAccount("alice").BalanceCil.String())

	sendHash := send.Hash(chainID)
	recv := &Block{
		Account:   "bob",
		Previous:  GenesisPrevious,
		BlockType: Receive,
		Amount:    NewAmount(200),
		Link:      sendHash,
		Fee:       ZeroAmount(),
	}
	require.NoError(t, l.Append(recv))
	assert.Equal(t, "200", l.GetAccount("bob").BalanceCil.String())

	_, _, claimed, found := l.SendLookup(sendHash)
	assert.True(t, found)
	assert.True(t, claimed)
}

func TestAppendRejectsBadPrevious(t *testing.T) {
	l := New(chainID, ZeroAmount(), ZeroAmount())
	mint := mintBlock("alice", 100)
	require.NoError(t, l.Append(mint))

	stale := &Block{
		Account:   "alice",
		Previous:  GenesisPrevious, // stale: frontier has already advanced
		BlockType: Send,
		Amount:    NewAmount(1),
		Fee:       ZeroAmount(),
		Link:      "bob",
	}
	err := l.Append(stale)
	assert.Error(t, err)
}

func TestAppendRejectsDuplicateBlockHash(t *testing.T) {
	l := New(chainID, ZeroAmount(), ZeroAmount())
	mint := mintBlock("alice", 100)
	require.NoError(t, l.Append(mint))

	dup := mintBlock("alice", 100) // identical fields -> identical hash
	err := l.Append(dup)
	assert.Error(t, err)
}

func TestAppendRejectsInsufficientBalance(t *testing.T) {
	l := New(chainID, ZeroAmount(), ZeroAmount())
	mint := mintBlock("alice", 10)
	require.NoError(t, l.Append(mint))

	send := &Block{
		Account:   "alice",
		Previous:  l.GetFrontier("alice"),
		BlockType: Send,
		Amount:    NewAmount(20),
		Fee:       ZeroAmount(),
		Link:      "bob",
	}
	err := l.Append(send)
	assert.Error(t, err)
}

func TestSupplyInvariantHoldsAcrossBurn(t *testing.T) {
	mintPool := NewAmount(1000)
	rewardPool := NewAmount(2000)
	l := New(chainID, mintPool, rewardPool)

	mint := mintBlock("alice", 500)
	require.NoError(t, l.Append(mint))

	burn := &Block{
		Account:   "alice",
		Previous:  l.GetFrontier("alice"),
		BlockType: Burn,
		Amount:    NewAmount(100),
		Fee:       ZeroAmount(),
		Link:      "BURN:withdraw",
	}
	require.NoError(t, l.Append(burn))

	acct, err := l.TotalSupplyAccounting()
	require.NoError(t, err)
	assert.Equal(t, "400", acct.CirculatingCil.String())
	assert.Equal(t, "100", acct.BurnedCil.String())
	assert.Equal(t, "1000", acct.UndistributedMintPoolCil.String())
	assert.Equal(t, "2000", acct.UndistributedRewardPoolCil.String())
}

func TestDebitMintPoolRejectsOverdraw(t *testing.T) {
	l := New(chainID, NewAmount(50), ZeroAmount())
	assert.NoError(t, l.DebitMintPool(NewAmount(50)))
	assert.Error(t, l.DebitMintPool(NewAmount(1)))
}
