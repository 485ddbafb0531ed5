// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package ledger

import "github.com/los-network/los-core/crypto"

// AccountState is the per-address ledger projection: current balance,
// chain frontier, block count, and (once seen) the account's public key.
type AccountState struct {
	Address    string
	BalanceCil Amount
	HeadBlock  string // hash of the latest block, or GenesisPrevious if empty
	BlockCount uint64
	PublicKey  crypto.PublicKey // nil until the account's first signed block is seen
}

// IsEmpty reports whether the account has no blocks yet (frontier "0").
func (a *AccountState) IsEmpty() bool { return a.HeadBlock == "" || a.HeadBlock == GenesisPrevious }

func newAccountState(address string) *AccountState {
	return &AccountState{Address: address, BalanceCil: ZeroAmount(), HeadBlock: GenesisPrevious}
}
