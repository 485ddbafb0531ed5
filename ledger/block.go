// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package ledger implements the LOS block-lattice data model (C2): the
// per-account block schema, canonical hashing, the account/block maps,
// and the ledger invariants I1-I5.
package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/los-network/los-core/crypto"
)

// BlockType is the tagged variant discriminating the six block kinds.
// Using an exhaustive Go type switch over this enumeration (rather than
// an open interface hierarchy) keeps every call site compiler-checked,
// per Design Note "Dynamic dispatch over block types".
type BlockType uint8

const (
	Send BlockType = iota
	Receive
	Mint
	Burn
	Change
	Slash
)

func (t BlockType) String() string {
	switch t {
	case Send:
		return "Send"
	case Receive:
		return "Receive"
	case Mint:
		return "Mint"
	case Burn:
		return "Burn"
	case Change:
		return "Change"
	case Slash:
		return "Slash"
	default:
		return "Unknown"
	}
}

// ParseBlockType maps the wire string to a BlockType.
func ParseBlockType(s string) (BlockType, error) {
	switch s {
	case "Send":
		return Send, nil
	case "Receive":
		return Receive, nil
	case "Mint":
		return Mint, nil
	case "Burn":
		return Burn, nil
	case "Change":
		return Change, nil
	case "Slash":
		return Slash, nil
	default:
		return 0, fmt.Errorf("ledger: unknown block_type %q", s)
	}
}

// GenesisPrevious is the sentinel "previous" value for the first block on
// any account's chain.
const GenesisPrevious = "0"

// Block is the immutable, hash-addressed record at the center of the
// block-lattice. Every field except Signature participates in the
// canonical signing hash; the chain ID hashed is the one passed to
// SigningHash, not the ChainID field.
// ChainID is the chain the submitter signed the block for; a node only
// ever accepts blocks whose ChainID matches its own runtime chain ID
// (§6, "mismatch between runtime chain_id and block chain_id is a fatal
// rejection").
type Block struct {
	ChainID   uint64
	Account   string
	Previous  string
	BlockType BlockType
	Amount    Amount
	Link      string
	PublicKey crypto.PublicKey
	Signature []byte
	Work      uint64
	Timestamp uint64
	Fee       Amount
}

// blockWire is the JSON wire representation (§6): explicit field names,
// hex-encoded public_key/signature, decimal-string amount/fee.
type blockWire struct {
	ChainID   uint64 `json:"chain_id"`
	Account   string `json:"account"`
	Previous  string `json:"previous"`
	BlockType string `json:"block_type"`
	Amount    string `json:"amount"`
	Link      string `json:"link"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
	Work      uint64 `json:"work"`
	Timestamp uint64 `json:"timestamp"`
	Fee       string `json:"fee"`
}

// MarshalJSON implements the §6 wire format by hand, the way go-ethereum's
// core/types hand-writes MarshalJSON for hex/decimal big-integer fields
// instead of relying on struct tags alone.
func (b *Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(blockWire{
		ChainID:   b.ChainID,
		Account:   b.Account,
		Previous:  b.Previous,
		BlockType: b.BlockType.String(),
		Amount:    b.Amount.String(),
		Link:      b.Link,
		PublicKey: hex.EncodeToString(b.PublicKey),
		Signature: hex.EncodeToString(b.Signature),
		Work:      b.Work,
		Timestamp: b.Timestamp,
		Fee:       b.Fee.String(),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON; deserialize(serialize(b))
// must equal b and its hash must be stable across the round-trip (P7).
func (b *Block) UnmarshalJSON(data []byte) error {
	var w blockWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	bt, err := ParseBlockType(w.BlockType)
	if err != nil {
		return err
	}
	amount, err := AmountFromDecimalString(w.Amount)
	if err != nil {
		return fmt.Errorf("ledger: decode amount: %w", err)
	}
	fee, err := AmountFromDecimalString(w.Fee)
	if err != nil {
		return fmt.Errorf("ledger: decode fee: %w", err)
	}
	pk, err := hex.DecodeString(w.PublicKey)
	if err != nil {
		return fmt.Errorf("ledger: decode public_key: %w", err)
	}
	sig, err := hex.DecodeString(w.Signature)
	if err != nil {
		return fmt.Errorf("ledger: decode signature: %w", err)
	}

	b.ChainID = w.ChainID
	b.Account = w.Account
	b.Previous = w.Previous
	b.BlockType = bt
	b.Amount = amount
	b.Link = w.Link
	b.PublicKey = crypto.PublicKey(pk)
	b.Signature = sig
	b.Work = w.Work
	b.Timestamp = w.Timestamp
	b.Fee = fee
	return nil
}

// SigningHash computes the canonical SHA3-256 digest defined in §3: a
// little-endian binary concatenation, never the JSON encoding. Block
// identity is the hex of this digest.
func (b *Block) SigningHash(chainID uint64) [32]byte {
	buf := make([]byte, 0, 256)
	buf = appendU64LE(buf, chainID)
	buf = appendString(buf, b.Account)
	buf = appendString(buf, b.Previous)
	buf = append(buf, byte(b.BlockType))
	buf = appendU128LE(buf, b.Amount)
	buf = appendString(buf, b.Link)
	buf = appendString(buf, string(b.PublicKey))
	buf = appendU64LE(buf, b.Work)
	buf = appendU64LE(buf, b.Timestamp)
	buf = appendU128LE(buf, b.Fee)
	return crypto.Hash(buf)
}

// Hash is the hex-encoded block identity.
func (b *Block) Hash(chainID uint64) string {
	h := b.SigningHash(chainID)
	return hex.EncodeToString(h[:])
}

func appendU64LE(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendString(buf []byte, s string) []byte {
	return append(buf, []byte(s)...)
}

// appendU128LE appends the little-endian 16-byte representation of a,
// matching the §3 "u128_le(amount)" wire encoding.
func appendU128LE(buf []byte, a Amount) []byte {
	var tmp [32]byte
	a.Uint256().WriteToSlice(tmp[:])
	// uint256.WriteToSlice is big-endian; reverse the low 16 bytes to get
	// the little-endian u128 the canonical hash requires.
	le := make([]byte, 16)
	be := tmp[16:32]
	for i := 0; i < 16; i++ {
		le[i] = be[15-i]
	}
	return append(buf, le...)
}
