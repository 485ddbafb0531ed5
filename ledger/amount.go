// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package ledger

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrOverflow is returned whenever a checked arithmetic operation would
// exceed the 128-bit CIL domain or underflow below zero. Overflow is
// always a validation rejection, never silent wraparound (spec §5).
var ErrOverflow = errors.New("ledger: amount overflow")

// max128 is 2^128 - 1, the ceiling every CIL amount must respect even
// though it is carried in a 256-bit integer (holiman/uint256) for
// arithmetic convenience.
var max128 = func() *uint256.Int {
	v, _ := uint256.FromBig(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)))
	return v
}()

// Amount is an unsigned 128-bit quantity denominated in CIL. All
// arithmetic on it is checked; no code path may let an Amount silently
// wrap or exceed 2^128-1.
type Amount struct {
	v uint256.Int
}

// NewAmount constructs an Amount from a uint64, always representable.
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// ZeroAmount is the additive identity.
func ZeroAmount() Amount { return Amount{} }

// AmountFromDecimalString parses a base-10 integer string (the wire
// format for amount/fee, §6) into a checked Amount.
func AmountFromDecimalString(s string) (Amount, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, err
	}
	if v.Gt(max128) {
		return Amount{}, ErrOverflow
	}
	return Amount{v: *v}, nil
}

// String renders the decimal representation used on the wire.
func (a Amount) String() string { return a.v.Dec() }

// Uint256 exposes the underlying value for components (oracle yield,
// reward distribution) that need wider intermediate arithmetic.
func (a Amount) Uint256() *uint256.Int { return new(uint256.Int).Set(&a.v) }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// Cmp compares two amounts the way uint256.Int.Cmp does.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

// Add returns a+b, checked against the 128-bit ceiling.
func (a Amount) Add(b Amount) (Amount, error) {
	sum, overflow := new(uint256.Int).AddOverflow(&a.v, &b.v)
	if overflow || sum.Gt(max128) {
		return Amount{}, ErrOverflow
	}
	return Amount{v: *sum}, nil
}

// Sub returns a-b, rejecting underflow rather than wrapping.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.v.Lt(&b.v) {
		return Amount{}, ErrOverflow
	}
	return Amount{v: *new(uint256.Int).Sub(&a.v, &b.v)}, nil
}

// MulDivFloor computes floor(a*mul/div), checked against overflow in the
// intermediate product. Used for reward sharing, oracle yield, and
// proportional distribution — all of which spec.md mandates as integer
// division with the remainder staying in the pool (never FP).
func (a Amount) MulDivFloor(mul, div Amount) (Amount, error) {
	if div.IsZero() {
		return Amount{}, ErrOverflow
	}
	product, overflow := new(uint256.Int).MulOverflow(&a.v, &mul.v)
	if overflow {
		return Amount{}, ErrOverflow
	}
	q := new(uint256.Int).Div(product, &div.v)
	if q.Gt(max128) {
		return Amount{}, ErrOverflow
	}
	return Amount{v: *q}, nil
}

// MaxAmount128 exposes 2^128-1 for callers that need to bound-check
// against the ceiling directly (e.g. structural validation's
// amount <= TOTAL_SUPPLY_CIL check composes with this).
func MaxAmount128() Amount { return Amount{v: *max128} }

// AmountFromUint256 wraps a params-package constant (carried as
// *uint256.Int for compile-time arithmetic) into a checked Amount. Callers
// must only pass values already known to fit within the 128-bit ceiling.
func AmountFromUint256(v *uint256.Int) Amount { return Amount{v: *v} }
