// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/blake2b"
)

func blake2b512(data []byte) [64]byte {
	return blake2b.Sum512(data)
}

func doubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}
