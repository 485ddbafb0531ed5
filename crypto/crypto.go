// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package crypto implements the LOS core's cryptographic primitives (C1):
// deterministic post-quantum keygen, Dilithium5-equivalent sign/verify,
// domain-separated SHA3-256 hashing, and address derivation. Every
// function here is pure — no package-level mutable state, no I/O.
package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode5"
	"golang.org/x/crypto/sha3"

	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/los-network/los-core/params"
)

// Sizes of the NIST PQC level-5 (Dilithium5/ML-DSA-87) scheme used
// throughout the wire format.
const (
	PublicKeySize  = mode5.PublicKeySize
	PrivateKeySize = mode5.PrivateKeySize
	SignatureSize  = mode5.SignatureSize
	SeedSize       = 32
)

// keygenDomainTag domain-separates the seed expansion so the same 32-byte
// seed never collides with another subsystem's use of SHA3 over raw seed
// bytes (e.g. mining fingerprints).
const keygenDomainTag = "LOS_KEYGEN_V1"

// addressVersion is the single-byte version prefix baked into every
// address (spec §3).
const addressVersion = 0x4A

// PublicKey and PrivateKey are the packed wire representations of a
// Dilithium5 keypair.
type PublicKey []byte
type PrivateKey []byte

// GenerateKeypair derives a deterministic keypair from a 32-byte seed: the
// same seed always yields the same (pk, sk), on any platform. The seed is
// first expanded through a domain-separated SHA3-512 pass (a small
// DRBG) before being handed to the PQC scheme's seed-expansion routine, so
// a LOS seed is never usable as a raw Dilithium seed for another protocol.
func GenerateKeypair(seed [SeedSize]byte) (PublicKey, PrivateKey, error) {
	expanded := expandSeed(seed)

	var dilSeed [mode5.SeedSize]byte
	copy(dilSeed[:], expanded)

	pk, sk := mode5.NewKeyFromSeed(&dilSeed)

	pkBytes := make([]byte, mode5.PublicKeySize)
	pk.Pack(pkBytes)
	skBytes := make([]byte, mode5.PrivateKeySize)
	sk.Pack(skBytes)

	return PublicKey(pkBytes), PrivateKey(skBytes), nil
}

// GenerateRandomKeypair is a convenience for tests and tooling that do not
// need seed determinism (e.g. ephemeral validator identities in a local
// devnet). Production validator identities should always go through
// GenerateKeypair with a securely stored seed.
func GenerateRandomKeypair() (PublicKey, PrivateKey, error) {
	var seed [SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, nil, fmt.Errorf("crypto: read random seed: %w", err)
	}
	return GenerateKeypair(seed)
}

func expandSeed(seed [SeedSize]byte) []byte {
	h := sha3.New512()
	h.Write([]byte(keygenDomainTag))
	h.Write(seed[:])
	return h.Sum(nil)[:mode5.SeedSize]
}

// Sign produces a detached Dilithium5 signature over msg. msg is expected
// to already be the canonical signing hash (§3); callers never sign raw
// block fields directly.
func Sign(sk PrivateKey, msg []byte) ([]byte, error) {
	if len(sk) != mode5.PrivateKeySize {
		return nil, errors.New("crypto: invalid private key size")
	}
	var priv mode5.PrivateKey
	if err := priv.UnmarshalBinary(sk); err != nil {
		return nil, fmt.Errorf("crypto: unpack private key: %w", err)
	}
	sig := make([]byte, mode5.SignatureSize)
	mode5.SignTo(&priv, msg, sig)
	return sig, nil
}

// Verify checks a detached signature against a public key and message.
func Verify(pk PublicKey, msg, sig []byte) bool {
	if len(pk) != mode5.PublicKeySize || len(sig) != mode5.SignatureSize {
		return false
	}
	var pub mode5.PublicKey
	if err := pub.UnmarshalBinary(pk); err != nil {
		return false
	}
	return mode5.Verify(&pub, msg, sig)
}

// Hash computes the universal SHA3-256 digest (FIPS 202) used for block
// identity and as the base of the PoW mining fingerprint.
func Hash(data []byte) [32]byte {
	return sha3.Sum256(data)
}

// AddressFromPubkey derives an address exactly per §3:
// "LOS" || Base58(version=0x4A || blake2b-512(pubkey)[0..20] || sha256(sha256(version||hash))[0..4]).
//
// blake2b-512 is used for the body digest (a distinct hash family from
// the SHA3 used for block identity, so an address collision would
// require breaking two independent hash functions); the checksum re-uses
// double-SHA256 the way Bitcoin-derived Base58Check addresses do.
func AddressFromPubkey(pk PublicKey) (string, error) {
	body, err := addressBody(pk)
	if err != nil {
		return "", err
	}
	return "LOS" + base58.Encode(body), nil
}

func addressBody(pk PublicKey) ([]byte, error) {
	digest := blake2b512(pk)

	payload := make([]byte, 0, 1+20)
	payload = append(payload, addressVersion)
	payload = append(payload, digest[:20]...)

	checksum := doubleSHA256(payload)
	payload = append(payload, checksum[:4]...)
	return payload, nil
}

// ParseAddress decodes and checksum-verifies an address string, returning
// the 20-byte account identifier. Verifiers MUST reject any address
// failing the checksum (§4.1).
func ParseAddress(addr string) ([20]byte, error) {
	var out [20]byte
	if len(addr) < 28 || len(addr) > 40 || addr[:3] != "LOS" {
		return out, errors.New("crypto: malformed address length/prefix")
	}
	raw := base58.Decode(addr[3:])
	if len(raw) != 1+20+4 {
		return out, errors.New("crypto: malformed address payload")
	}
	if raw[0] != addressVersion {
		return out, errors.New("crypto: unknown address version")
	}
	body, checksum := raw[:21], raw[21:]
	want := doubleSHA256(body)
	for i := 0; i < 4; i++ {
		if checksum[i] != want[i] {
			return out, errors.New("crypto: bad address checksum")
		}
	}
	copy(out[:], body[1:21])
	return out, nil
}

// AddressMatchesPubkey reports whether addr was derived from pk, as
// required by block validation step 4 (§4.3).
func AddressMatchesPubkey(addr string, pk PublicKey) bool {
	derived, err := AddressFromPubkey(pk)
	if err != nil {
		return false
	}
	return derived == addr
}

// MiningFingerprint computes the domain-separated SHA3-256 digest a PoW
// miner searches over: the same function is used to validate a submitted
// Mint(PoW) block (C3) and to search for a qualifying nonce (C5), so the
// two can never disagree about what hash a miner is supposed to produce.
func MiningFingerprint(chainID uint64, account string, epoch, nonce uint64) [32]byte {
	buf := make([]byte, 0, len(params.MiningDomainTag)+8+len(account)+16)
	buf = append(buf, []byte(params.MiningDomainTag)...)
	buf = appendU64LE(buf, chainID)
	buf = append(buf, []byte(account)...)
	buf = appendU64LE(buf, epoch)
	buf = appendU64LE(buf, nonce)
	return sha3.Sum256(buf)
}

func appendU64LE(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
