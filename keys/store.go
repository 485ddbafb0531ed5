// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package keys implements the validator identity collaborator: an
// in-memory keyring of (address, PublicKey, PrivateKey) identities,
// loadable from and persistable to scrypt+AES-GCM encrypted keyfiles on
// disk, in the spirit of go-ethereum's own keystore package adapted to
// this chain's Dilithium5 keys instead of secp256k1.
package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/scrypt"

	"github.com/los-network/los-core/crypto"
)

// scrypt cost parameters. N=2^18 matches go-ethereum's "light" keystore
// profile, a deliberate few-hundred-millisecond cost on commodity
// hardware to slow brute-force attempts against a stolen keyfile.
const (
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
)

// Identity is one validator's keypair paired with its derived address.
type Identity struct {
	Address    string
	PublicKey  crypto.PublicKey
	PrivateKey crypto.PrivateKey
}

// Store is an in-memory keyring; addresses are looked up by validators
// and node.Coordinator to find the SigningKey a Config needs.
type Store struct {
	mu  sync.RWMutex
	ids map[string]Identity
}

// New returns an empty keyring.
func New() *Store {
	return &Store{ids: make(map[string]Identity)}
}

// Generate creates a fresh random identity, stores it, and returns it.
func (s *Store) Generate() (Identity, error) {
	pk, sk, err := crypto.GenerateRandomKeypair()
	if err != nil {
		return Identity{}, err
	}
	addr, err := crypto.AddressFromPubkey(pk)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{Address: addr, PublicKey: pk, PrivateKey: sk}
	s.mu.Lock()
	s.ids[addr] = id
	s.mu.Unlock()
	return id, nil
}

// Import adds an already-derived identity to the keyring (e.g. one
// decrypted from a keyfile).
func (s *Store) Import(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id.Address] = id
}

// Get returns the identity registered under addr.
func (s *Store) Get(addr string) (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ids[addr]
	return id, ok
}

// keyfile is the on-disk encrypted representation, modeled after
// go-ethereum's keystore v3 JSON layout: a scrypt KDF plus AES-GCM
// sealing of the private key, with the public key and address kept in
// the clear since they carry no secrecy requirement.
type keyfile struct {
	Address      string `json:"address"`
	PublicKeyHex string `json:"public_key"`
	Salt         string `json:"salt"`
	Nonce        string `json:"nonce"`
	CipherText   string `json:"ciphertext"`
}

// SaveToFile encrypts id's private key under passphrase and writes it to
// path as a single JSON keyfile.
func SaveToFile(path string, id Identity, passphrase string) error {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	derivedKey, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return fmt.Errorf("keys: derive scrypt key: %w", err)
	}

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	cipherText := gcm.Seal(nil, nonce, id.PrivateKey, nil)

	kf := keyfile{
		Address:      id.Address,
		PublicKeyHex: hex.EncodeToString(id.PublicKey),
		Salt:         hex.EncodeToString(salt),
		Nonce:        hex.EncodeToString(nonce),
		CipherText:   hex.EncodeToString(cipherText),
	}
	body, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o600)
}

// LoadFromFile decrypts a keyfile written by SaveToFile under passphrase.
func LoadFromFile(path, passphrase string) (Identity, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Identity{}, err
	}
	var kf keyfile
	if err := json.Unmarshal(body, &kf); err != nil {
		return Identity{}, fmt.Errorf("keys: malformed keyfile: %w", err)
	}

	salt, err := hex.DecodeString(kf.Salt)
	if err != nil {
		return Identity{}, err
	}
	nonce, err := hex.DecodeString(kf.Nonce)
	if err != nil {
		return Identity{}, err
	}
	cipherText, err := hex.DecodeString(kf.CipherText)
	if err != nil {
		return Identity{}, err
	}
	pubKey, err := hex.DecodeString(kf.PublicKeyHex)
	if err != nil {
		return Identity{}, err
	}

	derivedKey, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return Identity{}, err
	}
	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return Identity{}, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return Identity{}, err
	}
	privKey, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("keys: wrong passphrase or corrupt keyfile: %w", err)
	}

	id := Identity{Address: kf.Address, PublicKey: crypto.PublicKey(pubKey), PrivateKey: crypto.PrivateKey(privKey)}
	if !crypto.AddressMatchesPubkey(id.Address, id.PublicKey) {
		return Identity{}, fmt.Errorf("keys: keyfile address does not match its own public key")
	}
	return id, nil
}
