// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package transport

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// jwtClaimIssuer identifies tokens minted by losd peers, mirroring the
// "los" issuer convention so a captured token can't be replayed against an
// unrelated service sharing the same JWT library.
const jwtClaimIssuer = "los-gossip"

// GenerateJWTSecret writes a fresh 32-byte hex-encoded secret to path, the
// same shared-secret-file shape an Engine API JWT uses: every peer in a
// validator set is provisioned with the same file out of band and signs
// its Dial handshake with it.
func GenerateJWTSecret(path string) error {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("transport: generate jwt secret: %w", err)
	}
	return os.WriteFile(path, []byte(hex.EncodeToString(raw)), 0o600)
}

// LoadJWTSecret reads a hex-encoded secret written by GenerateJWTSecret.
func LoadJWTSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transport: read jwt secret: %w", err)
	}
	secret, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("transport: decode jwt secret: %w", err)
	}
	return secret, nil
}

// mintAuthToken signs a short-lived token a dialing peer presents on its
// way in; self is logged on the receiving end so a bad token can be traced
// back to the peer that sent it.
func mintAuthToken(secret []byte, self string) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    jwtClaimIssuer,
		Subject:   self,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// authMiddleware wraps a gossip handler so only peers holding secret can
// complete the websocket upgrade. Unlike an end-user API, every caller here
// is itself a validator node, so the "user" identity in the claim is just
// the dialing peer's address, logged for operators, not authorized against
// an ACL.
func authMiddleware(secret []byte, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || claims.Issuer != jwtClaimIssuer {
			http.Error(w, "invalid peer token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
