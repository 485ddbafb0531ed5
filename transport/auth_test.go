// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package transport

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndLoadJWTSecretRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt.hex")
	require.NoError(t, GenerateJWTSecret(path))

	secret, err := LoadJWTSecret(path)
	require.NoError(t, err)
	assert.Len(t, secret, 32)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAuthMiddlewareRejectsMissingAndWrongToken(t *testing.T) {
	secret := []byte("a-fake-thirty-two-byte-secret!!")
	called := false
	handler := authMiddleware(secret, func(w http.ResponseWriter, r *http.Request) { called = true })

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/gossip", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)

	req := httptest.NewRequest(http.MethodGet, "/gossip", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w = httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestAuthMiddlewareAcceptsTokenMintedWithSameSecret(t *testing.T) {
	secret := []byte("a-fake-thirty-two-byte-secret!!")
	called := false
	handler := authMiddleware(secret, func(w http.ResponseWriter, r *http.Request) { called = true })

	token, err := mintAuthToken(secret, "v1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/gossip", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler(w, req)
	assert.True(t, called)
}

func TestAuthMiddlewareRejectsTokenMintedWithDifferentSecret(t *testing.T) {
	handler := authMiddleware([]byte("secret-a-that-is-long-enough!!!"), func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})
	token, err := mintAuthToken([]byte("secret-b-that-is-long-enough!!!"), "v1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/gossip", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
