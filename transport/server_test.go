// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package transport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/los-network/los-core/consensus"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestServeHTTPAndDialExchangeAVote(t *testing.T) {
	bus := NewWSBus()
	d := &recordingDispatcher{}
	srv := httptest.NewServer(ServeHTTP(bus, d, nil))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	require.NoError(t, Dial(wsURL, NewWSBus(), d, nil, "peer"))

	require.NoError(t, bus.BroadcastVote(consensus.VoteMsg{Phase: consensus.PhasePrepare, Height: 7, Validator: "v1"}))

	waitFor(t, time.Second, func() bool { return len(d.votes) == 1 })
	assert.Equal(t, uint64(7), d.votes[0].Height)
}

func TestServeHTTPRejectsDialWithoutMatchingJWTSecret(t *testing.T) {
	secret := []byte("server-side-shared-secret-32byte")
	bus := NewWSBus()
	d := &recordingDispatcher{}
	srv := httptest.NewServer(ServeHTTP(bus, d, secret))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	err := Dial(wsURL, NewWSBus(), d, nil, "peer")
	assert.Error(t, err)

	require.NoError(t, Dial(wsURL, NewWSBus(), d, secret, "peer"))
}
