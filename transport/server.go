// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package transport

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/los-network/los-core/log"
)

// upgrader is shared across all inbound peer connections; origin checking
// is left to the reverse proxy/firewall in front of a deployment, the way
// an internal validator-gossip port normally is.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades an inbound peer connection and wires it into bus/d:
// outbound messages the node broadcasts reach this peer through bus,
// inbound messages from this peer are routed into d via ReadLoop. If
// jwtSecret is non-nil, the inbound request must carry a bearer token
// signed with it before the upgrade is attempted.
func ServeHTTP(bus *WSBus, d Dispatcher, jwtSecret []byte) http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("🔌 peer websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}
		addr := r.RemoteAddr
		bus.AddPeer(addr, conn)
		log.Info("🔌 peer connected", "remote", addr)

		go func() {
			defer func() {
				bus.RemovePeer(addr)
				conn.Close()
				log.Info("🔌 peer disconnected", "remote", addr)
			}()
			if err := ReadLoop(conn, d); err != nil {
				log.Debug("🔌 peer read loop ended", "remote", addr, "err", err)
			}
		}()
	}
	if jwtSecret == nil {
		return handler
	}
	return authMiddleware(jwtSecret, handler)
}

// Dial connects out to a peer's gossip endpoint and wires the resulting
// connection the same way ServeHTTP does for an inbound peer. If
// jwtSecret is non-nil, self is signed into a bearer token presented
// during the handshake.
func Dial(url string, bus *WSBus, d Dispatcher, jwtSecret []byte, self string) error {
	header := http.Header{}
	if jwtSecret != nil {
		token, err := mintAuthToken(jwtSecret, self)
		if err != nil {
			return fmt.Errorf("transport: dial: mint auth token: %w", err)
		}
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return err
	}
	bus.AddPeer(url, conn)
	go func() {
		defer func() {
			bus.RemovePeer(url)
			conn.Close()
		}()
		if err := ReadLoop(conn, d); err != nil {
			log.Debug("🔌 peer read loop ended", "peer", url, "err", err)
		}
	}()
	return nil
}
