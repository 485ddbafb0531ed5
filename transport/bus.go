// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package transport implements the peer fanout collaborator consensus
// (C4) and oracle/slashing (C6/C8) rely on to exchange their wire
// messages: PrePrepareMsg/VoteMsg/ViewChangeMsg, BurnVote, and
// SlashProposal. WSBus fans a message out to every peer over a
// gorilla/websocket connection; MemBus is an in-process fake for single-
// binary devnets and tests.
package transport

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/los-network/los-core/consensus"
	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/log"
	"github.com/los-network/los-core/oracle"
	"github.com/los-network/los-core/slashing"
)

// envelope tags a wire message with its kind so a single connection can
// carry all five message types without a second protocol. ID is a random
// correlation token logged on both ends, so a dropped/malformed message
// on the receiving side can be matched back to the broadcast that sent
// it without any ordering or timing assumption between peers' logs.
type envelope struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

const (
	kindPrePrepare = "pre_prepare"
	kindVote       = "vote"
	kindViewChange = "view_change"
	kindBurnVote   = "burn_vote"
	kindSlashVote  = "slash_proposal"
)

// peerConn is one outbound connection to a peer node, guarded against
// concurrent writers the way gorilla/websocket requires.
type peerConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *peerConn) send(kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := envelope{ID: uuid.NewString(), Kind: kind, Payload: body}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteJSON(env)
}

// WSBus fans consensus/oracle/slashing messages out to every peer over a
// websocket connection. It satisfies consensus.Broadcaster directly, and
// its BroadcastBurnVote/BroadcastSlashProposal methods let node.Coordinator
// use the same bus for C6/C8 gossip.
type WSBus struct {
	mu    sync.RWMutex
	peers map[string]*peerConn
}

// NewWSBus returns an empty bus; peers are attached as they dial in or are
// dialed out to via AddPeer.
func NewWSBus() *WSBus {
	return &WSBus{peers: make(map[string]*peerConn)}
}

// AddPeer registers an already-established websocket connection under a
// peer address, replacing any prior connection for that address.
func (b *WSBus) AddPeer(addr string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.peers[addr] = &peerConn{conn: conn}
}

// RemovePeer drops a peer, e.g. on disconnect.
func (b *WSBus) RemovePeer(addr string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.peers, addr)
}

func (b *WSBus) broadcast(kind string, payload any) error {
	b.mu.RLock()
	peers := make([]*peerConn, 0, len(b.peers))
	addrs := make([]string, 0, len(b.peers))
	for addr, p := range b.peers {
		peers = append(peers, p)
		addrs = append(addrs, addr)
	}
	b.mu.RUnlock()

	var firstErr error
	for i, p := range peers {
		if err := p.send(kind, payload); err != nil {
			log.Warn("🔌 peer fanout failed", "peer", addrs[i], "kind", kind, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (b *WSBus) BroadcastPrePrepare(m consensus.PrePrepareMsg) error { return b.broadcast(kindPrePrepare, m) }
func (b *WSBus) BroadcastVote(m consensus.VoteMsg) error             { return b.broadcast(kindVote, m) }
func (b *WSBus) BroadcastViewChange(m consensus.ViewChangeMsg) error { return b.broadcast(kindViewChange, m) }
func (b *WSBus) BroadcastBurnVote(v oracle.BurnVote) error           { return b.broadcast(kindBurnVote, v) }
func (b *WSBus) BroadcastSlashProposal(p slashing.SlashProposal) error {
	return b.broadcast(kindSlashVote, p)
}

var _ consensus.Broadcaster = (*WSBus)(nil)

// Dispatcher receives decoded peer messages and routes them into the
// local node.Coordinator. node.Coordinator implements this interface with
// its HandlePrePrepare/HandleVote/HandleViewChange/HandleBurnVote/
// HandleSlashProposal methods. A ViewChangeMsg arrives without the
// candidate block it nominates (the candidate travels separately, as the
// next PrePrepare once the new leader proposes), so ReadLoop hands it
// through with a nil candidate.
type Dispatcher interface {
	HandlePrePrepare(consensus.PrePrepareMsg) error
	HandleVote(consensus.VoteMsg) error
	HandleViewChange(msg consensus.ViewChangeMsg, candidate *ledger.Block) error
	HandleBurnVote(oracle.BurnVote) error
	HandleSlashProposal(slashing.SlashProposal) error
}

// ReadLoop decodes envelopes off conn and routes them to d until the
// connection closes or ctx-independent read fails. Callers run this in its
// own goroutine per peer connection.
func ReadLoop(conn *websocket.Conn, d Dispatcher) error {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		if err := dispatch(env, d); err != nil {
			log.Warn("🔌 dropping malformed peer message", "id", env.ID, "kind", env.Kind, "err", err)
		}
	}
}

func dispatch(env envelope, d Dispatcher) error {
	switch env.Kind {
	case kindPrePrepare:
		var m consensus.PrePrepareMsg
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return err
		}
		return d.HandlePrePrepare(m)
	case kindVote:
		var m consensus.VoteMsg
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return err
		}
		return d.HandleVote(m)
	case kindViewChange:
		var m consensus.ViewChangeMsg
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return err
		}
		return d.HandleViewChange(m, nil)
	case kindBurnVote:
		var v oracle.BurnVote
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return err
		}
		return d.HandleBurnVote(v)
	case kindSlashVote:
		var p slashing.SlashProposal
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return d.HandleSlashProposal(p)
	default:
		return nil
	}
}
