// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package consensus

import "sync"

// finalizedCache is a bounded FIFO set of recently finalized block hashes,
// used to reject a replayed Commit quorum for a hash already finalized.
// No LRU dependency is pulled in for this, so it's hand-rolled: a ring
// buffer of capacity entries backing a membership map, evicting
// oldest-first. This is deliberately simpler than a real LRU (no
// access-time reordering) because replay rejection only needs
// insertion-order eviction.
type finalizedCache struct {
	mu       sync.Mutex
	capacity int
	order    []string
	seen     map[string]struct{}
}

func newFinalizedCache(capacity int) *finalizedCache {
	return &finalizedCache{
		capacity: capacity,
		order:    make([]string, 0, capacity),
		seen:     make(map[string]struct{}, capacity),
	}
}

// Contains reports whether hash was already finalized.
func (c *finalizedCache) Contains(hash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[hash]
	return ok
}

// Add records hash as finalized, evicting the oldest entry if full.
func (c *finalizedCache) Add(hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[hash]; ok {
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
	c.order = append(c.order, hash)
	c.seen[hash] = struct{}{}
}
