// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package mint

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"runtime"
	"sync"
	"time"

	"github.com/los-network/los-core/crypto"
	"github.com/los-network/los-core/log"
)

// ErrMiningCanceled is returned by Mine when ctx is canceled before a
// qualifying nonce is found.
var ErrMiningCanceled = errors.New("mint: mining canceled")

type nonceResult struct {
	nonce uint64
}

// Mine searches for a nonce such that crypto.MiningFingerprint(chainID,
// account, epoch, nonce) has at least difficultyBits leading zero bits
// (§4.5, "Mining hash"). It fans the search out across GOMAXPROCS worker
// goroutines, each striding through a disjoint slice of nonce-space; the
// first qualifying nonce any worker finds wins outright, with no
// quality-scoring or best-of-window selection among candidates.
func Mine(ctx context.Context, chainID uint64, account string, epoch uint64, difficultyBits uint64) (uint64, error) {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}

	results := make(chan nonceResult, workers)
	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset uint64) {
			defer wg.Done()
			mineWorker(chainID, account, epoch, difficultyBits, offset, uint64(workers), results, done)
		}(uint64(w))
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	select {
	case r, ok := <-results:
		stop()
		if !ok {
			return 0, fmt.Errorf("mint: exhausted nonce space for epoch %d", epoch)
		}
		log.Info("⛏️  mining nonce found", "account", account, "epoch", epoch,
			"nonce", r.nonce, "difficulty", difficultyBits, "elapsed", time.Since(start))
		return r.nonce, nil
	case <-ctx.Done():
		stop()
		return 0, ErrMiningCanceled
	}
}

func mineWorker(chainID uint64, account string, epoch, difficultyBits, offset, stride uint64, results chan<- nonceResult, done <-chan struct{}) {
	for nonce := offset; ; nonce += stride {
		select {
		case <-done:
			return
		default:
		}

		digest := crypto.MiningFingerprint(chainID, account, epoch, nonce)
		if leadingZeroBits(digest[:]) >= difficultyBits {
			select {
			case results <- nonceResult{nonce: nonce}:
			case <-done:
			}
			return
		}
	}
}

func leadingZeroBits(digest []byte) uint64 {
	var total uint64
	for _, b := range digest {
		if b == 0 {
			total += 8
			continue
		}
		total += uint64(bits.LeadingZeros8(b))
		break
	}
	return total
}
