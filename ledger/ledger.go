// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package ledger

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/los-network/los-core/lerrors"
	"github.com/los-network/los-core/params"
)

// numShards stripes the account map by address so blocks for distinct
// accounts append concurrently while blocks for the same account are
// strictly sequenced by "previous" (§5), without pulling in a dedicated
// worker-pool library: account key hashing plus per-stripe mutexes is
// enough to express the same concurrency contract.
const numShards = 64

type shard struct {
	mu       sync.RWMutex
	accounts map[string]*AccountState
	history  map[string][]string // address -> ordered block hashes
}

// pendingSend is an unresolved Send awaiting its matching Receive,
// indexed by the Send's own hash (Design Note "Cyclic reference between
// Send and Receive").
type pendingSend struct {
	sender    string
	recipient string
	amount    Amount
}

// Ledger is the append-only account/block map plus the accounting state
// needed to prove I2 (supply conservation) after every operation.
type Ledger struct {
	chainID uint64

	shards [numShards]*shard

	blocksMu sync.RWMutex
	blocks   map[string]*Block

	pendingMu    sync.Mutex
	pendingSends map[string]*pendingSend // send hash -> unresolved
	claimedSends map[string]string       // send hash -> receive hash that claimed it

	supplyMu      sync.Mutex
	burnedCil     Amount
	mintPoolCil   Amount // remaining undistributed PoW mint pool (mining reward budget not yet paid out)
	rewardPoolCil Amount // remaining undistributed validator reward pool
}

// New creates an empty ledger for the given chain. mintPool and
// rewardPool seed the two undistributed pools that participate in I2.
func New(chainID uint64, mintPool, rewardPool Amount) *Ledger {
	l := &Ledger{
		chainID:       chainID,
		blocks:        make(map[string]*Block),
		pendingSends:  make(map[string]*pendingSend),
		claimedSends:  make(map[string]string),
		mintPoolCil:   mintPool,
		rewardPoolCil: rewardPool,
		burnedCil:     ZeroAmount(),
	}
	for i := range l.shards {
		l.shards[i] = &shard{accounts: make(map[string]*AccountState), history: make(map[string][]string)}
	}
	return l
}

func (l *Ledger) shardFor(address string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(address))
	return l.shards[h.Sum32()%numShards]
}

// ChainID returns the chain identifier blocks must bind to.
func (l *Ledger) ChainID() uint64 { return l.chainID }

// GetAccount returns a copy of the account's current state, creating an
// empty one on first touch (mirrors go-ethereum's StateDB "implicit
// zero-value account" convention).
func (l *Ledger) GetAccount(address string) AccountState {
	s := l.shardFor(address)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acc, ok := s.accounts[address]; ok {
		return *acc
	}
	return *newAccountState(address)
}

// GetFrontier returns the hash of the latest block on address's chain, or
// GenesisPrevious if the chain is empty.
func (l *Ledger) GetFrontier(address string) string {
	return l.GetAccount(address).HeadBlock
}

// GetBlock looks up a block by its hash.
func (l *Ledger) GetBlock(hash string) (*Block, bool) {
	l.blocksMu.RLock()
	defer l.blocksMu.RUnlock()
	b, ok := l.blocks[hash]
	return b, ok
}

// GetHistory returns address's blocks in chain order, oldest first.
func (l *Ledger) GetHistory(address string) []*Block {
	s := l.shardFor(address)
	s.mu.RLock()
	hashes := append([]string(nil), s.history[address]...)
	s.mu.RUnlock()

	out := make([]*Block, 0, len(hashes))
	l.blocksMu.RLock()
	defer l.blocksMu.RUnlock()
	for _, h := range hashes {
		if b, ok := l.blocks[h]; ok {
			out = append(out, b)
		}
	}
	return out
}

// SendLookup resolves a pending Send by hash, for validator step 6
// (Receive: "a finalized Send with hash link ... exists and has no prior
// Receive claiming it", I3).
func (l *Ledger) SendLookup(sendHash string) (recipient string, amount Amount, claimed bool, found bool) {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()
	if ps, ok := l.pendingSends[sendHash]; ok {
		_, isClaimed := l.claimedSends[sendHash]
		return ps.recipient, ps.amount, isClaimed, true
	}
	return "", Amount{}, false, false
}

// Append commits a block that has already passed validator.Validate. It
// updates the account frontier, the block/hash index, the Send/Receive
// cross-link, and supply accounting atomically with respect to other
// appends on the same account. As defensive checks it re-asserts I4
// (duplicate hash) and, for every block type except Mint, I1 (Previous
// linkage), and it rejects any debit that would take a balance below
// zero; I3 and I5 are not re-checked here.
func (l *Ledger) Append(b *Block) error {
	hash := b.Hash(l.chainID)

	l.blocksMu.Lock()
	if _, exists := l.blocks[hash]; exists {
		l.blocksMu.Unlock()
		return lerrors.New(lerrors.KindBadPrevious, "duplicate block hash %s", hash) // I4
	}
	l.blocksMu.Unlock()

	s := l.shardFor(b.Account)
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[b.Account]
	if !ok {
		acc = newAccountState(b.Account)
		s.accounts[b.Account] = acc
	}

	expectedPrev := acc.HeadBlock
	if b.BlockType != Mint && b.Previous != expectedPrev {
		return lerrors.New(lerrors.KindBadPrevious, "account %s expected previous %s got %s", b.Account, expectedPrev, b.Previous)
	}

	if err := l.applyBalanceEffect(b, acc); err != nil {
		return err
	}

	if len(b.PublicKey) > 0 {
		acc.PublicKey = b.PublicKey
	}
	acc.HeadBlock = hash
	acc.BlockCount++
	s.history[b.Account] = append(s.history[b.Account], hash)

	l.blocksMu.Lock()
	l.blocks[hash] = b
	l.blocksMu.Unlock()

	if b.BlockType == Send {
		l.pendingMu.Lock()
		l.pendingSends[hash] = &pendingSend{sender: b.Account, recipient: b.Link, amount: b.Amount}
		l.pendingMu.Unlock()
	}
	if b.BlockType == Receive {
		l.pendingMu.Lock()
		l.claimedSends[b.Link] = hash
		l.pendingMu.Unlock()
	}

	return nil
}

// applyBalanceEffect mutates acc.BalanceCil and the global supply
// accounting per the block-type semantics table (§4.2). The caller still
// holds the shard's write lock.
func (l *Ledger) applyBalanceEffect(b *Block, acc *AccountState) error {
	switch b.BlockType {
	case Send:
		total, err := b.Amount.Add(b.Fee)
		if err != nil {
			return lerrors.New(lerrors.KindOverflow, "send total overflow")
		}
		newBal, err := acc.BalanceCil.Sub(total)
		if err != nil {
			return lerrors.New(lerrors.KindInsufficientBalance, "balance %s < amount+fee %s", acc.BalanceCil, total)
		}
		acc.BalanceCil = newBal
		return nil

	case Receive, Mint:
		newBal, err := acc.BalanceCil.Add(b.Amount)
		if err != nil {
			return lerrors.New(lerrors.KindOverflow, "receive/mint overflow")
		}
		acc.BalanceCil = newBal
		return nil

	case Burn:
		newBal, err := acc.BalanceCil.Sub(b.Amount)
		if err != nil {
			return lerrors.New(lerrors.KindInsufficientBalance, "burn exceeds balance")
		}
		acc.BalanceCil = newBal
		return l.creditBurned(b.Amount)

	case Slash:
		newBal, err := acc.BalanceCil.Sub(b.Amount)
		if err != nil {
			return lerrors.New(lerrors.KindInsufficientBalance, "slash exceeds stake balance")
		}
		acc.BalanceCil = newBal
		return l.creditBurned(b.Amount)

	case Change:
		return nil

	default:
		return lerrors.New(lerrors.KindFormat, "unknown block type %v", b.BlockType)
	}
}

func (l *Ledger) creditBurned(amount Amount) error {
	l.supplyMu.Lock()
	defer l.supplyMu.Unlock()
	burned, err := l.burnedCil.Add(amount)
	if err != nil {
		return lerrors.New(lerrors.KindOverflow, "burned_cil overflow")
	}
	l.burnedCil = burned
	return nil
}

// SupplyAccounting is the I2 accounting triple.
type SupplyAccounting struct {
	CirculatingCil Amount
	BurnedCil      Amount
	UndistributedMintPoolCil   Amount
	UndistributedRewardPoolCil Amount
}

// TotalSupplyAccounting sums every account balance plus the accounting
// pools and returns the components so callers can assert I2 themselves
// (circulating + burned + pools == TOTAL_SUPPLY_CIL).
func (l *Ledger) TotalSupplyAccounting() (SupplyAccounting, error) {
	circulating := ZeroAmount()
	var err error
	for _, s := range l.shards {
		s.mu.RLock()
		for _, acc := range s.accounts {
			circulating, err = circulating.Add(acc.BalanceCil)
			if err != nil {
				s.mu.RUnlock()
				return SupplyAccounting{}, fmt.Errorf("ledger: supply overflow: %w", err)
			}
		}
		s.mu.RUnlock()
	}

	l.supplyMu.Lock()
	defer l.supplyMu.Unlock()
	return SupplyAccounting{
		CirculatingCil:             circulating,
		BurnedCil:                  l.burnedCil,
		UndistributedMintPoolCil:   l.mintPoolCil,
		UndistributedRewardPoolCil: l.rewardPoolCil,
	}, nil
}

// AssertSupplyInvariant checks I2 against the fixed total supply. A
// violation is a fatal condition per §7 — the caller (node.Coordinator)
// must treat a non-nil error as cause to crash rather than continue.
func (l *Ledger) AssertSupplyInvariant() error {
	acct, err := l.TotalSupplyAccounting()
	if err != nil {
		return err
	}
	sum, err := acct.CirculatingCil.Add(acct.BurnedCil)
	if err != nil {
		return err
	}
	sum, err = sum.Add(acct.UndistributedMintPoolCil)
	if err != nil {
		return err
	}
	sum, err = sum.Add(acct.UndistributedRewardPoolCil)
	if err != nil {
		return err
	}
	total, err := AmountFromDecimalString(params.TotalSupplyCil.Dec())
	if err != nil {
		return err
	}
	if sum.Cmp(total) != 0 {
		return fmt.Errorf("ledger: I2 violated: accounted %s != total supply %s", sum, total)
	}
	return nil
}

// DebitMintPool and DebitRewardPool are called by C5/C7 as they allocate
// Mint blocks, keeping the undistributed-pool side of I2 in sync with
// what has actually been paid out.
func (l *Ledger) DebitMintPool(amount Amount) error {
	l.supplyMu.Lock()
	defer l.supplyMu.Unlock()
	newPool, err := l.mintPoolCil.Sub(amount)
	if err != nil {
		return lerrors.New(lerrors.KindOverflow, "mint pool exhausted")
	}
	l.mintPoolCil = newPool
	return nil
}

func (l *Ledger) DebitRewardPool(amount Amount) error {
	l.supplyMu.Lock()
	defer l.supplyMu.Unlock()
	newPool, err := l.rewardPoolCil.Sub(amount)
	if err != nil {
		return lerrors.New(lerrors.KindOverflow, "reward pool exhausted")
	}
	l.rewardPoolCil = newPool
	return nil
}

// RemainingMintPool and RemainingRewardPool expose the pools read-only,
// e.g. for validator step "amount <= remaining_reward_for_epoch".
func (l *Ledger) RemainingMintPool() Amount {
	l.supplyMu.Lock()
	defer l.supplyMu.Unlock()
	return l.mintPoolCil
}

func (l *Ledger) RemainingRewardPool() Amount {
	l.supplyMu.Lock()
	defer l.supplyMu.Unlock()
	return l.rewardPoolCil
}

// AllBlocks returns every block in the ledger, in no particular order.
// Used for restart recovery (C5 rebuilding current_epoch_miners, C8
// scanning for prior slash evidence) rather than in any hot path.
func (l *Ledger) AllBlocks() []*Block {
	l.blocksMu.RLock()
	defer l.blocksMu.RUnlock()
	out := make([]*Block, 0, len(l.blocks))
	for _, b := range l.blocks {
		out = append(out, b)
	}
	return out
}
