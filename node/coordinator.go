// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

package node

import (
	"context"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/los-network/los-core/consensus"
	"github.com/los-network/los-core/crypto"
	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/log"
	"github.com/los-network/los-core/mint"
	"github.com/los-network/los-core/oracle"
	"github.com/los-network/los-core/params"
	"github.com/los-network/los-core/rewards"
	"github.com/los-network/los-core/slashing"
	"github.com/los-network/los-core/validator"
	"github.com/los-network/los-core/validators"
)

// registryCount adapts *validators.Registry to the Len()-only
// ValidatorSet interfaces oracle and slashing each declare, reading the
// live membership count rather than a point-in-time snapshot.
type registryCount struct{ reg *validators.Registry }

func (r registryCount) Len() int { return len(r.reg.All()) }

// Coordinator wires C2-C8 together: it validates and proposes
// externally-submitted blocks through the consensus engine, self-issues
// entitlement Mint blocks (validator rewards, burn yield) on behalf of
// its own validator identity, and applies confirmed slashes. PoW mining
// rewards are not self-issued: miners submit their own Mint blocks. Exactly one Coordinator runs per node process.
type Coordinator struct {
	mu sync.Mutex

	cfg         Config
	ledger      *ledger.Ledger
	validator   *validator.Validator
	mint        *mint.Engine
	burns       *oracle.BurnCoordinator
	registry    *validators.Registry
	slash       *slashing.Coordinator
	broadcaster consensus.Broadcaster

	latestPrice map[string]uint64

	height  uint64
	engine  *consensus.Engine
	mempool chan *ledger.Block

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New assembles a Coordinator from an already-seeded ledger and
// validator registry (genesis loading is the caller's job, cmd/losd's in
// the full deployment). Restart recovery (mint admissions, burn-txid
// dedup) runs synchronously before New returns.
func New(cfg Config, l *ledger.Ledger, reg *validators.Registry, bus consensus.Broadcaster) *Coordinator {
	now := time.Now()

	m := mint.New(cfg.GenesisUnix, cfg.EpochLenSec, now)
	m.RecoverFromLedger(l)

	burns := oracle.NewBurnCoordinator(registryCount{reg}, assetConfigs(cfg.Assets))
	burns.RecoverFromLedger(l)

	sl := slashing.NewCoordinator(registryCount{reg}, reg)

	v := validator.New(l, m, cfg.ChainID, time.Now)

	return &Coordinator{
		cfg:         cfg,
		ledger:      l,
		validator:   v,
		mint:        m,
		burns:       burns,
		registry:    reg,
		slash:       sl,
		broadcaster: bus,
		latestPrice: make(map[string]uint64),
		mempool:     make(chan *ledger.Block, 256),
	}
}

// Start launches the consensus round loop and the epoch clock. It
// returns once both goroutines are scheduled; Stop blocks until they
// exit.
func (c *Coordinator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	c.cancel = cancel
	c.group = g

	g.Go(func() error { return c.roundLoop(ctx) })
	g.Go(func() error { return c.epochLoop(ctx) })

	log.Info("🧩 node coordinator started", "self", c.cfg.Self, "chainID", c.cfg.ChainID)
}

// Stop cancels both background loops and waits for them to exit.
func (c *Coordinator) Stop() error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	err := c.group.Wait()
	log.Info("🧩 node coordinator stopped")
	return err
}

// SubmitBlock runs an externally-received block through the full
// validation pipeline (C3) and, if accepted, queues it for the next
// consensus round.
func (c *Coordinator) SubmitBlock(b *ledger.Block) error {
	if err := c.validator.Validate(b); err != nil {
		return err
	}
	return c.enqueue(b)
}

func (c *Coordinator) enqueue(b *ledger.Block) error {
	select {
	case c.mempool <- b:
		return nil
	default:
		return fmt.Errorf("node: mempool full, dropping block for %s", b.Account)
	}
}

func (c *Coordinator) roundLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-c.mempool:
			c.mu.Lock()
			height := c.height
			c.mu.Unlock()
			if err := c.runRound(height, b); err != nil {
				log.Error("⚠️ consensus round failed", "height", height, "err", err)
			}
		}
	}
}

// runRound constructs a fresh consensus.Engine for height from the
// current validator registry snapshot (stake changes from a Slash take
// effect on the very next round, never mid-round) and starts voting.
func (c *Coordinator) runRound(height uint64, candidate *ledger.Block) error {
	c.mu.Lock()
	vs := buildValidatorSet(c.registry)
	eng := consensus.New(c.cfg.Self, c.cfg.SigningKey, c.cfg.ChainID, vs, c.cfg.MinPower, c.broadcaster, c.finalize)
	eng.PubKeyLookup = func(addr string) crypto.PublicKey { return c.ledger.GetAccount(addr).PublicKey }
	c.engine = eng
	c.mu.Unlock()
	return eng.StartRound(height, candidate)
}

// buildValidatorSet rebuilds the active roster fresh every round. A
// validator whose stake has been slashed below MinValidatorStakeCil
// keeps its profile (it may re-stake back above the floor later) but
// casts no voting weight: per §4.4, voting weight is stake_cil if
// stake >= MIN_VALIDATOR_STAKE_CIL, else 0.
func buildValidatorSet(reg *validators.Registry) *consensus.ValidatorSet {
	profiles := reg.All()
	floor := ledger.AmountFromUint256(params.MinValidatorStakeCil)
	out := make([]consensus.Validator, len(profiles))
	for i, p := range profiles {
		weight := p.StakeCil
		if weight.Cmp(floor) < 0 {
			weight = ledger.ZeroAmount()
		}
		out[i] = consensus.Validator{Address: p.Address, StakeCil: weight}
	}
	return consensus.NewValidatorSet(out)
}

// HandlePrePrepare routes an inbound leader proposal to the active
// round, starting a passive round for this node if none is running yet
// (this node is not the leader and has nothing of its own to propose).
func (c *Coordinator) HandlePrePrepare(msg consensus.PrePrepareMsg) error {
	eng, err := c.roundFor(msg.Height)
	if err != nil {
		return err
	}
	return eng.HandlePrePrepare(msg)
}

// HandleVote routes an inbound Prepare/Commit ballot to the active round.
func (c *Coordinator) HandleVote(msg consensus.VoteMsg) error {
	c.mu.Lock()
	eng := c.engine
	c.mu.Unlock()
	if eng == nil {
		return fmt.Errorf("node: no active round for vote at height %d", msg.Height)
	}
	return eng.HandleVote(msg)
}

// HandleViewChange routes an inbound view-change to the active round.
func (c *Coordinator) HandleViewChange(msg consensus.ViewChangeMsg, candidate *ledger.Block) error {
	c.mu.Lock()
	eng := c.engine
	c.mu.Unlock()
	if eng == nil {
		return fmt.Errorf("node: no active round for view-change at height %d", msg.Height)
	}
	return eng.HandleViewChange(msg, candidate)
}

func (c *Coordinator) roundFor(height uint64) (*consensus.Engine, error) {
	c.mu.Lock()
	eng := c.engine
	cur := c.height
	c.mu.Unlock()
	if eng != nil && cur == height {
		return eng, nil
	}
	if err := c.runRound(height, nil); err != nil {
		return nil, err
	}
	c.mu.Lock()
	eng = c.engine
	c.mu.Unlock()
	return eng, nil
}

// finalize is the consensus.Finalizer: append the winning block and
// advance height before doing any of the entitlement/admission
// bookkeeping a given block type triggers.
func (c *Coordinator) finalize(height uint64, _ string, block *ledger.Block) error {
	if err := c.ledger.Append(block); err != nil {
		return err
	}
	c.mu.Lock()
	c.height = height + 1
	c.mu.Unlock()
	c.onAppended(block)
	return nil
}

// onAppended applies the bookkeeping side effects a finalized block
// triggers beyond its own balance update: PoW mint admission and
// mint-pool debit for MINE-tagged blocks.
func (c *Coordinator) onAppended(b *ledger.Block) {
	if b.BlockType != ledger.Mint || !strings.HasPrefix(b.Link, "MINE:") {
		return
	}
	if epoch, ok := parseMineEpoch(b.Link); ok {
		if err := c.mint.AdmitMiner(b.Account, epoch); err != nil {
			log.Warn("⛏️  mint admission bookkeeping failed", "account", b.Account, "epoch", epoch, "err", err)
		}
	}
	if err := c.ledger.DebitMintPool(b.Amount); err != nil {
		log.Warn("⚠️ mint pool debit failed", "account", b.Account, "err", err)
	}
}

func parseMineEpoch(link string) (uint64, bool) {
	parts := strings.Split(link, ":")
	if len(parts) != 3 || parts[0] != "MINE" {
		return 0, false
	}
	epoch, err := strconv.ParseUint(parts[1], 10, 64)
	return epoch, err == nil
}

func (c *Coordinator) epochLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			c.onEpochTick(now)
		}
	}
}

func (c *Coordinator) onEpochTick(now time.Time) {
	if result := c.mint.AdvanceEpoch(now); result != nil {
		c.issueRewards(result.ClosedEpoch)
	}
	if err := c.ledger.AssertSupplyInvariant(); err != nil {
		log.Crit("💥 supply invariant violated", "err", err)
	}
}

// issueRewards distributes the closed epoch's validator reward budget
// and self-issues this node's own share, if any (every honest node
// computes the identical Distribute() split and self-claims only its
// own entry — see DESIGN.md's "self-issued entitlement blocks" note).
func (c *Coordinator) issueRewards(epoch uint64) {
	budget := rewards.EpochBudgetCil(epoch, c.ledger.RemainingRewardPool())
	if budget.IsZero() {
		return
	}
	for _, d := range rewards.Distribute(epoch, budget, c.registry.All()) {
		if d.Address != c.cfg.Self {
			continue
		}
		if err := c.ledger.DebitRewardPool(d.Amount); err != nil {
			log.Warn("⚠️ reward pool debit failed", "err", err)
			continue
		}
		if err := c.claimEntitlement(d.Address, d.Link, d.Amount); err != nil {
			log.Warn("⚠️ reward claim failed", "account", d.Address, "err", err)
		}
	}
}

// HandlePriceSubmissions aggregates a round of oracle price submissions
// for asset and, if they pass BFT-median validation, records the result
// for the next burn yield computation.
func (c *Coordinator) HandlePriceSubmissions(asset string, subs []oracle.PriceSubmission) {
	price, err := oracle.AggregatePrice(subs)
	if err != nil {
		log.Warn("🔮 price aggregation rejected", "asset", asset, "err", err)
		return
	}
	c.mu.Lock()
	c.latestPrice[asset] = price
	c.mu.Unlock()
}

// HandleBurnVote records a validator's burn confirmation and, once
// quorum finalizes the txid, computes the yield and self-issues the
// entitlement Mint block if this node is the burn's recipient.
func (c *Coordinator) HandleBurnVote(v oracle.BurnVote) error {
	finalized, err := c.burns.HandleVote(v)
	if err != nil || !finalized {
		return err
	}

	c.mu.Lock()
	price := c.latestPrice[v.Asset]
	c.mu.Unlock()

	yield, err := c.burns.Yield(v.Asset, v.AmountNative, price, c.remainingPublicSupply(), ledger.AmountFromUint256(params.PublicSupplyCapCil))
	if err != nil {
		log.Warn("🔥 burn yield computation failed", "txid", v.Txid, "err", err)
		return err
	}
	if v.Recipient != c.cfg.Self {
		return nil
	}
	return c.claimEntitlement(v.Recipient, oracle.BurnLink(v.Txid), yield)
}

func (c *Coordinator) remainingPublicSupply() ledger.Amount {
	acct, err := c.ledger.TotalSupplyAccounting()
	if err != nil {
		return ledger.ZeroAmount()
	}
	remaining, err := ledger.AmountFromUint256(params.PublicSupplyCapCil).Sub(acct.CirculatingCil)
	if err != nil {
		return ledger.ZeroAmount()
	}
	return remaining
}

// HandleSlashProposal records a validator's slash accusation/confirmation
// and, once quorum is reached, turns the result into a system-originated
// Slash block routed directly into a consensus round (never through
// SubmitBlock/Validate: the target will never cooperate in signing its
// own penalty, so the block carries no self-signature — see DESIGN.md).
func (c *Coordinator) HandleSlashProposal(p slashing.SlashProposal) error {
	res, err := c.slash.HandleProposal(p)
	if err != nil || res == nil {
		return err
	}
	b := &ledger.Block{
		ChainID:   c.cfg.ChainID,
		Account:   res.Target,
		Previous:  c.ledger.GetFrontier(res.Target),
		BlockType: ledger.Slash,
		Amount:    res.AmountCil,
		Link:      fmt.Sprintf("SLASH:%s", res.Offence),
		Timestamp: uint64(time.Now().Unix()),
	}
	return c.enqueue(b)
}

// claimEntitlement self-signs a system-credited Mint block (validator
// reward or burn yield) on behalf of account, which
// must be this node's own validator identity. The beneficiary's own
// signature is what lets this skip the deep type-specific check in
// validateMint while still passing the pipeline's structural/signature
// stages, so it still pays the anti-spam PoW cost like any other block.
func (c *Coordinator) claimEntitlement(account, link string, amount ledger.Amount) error {
	if amount.IsZero() {
		return nil
	}
	b := &ledger.Block{
		ChainID:   c.cfg.ChainID,
		Account:   account,
		Previous:  c.ledger.GetFrontier(account),
		BlockType: ledger.Mint,
		Amount:    amount,
		Link:      link,
		PublicKey: c.cfg.PublicKey,
		Timestamp: uint64(time.Now().Unix()),
	}
	mineAntiSpamWork(b, c.cfg.ChainID)
	hash := b.SigningHash(c.cfg.ChainID)
	sig, err := crypto.Sign(c.cfg.SigningKey, hash[:])
	if err != nil {
		return fmt.Errorf("node: sign entitlement block: %w", err)
	}
	b.Signature = sig
	return c.SubmitBlock(b)
}

// mineAntiSpamWork grinds b.Work until the anti-spam PoW condition
// validator.antiSpamPoW checks is satisfied. Work participates in
// SigningHash itself, so each candidate nonce requires recomputing the
// signing hash before re-checking the derived digest.
func mineAntiSpamWork(b *ledger.Block, chainID uint64) {
	for work := uint64(0); ; work++ {
		b.Work = work
		signingHash := b.SigningHash(chainID)
		var workBuf [8]byte
		putU64LE(workBuf[:], work)
		digest := crypto.Hash(append(append([]byte{}, signingHash[:]...), workBuf[:]...))
		if leadingZeroBits(digest[:]) >= params.AntiSpamMinZeroBits {
			return
		}
	}
}

func putU64LE(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
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
