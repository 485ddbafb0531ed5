// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package validator implements the block validation pipeline (C3):
// structural, chain-ID, previous-linkage, signature, anti-spam PoW, and
// type-specific economic/structural checks, applied in the fixed order
// spec §4.3 mandates. A rejection is always a typed *lerrors.Rejection so
// the coordinator can log and drop without inspecting error strings.
package validator

import (
	"math/bits"
	"strconv"
	"strings"
	"time"

	"github.com/los-network/los-core/crypto"
	"github.com/los-network/los-core/ledger"
	"github.com/los-network/los-core/lerrors"
	"github.com/los-network/los-core/params"
)

// LedgerView is the read-only subset of *ledger.Ledger the validator
// needs. Declaring it as an interface here (rather than depending on the
// concrete type) keeps validator decoupled from ledger's mutation API and
// makes it trivial to validate against a pending/speculative snapshot.
type LedgerView interface {
	GetAccount(address string) ledger.AccountState
	GetFrontier(address string) string
	SendLookup(sendHash string) (recipient string, amount ledger.Amount, claimed bool, found bool)
	RemainingMintPool() ledger.Amount
	RemainingRewardPool() ledger.Amount
}

// MiningView is the subset of the PoW mint engine (C5) the validator
// needs to check Mint(PoW) blocks, expressed as a narrow interface so
// this package never imports package mint directly.
type MiningView interface {
	CurrentEpoch() uint64
	DifficultyBits() uint64
	HasAdmitted(address string, epoch uint64) bool
	RemainingEpochReward(epoch uint64) (ledger.Amount, int)
}

// Clock abstracts time.Now so tests can inject deterministic timestamps
// (the ambient-stack rule against wall-clock assertions in tests).
type Clock func() time.Time

// Validator applies the ordered rule pipeline against a ledger snapshot.
type Validator struct {
	Ledger  LedgerView
	Mining  MiningView
	ChainID uint64
	Now     Clock
}

func New(l LedgerView, m MiningView, chainID uint64, now Clock) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{Ledger: l, Mining: m, ChainID: chainID, Now: now}
}

// Validate runs every check from §4.3 in order and returns the first
// failure encountered, or nil if the block may proceed to consensus.
func (v *Validator) Validate(b *ledger.Block) error {
	if err := v.structural(b); err != nil {
		return err
	}
	if err := v.chainID(b); err != nil {
		return err
	}
	if err := v.previousLinkage(b); err != nil {
		return err
	}
	if err := v.signature(b); err != nil {
		return err
	}
	if err := v.antiSpamPoW(b); err != nil {
		return err
	}
	return v.typeSpecific(b)
}

func (v *Validator) structural(b *ledger.Block) error {
	if b.Account == "" {
		return lerrors.New(lerrors.KindFormat, "missing account")
	}
	if len(b.PublicKey) == 0 || len(b.Signature) == 0 {
		return lerrors.New(lerrors.KindFormat, "missing public_key or signature")
	}
	if b.Amount.Cmp(ledger.MaxAmount128()) > 0 {
		return lerrors.New(lerrors.KindFormat, "amount exceeds 128-bit ceiling")
	}
	now := v.Now().Unix()
	var ts int64 = int64(b.Timestamp)
	drift := now - ts
	if drift < 0 {
		drift = -drift
	}
	if drift > params.MaxTimestampDriftSec {
		return lerrors.New(lerrors.KindTimestamp, "timestamp drift %ds exceeds %ds", drift, params.MaxTimestampDriftSec)
	}
	return nil
}

// chainID rejects a block signed for a different chain before any of the
// more expensive checks run. A block binds to exactly one chain (§6:
// "mismatch between runtime chain_id and block chain_id is a fatal
// rejection") — this is deliberately a separate, cheap check ahead of
// signature() rather than something caught incidentally as a signature
// failure, so the two distinct failure modes don't share one error kind.
func (v *Validator) chainID(b *ledger.Block) error {
	if b.ChainID != v.ChainID {
		return lerrors.New(lerrors.KindChainID, "block chain_id %d does not match node chain %d", b.ChainID, v.ChainID)
	}
	return nil
}

func (v *Validator) previousLinkage(b *ledger.Block) error {
	if b.BlockType == ledger.Mint {
		return nil // Mint is not chained off the recipient's previous frontier
	}
	frontier := v.Ledger.GetFrontier(b.Account)
	if b.Previous != frontier {
		return lerrors.New(lerrors.KindBadPrevious, "account %s: expected previous %s, got %s", b.Account, frontier, b.Previous)
	}
	return nil
}

func (v *Validator) signature(b *ledger.Block) error {
	derivedAddr, err := crypto.AddressFromPubkey(b.PublicKey)
	if err != nil || derivedAddr != b.Account {
		return lerrors.New(lerrors.KindAddress, "public_key does not derive account %s", b.Account)
	}
	hash := b.SigningHash(v.ChainID)
	if !crypto.Verify(b.PublicKey, hash[:], b.Signature) {
		return lerrors.New(lerrors.KindSignature, "signature verification failed")
	}
	return nil
}

func (v *Validator) antiSpamPoW(b *ledger.Block) error {
	signingHash := b.SigningHash(v.ChainID)
	var work [8]byte
	putU64LE(work[:], b.Work)
	digest := crypto.Hash(append(append([]byte{}, signingHash[:]...), work[:]...))
	if leadingZeroBits(digest[:]) < params.AntiSpamMinZeroBits {
		return lerrors.New(lerrors.KindInsufficientPoW, "anti-spam PoW below %d bits", params.AntiSpamMinZeroBits)
	}
	return nil
}

func (v *Validator) typeSpecific(b *ledger.Block) error {
	switch b.BlockType {
	case ledger.Send:
		return v.validateSend(b)
	case ledger.Receive:
		return v.validateReceive(b)
	case ledger.Mint:
		return v.validateMint(b)
	case ledger.Burn:
		return v.validateBurn(b)
	case ledger.Change:
		return v.validateChange(b)
	case ledger.Slash:
		// Slash blocks originate only from consensus (§4.8); the
		// coordinator constructs them directly from a confirmed
		// SlashProposal and never routes an externally submitted Slash
		// block through the normal validation pipeline's type-specific
		// stage as user input.
		return nil
	default:
		return lerrors.New(lerrors.KindFormat, "unknown block type")
	}
}

func (v *Validator) validateSend(b *ledger.Block) error {
	if b.Amount.IsZero() {
		return lerrors.New(lerrors.KindFormat, "send amount must be > 0")
	}
	if _, err := crypto.ParseAddress(b.Link); err != nil {
		return lerrors.New(lerrors.KindAddress, "send link is not a valid address: %v", err)
	}
	if b.Link == b.Account {
		return lerrors.New(lerrors.KindAddress, "send link must differ from account")
	}
	acc := v.Ledger.GetAccount(b.Account)
	total, err := b.Amount.Add(b.Fee)
	if err != nil {
		return lerrors.New(lerrors.KindOverflow, "amount+fee overflow")
	}
	if acc.BalanceCil.Cmp(total) < 0 {
		return lerrors.New(lerrors.KindInsufficientBalance, "balance %s < amount+fee %s", acc.BalanceCil, total)
	}
	return nil
}

func (v *Validator) validateReceive(b *ledger.Block) error {
	recipient, amount, claimed, found := v.Ledger.SendLookup(b.Link)
	if !found {
		return lerrors.New(lerrors.KindNoMatchingSend, "no Send with hash %s", b.Link)
	}
	if claimed {
		return lerrors.New(lerrors.KindDuplicateRecv, "send %s already received", b.Link)
	}
	if recipient != b.Account {
		return lerrors.New(lerrors.KindNoMatchingSend, "send %s recipient mismatch", b.Link)
	}
	if amount.Cmp(b.Amount) != 0 {
		return lerrors.New(lerrors.KindNoMatchingSend, "send %s amount mismatch", b.Link)
	}
	return nil
}

func (v *Validator) validateMint(b *ledger.Block) error {
	switch {
	case strings.HasPrefix(b.Link, "MINE:"):
		return v.validatePoWMint(b)
	case strings.HasPrefix(b.Link, "REWARD:"):
		// Issued only by consensus at epoch boundaries (§4.7); reaching
		// here means the coordinator is constructing it directly, not
		// validating untrusted input, so no further check applies.
		return nil
	case strings.HasPrefix(b.Link, "BURN:"):
		// Issued only after burn/oracle finalization (§4.6), same as above.
		return nil
	case b.Link == "GENESIS":
		return nil
	default:
		return lerrors.New(lerrors.KindFormat, "unrecognized mint link tag %q", b.Link)
	}
}

func (v *Validator) validatePoWMint(b *ledger.Block) error {
	if params.IsBootstrapValidator(b.Account) {
		return lerrors.New(lerrors.KindBootstrapGenesisMining, "bootstrap validator %s cannot mine", b.Account)
	}
	epoch, nonce, err := parseMineLink(b.Link)
	if err != nil {
		return lerrors.New(lerrors.KindFormat, "malformed mine link: %v", err)
	}
	if epoch != v.Mining.CurrentEpoch() {
		return lerrors.New(lerrors.KindEpochMismatch, "mint epoch %d != current epoch %d", epoch, v.Mining.CurrentEpoch())
	}
	if v.Mining.HasAdmitted(b.Account, epoch) {
		return lerrors.New(lerrors.KindDedupViolation, "address %s already mined epoch %d", b.Account, epoch)
	}
	digest := crypto.MiningFingerprint(v.ChainID, b.Account, epoch, nonce)
	if leadingZeroBits(digest[:]) < int(v.Mining.DifficultyBits()) {
		return lerrors.New(lerrors.KindDifficultyMiss, "mining hash below difficulty %d", v.Mining.DifficultyBits())
	}
	remaining, _ := v.Mining.RemainingEpochReward(epoch)
	if b.Amount.Cmp(remaining) > 0 {
		return lerrors.New(lerrors.KindInsufficientBalance, "mint amount exceeds remaining epoch reward")
	}
	return nil
}

func (v *Validator) validateBurn(b *ledger.Block) error {
	acc := v.Ledger.GetAccount(b.Account)
	if acc.BalanceCil.Cmp(b.Amount) < 0 {
		return lerrors.New(lerrors.KindInsufficientBalance, "burn exceeds balance")
	}
	if b.Amount.Cmp(ledger.AmountFromUint256(params.MaxBurnPerBlockCil())) > 0 {
		return lerrors.New(lerrors.KindOverBurnCap, "burn exceeds per-block ceiling")
	}
	return nil
}

// validatorPromotionLink is the Link tag a Change block carries when it
// declares the account a validator candidate (as opposed to a plain
// representative re-delegation, which leaves Link empty).
const validatorPromotionLink = "VALIDATOR"

func (v *Validator) validateChange(b *ledger.Block) error {
	if b.Link != validatorPromotionLink {
		return nil
	}
	acc := v.Ledger.GetAccount(b.Account)
	minStake := ledger.AmountFromUint256(params.MinValidatorStakeCil)
	if acc.BalanceCil.Cmp(minStake) < 0 {
		return lerrors.New(lerrors.KindInsufficientBalance, "insufficient stake to become validator")
	}
	return nil
}

// parseMineLink parses the "MINE:<epoch>:<nonce>" link tag a PoW Mint
// block carries (mint.Engine writes this same format when it finds a
// qualifying nonce).
func parseMineLink(link string) (epoch uint64, nonce uint64, err error) {
	parts := strings.Split(link, ":")
	if len(parts) != 3 || parts[0] != "MINE" {
		return 0, 0, lerrors.New(lerrors.KindFormat, "expected MINE:<epoch>:<nonce>")
	}
	epoch, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	nonce, err = strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return epoch, nonce, nil
}

func putU64LE(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}

func leadingZeroBits(data []byte) int {
	count := 0
	for _, by := range data {
		if by == 0 {
			count += 8
			continue
		}
		count += bits.LeadingZeros8(by)
		break
	}
	return count
}
