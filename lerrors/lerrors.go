// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package lerrors implements the rejection taxonomy every block/consensus
// failure reduces to. Each Kind is a sentinel comparable with errors.Is;
// a Rejection additionally carries a human-readable message for logs and,
// where relevant, the field that triggered it.
package lerrors

import "fmt"

// Kind identifies the taxonomy bucket a rejection belongs to, mirroring
// the families defined by the block validation and consensus pipelines.
type Kind string

const (
	// Invalid* — block-local rejections.
	KindFormat    Kind = "Invalid.Format"
	KindSignature Kind = "Invalid.Signature"
	KindAddress   Kind = "Invalid.Address"
	KindChainID   Kind = "Invalid.ChainId"
	KindTimestamp Kind = "Invalid.Timestamp"

	// LedgerInconsistent* — depends on unseen or conflicting state.
	KindBadPrevious     Kind = "LedgerInconsistent.BadPrevious"
	KindDuplicateRecv   Kind = "LedgerInconsistent.DuplicateReceive"
	KindNoMatchingSend  Kind = "LedgerInconsistent.NoMatchingSend"

	// EconomicRejection* — user error, final drop.
	KindInsufficientBalance Kind = "EconomicRejection.InsufficientBalance"
	KindOverBurnCap         Kind = "EconomicRejection.OverBurnCap"
	KindOverflow            Kind = "EconomicRejection.Overflow"

	// ConsensusRejection* — dropped silently.
	KindNotEligibleVoter Kind = "ConsensusRejection.NotEligibleVoter"
	KindWrongView        Kind = "ConsensusRejection.WrongView"
	KindStaleVote        Kind = "ConsensusRejection.StaleVote"

	// PolicyRejection* — final drop.
	KindBootstrapGenesisMining Kind = "PolicyRejection.BootstrapGenesisMining"
	KindDedupViolation         Kind = "PolicyRejection.DedupViolation"
	KindEpochMismatch          Kind = "PolicyRejection.EpochMismatch"
	KindDifficultyMiss         Kind = "PolicyRejection.DifficultyMiss"

	// TransportTransient — retry with backoff.
	KindTransportTransient Kind = "TransportTransient"

	// InsufficientPoW is the anti-spam PoW check (§4.3 step 5); it is a
	// structural/format rejection rather than the mining-policy family.
	KindInsufficientPoW Kind = "Invalid.InsufficientPoW"

	// ReplayWindow rejects blocks whose timestamp falls outside the
	// accepted drift window after other checks already passed.
	KindReplayWindow Kind = "Invalid.ReplayWindow"
)

// Rejection is the error type returned by every validation/consensus check
// in the core. The coordinator converts it into a structured log event
// per §7; it never panics or partially mutates the ledger on a Rejection.
type Rejection struct {
	Kind Kind
	Msg  string
}

func (r *Rejection) Error() string {
	if r.Msg == "" {
		return string(r.Kind)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Msg)
}

// Is implements errors.Is support so callers can write
// errors.Is(err, lerrors.New(lerrors.KindBadPrevious, "")).
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	if !ok {
		return false
	}
	return r.Kind == t.Kind
}

// New constructs a Rejection of the given kind.
func New(kind Kind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Sentinel returns a zero-message Rejection usable purely as an errors.Is
// comparison target.
func Sentinel(kind Kind) *Rejection { return &Rejection{Kind: kind} }

// RPCError is the compact user-visible failure object described in §7,
// returned across the out-of-scope collaborator RPC surface.
type RPCError struct {
	Status string `json:"status"`
	Code   int    `json:"code"`
	Kind   string `json:"kind"`
	Msg    string `json:"msg"`
}

// ToRPCError maps an internal Rejection to the wire-visible error object.
func ToRPCError(err error) RPCError {
	if r, ok := err.(*Rejection); ok {
		return RPCError{Status: "error", Code: codeForKind(r.Kind), Kind: string(r.Kind), Msg: r.Error()}
	}
	return RPCError{Status: "error", Code: 1, Kind: "Unknown", Msg: err.Error()}
}

func codeForKind(k Kind) int {
	switch k {
	case KindFormat, KindSignature, KindAddress, KindChainID, KindTimestamp, KindInsufficientPoW, KindReplayWindow:
		return 400
	case KindBadPrevious, KindDuplicateRecv, KindNoMatchingSend:
		return 409
	case KindInsufficientBalance, KindOverBurnCap, KindOverflow:
		return 422
	case KindNotEligibleVoter, KindWrongView, KindStaleVote:
		return 403
	case KindBootstrapGenesisMining, KindDedupViolation, KindEpochMismatch, KindDifficultyMiss:
		return 409
	case KindTransportTransient:
		return 503
	default:
		return 500
	}
}
