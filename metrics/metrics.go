// Copyright 2026 The los-core Authors
// This file is part of the los-core library.

// Package metrics exposes the node's Prometheus counters/gauges: blocks
// appended per type, consensus rounds and view changes, slashes applied,
// and the remaining mint/reward pools. cmd/losd wires Handler() behind an
// HTTP listener the way a prysm/geth operator dashboard scrapes it.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/los-network/los-core/ledger"
)

// Recorder is the set of collectors the node exposes. cmd/losd creates one
// and sets the pool gauges once at startup; node.Coordinator does not
// update any of the collectors.
// Exactly one Recorder should be registered per process; NewRecorder
// registers against prometheus.DefaultRegisterer.
type Recorder struct {
	BlocksAppended  *prometheus.CounterVec
	RoundsStarted   prometheus.Counter
	RoundsFinalized prometheus.Counter
	ViewChanges     prometheus.Counter
	Slashes         *prometheus.CounterVec
	MintPoolCil     prometheus.Gauge
	RewardPoolCil   prometheus.Gauge
}

// NewRecorder builds and registers every collector. Calling it twice in
// the same process panics (prometheus.MustRegister's own behavior),
// matching a deliberate one-Recorder-per-process contract.
func NewRecorder() *Recorder {
	return &Recorder{
		BlocksAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "los",
			Name:      "blocks_appended_total",
			Help:      "Blocks appended to the ledger, by block type.",
		}, []string{"block_type"}),
		RoundsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "los",
			Name:      "consensus_rounds_started_total",
			Help:      "Consensus rounds started.",
		}),
		RoundsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "los",
			Name:      "consensus_rounds_finalized_total",
			Help:      "Consensus rounds that reached a Commit quorum.",
		}),
		ViewChanges: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "los",
			Name:      "consensus_view_changes_total",
			Help:      "View changes triggered by a leader timeout.",
		}),
		Slashes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "los",
			Name:      "slashes_applied_total",
			Help:      "Slashes finalized, by offence.",
		}, []string{"offence"}),
		MintPoolCil: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "los",
			Name:      "mint_pool_remaining_cil",
			Help:      "Remaining PoW mint pool balance, in cil.",
		}),
		RewardPoolCil: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "los",
			Name:      "reward_pool_remaining_cil",
			Help:      "Remaining validator reward pool balance, in cil.",
		}),
	}
}

// ObserveAppend records a finalized block of the given type.
func (r *Recorder) ObserveAppend(bt ledger.BlockType) {
	r.BlocksAppended.WithLabelValues(bt.String()).Inc()
}

// ObserveSlash records a finalized slash for the given offence label.
func (r *Recorder) ObserveSlash(offence string) {
	r.Slashes.WithLabelValues(offence).Inc()
}

// ObservePools updates the two pool gauges from a fresh ledger read. A
// gauge is float64-valued, so this goes through the same decimal-string
// parse the ledger uses for display; a 256-bit amount that exceeds
// float64 precision only loses precision in the exposed metric, never in
// the ledger's own accounting.
func (r *Recorder) ObservePools(mintPool, rewardPool ledger.Amount) {
	r.MintPoolCil.Set(amountToFloat(mintPool))
	r.RewardPoolCil.Set(amountToFloat(rewardPool))
}

func amountToFloat(a ledger.Amount) float64 {
	f, err := strconv.ParseFloat(a.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

// Handler serves the registered collectors in the Prometheus text
// exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
