// Package metrics holds the prometheus collectors shared by the engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a set of collectors registered on one registerer.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	solveDuration  prometheus.Histogram
	solvePasses    prometheus.Histogram
	solveFaults    prometheus.Counter
	malformedNodes *prometheus.CounterVec
	unknownHelpers *prometheus.CounterVec
	helperPanics   *prometheus.CounterVec
	snapshots      prometheus.Counter
	triggers       *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		solveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worldsync_solve_duration_seconds",
			Help:    "Reachability solve duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		solvePasses: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worldsync_solve_passes",
			Help:    "Fixpoint passes per solve",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		solveFaults: f.NewCounter(prometheus.CounterOpts{
			Name: "worldsync_solve_faults_total",
			Help: "Solves that exceeded the pass bound or deadline",
		}),
		malformedNodes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worldsync_malformed_rule_nodes_total",
			Help: "Malformed rule nodes evaluated to a safe default, by node type",
		}, []string{"type"}),
		unknownHelpers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worldsync_unknown_helpers_total",
			Help: "Helper calls that resolved to nothing, by game",
		}, []string{"game"}),
		helperPanics: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worldsync_helper_panics_total",
			Help: "Helper panics recovered during evaluation, by helper",
		}, []string{"helper"}),
		snapshots: f.NewCounter(prometheus.CounterOpts{
			Name: "worldsync_snapshots_published_total",
			Help: "Snapshots published by the store",
		}),
		triggers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worldsync_triggers_total",
			Help: "Store triggers by kind and result",
		}, []string{"kind", "result"}),
	}
}

// ObserveSolve records a completed solve.
func (m *Metrics) ObserveSolve(d time.Duration, passes int) {
	if m == nil {
		return
	}
	m.solveDuration.Observe(d.Seconds())
	m.solvePasses.Observe(float64(passes))
}

func (m *Metrics) SolveFault() {
	if m == nil {
		return
	}
	m.solveFaults.Inc()
}

func (m *Metrics) MalformedNode(nodeType string) {
	if m == nil {
		return
	}
	m.malformedNodes.WithLabelValues(nodeType).Inc()
}

func (m *Metrics) UnknownHelper(game string) {
	if m == nil {
		return
	}
	m.unknownHelpers.WithLabelValues(game).Inc()
}

func (m *Metrics) HelperPanic(helper string) {
	if m == nil {
		return
	}
	m.helperPanics.WithLabelValues(helper).Inc()
}

func (m *Metrics) SnapshotPublished() {
	if m == nil {
		return
	}
	m.snapshots.Inc()
}

// Trigger records a store trigger; result is "ok" or "error".
func (m *Metrics) Trigger(kind, result string) {
	if m == nil {
		return
	}
	m.triggers.WithLabelValues(kind, result).Inc()
}
