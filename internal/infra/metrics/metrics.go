// Package metrics exposes Prometheus instrumentation for the decision and
// pipeline layers.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	decisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_decision_total",
			Help: "Engine selections by chosen engine and policy path.",
		},
		[]string{"engine", "policy"}, // policy: 'local-first', 'scored', 'fallback'
	)

	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_dispatch_total",
			Help: "Engine invocation attempts by engine and outcome.",
		},
		[]string{"engine", "outcome"}, // outcome: 'ok', 'error'
	)

	retryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_item_retry_total",
			Help: "Per-item retries by stage.",
		},
		[]string{"stage"},
	)

	itemTerminalTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_item_terminal_total",
			Help: "Items reaching a terminal state, by state and error kind.",
		},
		[]string{"state", "kind"},
	)

	batchTerminalTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_batch_terminal_total",
			Help: "Batches reaching a terminal status.",
		},
		[]string{"status"},
	)

	stageSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_seconds",
			Help:    "Wall-clock seconds spent per pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(
		decisionTotal,
		dispatchTotal,
		retryTotal,
		itemTerminalTotal,
		batchTerminalTotal,
		stageSeconds,
	)
}

func IncDecision(engine, policy string) {
	decisionTotal.WithLabelValues(norm(engine), norm(policy)).Inc()
}

func IncDispatch(engine, outcome string) {
	dispatchTotal.WithLabelValues(norm(engine), norm(outcome)).Inc()
}

func IncRetry(stage string) {
	retryTotal.WithLabelValues(norm(stage)).Inc()
}

func IncItemTerminal(state, kind string) {
	itemTerminalTotal.WithLabelValues(norm(state), norm(kind)).Inc()
}

func IncBatchTerminal(status string) {
	batchTerminalTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveStage(stage string, seconds float64) {
	stageSeconds.WithLabelValues(norm(stage)).Observe(seconds)
}

func norm(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return "unknown"
	}
	return v
}
