// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the fintrack collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ledgerOps        *prometheus.CounterVec
	splitTransitions *prometheus.CounterVec
	reconcileDrift   prometheus.Counter
	reconcileRuns    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Name:      "ledger_operations_total",
			Help:      "Ledger operations by operation and outcome (ok or the error kind).",
		}, []string{"operation", "outcome"}),
		splitTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Name:      "split_transitions_total",
			Help:      "Split request and participant state transitions.",
		}, []string{"subject", "to"}),
		reconcileDrift: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fintrack",
			Name:      "reconcile_drift_total",
			Help:      "Reconciliations that found the stored balance diverging from history.",
		}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Name:      "reconcile_runs_total",
			Help:      "Reconciler invocations by mode (recalculate or verify).",
		}, []string{"mode"}),
	}
	reg.MustRegister(m.ledgerOps, m.splitTransitions, m.reconcileDrift, m.reconcileRuns)
	return m
}

// LedgerOp records the outcome of a ledger operation.
func (m *Metrics) LedgerOp(operation, outcome string) {
	if m == nil {
		return
	}
	m.ledgerOps.WithLabelValues(operation, outcome).Inc()
}

// SplitTransition records a split ("request") or participant ("participant") state change.
func (m *Metrics) SplitTransition(subject, to string) {
	if m == nil {
		return
	}
	m.splitTransitions.WithLabelValues(subject, to).Inc()
}

// Reconciled records a reconciler run and whether it found drift.
func (m *Metrics) Reconciled(mode string, drift bool) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(mode).Inc()
	if drift {
		m.reconcileDrift.Inc()
	}
}
