package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.LedgerOp("create", "ok")
	m.LedgerOp("create", "ok")
	m.LedgerOp("create", "INSUFFICIENT_FUNDS")
	m.SplitTransition("request", "COMPLETED")
	m.Reconciled("verify", false)
	m.Reconciled("recalculate", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ledgerOps.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerOps.WithLabelValues("create", "INSUFFICIENT_FUNDS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.splitTransitions.WithLabelValues("request", "COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileDrift))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileRuns.WithLabelValues("verify")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.LedgerOp("create", "ok")
	m.SplitTransition("participant", "APPROVED")
	m.Reconciled("verify", true)
}
