package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("invoice:issued").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("invoice:issued").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("invoice:issued", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("invoice:issued", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("invoice:issued")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.AddItems("idempotency:cleanup", 3)
		_ = m.Track("x").End(nil)
	})
}

func TestAddItemsIgnoresZero(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddItems("idempotency:cleanup", 0)
	m.AddItems("idempotency:cleanup", 4)
	require.Equal(t, 4.0, testutil.ToFloat64(m.items.WithLabelValues("idempotency:cleanup")))
}
