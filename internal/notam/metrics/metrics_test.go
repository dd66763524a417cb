package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"notamcore/internal/notam/models"
)

func TestMetricsRecord(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementClassification(models.PriorityHigh, "runway_closure_at_airport")
	m.IncrementClassification(models.PriorityHigh, "runway_closure_at_airport")
	m.AddCycleOutcome("new", 3)
	m.AddCycleOutcome("removed", 0)
	m.AddStatusTransfers(2)
	m.IncrementPublishFailures()
	m.ObserveEvaluateLatency(time.Millisecond)
	m.ObserveRefreshLatency(time.Millisecond)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.Classifications.WithLabelValues("high", "runway_closure_at_airport")))
	assert.Equal(t, 3.0, promtest.ToFloat64(m.CycleNotams.WithLabelValues("new")))
	assert.Equal(t, 0.0, promtest.ToFloat64(m.CycleNotams.WithLabelValues("removed")))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.StatusTransfers))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.PublishFailures))
	assert.Equal(t, 1, promtest.CollectAndCount(m.EvaluateLatency))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementClassification(models.PriorityLow, "helicopter_notams")
		m.ObserveEvaluateLatency(time.Second)
		m.AddCycleOutcome("new", 1)
		m.AddStatusTransfers(1)
		m.ObserveRefreshLatency(time.Second)
		m.IncrementPublishFailures()
	})
}
