package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"notamcore/internal/notam/models"
)

// Metrics provides observability for NOTAM refresh and classification.
type Metrics struct {
	// Classifications by resulting priority and deciding rule
	Classifications *prometheus.CounterVec

	// Batch classification latency
	EvaluateLatency prometheus.Histogram

	// Identity outcomes per refresh: new, retained, removed
	CycleNotams *prometheus.CounterVec

	// Statuses carried across cycles
	StatusTransfers prometheus.Counter

	// Full refresh latency including persistence
	RefreshLatency prometheus.Histogram

	// Event publication failures
	PublishFailures prometheus.Counter
}

// New registers the module's metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the module's metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notam_classifications_total",
			Help: "Total NOTAM classifications by priority and rule",
		}, []string{"priority", "rule"}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "notam_evaluate_duration_seconds",
			Help:    "Duration of batch NOTAM classification",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		CycleNotams: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notam_cycle_notams_total",
			Help: "NOTAMs per refresh cycle by identity outcome",
		}, []string{"outcome"}), // outcome: "new", "retained", "removed"

		StatusTransfers: factory.NewCounter(prometheus.CounterOpts{
			Name: "notam_status_transfers_total",
			Help: "User statuses carried forward to a new cycle",
		}),

		RefreshLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "notam_refresh_duration_seconds",
			Help:    "Duration of a full refresh cycle including persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "notam_event_publish_failures_total",
			Help: "New-NOTAM event batches that failed to publish",
		}),
	}
}

// IncrementClassification records one classification outcome.
func (m *Metrics) IncrementClassification(p models.Priority, rule string) {
	if m != nil {
		m.Classifications.WithLabelValues(p.String(), rule).Inc()
	}
}

// ObserveEvaluateLatency records a batch classification duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// AddCycleOutcome counts n NOTAMs with the given identity outcome.
func (m *Metrics) AddCycleOutcome(outcome string, n int) {
	if m != nil && n > 0 {
		m.CycleNotams.WithLabelValues(outcome).Add(float64(n))
	}
}

func (m *Metrics) AddStatusTransfers(n int) {
	if m != nil && n > 0 {
		m.StatusTransfers.Add(float64(n))
	}
}

func (m *Metrics) ObserveRefreshLatency(d time.Duration) {
	if m != nil {
		m.RefreshLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementPublishFailures() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}
