package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var opDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "notam_store_operation_duration_ms",
	Help:    "Latency of cycle store operations in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
}, []string{"backend", "operation"})

func observe(backend, op string, start time.Time) {
	opDurationMs.WithLabelValues(backend, op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}

var cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notam_store_cache_requests_total",
	Help: "Cycle cache lookups by result",
}, []string{"result"})
