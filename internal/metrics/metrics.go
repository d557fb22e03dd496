// Package metrics exposes Prometheus instruments for comment operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comments_operations_total",
		Help: "Comment service operations by name and outcome",
	}, []string{"op", "outcome"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "comments_operation_duration_seconds",
		Help:    "Duration of comment service operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"op"})

	threadSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "comments_thread_size",
		Help:    "Number of comments loaded per recipe listing",
		Buckets: prometheus.ExponentialBuckets(1, 4, 6),
	})
)

// Observe records one operation under the given outcome label
func Observe(op, outcome string, started time.Time) {
	operationsTotal.WithLabelValues(op, outcome).Inc()
	operationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ObserveThreadSize records how many comments a listing loaded
func ObserveThreadSize(n int) {
	threadSize.Observe(float64(n))
}
