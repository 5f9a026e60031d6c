package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AssignmentMetrics records assignment engine operations.
type AssignmentMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	retries  prometheus.Counter
}

// NewAssignmentMetrics registers the engine metrics on the provided registerer.
func NewAssignmentMetrics(reg prometheus.Registerer) *AssignmentMetrics {
	if reg == nil {
		return &AssignmentMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assignment_operation_duration_seconds",
		Help:    "Duration of assignment engine operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_operations_total",
		Help: "Assignment engine operations by outcome.",
	}, []string{"operation", "outcome"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_conflict_retries_total",
		Help: "Transactions replayed after losing an optimistic-concurrency race.",
	})
	reg.MustRegister(duration, outcomes, retries)
	return &AssignmentMetrics{
		duration: duration,
		outcomes: outcomes,
		retries:  retries,
	}
}

// ObserveOperation records one finished operation.
func (a *AssignmentMetrics) ObserveOperation(operation string, outcome string, duration time.Duration) {
	if a == nil || a.duration == nil || a.outcomes == nil {
		return
	}
	operation = normalizeLabel(operation)
	a.duration.WithLabelValues(operation).Observe(duration.Seconds())
	a.outcomes.WithLabelValues(operation, normalizeLabel(outcome)).Inc()
}

// IncConflictRetry counts one internal replay.
func (a *AssignmentMetrics) IncConflictRetry() {
	if a == nil || a.retries == nil {
		return
	}
	a.retries.Inc()
}
