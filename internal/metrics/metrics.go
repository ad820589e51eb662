// Package metrics exposes Prometheus instrumentation for the tier engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TransitionsTotal counts transition requests by outcome and change type
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tier_transitions_total",
			Help: "Total number of tier transition requests",
		},
		[]string{"outcome", "change_type"},
	)

	// TransitionDuration observes end-to-end transition latency
	TransitionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tier_transition_duration_seconds",
			Help:    "Tier transition request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// QualificationsTotal counts qualification evaluations by status
	QualificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tier_qualifications_total",
			Help: "Total number of qualification evaluations",
		},
		[]string{"status"},
	)

	// LockWaitDuration observes per-operator lock acquisition waits
	LockWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "operator_lock_wait_seconds",
			Help:    "Time spent waiting for the per-operator lock",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2, 5},
		},
	)
)

func init() {
	prometheus.MustRegister(TransitionsTotal)
	prometheus.MustRegister(TransitionDuration)
	prometheus.MustRegister(QualificationsTotal)
	prometheus.MustRegister(LockWaitDuration)
}

// ObserveTransition records one finished transition request
func ObserveTransition(outcome, changeType string, start time.Time) {
	TransitionsTotal.WithLabelValues(outcome, changeType).Inc()
	TransitionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
