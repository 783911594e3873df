package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ExtractAttemptsTotal counts upstream extraction attempts by outcome.
	ExtractAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reportgen",
		Subsystem: "extract",
		Name:      "attempts_total",
		Help:      "Upstream extraction attempts, labeled by result (ok, rate_limited, error, empty, parse_error).",
	}, []string{"result"})

	// ExtractRetriesTotal counts backoff waits taken after rate-limit responses.
	ExtractRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "reportgen",
		Subsystem: "extract",
		Name:      "retries_total",
		Help:      "Retries scheduled after a rate-limit response.",
	})

	// ExtractDurationSeconds is the wall time of one Extract call including backoff.
	ExtractDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reportgen",
		Subsystem: "extract",
		Name:      "duration_seconds",
		Help:      "End-to-end extraction time including backoff waits.",
		Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"result"})

	// RenderTotal counts deck renders by outcome.
	RenderTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reportgen",
		Subsystem: "render",
		Name:      "decks_total",
		Help:      "Rendered presentation decks, labeled by result.",
	}, []string{"result"})

	// SessionTransitionsTotal counts state machine transitions.
	SessionTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reportgen",
		Subsystem: "session",
		Name:      "transitions_total",
		Help:      "Session state transitions, labeled by source and target state.",
	}, []string{"from", "to"})
)

// Register registers all collectors with the default registry. Safe to call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ExtractAttemptsTotal,
			ExtractRetriesTotal,
			ExtractDurationSeconds,
			RenderTotal,
			SessionTransitionsTotal,
		)
	})
}
