// Package metrics exposes Prometheus instrumentation for generation gating.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntitlementDecisions counts resolver outcomes by code and grant.
	EntitlementDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealplango",
		Subsystem: "entitlement",
		Name:      "decisions_total",
		Help:      "Entitlement decisions by outcome code and grant.",
	}, []string{"outcome", "grant"})

	// GenerationDuration tracks end-to-end plan generation latency.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mealplango",
		Subsystem: "generation",
		Name:      "duration_seconds",
		Help:      "Language model call plus rendering duration in seconds.",
		Buckets:   []float64{1, 5, 10, 20, 40, 60, 120, 300},
	}, []string{"result"})

	// UsageIncrementFailures counts usage counter writes that failed after delivery.
	UsageIncrementFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mealplango",
		Subsystem: "usage",
		Name:      "increment_failures_total",
		Help:      "Usage counter increments that failed after the document was delivered.",
	})

	// WebhookRequestsTotal counts payment webhook requests by event type and status.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealplango",
		Subsystem: "webhook",
		Name:      "requests_total",
		Help:      "Payment webhook requests by event type and HTTP status.",
	}, []string{"event_type", "status"})
)
