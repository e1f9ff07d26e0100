// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_chat_requests_total",
		Help: "Chat requests by final interaction status.",
	}, []string{"status"})

	ChatIntents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_chat_intent_total",
		Help: "Classified chat intents.",
	}, []string{"intent"})

	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_provider_duration_seconds",
		Help:    "Latency of completion and speech provider calls.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"provider", "op"})

	RateLimitStoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_ratelimit_store_failures_total",
		Help: "Rate limit store errors handled by the failure policy.",
	})
)

// ObserveProvider records how long a provider call took.
func ObserveProvider(provider, op string, start time.Time) {
	ProviderDuration.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
}
