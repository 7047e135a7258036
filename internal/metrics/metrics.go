// Package metrics defines Prometheus metrics for supplier-bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "supplier_bridge"

// Supplier API call metrics.
var (
	APICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_calls_total",
		Help:      "Total supplier API calls by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	APICallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_call_duration_seconds",
		Help:      "Duration of supplier API calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	RateLimitWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rate_limit_wait_seconds",
		Help:      "Time spent waiting on the outbound call gate.",
		Buckets:   []float64{.005, .01, .05, .1, .2, .5, 1, 2, 5},
	})

	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retries_total",
		Help:      "Total retried supplier calls by cause (rate_limit, auth, network).",
	}, []string{"cause"})
)

// Token lifecycle metrics.
var (
	TokenRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total access token refreshes.",
	})

	TokenReauthsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_reauths_total",
		Help:      "Total full re-authentications after a failed refresh.",
	})
)

// Normalization metrics.
var (
	ListFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "list_fallbacks_total",
		Help:      "Total times the v2 product listing failed validation and the legacy endpoint was used instead.",
	})

	SchemaFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "schema_failures_total",
		Help:      "Total supplier responses that matched no known shape.",
	}, []string{"endpoint"})
)
