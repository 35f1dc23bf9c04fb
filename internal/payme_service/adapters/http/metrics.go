package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payme_merchant",
			Name:      "webhook_requests_total",
			Help:      "Total webhook calls by protocol method and outcome.",
		},
		// Unrecognized methods are collapsed into "unknown" to keep
		// label cardinality bounded.
		[]string{"method", "outcome"},
	)

	webhookDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "payme_merchant",
			Name:      "webhook_request_duration_seconds",
			Help:      "Duration of webhook call processing.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
