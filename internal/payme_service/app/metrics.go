package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payme_merchant",
			Name:      "transaction_transitions_total",
			Help:      "Total transaction state transitions applied.",
		},
		[]string{"transition"}, // "performed", "cancelled"
	)

	hookEventsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payme_merchant",
			Name:      "hook_events_published_total",
			Help:      "Total hook events published to NATS.",
		},
		[]string{"subject", "status"}, // status: "success", "error"
	)
)
