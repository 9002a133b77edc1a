package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_events_received_total",
			Help: "Total number of event submissions received on the ingestion endpoint",
		},
	)

	EventsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_events_accepted_total",
			Help: "Total number of event submissions durably enqueued",
		},
	)

	EventsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_events_rejected_total",
			Help: "Total number of event submissions rejected before enqueue",
		},
		[]string{"reason"}, // "signature", "schema"
	)

	DuplicatesSuppressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_duplicates_suppressed_total",
			Help: "Total number of deliveries skipped as duplicates",
		},
		[]string{"guard"}, // "status", "lock"
	)

	EventsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_events_processed_total",
			Help: "Total number of events routed and marked PROCESSED",
		},
	)

	EventsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_events_failed_total",
			Help: "Total number of processing failures",
		},
		[]string{"kind"}, // "gate", "transient"
	)

	EventsRetried = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_events_retried_total",
			Help: "Total number of events rescheduled onto the retry queue",
		},
	)

	EventsDeadLettered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_events_dead_lettered_total",
			Help: "Total number of events whose retry budget was exhausted",
		},
	)

	RoutingCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_routing_calls_total",
			Help: "Total number of calls to the routing dependency",
		},
		[]string{"outcome"}, // "success", "error"
	)
)

// Register registers all collectors with the default registry.
func Register() {
	prometheus.MustRegister(
		EventsReceived,
		EventsAccepted,
		EventsRejected,
		DuplicatesSuppressed,
		EventsProcessed,
		EventsFailed,
		EventsRetried,
		EventsDeadLettered,
		RoutingCalls,
	)
}
