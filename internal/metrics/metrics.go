package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts handled API requests by method, route and
	// status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docport_requests_total",
		Help: "Handled API requests.",
	}, []string{"method", "route", "status"})

	// RequestDuration observes request latency by route.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docport_request_duration_seconds",
		Help:    "API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// FallbackScans counts full-collection scans taken because the store
	// planner could not run an indexed query. A steadily rising number
	// means a composite index is missing in the store.
	FallbackScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docport_query_fallback_scans_total",
		Help: "Queries served by the in-process fallback scan.",
	}, []string{"collection"})

	// DroppedFields counts update fields removed by the mutation guard's
	// allow-list intersection.
	DroppedFields = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docport_update_fields_dropped_total",
		Help: "Update fields dropped by the mutation guard.",
	}, []string{"category", "role"})
)
