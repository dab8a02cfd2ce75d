// Package observability registers the process-wide Prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swiftcab", Name: "matches_total",
		Help: "Driver matches produced by the matching engine",
	})
	MatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "swiftcab", Name: "match_latency_seconds",
		Help:    "Matching engine latency",
		Buckets: prometheus.DefBuckets,
	})
	NoCandidatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swiftcab", Name: "match_no_candidates_total",
		Help: "Matching attempts that exhausted the radius ladder",
	})
	RoutingFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swiftcab", Name: "routing_fallbacks_total",
		Help: "Route lookups served by the Haversine fallback estimate",
	})
	AssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swiftcab", Name: "assignments_total",
		Help: "Booking assignment outcomes",
	}, []string{"outcome"})
	ReassignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swiftcab", Name: "reassignments_total",
		Help: "Rejection-triggered reassignment outcomes",
	}, []string{"outcome"})
	LocationUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swiftcab", Name: "location_updates_total",
		Help: "Driver location reports by result (applied, skipped, invalid)",
	}, []string{"result"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "swiftcab", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "swiftcab",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
