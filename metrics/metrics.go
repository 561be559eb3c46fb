// Package metrics holds the prometheus collectors of the API. They register with
// the default registry, which /metrics serves through promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// aggregator outcomes
const (
	OutcomeUpdated  = "updated"
	OutcomeSkipped  = "skipped"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid_id"
	OutcomeError    = "error"
)

var (
	// ChoicesCreated counts stored choices by location type
	ChoicesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "choice_app_choices_created_total",
			Help: "Total number of choices stored",
		},
		[]string{"location_type"},
	)

	// RatingUpdates counts aggregator runs by outcome
	RatingUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "choice_app_rating_updates_total",
			Help: "Rating aggregation runs by outcome",
		},
		[]string{"outcome"},
	)

	// ResolverHits counts matches per storage location
	ResolverHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "choice_app_resolver_hits_total",
			Help: "Entity resolver matches by kind and collection",
		},
		[]string{"kind", "collection"},
	)

	// ResolverMisses counts lookups that exhausted every cascade
	ResolverMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "choice_app_resolver_misses_total",
			Help: "Entity resolver lookups without a match",
		},
	)

	// BackgroundJobs counts finished background jobs by name and result
	BackgroundJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "choice_app_background_jobs_total",
			Help: "Background jobs by name and result",
		},
		[]string{"job", "result"},
	)

	// HTTPDuration tracks request latency
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "choice_app_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordRatingUpdate counts one aggregator outcome
func RecordRatingUpdate(outcome string) {
	RatingUpdates.WithLabelValues(outcome).Inc()
}

// RecordResolverHit counts a match in the given collection
func RecordResolverHit(kind string, collection string) {
	ResolverHits.WithLabelValues(kind, collection).Inc()
}

// RecordJob counts a finished background job
func RecordJob(job string, result string) {
	BackgroundJobs.WithLabelValues(job, result).Inc()
}

// ObserveRequest records the latency of one request
func ObserveRequest(method string, route string, status string, d time.Duration) {
	HTTPDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
