// Package metrics defines the Prometheus collectors shared across the
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes request latency per route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aiwriter_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// ArticlesGenerated counts article generations by site and outcome.
	ArticlesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiwriter_articles_generated_total",
			Help: "Article generation attempts by site and outcome.",
		},
		[]string{"site", "outcome"},
	)

	// ImageSearches counts provider search attempts by provider and outcome.
	ImageSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiwriter_image_searches_total",
			Help: "Image provider searches by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	// ImageFallbacks counts how often the resolver had to move past the
	// first attempt in its fallback chain.
	ImageFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aiwriter_image_fallbacks_total",
			Help: "Times the image fallback chain advanced past the first attempt.",
		},
	)

	// BatchesRun counts orchestrator runs by terminal status.
	BatchesRun = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiwriter_batches_run_total",
			Help: "Batch runs by terminal status.",
		},
		[]string{"status"},
	)
)
