// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics track the discovery and collection flow
var (
	// TasksTotal counts finished collection tasks by outcome
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_tasks_total",
			Help: "Total number of finished collection tasks",
		},
		[]string{"outcome"},
	)

	// TaskDuration measures end-to-end task duration in seconds
	TaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scout_task_duration_seconds",
			Help:    "Collection task duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// ListingsDiscoveredTotal counts listings discovered per city
	ListingsDiscoveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_listings_discovered_total",
			Help: "Total number of listings discovered",
		},
		[]string{"city"},
	)

	// ReviewsCollectedTotal counts normalized reviews by kind (review/response)
	ReviewsCollectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_reviews_collected_total",
			Help: "Total number of review records normalized",
		},
		[]string{"kind"},
	)

	// ReviewsDeduplicatedTotal counts re-seen review nodes dropped by the deduplicator
	ReviewsDeduplicatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scout_reviews_deduplicated_total",
			Help: "Total number of duplicate review nodes dropped",
		},
	)

	// NodesSkippedTotal counts review nodes skipped before or during extraction
	NodesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_nodes_skipped_total",
			Help: "Total number of review nodes skipped",
		},
		[]string{"reason"},
	)
)

// Extraction metrics track the per-field strategy chain
var (
	// FieldExtractedTotal counts successful extractions by field and tier
	FieldExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_field_extracted_total",
			Help: "Total number of field values extracted, by winning tier",
		},
		[]string{"field", "tier"},
	)

	// FieldAbsentTotal counts fields every tier failed to produce
	FieldAbsentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_field_absent_total",
			Help: "Total number of extractions where every tier reported absent",
		},
		[]string{"field"},
	)
)

// Content source metrics track navigation and the settle loop
var (
	// NavigationsTotal counts content source navigations by status
	NavigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_navigations_total",
			Help: "Total number of content source navigations",
		},
		[]string{"status"},
	)

	// SettleIterations measures settle loop iterations per view
	SettleIterations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scout_settle_iterations",
			Help:    "Settle loop iterations until a view stopped growing",
			Buckets: prometheus.LinearBuckets(1, 5, 12),
		},
		[]string{"view"},
	)

	// ResponseDeltaInvalidTotal counts review-to-response deltas rejected by
	// the validity window
	ResponseDeltaInvalidTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scout_response_delta_invalid_total",
			Help: "Total number of response-time deltas excluded as invalid",
		},
	)
)

// Enrichment and sink metrics
var (
	// EnrichmentTotal counts website description enrichment attempts by status
	EnrichmentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_enrichment_total",
			Help: "Total number of website enrichment attempts",
		},
		[]string{"status"},
	)

	// SinkWritesTotal counts task handoffs to output sinks by sink and status
	SinkWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_sink_writes_total",
			Help: "Total number of task results handed to output sinks",
		},
		[]string{"sink", "status"},
	)
)
