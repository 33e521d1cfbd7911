// Package metrics defines the Prometheus metric families for the collection
// pipeline and small helpers for recording them.
//
// Metric families are registered once at package init via promauto and
// exposed by the worker's metrics HTTP server. Code elsewhere records through
// the Record* helpers rather than touching collectors directly, so label
// conventions stay in one place.
package metrics
