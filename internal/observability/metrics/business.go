package metrics

import "time"

// RecordTask records a finished collection task.
// Outcome should be "completed", "partial" or "failed".
func RecordTask(outcome string, duration time.Duration) {
	TasksTotal.WithLabelValues(outcome).Inc()
	TaskDuration.Observe(duration.Seconds())
}

// RecordListingDiscovered records one listing discovered in a city.
func RecordListingDiscovered(city string) {
	ListingsDiscoveredTotal.WithLabelValues(city).Inc()
}

// RecordReviewCollected records one normalized record.
// Kind should be "review" or "response".
func RecordReviewCollected(kind string) {
	ReviewsCollectedTotal.WithLabelValues(kind).Inc()
}

// RecordReviewDeduplicated records a re-seen review node the deduplicator dropped.
func RecordReviewDeduplicated() {
	ReviewsDeduplicatedTotal.Inc()
}

// RecordNodeSkipped records a review node the normalizer skipped.
// Reason should describe the filter that rejected it (e.g. "no_signal", "no_fields").
func RecordNodeSkipped(reason string) {
	NodesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordFieldExtracted records a successful field extraction and the tier that won.
func RecordFieldExtracted(field, tier string) {
	FieldExtractedTotal.WithLabelValues(field, tier).Inc()
}

// RecordFieldAbsent records a field every extraction tier failed to produce.
func RecordFieldAbsent(field string) {
	FieldAbsentTotal.WithLabelValues(field).Inc()
}

// RecordNavigation records a content source navigation.
// Status should be "success" or "failure".
func RecordNavigation(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	NavigationsTotal.WithLabelValues(status).Inc()
}

// RecordSettle records how many iterations a settle loop ran for a view.
func RecordSettle(view string, iterations int) {
	SettleIterations.WithLabelValues(view).Observe(float64(iterations))
}

// RecordResponseDeltaInvalid records a review-to-response delta excluded by
// the validity window.
func RecordResponseDeltaInvalid() {
	ResponseDeltaInvalidTotal.Inc()
}

// RecordEnrichment records a website enrichment attempt.
// Status should be "success", "failure" or "skipped".
func RecordEnrichment(status string) {
	EnrichmentTotal.WithLabelValues(status).Inc()
}

// RecordSinkWrite records a task result handed to an output sink.
func RecordSinkWrite(sink string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	SinkWritesTotal.WithLabelValues(sink, status).Inc()
}
