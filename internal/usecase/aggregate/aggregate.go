// Package aggregate turns collected reviews into per-listing and per-task
// statistics: sentiment counts, answered/unanswered split, mean response
// latency, and a weighted overall rating.
package aggregate

import (
	"log/slog"

	"review-scout/internal/domain/entity"
	"review-scout/internal/observability/metrics"
	"review-scout/internal/review"
)

// defaultMaxDeltaDays is the stock sanity ceiling on response latency.
// Deltas outside [0, ceiling] are measurement artifacts, not data: a
// negative delta means a misresolved date survived, and ten years of
// silence followed by a reply is a migration glitch on the source side.
const defaultMaxDeltaDays = 3650

// Aggregator computes statistics over normalized reviews.
type Aggregator struct {
	classifier   review.Classifier
	maxDeltaDays float64
	logger       *slog.Logger
}

// New builds an aggregator with the production classifier and delta window.
func New(logger *slog.Logger) *Aggregator {
	return NewWithConfig(review.NewClassifier(), defaultMaxDeltaDays, logger)
}

// NewWithConfig builds an aggregator with an explicit classifier and delta
// ceiling, for deployments that tune the thresholds.
func NewWithConfig(classifier review.Classifier, maxDeltaDays int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxDeltaDays <= 0 {
		maxDeltaDays = defaultMaxDeltaDays
	}
	return &Aggregator{
		classifier:   classifier,
		maxDeltaDays: float64(maxDeltaDays),
		logger:       logger,
	}
}

// ListingStats computes statistics for one listing's reviews. The displayed
// rating is trusted when present; otherwise a linear estimate from the
// positive/negative split is produced and flagged as estimated.
func (a *Aggregator) ListingStats(l entity.Listing) entity.Stats {
	s := entity.Stats{TotalReviews: len(l.Reviews)}

	var deltaSum float64
	var deltaCount int

	for _, r := range l.Reviews {
		switch a.classifier.Classify(r.Rating, r.Text) {
		case entity.SentimentPositive:
			s.Positive++
		case entity.SentimentNegative:
			s.Negative++
		case entity.SentimentNeutral:
			s.Neutral++
		}

		if r.HasResponse {
			s.Answered++
			if d, ok := a.responseDelta(r); ok {
				deltaSum += d
				deltaCount++
			}
		} else {
			s.Unanswered++
		}
	}

	if deltaCount > 0 {
		s.AvgResponseDays = deltaSum / float64(deltaCount)
	}

	if l.Rating > 0 {
		s.Rating = l.Rating
	} else if s.Positive+s.Negative > 0 {
		s.Rating = estimateRating(s.Positive, s.Negative)
		s.RatingEstimated = true
	}

	a.logger.Debug("listing aggregated",
		"listing", l.ID,
		"reviews", s.TotalReviews,
		"answered", s.Answered,
		"avg_response_days", s.AvgResponseDays,
	)
	return s
}

// Combine merges per-listing statistics into one task-level view. Counts add
// up; the rating and the response latency are weighted by each listing's
// review volume so a two-review listing cannot drag down a chain with
// thousands. The combined rating is flagged estimated when any weight behind
// it came from an estimate.
func (a *Aggregator) Combine(stats []entity.Stats) entity.Stats {
	var out entity.Stats
	var ratingSum, ratingWeight float64
	var deltaSum, deltaWeight float64

	for _, s := range stats {
		out.TotalReviews += s.TotalReviews
		out.Positive += s.Positive
		out.Negative += s.Negative
		out.Neutral += s.Neutral
		out.Answered += s.Answered
		out.Unanswered += s.Unanswered

		w := float64(s.TotalReviews)
		if s.Rating > 0 && w > 0 {
			ratingSum += s.Rating * w
			ratingWeight += w
			if s.RatingEstimated {
				out.RatingEstimated = true
			}
		}
		if s.AvgResponseDays > 0 && s.Answered > 0 {
			deltaSum += s.AvgResponseDays * float64(s.Answered)
			deltaWeight += float64(s.Answered)
		}
	}

	if ratingWeight > 0 {
		out.Rating = ratingSum / ratingWeight
	}
	if deltaWeight > 0 {
		out.AvgResponseDays = deltaSum / deltaWeight
	}
	return out
}

// responseDelta returns the review-to-response latency in days. Deltas are
// computable only when both dates resolved; out-of-window deltas are
// excluded and counted, never silently averaged in.
func (a *Aggregator) responseDelta(r entity.Review) (float64, bool) {
	if r.Response == nil || !r.Date.Resolved || !r.Response.Date.Resolved {
		return 0, false
	}
	days := r.Response.Date.Time.Sub(r.Date.Time).Hours() / 24
	if days < 0 || days > a.maxDeltaDays {
		metrics.RecordResponseDeltaInvalid()
		a.logger.Debug("response delta out of window, excluded",
			"review", r.ID,
			"days", days,
		)
		return 0, false
	}
	return days, true
}

// estimateRating maps the positive share onto the 1..5 scale linearly:
// all-negative is 1, all-positive is 5.
func estimateRating(positive, negative int) float64 {
	share := float64(positive) / float64(positive+negative)
	return 1 + 4*share
}
