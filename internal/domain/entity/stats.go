package entity

// Stats aggregates review-level data for one listing or for a whole task.
//
// Invariant: Positive+Negative+Neutral never exceeds TotalReviews. Reviews
// with no resolvable polarity stay uncounted rather than being mis-bucketed.
type Stats struct {
	TotalReviews int
	Positive     int
	Negative     int
	Neutral      int

	Answered   int
	Unanswered int

	// AvgResponseDays is the mean review-to-response latency over valid
	// deltas, in days. Zero when no valid delta exists.
	AvgResponseDays float64

	// Rating is the review-count-weighted mean rating.
	Rating float64

	// RatingEstimated marks a Rating approximated from the positive/negative
	// split because no displayed rating survived collection. An estimate is
	// never presented as the displayed rating.
	RatingEstimated bool
}

// Classified reports how many reviews carried a resolvable polarity.
func (s Stats) Classified() int {
	return s.Positive + s.Negative + s.Neutral
}
