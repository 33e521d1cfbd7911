package entity

import "time"

// Review is one customer review attached to a listing. A Review never doubles
// as the organization's own reply: those are routed into Response.
type Review struct {
	// ID is the native review identifier when the content source exposes one,
	// otherwise a content-hash synthetic id derived from (author, raw date,
	// body prefix). Synthetic ids are deterministic across re-collection.
	ID string

	Author string

	// Rating is the star rating in 0..5, with 0 meaning unknown.
	Rating int

	Text string

	// Date is the resolved review date, or the raw text when unparseable.
	Date DateValue

	HasResponse bool
	Response    *Response
}

// Response is the organization's reply to a review.
// Once both dates are resolved the response date is never before the review
// date; an apparent negative delta means the missing year was misread and is
// reinterpreted, not accepted.
type Response struct {
	ID   string
	Text string
	Date DateValue
}

// DateValue holds a calendar date that may or may not have been resolved from
// source text. Raw always preserves the original text for diagnostics.
type DateValue struct {
	Time     time.Time
	Raw      string
	Resolved bool
}

// NewResolvedDate builds a resolved DateValue.
func NewResolvedDate(t time.Time, raw string) DateValue {
	return DateValue{Time: t, Raw: raw, Resolved: true}
}

// NewRawDate builds an unresolved DateValue carrying only source text.
func NewRawDate(raw string) DateValue {
	return DateValue{Raw: raw}
}

// String renders the resolved date, or the raw text when unresolved.
func (d DateValue) String() string {
	if d.Resolved {
		return d.Time.Format("2006-01-02")
	}
	return d.Raw
}

// Sentiment is the polarity bucket a review falls into.
type Sentiment int

const (
	SentimentUnknown Sentiment = iota
	SentimentNegative
	SentimentNeutral
	SentimentPositive
)

// String returns the lowercase bucket name.
func (s Sentiment) String() string {
	switch s {
	case SentimentNegative:
		return "negative"
	case SentimentNeutral:
		return "neutral"
	case SentimentPositive:
		return "positive"
	default:
		return "unknown"
	}
}
