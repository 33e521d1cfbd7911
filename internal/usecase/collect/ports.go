package collect

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"review-scout/internal/domain/entity"
)

// ContentSource is the browser session the pipeline drives. It is a singly
// owned handle: one logical navigation or script execution may be
// outstanding at a time, which is why the pipeline is strictly sequential.
type ContentSource interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Snapshot(ctx context.Context) (*goquery.Document, error)
	ExecuteScript(ctx context.Context, script string) error
	WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error
}

// TaskControl is the cooperative cancellation and progress capability owned
// by whoever launched the task. The pipeline only reads the cancellation
// flag and writes progress messages.
type TaskControl interface {
	ReportProgress(message string)
	IsCancelled() bool
}

// Sink receives one finished task. Format is the sink's concern.
type Sink interface {
	Name() string
	Write(ctx context.Context, result TaskResult) error
}

// Enricher optionally augments a listing from its own website.
type Enricher interface {
	Describe(ctx context.Context, websiteURL string) (string, error)
}

// Notifier posts a task summary once the task finished.
type Notifier interface {
	Notify(ctx context.Context, result TaskResult) error
}

// Outcome classifies how a task ended.
type Outcome string

const (
	// OutcomeCompleted means the task ran to the end.
	OutcomeCompleted Outcome = "completed"
	// OutcomePartial means cooperative cancellation stopped the task; the
	// result carries everything collected so far. Partial is a success.
	OutcomePartial Outcome = "completed-partial"
	// OutcomeFailed means the content source session became unusable. The
	// result still carries whatever had been assembled.
	OutcomeFailed Outcome = "failed"
)

// TaskResult is the unit handed to sinks and notifiers: the finalized
// listings with their reviews, per-listing and combined statistics, and how
// the task ended.
type TaskResult struct {
	TaskID string
	Query  entity.SearchQuery

	Listings     []entity.Listing
	ListingStats []entity.Stats
	Stats        entity.Stats

	Outcome    Outcome
	StartedAt  time.Time
	FinishedAt time.Time

	// Err carries the fatal error on a failed task.
	Err error
}

// Duration is the task wall-clock time.
func (r TaskResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
