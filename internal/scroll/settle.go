package scroll

import (
	"context"
	"log/slog"
	"time"

	"review-scout/internal/observability/metrics"
)

// View is one growable list on a page: the search feed, or a listing's
// review list. Grow asks the page to load more (scroll, or a "more" click);
// Measure counts the items currently materialized. Both talk to a live
// browser session and may fail transiently.
type View interface {
	Grow(ctx context.Context) error
	Measure(ctx context.Context) (int, error)
}

// Expander is implemented by views whose items render truncated and need an
// explicit expansion pass before extraction.
type Expander interface {
	ExpandTruncated(ctx context.Context) error
}

// Reason says why a settle loop stopped.
type Reason string

const (
	// ReasonStable means the count stopped changing long enough.
	ReasonStable Reason = "stable"
	// ReasonTarget means the expected item count was reached.
	ReasonTarget Reason = "target"
	// ReasonMaxIterations means the iteration cap fired.
	ReasonMaxIterations Reason = "max_iterations"
	// ReasonMaxElapsed means the wall-clock cap fired.
	ReasonMaxElapsed Reason = "max_elapsed"
	// ReasonCancelled means the context was cancelled mid-loop.
	ReasonCancelled Reason = "cancelled"
)

// Config bounds one settle loop.
type Config struct {
	// Name labels the view in logs and metrics ("feed", "reviews").
	Name string

	// StabilityThreshold is how many consecutive no-growth measurements
	// count as settled.
	StabilityThreshold int

	// Target stops the loop once this many items materialized. Zero means
	// grow until stable.
	Target int

	// MaxIterations and MaxElapsed are hard caps. Zero disables either.
	MaxIterations int
	MaxElapsed    time.Duration

	// Interval is the pause between grow steps, giving lazy loaders time to
	// fire.
	Interval time.Duration
}

// DefaultConfig returns the loop bounds used when a profile sets none.
func DefaultConfig(name string) Config {
	return Config{
		Name:               name,
		StabilityThreshold: 5,
		MaxIterations:      200,
		MaxElapsed:         3 * time.Minute,
		Interval:           700 * time.Millisecond,
	}
}

// Result reports how a settle loop ended.
type Result struct {
	Count      int
	Iterations int
	Reason     Reason
}

// Settle grows the view until its item count stops changing, the target is
// reached, or a cap fires. Growth and measurement failures are treated as a
// no-growth step rather than aborting: lazy loaders stall and recover all
// the time, and the stability counter already bounds how long we tolerate
// silence. Cancellation stops the loop and reports what was materialized so
// far; the caller decides whether partial content is worth keeping.
func Settle(ctx context.Context, view View, cfg Config, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StabilityThreshold <= 0 {
		cfg.StabilityThreshold = 5
	}

	start := time.Now()
	last := -1
	stable := 0
	res := Result{}

	for {
		if ctx.Err() != nil {
			res.Reason = ReasonCancelled
			break
		}
		if cfg.MaxIterations > 0 && res.Iterations >= cfg.MaxIterations {
			res.Reason = ReasonMaxIterations
			break
		}
		if cfg.MaxElapsed > 0 && time.Since(start) >= cfg.MaxElapsed {
			res.Reason = ReasonMaxElapsed
			break
		}

		res.Iterations++

		if err := view.Grow(ctx); err != nil {
			logger.Debug("grow step failed", "view", cfg.Name, "error", err)
			stable++
		} else if cfg.Interval > 0 {
			select {
			case <-time.After(cfg.Interval):
			case <-ctx.Done():
				res.Reason = ReasonCancelled
				goto done
			}
		}

		// Truncated items must be expanded on every pass, or later
		// extraction sees clipped snippets. Expansion failing is never
		// fatal to the loop.
		if exp, ok := view.(Expander); ok {
			if err := exp.ExpandTruncated(ctx); err != nil {
				logger.Debug("expand-truncated failed", "view", cfg.Name, "error", err)
			}
		}

		count, err := view.Measure(ctx)
		if err != nil {
			logger.Debug("measure failed", "view", cfg.Name, "error", err)
			stable++
		} else {
			res.Count = count
			if count > last {
				stable = 0
				last = count
			} else {
				stable++
			}
		}

		if cfg.Target > 0 && res.Count >= cfg.Target {
			res.Reason = ReasonTarget
			break
		}
		if stable >= cfg.StabilityThreshold {
			res.Reason = ReasonStable
			break
		}
	}

done:
	metrics.RecordSettle(cfg.Name, res.Iterations)
	logger.Debug("view settled",
		"view", cfg.Name,
		"count", res.Count,
		"iterations", res.Iterations,
		"reason", string(res.Reason),
	)
	return res
}
