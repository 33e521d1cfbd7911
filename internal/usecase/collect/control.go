package collect

import (
	"context"
	"log/slog"
)

// contextControl adapts a context to the TaskControl port for callers that
// have no external cancellation channel beyond ctx itself. Progress reports
// are logged.
type contextControl struct {
	ctx    context.Context
	logger *slog.Logger
}

// NewContextControl builds a TaskControl backed by ctx.
func NewContextControl(ctx context.Context, logger *slog.Logger) TaskControl {
	return &contextControl{ctx: ctx, logger: logger}
}

func (c *contextControl) ReportProgress(msg string) {
	c.logger.Info("task progress", slog.String("progress", msg))
}

func (c *contextControl) IsCancelled() bool {
	return c.ctx.Err() != nil
}
