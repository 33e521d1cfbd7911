package notifier

import (
	"context"

	"review-scout/internal/usecase/collect"
)

// NoOpNotifier is used when notifications are disabled, so callers never
// need a nil check.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Notify does nothing and returns nil immediately.
func (n *NoOpNotifier) Notify(ctx context.Context, res collect.TaskResult) error {
	return nil
}
