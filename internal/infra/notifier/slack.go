package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"review-scout/internal/usecase/collect"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// Enabled indicates whether Slack notifications are enabled
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration
}

// SlackNotifier posts one summary message per finished collection task to a
// Slack Incoming Webhook.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewSlackNotifier creates a SlackNotifier. The rate limiter is pinned to
// 1 request/second with burst 1, the documented Incoming Webhook limit.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &SlackNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// SlackWebhookPayload represents the JSON payload sent to the Slack webhook
// using Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	maxSectionTextLength = 3000
	maxFallbackLength    = 150

	slackTruncationSuffix = "..."
)

// buildPayload renders a task result as a fallback line, a section block
// with the aggregate numbers, and a context block with task id and timing.
func (s *SlackNotifier) buildPayload(res collect.TaskResult) SlackWebhookPayload {
	scope := res.Query.City
	if scope == "" {
		scope = strings.Join(res.Query.Cities, ", ")
	}
	if scope == "" {
		scope = string(res.Query.Scope)
	}

	fallback := fmt.Sprintf("%s (%s) — %s", res.Query.Name, scope, res.Outcome)
	fallback = truncateText(fallback, maxFallbackLength, slackTruncationSuffix)

	rating := fmt.Sprintf("%.1f", res.Stats.Rating)
	if res.Stats.RatingEstimated {
		rating = "~" + rating
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s* — %s\n\n", res.Query.Name, res.Outcome)
	fmt.Fprintf(&b, "Listings: %d\n", len(res.Listings))
	fmt.Fprintf(&b, "Reviews: %d (%d positive / %d negative / %d neutral)\n",
		res.Stats.TotalReviews, res.Stats.Positive, res.Stats.Negative, res.Stats.Neutral)
	fmt.Fprintf(&b, "Answered: %d of %d, avg response %.1f days\n",
		res.Stats.Answered, res.Stats.Answered+res.Stats.Unanswered, res.Stats.AvgResponseDays)
	fmt.Fprintf(&b, "Rating: %s", rating)
	sectionText := truncateText(b.String(), maxSectionTextLength, slackTruncationSuffix)

	contextText := fmt.Sprintf("task %s • %s • %.0fs",
		res.TaskID, res.FinishedAt.Format(time.RFC3339), res.Duration().Seconds())

	return SlackWebhookPayload{
		Text: fallback,
		Blocks: []SlackBlock{
			{
				Type: "section",
				Text: &SlackTextObject{Type: "mrkdwn", Text: sectionText},
			},
			{
				Type: "context",
				Elements: []SlackTextObject{
					{Type: "mrkdwn", Text: contextText},
				},
			},
		},
	}
}

// sendWebhookRequest posts the payload once and classifies the response:
// 429 becomes RateLimitError, other 4xx ClientError, 5xx ServerError.
func (s *SlackNotifier) sendWebhookRequest(ctx context.Context, res collect.TaskResult) error {
	jsonData, err := json.Marshal(s.buildPayload(res))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Message:    "Slack rate limit exceeded",
			RetryAfter: extractRetryAfter(resp),
		}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Slack API client error: %s", string(body)),
		}
	}

	if resp.StatusCode >= 500 {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Slack API server error: %s", string(body)),
		}
	}

	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// sendWithRetry retries server errors with linear backoff and honors the
// retry_after of a 429. Client errors fail immediately.
func (s *SlackNotifier) sendWithRetry(ctx context.Context, res collect.TaskResult) error {
	const (
		maxAttempts = 2
		baseDelay   = 5 * time.Second
	)

	requestID, _ := ctx.Value(requestIDKey).(string)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.sendWebhookRequest(ctx, res)
		if err == nil {
			slog.Info("Slack notification sent",
				slog.String("request_id", requestID),
				slog.String("task_id", res.TaskID),
				slog.Int("attempt", attempt))
			return nil
		}

		lastErr = err

		if rateLimitErr, ok := is429Error(err); ok {
			slog.Warn("Slack rate limit hit, backing off",
				slog.String("request_id", requestID),
				slog.String("task_id", res.TaskID),
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))

			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryableError(err) {
			slog.Error("Slack notification failed with non-retryable error",
				slog.String("request_id", requestID),
				slog.String("task_id", res.TaskID),
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		}

		if attempt < maxAttempts {
			delay := baseDelay * time.Duration(attempt)
			slog.Warn("Slack notification failed, retrying",
				slog.String("request_id", requestID),
				slog.String("task_id", res.TaskID),
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
			}
		}
	}

	slog.Error("Slack notification failed after all retries",
		slog.String("request_id", requestID),
		slog.String("task_id", res.TaskID),
		slog.Any("error", lastErr),
		slog.Int("max_attempts", maxAttempts))

	return fmt.Errorf("slack notification failed after %d attempts: %w", maxAttempts, lastErr)
}

// Notify implements the task notifier port. It tags the attempt with a
// request id, applies rate limiting, then posts with retry.
func (s *SlackNotifier) Notify(ctx context.Context, res collect.TaskResult) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("Starting Slack notification",
		slog.String("request_id", requestID),
		slog.String("task_id", res.TaskID),
		slog.String("query", res.Query.Name))

	if err := s.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	return s.sendWithRetry(ctx, res)
}
