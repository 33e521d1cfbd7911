// Package browser provides the chromedp-backed content source: one headless
// Chrome session exposing navigation, script execution and queryable page
// snapshots to the collection pipeline.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"review-scout/internal/domain/entity"
	"review-scout/internal/observability/metrics"
	"review-scout/internal/resilience/circuitbreaker"
	"review-scout/internal/resilience/retry"
)

// Config holds session settings.
type Config struct {
	// Headless runs Chrome without a visible window. Default true.
	Headless bool

	// UserAgent overrides the default UA string when non-empty.
	UserAgent string

	// AcceptLanguage is sent with every request. Default "ru-RU,ru;q=0.9".
	AcceptLanguage string

	// NavigationTimeout bounds one navigation. Default 45s.
	NavigationTimeout time.Duration

	// ScriptTimeout bounds one script evaluation. Default 15s.
	ScriptTimeout time.Duration
}

// DefaultConfig returns the production session settings.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		AcceptLanguage:    "ru-RU,ru;q=0.9",
		NavigationTimeout: 45 * time.Second,
		ScriptTimeout:     15 * time.Second,
	}
}

// Session is a singly-owned browser session. It is not safe for concurrent
// use: the pipeline holds exactly one and drives it sequentially.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg     Config
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config
	logger  *slog.Logger
}

// NewSession starts a Chrome instance and returns the session handle.
// Close must be called to release the browser.
func NewSession(parent context.Context, cfg Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if cfg.ScriptTimeout <= 0 {
		cfg.ScriptTimeout = 15 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Starting the browser eagerly surfaces a missing Chrome binary here
	// instead of on the first navigation.
	startup := []chromedp.Action{network.Enable()}
	if cfg.AcceptLanguage != "" {
		startup = append(startup, network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": cfg.AcceptLanguage,
		}))
	}
	if err := chromedp.Run(browserCtx, startup...); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	cancel := func() {
		browserCancel()
		allocCancel()
	}

	return &Session{
		ctx:     browserCtx,
		cancel:  cancel,
		cfg:     cfg,
		breaker: circuitbreaker.New(circuitbreaker.NavigationConfig()),
		retry:   retry.NavigationConfig(),
		logger:  logger,
	}, nil
}

// Close releases the browser.
func (s *Session) Close() {
	s.cancel()
}

// Navigate loads a URL, retrying transient failures behind the navigation
// circuit breaker. A dead browser context is reported as the unusable
// session sentinel, the pipeline's only fatal condition.
func (s *Session) Navigate(ctx context.Context, target string) error {
	err := retry.WithBackoff(ctx, s.retry, func() error {
		_, err := s.breaker.Execute(func() (interface{}, error) {
			runCtx, cancel := s.runContext(ctx, s.cfg.NavigationTimeout)
			defer cancel()
			if err := chromedp.Run(runCtx, chromedp.Navigate(target)); err != nil {
				return nil, s.classify(err)
			}
			return nil, nil
		})
		return err
	})
	metrics.RecordNavigation(err == nil)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", target, err)
	}
	return nil
}

// CurrentURL reports the page URL after redirects.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	runCtx, cancel := s.runContext(ctx, s.cfg.ScriptTimeout)
	defer cancel()

	var location string
	if err := chromedp.Run(runCtx, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("current url: %w", s.classify(err))
	}
	return location, nil
}

// Snapshot serializes the live DOM and parses it into a queryable tree.
func (s *Session) Snapshot(ctx context.Context) (*goquery.Document, error) {
	runCtx, cancel := s.runContext(ctx, s.cfg.ScriptTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("snapshot: %w", s.classify(err))
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return doc, nil
}

// ExecuteScript evaluates a script in the page, discarding the result.
func (s *Session) ExecuteScript(ctx context.Context, script string) error {
	runCtx, cancel := s.runContext(ctx, s.cfg.ScriptTimeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("execute script: %w", s.classify(err))
	}
	return nil
}

// WaitForNetworkIdle waits for lazy loaders to quiet down. chromedp offers
// no portable network-idle signal for an already-loaded page, so this is a
// bounded readyState poll plus a short grace sleep.
func (s *Session) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	runCtx, cancel := s.runContext(ctx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Poll("document.readyState === 'complete'", nil,
			chromedp.WithPollingTimeout(timeout)),
		chromedp.Sleep(300*time.Millisecond),
	)
	if err != nil {
		// A still-busy page is not an error to the caller; the settle loop
		// measures growth regardless.
		s.logger.Debug("network idle wait expired", "timeout", timeout.String(), "error", err)
	}
	return nil
}

// runContext merges the caller's cancellation with the browser context and
// applies the operation timeout.
func (s *Session) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancelTimeout := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancelTimeout)
	return runCtx, func() {
		stop()
		cancelTimeout()
	}
}

// classify maps a chromedp failure onto the pipeline's error model: a dead
// browser context is fatal, everything else is transient.
func (s *Session) classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) && s.ctx.Err() != nil {
		return fmt.Errorf("%w: %v", entity.ErrSessionUnusable, err)
	}
	if strings.Contains(err.Error(), "context canceled") && s.ctx.Err() != nil {
		return fmt.Errorf("%w: %v", entity.ErrSessionUnusable, err)
	}
	return retry.Transient(err)
}
