// Package enrich pulls a short description for a listing from its own
// website: the page is fetched, boiled down with the Readability algorithm,
// and the excerpt (or the first sentences of the body text) becomes the
// listing description. Enrichment is strictly optional; every failure is
// reported to the caller and skipped there.
package enrich

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"review-scout/internal/resilience/circuitbreaker"
	"review-scout/internal/resilience/retry"
)

// Config bounds one enrichment fetch.
type Config struct {
	// Timeout is the per-request HTTP timeout. Default 10s.
	Timeout time.Duration

	// MaxBodySize caps the response body. Default 5MB.
	MaxBodySize int64

	// MaxDescriptionRunes clips the extracted description. Default 300.
	MaxDescriptionRunes int

	// UserAgent identifies the fetcher.
	UserAgent string
}

// DefaultConfig returns production enrichment settings.
func DefaultConfig() Config {
	return Config{
		Timeout:             10 * time.Second,
		MaxBodySize:         5 << 20,
		MaxDescriptionRunes: 300,
		UserAgent:           "ReviewScoutBot/1.0",
	}
}

// Describer fetches websites and extracts descriptions. Safe for concurrent
// use, though the pipeline calls it sequentially.
type Describer struct {
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config
	cfg     Config
}

// NewDescriber builds a describer with its own HTTP client and breaker.
func NewDescriber(cfg Config) *Describer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 5 << 20
	}
	if cfg.MaxDescriptionRunes <= 0 {
		cfg.MaxDescriptionRunes = 300
	}

	return &Describer{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     60 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		breaker: circuitbreaker.New(circuitbreaker.EnrichmentConfig()),
		retry:   retry.EnrichmentConfig(),
		cfg:     cfg,
	}
}

// Describe fetches the website and returns a short description.
func (d *Describer) Describe(ctx context.Context, websiteURL string) (string, error) {
	parsed, err := url.Parse(websiteURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid website url %q", websiteURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	var desc string
	err = retry.WithBackoff(ctx, d.retry, func() error {
		result, err := d.breaker.Execute(func() (interface{}, error) {
			return d.fetch(ctx, parsed)
		})
		if err != nil {
			return err
		}
		desc = result.(string)
		return nil
	})
	if err != nil {
		return "", err
	}
	return desc, nil
}

func (d *Describer) fetch(ctx context.Context, target *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", retry.Transient(fmt.Errorf("fetch %s: %w", target.Host, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.cfg.MaxBodySize+1))
	if err != nil {
		return "", retry.Transient(fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > d.cfg.MaxBodySize {
		return "", fmt.Errorf("response from %s exceeds %d bytes", target.Host, d.cfg.MaxBodySize)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), target)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}

	desc := strings.TrimSpace(article.Excerpt)
	if desc == "" {
		desc = strings.TrimSpace(article.TextContent)
	}
	if desc == "" {
		return "", fmt.Errorf("no describable content at %s", target.Host)
	}
	return clip(desc, d.cfg.MaxDescriptionRunes), nil
}

// clip shortens to the rune limit, cutting at a word boundary when one is
// close enough.
func clip(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > limit/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
