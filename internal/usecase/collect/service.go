// Package collect orchestrates one collection task end to end: discover
// listings for a query, walk each listing's review view, normalize and
// classify reviews, prune fuzzy matches, aggregate statistics, and hand the
// finished result to the output sinks.
package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"review-scout/internal/config"
	"review-scout/internal/domain/entity"
	"review-scout/internal/extract"
	"review-scout/internal/observability/logging"
	"review-scout/internal/observability/metrics"
	"review-scout/internal/review"
	"review-scout/internal/scroll"
	"review-scout/internal/similarity"
	"review-scout/internal/usecase/aggregate"
)

const defaultMaxRecords = 20

// Service runs collection tasks. One service owns one content source
// session, so tasks and everything inside a task run strictly sequentially.
type Service struct {
	source   ContentSource
	control  TaskControl
	sinks    []Sink
	enricher Enricher
	notifier Notifier

	cfg        *config.PipelineConfig
	listingEx  *extract.Extractor
	reviewEx   *extract.Extractor
	aggregator *aggregate.Aggregator
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures optional collaborators on a Service.
type Option func(*Service)

// WithSinks attaches output sinks; every finished task is written to each.
func WithSinks(sinks ...Sink) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sinks...) }
}

// WithEnricher attaches the website description enricher.
func WithEnricher(e Enricher) Option {
	return func(s *Service) { s.enricher = e }
}

// WithNotifier attaches the task-completion notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService builds a collection service over one content source session.
func NewService(source ContentSource, control TaskControl, cfg *config.PipelineConfig, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	listingEx, err := extract.New(cfg.Profile.ListingFields, cfg.Profile.NoiseLabels)
	if err != nil {
		return nil, fmt.Errorf("compile listing profile: %w", err)
	}
	reviewEx, err := extract.New(cfg.Profile.ReviewFields, cfg.Profile.NoiseLabels)
	if err != nil {
		return nil, fmt.Errorf("compile review profile: %w", err)
	}

	classifier := review.Classifier{OverrideScore: cfg.SentimentOverride}

	s := &Service{
		source:     source,
		control:    control,
		cfg:        cfg,
		listingEx:  listingEx,
		reviewEx:   reviewEx,
		aggregator: aggregate.NewWithConfig(classifier, cfg.MaxResponseDeltaDays, logger),
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.NavigationsPerMinute)/60.0), 1),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes one task end to end and hands the result to the sinks.
// Cooperative cancellation yields a completed-partial result, never an
// error; only an unusable content source session fails the task, and even
// then the result carries everything assembled so far.
func (s *Service) Run(ctx context.Context, query entity.SearchQuery) (TaskResult, error) {
	res := TaskResult{
		TaskID:    uuid.NewString(),
		Query:     query,
		StartedAt: nowUTC(),
		Outcome:   OutcomeCompleted,
	}

	if err := query.Validate(); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		res.FinishedAt = nowUTC()
		metrics.RecordTask(string(res.Outcome), res.Duration())
		return res, err
	}

	logger := logging.WithTask(s.logger, res.TaskID)
	logger.Info("task started",
		"query", query.Name,
		"scope", string(query.Scope),
		"max_records", maxRecords(query),
	)

	listings, runErr := s.collect(ctx, query, logger)
	res.Listings = listings

	switch {
	case runErr != nil && errors.Is(runErr, entity.ErrSessionUnusable):
		res.Outcome = OutcomeFailed
		res.Err = runErr
	case runErr != nil && (errors.Is(runErr, context.Canceled) || errors.Is(runErr, errTaskCancelled)):
		res.Outcome = OutcomePartial
	case runErr != nil:
		// Non-fatal errors were already absorbed per page; anything left
		// fails the task.
		res.Outcome = OutcomeFailed
		res.Err = runErr
	}

	res.Listings = similarity.Select(res.Listings, query.Name, similarity.Config{
		Floor: s.cfg.SimilarityFloor,
		Band:  s.cfg.SimilarityBand,
	})

	s.enrich(ctx, res.Listings, logger)

	res.ListingStats = make([]entity.Stats, len(res.Listings))
	for i, l := range res.Listings {
		res.ListingStats[i] = s.aggregator.ListingStats(l)
	}
	res.Stats = s.aggregator.Combine(res.ListingStats)
	res.FinishedAt = nowUTC()

	s.handoff(ctx, res, logger)

	metrics.RecordTask(string(res.Outcome), res.Duration())
	logger.Info("task finished",
		"outcome", string(res.Outcome),
		"listings", len(res.Listings),
		"reviews", res.Stats.TotalReviews,
		"duration", res.Duration().String(),
	)

	if res.Outcome == OutcomeFailed {
		return res, res.Err
	}
	return res, nil
}

// errTaskCancelled marks a cooperative stop requested through TaskControl.
var errTaskCancelled = errors.New("task cancelled")

// collect walks every city sequentially: the content source session cannot
// be shared, so there is nothing to parallelize.
func (s *Service) collect(ctx context.Context, query entity.SearchQuery, logger *slog.Logger) ([]entity.Listing, error) {
	cities := []string{query.City}
	if query.Scope == entity.ScopeCountry {
		cities = query.Cities
	}

	limit := maxRecords(query)
	var listings []entity.Listing
	seen := make(map[string]struct{})

	for _, city := range cities {
		if err := s.cancelled(ctx); err != nil {
			return listings, err
		}

		urls, err := s.discover(ctx, query, city, limit-len(listings), seen, logger)
		if err != nil {
			if errors.Is(err, entity.ErrSessionUnusable) ||
				errors.Is(err, context.Canceled) || errors.Is(err, errTaskCancelled) {
				return listings, err
			}
			logger.Warn("discovery yielded nothing", "city", city, "error", err)
			continue
		}

		for _, listingURL := range urls {
			if err := s.cancelled(ctx); err != nil {
				return listings, err
			}

			l, err := s.collectListing(ctx, listingURL, city, logger)
			if err != nil {
				if errors.Is(err, entity.ErrSessionUnusable) || errors.Is(err, context.Canceled) || errors.Is(err, errTaskCancelled) {
					return listings, err
				}
				logger.Warn("listing skipped", "url", listingURL, "error", err)
				continue
			}
			listings = append(listings, l)
			s.control.ReportProgress(fmt.Sprintf("collected %s: %d reviews (%d/%d listings)",
				l.Name, len(l.Reviews), len(listings), limit))
		}

		if len(listings) >= limit {
			break
		}
	}
	return listings, nil
}

// discover settles the search feed for one city and returns up to remaining
// canonicalized listing URLs that have not been seen by this task yet.
func (s *Service) discover(ctx context.Context, query entity.SearchQuery, city string, remaining int, seen map[string]struct{}, logger *slog.Logger) ([]string, error) {
	if remaining <= 0 {
		return nil, nil
	}

	searchURL := fmt.Sprintf(s.cfg.Profile.SearchURL,
		url.QueryEscape(query.Name), url.QueryEscape(city))
	if err := s.navigate(ctx, searchURL); err != nil {
		return nil, err
	}

	view := &pageView{source: s.source, selector: s.cfg.Profile.FeedItemSelector}
	settle := scroll.Settle(ctx, view, s.feedScrollConfig(remaining), logger)
	if settle.Reason == scroll.ReasonCancelled {
		// The feed snapshot so far is still usable; fall through and let
		// the caller's cancellation check stop the task after extraction.
		logger.Debug("feed settle cancelled, extracting partial feed")
	}

	doc, err := view.Document(ctx)
	if err != nil {
		return nil, err
	}
	currentURL, err := s.source.CurrentURL(ctx)
	if err != nil {
		currentURL = searchURL
	}
	base, err := url.Parse(currentURL)
	if err != nil {
		base, _ = url.Parse(searchURL)
	}

	var urls []string
	doc.Find(s.cfg.Profile.FeedItemSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}
		abs := href
		if ref, err := url.Parse(href); err == nil && base != nil {
			abs = base.ResolveReference(ref).String()
		}

		id, err := entity.CanonicalListingID(abs)
		if err != nil {
			logger.Debug("feed link rejected", "href", href, "error", err)
			return true
		}
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		urls = append(urls, abs)
		metrics.RecordListingDiscovered(city)
		return len(urls) < remaining
	})

	logger.Info("feed settled",
		"city", city,
		"feed_items", settle.Count,
		"new_listings", len(urls),
		"iterations", settle.Iterations,
	)
	return urls, nil
}

// collectListing navigates one listing page, extracts identity fields,
// settles the review view (expanding truncated text each pass) and folds
// the review nodes through the normalizer.
func (s *Service) collectListing(ctx context.Context, listingURL, city string, logger *slog.Logger) (entity.Listing, error) {
	var l entity.Listing

	if err := s.navigate(ctx, listingURL); err != nil {
		return l, err
	}

	finalURL, err := s.source.CurrentURL(ctx)
	if err != nil || finalURL == "" {
		finalURL = listingURL
	}
	id, err := entity.CanonicalListingID(finalURL)
	if err != nil {
		id = listingURL
	}

	view := &reviewView{
		pageView:       pageView{source: s.source, selector: s.cfg.Profile.ReviewNodeSelector},
		expandSelector: s.cfg.Profile.ExpandSelector,
	}
	settle := scroll.Settle(ctx, view, s.cfg.ReviewSettle.Scroll("reviews"), logger)

	doc, err := view.Document(ctx)
	if err != nil {
		return l, err
	}

	root := doc.Selection
	l = entity.Listing{
		ID:          id,
		City:        city,
		Name:        s.listingField(extract.FieldName, root),
		Address:     s.listingField(extract.FieldAddress, root),
		Phone:       s.listingField(extract.FieldPhone, root),
		Website:     s.listingField(extract.FieldWebsite, root),
		Rating:      parseRating(s.listingField(extract.FieldRating, root)),
		ReviewCount: parseCount(s.listingField(extract.FieldReviewCount, root)),
	}
	if l.Name == "" {
		return l, fmt.Errorf("listing page %s carries no name", finalURL)
	}

	normalizer := review.NewNormalizer(s.reviewEx, l.Name, logger)
	var nodes []*goquery.Selection
	doc.Find(s.cfg.Profile.ReviewNodeSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		// Cancellation inside the node walk stops the walk, not the batch:
		// records already normalized are kept.
		if s.control.IsCancelled() || ctx.Err() != nil {
			return false
		}
		nodes = append(nodes, sel)
		return true
	})
	normalizer.Batch(nodes)
	l.Reviews = normalizer.Reviews()

	logger.Debug("listing collected",
		"listing", l.ID,
		"name", l.Name,
		"review_nodes", settle.Count,
		"reviews", len(l.Reviews),
	)

	return l, nil
}

// enrich pulls a short description from each listing's own website. Failures
// are logged and skipped; enrichment never changes a task's outcome.
func (s *Service) enrich(ctx context.Context, listings []entity.Listing, logger *slog.Logger) {
	if s.enricher == nil {
		return
	}
	for i := range listings {
		if listings[i].Website == "" || s.control.IsCancelled() || ctx.Err() != nil {
			continue
		}
		desc, err := s.enricher.Describe(ctx, listings[i].Website)
		if err != nil {
			metrics.RecordEnrichment("error")
			logger.Debug("website enrichment failed",
				"listing", listings[i].ID, "website", listings[i].Website, "error", err)
			continue
		}
		listings[i].Description = desc
		metrics.RecordEnrichment("ok")
	}
}

// handoff writes the finished result to every sink and fires the notifier.
// Sink failures are logged per sink; the task result is already final.
func (s *Service) handoff(ctx context.Context, res TaskResult, logger *slog.Logger) {
	// Sinks are independent of each other; write them in parallel. A failed
	// sink is logged and counted but never fails the task.
	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range s.sinks {
		sink := sink
		g.Go(func() error {
			if err := sink.Write(gctx, res); err != nil {
				metrics.RecordSinkWrite(sink.Name(), false)
				logger.Error("sink write failed", "sink", sink.Name(), "error", err)
				return nil
			}
			metrics.RecordSinkWrite(sink.Name(), true)
			return nil
		})
	}
	_ = g.Wait()
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, res); err != nil {
			logger.Warn("notification failed", "error", err)
		}
	}
}

// navigate paces and performs one navigation. A navigation error is fatal
// only when the adapter reports the session unusable.
func (s *Service) navigate(ctx context.Context, target string) error {
	if err := s.cancelled(ctx); err != nil {
		return err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.source.Navigate(ctx, target); err != nil {
		return fmt.Errorf("navigate %s: %w", target, err)
	}
	return nil
}

func (s *Service) cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.control.IsCancelled() {
		return errTaskCancelled
	}
	return nil
}

func (s *Service) feedScrollConfig(remaining int) scroll.Config {
	cfg := s.cfg.FeedSettle.Scroll("feed")
	cfg.Target = remaining
	return cfg
}

func (s *Service) listingField(field string, sel *goquery.Selection) string {
	res := s.listingEx.Extract(field, sel)
	if !res.OK {
		return ""
	}
	return strings.TrimSpace(res.Value)
}

func maxRecords(query entity.SearchQuery) int {
	if query.MaxRecords > 0 {
		return query.MaxRecords
	}
	return defaultMaxRecords
}

func nowUTC() time.Time { return time.Now().UTC() }

var numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// parseRating reads a displayed rating like "4,6" or "4.6 из 5".
func parseRating(s string) float64 {
	m := numberRe.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil || f < 0 || f > 5 {
		return 0
	}
	return f
}

var (
	countSepRe = regexp.MustCompile(`[\s\x{00a0}.,']`)
	digitsRe   = regexp.MustCompile(`\d+`)
)

// parseCount reads a review count with locale separators ("1 024", "1,024").
func parseCount(s string) int {
	cleaned := countSepRe.ReplaceAllString(s, "")
	m := digitsRe.FindString(cleaned)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
