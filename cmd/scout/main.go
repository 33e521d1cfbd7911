// Package main provides the one-shot collection CLI.
// Usage: scout "название организации" --city "Москва" [--max 20] [--jsonl out.jsonl]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"review-scout/internal/config"
	"review-scout/internal/domain/entity"
	"review-scout/internal/infra/browser"
	"review-scout/internal/infra/enrich"
	"review-scout/internal/infra/notifier"
	"review-scout/internal/infra/sink"
	"review-scout/internal/observability/logging"
	"review-scout/internal/usecase/collect"
)

func main() {
	var (
		city       string
		cities     string
		site       string
		address    string
		maxRecords int
		configPath string
		jsonlPath  string
		csvPath    string
		slackURL   string
		timeout    time.Duration
		headless   bool
		verbose    bool
	)

	flag.StringVar(&city, "city", "", "City to search in (city scope)")
	flag.StringVar(&cities, "cities", "", "Comma-separated city list (country scope)")
	flag.StringVar(&site, "site", "", "Pin the search to one site profile")
	flag.StringVar(&address, "address", "", "Street address to narrow fuzzy matches")
	flag.IntVar(&maxRecords, "max", 0, "Maximum listings to collect (0 = default)")
	flag.StringVar(&configPath, "config", "", "Pipeline configuration file (YAML)")
	flag.StringVar(&jsonlPath, "jsonl", "tasks.jsonl", "JSONL output path")
	flag.StringVar(&csvPath, "csv", "", "CSV output path (disabled when empty)")
	flag.StringVar(&slackURL, "slack-webhook", os.Getenv("SLACK_WEBHOOK_URL"), "Slack webhook for the task summary")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "Overall task timeout")
	flag.BoolVar(&headless, "headless", true, "Run the browser headless")
	flag.BoolVar(&verbose, "verbose", false, "Log to stderr in text format at debug level")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: organization name is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: scout \"название организации\" --city \"Москва\" [flags]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  scout \"умный дом\" --city \"Москва\"")
		fmt.Fprintln(os.Stderr, "  scout \"установка кондиционеров\" --cities \"Москва,Санкт-Петербург\" --max 50")
		os.Exit(1)
	}

	var logger *slog.Logger
	if verbose {
		logger = logging.NewTextLogger()
	} else {
		logger = logging.NewLogger()
	}

	query := entity.SearchQuery{
		Name:       args[0],
		Site:       site,
		Address:    address,
		City:       city,
		MaxRecords: maxRecords,
	}
	if cities != "" {
		query.Scope = entity.ScopeCountry
		for _, c := range strings.Split(cities, ",") {
			if c = strings.TrimSpace(c); c != "" {
				query.Cities = append(query.Cities, c)
			}
		}
	} else {
		query.Scope = entity.ScopeCity
	}
	if err := query.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, warnings, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		logger.Warn("configuration fallback", slog.String("warning", w))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	browserCfg := browser.DefaultConfig()
	browserCfg.Headless = headless
	session, err := browser.NewSession(ctx, browserCfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start browser: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	opts := []collect.Option{
		collect.WithEnricher(enrich.NewDescriber(enrich.DefaultConfig())),
	}
	sinks := []collect.Sink{sink.NewJSONL(jsonlPath)}
	if csvPath != "" {
		sinks = append(sinks, sink.NewCSV(csvPath))
	}
	opts = append(opts, collect.WithSinks(sinks...))
	if slackURL != "" {
		opts = append(opts, collect.WithNotifier(notifier.NewSlackNotifier(notifier.SlackConfig{
			Enabled:    true,
			WebhookURL: slackURL,
		})))
	}

	control := collect.NewContextControl(ctx, logger)
	service, err := collect.NewService(session, control, cfg, logger, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, err := service.Run(ctx, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: task failed: %v\n", err)
		os.Exit(1)
	}

	printSummary(res)
	if res.Outcome == collect.OutcomePartial {
		os.Exit(2)
	}
}

// printSummary renders the human-readable run summary to stdout; the full
// structured result goes through the sinks.
func printSummary(res collect.TaskResult) {
	fmt.Printf("Task %s: %s in %.0fs\n", res.TaskID, res.Outcome, res.Duration().Seconds())
	fmt.Printf("Listings: %d\n", len(res.Listings))
	for i, l := range res.Listings {
		fmt.Printf("  %s (%s): %d reviews", l.Name, l.City, len(l.Reviews))
		if i < len(res.ListingStats) {
			s := res.ListingStats[i]
			fmt.Printf(", %d+/%d-/%d=, rating %.1f", s.Positive, s.Negative, s.Neutral, s.Rating)
		}
		fmt.Println()
	}
	s := res.Stats
	rating := fmt.Sprintf("%.1f", s.Rating)
	if s.RatingEstimated {
		rating = "~" + rating
	}
	fmt.Printf("Total: %d reviews (%d positive, %d negative, %d neutral)\n",
		s.TotalReviews, s.Positive, s.Negative, s.Neutral)
	fmt.Printf("Responses: %d answered, %d unanswered, avg %.1f days\n",
		s.Answered, s.Unanswered, s.AvgResponseDays)
	fmt.Printf("Rating: %s\n", rating)
}
