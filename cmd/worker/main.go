package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"review-scout/internal/config"
	"review-scout/internal/domain/entity"
	"review-scout/internal/infra/browser"
	"review-scout/internal/infra/db"
	"review-scout/internal/infra/enrich"
	"review-scout/internal/infra/notifier"
	"review-scout/internal/infra/sink"
	workerPkg "review-scout/internal/infra/worker"
	"review-scout/internal/observability/logging"
	"review-scout/internal/usecase/collect"
)

func main() {
	logger := logging.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := workerPkg.NewMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.String("queries_path", workerConfig.QueriesPath),
		slog.Duration("task_timeout", workerConfig.TaskTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	pipelineConfig, warnings, err := config.Load(os.Getenv("SCOUT_CONFIG"))
	if err != nil {
		logger.Error("failed to load pipeline configuration", slog.Any("error", err))
		os.Exit(1)
	}
	for _, w := range warnings {
		logger.Warn("pipeline configuration fallback", slog.String("warning", w))
	}

	queries, err := workerPkg.LoadQueries(workerConfig.QueriesPath)
	if err != nil {
		logger.Error("failed to load scheduled queries", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("scheduled queries loaded", slog.Int("count", len(queries)))

	sinks, closeSinks := setupSinks(ctx, logger)
	defer closeSinks()

	opts := []collect.Option{collect.WithSinks(sinks...)}
	opts = append(opts, collect.WithEnricher(enrich.NewDescriber(enrich.DefaultConfig())))
	if n := setupNotifier(logger); n != nil {
		opts = append(opts, collect.WithNotifier(n))
	}

	startMetricsServer(ctx, logger, workerConfig.MetricsPort)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	startCronWorker(ctx, logger, runEnv{
		pipeline: pipelineConfig,
		queries:  queries,
		opts:     opts,
		cfg:      workerConfig,
		metrics:  workerMetrics,
	}, healthServer)
}

// runEnv bundles everything a scheduled run needs.
type runEnv struct {
	pipeline *config.PipelineConfig
	queries  []entity.SearchQuery
	opts     []collect.Option
	cfg      *workerPkg.Config
	metrics  *workerPkg.Metrics
}

// setupSinks builds the output sinks from environment configuration.
// JSONL is always on; CSV and Postgres are opt-in.
func setupSinks(ctx context.Context, logger *slog.Logger) ([]collect.Sink, func()) {
	jsonlPath := os.Getenv("SCOUT_JSONL_PATH")
	if jsonlPath == "" {
		jsonlPath = "tasks.jsonl"
	}
	sinks := []collect.Sink{sink.NewJSONL(jsonlPath)}

	if csvPath := os.Getenv("SCOUT_CSV_PATH"); csvPath != "" {
		sinks = append(sinks, sink.NewCSV(csvPath))
	}

	closeSinks := func() {}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pool, err := db.Open(ctx, dsn, logger)
		if err != nil {
			logger.Error("failed to open database, postgres sink disabled", slog.Any("error", err))
			return sinks, closeSinks
		}
		pg := sink.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure schema, postgres sink disabled", slog.Any("error", err))
			_ = pool.Close()
			return sinks, closeSinks
		}
		sinks = append(sinks, pg)
		closeSinks = func() {
			if err := pool.Close(); err != nil {
				logger.Error("failed to close database", slog.Any("error", err))
			}
		}
		logger.Info("postgres sink enabled")
	}

	return sinks, closeSinks
}

// setupNotifier wires the Slack notifier when a webhook URL is configured.
func setupNotifier(logger *slog.Logger) collect.Notifier {
	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")
	if webhookURL == "" {
		logger.Info("Slack notifications disabled")
		return nil
	}
	logger.Info("Slack notifications enabled")
	return notifier.NewSlackNotifier(notifier.SlackConfig{
		Enabled:    true,
		WebhookURL: webhookURL,
		Timeout:    10 * time.Second,
	})
}

// startCronWorker schedules collection runs and blocks until shutdown.
func startCronWorker(ctx context.Context, logger *slog.Logger, env runEnv, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(env.cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", env.cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(env.cfg.CronSchedule, func() {
		runCollection(ctx, logger, env)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", env.cfg.CronSchedule),
		slog.String("timezone", env.cfg.Timezone))

	<-ctx.Done()
	healthServer.SetReady(false)
	cronCtx := c.Stop()
	<-cronCtx.Done()
	logger.Info("worker stopped")
}

// runCollection executes one scheduled run: a fresh browser session, then
// every configured query in order. A dead session aborts the remainder of
// the run; the next run starts clean.
func runCollection(ctx context.Context, logger *slog.Logger, env runEnv) {
	start := time.Now()
	logger.Info("scheduled run starting", slog.Int("queries", len(env.queries)))

	session, err := browser.NewSession(ctx, browser.DefaultConfig(), logger)
	if err != nil {
		logger.Error("failed to start browser session", slog.Any("error", err))
		env.metrics.RecordRun("error")
		return
	}
	defer session.Close()

	collected := 0
	failed := false
	for _, query := range env.queries {
		taskCtx, cancel := context.WithTimeout(ctx, env.cfg.TaskTimeout)
		control := collect.NewContextControl(taskCtx, logger)

		service, err := collect.NewService(session, control, env.pipeline, logger, env.opts...)
		if err != nil {
			cancel()
			logger.Error("failed to build collection service", slog.Any("error", err))
			env.metrics.RecordRun("error")
			return
		}

		res, err := service.Run(taskCtx, query)
		cancel()

		env.metrics.RecordRun(string(res.Outcome))
		if err != nil {
			failed = true
			logger.Error("collection task failed",
				slog.String("query", query.Name),
				slog.Any("error", err))
			// A failed outcome means the session is gone; stop the run.
			break
		}
		collected++
	}

	env.metrics.RecordRunDuration(time.Since(start).Seconds())
	env.metrics.RecordQueriesCollected(collected)
	if !failed && collected == len(env.queries) {
		env.metrics.RecordLastSuccess()
	}
	logger.Info("scheduled run finished",
		slog.Int("collected", collected),
		slog.Int("queries", len(env.queries)),
		slog.Duration("elapsed", time.Since(start)))
}
