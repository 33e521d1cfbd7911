// Package worker holds the runtime scaffolding of the scheduled collector:
// environment configuration, health probes, and the worker's own metrics.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"review-scout/internal/pkg/config"
)

// Config controls the scheduled collection worker.
//
// All fields have defaults and validation rules; configuration load is
// fail-open, so an invalid environment value falls back to the default
// with a warning instead of stopping the worker.
type Config struct {
	// CronSchedule is the cron expression for scheduled collection runs.
	// Format: "minute hour day month weekday"
	// Default: "0 6 * * *" (every day at 06:00)
	CronSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Default: "Europe/Moscow"
	Timezone string

	// QueriesPath is the YAML file listing the search queries each
	// scheduled run collects.
	// Default: "queries.yaml"
	QueriesPath string

	// TaskTimeout is the maximum duration for a single collection task.
	// The task's context is cancelled at the deadline, which ends it as
	// completed-partial rather than failed.
	// Default: 30 minutes
	TaskTimeout time.Duration

	// HealthPort serves /health and /health/ready.
	// Range: 1024-65535. Default: 9091
	HealthPort int

	// MetricsPort serves the Prometheus /metrics endpoint.
	// Range: 1024-65535. Default: 9092
	MetricsPort int
}

// DefaultConfig returns production-ready defaults: one run per day at
// 06:00 Moscow time with a 30 minute budget per task.
func DefaultConfig() Config {
	return Config{
		CronSchedule: "0 6 * * *",
		Timezone:     "Europe/Moscow",
		QueriesPath:  "queries.yaml",
		TaskTimeout:  30 * time.Minute,
		HealthPort:   9091,
		MetricsPort:  9092,
	}
}

// Validate checks every field and returns the aggregated failures.
func (c *Config) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.QueriesPath == "" {
		errs = append(errs, fmt.Errorf("queries path: must not be empty"))
	}
	if err := config.ValidatePositiveDuration(c.TaskTimeout); err != nil {
		errs = append(errs, fmt.Errorf("task timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to defaults on failure.
//
// Environment variables:
//   - SCOUT_CRON_SCHEDULE: Cron expression (default: "0 6 * * *")
//   - SCOUT_WORKER_TIMEZONE: IANA timezone name (default: "Europe/Moscow")
//   - SCOUT_QUERIES_PATH: Path to the scheduled queries file
//   - SCOUT_TASK_TIMEOUT: Duration string, e.g. "30m" (range 1m-4h)
//   - SCOUT_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//   - SCOUT_METRICS_PORT: Integer 1024-65535 (default: 9092)
//
// Every fallback is logged and counted on the worker metrics; the returned
// error is always nil.
func LoadConfigFromEnv(logger *slog.Logger, metrics *Metrics) (*Config, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field string, result config.ConfigLoadResult) config.ConfigLoadResult {
		if result.FallbackApplied {
			fallbackApplied = true
			metrics.RecordValidationError(field)
			metrics.RecordFallback(field, "default")
			for _, warning := range result.Warnings {
				logger.Warn("Configuration fallback applied",
					slog.String("field", field),
					slog.String("warning", warning))
			}
		}
		return result
	}

	result := apply("cron_schedule", config.LoadEnvWithFallback("SCOUT_CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule))
	cfg.CronSchedule = result.Value.(string)

	result = apply("timezone", config.LoadEnvWithFallback("SCOUT_WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.Timezone = result.Value.(string)

	cfg.QueriesPath = config.LoadEnvString("SCOUT_QUERIES_PATH", cfg.QueriesPath)

	result = apply("task_timeout", config.LoadEnvDuration("SCOUT_TASK_TIMEOUT", cfg.TaskTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	}))
	cfg.TaskTimeout = result.Value.(time.Duration)

	result = apply("health_port", config.LoadEnvInt("SCOUT_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	}))
	cfg.HealthPort = result.Value.(int)

	result = apply("metrics_port", config.LoadEnvInt("SCOUT_METRICS_PORT", cfg.MetricsPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	}))
	cfg.MetricsPort = result.Value.(int)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
