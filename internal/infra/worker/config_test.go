package worker

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// Shared across tests: promauto registers on the default registry, so the
// metrics can only be constructed once per process.
var testMetrics = NewMetrics()

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.CronSchedule != "0 6 * * *" {
		t.Errorf("unexpected default schedule: %s", cfg.CronSchedule)
	}
	if cfg.TaskTimeout != 30*time.Minute {
		t.Errorf("unexpected default timeout: %v", cfg.TaskTimeout)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SCOUT_CRON_SCHEDULE", "15 */2 * * *")
	t.Setenv("SCOUT_WORKER_TIMEZONE", "UTC")
	t.Setenv("SCOUT_QUERIES_PATH", "/etc/scout/queries.yaml")
	t.Setenv("SCOUT_TASK_TIMEOUT", "45m")
	t.Setenv("SCOUT_HEALTH_PORT", "8081")
	t.Setenv("SCOUT_METRICS_PORT", "8082")

	cfg, err := LoadConfigFromEnv(discardLogger(), testMetrics)
	if err != nil {
		t.Fatalf("load must not fail: %v", err)
	}
	if cfg.CronSchedule != "15 */2 * * *" {
		t.Errorf("schedule not loaded: %s", cfg.CronSchedule)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("timezone not loaded: %s", cfg.Timezone)
	}
	if cfg.QueriesPath != "/etc/scout/queries.yaml" {
		t.Errorf("queries path not loaded: %s", cfg.QueriesPath)
	}
	if cfg.TaskTimeout != 45*time.Minute {
		t.Errorf("timeout not loaded: %v", cfg.TaskTimeout)
	}
	if cfg.HealthPort != 8081 || cfg.MetricsPort != 8082 {
		t.Errorf("ports not loaded: %d %d", cfg.HealthPort, cfg.MetricsPort)
	}
}

func TestLoadConfigFromEnvFailsOpen(t *testing.T) {
	t.Setenv("SCOUT_CRON_SCHEDULE", "not a cron line")
	t.Setenv("SCOUT_TASK_TIMEOUT", "10h") // outside 1m-4h range
	t.Setenv("SCOUT_HEALTH_PORT", "80")   // privileged

	cfg, err := LoadConfigFromEnv(discardLogger(), testMetrics)
	if err != nil {
		t.Fatalf("fail-open load must not error: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.CronSchedule != defaults.CronSchedule {
		t.Errorf("expected default schedule fallback, got %s", cfg.CronSchedule)
	}
	if cfg.TaskTimeout != defaults.TaskTimeout {
		t.Errorf("expected default timeout fallback, got %v", cfg.TaskTimeout)
	}
	if cfg.HealthPort != defaults.HealthPort {
		t.Errorf("expected default health port fallback, got %d", cfg.HealthPort)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad schedule", func(c *Config) { c.CronSchedule = "nope" }, "cron schedule"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"empty queries path", func(c *Config) { c.QueriesPath = "" }, "queries path"},
		{"zero timeout", func(c *Config) { c.TaskTimeout = 0 }, "task timeout"},
		{"privileged health port", func(c *Config) { c.HealthPort = 80 }, "health port"},
		{"metrics port too high", func(c *Config) { c.MetricsPort = 70000 }, "metrics port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q missing %q", err, tt.wantErr)
			}
		})
	}
}
