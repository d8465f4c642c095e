package worker

import (
	"fmt"
	"log/slog"
	"time"

	"adherence-notify/internal/pkg/config"
)

// WorkerConfig holds the process-level configuration of the worker: the
// timezone used for quiet hours and reminders, the health and metrics ports
// and the graceful shutdown budget.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// All fields have defaults and validation rules so the worker can start
// even with invalid or missing configuration.
//
// Example usage:
//
//	cfg := worker.LoadConfigFromEnv(logger, metrics)
//	loc, _ := time.LoadLocation(cfg.Timezone)
type WorkerConfig struct {
	// Timezone is the IANA zone quiet hours and reminder schedules are
	// evaluated in.
	// Environment variable: WORKER_TIMEZONE
	// Default: "Asia/Seoul"
	Timezone string

	// HealthPort serves /health and /health/ready.
	// Environment variable: WORKER_HEALTH_PORT
	// Default: 9091
	HealthPort int

	// MetricsPort serves /metrics and /health/channels.
	// Environment variable: METRICS_PORT
	// Default: 9090
	MetricsPort int

	// ShutdownTimeout bounds the graceful stop of the consumer, scheduler
	// and alert dispatch.
	// Environment variable: WORKER_SHUTDOWN_TIMEOUT
	// Default: 30s
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a WorkerConfig with default values.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		Timezone:        "Asia/Seoul",
		HealthPort:      9091,
		MetricsPort:     9090,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate checks all fields and returns every problem found.
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("metrics port: %w", err))
	}

	if c.HealthPort == c.MetricsPort {
		errors = append(errors, fmt.Errorf("health port and metrics port must differ"))
	}

	if err := config.ValidateDuration(c.ShutdownTimeout, time.Second, 5*time.Minute); err != nil {
		errors = append(errors, fmt.Errorf("shutdown timeout: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// Location returns the configured timezone, or UTC if it cannot be loaded.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads the worker configuration with a fail-open
// strategy: invalid values are replaced by defaults, logged as warnings and
// recorded on metrics. It never fails.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	cm := metrics.ConfigMetrics

	tz := config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = tz.Report(logger, cm, "timezone")

	health := config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, config.IntRange(1024, 65535))
	cfg.HealthPort = health.Report(logger, cm, "health_port")

	metricsPort := config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, config.IntRange(1024, 65535))
	cfg.MetricsPort = metricsPort.Report(logger, cm, "metrics_port")

	shutdown := config.LoadEnvDuration("WORKER_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout, config.DurationRange(time.Second, 5*time.Minute))
	cfg.ShutdownTimeout = shutdown.Report(logger, cm, "shutdown_timeout")

	fallbackApplied := tz.FallbackApplied || health.FallbackApplied || metricsPort.FallbackApplied || shutdown.FallbackApplied
	cm.SetFallbackActive(fallbackApplied)
	cm.RecordLoadTimestamp()

	return &cfg
}
