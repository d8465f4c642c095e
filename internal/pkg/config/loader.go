package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LoadResult represents the result of loading a configuration value.
// It contains the loaded value, any warnings generated during loading,
// and a flag indicating whether a fallback value was used.
//
// Fields:
//   - Value: The loaded configuration value (the default if parsing or validation failed)
//   - Warnings: List of warning messages (one per fallback applied)
//   - FallbackApplied: True if the default value was used due to a parse or validation failure
//
// Example:
//
//	result := LoadEnvDuration("QUEUE_POLL_INTERVAL", 5*time.Second, ValidatePositiveDuration)
//	if result.FallbackApplied {
//	    for _, warning := range result.Warnings {
//	        logger.Warn("configuration fallback", slog.String("warning", warning))
//	    }
//	}
//	interval := result.Value
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// Report logs every warning of r and records the fallback on m (which may be
// nil), then returns r.Value.
//
// Example:
//
//	cfg.BatchSize = LoadEnvInt("QUEUE_BATCH_SIZE", 10, batchRange).Report(logger, metrics, "batch_size")
func (r LoadResult[T]) Report(logger *slog.Logger, m *ConfigMetrics, field string) T {
	if !r.FallbackApplied {
		return r.Value
	}
	for _, w := range r.Warnings {
		if logger != nil {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", w))
		}
	}
	if m != nil {
		m.RecordValidationError(field)
		m.RecordFallback(field)
		m.SetFallbackActive(true)
	}
	return r.Value
}

// LoadEnvString loads a string value from an environment variable.
// If the environment variable is not set, the default value is returned.
// No validation is performed.
//
// Example:
//
//	stream := LoadEnvString("QUEUE_STREAM", "notifications:main")
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnv loads a value from an environment variable with parsing,
// validation, and automatic fallback to default on failure.
//
// Loading behavior:
//  1. Read environment variable
//  2. If not set or empty: Use default value (no warning)
//  3. If set: Parse using parse
//  4. If parsing fails: Use default value and generate warning
//  5. If parsing succeeds: Validate using validator (nil skips validation)
//  6. If validation fails: Use default value and generate warning
//
// This function never returns an error. Parsing and validation failures
// result in warnings, not errors.
//
// Warning format:
//
//	"Invalid {envKey}='{value}': {error}, falling back to default '{default}'"
func LoadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) LoadResult[T] {
	valueStr := os.Getenv(envKey)

	// If environment variable is not set or empty, use default (no warning)
	if valueStr == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	fallback := func(err error) LoadResult[T] {
		warning := fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey,
			valueStr,
			err,
			defaultValue,
		)
		return LoadResult[T]{
			Value:           defaultValue,
			Warnings:        []string{warning},
			FallbackApplied: true,
		}
	}

	parsed, err := parse(valueStr)
	if err != nil {
		return fallback(err)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(err)
		}
	}

	return LoadResult[T]{Value: parsed}
}

// LoadEnvWithFallback loads a string value and validates it.
//
// Use cases:
//   - Stream key loading with ValidateStreamKey
//   - Timezone loading with ValidateTimezone
//   - Webhook URL loading with ValidateWebhookURL
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	return LoadEnv(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string ("30s", "5m", "1h30m").
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return LoadEnv(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return LoadEnv(envKey, defaultValue, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return n, nil
	}, validator)
}

// LoadEnvBool loads a boolean accepted by strconv.ParseBool
// ("1", "t", "true", "0", "f", "false" and their upper-case forms).
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return LoadEnv(envKey, defaultValue, func(s string) (bool, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return b, nil
	}, nil)
}
