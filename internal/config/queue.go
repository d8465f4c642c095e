package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"adherence-notify/internal/infra/stream"
	pkgconfig "adherence-notify/internal/pkg/config"
	"adherence-notify/internal/usecase/queue"
)

// Stream backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// QueueConfig configures the notification stream, its consumer and the
// Redis connection.
type QueueConfig struct {
	Enabled bool
	Backend string

	MainStream       string
	DeadLetterStream string
	Group            string
	Consumer         string

	BatchSize    int
	PollTimeout  time.Duration
	PollInterval time.Duration
	MaxRetries   int
	// ClaimMinIdle of zero disables reclaiming stale pending entries.
	ClaimMinIdle time.Duration
	// StreamMaxLen approximately caps the main stream on Redis. Zero leaves
	// it uncapped. The dead-letter stream is never trimmed.
	StreamMaxLen int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultQueueConfig returns the documented defaults.
func DefaultQueueConfig() QueueConfig {
	d := queue.DefaultConfig()
	return QueueConfig{
		Enabled:          false,
		Backend:          BackendRedis,
		MainStream:       d.MainStream,
		DeadLetterStream: d.DeadLetterStream,
		Group:            d.Group,
		Consumer:         defaultConsumerName(),
		BatchSize:        int(d.BatchSize),
		PollTimeout:      d.PollTimeout,
		PollInterval:     d.PollInterval,
		MaxRetries:       d.MaxRetries,
		ClaimMinIdle:     d.ClaimMinIdle,
		StreamMaxLen:     1_000_000,
		RedisAddr:        "localhost:6379",
	}
}

// defaultConsumerName is the hostname, so replicas get distinct consumer
// names within the group.
func defaultConsumerName() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "consumer-1"
}

func validateBackend(s string) error {
	if s != BackendRedis && s != BackendMemory {
		return fmt.Errorf("unknown backend %q, expected %q or %q", s, BackendRedis, BackendMemory)
	}
	return nil
}

// LoadQueueConfig reads QUEUE_* and REDIS_* variables. Invalid values fall
// back to defaults with a warning and a config metric; loading never fails.
func LoadQueueConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) QueueConfig {
	cfg := DefaultQueueConfig()

	cfg.Enabled = pkgconfig.LoadEnvBool("QUEUE_ENABLED", cfg.Enabled).Report(logger, metrics, "enabled")
	cfg.Backend = pkgconfig.LoadEnvWithFallback("QUEUE_BACKEND", cfg.Backend, validateBackend).Report(logger, metrics, "backend")
	cfg.MainStream = pkgconfig.LoadEnvWithFallback("QUEUE_STREAM", cfg.MainStream, pkgconfig.ValidateStreamKey).Report(logger, metrics, "stream")
	cfg.DeadLetterStream = pkgconfig.LoadEnvWithFallback("QUEUE_DLQ_STREAM", cfg.DeadLetterStream, pkgconfig.ValidateStreamKey).Report(logger, metrics, "dlq_stream")
	cfg.Group = pkgconfig.LoadEnvWithFallback("QUEUE_CONSUMER_GROUP", cfg.Group, pkgconfig.ValidateStreamKey).Report(logger, metrics, "consumer_group")
	cfg.Consumer = pkgconfig.LoadEnvWithFallback("QUEUE_CONSUMER_NAME", cfg.Consumer, pkgconfig.ValidateStreamKey).Report(logger, metrics, "consumer_name")

	cfg.BatchSize = pkgconfig.LoadEnvInt("QUEUE_BATCH_SIZE", cfg.BatchSize, pkgconfig.IntRange(1, 500)).Report(logger, metrics, "batch_size")
	cfg.PollTimeout = pkgconfig.LoadEnvDuration("QUEUE_POLL_TIMEOUT", cfg.PollTimeout, pkgconfig.DurationRange(0, time.Minute)).Report(logger, metrics, "poll_timeout")
	cfg.PollInterval = pkgconfig.LoadEnvDuration("QUEUE_POLL_INTERVAL", cfg.PollInterval, pkgconfig.DurationRange(100*time.Millisecond, 5*time.Minute)).Report(logger, metrics, "poll_interval")
	cfg.MaxRetries = pkgconfig.LoadEnvInt("QUEUE_MAX_RETRIES", cfg.MaxRetries, pkgconfig.IntRange(0, 20)).Report(logger, metrics, "max_retries")
	cfg.ClaimMinIdle = pkgconfig.LoadEnvDuration("QUEUE_CLAIM_MIN_IDLE", cfg.ClaimMinIdle, pkgconfig.DurationRange(0, time.Hour)).Report(logger, metrics, "claim_min_idle")
	cfg.StreamMaxLen = pkgconfig.LoadEnvInt("QUEUE_STREAM_MAXLEN", cfg.StreamMaxLen, pkgconfig.IntRange(0, 100_000_000)).Report(logger, metrics, "stream_maxlen")

	cfg.RedisAddr = pkgconfig.LoadEnvWithFallback("REDIS_ADDR", cfg.RedisAddr, pkgconfig.ValidateHostPort).Report(logger, metrics, "redis_addr")
	cfg.RedisPassword = pkgconfig.LoadEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = pkgconfig.LoadEnvInt("REDIS_DB", 0, pkgconfig.IntRange(0, 15)).Report(logger, metrics, "redis_db")

	if metrics != nil {
		metrics.RecordLoadTimestamp()
	}
	return cfg
}

// Validate checks a programmatically built configuration.
func (c QueueConfig) Validate() error {
	var errs []error
	if err := validateBackend(c.Backend); err != nil {
		errs = append(errs, fmt.Errorf("backend: %w", err))
	}
	for name, key := range map[string]string{
		"stream":         c.MainStream,
		"dlq stream":     c.DeadLetterStream,
		"consumer group": c.Group,
		"consumer name":  c.Consumer,
	} {
		if err := pkgconfig.ValidateStreamKey(key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.MainStream == c.DeadLetterStream {
		errs = append(errs, errors.New("stream and dlq stream must differ"))
	}
	if err := pkgconfig.ValidateIntRange(c.BatchSize, 1, 500); err != nil {
		errs = append(errs, fmt.Errorf("batch size: %w", err))
	}
	if err := pkgconfig.ValidateDuration(c.PollTimeout, 0, time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("poll timeout: %w", err))
	}
	if err := pkgconfig.ValidateDuration(c.PollInterval, 100*time.Millisecond, 5*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("poll interval: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.MaxRetries, 0, 20); err != nil {
		errs = append(errs, fmt.Errorf("max retries: %w", err))
	}
	if err := pkgconfig.ValidateDuration(c.ClaimMinIdle, 0, time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("claim min idle: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.StreamMaxLen, 0, 100_000_000); err != nil {
		errs = append(errs, fmt.Errorf("stream maxlen: %w", err))
	}
	return errors.Join(errs...)
}

// Queue returns the settings used by the producer and consumer.
func (c QueueConfig) Queue() queue.Config {
	return queue.Config{
		MainStream:       c.MainStream,
		DeadLetterStream: c.DeadLetterStream,
		Group:            c.Group,
		Consumer:         c.Consumer,
		BatchSize:        int64(c.BatchSize),
		PollTimeout:      c.PollTimeout,
		PollInterval:     c.PollInterval,
		MaxRetries:       c.MaxRetries,
		ClaimMinIdle:     c.ClaimMinIdle,
	}
}

// StoreOptions returns the Redis stream store options: the main stream cap.
func (c QueueConfig) StoreOptions() []stream.RedisStoreOption {
	if c.StreamMaxLen <= 0 {
		return nil
	}
	return []stream.RedisStoreOption{stream.WithMaxLen(c.MainStream, int64(c.StreamMaxLen))}
}

// Redis returns the Redis connection settings.
func (c QueueConfig) Redis() stream.RedisConfig {
	return stream.RedisConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
