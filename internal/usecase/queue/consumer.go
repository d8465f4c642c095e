package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/observability/logging"
	"adherence-notify/internal/observability/tracing"
)

// Processor delivers one notification message. A nil error means the
// message is done (delivered or deliberately suppressed).
type Processor interface {
	Process(ctx context.Context, msg entity.NotificationMessage) (entity.DeliveryOutcome, error)
}

// FailureHandler decides what happens to a message whose processing failed.
type FailureHandler interface {
	HandleFailure(ctx context.Context, msg entity.NotificationMessage, errText string)
}

// StatsSource reports stream statistics. Producer implements it.
type StatsSource interface {
	Stats(ctx context.Context) (Stats, error)
}

// Consumer polls the main stream on a fixed interval and processes each
// claimed entry sequentially. Every entry it reads is acknowledged.
type Consumer struct {
	store     Store
	cfg       Config
	processor Processor
	failures  FailureHandler
	stats     StatsSource
	logger    *slog.Logger

	stopping atomic.Bool

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// ConsumerOption customizes a Consumer.
type ConsumerOption func(*Consumer)

// WithStatsSource refreshes the stream gauges after every tick.
func WithStatsSource(s StatsSource) ConsumerOption {
	return func(c *Consumer) { c.stats = s }
}

// NewConsumer creates a consumer. A nil logger uses slog.Default().
func NewConsumer(store Store, cfg Config, processor Processor, failures FailureHandler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		store:     store,
		cfg:       cfg,
		processor: processor,
		failures:  failures,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start schedules Tick every PollInterval. A tick that is still running when
// the next one is due causes that one to be skipped.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		return errors.New("consumer already started")
	}
	if c.cfg.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval %s", c.cfg.PollInterval)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(c.logger.Handler(), slog.LevelWarn))
	cr := cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	if _, err := cr.AddFunc(fmt.Sprintf("@every %s", c.cfg.PollInterval), func() {
		c.Tick(runCtx)
	}); err != nil {
		cancel()
		return fmt.Errorf("schedule consumer tick: %w", err)
	}

	c.stopping.Store(false)
	c.cron = cr
	c.cancel = cancel
	cr.Start()

	c.logger.Info("stream consumer started",
		slog.String("stream", c.cfg.MainStream),
		slog.String("group", c.cfg.Group),
		slog.String("consumer", c.cfg.Consumer),
		slog.Duration("poll_interval", c.cfg.PollInterval),
		slog.Int64("batch_size", c.cfg.BatchSize))
	return nil
}

// Stop prevents new ticks and waits for the in-flight tick to finish or for
// ctx to expire, whichever comes first. The in-flight tick is never
// interrupted mid-batch while ctx is live.
func (c *Consumer) Stop(ctx context.Context) error {
	c.stopping.Store(true)

	c.mu.Lock()
	cr, cancel := c.cron, c.cancel
	c.cron, c.cancel = nil, nil
	c.mu.Unlock()

	if cr == nil {
		return nil
	}
	defer cancel()

	done := cr.Stop()
	select {
	case <-done.Done():
		c.logger.Info("stream consumer stopped")
		return nil
	case <-ctx.Done():
		c.logger.Warn("stream consumer stop timed out, abandoning in-flight tick")
		return ctx.Err()
	}
}

// Tick first claims entries left pending longer than ClaimMinIdle, then
// tops the batch up with one bounded read of new entries, and processes them
// all.
func (c *Consumer) Tick(ctx context.Context) {
	if c.stopping.Load() {
		return
	}

	entries := c.claimStale(ctx)
	if int64(len(entries)) < c.cfg.BatchSize {
		block := c.cfg.PollTimeout
		if len(entries) > 0 {
			block = 0
		}
		fresh, err := c.store.ReadGroup(ctx, entity.ReadRequest{
			Stream:   c.cfg.MainStream,
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			Count:    c.cfg.BatchSize - int64(len(entries)),
			Block:    block,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.handleReadError(ctx, err)
			if len(entries) == 0 {
				return
			}
		}
		entries = append(entries, fresh...)
	}

	RecordTick(len(entries))
	for _, e := range entries {
		// Finish the claimed batch even once stopping is set, so nothing read
		// is left unacknowledged.
		c.processEntry(ctx, e)
	}

	c.refreshStats(ctx)
}

// claimStale takes over entries any consumer of the group left unacknowledged,
// such as this consumer before a restart. A failed claim only skips the
// reclaim for this tick.
func (c *Consumer) claimStale(ctx context.Context) []entity.StreamEntry {
	if c.cfg.ClaimMinIdle <= 0 {
		return nil
	}
	claimed, err := c.store.ClaimStale(ctx, entity.ClaimRequest{
		Stream:   c.cfg.MainStream,
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		MinIdle:  c.cfg.ClaimMinIdle,
		Count:    c.cfg.BatchSize,
	})
	if err != nil {
		if ctx.Err() == nil && !errors.Is(err, entity.ErrConsumerGroupMissing) {
			c.logger.Warn("failed to claim stale entries",
				slog.String("stream", c.cfg.MainStream),
				slog.Any("error", err))
		}
		return nil
	}
	if len(claimed) > 0 {
		RecordReclaimed(len(claimed))
		c.logger.Info("claimed stale pending entries",
			slog.String("stream", c.cfg.MainStream),
			slog.Int("count", len(claimed)))
	}
	return claimed
}

// handleReadError logs a failed read and recreates a missing group.
func (c *Consumer) handleReadError(ctx context.Context, err error) {
	RecordReadError()
	if errors.Is(err, entity.ErrConsumerGroupMissing) {
		c.logger.Warn("consumer group missing, recreating",
			slog.String("stream", c.cfg.MainStream),
			slog.String("group", c.cfg.Group))
		if cerr := c.store.CreateGroup(ctx, c.cfg.MainStream, c.cfg.Group); cerr != nil {
			c.logger.Error("failed to recreate consumer group", slog.Any("error", cerr))
		}
		return
	}
	c.logger.Error("failed to read from stream",
		slog.String("stream", c.cfg.MainStream),
		slog.Any("error", err))
}

func (c *Consumer) processEntry(ctx context.Context, e entity.StreamEntry) {
	start := time.Now()
	ctx, span := tracing.StartConsumerSpan(ctx, c.cfg.MainStream, e.ID)
	defer span.End()
	defer func() { RecordProcessingDuration(time.Since(start)) }()
	defer c.ack(ctx, e.ID)

	payload, ok := e.Payload()
	if !ok {
		RecordFailed("missing_payload")
		c.logger.Warn("stream entry without payload, dropping", slog.String("entry_id", e.ID))
		tracing.RecordError(span, entity.ErrInvalidPayload)
		return
	}

	msg, err := entity.UnmarshalNotificationMessage([]byte(payload))
	if err != nil {
		RecordFailed("deserialize")
		c.logger.Warn("undecodable stream entry, dropping",
			slog.String("entry_id", e.ID),
			slog.String("message_id", e.Fields[entity.FieldMessageID]),
			slog.Any("error", err))
		tracing.RecordError(span, err)
		return
	}

	logger := logging.WithMessage(c.logger, msg).With(slog.String("entry_id", e.ID))
	span.SetAttributes(tracing.MessageAttributes(msg)...)

	outcome, err := c.process(ctx, msg)
	if err != nil {
		RecordFailed("delivery")
		tracing.RecordError(span, err)
		logger.Warn("notification processing failed", slog.Any("error", err))
		c.failures.HandleFailure(ctx, msg, err.Error())
		return
	}

	RecordProcessed(outcome)
	logger.Debug("notification processed", slog.String("outcome", string(outcome)))
}

// process runs the processor, turning a panic into an error.
func (c *Consumer) process(ctx context.Context, msg entity.NotificationMessage) (outcome entity.DeliveryOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = entity.OutcomeFailed
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return c.processor.Process(ctx, msg)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	// Ack even when ctx was cancelled mid-entry.
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := c.store.Ack(ackCtx, c.cfg.MainStream, c.cfg.Group, id); err != nil {
		RecordAckFailure()
		c.logger.Error("failed to acknowledge stream entry",
			slog.String("entry_id", id),
			slog.Any("error", err))
	}
}

func (c *Consumer) refreshStats(ctx context.Context) {
	if c.stats == nil {
		return
	}
	stats, err := c.stats.Stats(ctx)
	if err != nil {
		c.logger.Debug("failed to refresh stream stats", slog.Any("error", err))
	}
	SetStats(c.cfg, stats)
}
