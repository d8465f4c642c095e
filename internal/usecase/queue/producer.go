package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/resilience/retry"
)

const defaultDeadLetterError = "Unknown error"

// Stats describes the streams at one point in time. MainLength counts
// acknowledged entries too, so it is not a measure of outstanding work;
// Pending is.
type Stats struct {
	MainLength       int64
	DeadLetterLength int64
	Pending          int64
}

// Producer appends notification messages to the main and dead-letter streams.
type Producer struct {
	store  Store
	cfg    Config
	retry  retry.Config
	logger *slog.Logger
}

// NewProducer creates a producer. A nil logger uses slog.Default().
func NewProducer(store Store, cfg Config, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		store:  store,
		cfg:    cfg,
		retry:  retry.StreamConfig(),
		logger: logger,
	}
}

// Publish appends msg to the main stream and returns the entry id.
// Transient store errors are retried briefly; the returned error is final.
// An append that timed out after Redis applied it is appended again, leaving
// two entries with the same messageId.
func (p *Producer) Publish(ctx context.Context, msg entity.NotificationMessage) (string, error) {
	if err := msg.Validate(); err != nil {
		RecordPublishFailed(p.cfg.MainStream, "invalid")
		return "", fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.ExceedsMaxRetries(p.cfg.MaxRetries) {
		RecordPublishFailed(p.cfg.MainStream, "retries_exhausted")
		return "", fmt.Errorf("%w: retry count %d above max %d", ErrRetriesExhausted, msg.RetryCount, p.cfg.MaxRetries)
	}

	payload, err := msg.MarshalPayload()
	if err != nil {
		RecordPublishFailed(p.cfg.MainStream, "serialize")
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	fields := []entity.StreamField{
		{Name: entity.FieldMessageID, Value: msg.MessageID},
		{Name: entity.FieldPayload, Value: payload},
	}

	var id string
	err = retry.WithBackoff(ctx, p.retry, func() error {
		var appendErr error
		id, appendErr = p.store.Append(ctx, p.cfg.MainStream, fields)
		return appendErr
	})
	if err != nil {
		RecordPublishFailed(p.cfg.MainStream, "store")
		p.logger.Error("failed to publish notification",
			slog.String("message_id", msg.MessageID),
			slog.Int64("member_id", msg.MemberID),
			slog.Int("retry_count", msg.RetryCount),
			slog.Any("error", err))
		return "", fmt.Errorf("publish %s: %w", msg.MessageID, err)
	}

	RecordPublished(msg.RetryCount > 0)
	p.logger.Debug("notification published",
		slog.String("message_id", msg.MessageID),
		slog.String("entry_id", id),
		slog.Int64("member_id", msg.MemberID),
		slog.String("type", string(msg.NotificationType)),
		slog.Int("retry_count", msg.RetryCount))
	return id, nil
}

// PublishToDeadLetter appends msg and the failure reason to the dead-letter
// stream and returns the entry id. Like Publish, transient store errors are
// retried briefly and the returned error is final.
func (p *Producer) PublishToDeadLetter(ctx context.Context, msg entity.NotificationMessage, errText string) (string, error) {
	if errText == "" {
		errText = defaultDeadLetterError
	}

	payload, err := msg.MarshalPayload()
	if err != nil {
		RecordPublishFailed(p.cfg.DeadLetterStream, "serialize")
		p.logger.Error("failed to serialize dead-letter message",
			slog.String("message_id", msg.MessageID),
			slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	fields := []entity.StreamField{
		{Name: entity.FieldMessageID, Value: msg.MessageID},
		{Name: entity.FieldPayload, Value: payload},
		{Name: entity.FieldError, Value: errText},
	}

	var id string
	err = retry.WithBackoff(ctx, p.retry, func() error {
		var appendErr error
		id, appendErr = p.store.Append(ctx, p.cfg.DeadLetterStream, fields)
		return appendErr
	})
	if err != nil {
		RecordPublishFailed(p.cfg.DeadLetterStream, "store")
		p.logger.Error("failed to publish to dead-letter stream",
			slog.String("message_id", msg.MessageID),
			slog.Int64("member_id", msg.MemberID),
			slog.String("reason", errText),
			slog.Any("error", err))
		return "", fmt.Errorf("dead-letter %s: %w", msg.MessageID, err)
	}

	p.logger.Warn("notification moved to dead-letter stream",
		slog.String("message_id", msg.MessageID),
		slog.String("entry_id", id),
		slog.Int64("member_id", msg.MemberID),
		slog.Int("retry_count", msg.RetryCount),
		slog.String("reason", errText))
	return id, nil
}

// EnsureConsumerGroup creates the consumer group on the main stream. It is
// safe to call when the group already exists.
func (p *Producer) EnsureConsumerGroup(ctx context.Context) error {
	if err := p.store.CreateGroup(ctx, p.cfg.MainStream, p.cfg.Group); err != nil {
		return fmt.Errorf("ensure consumer group %s on %s: %w", p.cfg.Group, p.cfg.MainStream, err)
	}
	p.logger.Info("consumer group ready",
		slog.String("stream", p.cfg.MainStream),
		slog.String("group", p.cfg.Group))
	return nil
}

// Stats reads stream lengths and the group's pending count.
func (p *Producer) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var errs []error

	var err error
	if stats.MainLength, err = p.store.Len(ctx, p.cfg.MainStream); err != nil {
		errs = append(errs, err)
		stats.MainLength = -1
	}
	if stats.DeadLetterLength, err = p.store.Len(ctx, p.cfg.DeadLetterStream); err != nil {
		errs = append(errs, err)
		stats.DeadLetterLength = -1
	}
	if stats.Pending, err = p.store.Pending(ctx, p.cfg.MainStream, p.cfg.Group); err != nil {
		errs = append(errs, err)
		stats.Pending = -1
	}

	return stats, errors.Join(errs...)
}
