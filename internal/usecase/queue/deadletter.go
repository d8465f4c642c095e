package queue

import (
	"context"
	"fmt"
	"log/slog"

	"adherence-notify/internal/domain/entity"
)

// Publisher is the part of Producer the dead-letter manager needs.
type Publisher interface {
	Publish(ctx context.Context, msg entity.NotificationMessage) (string, error)
	PublishToDeadLetter(ctx context.Context, msg entity.NotificationMessage, errText string) (string, error)
}

// AlertSink notifies operators about dead-lettered messages.
type AlertSink interface {
	NotifyDeadLetter(ctx context.Context, msg entity.NotificationMessage, errText string) error
}

// DeadLetterManager decides between a retry and the dead-letter stream for a
// failed message. It never acknowledges anything; the consumer does.
type DeadLetterManager struct {
	publisher     Publisher
	alerts        AlertSink
	alertsEnabled bool
	maxRetries    int
	logger        *slog.Logger
}

// NewDeadLetterManager creates a manager. alerts may be nil.
func NewDeadLetterManager(publisher Publisher, alerts AlertSink, alertsEnabled bool, maxRetries int, logger *slog.Logger) *DeadLetterManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeadLetterManager{
		publisher:     publisher,
		alerts:        alerts,
		alertsEnabled: alertsEnabled,
		maxRetries:    maxRetries,
		logger:        logger,
	}
}

// HandleFailure republishes msg with an incremented retry count, or moves it
// to the dead-letter stream once the count exceeds the maximum.
func (m *DeadLetterManager) HandleFailure(ctx context.Context, msg entity.NotificationMessage, errText string) {
	next := msg.WithIncrementedRetry()
	logger := m.logger.With(
		slog.String("message_id", next.MessageID),
		slog.Int64("member_id", next.MemberID),
		slog.Int("retry_count", next.RetryCount),
		slog.Int("max_retries", m.maxRetries))

	if !next.ExceedsMaxRetries(m.maxRetries) {
		if _, err := m.publisher.Publish(ctx, next); err != nil {
			// The original entry is acknowledged regardless, so this attempt is lost.
			logger.Error("failed to republish notification for retry", slog.Any("error", err))
			return
		}
		logger.Info("notification scheduled for retry", slog.String("reason", errText))
		return
	}

	alertText := errText
	if _, err := m.publisher.PublishToDeadLetter(ctx, next, errText); err != nil {
		// The original entry is acknowledged regardless, so the message is gone.
		RecordDeadLetterLost()
		logger.Error("notification lost, dead-letter append failed",
			slog.String("reason", errText),
			slog.Any("error", err))
		alertText = fmt.Sprintf("%s (not stored in the dead-letter stream: %v)", errText, err)
	} else {
		RecordDeadLettered(next.NotificationType)
	}

	if !m.alertsEnabled || m.alerts == nil {
		return
	}
	if err := m.alerts.NotifyDeadLetter(ctx, next, alertText); err != nil {
		RecordAlertFailure()
		logger.Warn("dead-letter alert failed", slog.Any("error", err))
	}
}
