// Package notifier delivers dead-letter alerts to operator channels.
// It defines the Notifier interface which allows different mechanisms
// (Discord, Slack, NATS) to be used interchangeably through dependency injection.
//
// The package includes webhook implementations for Discord and Slack, a NATS
// publisher, and a no-op notifier for when alerting is disabled.
package notifier

import (
	"context"
	"time"

	"adherence-notify/internal/domain/entity"
)

// Notifier is an interface for sending dead-letter alerts.
// Implementations should handle rate limiting, retries, and error logging internally.
type Notifier interface {
	// NotifyDeadLetter reports a message that exhausted its retries.
	//
	// Implementations should:
	//   - Apply rate limiting to prevent API abuse
	//   - Retry transient failures with backoff
	//   - Never include push content beyond the title in the alert
	//   - Respect context cancellation
	NotifyDeadLetter(ctx context.Context, alert DeadLetterAlert) error
}

// DeadLetterAlert is what operators see about a dead-lettered message.
type DeadLetterAlert struct {
	MessageID        string                  `json:"messageId"`
	MemberID         int64                   `json:"memberId"`
	NotificationType entity.NotificationType `json:"notificationType"`
	Title            string                  `json:"title"`
	RetryCount       int                     `json:"retryCount"`
	CreatedAt        time.Time               `json:"createdAt"`
	DeadLetteredAt   time.Time               `json:"deadLetteredAt"`
	Error            string                  `json:"error"`
}

// NewDeadLetterAlert builds an alert for msg at the given time.
func NewDeadLetterAlert(msg entity.NotificationMessage, errText string, at time.Time) DeadLetterAlert {
	return DeadLetterAlert{
		MessageID:        msg.MessageID,
		MemberID:         msg.MemberID,
		NotificationType: msg.NotificationType,
		Title:            msg.Title,
		RetryCount:       msg.RetryCount,
		CreatedAt:        msg.CreatedAt,
		DeadLetteredAt:   at,
		Error:            errText,
	}
}
