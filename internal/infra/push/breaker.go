package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/resilience/circuitbreaker"
)

// Sender is what the breaker decorates. It matches delivery.PushSender.
type Sender interface {
	Send(ctx context.Context, target entity.DeviceTarget, msg entity.NotificationMessage) error
}

// BreakerSender stops calling the provider while it is failing. Token
// rejections do not count as failures. No in-process retry happens here;
// a rejected send fails the message, which is retried through the stream.
type BreakerSender struct {
	next Sender
	cb   *circuitbreaker.CircuitBreaker
}

// NewBreakerSender wraps next with the push provider circuit breaker.
func NewBreakerSender(next Sender) *BreakerSender {
	return NewBreakerSenderWithConfig(next, circuitbreaker.PushProviderConfig(isInvalidToken))
}

// NewBreakerSenderWithConfig wraps next with a custom breaker configuration.
func NewBreakerSenderWithConfig(next Sender, cfg circuitbreaker.Config) *BreakerSender {
	return &BreakerSender{next: next, cb: circuitbreaker.New(cfg)}
}

// Send forwards to the wrapped sender through the breaker.
func (b *BreakerSender) Send(ctx context.Context, target entity.DeviceTarget, msg entity.NotificationMessage) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Send(ctx, target, msg)
	})
	if err != nil && circuitbreaker.IsRejected(err) {
		RecordBreakerRejection()
		slog.Warn("push provider circuit breaker open, send rejected",
			slog.String("state", b.cb.State().String()),
			slog.String("message_id", msg.MessageID))
		return fmt.Errorf("push provider unavailable: %w", err)
	}
	return err
}

// State reports the breaker state for health checks.
func (b *BreakerSender) State() string {
	return b.cb.State().String()
}

func isInvalidToken(err error) bool {
	return errors.Is(err, entity.ErrInvalidToken)
}
