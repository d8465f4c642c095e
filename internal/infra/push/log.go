package push

import (
	"context"
	"log/slog"

	"adherence-notify/internal/domain/entity"
)

// LogSender logs pushes instead of sending them. It is selected with
// PUSH_PROVIDER=log for local development.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender. A nil logger uses slog.Default().
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send always succeeds.
func (s *LogSender) Send(ctx context.Context, target entity.DeviceTarget, msg entity.NotificationMessage) error {
	s.logger.InfoContext(ctx, "push notification (log provider)",
		slog.String("message_id", msg.MessageID),
		slog.Int64("member_id", msg.MemberID),
		slog.String("type", string(msg.NotificationType)),
		slog.String("platform", string(target.Platform)),
		slog.String("token", target.MaskedToken()))
	RecordSend("log", "success", 0)
	return nil
}
