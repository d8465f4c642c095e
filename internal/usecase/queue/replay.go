package queue

import (
	"context"
	"fmt"
	"log/slog"

	"adherence-notify/internal/domain/entity"
)

// DeadLetter is one entry of the dead-letter stream. Message is the zero
// value when the payload could not be decoded; DecodeErr says why.
type DeadLetter struct {
	EntryID   string
	Message   entity.NotificationMessage
	Error     string
	DecodeErr error
}

// DeadLetterBrowser lists and replays dead-lettered messages for operators.
type DeadLetterBrowser struct {
	store     BrowsableStore
	publisher Publisher
	cfg       Config
	logger    *slog.Logger
}

// NewDeadLetterBrowser creates a browser over cfg.DeadLetterStream that
// republishes through publisher.
func NewDeadLetterBrowser(store BrowsableStore, publisher Publisher, cfg Config, logger *slog.Logger) *DeadLetterBrowser {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeadLetterBrowser{store: store, publisher: publisher, cfg: cfg, logger: logger}
}

// List returns up to count dead letters, oldest first. count <= 0 means all.
func (b *DeadLetterBrowser) List(ctx context.Context, count int64) ([]DeadLetter, error) {
	entries, err := b.store.Range(ctx, b.cfg.DeadLetterStream, "-", "+", count)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", b.cfg.DeadLetterStream, err)
	}
	out := make([]DeadLetter, 0, len(entries))
	for _, e := range entries {
		out = append(out, toDeadLetter(e))
	}
	return out, nil
}

// Replay republishes the dead letter entryID on the main stream with its
// retry count reset, then deletes it from the dead-letter stream. It returns
// the new main-stream entry id.
func (b *DeadLetterBrowser) Replay(ctx context.Context, entryID string) (string, error) {
	entries, err := b.store.Range(ctx, b.cfg.DeadLetterStream, entryID, entryID, 1)
	if err != nil {
		return "", fmt.Errorf("range %s: %w", b.cfg.DeadLetterStream, err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("%w: %s", ErrDeadLetterNotFound, entryID)
	}

	dl := toDeadLetter(entries[0])
	if dl.DecodeErr != nil {
		return "", fmt.Errorf("dead letter %s: %w", entryID, dl.DecodeErr)
	}

	newID, err := b.publisher.Publish(ctx, dl.Message.WithResetRetry())
	if err != nil {
		return "", fmt.Errorf("republish %s: %w", dl.Message.MessageID, err)
	}

	// The message is already back on the main stream; a failed delete only
	// leaves a stale dead letter behind.
	if _, err := b.store.Delete(ctx, b.cfg.DeadLetterStream, entryID); err != nil {
		b.logger.Warn("replayed dead letter could not be deleted",
			slog.String("entry_id", entryID),
			slog.Any("error", err))
	}

	RecordReplayed()
	b.logger.Info("dead letter replayed",
		slog.String("entry_id", entryID),
		slog.String("new_entry_id", newID),
		slog.String("message_id", dl.Message.MessageID),
		slog.Int64("member_id", dl.Message.MemberID))
	return newID, nil
}

func toDeadLetter(e entity.StreamEntry) DeadLetter {
	dl := DeadLetter{EntryID: e.ID, Error: e.Fields[entity.FieldError]}
	payload, ok := e.Payload()
	if !ok {
		dl.DecodeErr = entity.ErrInvalidPayload
		return dl
	}
	dl.Message, dl.DecodeErr = entity.UnmarshalNotificationMessage([]byte(payload))
	return dl
}
