// Package queue moves notification messages through the main stream and the
// dead-letter stream.
//
// Delivery semantics are at-least-once up to the acknowledgement: the
// consumer acknowledges every entry it reads, whether processing succeeded,
// failed or the payload was unreadable. Failed messages are retried by
// appending a new entry with an incremented retry count, never by leaving the
// original entry pending.
//
// An entry left pending by a crash between read and ack is claimed again
// once it has been idle for ClaimMinIdle, by whichever consumer of the group
// ticks next. That entry may already have been pushed, so a crash can
// duplicate a push.
//
// Appends are retried in process on transient store errors. When an XADD
// times out after Redis applied it, the retry appends a second entry with
// the same messageId and retry count, so a retry can also be published
// twice. Downstream consumers must tolerate duplicates keyed by messageId.
package queue

import (
	"context"
	"time"

	"adherence-notify/internal/domain/entity"
)

// Store is the stream store the queue runs on. infra/stream provides Redis
// and in-memory implementations.
type Store interface {
	Append(ctx context.Context, stream string, fields []entity.StreamField) (string, error)
	CreateGroup(ctx context.Context, stream, group string) error
	ReadGroup(ctx context.Context, req entity.ReadRequest) ([]entity.StreamEntry, error)
	ClaimStale(ctx context.Context, req entity.ClaimRequest) ([]entity.StreamEntry, error)
	Ack(ctx context.Context, stream, group string, ids ...string) error
	Len(ctx context.Context, stream string) (int64, error)
	Pending(ctx context.Context, stream, group string) (int64, error)
}

// BrowsableStore adds the operations used by dead-letter tooling.
type BrowsableStore interface {
	Store
	Range(ctx context.Context, stream, start, end string, count int64) ([]entity.StreamEntry, error)
	Delete(ctx context.Context, stream string, ids ...string) (int64, error)
}

// Config holds stream names and consumer tuning.
type Config struct {
	MainStream       string
	DeadLetterStream string
	Group            string
	Consumer         string
	BatchSize        int64
	PollTimeout      time.Duration
	PollInterval     time.Duration
	MaxRetries       int
	// ClaimMinIdle is how long an entry must sit unacknowledged before
	// another tick may claim it. It must exceed the longest batch.
	ClaimMinIdle time.Duration
}

// DefaultConfig mirrors the documented environment defaults.
func DefaultConfig() Config {
	return Config{
		MainStream:       "notifications:main",
		DeadLetterStream: "notifications:dlq",
		Group:            "notification-consumers",
		Consumer:         "consumer-1",
		BatchSize:        10,
		PollTimeout:      5 * time.Second,
		PollInterval:     5 * time.Second,
		MaxRetries:       3,
		ClaimMinIdle:     5 * time.Minute,
	}
}
