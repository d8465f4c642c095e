package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"adherence-notify/internal/domain/entity"
)

// RedisConfig holds connection settings for the Redis stream store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore implements the stream store on Redis Streams.
type RedisStore struct {
	client redis.Cmdable
	maxLen map[string]int64
}

// RedisStoreOption customizes a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithMaxLen caps stream at roughly n entries (XADD MAXLEN ~ n). Redis trims
// whole macro nodes, so the stream may briefly hold a little more than n.
// Streams without a cap grow until trimmed externally.
func WithMaxLen(stream string, n int64) RedisStoreOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxLen[stream] = n
		}
	}
}

// NewRedisClient opens a client for cfg. The caller owns Close.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.Cmdable, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, maxLen: make(map[string]int64)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds an entry with an auto-generated id (XADD stream * ...),
// trimming approximately when the stream has a WithMaxLen cap.
func (s *RedisStore) Append(ctx context.Context, stream string, fields []entity.StreamField) (string, error) {
	values := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		values = append(values, f.Name, f.Value)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}
	if n, ok := s.maxLen[stream]; ok {
		args.MaxLen = n
		args.Approx = true
	}

	id, err := s.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("XADD %s: %w", stream, err)
	}
	return id, nil
}

// CreateGroup creates group on stream, creating the stream if needed. The
// group starts at "0" so entries appended before the first worker started
// are still delivered. An existing group is not an error.
func (s *RedisStore) CreateGroup(ctx context.Context, stream, group string) error {
	err := s.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err == nil || isBusyGroup(err) {
		return nil
	}
	return fmt.Errorf("XGROUP CREATE %s %s: %w", stream, group, err)
}

// ReadGroup reads up to req.Count new entries for req.Consumer, blocking at
// most req.Block. A timeout with no entries returns an empty slice.
func (s *RedisStore) ReadGroup(ctx context.Context, req entity.ReadRequest) ([]entity.StreamEntry, error) {
	block := req.Block
	if block <= 0 {
		// go-redis treats 0 as "block forever"; a negative value omits BLOCK.
		block = -1
	}

	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    req.Group,
		Consumer: req.Consumer,
		Streams:  []string{req.Stream, ">"},
		Count:    req.Count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if isNoGroup(err) {
		return nil, fmt.Errorf("XREADGROUP %s %s: %w", req.Stream, req.Group, ErrNoGroup)
	}
	if err != nil {
		return nil, fmt.Errorf("XREADGROUP %s %s: %w", req.Stream, req.Group, err)
	}

	var entries []entity.StreamEntry
	for _, st := range streams {
		for _, msg := range st.Messages {
			entries = append(entries, toEntry(msg))
		}
	}
	return entries, nil
}

// ClaimStale transfers up to req.Count entries that have been pending for at
// least req.MinIdle to req.Consumer (XAUTOCLAIM ... 0-0) and returns them.
// Only the first page is claimed; the next call picks up the rest.
func (s *RedisStore) ClaimStale(ctx context.Context, req entity.ClaimRequest) ([]entity.StreamEntry, error) {
	msgs, _, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   req.Stream,
		Group:    req.Group,
		Consumer: req.Consumer,
		MinIdle:  req.MinIdle,
		Start:    "0-0",
		Count:    req.Count,
	}).Result()
	if isNoGroup(err) {
		return nil, fmt.Errorf("XAUTOCLAIM %s %s: %w", req.Stream, req.Group, ErrNoGroup)
	}
	if err != nil {
		return nil, fmt.Errorf("XAUTOCLAIM %s %s: %w", req.Stream, req.Group, err)
	}

	entries := make([]entity.StreamEntry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, toEntry(msg))
	}
	return entries, nil
}

// Ack acknowledges ids for group.
func (s *RedisStore) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.client.XAck(ctx, stream, group, ids...).Err(); err != nil {
		return fmt.Errorf("XACK %s %s: %w", stream, group, err)
	}
	return nil
}

// Len returns the number of entries physically present on stream.
func (s *RedisStore) Len(ctx context.Context, stream string) (int64, error) {
	n, err := s.client.XLen(ctx, stream).Result()
	if err != nil {
		return 0, fmt.Errorf("XLEN %s: %w", stream, err)
	}
	return n, nil
}

// Pending returns the number of entries delivered to group but not yet
// acknowledged. A missing group reports zero.
func (s *RedisStore) Pending(ctx context.Context, stream, group string) (int64, error) {
	p, err := s.client.XPending(ctx, stream, group).Result()
	if isNoGroup(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("XPENDING %s %s: %w", stream, group, err)
	}
	return p.Count, nil
}

// Range lists up to count entries with ids between start and end inclusive.
// Use "-" and "+" for the open ends.
func (s *RedisStore) Range(ctx context.Context, stream, start, end string, count int64) ([]entity.StreamEntry, error) {
	msgs, err := s.client.XRangeN(ctx, stream, start, end, count).Result()
	if err != nil {
		return nil, fmt.Errorf("XRANGE %s: %w", stream, err)
	}
	entries := make([]entity.StreamEntry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, toEntry(msg))
	}
	return entries, nil
}

// Delete removes ids from stream and returns how many existed.
func (s *RedisStore) Delete(ctx context.Context, stream string, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.client.XDel(ctx, stream, ids...).Result()
	if err != nil {
		return 0, fmt.Errorf("XDEL %s: %w", stream, err)
	}
	return n, nil
}

// Ping checks connectivity for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func toEntry(msg redis.XMessage) entity.StreamEntry {
	fields := make(map[string]string, len(msg.Values))
	for k, v := range msg.Values {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case []byte:
			fields[k] = string(val)
		default:
			fields[k] = fmt.Sprint(val)
		}
	}
	return entity.StreamEntry{ID: msg.ID, Fields: fields}
}
