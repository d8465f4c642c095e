package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adherence-notify/internal/domain/entity"
)

func TestRedisStore_Append(t *testing.T) {
	// Arrange
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "notifications:main",
		Values: []interface{}{"messageId", "m-1", "payload", `{"messageId":"m-1"}`},
	}).SetVal("1700000000000-0")

	// Act
	id, err := store.Append(context.Background(), "notifications:main", []entity.StreamField{
		{Name: entity.FieldMessageID, Value: "m-1"},
		{Name: entity.FieldPayload, Value: `{"messageId":"m-1"}`},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-0", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Append_Error(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "s",
		Values: []interface{}{"messageId", "m-1"},
	}).SetErr(errors.New("OOM command not allowed"))

	_, err := store.Append(context.Background(), "s", []entity.StreamField{{Name: "messageId", Value: "m-1"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "XADD s")
}

func TestRedisStore_Append_MaxLen(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, WithMaxLen("notifications:main", 100000), WithMaxLen("ignored", 0))

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "notifications:main",
		MaxLen: 100000,
		Approx: true,
		Values: []interface{}{"messageId", "m-1"},
	}).SetVal("1-0")
	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "notifications:dlq",
		Values: []interface{}{"messageId", "m-1"},
	}).SetVal("2-0")

	_, err := store.Append(context.Background(), "notifications:main", []entity.StreamField{{Name: "messageId", Value: "m-1"}})
	require.NoError(t, err)
	_, err = store.Append(context.Background(), "notifications:dlq", []entity.StreamField{{Name: "messageId", Value: "m-1"}})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NotContains(t, store.maxLen, "ignored")
}

func TestRedisStore_CreateGroup(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "created", err: nil},
		{name: "already exists", err: errors.New("BUSYGROUP Consumer Group name already exists")},
		{name: "other error", err: errors.New("WRONGTYPE Operation against a key"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			store := NewRedisStore(client)

			expect := mock.ExpectXGroupCreateMkStream("notifications:main", "notification-consumers", "0")
			if tt.err != nil {
				expect.SetErr(tt.err)
			} else {
				expect.SetVal("OK")
			}

			err := store.CreateGroup(context.Background(), "notifications:main", "notification-consumers")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func readArgs(block time.Duration) *redis.XReadGroupArgs {
	return &redis.XReadGroupArgs{
		Group:    "g",
		Consumer: "c1",
		Streams:  []string{"s", ">"},
		Count:    10,
		Block:    block,
	}
}

func TestRedisStore_ReadGroup(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectXReadGroup(readArgs(5 * time.Second)).SetVal([]redis.XStream{{
		Stream: "s",
		Messages: []redis.XMessage{
			{ID: "1-0", Values: map[string]interface{}{"messageId": "a", "payload": "{}"}},
			{ID: "2-0", Values: map[string]interface{}{"messageId": "b"}},
		},
	}})

	entries, err := store.ReadGroup(context.Background(), entity.ReadRequest{
		Stream: "s", Group: "g", Consumer: "c1", Count: 10, Block: 5 * time.Second,
	})

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1-0", entries[0].ID)
	payload, ok := entries[0].Payload()
	assert.True(t, ok)
	assert.Equal(t, "{}", payload)
	_, ok = entries[1].Payload()
	assert.False(t, ok)
}

func TestRedisStore_ReadGroup_TimeoutIsEmpty(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectXReadGroup(readArgs(time.Second)).RedisNil()

	entries, err := store.ReadGroup(context.Background(), entity.ReadRequest{
		Stream: "s", Group: "g", Consumer: "c1", Count: 10, Block: time.Second,
	})

	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRedisStore_ReadGroup_ZeroBlockDoesNotBlockForever(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectXReadGroup(readArgs(-1)).RedisNil()

	_, err := store.ReadGroup(context.Background(), entity.ReadRequest{
		Stream: "s", Group: "g", Consumer: "c1", Count: 10, Block: 0,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ReadGroup_NoGroup(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectXReadGroup(readArgs(time.Second)).
		SetErr(errors.New("NOGROUP No such key 's' or consumer group 'g'"))

	_, err := store.ReadGroup(context.Background(), entity.ReadRequest{
		Stream: "s", Group: "g", Consumer: "c1", Count: 10, Block: time.Second,
	})

	assert.ErrorIs(t, err, ErrNoGroup)
}

func TestRedisStore_ClaimStale(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectXAutoClaim(&redis.XAutoClaimArgs{
		Stream:   "s",
		Group:    "g",
		Consumer: "c2",
		MinIdle:  time.Minute,
		Start:    "0-0",
		Count:    10,
	}).SetVal([]redis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{"messageId": "a", "payload": "{}"}},
	}, "0-0")

	entries, err := store.ClaimStale(context.Background(), entity.ClaimRequest{
		Stream: "s", Group: "g", Consumer: "c2", MinIdle: time.Minute, Count: 10,
	})

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1-0", entries[0].ID)
	assert.Equal(t, "a", entries[0].Fields[entity.FieldMessageID])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ClaimStale_NoGroup(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectXAutoClaim(&redis.XAutoClaimArgs{
		Stream: "s", Group: "g", Consumer: "c2", MinIdle: time.Minute, Start: "0-0", Count: 10,
	}).SetErr(errors.New("NOGROUP No such key 's' or consumer group 'g'"))

	_, err := store.ClaimStale(context.Background(), entity.ClaimRequest{
		Stream: "s", Group: "g", Consumer: "c2", MinIdle: time.Minute, Count: 10,
	})

	assert.ErrorIs(t, err, ErrNoGroup)
}

func TestRedisStore_AckLenPending(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)
	ctx := context.Background()

	mock.ExpectXAck("s", "g", "1-0", "2-0").SetVal(2)
	mock.ExpectXLen("s").SetVal(5)
	mock.ExpectXPending("s", "g").SetVal(&redis.XPending{Count: 3})
	mock.ExpectXPending("s", "missing").SetErr(errors.New("NOGROUP No such key"))

	require.NoError(t, store.Ack(ctx, "s", "g", "1-0", "2-0"))
	require.NoError(t, store.Ack(ctx, "s", "g")) // no ids, no command

	n, err := store.Len(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	pending, err := store.Pending(ctx, "s", "g")
	require.NoError(t, err)
	assert.Equal(t, int64(3), pending)

	pending, err = store.Pending(ctx, "s", "missing")
	require.NoError(t, err)
	assert.Zero(t, pending)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_RangeAndDelete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)
	ctx := context.Background()

	mock.ExpectXRangeN("dlq", "-", "+", 20).SetVal([]redis.XMessage{
		{ID: "9-0", Values: map[string]interface{}{"messageId": "x", "error": "boom"}},
	})
	mock.ExpectXDel("dlq", "9-0").SetVal(1)

	entries, err := store.Range(ctx, "dlq", "-", "+", 20)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].Fields[entity.FieldError])

	n, err := store.Delete(ctx, "dlq", "9-0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
