package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/infra/stream"
	"adherence-notify/internal/usecase/queue"
	"adherence-notify/tests/fixtures"
)

func newTestApp(t *testing.T) (*app, *stream.MemoryStore, *bytes.Buffer) {
	t.Helper()
	store := stream.NewMemoryStore()
	out := &bytes.Buffer{}
	cfg := queue.DefaultConfig()
	require.NoError(t, store.CreateGroup(context.Background(), cfg.MainStream, cfg.Group))
	return &app{
		store:  store,
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		out:    out,
	}, store, out
}

func execute(t *testing.T, a *app, args ...string) error {
	t.Helper()
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func deadLetter(t *testing.T, a *app, memberID int64) entity.NotificationMessage {
	t.Helper()
	msg := fixtures.ExhaustedMessage(memberID, entity.NotificationDiaryReminder, a.cfg.MaxRetries)
	_, err := queue.NewProducer(a.store, a.cfg, a.logger).PublishToDeadLetter(context.Background(), msg, "push provider unavailable")
	require.NoError(t, err)
	return msg
}

func TestSendCmd(t *testing.T) {
	a, store, out := newTestApp(t)

	require.NoError(t, execute(t, a, "send", "--member", "42", "--title", "Hello", "--body", "World"))
	assert.Contains(t, out.String(), "enqueued")

	entries, err := store.Range(context.Background(), a.cfg.MainStream, "-", "+", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	payload, _ := entries[0].Payload()
	msg, err := entity.UnmarshalNotificationMessage([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(42), msg.MemberID)
	assert.Equal(t, "Hello", msg.Title)
	assert.Equal(t, "World", msg.Body)
	assert.Equal(t, entity.NotificationGeneral, msg.NotificationType)
}

func TestSendCmd_RequiresMember(t *testing.T) {
	a, _, _ := newTestApp(t)
	assert.Error(t, execute(t, a, "send"))
}

func TestStatsCmd(t *testing.T) {
	a, _, out := newTestApp(t)
	deadLetter(t, a, 1)

	require.NoError(t, execute(t, a, "stats"))
	assert.Contains(t, out.String(), "dead-letter length:      1")
	assert.Contains(t, out.String(), "pending:                 0")
}

func TestDLQListCmd(t *testing.T) {
	a, _, out := newTestApp(t)
	msg := deadLetter(t, a, 7)

	require.NoError(t, execute(t, a, "dlq", "list"))
	assert.Contains(t, out.String(), "member=7")
	assert.Contains(t, out.String(), msg.MessageID)

	out.Reset()
	require.NoError(t, execute(t, a, "dlq", "list", "--json"))
	var letters []jsonLetter
	require.NoError(t, json.Unmarshal(out.Bytes(), &letters))
	require.Len(t, letters, 1)
	assert.Equal(t, msg.MessageID, letters[0].MessageID)
	assert.Equal(t, "push provider unavailable", letters[0].Error)
}

func TestDLQListCmd_Empty(t *testing.T) {
	a, _, out := newTestApp(t)

	require.NoError(t, execute(t, a, "dlq", "list"))
	assert.Contains(t, out.String(), "empty")
}

func TestDLQReplayCmd(t *testing.T) {
	a, store, out := newTestApp(t)
	deadLetter(t, a, 7)

	entries, err := store.Range(context.Background(), a.cfg.DeadLetterStream, "-", "+", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, execute(t, a, "dlq", "replay", entries[0].ID))
	assert.Contains(t, out.String(), "replayed "+entries[0].ID)

	n, err := store.Len(context.Background(), a.cfg.DeadLetterStream)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, execute(t, a, "dlq", "replay", entries[0].ID), queue.ErrDeadLetterNotFound)
}
