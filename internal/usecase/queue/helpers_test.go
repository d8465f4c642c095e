package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/infra/stream"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PollTimeout = 0
	cfg.PollInterval = 10 * time.Millisecond
	return cfg
}

func newTestMessage(t *testing.T, memberID int64) entity.NotificationMessage {
	t.Helper()
	return entity.NewNotificationMessage(memberID, "Time for your medication", "Take 1 tablet",
		map[string]string{"type": "MEDICATION_REMINDER"}, entity.NotificationMedicationReminder)
}

// decodePayload reads the message stored in an entry.
func decodePayload(t *testing.T, e entity.StreamEntry) entity.NotificationMessage {
	t.Helper()
	payload, ok := e.Payload()
	require.True(t, ok, "entry %s has no payload", e.ID)
	msg, err := entity.UnmarshalNotificationMessage([]byte(payload))
	require.NoError(t, err)
	return msg
}

func readAll(t *testing.T, s *stream.MemoryStore, name string) []entity.StreamEntry {
	t.Helper()
	entries, err := s.Range(context.Background(), name, "-", "+", 0)
	require.NoError(t, err)
	return entries
}

// flakyStore wraps a Store and fails selected calls.
type flakyStore struct {
	Store

	mu          sync.Mutex
	appendFails int
	appendErr   error
	appendCalls int
	// lostReplies appends that land in the store but report a timeout.
	lostReplies int
	ackErr      error
	ackCalls    []string
	lenErr      error
}

func (f *flakyStore) Append(ctx context.Context, name string, fields []entity.StreamField) (string, error) {
	f.mu.Lock()
	f.appendCalls++
	if f.appendFails > 0 {
		f.appendFails--
		err := f.appendErr
		f.mu.Unlock()
		if err == nil {
			err = io.EOF
		}
		return "", err
	}
	lostReply := f.lostReplies > 0
	if lostReply {
		f.lostReplies--
	}
	f.mu.Unlock()
	id, err := f.Store.Append(ctx, name, fields)
	if err == nil && lostReply {
		return "", timeoutError{}
	}
	return id, err
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func (f *flakyStore) Ack(ctx context.Context, name, group string, ids ...string) error {
	f.mu.Lock()
	f.ackCalls = append(f.ackCalls, ids...)
	ackErr := f.ackErr
	f.mu.Unlock()
	if ackErr != nil {
		return ackErr
	}
	return f.Store.Ack(ctx, name, group, ids...)
}

func (f *flakyStore) Len(ctx context.Context, name string) (int64, error) {
	if f.lenErr != nil {
		return 0, f.lenErr
	}
	return f.Store.Len(ctx, name)
}

// stubProcessor returns queued results in order, then the last one forever.
type stubProcessor struct {
	mu      sync.Mutex
	results []error
	panics  bool
	calls   []entity.NotificationMessage
}

func (p *stubProcessor) Process(_ context.Context, msg entity.NotificationMessage) (entity.DeliveryOutcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, msg)
	if p.panics {
		panic("device lookup exploded")
	}
	var err error
	if len(p.results) > 0 {
		err = p.results[0]
		if len(p.results) > 1 {
			p.results = p.results[1:]
		}
	}
	if err != nil {
		return entity.OutcomeFailed, err
	}
	return entity.OutcomeDelivered, nil
}

func (p *stubProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type recordingAlerts struct {
	mu    sync.Mutex
	calls []entity.NotificationMessage
	texts []string
	err   error
}

func (a *recordingAlerts) NotifyDeadLetter(_ context.Context, msg entity.NotificationMessage, errText string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, msg)
	a.texts = append(a.texts, errText)
	return a.err
}

var errProvider = errors.New("push provider unavailable")
