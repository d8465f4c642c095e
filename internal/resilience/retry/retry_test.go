package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}
}

func TestWithBackoff_Success(t *testing.T) {
	calls := 0

	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithBackoff_SuccessAfterRetry(t *testing.T) {
	calls := 0

	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return io.EOF
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoff_MaxAttemptsExceeded(t *testing.T) {
	calls := 0

	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return syscall.ECONNREFUSED
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.Equal(t, 3, calls)
}

func TestWithBackoff_NonRetryableError(t *testing.T) {
	calls := 0
	permanent := errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return permanent
	})

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestWithBackoff_CustomRetryable(t *testing.T) {
	cfg := fastConfig()
	cfg.Retryable = func(error) bool { return true }
	calls := 0

	err := WithBackoff(context.Background(), cfg, func() error {
		calls++
		return errors.New("anything")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	cfg := fastConfig()
	cfg.InitialDelay = time.Second
	ctx, cancel := context.WithCancel(context.Background())

	err := WithBackoff(ctx, cfg, func() error {
		cancel()
		return io.EOF
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "retry aborted")
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: fmt.Errorf("wrap: %w", context.DeadlineExceeded), want: false},
		{name: "eof", err: io.EOF, want: true},
		{name: "net timeout", err: timeoutErr{}, want: true},
		{name: "op error", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: true},
		{name: "connection reset", err: fmt.Errorf("write: %w", syscall.ECONNRESET), want: true},
		{name: "plain error", err: errors.New("NOGROUP"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestStreamConfig(t *testing.T) {
	cfg := StreamConfig()

	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Less(t, cfg.MaxDelay, time.Second)
}

func TestAddJitter(t *testing.T) {
	base := 100 * time.Millisecond

	for i := 0; i < 50; i++ {
		got := addJitter(base, 0.5)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, base+base/2)
	}

	assert.Equal(t, base, addJitter(base, 0))
}
