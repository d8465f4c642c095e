package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	natspkg "github.com/nats-io/nats.go"
)

const defaultNATSSubject = "notifications.dlq.alerts"

// NATSConfig configures the NATS alert publisher.
type NATSConfig struct {
	Enabled bool
	URL     string
	Subject string
	Timeout time.Duration
}

// natsPublisher is the subset of *nats.Conn used for alerts.
type natsPublisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
}

// NATSNotifier publishes dead-letter alerts as JSON to a NATS subject, for
// downstream tooling that reacts to dead letters.
type NATSNotifier struct {
	conn    natsPublisher
	nc      *natspkg.Conn
	subject string
	timeout time.Duration
}

// NewNATSNotifier connects to cfg.URL.
func NewNATSNotifier(cfg NATSConfig) (*NATSNotifier, error) {
	nc, err := natspkg.Connect(cfg.URL,
		natspkg.Name("adherence-notify-alerts"),
		natspkg.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	n := newNATSNotifier(nc, cfg)
	n.nc = nc
	return n, nil
}

func newNATSNotifier(conn natsPublisher, cfg NATSConfig) *NATSNotifier {
	subject := cfg.Subject
	if subject == "" {
		subject = defaultNATSSubject
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NATSNotifier{conn: conn, subject: subject, timeout: timeout}
}

// NotifyDeadLetter publishes the alert and waits for the server to receive it.
func (n *NATSNotifier) NotifyDeadLetter(ctx context.Context, alert DeadLetterAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal nats alert: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish nats alert: %w", err)
	}

	timeout := n.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := n.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("flush nats alert: %w", err)
	}
	return nil
}

// IsConnected reports the connection status.
func (n *NATSNotifier) IsConnected() bool {
	return n.nc != nil && n.nc.Status() == natspkg.CONNECTED
}

// Close drains and closes the connection.
func (n *NATSNotifier) Close() error {
	if n.nc == nil {
		return nil
	}
	if err := n.nc.Drain(); err != nil && !errors.Is(err, natspkg.ErrConnectionClosed) {
		return err
	}
	return nil
}
