// Package alert dispatches dead-letter alerts to operator channels
// (Discord, Slack, NATS) with per-channel circuit breakers, a bounded
// worker pool and graceful shutdown.
package alert

import (
	"context"

	"adherence-notify/internal/infra/notifier"
)

// Channel is one alert destination.
//
// Retry Policy Contract:
//   - Transient failures (5xx, network errors): retried inside the channel
//   - Rate limits (429): sleep for retry_after, then retry
//   - Client errors (4xx except 429): no retry
//
// All methods must be safe for concurrent use.
type Channel interface {
	// Name returns the channel identifier used in logs, metrics and health output.
	Name() string

	// IsEnabled returns true if this channel should receive alerts.
	IsEnabled() bool

	// Send delivers one alert, returning ErrChannelDisabled on a disabled channel.
	Send(ctx context.Context, alert notifier.DeadLetterAlert) error
}

// NotifierChannel adapts a notifier.Notifier to Channel.
type NotifierChannel struct {
	name     string
	notifier notifier.Notifier
	enabled  bool
}

// NewNotifierChannel wraps n. A nil notifier or enabled=false yields a
// disabled channel backed by a NoOpNotifier.
func NewNotifierChannel(name string, n notifier.Notifier, enabled bool) *NotifierChannel {
	if n == nil || !enabled {
		n = notifier.NewNoOpNotifier()
		enabled = false
	}
	return &NotifierChannel{name: name, notifier: n, enabled: enabled}
}

// NewDiscordChannel creates the Discord channel from its configuration.
func NewDiscordChannel(cfg notifier.DiscordConfig) *NotifierChannel {
	if !cfg.Enabled {
		return NewNotifierChannel("discord", nil, false)
	}
	return NewNotifierChannel("discord", notifier.NewDiscordNotifier(cfg), true)
}

// NewSlackChannel creates the Slack channel from its configuration.
func NewSlackChannel(cfg notifier.SlackConfig) *NotifierChannel {
	if !cfg.Enabled {
		return NewNotifierChannel("slack", nil, false)
	}
	return NewNotifierChannel("slack", notifier.NewSlackNotifier(cfg), true)
}

// Name implements Channel.
func (c *NotifierChannel) Name() string { return c.name }

// IsEnabled implements Channel.
func (c *NotifierChannel) IsEnabled() bool { return c.enabled }

// Send implements Channel.
func (c *NotifierChannel) Send(ctx context.Context, alert notifier.DeadLetterAlert) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if alert.MessageID == "" {
		return ErrInvalidAlert
	}
	return c.notifier.NotifyDeadLetter(ctx, alert)
}
