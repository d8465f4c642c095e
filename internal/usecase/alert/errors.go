package alert

import "errors"

// Sentinel errors for alert dispatching.
var (
	// ErrChannelDisabled indicates that Send() was called on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidAlert indicates an alert without a message id.
	ErrInvalidAlert = errors.New("invalid dead-letter alert")

	// ErrNoChannels is returned by NotifyDeadLetter when no channel is enabled,
	// so the caller can count the alert as not delivered.
	ErrNoChannels = errors.New("no alert channels enabled")
)
