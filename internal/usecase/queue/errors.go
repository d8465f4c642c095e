package queue

import "errors"

var (
	// ErrSerialization indicates that a message could not be encoded for the stream.
	ErrSerialization = errors.New("serialize notification message")

	// ErrRetriesExhausted is returned by Publish for a message whose retry
	// count is already above the configured maximum. Such messages belong on
	// the dead-letter stream.
	ErrRetriesExhausted = errors.New("notification retries exhausted")

	// ErrInvalidMessage is returned by Publish for messages that fail validation.
	ErrInvalidMessage = errors.New("invalid notification message")
)

// ErrDeadLetterNotFound is returned by Replay for an unknown dead-letter entry id.
var ErrDeadLetterNotFound = errors.New("dead-letter entry not found")
