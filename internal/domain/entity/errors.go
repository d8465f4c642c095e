package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrInvalidPayload indicates that a stream entry payload could not be decoded
	// into a NotificationMessage. Such entries are never retried.
	ErrInvalidPayload = errors.New("invalid notification payload")

	// ErrInvalidToken indicates that the push provider rejected a device token
	// permanently (unregistered or malformed). The token must be deactivated.
	ErrInvalidToken = errors.New("invalid device token")

	// ErrDeliveryFailed indicates that at least one device send failed with a
	// transient error. The message is eligible for retry.
	ErrDeliveryFailed = errors.New("notification delivery failed")

	// ErrConsumerGroupMissing indicates that a stream read or ack targeted a
	// consumer group that does not exist (for example after the stream key
	// was deleted).
	ErrConsumerGroupMissing = errors.New("consumer group does not exist")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets callers match any ValidationError with errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
