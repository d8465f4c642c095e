package notifier

import "context"

// NoOpNotifier is a no-operation implementation of the Notifier interface.
// It is used when a channel is disabled to avoid nil checks.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifyDeadLetter does nothing and returns nil immediately.
func (n *NoOpNotifier) NotifyDeadLetter(context.Context, DeadLetterAlert) error {
	return nil
}
