package stream

import (
	"errors"
	"strings"

	"adherence-notify/internal/domain/entity"
)

var (
	// ErrNoGroup is returned when reading or acknowledging on a group that
	// was never created.
	ErrNoGroup = entity.ErrConsumerGroupMissing

	// ErrClosed is returned by MemoryStore after Close.
	ErrClosed = errors.New("stream store closed")
)

// isBusyGroup matches the Redis reply to XGROUP CREATE on an existing group.
func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// isNoGroup matches the Redis NOGROUP reply.
func isNoGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "NOGROUP")
}
