package entity

import "time"

// Stream field names shared by producers and consumers.
const (
	FieldMessageID = "messageId"
	FieldPayload   = "payload"
	FieldError     = "error"
)

// StreamField is one name/value pair of an entry. Entries are written as an
// ordered list so the on-stream layout is stable.
type StreamField struct {
	Name  string
	Value string
}

// StreamEntry is one physical record read from a stream.
type StreamEntry struct {
	ID     string
	Fields map[string]string
}

// Payload returns the payload field, reporting whether it was present.
func (e StreamEntry) Payload() (string, bool) {
	v, ok := e.Fields[FieldPayload]
	return v, ok
}

// ReadRequest describes one consumer-group read.
type ReadRequest struct {
	Stream   string
	Group    string
	Consumer string
	Count    int64
	Block    time.Duration
}

// ClaimRequest describes a transfer of stale pending entries to Consumer.
// Entries delivered to any consumer of Group and left unacknowledged for at
// least MinIdle are claimed.
type ClaimRequest struct {
	Stream   string
	Group    string
	Consumer string
	MinIdle  time.Duration
	Count    int64
}
