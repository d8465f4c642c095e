package stream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"adherence-notify/internal/domain/entity"
)

// MemoryStore is an in-process stream store with Redis consumer-group
// semantics. It backs local development (QUEUE_BACKEND=memory) and tests.
// Entries are kept until deleted; there is no trimming.
type MemoryStore struct {
	mu      sync.Mutex
	streams map[string]*memStream
	// wake is closed and replaced on every append so blocked readers re-check.
	wake   chan struct{}
	closed bool
	now    func() time.Time
}

type memStream struct {
	entries []memEntry
	lastMs  int64
	lastSeq int64
	groups  map[string]*memGroup
}

type memEntry struct {
	id     string
	ms     int64
	seq    int64
	fields []entity.StreamField
}

type memGroup struct {
	// next is the index of the first entry not yet delivered to the group.
	next    int
	pending map[string]pendingEntry
}

type pendingEntry struct {
	consumer    string
	deliveredAt time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		streams: make(map[string]*memStream),
		wake:    make(chan struct{}),
		now:     time.Now,
	}
}

func (s *MemoryStore) stream(name string) *memStream {
	st, ok := s.streams[name]
	if !ok {
		st = &memStream{groups: make(map[string]*memGroup)}
		s.streams[name] = st
	}
	return st
}

// Append adds an entry with an id of the form <unix-ms>-<seq>.
func (s *MemoryStore) Append(_ context.Context, stream string, fields []entity.StreamField) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	st := s.stream(stream)
	ms := s.now().UnixMilli()
	seq := int64(0)
	if ms <= st.lastMs {
		ms = st.lastMs
		seq = st.lastSeq + 1
	}
	st.lastMs, st.lastSeq = ms, seq

	id := fmt.Sprintf("%d-%d", ms, seq)
	st.entries = append(st.entries, memEntry{
		id:     id,
		ms:     ms,
		seq:    seq,
		fields: append([]entity.StreamField(nil), fields...),
	})

	close(s.wake)
	s.wake = make(chan struct{})
	return id, nil
}

// CreateGroup creates group starting from the beginning of stream. An
// existing group is left untouched.
func (s *MemoryStore) CreateGroup(_ context.Context, stream, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	st := s.stream(stream)
	if _, ok := st.groups[group]; !ok {
		st.groups[group] = &memGroup{pending: make(map[string]pendingEntry)}
	}
	return nil
}

// ReadGroup delivers up to req.Count undelivered entries, waiting up to
// req.Block for at least one.
func (s *MemoryStore) ReadGroup(ctx context.Context, req entity.ReadRequest) ([]entity.StreamEntry, error) {
	var deadline <-chan time.Time
	if req.Block > 0 {
		timer := time.NewTimer(req.Block)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		entries, err := s.takeLocked(req)
		wake := s.wake
		s.mu.Unlock()

		if err != nil || len(entries) > 0 || deadline == nil {
			return entries, err
		}

		select {
		case <-wake:
		case <-deadline:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *MemoryStore) takeLocked(req entity.ReadRequest) ([]entity.StreamEntry, error) {
	st, ok := s.streams[req.Stream]
	if !ok {
		return nil, ErrNoGroup
	}
	g, ok := st.groups[req.Group]
	if !ok {
		return nil, ErrNoGroup
	}

	count := int(req.Count)
	if count <= 0 {
		count = len(st.entries)
	}

	now := s.now()
	var out []entity.StreamEntry
	for g.next < len(st.entries) && len(out) < count {
		e := st.entries[g.next]
		g.next++
		g.pending[e.id] = pendingEntry{consumer: req.Consumer, deliveredAt: now}
		out = append(out, e.toEntry())
	}
	return out, nil
}

// ClaimStale hands entries pending for at least req.MinIdle to req.Consumer,
// oldest first, and resets their idle time.
func (s *MemoryStore) ClaimStale(_ context.Context, req entity.ClaimRequest) ([]entity.StreamEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	st, ok := s.streams[req.Stream]
	if !ok {
		return nil, ErrNoGroup
	}
	g, ok := st.groups[req.Group]
	if !ok {
		return nil, ErrNoGroup
	}

	now := s.now()
	var out []entity.StreamEntry
	for _, e := range st.entries {
		if req.Count > 0 && int64(len(out)) >= req.Count {
			break
		}
		p, ok := g.pending[e.id]
		if !ok || now.Sub(p.deliveredAt) < req.MinIdle {
			continue
		}
		g.pending[e.id] = pendingEntry{consumer: req.Consumer, deliveredAt: now}
		out = append(out, e.toEntry())
	}
	return out, nil
}

// Ack removes ids from the group's pending list. Unknown ids are ignored.
func (s *MemoryStore) Ack(_ context.Context, stream, group string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[stream]
	if !ok {
		return ErrNoGroup
	}
	g, ok := st.groups[group]
	if !ok {
		return ErrNoGroup
	}
	for _, id := range ids {
		delete(g.pending, id)
	}
	return nil
}

// Len returns the number of entries on stream.
func (s *MemoryStore) Len(_ context.Context, stream string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[stream]
	if !ok {
		return 0, nil
	}
	return int64(len(st.entries)), nil
}

// Pending returns the number of delivered but unacknowledged entries.
func (s *MemoryStore) Pending(_ context.Context, stream, group string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[stream]
	if !ok {
		return 0, nil
	}
	g, ok := st.groups[group]
	if !ok {
		return 0, nil
	}
	return int64(len(g.pending)), nil
}

// Range lists entries between start and end inclusive ("-" and "+" are the
// open ends), at most count when count > 0.
func (s *MemoryStore) Range(_ context.Context, stream, start, end string, count int64) ([]entity.StreamEntry, error) {
	lo, err := parseBound(start, false)
	if err != nil {
		return nil, err
	}
	hi, err := parseBound(end, true)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[stream]
	if !ok {
		return nil, nil
	}

	var out []entity.StreamEntry
	for _, e := range st.entries {
		if count > 0 && int64(len(out)) >= count {
			break
		}
		k := streamID{e.ms, e.seq}
		if k.less(lo) || hi.less(k) {
			continue
		}
		out = append(out, e.toEntry())
	}
	return out, nil
}

// Delete removes ids from stream and returns how many existed.
func (s *MemoryStore) Delete(_ context.Context, stream string, ids ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[stream]
	if !ok {
		return 0, nil
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	// Group cursors are indexes, so shift each one by the number of removed
	// entries that sat before it.
	shift := make(map[*memGroup]int, len(st.groups))
	kept := st.entries[:0]
	var removed int64
	for i, e := range st.entries {
		if _, ok := drop[e.id]; ok {
			removed++
			for _, g := range st.groups {
				if i < g.next {
					shift[g]++
				}
				delete(g.pending, e.id)
			}
			continue
		}
		kept = append(kept, e)
	}
	st.entries = kept
	for g, n := range shift {
		g.next -= n
	}
	return removed, nil
}

// Ping always succeeds unless the store is closed.
func (s *MemoryStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close wakes blocked readers and rejects further calls.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.wake)
	}
	return nil
}

func (e memEntry) toEntry() entity.StreamEntry {
	fields := make(map[string]string, len(e.fields))
	for _, f := range e.fields {
		fields[f.Name] = f.Value
	}
	return entity.StreamEntry{ID: e.id, Fields: fields}
}

type streamID struct{ ms, seq int64 }

func (a streamID) less(b streamID) bool {
	if a.ms != b.ms {
		return a.ms < b.ms
	}
	return a.seq < b.seq
}

func parseBound(s string, upper bool) (streamID, error) {
	switch s {
	case "-":
		return streamID{0, 0}, nil
	case "+":
		return streamID{1<<63 - 1, 1<<63 - 1}, nil
	}

	msPart, seqPart, hasSeq := strings.Cut(s, "-")
	ms, err := strconv.ParseInt(msPart, 10, 64)
	if err != nil {
		return streamID{}, fmt.Errorf("invalid stream id %q", s)
	}
	if !hasSeq {
		if upper {
			return streamID{ms, 1<<63 - 1}, nil
		}
		return streamID{ms, 0}, nil
	}
	seq, err := strconv.ParseInt(seqPart, 10, 64)
	if err != nil {
		return streamID{}, fmt.Errorf("invalid stream id %q", s)
	}
	return streamID{ms, seq}, nil
}
