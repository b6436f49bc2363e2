package metrics

import (
	"sync"
	"time"
)

const DefaultCapacity = 1000

// Store is a fixed-capacity FIFO buffer of request records. Once full, every
// insert evicts the oldest record.
type Store struct {
	mu   sync.RWMutex
	buf  []Record
	head int // index of the oldest record
	size int
	last time.Time
	now  func() time.Time
}

type StoreOption func(*Store)

// WithStoreClock replaces the clock used to stamp inserted records.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(capacity int, opts ...StoreOption) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{
		buf: make([]Record, capacity),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record stamps r with the insertion time and appends it.
func (s *Store) Record(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	if ts.Before(s.last) {
		ts = s.last
	}
	s.last = ts
	r.Timestamp = ts

	if s.size < len(s.buf) {
		s.buf[(s.head+s.size)%len(s.buf)] = r
		s.size++
		return
	}
	s.buf[s.head] = r
	s.head = (s.head + 1) % len(s.buf)
}

// Query returns up to limit of the most recent records matching f, oldest
// first. A non-positive limit returns every match.
func (s *Store) Query(f Filter, limit int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// walk newest to oldest so the limit can stop the scan early
	matched := make([]Record, 0, min(s.size, max(limit, 0)))
	for i := s.size - 1; i >= 0; i-- {
		r := s.buf[(s.head+i)%len(s.buf)]
		if !f.Match(r) {
			continue
		}
		matched = append(matched, r)
		if limit > 0 && len(matched) == limit {
			break
		}
	}

	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	return matched
}

// Snapshot copies every stored record, oldest first.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, s.size)
	for i := range s.size {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

func (s *Store) Capacity() int {
	return len(s.buf)
}

// Stats aggregates the records matching f. It returns nil when none match.
func (s *Store) Stats(f Filter) *Stats {
	return ComputeStats(s.Query(f, 0))
}
