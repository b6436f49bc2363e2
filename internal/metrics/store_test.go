package metrics_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmguard/internal/metrics"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func record(route string, duration int64, status int) metrics.Record {
	return metrics.Record{
		Route:    route,
		Method:   http.MethodGet,
		Duration: duration,
		Status:   status,
	}
}

func TestStore_SizeNeverExceedsCapacity(t *testing.T) {
	const capacity = 5
	s := metrics.NewStore(capacity)

	for i := 1; i <= 12; i++ {
		s.Record(record(fmt.Sprintf("/r/%d", i), int64(i), http.StatusOK))

		require.Equal(t, min(i, capacity), s.Len())

		got := s.Snapshot()
		first := max(1, i-capacity+1)
		for j, r := range got {
			assert.Equal(t, fmt.Sprintf("/r/%d", first+j), r.Route)
		}
	}
}

func TestStore_FIFOEviction(t *testing.T) {
	const capacity = 10
	s := metrics.NewStore(capacity)

	for i := 1; i <= capacity+1; i++ {
		s.Record(record("/api/x", int64(i), http.StatusOK))
	}

	got := s.Query(metrics.Filter{}, capacity)
	require.Len(t, got, capacity)
	for i, r := range got {
		assert.Equal(t, int64(i+2), r.Duration)
	}
}

func TestStore_DefaultCapacity(t *testing.T) {
	assert.Equal(t, metrics.DefaultCapacity, metrics.NewStore(0).Capacity())
	assert.Equal(t, 1000, metrics.NewStore(-3).Capacity())
}

func TestStore_QueryEmpty(t *testing.T) {
	s := metrics.NewStore(10)

	got := s.Query(metrics.Filter{Route: "/nothing"}, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_QueryFilterAndLimit(t *testing.T) {
	s := metrics.NewStore(100)
	s.Record(metrics.Record{Route: "/api/customers", Method: http.MethodGet, Duration: 1})
	s.Record(metrics.Record{Route: "/api/customers", Method: http.MethodPost, Duration: 2})
	s.Record(metrics.Record{Route: "/api/campaigns", Method: http.MethodGet, Duration: 3})
	s.Record(metrics.Record{Route: "/api/customers", Method: http.MethodGet, Duration: 4})
	s.Record(metrics.Record{Route: "/api/customers", Method: http.MethodGet, Duration: 5})

	tests := []struct {
		name   string
		filter metrics.Filter
		limit  int
		want   []int64
	}{
		{"all", metrics.Filter{}, 0, []int64{1, 2, 3, 4, 5}},
		{"limit keeps most recent", metrics.Filter{}, 2, []int64{4, 5}},
		{"route", metrics.Filter{Route: "/api/customers"}, 0, []int64{1, 2, 4, 5}},
		{"method", metrics.Filter{Method: http.MethodPost}, 0, []int64{2}},
		{"route and method", metrics.Filter{Route: "/api/customers", Method: http.MethodGet}, 2, []int64{4, 5}},
		{"limit larger than matches", metrics.Filter{Route: "/api/campaigns"}, 10, []int64{3}},
		{"no match", metrics.Filter{Route: "/api/campaigns", Method: http.MethodDelete}, 10, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Query(tt.filter, tt.limit)
			durations := make([]int64, 0, len(got))
			for _, r := range got {
				durations = append(durations, r.Duration)
			}
			assert.Equal(t, tt.want, durations)
		})
	}
}

func TestStore_StampsNonDecreasingTimestamps(t *testing.T) {
	clock := newFakeClock()
	s := metrics.NewStore(10, metrics.WithStoreClock(clock.Now))

	start := clock.Now()
	s.Record(record("/a", 1, http.StatusOK))
	clock.Advance(time.Second)
	s.Record(record("/a", 1, http.StatusOK))
	clock.Set(start.Add(-time.Hour)) // clock stepped backwards
	s.Record(record("/a", 1, http.StatusOK))

	got := s.Snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, start, got[0].Timestamp)
	assert.Equal(t, start.Add(time.Second), got[1].Timestamp)
	assert.Equal(t, start.Add(time.Second), got[2].Timestamp)
}

func TestStore_IgnoresCallerTimestamp(t *testing.T) {
	clock := newFakeClock()
	s := metrics.NewStore(10, metrics.WithStoreClock(clock.Now))

	r := record("/a", 1, http.StatusOK)
	r.Timestamp = time.Unix(0, 0)
	s.Record(r)

	assert.Equal(t, clock.Now(), s.Snapshot()[0].Timestamp)
}

func TestStore_ConcurrentRecord(t *testing.T) {
	const (
		capacity   = 100
		goroutines = 50
		perRoutine = 40
	)
	s := metrics.NewStore(capacity)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := range goroutines {
		go func() {
			defer wg.Done()
			for i := range perRoutine {
				s.Record(record(fmt.Sprintf("/g/%d", g), int64(i), http.StatusOK))
				_ = s.Query(metrics.Filter{}, 10)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, s.Len())
	got := s.Snapshot()
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Timestamp.Before(got[i-1].Timestamp), "records out of order at %d", i)
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := metrics.NewStore(3)
	s.Record(record("/a", 1, http.StatusOK))

	snap := s.Snapshot()
	snap[0].Route = "/mutated"

	assert.Equal(t, "/a", s.Snapshot()[0].Route)
}
