package alert_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmguard/internal/alert"
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

func setup(t *testing.T, capacity int) (*metrics.Store, *alert.Evaluator, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := metrics.NewStore(capacity, metrics.WithStoreClock(clock.Now))
	return store, alert.NewEvaluator(store, alert.WithClock(clock.Now)), clock
}

func fill(store *metrics.Store, n, errors int, duration int64) {
	for i := range n {
		status := http.StatusOK
		if i < errors {
			status = http.StatusInternalServerError
		}
		store.Record(metrics.Record{Route: "/api/x", Method: http.MethodGet, Duration: duration, Status: status})
	}
}

func types(alerts []alert.Alert) []alert.Type {
	out := make([]alert.Type, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Type)
	}
	return out
}

func TestCheck_ColdStart(t *testing.T) {
	for n := 0; n < alert.MinSamples; n++ {
		store, eval, _ := setup(t, 100)
		fill(store, n, n, 9000)

		got := eval.Check()
		assert.NotNil(t, got)
		assert.Empty(t, got, "n=%d", n)
	}
}

func TestCheck_ErrorRateThresholds(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		errors int
		want   []alert.Type
	}{
		{"healthy", 100, 5, []alert.Type{}},
		{"exactly ten percent", 100, 10, []alert.Type{}},
		{"moderate", 100, 11, []alert.Type{alert.TypeModerateErrorRate}},
		{"exactly twenty percent", 10, 2, []alert.Type{alert.TypeModerateErrorRate}},
		{"just above twenty percent", 10000, 2001, []alert.Type{alert.TypeHighErrorRate}},
		{"all errors", 10, 10, []alert.Type{alert.TypeHighErrorRate}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, eval, _ := setup(t, tt.total)
			fill(store, tt.total, tt.errors, 100)

			assert.Equal(t, tt.want, types(eval.Check()))
		})
	}
}

func TestCheck_Severity(t *testing.T) {
	store, eval, _ := setup(t, 100)
	fill(store, 10, 3, 100)

	got := eval.Check()
	require.Len(t, got, 1)
	assert.Equal(t, alert.SeverityCritical, got[0].Severity)
	assert.Equal(t, 30.0, got[0].Value)
	assert.Equal(t, alert.CriticalErrorRate, got[0].Threshold)
	assert.Contains(t, got[0].Message, "30.00%")
}

func TestCheck_ResponseTimeThresholds(t *testing.T) {
	tests := []struct {
		name     string
		duration int64
		want     []alert.Type
		severity alert.Severity
	}{
		{"fast", 150, []alert.Type{}, ""},
		{"exactly two seconds", 2000, []alert.Type{}, ""},
		{"moderate", 2500, []alert.Type{alert.TypeModerateSlowResponse}, alert.SeverityMedium},
		{"exactly three seconds", 3000, []alert.Type{alert.TypeModerateSlowResponse}, alert.SeverityMedium},
		{"slow", 3001, []alert.Type{alert.TypeSlowResponse}, alert.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, eval, _ := setup(t, 100)
			fill(store, 20, 0, tt.duration)

			got := eval.Check()
			assert.Equal(t, tt.want, types(got))
			if len(got) > 0 {
				assert.Equal(t, tt.severity, got[0].Severity)
			}
		})
	}
}

func TestCheck_BothAlertsFire(t *testing.T) {
	store, eval, _ := setup(t, 100)
	fill(store, 20, 10, 5000)

	got := eval.Check()
	assert.Equal(t, []alert.Type{alert.TypeHighErrorRate, alert.TypeSlowResponse}, types(got))
}

func TestCheck_OnlyRecentWindow(t *testing.T) {
	store, eval, clock := setup(t, 100)
	fill(store, 20, 20, 9000)

	clock.Advance(alert.Window + time.Second)
	fill(store, 10, 0, 100)

	assert.Empty(t, eval.Check())
}

func TestCheck_EmptyWindow(t *testing.T) {
	store, eval, clock := setup(t, 100)
	fill(store, 20, 20, 9000)

	clock.Advance(time.Hour)

	assert.Empty(t, eval.Check())
}

func TestCheck_FifteenRequestsTwentyPercent(t *testing.T) {
	store, eval, clock := setup(t, 1000)
	for i := range 15 {
		status := http.StatusOK
		if i%5 == 0 {
			status = http.StatusInternalServerError
		}
		store.Record(metrics.Record{Route: "/api/x", Method: http.MethodGet, Duration: 100, Status: status})
		clock.Advance(4 * time.Second)
	}

	stats := store.Stats(metrics.Filter{Route: "/api/x"})
	require.NotNil(t, stats)
	assert.Equal(t, 20.0, stats.ErrorRate)

	// exactly 20% is not above the critical threshold but is above the high one
	assert.Equal(t, []alert.Type{alert.TypeModerateErrorRate}, types(eval.Check()))
}
