package metrics_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"crmguard/internal/metrics"
)

func TestRecorder_RecordHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	in := metrics.NewInstruments(reg)
	rec := metrics.NewRecorder(metrics.NewStore(10), in)

	rec.RecordHTTP(metrics.Record{Route: "/api/customers/:id", Method: http.MethodGet, Duration: 120, Status: 200})
	rec.RecordHTTP(metrics.Record{Route: "/api/customers/:id", Method: http.MethodGet, Duration: 80, Status: 200})
	rec.RecordHTTP(metrics.Record{Route: "/api/customers/:id", Method: http.MethodGet, Duration: 10, Status: 404})

	assert.Equal(t, 3, rec.Store().Len())
	assert.InDelta(t, 2, testutil.ToFloat64(in.Requests.WithLabelValues(http.MethodGet, "/api/customers/:id", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(in.Requests.WithLabelValues(http.MethodGet, "/api/customers/:id", "404")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(in.Duration, "http_request_duration_seconds"))
}

func TestRecorder_LabelsStayBounded(t *testing.T) {
	reg := prometheus.NewRegistry()
	in := metrics.NewInstruments(reg)
	rec := metrics.NewRecorder(metrics.NewStore(10), in)

	for i := range 1000 {
		rec.RecordHTTP(metrics.Record{Route: fmt.Sprintf("/scan/%d", i), Method: http.MethodGet, Status: 404, Unmatched: true})
	}
	for i := range 50 {
		rec.RecordHTTP(metrics.Record{Route: "/api/x", Method: fmt.Sprintf("M%d", i), Status: 405})
	}
	rec.RecordHTTP(metrics.Record{Route: "", Method: http.MethodPost, Status: 404})

	assert.Equal(t, 10, rec.Store().Len())
	assert.Equal(t, 3, testutil.CollectAndCount(in.Requests, "http_requests_total"))
	assert.Equal(t, 3, testutil.CollectAndCount(in.Duration, "http_request_duration_seconds"))
	assert.InDelta(t, 1000, testutil.ToFloat64(in.Requests.WithLabelValues(http.MethodGet, metrics.UnmatchedRoute, "404")), 0)
	assert.InDelta(t, 50, testutil.ToFloat64(in.Requests.WithLabelValues(metrics.OtherMethod, "/api/x", "405")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(in.Requests.WithLabelValues(http.MethodPost, metrics.UnmatchedRoute, "404")), 0)
}

func TestRecorder_WithoutInstruments(t *testing.T) {
	rec := metrics.NewRecorder(metrics.NewStore(10), nil)

	assert.NotPanics(t, func() {
		rec.RecordHTTP(metrics.Record{Route: "/a", Method: http.MethodGet, Status: 200})
	})
	assert.Equal(t, 1, rec.Store().Len())
}

func TestNewInstruments_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewInstruments(reg)

	assert.Panics(t, func() { metrics.NewInstruments(reg) })
}
