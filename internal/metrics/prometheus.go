package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Instruments are the prometheus collectors exported on /metrics. They are
// registered on the registry passed to NewInstruments, never the global one.
type Instruments struct {
	Requests         *prometheus.CounterVec
	Duration         *prometheus.HistogramVec
	RateLimited      prometheus.Counter
	AlertsFired      *prometheus.CounterVec
	StoreSize        prometheus.Gauge
	LimiterWindows   prometheus.Gauge
	HeapUsedBytes    prometheus.Gauge
	ReportCacheRatio prometheus.Gauge
	InputRejections  prometheus.Counter
}

func NewInstruments(reg prometheus.Registerer) *Instruments {
	in := &Instruments{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests that reached the monitored handlers",
			},
			[]string{"method", "route", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 3, 5, 10},
			},
			[]string{"method", "route"},
		),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limit_denied_total",
			Help: "Requests rejected by the rate limiter",
		}),
		AlertsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alerts_fired_total",
				Help: "Alerts raised by the periodic evaluator",
			},
			[]string{"type", "severity"},
		),
		StoreSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "metrics_store_records",
			Help: "Records currently held by the bounded metrics store",
		}),
		LimiterWindows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rate_limit_windows",
			Help: "Active rate limit windows (distinct client identifiers)",
		}),
		HeapUsedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "process_heap_used_bytes",
			Help: "Bytes occupied by live and unswept heap objects",
		}),
		ReportCacheRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_report_cache_hit_ratio",
			Help: "Hit ratio of the dashboard report cache",
		}),
		InputRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "input_rejections_total",
			Help: "Requests rejected by input screening",
		}),
	}

	reg.MustRegister(
		in.Requests,
		in.Duration,
		in.RateLimited,
		in.AlertsFired,
		in.StoreSize,
		in.LimiterWindows,
		in.HeapUsedBytes,
		in.ReportCacheRatio,
		in.InputRejections,
	)
	return in
}

// Label values for requests outside the known route and method sets. Raw
// paths and verbs come from the caller and would grow the series without bound.
const (
	UnmatchedRoute = "unmatched"
	OtherMethod    = "OTHER"
)

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

func (in *Instruments) observe(r Record) {
	method, route := labels(r)
	in.Requests.WithLabelValues(method, route, strconv.Itoa(r.Status)).Inc()
	in.Duration.WithLabelValues(method, route).Observe(float64(r.Duration) / 1000)
}

func labels(r Record) (method, route string) {
	method = r.Method
	if !knownMethods[method] {
		method = OtherMethod
	}
	route = r.Route
	if r.Unmatched || route == "" {
		route = UnmatchedRoute
	}
	return method, route
}
