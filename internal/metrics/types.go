package metrics

import "time"

// Record is one completed request. Records are never mutated once stored.
type Record struct {
	Route       string       `json:"route"`
	Method      string       `json:"method"`
	Duration    int64        `json:"duration"`
	Status      int          `json:"status"`
	Timestamp   time.Time    `json:"timestamp"`
	MemoryDelta *MemoryDelta `json:"memory_delta,omitempty"`
	ClientIP    string       `json:"client_ip,omitempty"`
	RequestID   string       `json:"request_id,omitempty"`
	// Unmatched marks requests that hit no registered route. Route then
	// holds the raw URL path.
	Unmatched bool `json:"unmatched,omitempty"`
}

func (r Record) IsError() bool {
	return r.Status >= 400
}

// Filter selects records by exact route and method. Empty fields match all.
type Filter struct {
	Route  string
	Method string
}

func (f Filter) Match(r Record) bool {
	return (f.Route == "" || f.Route == r.Route) &&
		(f.Method == "" || f.Method == r.Method)
}

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Stats struct {
	TotalRequests int       `json:"total_requests"`
	AvgDuration   int64     `json:"avg_duration"`
	MaxDuration   int64     `json:"max_duration"`
	MinDuration   int64     `json:"min_duration"`
	P95Duration   int64     `json:"p95_duration"`
	ErrorRate     float64   `json:"error_rate"`
	ErrorCount    int       `json:"error_count"`
	TimeRange     TimeRange `json:"time_range"`
}
