package metrics

import (
	"cmp"
	"math"
	"slices"
	"time"
)

const BucketSize = 5 * time.Minute

type Bucket struct {
	Start       time.Time `json:"start"`
	Requests    int       `json:"requests"`
	Errors      int       `json:"errors"`
	AvgDuration int64     `json:"avg_duration"`
}

type RouteSummary struct {
	Route       string  `json:"route"`
	Requests    int     `json:"requests"`
	Errors      int     `json:"errors"`
	AvgDuration int64   `json:"avg_duration"`
	ErrorRate   float64 `json:"error_rate"`
}

// Summary is everything the dashboard derives from the store contents.
type Summary struct {
	Overview   *Stats         `json:"overview"`
	TimeSeries []Bucket       `json:"time_series"`
	TopRoutes  []RouteSummary `json:"top_routes"`
	Slowest    []Record       `json:"slowest_requests"`
}

// Summarize builds the dashboard summary from records in store order.
func Summarize(records []Record, topN int) Summary {
	return Summary{
		Overview:   ComputeStats(records),
		TimeSeries: TimeSeries(records, BucketSize),
		TopRoutes:  TopRoutes(records, topN),
		Slowest:    Slowest(records, topN),
	}
}

// TimeSeries groups records into fixed buckets aligned to size, oldest first.
func TimeSeries(records []Record, size time.Duration) []Bucket {
	type acc struct {
		requests, errors int
		sum              int64
	}
	byStart := make(map[time.Time]*acc)
	for _, r := range records {
		start := r.Timestamp.Truncate(size)
		a, ok := byStart[start]
		if !ok {
			a = &acc{}
			byStart[start] = a
		}
		a.requests++
		a.sum += r.Duration
		if r.IsError() {
			a.errors++
		}
	}

	buckets := make([]Bucket, 0, len(byStart))
	for start, a := range byStart {
		buckets = append(buckets, Bucket{
			Start:       start,
			Requests:    a.requests,
			Errors:      a.errors,
			AvgDuration: int64(math.Round(float64(a.sum) / float64(a.requests))),
		})
	}
	slices.SortFunc(buckets, func(a, b Bucket) int {
		return a.Start.Compare(b.Start)
	})
	return buckets
}

// TopRoutes returns the n routes with the most requests. Ties are ordered by
// route name.
func TopRoutes(records []Record, n int) []RouteSummary {
	byRoute := make(map[string]*RouteSummary)
	sums := make(map[string]int64)
	for _, r := range records {
		s, ok := byRoute[r.Route]
		if !ok {
			s = &RouteSummary{Route: r.Route}
			byRoute[r.Route] = s
		}
		s.Requests++
		sums[r.Route] += r.Duration
		if r.IsError() {
			s.Errors++
		}
	}

	out := make([]RouteSummary, 0, len(byRoute))
	for route, s := range byRoute {
		s.AvgDuration = int64(math.Round(float64(sums[route]) / float64(s.Requests)))
		s.ErrorRate = round2(float64(s.Errors) / float64(s.Requests) * 100)
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b RouteSummary) int {
		return cmp.Or(cmp.Compare(b.Requests, a.Requests), cmp.Compare(a.Route, b.Route))
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Slowest returns the n slowest records, slowest first. Equal durations keep
// the newer record first.
func Slowest(records []Record, n int) []Record {
	out := slices.Clone(records)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b Record) int {
		return cmp.Compare(b.Duration, a.Duration)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
