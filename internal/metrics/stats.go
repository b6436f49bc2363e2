package metrics

import (
	"math"
	"slices"
)

// ComputeStats aggregates records in the order given. It returns nil for an
// empty slice.
//
// P95 is nearest-rank without interpolation: sorted[floor(0.95*n)], clamped
// to the last index. TimeRange takes the first and last record as given, not
// the earliest and latest timestamps.
func ComputeStats(records []Record) *Stats {
	n := len(records)
	if n == 0 {
		return nil
	}

	durations := make([]int64, n)
	var sum int64
	var errCount int
	for i, r := range records {
		durations[i] = r.Duration
		sum += r.Duration
		if r.IsError() {
			errCount++
		}
	}
	slices.Sort(durations)

	return &Stats{
		TotalRequests: n,
		AvgDuration:   int64(math.Round(float64(sum) / float64(n))),
		MaxDuration:   durations[n-1],
		MinDuration:   durations[0],
		P95Duration:   durations[p95Index(n)],
		ErrorRate:     round2(float64(errCount) / float64(n) * 100),
		ErrorCount:    errCount,
		TimeRange: TimeRange{
			Start: records[0].Timestamp,
			End:   records[n-1].Timestamp,
		},
	}
}

func p95Index(n int) int {
	return min(int(math.Floor(0.95*float64(n))), n-1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
