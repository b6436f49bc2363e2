package alert

import (
	"fmt"
	"math"
	"time"

	"crmguard/internal/metrics"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Type string

const (
	TypeHighErrorRate        Type = "high_error_rate"
	TypeModerateErrorRate    Type = "moderate_error_rate"
	TypeSlowResponse         Type = "slow_response"
	TypeModerateSlowResponse Type = "moderate_slow_response"
)

const (
	MinSamples = 10
	Window     = 5 * time.Minute

	CriticalErrorRate   = 20.0
	HighErrorRate       = 10.0
	SlowAvgDuration     = 3000.0
	ModerateAvgDuration = 2000.0
)

type Alert struct {
	Type      Type     `json:"type"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	Value     float64  `json:"value"`
	Threshold float64  `json:"threshold"`
}

// RecordSource is the read side of the metrics store.
type RecordSource interface {
	Len() int
	Snapshot() []metrics.Record
}

type Evaluator struct {
	source RecordSource
	now    func() time.Time
}

type Option func(*Evaluator)

func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

func NewEvaluator(source RecordSource, opts ...Option) *Evaluator {
	e := &Evaluator{
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check evaluates the records of the last Window. It returns an empty slice
// while the store holds fewer than MinSamples records in total.
func (e *Evaluator) Check() []Alert {
	alerts := make([]Alert, 0, 2)
	if e.source.Len() < MinSamples {
		return alerts
	}

	cutoff := e.now().Add(-Window)
	var n, errs int
	var sum int64
	for _, r := range e.source.Snapshot() {
		if !r.Timestamp.After(cutoff) {
			continue
		}
		n++
		sum += r.Duration
		if r.IsError() {
			errs++
		}
	}

	var errorRate, avgDuration float64
	if n > 0 {
		errorRate = float64(errs) * 100 / float64(n)
		avgDuration = float64(sum) / float64(n)
	}

	switch {
	case errorRate > CriticalErrorRate:
		alerts = append(alerts, Alert{
			Type:      TypeHighErrorRate,
			Message:   fmt.Sprintf("Error rate is %.2f%% over the last 5 minutes", errorRate),
			Severity:  SeverityCritical,
			Value:     round2(errorRate),
			Threshold: CriticalErrorRate,
		})
	case errorRate > HighErrorRate:
		alerts = append(alerts, Alert{
			Type:      TypeModerateErrorRate,
			Message:   fmt.Sprintf("Error rate is %.2f%% over the last 5 minutes", errorRate),
			Severity:  SeverityHigh,
			Value:     round2(errorRate),
			Threshold: HighErrorRate,
		})
	}

	switch {
	case avgDuration > SlowAvgDuration:
		alerts = append(alerts, Alert{
			Type:      TypeSlowResponse,
			Message:   fmt.Sprintf("Average response time is %.0fms over the last 5 minutes", avgDuration),
			Severity:  SeverityHigh,
			Value:     math.Round(avgDuration),
			Threshold: SlowAvgDuration,
		})
	case avgDuration > ModerateAvgDuration:
		alerts = append(alerts, Alert{
			Type:      TypeModerateSlowResponse,
			Message:   fmt.Sprintf("Average response time is %.0fms over the last 5 minutes", avgDuration),
			Severity:  SeverityMedium,
			Value:     math.Round(avgDuration),
			Threshold: ModerateAvgDuration,
		})
	}

	return alerts
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
