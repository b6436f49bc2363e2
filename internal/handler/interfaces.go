package handler

import (
	"time"

	"crmguard/internal/alert"
	"crmguard/internal/metrics"
)

type RecordStore interface {
	Query(f metrics.Filter, limit int) []metrics.Record
	Snapshot() []metrics.Record
	Stats(f metrics.Filter) *metrics.Stats
	Len() int
	Capacity() int
}

type AlertChecker interface {
	Check() []alert.Alert
}

type QuotaReporter interface {
	Remaining(id string) int
	Limit() int
	Window() time.Duration
	Len() int
}

type ReportCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, body []byte)
}
