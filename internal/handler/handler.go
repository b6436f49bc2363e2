package handler

import (
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"crmguard/internal/alert"
	"crmguard/internal/apperr"
	"crmguard/internal/metrics"
)

const defaultRecordLimit = 100

var respHealthOK = map[string]string{"status": "ok"}

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// Overview is the dashboard payload: the store summary plus current alerts.
type Overview struct {
	metrics.Summary
	Alerts        []alert.Alert `json:"alerts"`
	StoreSize     int           `json:"store_size"`
	StoreCapacity int           `json:"store_capacity"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

type Quota struct {
	Identifier    string `json:"identifier"`
	Limit         int    `json:"limit"`
	Remaining     int    `json:"remaining"`
	WindowSeconds int    `json:"window_seconds"`
	ActiveWindows int    `json:"active_windows"`
}

type Handler struct {
	store  RecordStore
	alerts AlertChecker
	quotas QuotaReporter
	cache  ReportCache
	logger *slog.Logger
	topN   int
	now    func() time.Time
}

func New(
	store RecordStore,
	alerts AlertChecker,
	quotas QuotaReporter,
	cache ReportCache,
	logger *slog.Logger,
	topN int,
) *Handler {
	return &Handler{
		store:  store,
		alerts: alerts,
		quotas: quotas,
		cache:  cache,
		logger: logger,
		topN:   topN,
		now:    time.Now,
	}
}

// Register mounts the health check and the operator endpoints. admin guards
// everything under /api/v1/monitoring.
func (h *Handler) Register(e *echo.Echo, admin ...echo.MiddlewareFunc) {
	api := e.Group("/api/v1")
	api.GET("/health", h.Health)

	mon := api.Group("/monitoring", admin...)
	mon.GET("/overview", h.Overview)
	mon.GET("/stats", h.Stats)
	mon.GET("/alerts", h.Alerts)
	mon.GET("/records", h.Records)
	mon.GET("/ratelimit", h.RateLimit)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, respHealthOK)
}

func (h *Handler) Overview(c echo.Context) error {
	key := "overview:" + strconv.Itoa(h.topN)
	if body, ok := h.cache.Get(key); ok {
		return c.JSONBlob(http.StatusOK, body)
	}

	records := h.store.Snapshot()
	overview := Overview{
		Summary:       metrics.Summarize(records, h.topN),
		Alerts:        h.alerts.Check(),
		StoreSize:     len(records),
		StoreCapacity: h.store.Capacity(),
		GeneratedAt:   h.now(),
	}

	body, err := json.Marshal(envelope{Success: true, Data: overview})
	if err != nil {
		return apperr.Internal(fmt.Errorf("encode overview: %w", err))
	}
	h.cache.Set(key, body)

	h.logger.Debug("overview report generated",
		slog.Int("records", len(records)),
		slog.Int("alerts", len(overview.Alerts)))
	return c.JSONBlob(http.StatusOK, body)
}

func (h *Handler) Stats(c echo.Context) error {
	return respond(c, h.store.Stats(filterFrom(c)))
}

func (h *Handler) Alerts(c echo.Context) error {
	return respond(c, h.alerts.Check())
}

func (h *Handler) Records(c echo.Context) error {
	limit := defaultRecordLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return apperr.Validation("limit must be a positive integer")
		}
		limit = n
	}
	limit = min(limit, h.store.Capacity())

	return respond(c, h.store.Query(filterFrom(c), limit))
}

func (h *Handler) RateLimit(c echo.Context) error {
	id := cmp.Or(c.QueryParam("id"), c.RealIP())
	return respond(c, Quota{
		Identifier:    id,
		Limit:         h.quotas.Limit(),
		Remaining:     h.quotas.Remaining(id),
		WindowSeconds: int(h.quotas.Window().Seconds()),
		ActiveWindows: h.quotas.Len(),
	})
}

func filterFrom(c echo.Context) metrics.Filter {
	return metrics.Filter{
		Route:  c.QueryParam("route"),
		Method: strings.ToUpper(c.QueryParam("method")),
	}
}

func respond(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}
