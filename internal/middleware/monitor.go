package middleware

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"

	"crmguard/internal/apperr"
	"crmguard/internal/metrics"
	"crmguard/internal/validation"
)

type HTTPRecorder interface {
	RecordHTTP(m metrics.Record)
}

type MonitorConfig struct {
	Recorder HTTPRecorder
	Logger   *slog.Logger
	// Development exposes internal error messages, panic stacks and raw
	// client IPs.
	Development   bool
	SlowThreshold time.Duration

	// Now and ReadMemory default to time.Now and metrics.ReadMemory.
	Now        func() time.Time
	ReadMemory func() metrics.MemorySnapshot
}

// Monitor measures every request, records it, and turns handler errors and
// panics into JSON error responses. It never returns an error to echo.
func Monitor(cfg MonitorConfig) echo.MiddlewareFunc {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	readMemory := cfg.ReadMemory
	if readMemory == nil {
		readMemory = metrics.ReadMemory
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := now()
			before := readMemory()

			req := c.Request()
			clientIP := c.RealIP()
			if !cfg.Development {
				clientIP = validation.MaskIP(clientIP)
			}
			requestID := cmp.Or(c.Response().Header().Get(echo.HeaderXRequestID), req.Header.Get(echo.HeaderXRequestID))

			logger := cfg.Logger.With(slog.String("request_id", requestID))
			logger.Info("incoming request",
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("client_ip", clientIP),
				slog.String("user_agent", req.UserAgent()))

			stack, err := invoke(next, c)

			duration := max(now().Sub(start).Milliseconds(), 0)
			record := metrics.Record{
				Route:     cmp.Or(c.Path(), req.URL.Path),
				Method:    req.Method,
				Duration:  duration,
				ClientIP:  clientIP,
				RequestID: requestID,
				Unmatched: unmatched(c, err),
			}

			if err == nil {
				delta := readMemory().Sub(before)
				record.Status = c.Response().Status
				record.MemoryDelta = &delta
				cfg.Recorder.RecordHTTP(record)

				logger.Info("request completed",
					slog.String("method", record.Method),
					slog.String("route", record.Route),
					slog.Int("status", record.Status),
					slog.Int64("duration_ms", duration))
				if cfg.SlowThreshold > 0 && duration > cfg.SlowThreshold.Milliseconds() {
					logger.Warn("slow request",
						slog.String("method", record.Method),
						slog.String("route", record.Route),
						slog.Int64("duration_ms", duration),
						slog.Int64("threshold_ms", cfg.SlowThreshold.Milliseconds()))
				}
				return nil
			}

			appErr := apperr.From(err)
			record.Status = appErr.Status()
			cfg.Recorder.RecordHTTP(record)

			attrs := []any{
				slog.String("method", record.Method),
				slog.String("route", record.Route),
				slog.Int("status", record.Status),
				slog.Int64("duration_ms", duration),
				slog.String("kind", appErr.Kind.String()),
				slog.String("error", appErr.Error()),
			}
			if cfg.Development && stack != nil {
				attrs = append(attrs, slog.String("stack", string(stack)))
			}
			level := slog.LevelWarn
			if record.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(context.Background(), level, "request failed", attrs...)

			if c.Response().Committed {
				return nil
			}
			if werr := c.JSON(record.Status, failure(appErr.PublicMessage(cfg.Development))); werr != nil {
				logger.Error("failed to write error response", slog.String("error", werr.Error()))
			}
			return nil
		}
	}
}

// unmatched reports whether the router found no route for the request. echo
// leaves the path empty in that case; a not-found error carrying the raw path
// means the same.
func unmatched(c echo.Context, err error) bool {
	path := c.Path()
	if path == "" {
		return true
	}
	return path == c.Request().URL.Path && errors.Is(err, echo.ErrNotFound)
}

// invoke runs next and converts a panic into an error plus the goroutine stack.
func invoke(next echo.HandlerFunc, c echo.Context) (stack []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if r == http.ErrAbortHandler {
				panic(r)
			}
			stack = debug.Stack()
			if e, ok := r.(error); ok {
				err = apperr.Internal(fmt.Errorf("panic: %w", e))
			} else {
				err = apperr.Internal(fmt.Errorf("panic: %v", r))
			}
		}
	}()
	return nil, next(c)
}
