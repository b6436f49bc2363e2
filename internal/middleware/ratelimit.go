package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"crmguard/internal/config"
)

const (
	bypassHeader             = "X-Rate-Limit-Bypass"
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"

	rateLimitExceededMsg = "Too many requests, please try again later."
)

// Limiter is the admission store behind RateLimit.
type Limiter interface {
	middleware.RateLimiterStore
	Remaining(id string) int
	Limit() int
	Window() time.Duration
}

// RateLimit admits requests per client IP through limiter. Admitted responses
// carry the client's quota headers; denied requests get 429 with Retry-After
// set to the window length. denied may be nil.
func RateLimit(limiter Limiter, cfg *config.RateLimitConfig, logger *slog.Logger, denied prometheus.Counter) echo.MiddlewareFunc {
	secret := []byte(cfg.BypassSecret)
	skipper := func(c echo.Context) bool {
		if cfg.BypassSecret == "" {
			return false
		}
		provided := c.Request().Header.Get(bypassHeader)
		return subtle.ConstantTimeCompare([]byte(provided), secret) == 1
	}
	retryAfter := strconv.Itoa(int(limiter.Window().Seconds()))
	limit := strconv.Itoa(limiter.Limit())

	admit := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store:   limiter,
		Skipper: skipper,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if denied != nil {
				denied.Inc()
			}
			logger.Debug("request denied by rate limiter",
				slog.String("path", c.Request().URL.Path),
				slog.String("method", c.Request().Method))
			c.Response().Header().Set("Retry-After", retryAfter)
			c.Response().Header().Set(HeaderRateLimitLimit, limit)
			c.Response().Header().Set(HeaderRateLimitRemaining, "0")
			return c.JSON(http.StatusTooManyRequests, failure(rateLimitExceededMsg))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logger.Error("rate limiter error", slog.String("error", err.Error()))
			return c.JSON(http.StatusInternalServerError, failure(http.StatusText(http.StatusInternalServerError)))
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return admit(func(c echo.Context) error {
			if !skipper(c) {
				h := c.Response().Header()
				h.Set(HeaderRateLimitLimit, limit)
				h.Set(HeaderRateLimitRemaining, strconv.Itoa(limiter.Remaining(c.RealIP())))
			}
			return next(c)
		})
	}
}
