package middleware

import (
	"errors"
	"log/slog"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"crmguard/internal/apperr"
	"crmguard/internal/validation"
)

const invalidInputMsg = "Invalid request input"

type InputScreener interface {
	CheckPath(escaped string) error
	CheckQuery(q url.Values) error
	CheckValue(source, name, value string) error
}

// Screen rejects requests whose path, path parameters or query carry attack
// payloads. Rejections are logged as security events and returned as
// validation errors. rejected may be nil.
func Screen(screener InputScreener, logger *slog.Logger, development bool, rejected prometheus.Counter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := screen(screener, c); err != nil {
				if rejected != nil {
					rejected.Inc()
				}

				clientIP := c.RealIP()
				if !development {
					clientIP = validation.MaskIP(clientIP)
				}
				attrs := []any{
					slog.String("event", "malicious_input"),
					slog.String("method", c.Request().Method),
					slog.String("path", c.Request().URL.Path),
					slog.String("client_ip", clientIP),
					slog.String("reason", err.Error()),
				}
				var inputErr *validation.InputError
				if errors.As(err, &inputErr) {
					attrs = append(attrs, slog.String("source", inputErr.Source), slog.String("input", inputErr.Name))
				}
				logger.Warn("security event", attrs...)

				return &apperr.Error{Kind: apperr.KindValidation, Message: invalidInputMsg, Err: err}
			}
			return next(c)
		}
	}
}

func screen(screener InputScreener, c echo.Context) error {
	req := c.Request()
	if err := screener.CheckPath(req.URL.EscapedPath()); err != nil {
		return err
	}
	values := c.ParamValues()
	for i, name := range c.ParamNames() {
		if i >= len(values) {
			break
		}
		v := values[i]
		if decoded, err := url.PathUnescape(v); err == nil {
			v = decoded
		}
		if err := screener.CheckValue(validation.SourceParam, name, v); err != nil {
			return err
		}
	}
	return screener.CheckQuery(req.URL.Query())
}
