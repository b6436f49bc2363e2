package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	AdminSecretHeader = "X-Admin-Secret"
	PprofSecretHeader = "X-Pprof-Secret"
)

// SecretAuth requires header to equal secret. An empty secret disables the
// check.
func SecretAuth(header, secret string) echo.MiddlewareFunc {
	secretBytes := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return next(c)
			}
			provided := c.Request().Header.Get(header)
			if subtle.ConstantTimeCompare([]byte(provided), secretBytes) != 1 {
				return c.JSON(http.StatusUnauthorized, failure("unauthorized"))
			}
			return next(c)
		}
	}
}

func AdminAuth(secret string) echo.MiddlewareFunc {
	return SecretAuth(AdminSecretHeader, secret)
}

func PprofAuth(secret string) echo.MiddlewareFunc {
	return SecretAuth(PprofSecretHeader, secret)
}
