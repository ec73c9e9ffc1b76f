package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// CanAccess must be mounted after AccessGate.
func CanAccess(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := Role(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			if !slices.Contains(roles, role) {
				return echo.NewHTTPError(http.StatusForbidden, "You are not allowed to access this resource")
			}
			return next(c)
		}
	}
}
