package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/auth_service/internal/jwt"
	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/pkg/tokens"
)

// AccessGate verifies the RS256 access token against keyFunc, normally a JWKS client.
func AccessGate(keyFunc jwt.Keyfunc, issuer string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context()).With("mw", "access_gate")

			raw := accessTokenFrom(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}

			claims, err := tokens.AccessClaimsFromToken(raw, keyFunc, issuer)
			if err != nil {
				l.Warn("access_token_rejected", "status", 401, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			userID, err := claims.UserID()
			if err != nil {
				l.Warn("access_token_rejected", "status", 401, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(UserIDKey, userID)
			c.Set(RoleKey, claims.Role)
			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// accessTokenFrom prefers a Bearer header. Browsers that have no token in memory send the
// literal "undefined", which falls through to the cookie.
func accessTokenFrom(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, tok, found := strings.Cut(h, " ")
		tok = strings.TrimSpace(tok)
		if found && strings.EqualFold(scheme, "Bearer") && tok != "" && tok != "undefined" {
			return tok
		}
	}
	if ck, err := c.Cookie(jwthelp.AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}
