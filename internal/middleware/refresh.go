package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/auth_service/internal/jwt"
	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/pkg/tokens"
)

type RevocationChecker interface {
	IsRefreshTokenRevoked(ctx context.Context, id, userID uint) (bool, error)
}

// RefreshGate verifies the HS256 refresh cookie and then requires its row to still exist
// for the same user. A failed lookup counts as revoked.
func RefreshGate(secret []byte, issuer string, checker RevocationChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("mw", "refresh_gate")

			ck, err := c.Cookie(jwthelp.RefreshCookie)
			if err != nil || ck.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
			}

			claims, err := tokens.RefreshClaimsFromToken(ck.Value, secret, issuer)
			if err != nil {
				l.Warn("refresh_token_rejected", "status", 401, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			userID, err := claims.UserID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			tokenID, err := claims.TokenID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			revoked, err := checker.IsRefreshTokenRevoked(ctx, tokenID, userID)
			switch {
			case err != nil:
				metrics.RefreshChecks.WithLabelValues(metrics.RefreshError).Inc()
				l.Error("refresh_check_failed", "token_id", tokenID, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "The token has been revoked")
			case revoked:
				metrics.RefreshChecks.WithLabelValues(metrics.RefreshRevoked).Inc()
				l.Warn("refresh_token_revoked", "status", 401, "token_id", tokenID)
				return echo.NewHTTPError(http.StatusUnauthorized, "The token has been revoked")
			}
			metrics.RefreshChecks.WithLabelValues(metrics.RefreshValid).Inc()

			c.Set(RefreshClaimsKey, claims)
			return next(c)
		}
	}
}
