package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/pkg/tokens"
)

// Keys set on the echo context by the gates.
const (
	UserIDKey        = "user_id"
	RoleKey          = "role"
	ClaimsKey        = "claims"
	RefreshClaimsKey = "refresh_claims"
)

func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(UserIDKey).(uint)
	return id, ok && id != 0
}

func Role(c echo.Context) (string, bool) {
	role, ok := c.Get(RoleKey).(string)
	return role, ok && role != ""
}

func AccessClaims(c echo.Context) (*tokens.AccessClaims, bool) {
	claims, ok := c.Get(ClaimsKey).(*tokens.AccessClaims)
	return claims, ok
}

func RefreshClaims(c echo.Context) (*tokens.RefreshClaims, bool) {
	claims, ok := c.Get(RefreshClaimsKey).(*tokens.RefreshClaims)
	return claims, ok
}
