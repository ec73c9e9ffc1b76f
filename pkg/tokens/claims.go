package tokens

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of an RS256 access token: {sub, role, iss, exp}.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of an HS256 refresh token. RecordID duplicates jti and names
// the persisted refresh token row.
type RefreshClaims struct {
	Role     string `json:"role"`
	RecordID string `json:"id"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) UserID() (uint, error) {
	return parseID(c.Subject, "sub")
}

func (c *RefreshClaims) UserID() (uint, error) {
	return parseID(c.Subject, "sub")
}

func (c *RefreshClaims) TokenID() (uint, error) {
	return parseID(c.RecordID, "id")
}

func parseID(v, name string) (uint, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("claim %s is not a positive integer: %q", name, v)
	}
	return uint(n), nil
}
