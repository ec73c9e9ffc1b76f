package tokens

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaimsFromToken verifies an RS256 access token with keyFunc (usually backed by a JWKS
// cache). An empty issuer skips the iss check.
func AccessClaimsFromToken(tokenStr string, keyFunc jwt.Keyfunc, issuer string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc, opts...)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid access token")
	}
	return &claims, nil
}
