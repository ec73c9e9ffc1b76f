package tokens

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

func RefreshClaimsFromToken(tokenStr string, refreshSecret []byte, issuer string) (*RefreshClaims, error) {
	if len(refreshSecret) == 0 {
		return nil, errors.New("refresh secret is not configured")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return refreshSecret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid refresh token")
	}
	return &claims, nil
}
