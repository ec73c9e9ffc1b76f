package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/auth_service/internal/config"
	"github.com/Skotchmaster/auth_service/pkg/jwks"
	"github.com/Skotchmaster/auth_service/pkg/tokens"
)

var (
	ErrPrivateKeyMissing    = errors.New("private key not found")
	ErrRefreshSecretMissing = errors.New("refresh token secret not found")
)

// Issuer signs access and refresh tokens. It never touches the store.
type Issuer interface {
	AccessToken(userID uint, role string) (string, error)
	RefreshToken(userID uint, role string, recordID uint) (string, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// JWTIssuer signs access tokens with RS256 and refresh tokens with HS256.
type JWTIssuer struct {
	PrivateKey    *rsa.PrivateKey
	KeyID         string
	RefreshSecret []byte
	Issuer        string
	AccessExp     time.Duration
	RefreshExp    time.Duration

	now func() time.Time
}

var _ Issuer = (*JWTIssuer)(nil)

func NewJWTIssuer(cfg *config.Config) *JWTIssuer {
	return &JWTIssuer{
		PrivateKey:    cfg.PrivateKey,
		KeyID:         cfg.KeyID,
		RefreshSecret: cfg.RefreshSecret,
		Issuer:        cfg.Issuer,
		AccessExp:     cfg.AccessTTL,
		RefreshExp:    cfg.RefreshTTL,
	}
}

func (i *JWTIssuer) AccessTTL() time.Duration  { return i.AccessExp }
func (i *JWTIssuer) RefreshTTL() time.Duration { return i.RefreshExp }

func (i *JWTIssuer) AccessToken(userID uint, role string) (string, error) {
	if i.PrivateKey == nil {
		return "", ErrPrivateKeyMissing
	}
	now := i.clock()
	claims := tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    i.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.AccessExp)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if i.KeyID != "" {
		token.Header["kid"] = i.KeyID
	}
	signed, err := token.SignedString(i.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// RefreshToken embeds recordID both as the id claim and as jti.
func (i *JWTIssuer) RefreshToken(userID uint, role string, recordID uint) (string, error) {
	if len(i.RefreshSecret) == 0 {
		return "", ErrRefreshSecretMissing
	}
	now := i.clock()
	id := strconv.FormatUint(uint64(recordID), 10)
	claims := tokens.RefreshClaims{
		Role:     role,
		RecordID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    i.Issuer,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.RefreshExp)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.RefreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// JWKS publishes the public half of the signing key.
func (i *JWTIssuer) JWKS() (jwks.Set, error) {
	if i.PrivateKey == nil {
		return jwks.Set{}, ErrPrivateKeyMissing
	}
	return jwks.NewSet(i.KeyID, &i.PrivateKey.PublicKey), nil
}

func (i *JWTIssuer) clock() time.Time {
	if i.now != nil {
		return i.now()
	}
	return time.Now()
}
