// Package token issues and verifies HS256 bearer access tokens.
package token

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/seatwise/internal/config"
)

var (
	ErrDisabled     = errors.New("access tokens disabled")
	ErrInvalidToken = errors.New("invalid token")
)

const issuer = "seatwise"

// Issuer signs access tokens. A zero-secret Issuer is disabled.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(cfg config.Config) *Issuer {
	ttl := cfg.AuthTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(cfg.AuthJWTSecret), ttl: ttl}
}

func (i *Issuer) Enabled() bool {
	return i != nil && len(i.secret) > 0
}

// Issue signs a token for userID valid from now for the configured TTL.
func (i *Issuer) Issue(userID snowflake.ID, now time.Time) (string, time.Time, error) {
	if !i.Enabled() {
		return "", time.Time{}, ErrDisabled
	}
	expiresAt := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and expiry, returning the subject user ID.
func (i *Issuer) Parse(raw string, now time.Time) (snowflake.ID, error) {
	if !i.Enabled() {
		return 0, ErrDisabled
	}
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := snowflake.ParseString(claims.Subject)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
