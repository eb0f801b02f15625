// Package token issues and verifies the bearer credentials handed to tenant
// admins after login.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/tenantd/internal/clock"
)

var (
	ErrMissing   = errors.New("token_missing")
	ErrExpired   = errors.New("token_expired")
	ErrMalformed = errors.New("token_malformed")
)

// Claims is the signed claim set binding a bearer credential to one admin of
// one tenant.
type Claims struct {
	AdminID          string `json:"admin_id"`
	OrganizationName string `json:"organization_name"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewIssuer(secret string, ttl time.Duration, clk clock.Clock) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clk,
	}
}

// Issue signs a token for the given admin and tenant. The expiry time is
// returned alongside the raw token.
func (i *Issuer) Issue(adminID, organizationName string) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		AdminID:          adminID,
		OrganizationName: organizationName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return raw, expiresAt, nil
}

// Verify parses and validates a raw token. Expired, malformed and missing
// tokens are distinguished so the transport layer can report stable codes.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.clock.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}

	return claims, nil
}
