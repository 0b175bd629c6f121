// Package utils holds helpers for inspecting and minting bearer tokens.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can learn from a bearer token without the
// signing key.  None of it is trusted: the backend stays the authority on
// whether the token is valid.
type TokenInfo struct {
	Subject   string
	Role      string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Expired reports whether the exp claim is in the past relative to now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// ErrOpaqueToken means the token is not a JWT; that is legal, the backend
// may issue opaque tokens.
var ErrOpaqueToken = errors.New("token is not a JWT")

// InspectToken decodes the claims of a JWT bearer token without verifying
// its signature.
func InspectToken(raw string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{}, ErrOpaqueToken
	}
	var info TokenInfo
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if role, ok := claims["role"].(string); ok {
		info.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time.UTC()
	}
	return info, nil
}

// SignToken builds an HS256 JWT with sub, role, exp and iat claims.  The
// storefront never signs its own credentials; this exists for local
// backends and tests that need realistic tokens.
func SignToken(secret, subject, role string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
