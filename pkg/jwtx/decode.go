package jwtx

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DecodeExpiry reads the exp claim of raw without checking the signature.
// Clients only hold tokens they cannot verify; the server verifies every
// request it receives.
func DecodeExpiry(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrMalformed
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMissingExpiry
	}

	return claims.ExpiresAt.Time, nil
}

// Expired reports whether raw is expired at now. A token whose expiry cannot
// be decoded is always expired.
func Expired(raw string, now time.Time) bool {
	exp, err := DecodeExpiry(raw)
	if err != nil {
		return true
	}
	return !exp.After(now)
}
