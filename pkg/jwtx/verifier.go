package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed     = errors.New("jwtx: malformed token")
	ErrMissingExpiry = errors.New("jwtx: token has no exp claim")
	ErrIssuer        = errors.New("jwtx: issuer mismatch")
	ErrExpired       = errors.New("jwtx: token expired")
	ErrNotYetValid   = errors.New("jwtx: token not yet valid")
)

// EdDSAVerifier validates JWTs signed with Ed25519 keys from a KeySet.
type EdDSAVerifier struct {
	keys   *KeySet
	issuer string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now is the clock used for expiry checks; nil means time.Now.
	Now func() time.Time
}

// NewVerifierEdDSA creates a verifier over keys that expects issuer.
func NewVerifierEdDSA(keys *KeySet, issuer string) *EdDSAVerifier {
	return &EdDSAVerifier{keys: keys, issuer: issuer}
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *EdDSAVerifier) Verify(tokenStr string) (Claims, error) {
	// Expiry is checked below with our own clock, so the parser's own
	// time-based validation is switched off.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("jwtx: unknown kid %q: %w", kid, err)
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, errors.New("jwtx: invalid token claims")
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(v.now(), v.Leeway); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

func (v *EdDSAVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
