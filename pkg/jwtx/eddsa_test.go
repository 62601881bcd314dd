package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/stockdesk/pkg/cryptox"
	"github.com/aussiebroadwan/stockdesk/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "stockdesk-auth"

func newSigner(t *testing.T, kid string) *jwtx.EdDSASigner {
	t.Helper()

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return signer
}

func TestEdDSASignAndVerify(t *testing.T) {
	signer := newSigner(t, "test-key-eddsa")
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, "test-key-eddsa", signer.KID())

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims("user-456", "ada@example.com", "ada", "ADMIN", 5*time.Minute, exampleIssuer, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	keyset.AddSigner(signer)
	require.True(t, keyset.IsReady())

	got, err := jwtx.NewVerifierEdDSA(keyset, exampleIssuer).Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-456", got.Subject)
	require.Equal(t, "ada@example.com", got.Email)
	require.Equal(t, "ADMIN", got.Role)
}

func TestEdDSAVerifyRejects(t *testing.T) {
	signer := newSigner(t, "kid-a")
	keyset := jwtx.NewKeySet()
	keyset.AddSigner(signer)

	now := time.Now().UTC()

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewAccessClaims("u", "e", "n", "USER", time.Minute, "someone-else", now))
		require.NoError(t, err)

		_, err = jwtx.NewVerifierEdDSA(keyset, exampleIssuer).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewAccessClaims("u", "e", "n", "USER", time.Minute, exampleIssuer, now.Add(-time.Hour)))
		require.NoError(t, err)

		_, err = jwtx.NewVerifierEdDSA(keyset, exampleIssuer).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("unknown kid", func(t *testing.T) {
		other := newSigner(t, "kid-b")
		token, err := other.Sign(jwtx.NewAccessClaims("u", "e", "n", "USER", time.Minute, exampleIssuer, now))
		require.NoError(t, err)

		_, err = jwtx.NewVerifierEdDSA(keyset, exampleIssuer).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrNoKey)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := jwtx.NewVerifierEdDSA(keyset, exampleIssuer).Verify("a.b.c")
		require.Error(t, err)
	})
}

func TestVerifierUsesInjectedClock(t *testing.T) {
	signer := newSigner(t, "kid")
	keyset := jwtx.NewKeySet()
	keyset.AddSigner(signer)

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token, err := signer.Sign(jwtx.NewAccessClaims("u", "e", "n", "USER", time.Minute, exampleIssuer, issued))
	require.NoError(t, err)

	v := jwtx.NewVerifierEdDSA(keyset, exampleIssuer)
	v.Now = func() time.Time { return issued.Add(30 * time.Second) }
	_, err = v.Verify(token)
	require.NoError(t, err)

	v.Now = func() time.Time { return issued.Add(time.Minute) }
	_, err = v.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}
