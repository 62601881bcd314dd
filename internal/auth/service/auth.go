package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/auth/domain"
	"github.com/aussiebroadwan/stockdesk/internal/auth/store"
	"github.com/aussiebroadwan/stockdesk/pkg/cryptox"
	"github.com/aussiebroadwan/stockdesk/pkg/jwtx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountDisabled    = errors.New("account_disabled")
)

// AuthService exchanges email and password for a signed access token.
type AuthService struct {
	Store     store.Store
	Hasher    *cryptox.PasswordHasher
	Signer    jwtx.Signer
	Issuer    string
	AccessTTL time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Login checks the password and returns a compact JWT. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials. A correct password for a
// disabled account yields ErrAccountDisabled.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	l := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("login for unknown email")
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrInvalidHash) {
			l.Error("stored password hash is unreadable",
				slog.String("user_id", u.ID),
				slog.Any("error", err),
			)
		} else {
			l.Info("login password mismatch", slog.String("user_id", u.ID))
		}
		return "", ErrInvalidCredentials
	}

	if !u.Active() {
		l.Warn("login for disabled account", slog.String("user_id", u.ID))
		return "", ErrAccountDisabled
	}

	return s.sign(u)
}

func (s *AuthService) sign(u domain.User) (string, error) {
	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}
	claims := jwtx.NewAccessClaims(
		u.ID,
		u.Email,
		u.Username,
		string(u.Role),
		ttl,
		s.Issuer,
		s.now(),
	)
	return s.Signer.Sign(claims)
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
