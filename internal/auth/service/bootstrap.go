package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/stockdesk/internal/auth/domain"
	"github.com/aussiebroadwan/stockdesk/internal/auth/store"
	"github.com/aussiebroadwan/stockdesk/pkg/cryptox"
	"github.com/aussiebroadwan/stockdesk/pkg/idx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
)

var ErrBootstrapIncomplete = errors.New("bootstrap admin needs a username and email")

// BootstrapService guarantees the system has at least one active
// administrator, since only administrators can register accounts.
type BootstrapService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
}

// IsBootstrapped reports whether an active administrator exists.
func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	n, err := s.Store.Users().CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EnsureAdmin creates admin when no active administrator exists. When
// admin.Password is empty a random one is generated and returned so the
// caller can show it once. It returns created=false when nothing was done.
func (s *BootstrapService) EnsureAdmin(
	ctx context.Context,
	admin domain.BootstrapAdmin,
) (created bool, password string, err error) {
	l := slogx.FromContext(ctx)

	done, err := s.IsBootstrapped(ctx)
	if err != nil {
		return false, "", err
	}
	if done {
		l.Debug("administrator present, skipping bootstrap")
		return false, "", nil
	}

	if admin.Username == "" || admin.Email == "" {
		return false, "", ErrBootstrapIncomplete
	}

	password = admin.Password
	if password == "" {
		password, err = cryptox.GeneratePassword()
		if err != nil {
			return false, "", err
		}
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return false, "", err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Username:     admin.Username,
		Email:        admin.Email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Status:       domain.StatusActive,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Re-check inside the transaction so two instances sharing a
		// database do not both create an admin.
		n, err := tx.Users().CountAdmins(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return errBootstrapRaced
		}
		return tx.Users().CreateUser(ctx, u)
	})
	if errors.Is(err, errBootstrapRaced) {
		return false, "", nil
	}
	if err != nil {
		l.Error("failed to create bootstrap admin", slog.Any("error", err))
		return false, "", err
	}

	l.Info("created bootstrap administrator",
		slog.String("user_id", u.ID),
		slog.String("email", u.Email),
	)
	return true, password, nil
}

var errBootstrapRaced = errors.New("administrator created concurrently")
