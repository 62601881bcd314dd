package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/auth/domain"
	"github.com/aussiebroadwan/stockdesk/internal/auth/store"
	"github.com/aussiebroadwan/stockdesk/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/stockdesk/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(email string, role domain.Role) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Username:     email[:3] + idx.New().String()[20:],
		Email:        email,
		PasswordHash: "$argon2id$dummy",
		Role:         role,
		Status:       domain.StatusActive,
	}
}

func TestUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	clerk := newUser("clerk@example.com", domain.RoleUser)
	clerk.FaceImage = []byte{1, 2, 3}
	clerk.FaceMIME = "image/png"
	clerk.FaceHash = "00ff00ff00ff00ff"
	require.NoError(t, s.Users().CreateUser(ctx, clerk))

	t.Run("lookup by email is case insensitive", func(t *testing.T) {
		got, err := s.Users().GetUserByEmail(ctx, " Clerk@Example.COM ")
		require.NoError(t, err)
		require.Equal(t, clerk.ID, got.ID)
		require.Equal(t, domain.RoleUser, got.Role)
		require.Equal(t, []byte{1, 2, 3}, got.FaceImage)
		require.Equal(t, "00ff00ff00ff00ff", got.FaceHash)
		require.False(t, got.CreatedAt.IsZero())
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := newUser("CLERK@example.com", domain.RoleUser)
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.Users().UpdateStatus(ctx, "nope", domain.StatusDisabled), store.ErrNotFound)
	})

	t.Run("status and admin count", func(t *testing.T) {
		admin := newUser("admin@example.com", domain.RoleAdmin)
		require.NoError(t, s.Users().CreateUser(ctx, admin))

		n, err := s.Users().CountAdmins(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		require.NoError(t, s.Users().UpdateStatus(ctx, admin.ID, domain.StatusDisabled))
		n, err = s.Users().CountAdmins(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 0, n)

		got, err := s.Users().GetUserByID(ctx, admin.ID)
		require.NoError(t, err)
		require.False(t, got.Active())
	})
}

func TestFaceAttempts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	u := newUser("clerk@example.com", domain.RoleUser)
	require.NoError(t, s.Users().CreateUser(ctx, u))

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, s.FaceAttempts().CreateFaceAttempt(ctx, domain.FaceAttempt{
			ID:        idx.NewAt(base.Add(time.Duration(i) * time.Hour)).String(),
			UserID:    u.ID,
			Email:     u.Email,
			Verified:  i == 2,
			Distance:  20 - i*8,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	// unknown email is still audited
	require.NoError(t, s.FaceAttempts().CreateFaceAttempt(ctx, domain.FaceAttempt{
		ID: idx.New().String(), Email: "ghost@example.com", Distance: -1, Reason: "unknown_user", CreatedAt: base,
	}))

	got, err := s.FaceAttempts().ListFaceAttemptsByEmail(ctx, u.Email, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.True(t, got[0].Verified, "newest first")
	require.Equal(t, u.ID, got[0].UserID)

	ghost, err := s.FaceAttempts().ListFaceAttemptsByEmail(ctx, "ghost@example.com", 10)
	require.NoError(t, err)
	require.Len(t, ghost, 1)
	require.Empty(t, ghost[0].UserID)

	n, err := s.FaceAttempts().DeleteFaceAttemptsBefore(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 3, n, "two clerk rows and the ghost row")

	got, err = s.FaceAttempts().ListFaceAttemptsByEmail(ctx, u.Email, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestWithTxRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, newUser("a@example.com", domain.RoleAdmin)))
		return store.ErrAlreadyExists
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, newUser("b@example.com", domain.RoleAdmin))
	}))
	empty, err = s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}
