package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/auth/domain"
	"github.com/aussiebroadwan/stockdesk/pkg/idx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingPurgesOldAttempts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{48 * time.Hour, time.Hour} {
		require.NoError(t, st.FaceAttempts().CreateFaceAttempt(ctx, domain.FaceAttempt{
			ID:        idx.New().String(),
			Email:     "clerk@example.com",
			Distance:  -1,
			Reason:    ReasonUnknownUser,
			CreatedAt: now.Add(-age),
		}))
	}

	hk := NewHousekeepingService(st, slogx.Discard(), time.Hour, 24*time.Hour)
	hk.Now = func() time.Time { return now }
	hk.Start()
	hk.Stop()
	hk.Stop()

	left, err := st.FaceAttempts().ListFaceAttemptsByEmail(ctx, "clerk@example.com", 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.True(t, left[0].CreatedAt.Equal(now.Add(-time.Hour)))
}

func TestHousekeepingDefaults(t *testing.T) {
	t.Parallel()
	hk := NewHousekeepingService(nil, slogx.Discard(), 0, 0)
	require.Equal(t, time.Hour, hk.Interval)
	require.Equal(t, DefaultFaceAttemptRetention, hk.Retention)
}
