package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/auth/store"
)

// DefaultFaceAttemptRetention is how long face attempts stay in the audit log.
const DefaultFaceAttemptRetention = 30 * 24 * time.Hour

// HousekeepingService periodically purges face-verification audit rows older
// than Retention so the table does not grow without bound.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewHousekeepingService creates a new housekeeping service. A non-positive
// interval defaults to 1 hour and a non-positive retention to
// DefaultFaceAttemptRetention.
func NewHousekeepingService(
	store store.Store,
	logger *slog.Logger,
	interval, retention time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = DefaultFaceAttemptRetention
	}

	return &HousekeepingService{
		Store:     store,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. It is non-blocking and should be
// called after migrations have run.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started",
		"interval", s.Interval,
		"retention", s.Retention,
	)
}

// Stop shuts the worker down and blocks until an in-progress cleanup has
// finished. Calling it more than once is safe.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		s.Logger.Info("housekeeping service stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	cutoff := now.Add(-s.Retention)

	n, err := s.Store.FaceAttempts().DeleteFaceAttemptsBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to purge face attempts", "error", err)
		return
	}
	s.Logger.Info("housekeeping cleanup completed",
		"face_attempts_deleted", n,
		"cutoff", cutoff,
	)
}
