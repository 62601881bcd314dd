package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers implement it and hand out
// sub-repositories so callers cannot nest transactions by accident.
type Store interface {
	Users() Users
	FaceAttempts() FaceAttempts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts u. Duplicate email or username yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	UpdateStatus(ctx context.Context, userID string, status domain.Status) error

	// CountAdmins returns the number of active ADMIN accounts.
	CountAdmins(ctx context.Context) (int64, error)

	IsEmpty(ctx context.Context) (bool, error)
}

type FaceAttempts interface {
	CreateFaceAttempt(ctx context.Context, a domain.FaceAttempt) error

	// ListFaceAttemptsByEmail returns the newest attempts first.
	ListFaceAttemptsByEmail(ctx context.Context, email string, limit int) ([]domain.FaceAttempt, error)

	// DeleteFaceAttemptsBefore purges audit rows older than cutoff and
	// returns how many were removed.
	DeleteFaceAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
