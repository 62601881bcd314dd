package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/auth/domain"
)

type faceAttemptsRepo struct {
	db dbtx
}

func (r *faceAttemptsRepo) CreateFaceAttempt(ctx context.Context, a domain.FaceAttempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO face_attempts (id, user_id, email, verified, distance, reason, remote_addr, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, mapStringNull(a.UserID), a.Email, a.Verified, a.Distance, a.Reason, a.RemoteAddr, a.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *faceAttemptsRepo) ListFaceAttemptsByEmail(
	ctx context.Context,
	email string,
	limit int,
) ([]domain.FaceAttempt, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, email, verified, distance, reason, remote_addr, created_at
		FROM face_attempts
		WHERE email = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FaceAttempt
	for rows.Next() {
		var (
			a      domain.FaceAttempt
			userID sql.NullString
		)
		if err := rows.Scan(&a.ID, &userID, &a.Email, &a.Verified, &a.Distance, &a.Reason, &a.RemoteAddr, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.UserID = mapNullString(userID)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *faceAttemptsRepo) DeleteFaceAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM face_attempts WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
