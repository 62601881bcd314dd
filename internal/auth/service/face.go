package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/auth/domain"
	"github.com/aussiebroadwan/stockdesk/internal/auth/facematch"
	"github.com/aussiebroadwan/stockdesk/internal/auth/store"
	"github.com/aussiebroadwan/stockdesk/pkg/idx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
)

// Reasons recorded with a face attempt. Only the audit log sees them; the
// caller gets a bare verdict so the endpoint does not reveal which emails
// exist.
const (
	ReasonMatched       = "matched"
	ReasonNoMatch       = "no_match"
	ReasonUnknownUser   = "unknown_user"
	ReasonDisabled      = "account_disabled"
	ReasonNotEnrolled   = "not_enrolled"
	ReasonCorruptRecord = "corrupt_enrolment"
)

// FaceVerdict is the outcome of VerifyFace.
type FaceVerdict struct {
	Verified bool
	Distance int
	Reason   string
}

type FaceService struct {
	Store   store.Store
	Matcher facematch.Matcher

	// Now overrides the clock in tests.
	Now func() time.Time
}

// VerifyFace compares image against the face enrolled for email and records
// the attempt. An image that cannot be decoded returns ErrInvalidImage and is
// not recorded.
func (s *FaceService) VerifyFace(ctx context.Context, email string, image []byte, remoteAddr string) (FaceVerdict, error) {
	l := slogx.FromContext(ctx)
	email = strings.TrimSpace(email)

	probe, err := facematch.Compute(image)
	if err != nil {
		return FaceVerdict{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	verdict := FaceVerdict{Distance: -1}
	var userID string

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		verdict.Reason = ReasonUnknownUser
	case err != nil:
		return FaceVerdict{}, err
	default:
		userID = u.ID
		verdict = s.compare(ctx, u, probe)
	}

	attempt := domain.FaceAttempt{
		ID:         idx.New().String(),
		UserID:     userID,
		Email:      email,
		Verified:   verdict.Verified,
		Distance:   verdict.Distance,
		Reason:     verdict.Reason,
		RemoteAddr: remoteAddr,
		CreatedAt:  s.now(),
	}
	if err := s.Store.FaceAttempts().CreateFaceAttempt(ctx, attempt); err != nil {
		l.Error("failed to record face attempt", slog.Any("error", err))
		return FaceVerdict{}, err
	}

	l.Info("face verification",
		slog.String("user_id", userID),
		slog.Bool("verified", verdict.Verified),
		slog.Int("distance", verdict.Distance),
		slog.String("reason", verdict.Reason),
	)
	return verdict, nil
}

func (s *FaceService) compare(ctx context.Context, u domain.User, probe facematch.Hash) FaceVerdict {
	v := FaceVerdict{Distance: -1}

	if !u.Active() {
		v.Reason = ReasonDisabled
		return v
	}
	if u.FaceHash == "" {
		v.Reason = ReasonNotEnrolled
		return v
	}

	enrolled, err := facematch.ParseHash(u.FaceHash)
	if err != nil {
		slogx.FromContext(ctx).Error("enrolled face hash is unreadable",
			slog.String("user_id", u.ID),
			slog.Any("error", err),
		)
		v.Reason = ReasonCorruptRecord
		return v
	}

	res := s.Matcher.Match(enrolled, probe)
	v.Distance = res.Distance
	v.Verified = res.Matched
	if v.Verified {
		v.Reason = ReasonMatched
	} else {
		v.Reason = ReasonNoMatch
	}
	return v
}

func (s *FaceService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
