package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/stockdesk/internal/auth/domain"
	"github.com/aussiebroadwan/stockdesk/internal/auth/facematch"
	"github.com/aussiebroadwan/stockdesk/internal/auth/store"
	"github.com/aussiebroadwan/stockdesk/pkg/cryptox"
	"github.com/aussiebroadwan/stockdesk/pkg/idx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
)

var (
	ErrUserNotFound = errors.New("user_not_found")
	ErrEmailTaken   = errors.New("email_taken")
	ErrFaceRequired = errors.New("face_required")
	ErrInvalidImage = errors.New("invalid_image")
)

// Registration is a validated request to create an account.
type Registration struct {
	Username  string
	Email     string
	Password  string
	Role      domain.Role
	Status    domain.Status
	FaceImage []byte
	FaceMIME  string
}

type UserService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// GetActiveUser is GetUserByID that also refuses disabled accounts, so a
// token minted before an account was disabled stops resolving a profile.
func (s *UserService) GetActiveUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if !u.Active() {
		return domain.User{}, ErrAccountDisabled
	}
	return u, nil
}

// RegisterUser creates an account and returns its id. USER accounts must
// enrol a face; the enrolled image is hashed once here so verification only
// hashes the probe.
func (s *UserService) RegisterUser(ctx context.Context, reg Registration) (string, error) {
	l := slogx.FromContext(ctx)

	if reg.Role.RequiresFace() && len(reg.FaceImage) == 0 {
		return "", ErrFaceRequired
	}

	u := domain.User{
		ID:       idx.New().String(),
		Username: strings.TrimSpace(reg.Username),
		Email:    strings.TrimSpace(reg.Email),
		Role:     reg.Role,
		Status:   reg.Status,
	}
	if u.Status == "" {
		u.Status = domain.StatusActive
	}

	if len(reg.FaceImage) > 0 {
		h, err := facematch.Compute(reg.FaceImage)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		u.FaceImage = reg.FaceImage
		u.FaceMIME = reg.FaceMIME
		u.FaceHash = h.String()
	}

	hash, err := s.Hasher.Hash(reg.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return "", ErrEmailTaken
		}
		l.Error("failed to create user", slog.Any("error", err))
		return "", err
	}

	l.Info("registered user",
		slog.String("user_id", u.ID),
		slog.String("role", string(u.Role)),
		slog.Bool("face_enrolled", u.FaceHash != ""),
	)
	return u.ID, nil
}
