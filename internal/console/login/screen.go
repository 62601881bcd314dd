// Package login implements the console's login screen: account type
// selection, the face verification gate for staff accounts and the hand-off
// to the session guard.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aussiebroadwan/stockdesk/internal/console/facecapture"
	"github.com/aussiebroadwan/stockdesk/internal/console/session"
)

var (
	// ErrFaceRequired means the account type needs a verified face for the
	// submitted email and none is held.
	ErrFaceRequired = errors.New("login: face verification required")

	// ErrFaceUnavailable means face capture could not start, so accounts
	// that need it cannot log in from this console right now.
	ErrFaceUnavailable = errors.New("login: face verification unavailable")

	ErrUnknownAccountType = errors.New("login: unknown account type")
)

const (
	MsgWelcome         = "Welcome, %s."
	MsgBadCredentials  = "Incorrect email or password."
	MsgServerDown      = "Could not reach the server. Please try again later."
	MsgSessionFailed   = "Your session could not be started. Please log in again."
	MsgVerifyFaceFirst = "Verify your face before logging in."
	MsgFaceUnavailable = "Face verification is unavailable. Only administrators can log in."
	MsgAdminOnlyBypass = "This account must log in with face verification."
)

// Authenticator is satisfied by *session.Guard.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (bool, error)
	Logout(ctx context.Context)
	Snapshot() session.Snapshot
}

// Notifier is satisfied by *notify.Center.
type Notifier interface {
	Info(text string)
	Warn(text string)
	Error(text string)
}

// Screen owns at most one capture session at a time and never lets it
// outlive a login attempt.
type Screen struct {
	auth     Authenticator
	newFlow  func() *facecapture.Flow
	notifier Notifier
	logger   *slog.Logger

	mu              sync.Mutex
	flow            *facecapture.Flow
	verifiedEmail   string
	faceUnavailable bool
}

func NewScreen(auth Authenticator, newFlow func() *facecapture.Flow, notifier Notifier, logger *slog.Logger) *Screen {
	if logger == nil {
		logger = slog.Default()
	}
	return &Screen{auth: auth, newFlow: newFlow, notifier: notifier, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Flow returns the current capture session, or nil.
func (s *Screen) Flow() *facecapture.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow
}

// FaceUnavailable reports whether the last attempt to start face capture
// failed to load the model or open the camera.
func (s *Screen) FaceUnavailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faceUnavailable
}

// StartFace opens a capture session, or restarts the current one.
func (s *Screen) StartFace(ctx context.Context) error {
	s.mu.Lock()
	if s.flow == nil {
		s.flow = s.newFlow()
	}
	flow := s.flow
	s.verifiedEmail = ""
	s.mu.Unlock()

	err := flow.Start(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case errors.Is(err, facecapture.ErrModelLoad), errors.Is(err, facecapture.ErrCameraDenied):
		s.faceUnavailable = true
	case err == nil:
		s.faceUnavailable = false
	}
	return err
}

// VerifyFace submits the captured frame for email and remembers the email
// on success.
func (s *Screen) VerifyFace(ctx context.Context, email string) error {
	flow := s.Flow()
	if flow == nil {
		return facecapture.ErrNotCaptured
	}

	if err := flow.Verify(ctx, email); err != nil {
		return err
	}

	s.mu.Lock()
	if s.flow == flow {
		s.verifiedEmail = normalizeEmail(email)
	}
	s.mu.Unlock()
	return nil
}

// CanSubmit reports whether Submit would reach the session guard.
func (s *Screen) CanSubmit(email string, accountType session.Role) bool {
	return s.gate(email, accountType) == nil
}

func (s *Screen) gate(email string, accountType session.Role) error {
	switch accountType {
	case session.RoleAdmin:
		return nil
	case session.RoleUser:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAccountType, accountType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faceUnavailable {
		return ErrFaceUnavailable
	}
	if s.flow == nil || s.flow.State() != facecapture.StateVerified {
		return ErrFaceRequired
	}
	if s.verifiedEmail != normalizeEmail(email) {
		return ErrFaceRequired
	}
	return nil
}

// Submit logs in as email. Administrator accounts skip face verification;
// user accounts need a verified face for the same email first. It returns
// (false, nil) for wrong credentials, like session.Guard.Login.
func (s *Screen) Submit(ctx context.Context, email, password string, accountType session.Role) (bool, error) {
	if err := s.gate(email, accountType); err != nil {
		switch {
		case errors.Is(err, ErrFaceUnavailable):
			s.notifier.Error(MsgFaceUnavailable)
		case errors.Is(err, ErrFaceRequired):
			s.notifier.Warn(MsgVerifyFaceFirst)
		}
		return false, err
	}

	ok, err := s.auth.Login(ctx, email, password)
	switch {
	case errors.Is(err, session.ErrAuthTransport):
		s.notifier.Error(MsgServerDown)
		return false, err
	case err != nil:
		s.notifier.Error(MsgSessionFailed)
		return false, err
	case !ok:
		s.notifier.Warn(MsgBadCredentials)
		return false, nil
	}

	snap := s.auth.Snapshot()
	if snap.Profile == nil {
		// Superseded by a concurrent logout.
		s.notifier.Error(MsgSessionFailed)
		return false, session.ErrSessionExpired
	}
	if accountType == session.RoleAdmin && snap.Profile.Role != session.RoleAdmin {
		s.logger.Warn("non-admin account tried to skip face verification", "email", email)
		s.auth.Logout(ctx)
		s.notifier.Warn(MsgAdminOnlyBypass)
		return false, ErrFaceRequired
	}

	s.Leave()
	s.notifier.Info(fmt.Sprintf(MsgWelcome, snap.Profile.Username))
	return true, nil
}

// Leave discards the capture session. Called after a successful login and
// whenever the user navigates away from the login screen.
func (s *Screen) Leave() {
	s.mu.Lock()
	flow := s.flow
	s.flow = nil
	s.verifiedEmail = ""
	s.mu.Unlock()

	if flow != nil {
		flow.Close()
	}
}
