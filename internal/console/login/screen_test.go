package login_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/console/facecapture"
	"github.com/aussiebroadwan/stockdesk/internal/console/login"
	"github.com/aussiebroadwan/stockdesk/internal/console/notify"
	"github.com/aussiebroadwan/stockdesk/internal/console/session"
	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	ok      bool
	err     error
	profile *session.Profile
	logins  int
	logouts int
}

func (a *fakeAuth) Login(context.Context, string, string) (bool, error) {
	a.logins++
	return a.ok, a.err
}

func (a *fakeAuth) Logout(context.Context) {
	a.logouts++
	a.profile = nil
}

func (a *fakeAuth) Snapshot() session.Snapshot {
	if a.profile == nil {
		return session.Snapshot{}
	}
	p := *a.profile
	return session.Snapshot{State: session.StateAuthenticated, Token: "tok", Profile: &p}
}

type oneFaceDetector struct{}

func (oneFaceDetector) Detect(context.Context, facecapture.Frame) ([]facecapture.Box, error) {
	return []facecapture.Box{{Width: 40, Height: 40, Score: 0.9}}, nil
}

type loader struct{ err error }

func (l loader) Load(context.Context) (facecapture.Detector, error) {
	if l.err != nil {
		return nil, l.err
	}
	return oneFaceDetector{}, nil
}

type stillCamera struct{}

func (stillCamera) Frame(context.Context) (facecapture.Frame, error) {
	return facecapture.Frame{Data: []byte("face"), MIME: "image/jpeg"}, nil
}
func (stillCamera) Close() error { return nil }

type verifier struct{ verified bool }

func (v verifier) VerifyFace(context.Context, string, string) (*authsdk.VerifyFaceResponse, error) {
	return &authsdk.VerifyFaceResponse{Verified: v.verified}, nil
}

type fixture struct {
	screen  *login.Screen
	auth    *fakeAuth
	notices *notify.Center
}

func newFixture(t *testing.T, loadErr error) *fixture {
	t.Helper()
	auth := &fakeAuth{ok: true}
	notices := notify.NewCenter(time.Minute, slogx.Discard())

	newFlow := func() *facecapture.Flow {
		return facecapture.NewFlow(facecapture.Config{
			Loader:         loader{err: loadErr},
			OpenCamera:     func(context.Context) (facecapture.Camera, error) { return stillCamera{}, nil },
			Verifier:       verifier{verified: true},
			Notifier:       notices,
			Logger:         slogx.Discard(),
			SampleInterval: time.Hour,
		})
	}

	s := login.NewScreen(auth, newFlow, notices, slogx.Discard())
	t.Cleanup(s.Leave)
	return &fixture{screen: s, auth: auth, notices: notices}
}

// verify runs the face flow to VERIFIED for email.
func (f *fixture) verify(t *testing.T, email string) *facecapture.Flow {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.screen.StartFace(ctx))

	flow := f.screen.Flow()
	require.Eventually(t, func() bool {
		return flow.State() == facecapture.StateArmedScanning
	}, 2*time.Second, time.Millisecond)
	require.NoError(t, flow.Tick(ctx))
	require.True(t, flow.Capture())
	require.NoError(t, f.screen.VerifyFace(ctx, email))
	return flow
}

func (f *fixture) lastNotice(t *testing.T) notify.Notice {
	t.Helper()
	active := f.notices.Active()
	require.NotEmpty(t, active)
	return active[len(active)-1]
}

func TestAdminBypassesFace(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.auth.profile = &session.Profile{Username: "admin", Role: session.RoleAdmin}

	require.True(t, f.screen.CanSubmit("admin@example.com", session.RoleAdmin))
	ok, err := f.screen.Submit(context.Background(), "admin@example.com", "password123", session.RoleAdmin)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Welcome, admin.", f.lastNotice(t).Text)
}

func TestUserNeedsVerifiedFace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	f.auth.profile = &session.Profile{Username: "clerk", Role: session.RoleUser}

	require.False(t, f.screen.CanSubmit("clerk@example.com", session.RoleUser))
	ok, err := f.screen.Submit(ctx, "clerk@example.com", "password123", session.RoleUser)
	require.ErrorIs(t, err, login.ErrFaceRequired)
	require.False(t, ok)
	require.Zero(t, f.auth.logins)
	require.Equal(t, login.MsgVerifyFaceFirst, f.lastNotice(t).Text)

	flow := f.verify(t, "Clerk@Example.com ")

	_, err = f.screen.Submit(ctx, "someone-else@example.com", "password123", session.RoleUser)
	require.ErrorIs(t, err, login.ErrFaceRequired)

	require.True(t, f.screen.CanSubmit("clerk@example.com", session.RoleUser))
	ok, err = f.screen.Submit(ctx, "clerk@example.com", "password123", session.RoleUser)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, f.auth.logins)

	require.Nil(t, f.screen.Flow(), "capture session ends with the login attempt")
	require.Equal(t, facecapture.StateIdle, flow.State())
	require.ErrorIs(t, flow.Start(ctx), facecapture.ErrClosed)
}

func TestModelFailureDisablesUserLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, errors.New("weights not found"))

	require.ErrorIs(t, f.screen.StartFace(ctx), facecapture.ErrModelLoad)
	require.True(t, f.screen.FaceUnavailable())

	_, err := f.screen.Submit(ctx, "clerk@example.com", "password123", session.RoleUser)
	require.ErrorIs(t, err, login.ErrFaceUnavailable)
	require.Equal(t, login.MsgFaceUnavailable, f.lastNotice(t).Text)

	f.auth.profile = &session.Profile{Username: "admin", Role: session.RoleAdmin}
	ok, err := f.screen.Submit(ctx, "admin@example.com", "password123", session.RoleAdmin)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAdminTypeRequiresAdminAccount(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.auth.profile = &session.Profile{Username: "clerk", Role: session.RoleUser}

	ok, err := f.screen.Submit(context.Background(), "clerk@example.com", "password123", session.RoleAdmin)
	require.ErrorIs(t, err, login.ErrFaceRequired)
	require.False(t, ok)
	require.Equal(t, 1, f.auth.logouts)
	require.Equal(t, login.MsgAdminOnlyBypass, f.lastNotice(t).Text)
}

func TestSubmitFailures(t *testing.T) {
	t.Parallel()

	t.Run("wrong credentials keep the capture session", func(t *testing.T) {
		f := newFixture(t, nil)
		f.auth.ok = false
		f.verify(t, "clerk@example.com")

		ok, err := f.screen.Submit(context.Background(), "clerk@example.com", "nope", session.RoleUser)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, login.MsgBadCredentials, f.lastNotice(t).Text)
		require.NotNil(t, f.screen.Flow())
	})

	t.Run("transport failure", func(t *testing.T) {
		f := newFixture(t, nil)
		f.auth.ok = false
		f.auth.err = errors.Join(session.ErrAuthTransport, errors.New("connection refused"))

		ok, err := f.screen.Submit(context.Background(), "admin@example.com", "password123", session.RoleAdmin)
		require.ErrorIs(t, err, session.ErrAuthTransport)
		require.False(t, ok)
		require.Equal(t, login.MsgServerDown, f.lastNotice(t).Text)
		require.Equal(t, notify.KindError, f.lastNotice(t).Kind)
	})

	t.Run("profile fetch failure", func(t *testing.T) {
		f := newFixture(t, nil)
		f.auth.ok = false
		f.auth.err = session.ErrSessionExpired

		_, err := f.screen.Submit(context.Background(), "admin@example.com", "password123", session.RoleAdmin)
		require.ErrorIs(t, err, session.ErrSessionExpired)
		require.Equal(t, login.MsgSessionFailed, f.lastNotice(t).Text)
	})

	t.Run("unknown account type", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.screen.Submit(context.Background(), "x@example.com", "password123", session.Role("GUEST"))
		require.ErrorIs(t, err, login.ErrUnknownAccountType)
	})
}
