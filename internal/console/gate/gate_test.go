package gate_test

import (
	"bytes"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/console/gate"
	"github.com/aussiebroadwan/stockdesk/internal/console/session"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func authenticated(role session.Role, exp time.Time) session.Snapshot {
	return session.Snapshot{
		State:     session.StateAuthenticated,
		Token:     "tok",
		ExpiresAt: exp,
		Profile:   &session.Profile{ID: "u1", Role: role},
	}
}

func TestDecideNeverRendersWithoutValidCredential(t *testing.T) {
	t.Parallel()

	credentials := map[string]func(role session.Role) session.Snapshot{
		"absent": func(session.Role) session.Snapshot { return session.Snapshot{} },
		"expired": func(role session.Role) session.Snapshot {
			return authenticated(role, now)
		},
		"undecodable expiry": func(role session.Role) session.Snapshot {
			return authenticated(role, time.Time{})
		},
	}
	requirements := map[string]gate.Requirement{
		"role not required": {},
		"admin required":    gate.AdminOnly,
	}

	for cname, mk := range credentials {
		for rname, req := range requirements {
			for _, role := range []session.Role{session.RoleAdmin, session.RoleUser} {
				t.Run(fmt.Sprintf("%s/%s/%s", cname, rname, role), func(t *testing.T) {
					d := gate.Decide(mk(role), req, now)
					require.Equal(t, gate.RedirectLogin, d.Action)
				})
			}
		}
	}
}

func TestDecide(t *testing.T) {
	t.Parallel()
	valid := now.Add(time.Hour)

	tests := []struct {
		name string
		snap session.Snapshot
		req  gate.Requirement
		want gate.Action
	}{
		{"user on open view", authenticated(session.RoleUser, valid), gate.Requirement{}, gate.Render},
		{"admin on open view", authenticated(session.RoleAdmin, valid), gate.Requirement{}, gate.Render},
		{"admin on admin view", authenticated(session.RoleAdmin, valid), gate.AdminOnly, gate.Render},
		{"user on admin view", authenticated(session.RoleUser, valid), gate.AdminOnly, gate.RedirectLanding},
		{
			"profile still loading",
			session.Snapshot{State: session.StateAuthenticating, Token: "tok", ExpiresAt: valid},
			gate.Requirement{},
			gate.RedirectLogin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, gate.Decide(tt.snap, tt.req, now).Action)
		})
	}
}

type staticSource struct {
	snap session.Snapshot
}

func (s *staticSource) Snapshot() session.Snapshot { return s.snap }
func (s *staticSource) Now() time.Time             { return now }

func newRouter(src *staticSource) *gate.Router {
	r := gate.NewRouter(src, "login", "dashboard", slogx.Discard())
	r.Register(gate.View{Name: "dashboard", Render: func(w io.Writer, _ session.Snapshot) error {
		_, err := fmt.Fprintln(w, "dashboard")
		return err
	}})
	r.Register(gate.View{Name: "users", Requirement: gate.AdminOnly, Render: func(w io.Writer, _ session.Snapshot) error {
		_, err := fmt.Fprintln(w, "users")
		return err
	}})
	return r
}

func TestRouterNavigate(t *testing.T) {
	t.Parallel()
	src := &staticSource{}
	r := newRouter(src)

	res, err := r.Navigate("users")
	require.NoError(t, err)
	require.Equal(t, gate.RedirectLogin, res.Decision.Action)
	require.Equal(t, "login", res.View)

	src.snap = authenticated(session.RoleUser, now.Add(time.Hour))
	res, err = r.Navigate("users")
	require.NoError(t, err)
	require.Equal(t, gate.RedirectLanding, res.Decision.Action)
	require.Equal(t, "dashboard", res.View)

	// Decisions are not cached between navigations.
	src.snap = authenticated(session.RoleAdmin, now.Add(time.Hour))
	res, err = r.Navigate("users")
	require.NoError(t, err)
	require.Equal(t, gate.Render, res.Decision.Action)
	require.Equal(t, "users", res.View)

	src.snap = session.Snapshot{}
	res, err = r.Navigate("users")
	require.NoError(t, err)
	require.Equal(t, gate.RedirectLogin, res.Decision.Action)

	_, err = r.Navigate("nowhere")
	require.ErrorIs(t, err, gate.ErrUnknownView)

	names := []string{}
	for _, v := range r.Views() {
		names = append(names, v.Name)
	}
	require.Equal(t, []string{"dashboard", "users"}, names)
}

func TestRouterOpen(t *testing.T) {
	t.Parallel()
	src := &staticSource{}
	r := newRouter(src)

	var buf bytes.Buffer
	_, err := r.Open(&buf, "dashboard")
	require.NoError(t, err)
	require.Equal(t, "Please log in to continue.\n", buf.String())

	buf.Reset()
	src.snap = authenticated(session.RoleUser, now.Add(time.Hour))
	res, err := r.Open(&buf, "users")
	require.NoError(t, err)
	require.Equal(t, "dashboard", res.View)
	require.Equal(t, "dashboard\n", buf.String())
}
