package gate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/console/session"
)

var ErrUnknownView = errors.New("gate: unknown view")

// SnapshotSource is satisfied by *session.Guard.
type SnapshotSource interface {
	Snapshot() session.Snapshot
	Now() time.Time
}

// RenderFunc draws a view for the given session.
type RenderFunc func(w io.Writer, snap session.Snapshot) error

type View struct {
	Name        string
	Title       string
	Requirement Requirement
	Render      RenderFunc
}

// Router maps view names to views and consults Decide on every Navigate.
type Router struct {
	source  SnapshotSource
	login   string
	landing string
	logger  *slog.Logger

	mu    sync.RWMutex
	views map[string]View
}

// NewRouter creates a router that sends anonymous users to the login view
// and under-privileged users to the landing view.
func NewRouter(source SnapshotSource, loginView, landingView string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		source:  source,
		login:   loginView,
		landing: landingView,
		logger:  logger,
		views:   make(map[string]View),
	}
}

// Register adds v, replacing any view with the same name.
func (r *Router) Register(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[v.Name] = v
}

// Views lists registered views sorted by name.
func (r *Router) Views() []View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]View, 0, len(r.views))
	for _, v := range r.views {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Result is where a navigation ended up.
type Result struct {
	Requested string
	Decision  Decision

	// View is the requested view on Render, otherwise the redirect target.
	View string
}

// Navigate decides access to name against the current session.
func (r *Router) Navigate(name string) (Result, error) {
	r.mu.RLock()
	v, ok := r.views[name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}

	snap := r.source.Snapshot()
	d := Decide(snap, v.Requirement, r.source.Now())
	res := Result{Requested: name, Decision: d, View: name}

	switch d.Action {
	case RedirectLogin:
		res.View = r.login
	case RedirectLanding:
		res.View = r.landing
	}

	if d.Action != Render {
		r.logger.Debug("navigation redirected", "view", name, "to", res.View, "reason", d.Reason)
	}
	return res, nil
}

// Open navigates to name and renders whichever view the gate allows. The
// login view is rendered without a session check.
func (r *Router) Open(w io.Writer, name string) (Result, error) {
	res, err := r.Navigate(name)
	if err != nil {
		return res, err
	}

	if res.View == r.login && res.Decision.Action == RedirectLogin {
		fmt.Fprintln(w, "Please log in to continue.")
		return res, nil
	}

	r.mu.RLock()
	v, ok := r.views[res.View]
	r.mu.RUnlock()
	if !ok || v.Render == nil {
		return res, nil
	}

	// A redirect to the landing view is decided again so a landing view
	// with its own requirement cannot be reached through the back door.
	if res.Decision.Action == RedirectLanding {
		if d := Decide(r.source.Snapshot(), v.Requirement, r.source.Now()); d.Action != Render {
			return res, nil
		}
	}
	return res, v.Render(w, r.source.Snapshot())
}
