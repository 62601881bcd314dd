package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/aussiebroadwan/stockdesk/pkg/jwtx"
)

// DefaultCheckInterval is how often the expiry loop inspects the token.
const DefaultCheckInterval = 60 * time.Second

// AuthAPI is the part of the auth service the guard talks to. Me must send
// the headers the guard maintains in Config.Headers.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*authsdk.LoginResponse, error)
	Me(ctx context.Context) (*authsdk.UserProfile, error)
}

type Config struct {
	API AuthAPI

	// Headers are the outbound default headers shared with API. The guard
	// sets and clears Authorization on them.
	Headers *authsdk.DefaultHeaders

	// Store holds the durable copy of the token. Defaults to memory only.
	Store TokenStore

	// CheckInterval defaults to DefaultCheckInterval.
	CheckInterval time.Duration

	Logger *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Guard is the console's single source of truth for the current session.
type Guard struct {
	api      AuthAPI
	headers  *authsdk.DefaultHeaders
	store    TokenStore
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	state     State
	token     string
	expiresAt time.Time
	profile   *Profile
	lastErr   error
	subs      map[int]func(Snapshot)
	nextSub   int

	// persistMu orders writes to store so the last one reflects g.token.
	persistMu sync.Mutex

	loopMu sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewGuard(cfg Config) *Guard {
	g := &Guard{
		api:      cfg.API,
		headers:  cfg.Headers,
		store:    cfg.Store,
		interval: cfg.CheckInterval,
		logger:   cfg.Logger,
		now:      cfg.Now,
		subs:     make(map[int]func(Snapshot)),
	}
	if g.headers == nil {
		g.headers = authsdk.NewDefaultHeaders()
	}
	if g.store == nil {
		g.store = &MemoryTokenStore{}
	}
	if g.interval <= 0 {
		g.interval = DefaultCheckInterval
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Snapshot returns a copy of the current state.
func (g *Guard) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Guard) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     g.state,
		Token:     g.token,
		ExpiresAt: g.expiresAt,
	}
	if g.profile != nil {
		p := *g.profile
		s.Profile = &p
	}
	return s
}

// Now returns the guard's clock reading.
func (g *Guard) Now() time.Time {
	return g.now()
}

// Expired reports whether the held token is expired right now.
func (g *Guard) Expired() bool {
	return g.Snapshot().Expired(g.now())
}

// LastError returns the error of the most recent failed login, profile
// fetch or expiry, or nil.
func (g *Guard) LastError() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change and must not block. The
// returned func unregisters it.
func (g *Guard) Subscribe(fn func(Snapshot)) func() {
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

// publish delivers snap to subscribers. It must be called without g.mu held.
func (g *Guard) publish(snap Snapshot) {
	g.mu.Lock()
	fns := make([]func(Snapshot), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Login exchanges email and password for a token. It returns (false, nil)
// when the service rejects the credentials and wraps ErrAuthTransport when
// the service could not answer. A successful exchange still returns
// ErrSessionExpired if the token is unusable or its profile cannot be
// fetched.
func (g *Guard) Login(ctx context.Context, email, password string) (bool, error) {
	g.mu.Lock()
	// A resolved session stays usable until the new token replaces it.
	entering := g.state != StateAuthenticated || g.profile == nil
	if entering {
		g.state = StateAuthenticating
	}
	snap := g.snapshotLocked()
	g.mu.Unlock()
	if entering {
		g.publish(snap)
	}

	resp, err := g.api.Login(ctx, email, password)
	if err != nil {
		if isCredentialRejection(err) {
			g.logger.Info("login rejected", "email", email, "error", err)
			g.settleFailedLogin(ErrCredentialRejected)
			return false, nil
		}

		err = fmt.Errorf("%w: %v", ErrAuthTransport, err)
		g.logger.Warn("login failed", "email", email, "error", err)
		g.settleFailedLogin(err)
		return false, err
	}

	if err := g.adopt(ctx, resp.Token); err != nil {
		return false, err
	}

	g.logger.Info("logged in", "email", email)
	return true, nil
}

// isCredentialRejection separates "wrong email or password" from every
// other failure. Throttling is a server refusal, not a verdict on the
// credentials.
func isCredentialRejection(err error) bool {
	var apiErr *authsdk.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.IsRejection() && apiErr.StatusCode != http.StatusTooManyRequests
}

// settleFailedLogin returns the state to whatever the held token supports.
// A concurrent login that already succeeded keeps its session.
func (g *Guard) settleFailedLogin(cause error) {
	g.mu.Lock()
	g.lastErr = cause
	switch {
	case g.token == "":
		g.state = StateAnonymous
	case g.profile != nil:
		g.state = StateAuthenticated
	}
	snap := g.snapshotLocked()
	g.mu.Unlock()
	g.publish(snap)
}

// Restore loads a token saved by a previous run. It returns nil when there
// is nothing to restore and ErrSessionExpired when the saved token is no
// longer usable.
func (g *Guard) Restore(ctx context.Context) error {
	token, err := g.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load saved session: %w", err)
	}
	if token == "" {
		return nil
	}
	return g.adopt(ctx, token)
}

// adopt makes token the current credential, checks its expiry and resolves
// its profile. Any failure logs out.
func (g *Guard) adopt(ctx context.Context, token string) error {
	exp, decodeErr := jwtx.DecodeExpiry(token)

	g.mu.Lock()
	g.token = token
	g.expiresAt = exp
	g.profile = nil
	g.state = StateAuthenticating
	g.headers.SetBearer(token)
	snap := g.snapshotLocked()
	g.mu.Unlock()
	g.publish(snap)

	if snap.Expired(g.now()) {
		cause := ErrSessionExpired
		if decodeErr != nil {
			cause = fmt.Errorf("%w: %v", ErrSessionExpired, decodeErr)
		}
		g.expire(ctx, token, cause)
		return cause
	}

	g.syncStore(ctx)

	me, err := g.api.Me(ctx)
	if err == nil {
		var p *Profile
		p, err = toProfile(me)
		if err == nil {
			return g.settleProfile(token, p)
		}
	}

	cause := fmt.Errorf("%w: fetch profile: %v", ErrSessionExpired, err)
	g.expire(ctx, token, cause)
	return cause
}

func toProfile(me *authsdk.UserProfile) (*Profile, error) {
	role, err := ParseRole(me.Role)
	if err != nil {
		return nil, err
	}
	return &Profile{
		ID:       me.ID,
		Username: me.Username,
		Email:    me.Email,
		Role:     role,
	}, nil
}

func (g *Guard) settleProfile(token string, p *Profile) error {
	g.mu.Lock()
	if g.token != token {
		// Replaced by a newer login while /auth/me was in flight.
		g.mu.Unlock()
		return nil
	}
	g.profile = p
	g.state = StateAuthenticated
	g.lastErr = nil
	snap := g.snapshotLocked()
	g.mu.Unlock()
	g.publish(snap)
	return nil
}

// CheckExpiry logs out if the held token is expired. It reports whether a
// logout happened.
func (g *Guard) CheckExpiry(ctx context.Context) bool {
	snap := g.Snapshot()
	if !snap.Expired(g.now()) {
		return false
	}
	return g.expire(ctx, snap.Token, ErrSessionExpired)
}

// expire moves through StateExpired and logs out, but only while token is
// still the current credential.
func (g *Guard) expire(ctx context.Context, token string, cause error) bool {
	g.mu.Lock()
	if g.token != token {
		g.mu.Unlock()
		return false
	}
	g.state = StateExpired
	g.lastErr = cause
	snap := g.snapshotLocked()
	g.mu.Unlock()

	g.logger.Info("session expired", "reason", cause)
	g.publish(snap)
	g.logout(ctx, token, true)
	return true
}

// Logout clears the token, the profile, the durable copy and the outbound
// Authorization header. Calling it without a session is a no-op.
func (g *Guard) Logout(ctx context.Context) {
	g.logout(ctx, "", false)
}

// logout clears the session. With onlyToken set it leaves alone a session
// that has moved on from token.
func (g *Guard) logout(ctx context.Context, token string, onlyToken bool) {
	g.mu.Lock()
	if onlyToken && g.token != token {
		g.mu.Unlock()
		return
	}
	changed := g.token != "" || g.state != StateAnonymous
	g.token = ""
	g.expiresAt = time.Time{}
	g.profile = nil
	g.state = StateAnonymous
	g.headers.ClearBearer()
	snap := g.snapshotLocked()
	g.mu.Unlock()

	if !changed {
		return
	}

	g.syncStore(ctx)
	g.publish(snap)
}

// syncStore writes the current token to the store, or clears it when there
// is none. Writes are serialized and each reads g.token afresh, so the store
// ends up matching the latest login or logout.
func (g *Guard) syncStore(ctx context.Context) {
	g.persistMu.Lock()
	defer g.persistMu.Unlock()

	g.mu.Lock()
	token := g.token
	g.mu.Unlock()

	if token == "" {
		if err := g.store.Clear(ctx); err != nil {
			g.logger.Warn("failed to clear saved session token", "error", err)
		}
		return
	}
	if err := g.store.Save(ctx, token); err != nil {
		g.logger.Warn("failed to persist session token", "error", err)
	}
}

// Start runs the expiry loop in the background. Calling it while the loop
// is running does nothing.
func (g *Guard) Start() {
	g.loopMu.Lock()
	defer g.loopMu.Unlock()
	if g.stopCh != nil {
		return
	}

	g.stopCh = make(chan struct{})
	g.doneCh = make(chan struct{})
	go g.run(g.stopCh, g.doneCh)
	g.logger.Debug("session expiry loop started", "interval", g.interval)
}

// Stop ends the expiry loop and waits for it to exit. It is safe to call
// more than once or without Start.
func (g *Guard) Stop() {
	g.loopMu.Lock()
	stopCh, doneCh := g.stopCh, g.doneCh
	g.stopCh, g.doneCh = nil, nil
	g.loopMu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
	g.logger.Debug("session expiry loop stopped")
}

func (g *Guard) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			g.CheckExpiry(ctx)
			cancel()
		case <-stopCh:
			return
		}
	}
}
