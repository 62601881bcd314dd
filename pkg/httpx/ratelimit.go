package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig allows Requests per Window for each key, with up to Burst
// of them back to back.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// ParseRateLimit reads "requests/window" or "requests/window/burst", e.g.
// "5/1m" or "100/30s/150". Burst defaults to requests.
func ParseRateLimit(s string) (RateLimitConfig, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return RateLimitConfig{}, fmt.Errorf("rate limit %q: want requests/window[/burst]", s)
	}

	requests, err := strconv.Atoi(parts[0])
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("rate limit %q: requests must be a positive integer", s)
	}
	window, err := time.ParseDuration(parts[1])
	if err != nil || window <= 0 {
		return RateLimitConfig{}, fmt.Errorf("rate limit %q: window must be a positive duration", s)
	}

	cfg := RateLimitConfig{Requests: requests, Window: window, Burst: requests}
	if len(parts) == 3 {
		burst, err := strconv.Atoi(parts[2])
		if err != nil || burst <= 0 {
			return RateLimitConfig{}, fmt.Errorf("rate limit %q: burst must be a positive integer", s)
		}
		cfg.Burst = burst
	}
	return cfg, nil
}

// Limits are the auth service's per-endpoint budgets.
type Limits struct {
	Login    RateLimitConfig // per client IP and email
	Face     RateLimitConfig // per client IP and email
	Register RateLimitConfig // per administrator
	Profile  RateLimitConfig // per user
	Health   RateLimitConfig // per client IP
}

// DefaultLimits keep password and face guessing slow while leaving room for
// the console's profile lookups and health probes.
func DefaultLimits() Limits {
	return Limits{
		Login:    RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 5},
		Face:     RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 5},
		Register: RateLimitConfig{Requests: 20, Window: time.Minute, Burst: 20},
		Profile:  RateLimitConfig{Requests: 100, Window: time.Minute, Burst: 100},
		Health:   RateLimitConfig{Requests: 100, Window: time.Minute, Burst: 100},
	}
}

// LimitsFromEnv overrides DefaultLimits with AUTH_RATELIMIT_LOGIN,
// AUTH_RATELIMIT_FACE, AUTH_RATELIMIT_REGISTER, AUTH_RATELIMIT_PROFILE and
// AUTH_RATELIMIT_HEALTH, each in ParseRateLimit form. Unparseable values
// keep the default.
func LimitsFromEnv(getenv func(string) string) Limits {
	l := DefaultLimits()
	for name, dst := range map[string]*RateLimitConfig{
		"LOGIN":    &l.Login,
		"FACE":     &l.Face,
		"REGISTER": &l.Register,
		"PROFILE":  &l.Profile,
		"HEALTH":   &l.Health,
	} {
		v := getenv("AUTH_RATELIMIT_" + name)
		if v == "" {
			continue
		}
		if cfg, err := ParseRateLimit(v); err == nil {
			*dst = cfg
		}
	}
	return l
}

// KeyFunc names the bucket a request is counted against. An empty key
// means the request is not limited.
type KeyFunc func(*http.Request) string

// ClientIP is the first X-Forwarded-For hop, then X-Real-IP, then the peer
// address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// UserID is the authenticated subject. AuthnMiddleware must run first.
func UserID(r *http.Request) string {
	id, _ := UserIDFromContext(r.Context())
	return id
}

// JSONField reads a top-level string field from a JSON body, lower-cased,
// and puts the body back for the handler.
func JSONField(name string) KeyFunc {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, MaxJSONBody))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return ""
		}

		var fields map[string]json.RawMessage
		if json.Unmarshal(body, &fields) != nil {
			return ""
		}
		var v string
		if json.Unmarshal(fields[name], &v) != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(v))
	}
}

// JoinKeys joins the non-empty keys of fns with ":".
func JoinKeys(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if k := fn(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, ":")
	}
}

// idleBucketTTL is how long an unused bucket is kept. Any bucket idle this
// long has refilled for every config in DefaultLimits.
const idleBucketTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// buckets is one token bucket per key, swept of idle keys as it is used.
type buckets struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	byKey     map[string]*bucket
	lastSweep time.Time
}

func newBuckets(cfg RateLimitConfig) *buckets {
	return &buckets{
		limit:     rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:     cfg.Burst,
		byKey:     make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

func (b *buckets) get(key string, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) >= time.Minute {
		for k, bk := range b.byKey {
			if now.Sub(bk.lastSeen) > idleBucketTTL {
				delete(b.byKey, k)
			}
		}
		b.lastSweep = now
	}

	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.byKey[key] = bk
	}
	bk.lastSeen = now
	return bk.limiter
}

// RateLimit answers 429 with Retry-After once the request's key has spent
// its budget.
func RateLimit(cfg RateLimitConfig, key KeyFunc) Middleware {
	b := newBuckets(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key for request", "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			limiter := b.get(k, now)
			if limiter.AllowN(now, 1) {
				next.ServeHTTP(w, r)
				return
			}

			res := limiter.ReserveN(now, 1)
			wait := res.DelayFrom(now)
			res.CancelAt(now)
			retryAfter := max(int(wait.Round(time.Second)/time.Second), 1)

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", k,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
			w.Header().Set("X-RateLimit-Window", cfg.Window.String())
			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limit_exceeded",
				"error_description": "Too many requests. Please try again later.",
			})
		})
	}
}

// PerClient limits each client IP.
func PerClient(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, ClientIP)
}

// PerUser limits each authenticated user, falling back to the client IP.
func PerUser(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, JoinKeys(UserID, ClientIP))
}

// PerClientAndField limits each client IP and body field pair, e.g. the
// email a login or face check targets.
func PerClientAndField(cfg RateLimitConfig, field string) Middleware {
	return RateLimit(cfg, JoinKeys(ClientIP, JSONField(field)))
}
