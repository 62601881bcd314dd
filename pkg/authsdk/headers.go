package authsdk

import (
	"net/http"
	"sync"
)

// DefaultHeaders is a concurrency-safe header set applied to outbound
// requests. The Authorization entry is the only one that changes at runtime.
type DefaultHeaders struct {
	mu sync.RWMutex
	h  http.Header
}

func NewDefaultHeaders() *DefaultHeaders {
	return &DefaultHeaders{h: make(http.Header)}
}

// SetBearer attaches "Authorization: Bearer <token>".
func (d *DefaultHeaders) SetBearer(token string) {
	d.Set("Authorization", "Bearer "+token)
}

// ClearBearer removes the Authorization header. It is safe to call when no
// header is set.
func (d *DefaultHeaders) ClearBearer() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.h.Del("Authorization")
}

// Authorization returns the current Authorization value, or "".
func (d *DefaultHeaders) Authorization() string {
	return d.Get("Authorization")
}

func (d *DefaultHeaders) Set(key, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.h.Set(key, value)
}

func (d *DefaultHeaders) Get(key string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.h.Get(key)
}

// Apply copies the headers onto req without overriding headers the request
// already carries.
func (d *DefaultHeaders) Apply(req *http.Request) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for k, vs := range d.h {
		if req.Header.Get(k) != "" {
			continue
		}
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}

// HeaderTransport is an http.RoundTripper that applies DefaultHeaders, for
// HTTP clients outside this package that should share the console session.
type HeaderTransport struct {
	Headers *DefaultHeaders
	Base    http.RoundTripper
}

func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// RoundTrippers must not mutate the caller's request.
	r := req.Clone(req.Context())
	t.Headers.Apply(r)
	return base.RoundTrip(r)
}
