package slogx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/stockdesk/pkg/idx"
)

type ctxKey struct{}

// WithContext attaches logger to ctx for FromContext.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or slog.Default when none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// HTTPMiddleware gives each request a logger tagged with its request id and
// logs one line when the response is done. Server errors log at error,
// client errors at warn and health probes at debug.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := requestID(r)
			w.Header().Set("X-Request-ID", reqID)

			logger := base.With("req_id", reqID, "method", r.Method, "path", r.URL.Path)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(WithContext(r.Context(), logger)))

			logger.Log(r.Context(), requestLevel(r, rec.status), "http_request",
				"status", rec.status,
				"bytes", rec.written,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// requestID keeps a caller-supplied X-Request-ID only if it is a ULID, so
// arbitrary header text never reaches the logs.
func requestID(r *http.Request) string {
	if id, err := idx.Parse(r.Header.Get("X-Request-ID")); err == nil {
		return id.String()
	}
	return idx.New().String()
}

func requestLevel(r *http.Request, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case r.URL.Path == "/livez" || r.URL.Path == "/readyz":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter

	status  int
	written int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.written += n
	return n, err
}
