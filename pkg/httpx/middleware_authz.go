package httpx

import (
	"net/http"
	"strings"
)

// RequireRole lets the request through only when the caller's role claim is
// one of roles. AuthnMiddleware must run first.
func RequireRole(roles ...string) Middleware {
	want := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		want[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := want[RoleFromContext(r.Context())]; ok {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("WWW-Authenticate",
				`Bearer error="insufficient_scope", error_description="requires role `+strings.Join(roles, " or ")+`"`)
			WriteJSON(w, http.StatusForbidden, map[string]string{
				"error":             "access_denied",
				"error_description": "the caller's role may not perform this action",
			})
		})
	}
}
