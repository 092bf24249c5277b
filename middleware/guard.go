package middleware

import (
	"context"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

type guardSource interface {
	Session() goSession.Session
	HasPermission(resource, action string) bool
}

type sessionContextKey struct{}

// SessionFromContext returns the snapshot a guard admitted the request with.
func SessionFromContext(ctx context.Context) (goSession.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(goSession.Session)
	return s, ok
}

// RequireSession admits requests only while the manager holds an
// authenticated session. The admitted snapshot is stored in the request
// context.
func RequireSession(manager *goSession.Manager) func(http.Handler) http.Handler {
	return guard(manager, "", "")
}

// RequirePermission is [RequireSession] plus a permission check: requests
// are refused with 403 unless the user may perform action on resource.
func RequirePermission(manager *goSession.Manager, resource, action string) func(http.Handler) http.Handler {
	return guard(manager, resource, action)
}

func guard(source guardSource, resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if source == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			snap := source.Session()
			if !snap.IsAuthenticated {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if resource != "" && !source.HasPermission(resource, action) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
