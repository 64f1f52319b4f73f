// Package httpapi is the coordinator's external HTTP surface (spec §6):
// signup, login, upload, and listing, plus the ambient /metrics and
// /healthz endpoints. Routing idiom adapted from marmos91-dittofs's
// pkg/controlplane/api/router.go — the teacher has no HTTP surface of its
// own to learn from.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/flexicommit/upload2pc/auth"
)

type contextKey string

const usernameContextKey contextKey = "username"

// RequireAuth validates the bearer token on every request it wraps and
// stashes the subject username in the request context.
func RequireAuth(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := svc.ValidateToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := setUsername(r.Context(), claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
