package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// Session decodes the cookie session, if any, into the request context.
// Requests without a session pass through; RequireSession rejects them.
func Session(store *session.Store, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Load(w, r)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					logger.Warn("discarding unusable session", "error", err, "path", r.URL.Path)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession answers 401 when no authenticated session is in context.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Please sign in again.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 403 unless the session user has one of roles.
func RequireRole(roles ...session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Please sign in again.")
				return
			}
			if !sess.HasRole(roles...) {
				writeError(w, http.StatusForbidden, "forbidden", "You do not have access to this page.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError mirrors the handlers' error body.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"kind": kind, "message": message, "blocking": status != http.StatusTooManyRequests},
	})
}
