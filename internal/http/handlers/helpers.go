// Package handlers serves the portal's JSON views. Every remote failure is
// logged where it happens and rendered as {"error": {...}}; nothing panics.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error apperr.Presentation `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders err with the status its kind maps to.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), errorBody{Error: apperr.Present(err)})
}

// decodeJSON reads a bounded JSON body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation(op, "request body is required")
		}
		return apperr.Validation(op, "request body is not valid JSON")
	}
	return nil
}

// currentUser returns the session user. Routes are mounted behind
// RequireSession, so a missing session is reported as unauthorized.
func currentUser(r *http.Request) (session.User, error) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return session.User{}, apperr.New(apperr.ErrUnauthorized, "session", "not signed in")
	}
	return sess.User, nil
}

func query(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
