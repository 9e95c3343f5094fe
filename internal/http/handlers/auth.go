package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/ayurdiet-portal/internal/apiclient"
	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// Authenticator exchanges credentials for a user and bearer token.
type Authenticator interface {
	Login(ctx context.Context, creds apiclient.Credentials) (session.User, string, error)
}

// AuthHandler signs users in and out through the cookie session.
type AuthHandler struct {
	auth   Authenticator
	store  *session.Store
	logger *logging.Logger
}

func NewAuthHandler(auth Authenticator, store *session.Store, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{auth: auth, store: store, logger: logger}
}

type userResponse struct {
	User session.User `json:"user"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds apiclient.Credentials
	if err := decodeJSON(w, r, "login", &creds); err != nil {
		writeError(w, err)
		return
	}
	user, token, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		h.logger.Warn("login failed", "error", err, "email", strings.TrimSpace(creds.Email))
		writeError(w, err)
		return
	}
	if _, err := h.store.Login(w, user, token); err != nil {
		h.logger.Error("failed to store session", "error", err, "uid", user.UID)
		writeError(w, apperr.Wrap(apperr.ErrUpstream, "login", err))
		return
	}
	h.logger.Info("user signed in", "uid", user.UID, "role", user.Role)
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// Logout handles POST /auth/logout. Both cookies are cleared together.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateMe handles PUT /auth/me: the stored user is replaced wholesale with
// the edited profile. Identity and role cannot change here.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.ErrUnauthorized, "update profile", "not signed in"))
		return
	}
	var req profileRequest
	if err := decodeJSON(w, r, "update profile", &req); err != nil {
		writeError(w, err)
		return
	}
	updated := session.User{
		UID:   sess.User.UID,
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Role:  sess.User.Role,
	}
	if updated.Name == "" {
		writeError(w, apperr.Validation("update profile", "Name is required."))
		return
	}
	refreshed, err := h.store.Refresh(w, sess, updated)
	if err != nil {
		if errors.Is(err, session.ErrUserMismatch) {
			writeError(w, apperr.Wrap(apperr.ErrForbidden, "update profile", err))
			return
		}
		writeError(w, apperr.Wrap(apperr.ErrValidation, "update profile", err))
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: refreshed.User})
}
