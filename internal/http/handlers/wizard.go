package handlers

import (
	"net/http"

	"github.com/wolfman30/ayurdiet-portal/internal/wizard"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// WizardHandler exposes the diet plan wizard as JSON endpoints.
type WizardHandler struct {
	svc    *wizard.Service
	logger *logging.Logger
}

func NewWizardHandler(svc *wizard.Service, logger *logging.Logger) *WizardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WizardHandler{svc: svc, logger: logger}
}

type answerRequest struct {
	Token string `json:"token"`
	Text  string `json:"text"`
}

// Open handles POST /wizard/open. It always starts over with a new token.
func (h *WizardHandler) Open(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.svc.Open(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Current handles GET /wizard.
func (h *WizardHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.svc.Current(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Answer handles POST /wizard/answer. The call returns after any plan
// generation the answer triggered has finished.
func (h *WizardHandler) Answer(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req answerRequest
	if err := decodeJSON(w, r, "wizard answer", &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.svc.Submit(r.Context(), user, req.Token, req.Text)
	if err != nil {
		h.logger.Debug("wizard answer refused", "error", err, "patient_id", user.UID)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
