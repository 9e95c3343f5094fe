package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/catalog"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// CatalogHandler serves the patient, food, diet plan and progress views.
type CatalogHandler struct {
	svc    *catalog.Service
	board  *catalog.PlanBoard
	logger *logging.Logger
}

func NewCatalogHandler(svc *catalog.Service, board *catalog.PlanBoard, logger *logging.Logger) *CatalogHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogHandler{svc: svc, board: board, logger: logger}
}

// Patients handles GET /patients?q=.
func (h *CatalogHandler) Patients(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	patients, err := h.svc.Patients(r.Context(), user, query(r, "q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"patients": nonNil(patients)})
}

// Patient handles GET /patients/{id}.
func (h *CatalogHandler) Patient(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.svc.Patient(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePatient handles PUT /patients/{id}.
func (h *CatalogHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var update catalog.PatientUpdate
	if err := decodeJSON(w, r, "update patient", &update); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.svc.UpdatePatient(r.Context(), user, chi.URLParam(r, "id"), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Foods handles GET /foods?q=.
func (h *CatalogHandler) Foods(w http.ResponseWriter, r *http.Request) {
	foods, err := h.svc.Foods(r.Context(), query(r, "q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"foods": nonNil(foods)})
}

// CreateFood handles POST /foods and answers with the re-fetched list.
func (h *CatalogHandler) CreateFood(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var food catalog.FoodItem
	if err := decodeJSON(w, r, "create food", &food); err != nil {
		writeError(w, err)
		return
	}
	foods, err := h.svc.CreateFood(r.Context(), user, food)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"foods": nonNil(foods)})
}

type plansResponse struct {
	Plans []catalog.PlanRecord `json:"plans"`
	Stats catalog.PlanStats    `json:"stats"`
}

// DietPlans handles GET /diet-plans?q=&status=. The board is refreshed on
// every request; stats cover the unfiltered list.
func (h *CatalogHandler) DietPlans(w http.ResponseWriter, r *http.Request) {
	rows, err := h.board.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	status := catalog.PlanStatus(query(r, "status")).Normalize()
	writeJSON(w, http.StatusOK, plansResponse{
		Plans: nonNil(catalog.FilterPlans(rows, query(r, "q"), status)),
		Stats: catalog.Stats(rows),
	})
}

type statusRequest struct {
	Status catalog.PlanStatus `json:"status"`
}

type statusErrorBody struct {
	Error  apperr.Presentation   `json:"error"`
	Change *catalog.StatusChange `json:"change,omitempty"`
}

// SetPlanStatus handles PUT /diet-plans/{id}/status. A refused change still
// reports where the plan ended up so the dropdown can snap back.
func (h *CatalogHandler) SetPlanStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, "set plan status", &req); err != nil {
		writeError(w, err)
		return
	}
	change, err := h.board.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		if change != nil {
			writeJSON(w, apperr.HTTPStatus(err), statusErrorBody{Error: apperr.Present(err), Change: change})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

type generateDraftRequest struct {
	PatientID string `json:"patientId"`
}

// GenerateDraft handles POST /diet-plans/drafts/generate for one of the
// practitioner's patients.
func (h *CatalogHandler) GenerateDraft(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req generateDraftRequest
	if err := decodeJSON(w, r, "generate draft", &req); err != nil {
		writeError(w, err)
		return
	}
	draft, err := h.svc.GenerateDraft(r.Context(), user, req.PatientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// SaveDraft handles POST /diet-plans/drafts. The body is a catalog.Draft;
// a missing plan_id stores a new draft.
func (h *CatalogHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var draft catalog.Draft
	if err := decodeJSON(w, r, "save draft", &draft); err != nil {
		writeError(w, err)
		return
	}
	saved, err := h.svc.SaveDraft(r.Context(), user, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// Profile handles GET /practitioner/profile.
func (h *CatalogHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.svc.Profile(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /practitioner/profile.
func (h *CatalogHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var update catalog.ProfileUpdate
	if err := decodeJSON(w, r, "update practitioner profile", &update); err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.svc.UpdateProfile(r.Context(), user, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// MyPlans handles GET /my/diet-plans.
func (h *CatalogHandler) MyPlans(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	plans, err := h.svc.MyPlans(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": nonNil(plans)})
}

// Progress handles GET /progress.
func (h *CatalogHandler) Progress(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.svc.Progress(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": nonNil(entries)})
}

// LogProgress handles POST /progress and answers with the re-fetched list.
func (h *CatalogHandler) LogProgress(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var entry catalog.ProgressEntry
	if err := decodeJSON(w, r, "log progress", &entry); err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.svc.LogProgress(r.Context(), user, entry)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entries": nonNil(entries)})
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
