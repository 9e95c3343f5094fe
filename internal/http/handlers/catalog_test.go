package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/catalog"
)

func TestPatientsViews(t *testing.T) {
	p := newPortal(t)

	rec := p.do(t, admin, http.MethodGet, "/patients?q=RAVI", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Patients []catalog.Patient `json:"patients"`
	}](t, rec)
	require.Len(t, list.Patients, 1)
	assert.Equal(t, "pat-2", list.Patients[0].Key())

	rec = p.do(t, admin, http.MethodGet, "/patients?q=nobody", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"patients":[]}`, rec.Body.String())

	rec = p.do(t, patient, http.MethodGet, "/patients", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = p.do(t, patient, http.MethodGet, "/patients/pat-2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = p.do(t, doctor, http.MethodGet, "/patients/pat-404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = p.do(t, doctor, http.MethodPut, "/patients/pat-1", map[string]string{"healthHistory": "Migraines"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Migraines", decode[catalog.Patient](t, rec).HealthHistory)
}

func TestFoods(t *testing.T) {
	p := newPortal(t)

	rec := p.do(t, patient, http.MethodGet, "/foods?q=legume", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mung dal")

	food := map[string]any{"name": "Ghee", "category": "Dairy", "calories": 120, "rasa": []string{"sweet"}, "virya": "cooling", "vipaka": "sweet"}
	rec = p.do(t, patient, http.MethodPost, "/foods", food)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = p.do(t, admin, http.MethodPost, "/foods", food)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[struct {
		Foods []catalog.FoodItem `json:"foods"`
	}](t, rec)
	assert.Len(t, body.Foods, 2)

	rec = p.do(t, admin, http.MethodPost, "/foods", map[string]any{"category": "Dairy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[errorResponse](t, rec).Error.Kind)
}

func TestDietPlanBoard(t *testing.T) {
	p := newPortal(t)

	rec := p.do(t, doctor, http.MethodGet, "/diet-plans?status=active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[plansResponse](t, rec)
	require.Len(t, list.Plans, 1)
	assert.Equal(t, "plan-2", list.Plans[0].ID)
	assert.Equal(t, catalog.PlanStats{Total: 2, Active: 1, Draft: 1}, list.Stats)

	rec = p.do(t, doctor, http.MethodPut, "/diet-plans/plan-1/status", map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	change := decode[catalog.StatusChange](t, rec)
	assert.Equal(t, catalog.OutcomeConfirmed, change.Outcome)
	assert.Equal(t, catalog.PlanDraft, change.Previous)
	assert.Equal(t, catalog.PlanActive, change.Plan.Status)

	rec = p.do(t, doctor, http.MethodPut, "/diet-plans/plan-1/status", map[string]string{"status": "draft"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = p.do(t, doctor, http.MethodPut, "/diet-plans/plan-404/status", map[string]string{"status": "active"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDietPlanStatusRefusedSnapsBack(t *testing.T) {
	p := newPortal(t)
	p.api.statusErr = apperr.FromStatus("set plan status", http.StatusInternalServerError, "database unavailable")

	rec := p.do(t, doctor, http.MethodPut, "/diet-plans/plan-2/status", map[string]string{"status": "completed"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode[statusErrorBody](t, rec)
	assert.Equal(t, "upstream", body.Error.Kind)
	assert.Equal(t, "database unavailable", body.Error.Message)
	require.NotNil(t, body.Change)
	assert.Equal(t, catalog.OutcomeRestored, body.Change.Outcome)
	assert.Equal(t, catalog.PlanActive, body.Change.Plan.Status)
}

func TestMyPlansAndProgress(t *testing.T) {
	p := newPortal(t)

	rec := p.do(t, patient, http.MethodGet, "/my/diet-plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"plan-1"`)

	rec = p.do(t, doctor, http.MethodGet, "/my/diet-plans", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = p.do(t, patient, http.MethodGet, "/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())

	rec = p.do(t, patient, http.MethodPost, "/progress", map[string]any{"patientId": "someone-else", "waterIntake": 6, "mealAdherence": 80})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entries := decode[struct {
		Entries []catalog.ProgressEntry `json:"entries"`
	}](t, rec)
	require.Len(t, entries.Entries, 1)
	assert.Equal(t, "pat-1", entries.Entries[0].PatientID)
	assert.NotEmpty(t, entries.Entries[0].Date, "defaults to today")

	rec = p.do(t, patient, http.MethodPost, "/progress", map[string]any{"mealAdherence": 140})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteErrorShapes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{apperr.Validation("x", "bad"), http.StatusBadRequest, "validation"},
		{apperr.New(apperr.ErrConflict, "x", "taken"), http.StatusConflict, "conflict"},
		{apperr.FromTransport("x", errors.New("dial tcp: refused")), http.StatusBadGateway, "network"},
		{errors.New("plain"), http.StatusBadGateway, "upstream"},
		{fmt.Errorf("wizard answer: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{context.Canceled, apperr.StatusClientClosedRequest, "cancelled"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, tc.kind, decode[errorResponse](t, rec).Error.Kind)
	}
}

func TestDraftAuthoringFlow(t *testing.T) {
	p := newPortal(t)

	rec := p.do(t, doctor, http.MethodPost, "/diet-plans/drafts/generate", map[string]string{"patientId": "pat-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	draft := decode[catalog.Draft](t, rec)
	assert.Equal(t, "plan-9", draft.PlanID)
	assert.Equal(t, "Vata", draft.Content.DoshaImbalance)

	draft.Content.MealPlan = []catalog.DayPlan{{
		Day:   "Monday",
		Meals: []catalog.Meal{{Type: "Lunch", Items: []string{"Khichdi", " "}}},
	}}
	rec = p.do(t, doctor, http.MethodPost, "/diet-plans/drafts", draft)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[catalog.Draft](t, rec)
	assert.Equal(t, "plan-9", saved.PlanID)
	assert.Equal(t, []string{"Khichdi"}, saved.Content.MealPlan[0].Meals[0].Items)

	rec = p.do(t, doctor, http.MethodPost, "/diet-plans/drafts/generate", map[string]string{"patientId": "pat-2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = p.do(t, patient, http.MethodPost, "/diet-plans/drafts", draft)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = p.do(t, doctor, http.MethodPost, "/diet-plans/drafts", catalog.Draft{PatientID: "pat-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, []string{"generate:pat-1", "save-draft:pat-1"}, p.api.calls)
}

func TestPractitionerProfileEndpoints(t *testing.T) {
	p := newPortal(t)

	rec := p.do(t, doctor, http.MethodGet, "/practitioner/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dr. Rao", decode[catalog.PractitionerProfile](t, rec).Name)

	rec = p.do(t, doctor, http.MethodPut, "/practitioner/profile", map[string]any{
		"specialization": "Panchakarma",
		"clinicHours":    []map[string]string{{"day": "thu", "from": "10:00", "to": "13:00"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[catalog.PractitionerProfile](t, rec)
	assert.Equal(t, "Panchakarma", updated.Specialization)
	require.Len(t, updated.ClinicHours, 1)
	assert.Equal(t, "Thursday", updated.ClinicHours[0].Day)

	rec = p.do(t, doctor, http.MethodPut, "/practitioner/profile", map[string]any{
		"clinicHours": []map[string]string{{"day": "Monday", "from": "13:00", "to": "10:00"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = p.do(t, admin, http.MethodGet, "/practitioner/profile", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
