package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/ayurdiet-portal/internal/apiclient"
	"github.com/wolfman30/ayurdiet-portal/internal/appointment"
	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/calendar"
	"github.com/wolfman30/ayurdiet-portal/internal/catalog"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/internal/wizard"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

var (
	patient = session.User{UID: "pat-1", Name: "Asha", Email: "asha@example.com", Role: session.RolePatient}
	doctor  = session.User{UID: "doc-1", Name: "Dr. Rao", Role: session.RoleDoctor}
	admin   = session.User{UID: "adm-1", Name: "Admin", Role: session.RoleAdmin}

	// Tuesday 2026-03-10 09:00 UTC.
	testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
)

// fakeAPI stands in for the REST API behind every gateway the handlers use.
type fakeAPI struct {
	mu        sync.Mutex
	calls     []string
	appts     []appointment.Appointment
	booked    []appointment.BookedSlot
	doctors   []appointment.Doctor
	patients  []catalog.Patient
	foods     []catalog.FoodItem
	plans     []catalog.PlanRecord
	progress  []catalog.ProgressEntry
	statusErr error
	statsErr  error
	nextID    int
	drafts    []catalog.Draft
	profile   catalog.PractitionerProfile
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		doctors: []appointment.Doctor{{
			DoctorID: "doc-1",
			Name:     "Dr. Rao",
			ClinicHours: []appointment.ClinicHours{
				{Day: "Tuesday", From: "09:00", To: "12:00"},
				{Day: "Wednesday", From: "09:00", To: "12:00"},
			},
		}},
		patients: []catalog.Patient{
			{PatientID: "pat-1", Name: "Asha Verma"},
			{PatientID: "pat-2", Name: "Ravi Kumar"},
		},
		foods:   []catalog.FoodItem{{ID: "f-1", Name: "Mung dal", Category: "Legume"}},
		profile: catalog.PractitionerProfile{DoctorID: "doc-1", Name: "Dr. Rao"},
		plans: []catalog.PlanRecord{
			{ID: "plan-1", PatientID: "pat-1", PatientName: "Asha Verma", Status: catalog.PlanDraft},
			{ID: "plan-2", PatientID: "pat-2", PatientName: "Ravi Kumar", Status: catalog.PlanActive},
		},
	}
}

func (f *fakeAPI) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) find(id string) (*appointment.Appointment, error) {
	for i := range f.appts {
		if f.appts[i].ID == id {
			return &f.appts[i], nil
		}
	}
	return nil, apperr.FromStatus("appointment", http.StatusNotFound, "not found")
}

func (f *fakeAPI) setStatus(id string, status appointment.Status) error {
	appt, err := f.find(id)
	if err != nil {
		return err
	}
	appt.Status = status
	return nil
}

func (f *fakeAPI) Login(_ context.Context, creds apiclient.Credentials) (session.User, string, error) {
	if creds.Password != "secret" {
		return session.User{}, "", apperr.FromStatus("login", http.StatusUnauthorized, "Invalid email or password")
	}
	return patient, "bearer-1", nil
}

func (f *fakeAPI) ListDoctors(context.Context) ([]appointment.Doctor, error) {
	return f.doctors, nil
}

func (f *fakeAPI) MyAppointments(context.Context) ([]appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]appointment.Appointment(nil), f.appts...), nil
}

func (f *fakeAPI) ListAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	return f.MyAppointments(ctx)
}

func (f *fakeAPI) BookedSlots(context.Context, string) ([]appointment.BookedSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]appointment.BookedSlot(nil), f.booked...), nil
}

func (f *fakeAPI) BookAppointment(_ context.Context, req appointment.BookingRequest) (*appointment.BookingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("appt-%d", f.nextID)
	f.record("book:" + id)
	f.appts = append(f.appts, appointment.Appointment{
		ID:             id,
		DoctorID:       req.DoctorID,
		PatientID:      patient.UID,
		StartTimestamp: appointment.At(req.Start),
		Status:         appointment.StatusPending,
		Notes:          req.Notes,
	})
	return &appointment.BookingResult{ID: id, Status: appointment.StatusPending}, nil
}

func (f *fakeAPI) ConfirmAppointment(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("confirm:" + id)
	return f.setStatus(id, appointment.StatusConfirmed)
}

func (f *fakeAPI) CancelAppointment(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("cancel:" + id)
	return f.setStatus(id, appointment.StatusCancelled)
}

func (f *fakeAPI) RescheduleAsPatient(_ context.Context, id string, newStart time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("reschedule-patient:" + id)
	appt, err := f.find(id)
	if err != nil {
		return err
	}
	proposed := appointment.At(newStart)
	appt.ProposedStartTimestamp = &proposed
	appt.Status = appointment.StatusPatientReschedulePending
	return nil
}

func (f *fakeAPI) RescheduleAsDoctor(_ context.Context, id string, newStart time.Time, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("reschedule-doctor:" + id)
	appt, err := f.find(id)
	if err != nil {
		return err
	}
	proposed := appointment.At(newStart)
	appt.ProposedStartTimestamp = &proposed
	appt.Status = appointment.StatusDoctorReschedulePending
	return nil
}

func (f *fakeAPI) AcceptDoctorReschedule(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("accept:" + id)
	return f.setStatus(id, appointment.StatusConfirmed)
}

func (f *fakeAPI) RejectDoctorReschedule(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("reject:" + id)
	return f.setStatus(id, appointment.StatusConfirmed)
}

func (f *fakeAPI) ListPatients(context.Context) ([]catalog.Patient, error) {
	return f.patients, nil
}

func (f *fakeAPI) ListDoctorPatients(context.Context) ([]catalog.Patient, error) {
	return f.patients[:1], nil
}

func (f *fakeAPI) GetPatient(_ context.Context, id string) (*catalog.Patient, error) {
	for _, p := range f.patients {
		if p.Key() == id {
			return &p, nil
		}
	}
	return nil, apperr.FromStatus("get patient", http.StatusNotFound, "Patient not found")
}

func (f *fakeAPI) UpdatePatient(_ context.Context, id string, update catalog.PatientUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update-patient:" + id)
	for i := range f.patients {
		if f.patients[i].Key() == id && update.HealthHistory != nil {
			f.patients[i].HealthHistory = *update.HealthHistory
		}
	}
	return nil
}

func (f *fakeAPI) UpdateAssessment(_ context.Context, patientID string, _ catalog.Assessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("assessment:" + patientID)
	return nil
}

func (f *fakeAPI) GenerateDiet(_ context.Context, patientID string) (*catalog.GeneratedPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("generate:" + patientID)
	return &catalog.GeneratedPlan{
		PlanID: "plan-9",
		Plan: catalog.DietPlan{
			DoshaImbalance:   "Vata",
			RecommendedFoods: []string{"Ghee", "Rice", "Dates"},
			Rationale:        "Warm, grounding foods settle Vata.",
		},
	}, nil
}

func (f *fakeAPI) SaveDietDraft(_ context.Context, draft catalog.Draft) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("save-draft:" + draft.PatientID)
	f.drafts = append(f.drafts, draft)
	if draft.PlanID == "" {
		return "plan-10", nil
	}
	return draft.PlanID, nil
}

func (f *fakeAPI) PractitionerProfile(context.Context) (*catalog.PractitionerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profile
	return &p, nil
}

func (f *fakeAPI) UpdatePractitionerProfile(_ context.Context, update catalog.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update-profile")
	if update.Specialization != nil {
		f.profile.Specialization = *update.Specialization
	}
	if update.ClinicHours != nil {
		f.profile.ClinicHours = update.ClinicHours
	}
	return nil
}

func (f *fakeAPI) ListFoods(context.Context) ([]catalog.FoodItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.FoodItem(nil), f.foods...), nil
}

func (f *fakeAPI) CreateFood(_ context.Context, food catalog.FoodItem) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create-food")
	food.ID = "f-new"
	f.foods = append(f.foods, food)
	return food.ID, nil
}

func (f *fakeAPI) ListDietPlans(context.Context) ([]catalog.PlanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.PlanRecord(nil), f.plans...), nil
}

func (f *fakeAPI) SetDietPlanStatus(_ context.Context, id string, status catalog.PlanStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("plan-status:" + id + ":" + string(status))
	if f.statusErr != nil {
		return f.statusErr
	}
	for i := range f.plans {
		if f.plans[i].ID == id {
			f.plans[i].Status = status
		}
	}
	return nil
}

func (f *fakeAPI) PatientDietPlans(_ context.Context, id string) ([]catalog.PatientPlan, error) {
	return []catalog.PatientPlan{
		{ID: "plan-1", PatientID: id, Status: catalog.PlanActive},
		{ID: "plan-0", PatientID: id, Status: catalog.PlanCompleted},
	}, nil
}

func (f *fakeAPI) ListProgress(context.Context, string) ([]catalog.ProgressEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.ProgressEntry(nil), f.progress...), nil
}

func (f *fakeAPI) LogProgress(_ context.Context, entry catalog.ProgressEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("log-progress")
	f.progress = append(f.progress, entry)
	return "entry-1", nil
}

func (f *fakeAPI) AdminStats(context.Context) (*catalog.AdminStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &catalog.AdminStats{TotalPatients: 2, TotalDoctors: 1}, nil
}

// portal wires the handlers over a fakeAPI the way the router does, minus
// the cookie session: requests carry their user through asUser.
type portal struct {
	api    *fakeAPI
	router chi.Router
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	api := newFakeAPI()
	logger := logging.New("error")
	now := func() time.Time { return testNow }

	cal := calendar.NewService(api, logger, calendar.Options{Location: time.UTC, Now: now})
	appts := appointment.NewService(api, logger, appointment.ServiceOptions{Location: time.UTC, Now: now, Schedule: cal})
	cat := catalog.NewService(api, logger, time.UTC)
	board := catalog.NewPlanBoard(api, nil, logger, nil)
	wiz := wizard.NewService(wizard.NewMemoryStore(time.Hour), api, logger, wizard.Options{
		Now:      now,
		NewToken: func() string { return "tok-1" },
	})

	ah := NewAppointmentsHandler(appts, cal, api, logger)
	ch := NewCatalogHandler(cat, board, logger)
	wh := NewWizardHandler(wiz, logger)
	dh := NewDashboardHandler(appts, cat, board, logger)
	dh.now = now

	r := chi.NewRouter()
	r.Get("/dashboard", dh.Show)
	r.Get("/doctors", ah.Doctors)
	r.Get("/appointments", ah.List)
	r.Post("/appointments", ah.Book)
	r.Get("/appointments/slots", ah.Slots)
	r.Get("/appointments/calendar", ah.Calendar)
	r.Get("/appointments/{id}", ah.Get)
	r.Post("/appointments/{id}/{action}", ah.Act)
	r.Get("/wizard", wh.Current)
	r.Post("/wizard/open", wh.Open)
	r.Post("/wizard/answer", wh.Answer)
	r.Get("/patients", ch.Patients)
	r.Get("/patients/{id}", ch.Patient)
	r.Put("/patients/{id}", ch.UpdatePatient)
	r.Get("/foods", ch.Foods)
	r.Post("/foods", ch.CreateFood)
	r.Get("/diet-plans", ch.DietPlans)
	r.Put("/diet-plans/{id}/status", ch.SetPlanStatus)
	r.Post("/diet-plans/drafts/generate", ch.GenerateDraft)
	r.Post("/diet-plans/drafts", ch.SaveDraft)
	r.Get("/practitioner/profile", ch.Profile)
	r.Put("/practitioner/profile", ch.UpdateProfile)
	r.Get("/my/diet-plans", ch.MyPlans)
	r.Get("/progress", ch.Progress)
	r.Post("/progress", ch.LogProgress)
	return &portal{api: api, router: r}
}

// do sends a request as user and returns the recorder.
func (p *portal) do(t *testing.T, user session.User, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(session.WithSession(req.Context(), &session.Session{User: user, Token: "bearer-" + user.UID}))
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorResponse struct {
	Error struct {
		Kind        string `json:"kind"`
		Message     string `json:"message"`
		Blocking    bool   `json:"blocking"`
		RetryPrompt string `json:"retryPrompt"`
	} `json:"error"`
}
