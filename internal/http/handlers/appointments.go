package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/ayurdiet-portal/internal/appointment"
	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/calendar"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// DoctorLister lists the practitioners a patient can book with.
type DoctorLister interface {
	ListDoctors(ctx context.Context) ([]appointment.Doctor, error)
}

// AppointmentsHandler serves appointment lists, booking, lifecycle actions
// and the slot picker.
type AppointmentsHandler struct {
	appts   *appointment.Service
	cal     *calendar.Service
	doctors DoctorLister
	logger  *logging.Logger
}

func NewAppointmentsHandler(appts *appointment.Service, cal *calendar.Service, doctors DoctorLister, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{appts: appts, cal: cal, doctors: doctors, logger: logger}
}

// AppointmentView is one appointment as a card renders it.
type AppointmentView struct {
	appointment.Appointment
	Badge    appointment.BadgeView `json:"badge"`
	Actions  []appointment.Action  `json:"actions"`
	Date     string                `json:"date"`
	Time     string                `json:"time"`
	Proposed string                `json:"proposedTime,omitempty"`
}

func newAppointmentView(appt appointment.Appointment, user session.User, loc *time.Location) AppointmentView {
	start := appt.StartTimestamp.In(loc)
	v := AppointmentView{
		Appointment: appt,
		Badge:       appointment.Badge(appt.Status),
		Actions:     appointment.AllowedActions(appt, user),
	}
	if v.Actions == nil {
		v.Actions = []appointment.Action{}
	}
	if !start.IsZero() {
		v.Date = start.Format(calendar.DateLayout)
		v.Time = calendar.Label(start)
	}
	if appt.ProposedStartTimestamp != nil && !appt.ProposedStartTimestamp.IsZero() {
		v.Proposed = appt.ProposedStartTimestamp.In(loc).Format(calendar.DateLayout + " " + calendar.LabelLayout)
	}
	return v
}

// List handles GET /appointments[?status=].
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var filter appointment.Status
	if raw := query(r, "status"); raw != "" && raw != "all" {
		if filter, err = appointment.Parse(raw); err != nil {
			writeError(w, apperr.Validation("list appointments", "unknown status filter"))
			return
		}
	}
	appts, err := h.appts.List(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]AppointmentView, 0, len(appts))
	for _, appt := range appts {
		if filter.Valid() && appt.Status != filter {
			continue
		}
		out = append(out, newAppointmentView(appt, user, h.appts.Location()))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

// Get handles GET /appointments/{id}.
func (h *AppointmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	appt, err := h.appts.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAppointmentView(*appt, user, h.appts.Location()))
}

type bookRequest struct {
	DoctorID string `json:"doctorId"`
	// Either Start, or Date plus Slot as picked on the grid.
	Start string `json:"startTimestamp"`
	Date  string `json:"date"`
	Slot  string `json:"slot"`
	Notes string `json:"notes"`
}

// Book handles POST /appointments.
func (h *AppointmentsHandler) Book(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if user.Role != session.RolePatient {
		writeError(w, apperr.New(apperr.ErrForbidden, "book appointment", "Only patients can request appointments."))
		return
	}
	var req bookRequest
	if err := decodeJSON(w, r, "book appointment", &req); err != nil {
		writeError(w, err)
		return
	}
	start, err := h.resolveStart("book appointment", req.Start, req.Date, req.Slot)
	if err != nil {
		writeError(w, err)
		return
	}
	appt, err := h.appts.Book(r.Context(), user, appointment.BookingRequest{
		DoctorID: strings.TrimSpace(req.DoctorID),
		Start:    start,
		Notes:    strings.TrimSpace(req.Notes),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAppointmentView(*appt, user, h.appts.Location()))
}

type actionRequest struct {
	Reason string `json:"reason"`
	Start  string `json:"newStartTimestamp"`
	Date   string `json:"date"`
	Slot   string `json:"slot"`
}

// Act handles POST /appointments/{id}/{action} for confirm, cancel,
// reschedule, accept and reject. Reschedule picks the doctor or patient
// variant from the caller's role.
func (h *AppointmentsHandler) Act(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	var req actionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, "appointment action", &req); err != nil {
			writeError(w, err)
			return
		}
	}
	ctx := r.Context()
	reason := strings.TrimSpace(req.Reason)

	var appt *appointment.Appointment
	switch action := chi.URLParam(r, "action"); action {
	case "confirm":
		appt, err = h.appts.Confirm(ctx, user, id)
	case "cancel":
		appt, err = h.appts.Cancel(ctx, user, id, reason)
	case "accept":
		appt, err = h.appts.AcceptDoctorReschedule(ctx, user, id)
	case "reject":
		appt, err = h.appts.RejectDoctorReschedule(ctx, user, id)
	case "reschedule":
		var start time.Time
		if start, err = h.resolveStart("reschedule", req.Start, req.Date, req.Slot); err != nil {
			break
		}
		if user.Role == session.RoleDoctor {
			appt, err = h.appts.RescheduleAsDoctor(ctx, user, id, start, reason)
		} else {
			appt, err = h.appts.RescheduleAsPatient(ctx, user, id, start)
		}
	default:
		err = apperr.New(apperr.ErrNotFound, "appointment action", "unknown action "+action)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAppointmentView(*appt, user, h.appts.Location()))
}

// resolveStart accepts an RFC 3339 timestamp or a date plus slot label in the clinic timezone.
func (h *AppointmentsHandler) resolveStart(op, raw, date, slot string) (time.Time, error) {
	if raw = strings.TrimSpace(raw); raw != "" {
		ts, err := appointment.ParseTimestamp(raw)
		if err != nil {
			return time.Time{}, apperr.Validation(op, "start time is not a valid timestamp")
		}
		return ts.In(h.appts.Location()), nil
	}
	if date == "" || slot == "" {
		return time.Time{}, apperr.Validation(op, "Select a date and time slot.")
	}
	day, err := calendar.ParseDate(date, h.appts.Location())
	if err != nil {
		return time.Time{}, err
	}
	start, err := calendar.Combine(day, slot, h.appts.Location())
	if err != nil {
		return time.Time{}, apperr.Validation(op, "Select a valid time slot.")
	}
	return start, nil
}

// Doctors handles GET /doctors.
func (h *AppointmentsHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctors.ListDoctors(r.Context())
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		writeError(w, err)
		return
	}
	if doctors == nil {
		doctors = []appointment.Doctor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

// Slots handles GET /appointments/slots?doctorId&date[&appointmentId][&selected].
// With appointmentId the appointment's own slot renders as current.
func (h *AppointmentsHandler) Slots(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	day, err := calendar.ParseDate(query(r, "date"), h.appts.Location())
	if err != nil {
		writeError(w, err)
		return
	}
	req := calendar.DayRequest{
		DoctorID: query(r, "doctorId"),
		Date:     day,
		Selected: query(r, "selected"),
	}
	if id := query(r, "appointmentId"); id != "" {
		appt, err := h.appts.Get(r.Context(), user, id)
		if err != nil {
			writeError(w, err)
			return
		}
		req.Rescheduling = appt
		if req.DoctorID == "" {
			req.DoctorID = appt.DoctorID
		}
	}
	view, err := h.cal.Day(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Calendar handles GET /appointments/calendar?doctorId&month=YYYY-MM.
func (h *AppointmentsHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseMonth(query(r, "month"), time.Now().In(h.appts.Location()))
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.cal.Month(r.Context(), query(r, "doctorId"), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// parseMonth reads YYYY-MM, defaulting to the month of now.
func parseMonth(raw string, now time.Time) (int, time.Month, error) {
	if raw == "" {
		return now.Year(), now.Month(), nil
	}
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) == 2 {
		year, yerr := strconv.Atoi(parts[0])
		month, merr := strconv.Atoi(parts[1])
		if yerr == nil && merr == nil && month >= 1 && month <= 12 && year > 0 {
			return year, time.Month(month), nil
		}
	}
	return 0, 0, apperr.Validation("calendar", "month must be YYYY-MM")
}
