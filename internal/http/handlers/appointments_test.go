package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/ayurdiet-portal/internal/appointment"
	"github.com/wolfman30/ayurdiet-portal/internal/calendar"
)

type appointmentBody struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Actions []string
	Badge   struct {
		Label string `json:"label"`
	} `json:"badge"`
}

func TestBookAndConfirm(t *testing.T) {
	p := newPortal(t)

	rec := p.do(t, patient, http.MethodPost, "/appointments", map[string]string{
		"doctorId": "doc-1",
		"date":     "2026-03-11",
		"slot":     "10:00 AM",
		"notes":    "First consultation",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booked := decode[appointmentBody](t, rec)
	assert.Equal(t, "appt-1", booked.ID)
	assert.Equal(t, "pending", booked.Status)
	assert.Equal(t, "2026-03-11", booked.Date)
	assert.Equal(t, "10:00 AM", booked.Time)
	assert.Equal(t, []string{"cancel"}, booked.Actions)

	rec = p.do(t, patient, http.MethodPost, "/appointments/appt-1/confirm", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = p.do(t, doctor, http.MethodPost, "/appointments/appt-1/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	confirmed := decode[appointmentBody](t, rec)
	assert.Equal(t, "confirmed", confirmed.Status)
	assert.Contains(t, confirmed.Actions, "reschedule_doctor")

	rec = p.do(t, doctor, http.MethodPost, "/appointments/appt-1/confirm", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", decode[errorResponse](t, rec).Error.Kind)

	assert.Equal(t, []string{"book:appt-1", "confirm:appt-1"}, p.api.calls)
}

func TestBookRejectsConflictsAndBadInput(t *testing.T) {
	p := newPortal(t)
	p.api.booked = []appointment.BookedSlot{{
		ID:             "other",
		StartTimestamp: appointment.At(time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)),
		Status:         "confirmed",
	}}

	rec := p.do(t, patient, http.MethodPost, "/appointments", map[string]string{
		"doctorId":       "doc-1",
		"startTimestamp": "2026-03-11T10:15:00Z",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[errorResponse](t, rec).Error.Kind)

	rec = p.do(t, patient, http.MethodPost, "/appointments", map[string]string{"doctorId": "doc-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = p.do(t, patient, http.MethodPost, "/appointments", map[string]string{
		"doctorId":       "doc-1",
		"startTimestamp": "2026-03-09T10:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = p.do(t, doctor, http.MethodPost, "/appointments", map[string]string{
		"doctorId":       "doc-1",
		"startTimestamp": "2026-03-12T10:00:00Z",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, p.api.calls)
}

func TestBookOutsideClinicHours(t *testing.T) {
	p := newPortal(t)

	cases := map[string]map[string]string{
		"sunday":         {"doctorId": "doc-1", "startTimestamp": "2026-03-15T03:17:00Z"},
		"before opening": {"doctorId": "doc-1", "date": "2026-03-11", "slot": "03:17 AM"},
		"between slots":  {"doctorId": "doc-1", "startTimestamp": "2026-03-11T10:17:00Z"},
		"after closing":  {"doctorId": "doc-1", "startTimestamp": "2026-03-11T12:00:00Z"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := p.do(t, patient, http.MethodPost, "/appointments", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "validation", decode[errorResponse](t, rec).Error.Kind)
		})
	}
	assert.Empty(t, p.api.calls)
}

func TestRescheduleOutsideClinicHours(t *testing.T) {
	p := newPortal(t)
	p.api.appts = []appointment.Appointment{{
		ID:             "appt-7",
		DoctorID:       "doc-1",
		PatientID:      "pat-1",
		StartTimestamp: appointment.At(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)),
		Status:         appointment.StatusConfirmed,
	}}

	rec := p.do(t, doctor, http.MethodPost, "/appointments/appt-7/reschedule", map[string]string{
		"newStartTimestamp": "2026-03-14T10:00:00Z",
		"reason":            "Conference",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = p.do(t, patient, http.MethodPost, "/appointments/appt-7/reschedule", map[string]string{
		"date": "2026-03-17",
		"slot": "03:17 AM",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Empty(t, p.api.calls)
}

func TestRescheduleRoundTrip(t *testing.T) {
	p := newPortal(t)
	p.api.appts = []appointment.Appointment{{
		ID:             "appt-7",
		DoctorID:       "doc-1",
		PatientID:      "pat-1",
		StartTimestamp: appointment.At(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)),
		Status:         appointment.StatusConfirmed,
	}}

	rec := p.do(t, doctor, http.MethodPost, "/appointments/appt-7/reschedule", map[string]string{
		"date":   "2026-03-17",
		"slot":   "11:00 AM",
		"reason": "Conference",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[appointmentBody](t, rec)
	assert.Equal(t, "doctor_rescheduled_pending", moved.Status)

	rec = p.do(t, patient, http.MethodGet, "/appointments/appt-7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{"cancel", "accept", "reject"}, decode[appointmentBody](t, rec).Actions)

	rec = p.do(t, patient, http.MethodPost, "/appointments/appt-7/accept", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", decode[appointmentBody](t, rec).Status)

	rec = p.do(t, patient, http.MethodPost, "/appointments/appt-7/bogus", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, []string{"reschedule-doctor:appt-7", "accept:appt-7"}, p.api.calls)
}

func TestCancelTwiceIsNoop(t *testing.T) {
	p := newPortal(t)
	p.api.appts = []appointment.Appointment{{
		ID:             "appt-3",
		DoctorID:       "doc-1",
		PatientID:      "pat-1",
		StartTimestamp: appointment.At(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)),
		Status:         appointment.StatusPending,
	}}

	for i := 0; i < 2; i++ {
		rec := p.do(t, patient, http.MethodPost, "/appointments/appt-3/cancel", map[string]string{"reason": "Travel"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cancelled", decode[appointmentBody](t, rec).Status)
	}
	assert.Equal(t, []string{"cancel:appt-3"}, p.api.calls)
}

func TestListFiltersByStatus(t *testing.T) {
	p := newPortal(t)
	start := appointment.At(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC))
	p.api.appts = []appointment.Appointment{
		{ID: "a", DoctorID: "doc-1", PatientID: "pat-1", StartTimestamp: start, Status: appointment.StatusPending},
		{ID: "b", DoctorID: "doc-1", PatientID: "pat-1", StartTimestamp: start, Status: appointment.StatusCancelled},
	}

	rec := p.do(t, patient, http.MethodGet, "/appointments?status=cancelled", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Appointments []appointmentBody `json:"appointments"`
	}](t, rec)
	require.Len(t, body.Appointments, 1)
	assert.Equal(t, "b", body.Appointments[0].ID)
	assert.Equal(t, "Cancelled", body.Appointments[0].Badge.Label)
	assert.Empty(t, body.Appointments[0].Actions)

	rec = p.do(t, patient, http.MethodGet, "/appointments?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSlotsGrid(t *testing.T) {
	p := newPortal(t)
	p.api.booked = []appointment.BookedSlot{{
		ID:             "other",
		StartTimestamp: appointment.At(time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)),
		Status:         "pending",
	}}

	rec := p.do(t, patient, http.MethodGet, "/appointments/slots?doctorId=doc-1&date=2026-03-11&selected=09:30%20AM", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[calendar.DayView](t, rec)
	assert.Equal(t, "Wednesday", view.Weekday)

	states := map[string]calendar.SlotState{}
	for _, s := range view.Slots {
		states[s.Label] = s.State
	}
	assert.Equal(t, calendar.SlotAvailable, states["09:00 AM"])
	assert.Equal(t, calendar.SlotSelected, states["09:30 AM"])
	assert.Equal(t, calendar.SlotBooked, states["10:00 AM"])
	require.NotNil(t, view.Selection)
	assert.True(t, view.Selection.Equal(time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC)))

	rec = p.do(t, patient, http.MethodGet, "/appointments/slots?doctorId=doc-1&date=2026-03-11&selected=10:00%20AM", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = p.do(t, patient, http.MethodGet, "/appointments/slots?doctorId=doc-1&date=2026-03-12", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "thursday is not a clinic day")
}

func TestCalendarMonth(t *testing.T) {
	p := newPortal(t)

	rec := p.do(t, patient, http.MethodGet, "/appointments/calendar?doctorId=doc-1&month=2026-03", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2026-03", decode[calendar.MonthView](t, rec).Month)

	rec = p.do(t, patient, http.MethodGet, "/appointments/calendar?doctorId=doc-1&month=2026-13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDoctors(t *testing.T) {
	p := newPortal(t)
	rec := p.do(t, patient, http.MethodGet, "/doctors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Doctors []appointment.Doctor `json:"doctors"`
	}](t, rec)
	require.Len(t, body.Doctors, 1)
	assert.Equal(t, "Dr. Rao", body.Doctors[0].Name)
}

func TestParseMonth(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	y, m, err := parseMonth("", now)
	require.NoError(t, err)
	assert.Equal(t, 2026, y)
	assert.Equal(t, time.March, m)

	y, m, err = parseMonth("2027-01", now)
	require.NoError(t, err)
	assert.Equal(t, 2027, y)
	assert.Equal(t, time.January, m)

	for _, bad := range []string{"2026", "2026-00", "march", "-2026-01"} {
		_, _, err := parseMonth(bad, now)
		assert.Error(t, err, bad)
	}
}
