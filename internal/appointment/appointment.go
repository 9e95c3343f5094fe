package appointment

import (
	"strings"
	"time"
)

// Party identifies who proposed a reschedule.
type Party string

const (
	PartyPatient Party = "patient"
	PartyDoctor  Party = "doctor"
)

// Appointment is the read-through copy of an API record. The portal never
// edits it; every mutation is followed by a fresh fetch.
type Appointment struct {
	ID                     string     `json:"id"`
	DoctorID               string     `json:"doctorId"`
	PatientID              string     `json:"patientId"`
	DoctorName             string     `json:"doctorName"`
	PatientName            string     `json:"patientName"`
	StartTimestamp         Timestamp  `json:"startTimestamp"`
	EndTimestamp           *Timestamp `json:"endTimestamp,omitempty"`
	Status                 Status     `json:"status"`
	Notes                  string     `json:"notes,omitempty"`
	CancelReason           string     `json:"cancelReason,omitempty"`
	RescheduleReason       string     `json:"rescheduleReason,omitempty"`
	IsRescheduledBy        Party      `json:"isRescheduledBy,omitempty"`
	ProposedStartTimestamp *Timestamp `json:"proposedStartTimestamp,omitempty"`
	ProposedEndTimestamp   *Timestamp `json:"proposedEndTimestamp,omitempty"`
	CreatedAt              *Timestamp `json:"createdAt,omitempty"`
	UpdatedAt              *Timestamp `json:"updatedAt,omitempty"`
}

// Window returns the occupied interval in loc, using fallback when the record has no end.
func (a Appointment) Window(loc *time.Location, fallback time.Duration) (time.Time, time.Time) {
	return window(a.StartTimestamp, a.EndTimestamp, loc, fallback)
}

// BookedSlot is the advisory projection returned by
// GET /appointments/doctor/{id}/upcoming. The API re-validates on booking.
type BookedSlot struct {
	ID             string     `json:"id"`
	StartTimestamp Timestamp  `json:"startTimestamp"`
	EndTimestamp   *Timestamp `json:"endTimestamp,omitempty"`
	Status         string     `json:"status"`
}

// Occupies reports whether the slot still blocks the doctor's calendar.
func (b BookedSlot) Occupies() bool {
	status, err := Parse(strings.TrimSpace(b.Status))
	if err != nil {
		return true
	}
	return !status.Terminal()
}

// Window returns the occupied interval in loc.
func (b BookedSlot) Window(loc *time.Location, fallback time.Duration) (time.Time, time.Time) {
	return window(b.StartTimestamp, b.EndTimestamp, loc, fallback)
}

func window(start Timestamp, end *Timestamp, loc *time.Location, fallback time.Duration) (time.Time, time.Time) {
	from := start.In(loc)
	if end != nil && !end.IsZero() {
		if to := end.In(loc); to.After(from) {
			return from, to
		}
	}
	return from, from.Add(fallback)
}

// ClinicHours is one working window of a doctor, e.g. {"day":"Monday","from":"09:00","to":"17:00"}.
type ClinicHours struct {
	Day  string `json:"day"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Doctor is a practitioner as listed by GET /doctors.
type Doctor struct {
	DoctorID       string        `json:"doctorId"`
	Name           string        `json:"name"`
	Specialization string        `json:"specialization,omitempty"`
	ClinicHours    []ClinicHours `json:"clinicHours,omitempty"`
}

// BookingRequest is the payload of bookAppointment.
type BookingRequest struct {
	DoctorID string
	Start    time.Time
	Notes    string
}

// BookingResult is what POST /appointments/book answers with.
type BookingResult struct {
	ID      string `json:"id"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}
