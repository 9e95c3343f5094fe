package appointment

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of an appointment. The set is closed: values
// only come from the constants below or from Parse.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusConfirmed
	StatusCancelled
	StatusDoctorReschedulePending
	StatusPatientReschedulePending
	StatusCompleted
)

var statusNames = map[Status]string{
	StatusPending:                  "pending",
	StatusConfirmed:                "confirmed",
	StatusCancelled:                "cancelled",
	StatusDoctorReschedulePending:  "doctor_rescheduled_pending",
	StatusPatientReschedulePending: "patient_rescheduled_pending",
	StatusCompleted:                "completed",
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusConfirmed,
		StatusDoctorReschedulePending,
		StatusPatientReschedulePending,
		StatusCancelled,
		StatusCompleted,
	}
}

// Parse converts the wire value used by the REST API.
func Parse(raw string) (Status, error) {
	for status, name := range statusNames {
		if name == raw {
			return status, nil
		}
	}
	return 0, fmt.Errorf("appointment: unknown status %q", raw)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Valid reports whether s is one of the six known statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("appointment: cannot encode %s", s)
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("appointment: status: %w", err)
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// StatusVisitor handles every status. Adding a status to the type means
// adding a method here, so every visitor in the tree stops compiling until
// it handles the new case.
type StatusVisitor[T any] interface {
	Pending() T
	Confirmed() T
	Cancelled() T
	DoctorReschedulePending() T
	PatientReschedulePending() T
	Completed() T
}

// Visit dispatches s to the matching visitor method.
func Visit[T any](s Status, v StatusVisitor[T]) T {
	switch s {
	case StatusPending:
		return v.Pending()
	case StatusConfirmed:
		return v.Confirmed()
	case StatusCancelled:
		return v.Cancelled()
	case StatusDoctorReschedulePending:
		return v.DoctorReschedulePending()
	case StatusPatientReschedulePending:
		return v.PatientReschedulePending()
	case StatusCompleted:
		return v.Completed()
	}
	panic(fmt.Sprintf("appointment: visit of invalid %s", s))
}

// BadgeView is how a status renders in lists and detail cards.
type BadgeView struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Tone   string `json:"tone"`
	Icon   string `json:"icon"`
}

type badgeVisitor struct{}

func (badgeVisitor) Pending() BadgeView {
	return BadgeView{Label: "Pending", Tone: "yellow", Icon: "⏳"}
}
func (badgeVisitor) Confirmed() BadgeView {
	return BadgeView{Label: "Confirmed", Tone: "green", Icon: "✓"}
}
func (badgeVisitor) Cancelled() BadgeView {
	return BadgeView{Label: "Cancelled", Tone: "red", Icon: "✕"}
}
func (badgeVisitor) DoctorReschedulePending() BadgeView {
	return BadgeView{Label: "Reschedule Pending", Tone: "orange", Icon: "🔄"}
}
func (badgeVisitor) PatientReschedulePending() BadgeView {
	return BadgeView{Label: "Reschedule Requested", Tone: "orange", Icon: "🔄"}
}
func (badgeVisitor) Completed() BadgeView {
	return BadgeView{Label: "Completed", Tone: "gray", Icon: "✓"}
}

// Badge returns the display badge for a valid status.
func Badge(s Status) BadgeView {
	view := Visit[BadgeView](s, badgeVisitor{})
	view.Status = s.String()
	return view
}
