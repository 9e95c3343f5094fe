package appointment

import (
	"fmt"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
)

// Action is a lifecycle request a user can make.
type Action string

const (
	ActionConfirm           Action = "confirm"
	ActionCancel            Action = "cancel"
	ActionRescheduleDoctor  Action = "reschedule_doctor"
	ActionReschedulePatient Action = "reschedule_patient"
	ActionAccept            Action = "accept"
	ActionReject            Action = "reject"
)

// Actions lists every action in display order.
func Actions() []Action {
	return []Action{
		ActionConfirm,
		ActionReschedulePatient,
		ActionRescheduleDoctor,
		ActionAccept,
		ActionReject,
		ActionCancel,
	}
}

type move struct {
	to Status
	ok bool
}

func to(s Status) move { return move{to: s, ok: true} }

// transitions answers, per current status, where an action leads.
type transitions struct{ action Action }

func (t transitions) Pending() move {
	switch t.action {
	case ActionConfirm:
		return to(StatusConfirmed)
	case ActionCancel:
		return to(StatusCancelled)
	}
	return move{}
}

func (t transitions) Confirmed() move {
	switch t.action {
	case ActionCancel:
		return to(StatusCancelled)
	case ActionRescheduleDoctor:
		return to(StatusDoctorReschedulePending)
	case ActionReschedulePatient:
		return to(StatusPatientReschedulePending)
	}
	return move{}
}

func (t transitions) DoctorReschedulePending() move {
	switch t.action {
	case ActionAccept, ActionReject:
		return to(StatusConfirmed)
	case ActionCancel:
		return to(StatusCancelled)
	}
	return move{}
}

// A patient proposal is settled by the API; from the portal it can only be withdrawn by cancelling.
func (t transitions) PatientReschedulePending() move {
	if t.action == ActionCancel {
		return to(StatusCancelled)
	}
	return move{}
}

func (transitions) Cancelled() move { return move{} }
func (transitions) Completed() move { return move{} }

// Next reports the status an action leads to from the given status.
func Next(from Status, action Action) (Status, bool) {
	if !from.Valid() {
		return 0, false
	}
	m := Visit[move](from, transitions{action: action})
	return m.to, m.ok
}

// CheckAction validates that user may request action on appt in its current
// status. Ownership is checked before state.
func CheckAction(appt Appointment, user session.User, action Action) error {
	op := string(action)
	if err := checkActor(appt, user, action); err != nil {
		return err
	}
	if _, ok := Next(appt.Status, action); !ok {
		return apperr.New(apperr.ErrInvalidState, op,
			fmt.Sprintf("cannot %s an appointment that is %s", verb(action), appt.Status))
	}
	return nil
}

func checkActor(appt Appointment, user session.User, action Action) error {
	op := string(action)
	isDoctor := user.Role == session.RoleDoctor && user.UID != "" && user.UID == appt.DoctorID
	isPatient := user.Role == session.RolePatient && user.UID != "" && user.UID == appt.PatientID

	switch action {
	case ActionConfirm, ActionRescheduleDoctor:
		if !isDoctor {
			return apperr.New(apperr.ErrForbidden, op, "only the assigned doctor can "+verb(action)+" this appointment")
		}
	case ActionReschedulePatient, ActionAccept, ActionReject:
		if !isPatient {
			return apperr.New(apperr.ErrForbidden, op, "only the patient can "+verb(action)+" this appointment")
		}
	case ActionCancel:
		if !isDoctor && !isPatient {
			return apperr.New(apperr.ErrForbidden, op, "only participants can cancel this appointment")
		}
	default:
		return apperr.Validation(op, "unknown action")
	}
	return nil
}

// AllowedActions returns the affordances enabled for user on appt.
func AllowedActions(appt Appointment, user session.User) []Action {
	var out []Action
	for _, action := range Actions() {
		if CheckAction(appt, user, action) == nil {
			out = append(out, action)
		}
	}
	return out
}

func verb(action Action) string {
	switch action {
	case ActionRescheduleDoctor, ActionReschedulePatient:
		return "reschedule"
	case ActionAccept:
		return "accept the reschedule of"
	case ActionReject:
		return "reject the reschedule of"
	default:
		return string(action)
	}
}
