package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/observability/metrics"
	"github.com/wolfman30/ayurdiet-portal/internal/sequencer"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// Gateway is the slice of the REST API the appointment model talks to.
type Gateway interface {
	MyAppointments(ctx context.Context) ([]Appointment, error)
	ListAppointments(ctx context.Context) ([]Appointment, error)
	BookedSlots(ctx context.Context, doctorID string) ([]BookedSlot, error)
	BookAppointment(ctx context.Context, req BookingRequest) (*BookingResult, error)
	ConfirmAppointment(ctx context.Context, id string) error
	CancelAppointment(ctx context.Context, id, reason string) error
	RescheduleAsPatient(ctx context.Context, id string, newStart time.Time) error
	RescheduleAsDoctor(ctx context.Context, id string, newStart time.Time, reason string) error
	AcceptDoctorReschedule(ctx context.Context, id string) error
	RejectDoctorReschedule(ctx context.Context, id string) error
}

// Schedule checks a requested start against the doctor's working days and
// slot grid. booked is the projection already fetched for the request;
// moving is the appointment being rescheduled, nil for a new booking.
type Schedule interface {
	CheckStart(ctx context.Context, doctorID string, start time.Time, booked []BookedSlot, moving *Appointment) error
}

// ServiceOptions tunes a Service.
type ServiceOptions struct {
	Location   *time.Location
	SlotLength time.Duration
	Now        func() time.Time
	Locks      *sequencer.Keyed
	Metrics    *metrics.PortalMetrics
	Schedule   Schedule
}

// Service validates lifecycle requests locally, forwards them to the API and
// returns the record as re-fetched afterwards.
type Service struct {
	gw         Gateway
	logger     *logging.Logger
	loc        *time.Location
	slotLength time.Duration
	now        func() time.Time
	locks      *sequencer.Keyed
	metrics    *metrics.PortalMetrics
	schedule   Schedule
}

// NewService builds an appointment service.
func NewService(gw Gateway, logger *logging.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SlotLength <= 0 {
		opts.SlotLength = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Locks == nil {
		opts.Locks = sequencer.NewKeyed()
	}
	return &Service{
		gw:         gw,
		logger:     logger,
		loc:        opts.Location,
		slotLength: opts.SlotLength,
		now:        opts.Now,
		locks:      opts.Locks,
		metrics:    opts.Metrics,
		schedule:   opts.Schedule,
	}
}

// Location is the clinic timezone used for naive timestamps.
func (s *Service) Location() *time.Location { return s.loc }

// SlotLength is the assumed duration of an appointment without an end time.
func (s *Service) SlotLength() time.Duration { return s.slotLength }

// List returns the appointments visible to user: admins see every record,
// patients and doctors their own.
func (s *Service) List(ctx context.Context, user session.User) ([]Appointment, error) {
	var (
		appts []Appointment
		err   error
	)
	if user.Role == session.RoleAdmin {
		appts, err = s.gw.ListAppointments(ctx)
	} else {
		appts, err = s.gw.MyAppointments(ctx)
	}
	if err != nil {
		s.logger.Error("failed to list appointments", "error", err, "user_id", user.UID, "role", user.Role)
		return nil, err
	}
	return appts, nil
}

// Get finds one appointment among those visible to user.
func (s *Service) Get(ctx context.Context, user session.User, id string) (*Appointment, error) {
	appts, err := s.List(ctx, user)
	if err != nil {
		return nil, err
	}
	for i := range appts {
		if appts[i].ID == id {
			return &appts[i], nil
		}
	}
	return nil, apperr.New(apperr.ErrNotFound, "get appointment", "appointment not found")
}

// BookedSlots always fetches a fresh projection; it is never cached.
func (s *Service) BookedSlots(ctx context.Context, doctorID string) ([]BookedSlot, error) {
	if strings.TrimSpace(doctorID) == "" {
		return nil, apperr.Validation("booked slots", "doctor is required")
	}
	slots, err := s.gw.BookedSlots(ctx, doctorID)
	if err != nil {
		s.logger.Error("failed to load booked slots", "error", err, "doctor_id", doctorID)
		return nil, err
	}
	return slots, nil
}

// Book requests a new pending appointment for the signed-in patient.
func (s *Service) Book(ctx context.Context, user session.User, req BookingRequest) (*Appointment, error) {
	const op = "book appointment"
	req.DoctorID = strings.TrimSpace(req.DoctorID)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.DoctorID == "" {
		return nil, s.observe(ActionBook, apperr.Validation(op, "doctor is required"))
	}
	if err := s.validateStart(op, req.Start); err != nil {
		return nil, s.observe(ActionBook, err)
	}

	unlock, err := s.locks.Lock(ctx, doctorKey(req.DoctorID))
	if err != nil {
		return nil, s.observe(ActionBook, err)
	}
	defer unlock()

	if err := s.checkStart(ctx, op, req.DoctorID, req.Start, nil); err != nil {
		return nil, s.observe(ActionBook, err)
	}

	res, err := s.gw.BookAppointment(ctx, BookingRequest{DoctorID: req.DoctorID, Start: req.Start.In(s.loc), Notes: req.Notes})
	if err != nil {
		s.logger.Error("failed to book appointment", "error", err, "doctor_id", req.DoctorID, "patient_id", user.UID)
		return nil, s.observe(ActionBook, err)
	}
	s.observe(ActionBook, nil)
	s.logger.Info("appointment booked", "appointment_id", res.ID, "doctor_id", req.DoctorID, "patient_id", user.UID)

	fresh, err := s.Get(ctx, user, res.ID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("refresh after booking: %w", err)
		}
		status := res.Status
		if !status.Valid() {
			status = StatusPending
		}
		return &Appointment{ID: res.ID, DoctorID: req.DoctorID, PatientID: user.UID, StartTimestamp: At(req.Start.In(s.loc)), Status: status, Notes: req.Notes}, nil
	}
	return fresh, nil
}

// Confirm moves a pending appointment to confirmed. Doctor only.
func (s *Service) Confirm(ctx context.Context, user session.User, id string) (*Appointment, error) {
	return s.transition(ctx, user, id, ActionConfirm, func(ctx context.Context, _ Appointment) error {
		return s.gw.ConfirmAppointment(ctx, id)
	})
}

// Cancel cancels an appointment. Cancelling an already cancelled appointment
// is a no-op that returns the current record without calling the API.
func (s *Service) Cancel(ctx context.Context, user session.User, id, reason string) (*Appointment, error) {
	reason = strings.TrimSpace(reason)
	return s.transition(ctx, user, id, ActionCancel, func(ctx context.Context, _ Appointment) error {
		return s.gw.CancelAppointment(ctx, id, reason)
	})
}

// RescheduleAsPatient proposes a new start time on behalf of the patient.
func (s *Service) RescheduleAsPatient(ctx context.Context, user session.User, id string, newStart time.Time) (*Appointment, error) {
	return s.transition(ctx, user, id, ActionReschedulePatient, func(ctx context.Context, current Appointment) error {
		// Held like a booking so both are checked against the same calendar.
		return s.locks.Do(ctx, doctorKey(current.DoctorID), func(ctx context.Context) error {
			if err := s.validateReschedule(ctx, current, newStart); err != nil {
				return err
			}
			return s.gw.RescheduleAsPatient(ctx, id, newStart.In(s.loc))
		})
	})
}

// RescheduleAsDoctor proposes a new start time on behalf of the doctor.
func (s *Service) RescheduleAsDoctor(ctx context.Context, user session.User, id string, newStart time.Time, reason string) (*Appointment, error) {
	reason = strings.TrimSpace(reason)
	return s.transition(ctx, user, id, ActionRescheduleDoctor, func(ctx context.Context, current Appointment) error {
		return s.locks.Do(ctx, doctorKey(current.DoctorID), func(ctx context.Context) error {
			if err := s.validateReschedule(ctx, current, newStart); err != nil {
				return err
			}
			return s.gw.RescheduleAsDoctor(ctx, id, newStart.In(s.loc), reason)
		})
	})
}

// AcceptDoctorReschedule commits the doctor's proposed time.
func (s *Service) AcceptDoctorReschedule(ctx context.Context, user session.User, id string) (*Appointment, error) {
	return s.transition(ctx, user, id, ActionAccept, func(ctx context.Context, _ Appointment) error {
		return s.gw.AcceptDoctorReschedule(ctx, id)
	})
}

// RejectDoctorReschedule discards the doctor's proposal and keeps the confirmed time.
func (s *Service) RejectDoctorReschedule(ctx context.Context, user session.User, id string) (*Appointment, error) {
	return s.transition(ctx, user, id, ActionReject, func(ctx context.Context, _ Appointment) error {
		return s.gw.RejectDoctorReschedule(ctx, id)
	})
}

// ActionBook labels booking in metrics; it is not a lifecycle transition.
const ActionBook Action = "book"

func (s *Service) transition(ctx context.Context, user session.User, id string, action Action, call func(context.Context, Appointment) error) (*Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.Validation(string(action), "appointment id is required")
	}

	unlock, err := s.locks.Lock(ctx, "appointment:"+id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, s.observe(action, err)
	}
	if action == ActionCancel && current.Status == StatusCancelled {
		if err := checkActor(*current, user, action); err != nil {
			return nil, s.observe(action, err)
		}
		s.logger.Info("appointment already cancelled", "appointment_id", id, "user_id", user.UID)
		return current, nil
	}
	if err := CheckAction(*current, user, action); err != nil {
		s.logger.Warn("appointment action rejected", "appointment_id", id, "action", action, "status", current.Status, "user_id", user.UID, "error", err)
		return nil, s.observe(action, err)
	}

	if err := call(ctx, *current); err != nil {
		s.logger.Error("appointment action failed", "appointment_id", id, "action", action, "user_id", user.UID, "error", err)
		return nil, s.observe(action, err)
	}
	s.observe(action, nil)
	s.logger.Info("appointment action applied", "appointment_id", id, "action", action, "user_id", user.UID)

	fresh, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, fmt.Errorf("refresh after %s: %w", action, err)
	}
	return fresh, nil
}

func (s *Service) validateStart(op string, start time.Time) error {
	if start.IsZero() {
		return apperr.Validation(op, "start time is required")
	}
	if start.Before(s.now()) {
		return apperr.Validation(op, "start time is in the past")
	}
	return nil
}

func (s *Service) validateReschedule(ctx context.Context, current Appointment, newStart time.Time) error {
	const op = "reschedule appointment"
	if err := s.validateStart(op, newStart); err != nil {
		return err
	}
	if newStart.Equal(current.StartTimestamp.In(s.loc)) {
		return apperr.Validation(op, "new time matches the current appointment time")
	}
	return s.checkStart(ctx, op, current.DoctorID, newStart, &current)
}

func doctorKey(doctorID string) string {
	return "doctor:" + doctorID
}

// checkStart re-fetches the doctor's booked slots, rejects an overlap with
// any slot other than moving, then applies the calendar's date and slot masks.
func (s *Service) checkStart(ctx context.Context, op, doctorID string, start time.Time, moving *Appointment) error {
	slots, err := s.BookedSlots(ctx, doctorID)
	if err != nil {
		return err
	}
	exclude := ""
	if moving != nil {
		exclude = moving.ID
	}
	if err := s.checkOverlap(op, slots, start, exclude); err != nil {
		return err
	}
	if s.schedule == nil {
		return nil
	}
	return s.schedule.CheckStart(ctx, doctorID, start, slots, moving)
}

func (s *Service) checkOverlap(op string, slots []BookedSlot, start time.Time, exclude string) error {
	end := start.Add(s.slotLength)
	for _, slot := range slots {
		if slot.ID == exclude || !slot.Occupies() {
			continue
		}
		from, to := slot.Window(s.loc, s.slotLength)
		if start.Before(to) && from.Before(end) {
			return apperr.New(apperr.ErrConflict, op, "This time slot is already booked. Please choose another time.")
		}
	}
	return nil
}

func (s *Service) observe(action Action, err error) error {
	outcome := "ok"
	if err != nil {
		outcome = apperr.Present(err).Kind
	}
	s.metrics.ObserveAppointmentAction(string(action), outcome)
	return err
}
