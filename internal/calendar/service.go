package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/ayurdiet-portal/internal/appointment"
	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// Source provides the doctor roster and the advisory booked slots.
type Source interface {
	ListDoctors(ctx context.Context) ([]appointment.Doctor, error)
	BookedSlots(ctx context.Context, doctorID string) ([]appointment.BookedSlot, error)
}

// Options tunes a Service.
type Options struct {
	Location *time.Location
	Interval time.Duration
	Now      func() time.Time
}

// Service assembles day and month views for a doctor. Booked slots are
// fetched fresh for every view since they are advisory.
type Service struct {
	src      Source
	logger   *logging.Logger
	loc      *time.Location
	interval time.Duration
	now      func() time.Time
}

// NewService builds a calendar service.
func NewService(src Source, logger *logging.Logger, opts Options) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{src: src, logger: logger, loc: opts.Location, interval: opts.Interval, now: opts.Now}
}

// DayRequest asks for the slot grid of one date.
type DayRequest struct {
	DoctorID string
	Date     time.Time
	// Rescheduling is the appointment being moved, if any. Its slot renders
	// as current and is not counted as booked.
	Rescheduling *appointment.Appointment
	Selected     string
}

// DayView is the slot grid of one date.
type DayView struct {
	DoctorID  string     `json:"doctorId"`
	Doctor    string     `json:"doctorName"`
	Date      string     `json:"date"`
	Weekday   string     `json:"weekday"`
	Slots     []Slot     `json:"slots"`
	Selected  string     `json:"selectedSlot,omitempty"`
	Selection *time.Time `json:"selection,omitempty"`
}

// MonthView is the date grid of one month with shading.
type MonthView struct {
	DoctorID string  `json:"doctorId"`
	Month    string  `json:"month"`
	Weeks    [][]Day `json:"weeks"`
}

// Mask returns the date mask for a doctor's clinic hours.
func (s *Service) Mask(doctor *appointment.Doctor) DateMask {
	mask := DateMask{Now: s.now, Location: s.loc}
	if doctor != nil {
		mask.Available = WorkingDays(doctor.ClinicHours)
	}
	return mask
}

// Day builds the slot grid for req.
func (s *Service) Day(ctx context.Context, req DayRequest) (*DayView, error) {
	doctor, booked, err := s.load(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	picker := NewPicker(s.Mask(doctor))
	exclude := ""
	if req.Rescheduling != nil {
		exclude = req.Rescheduling.ID
	}
	day := StartOfDay(req.Date, s.loc)
	labels := SlotsForDay(doctor.ClinicHours, day, s.interval)
	if err := picker.SelectDate(day, labels, BookedLabels(booked, day, s.loc, exclude), CurrentLabel(req.Rescheduling, day, s.loc)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Selected) != "" {
		if err := picker.SelectSlot(req.Selected); err != nil {
			return nil, err
		}
	}

	view := &DayView{
		DoctorID: doctor.DoctorID,
		Doctor:   doctor.Name,
		Date:     day.Format(DateLayout),
		Weekday:  day.Weekday().String(),
		Slots:    picker.Grid(),
		Selected: picker.SelectedSlot(),
	}
	if at, ok := picker.Selection(); ok {
		view.Selection = &at
	}
	return view, nil
}

// Month builds the date grid of a month with working-day masking and booked-date shading.
func (s *Service) Month(ctx context.Context, doctorID string, year int, month time.Month) (*MonthView, error) {
	doctor, booked, err := s.load(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return &MonthView{
		DoctorID: doctor.DoctorID,
		Month:    fmt.Sprintf("%04d-%02d", year, int(month)),
		Weeks:    Month(year, month, s.Mask(doctor), BookedDates(booked, s.loc)),
	}, nil
}

// load fetches the doctor and their booked slots together.
// CheckStart applies the date and slot masks to a start about to be
// submitted: the date must be selectable and start must fall exactly on an
// available cell of that day's grid. booked is the projection the caller
// already fetched; moving is the appointment being rescheduled, if any.
func (s *Service) CheckStart(ctx context.Context, doctorID string, start time.Time, booked []appointment.BookedSlot, moving *appointment.Appointment) error {
	doctor, err := s.doctor(ctx, doctorID)
	if err != nil {
		return err
	}
	day := StartOfDay(start, s.loc)
	if !s.Mask(doctor).Selectable(day) {
		return ErrDateUnavailable
	}

	label := Label(start.In(s.loc))
	if at, err := Combine(day, label, s.loc); err != nil || !at.Equal(start) {
		return ErrSlotUnavailable
	}
	exclude := ""
	if moving != nil {
		exclude = moving.ID
	}
	grid := BuildGrid(SlotsForDay(doctor.ClinicHours, day, s.interval), BookedLabels(booked, day, s.loc, exclude), CurrentLabel(moving, day, s.loc), "")
	for _, slot := range grid {
		if slot.Label != label {
			continue
		}
		switch slot.State {
		case SlotAvailable:
			return nil
		case SlotBooked:
			return ErrSlotTaken
		default:
			return ErrSlotUnavailable
		}
	}
	return ErrSlotUnavailable
}

func (s *Service) doctor(ctx context.Context, doctorID string) (*appointment.Doctor, error) {
	doctors, err := s.src.ListDoctors(ctx)
	if err != nil {
		s.logger.Error("failed to load doctors", "error", err, "doctor_id", doctorID)
		return nil, err
	}
	for i := range doctors {
		if doctors[i].DoctorID == doctorID {
			return &doctors[i], nil
		}
	}
	return nil, apperr.New(apperr.ErrNotFound, "calendar", "doctor not found")
}

func (s *Service) load(ctx context.Context, doctorID string) (*appointment.Doctor, []appointment.BookedSlot, error) {
	doctorID = strings.TrimSpace(doctorID)
	if doctorID == "" {
		return nil, nil, apperr.Validation("calendar", "doctor is required")
	}

	var (
		doctors []appointment.Doctor
		booked  []appointment.BookedSlot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doctors, err = s.src.ListDoctors(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		booked, err = s.src.BookedSlots(gctx, doctorID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load calendar data", "error", err, "doctor_id", doctorID)
		return nil, nil, err
	}

	for i := range doctors {
		if doctors[i].DoctorID == doctorID {
			return &doctors[i], booked, nil
		}
	}
	return nil, nil, apperr.New(apperr.ErrNotFound, "calendar", "doctor not found")
}
