// Package calendar masks dates and time slots before an appointment request
// is submitted. It only shades and disables; the API re-validates every booking.
package calendar

import (
	"strings"
	"time"

	"github.com/wolfman30/ayurdiet-portal/internal/appointment"
	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
)

// DateLayout is the wire form of a calendar date.
const DateLayout = "2006-01-02"

var (
	// ErrDateUnavailable is returned when a date is in the past or outside the doctor's working days.
	ErrDateUnavailable = apperr.Validation("select date", "This date is not available for appointments.")
	// ErrSlotUnavailable is returned when a booked, current or unknown slot is picked.
	ErrSlotUnavailable = apperr.Validation("select slot", "This time slot is not available.")
	// ErrSlotTaken is returned when a submitted start lands on a booked slot.
	ErrSlotTaken = apperr.New(apperr.ErrConflict, "select slot", "This time slot is already booked. Please choose another time.")
	// ErrNoDate is returned when a slot is picked before a date.
	ErrNoDate = apperr.Validation("select slot", "Select a date first.")
)

// Predicate reports whether a day (at 00:00) may be offered.
type Predicate func(day time.Time) bool

// DateMask decides which calendar days are selectable.
type DateMask struct {
	Now       func() time.Time
	Location  *time.Location
	Available Predicate
}

func (m DateMask) loc() *time.Location {
	if m.Location == nil {
		return time.UTC
	}
	return m.Location
}

func (m DateMask) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// Today returns 00:00 of the current day in the mask's timezone.
func (m DateMask) Today() time.Time {
	return StartOfDay(m.now(), m.loc())
}

// Selectable reports whether day can be picked. Days before today 00:00 are
// never selectable, whatever the predicate answers.
func (m DateMask) Selectable(day time.Time) bool {
	d := StartOfDay(day, m.loc())
	if d.Before(m.Today()) {
		return false
	}
	if m.Available == nil {
		return true
	}
	return m.Available(d)
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDate reads a YYYY-MM-DD date in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, apperr.Validation("parse date", "date must be YYYY-MM-DD")
	}
	return d, nil
}

// WorkingDays builds a predicate from a doctor's clinic hours: a day is
// available when some entry names its weekday.
func WorkingDays(hours []appointment.ClinicHours) Predicate {
	days := make(map[time.Weekday]bool, len(hours))
	for _, h := range hours {
		if wd, ok := parseWeekday(h.Day); ok {
			days[wd] = true
		}
	}
	return func(day time.Time) bool {
		return days[day.Weekday()]
	}
}

// HoursOn returns the clinic hour entries for the weekday of day, in listed order.
func HoursOn(hours []appointment.ClinicHours, day time.Time) []appointment.ClinicHours {
	var out []appointment.ClinicHours
	for _, h := range hours {
		if wd, ok := parseWeekday(h.Day); ok && wd == day.Weekday() {
			out = append(out, h)
		}
	}
	return out
}

func parseWeekday(raw string) (time.Weekday, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if len(name) < 3 {
		return 0, false
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if name == full || name == full[:3] {
			return wd, true
		}
	}
	return 0, false
}
