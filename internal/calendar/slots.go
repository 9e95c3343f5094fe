package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/ayurdiet-portal/internal/appointment"
)

// LabelLayout renders a slot as "hh:mm AM".
const LabelLayout = "03:04 PM"

const clockLayout = "15:04"

// GenerateSlots lists the slot labels starting at from, every interval, strictly before to.
func GenerateSlots(from, to string, interval time.Duration) ([]string, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("calendar: slot interval must be positive")
	}
	start, err := time.Parse(clockLayout, strings.TrimSpace(from))
	if err != nil {
		return nil, fmt.Errorf("calendar: bad opening time %q: %w", from, err)
	}
	end, err := time.Parse(clockLayout, strings.TrimSpace(to))
	if err != nil {
		return nil, fmt.Errorf("calendar: bad closing time %q: %w", to, err)
	}
	var labels []string
	for t := start; t.Before(end); t = t.Add(interval) {
		labels = append(labels, t.Format(LabelLayout))
	}
	return labels, nil
}

// SlotsForDay lists the labels of every clinic window on the weekday of day.
// Malformed windows are skipped.
func SlotsForDay(hours []appointment.ClinicHours, day time.Time, interval time.Duration) []string {
	seen := map[string]bool{}
	var labels []string
	for _, h := range HoursOn(hours, day) {
		window, err := GenerateSlots(h.From, h.To, interval)
		if err != nil {
			continue
		}
		for _, label := range window {
			if !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
	}
	return labels
}

// Label renders t as a slot label.
func Label(t time.Time) string {
	return t.Format(LabelLayout)
}

// Combine joins a calendar day and a slot label into an instant in loc.
func Combine(day time.Time, label string, loc *time.Location) (time.Time, error) {
	clock, err := time.Parse(LabelLayout, strings.TrimSpace(label))
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: bad slot label %q: %w", label, err)
	}
	d := StartOfDay(day, loc)
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, d.Location()), nil
}

// BookedLabels lists the labels occupied on day by slots other than exclude
// (the appointment being rescheduled). Cancelled and completed slots are ignored.
func BookedLabels(slots []appointment.BookedSlot, day time.Time, loc *time.Location, exclude string) []string {
	want := StartOfDay(day, loc)
	var labels []string
	for _, slot := range slots {
		if slot.ID == exclude || !slot.Occupies() || slot.StartTimestamp.IsZero() {
			continue
		}
		start := slot.StartTimestamp.In(loc)
		if StartOfDay(start, loc).Equal(want) {
			labels = append(labels, Label(start))
		}
	}
	return labels
}

// CurrentLabel is the label of the slot appt already occupies, or "" when it
// is on another day.
func CurrentLabel(appt *appointment.Appointment, day time.Time, loc *time.Location) string {
	if appt == nil || appt.StartTimestamp.IsZero() {
		return ""
	}
	start := appt.StartTimestamp.In(loc)
	if !StartOfDay(start, loc).Equal(StartOfDay(day, loc)) {
		return ""
	}
	return Label(start)
}

// BookedDates collects the dates (YYYY-MM-DD) holding an occupied slot, for calendar shading.
func BookedDates(slots []appointment.BookedSlot, loc *time.Location) map[string]bool {
	dates := map[string]bool{}
	for _, slot := range slots {
		if !slot.Occupies() || slot.StartTimestamp.IsZero() {
			continue
		}
		dates[slot.StartTimestamp.In(loc).Format(DateLayout)] = true
	}
	return dates
}
