package calendar

import (
	"strings"
	"time"
)

// SlotState is the single state a slot renders in.
type SlotState string

const (
	SlotCurrent   SlotState = "current"
	SlotBooked    SlotState = "booked"
	SlotSelected  SlotState = "selected"
	SlotAvailable SlotState = "available"
)

// Slot is one cell of the time grid.
type Slot struct {
	Label    string    `json:"label"`
	State    SlotState `json:"state"`
	Disabled bool      `json:"disabled"`
}

// BuildGrid assigns each label exactly one state with precedence
// current > booked > selected > available.
func BuildGrid(labels, booked []string, current, selected string) []Slot {
	bookedSet := make(map[string]bool, len(booked))
	for _, b := range booked {
		bookedSet[normalizeLabel(b)] = true
	}
	current = normalizeLabel(current)
	selected = normalizeLabel(selected)

	grid := make([]Slot, 0, len(labels))
	for _, label := range labels {
		key := normalizeLabel(label)
		slot := Slot{Label: label}
		switch {
		case current != "" && key == current:
			slot.State, slot.Disabled = SlotCurrent, true
		case bookedSet[key]:
			slot.State, slot.Disabled = SlotBooked, true
		case selected != "" && key == selected:
			slot.State = SlotSelected
		default:
			slot.State = SlotAvailable
		}
		grid = append(grid, slot)
	}
	return grid
}

// normalizeLabel lets "9:30 am" and "09:30 AM" compare equal.
func normalizeLabel(label string) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return ""
	}
	if t, err := time.Parse("3:04 PM", label); err == nil {
		return t.Format(LabelLayout)
	}
	return label
}

// Picker holds an in-progress date and slot choice. Only an available slot
// can become the selection; picking a new date clears it.
type Picker struct {
	mask     DateMask
	date     time.Time
	labels   []string
	booked   []string
	current  string
	selected string
}

// NewPicker starts a picker with no date chosen.
func NewPicker(mask DateMask) *Picker {
	return &Picker{mask: mask}
}

// SelectDate chooses a day and loads its slot labels, booked labels and the
// current slot of an appointment being rescheduled.
func (p *Picker) SelectDate(day time.Time, labels, booked []string, current string) error {
	if !p.mask.Selectable(day) {
		return ErrDateUnavailable
	}
	p.date = StartOfDay(day, p.mask.loc())
	p.labels = append([]string(nil), labels...)
	p.booked = append([]string(nil), booked...)
	p.current = current
	p.selected = ""
	return nil
}

// SelectSlot sets the pending selection.
func (p *Picker) SelectSlot(label string) error {
	if p.date.IsZero() {
		return ErrNoDate
	}
	key := normalizeLabel(label)
	for _, slot := range BuildGrid(p.labels, p.booked, p.current, "") {
		if normalizeLabel(slot.Label) != key {
			continue
		}
		if slot.State != SlotAvailable {
			return ErrSlotUnavailable
		}
		p.selected = slot.Label
		return nil
	}
	return ErrSlotUnavailable
}

// Grid renders the slots of the chosen date.
func (p *Picker) Grid() []Slot {
	return BuildGrid(p.labels, p.booked, p.current, p.selected)
}

// Date is the chosen day, zero when none.
func (p *Picker) Date() time.Time { return p.date }

// SelectedSlot is the pending slot label, "" when none.
func (p *Picker) SelectedSlot() string { return p.selected }

// Selection combines the chosen date and slot. ok is false until both are set.
func (p *Picker) Selection() (time.Time, bool) {
	if p.date.IsZero() || p.selected == "" {
		return time.Time{}, false
	}
	t, err := Combine(p.date, p.selected, p.mask.loc())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
