package appointment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// NaiveLayout is the zone-less ISO form some API records use.
const NaiveLayout = "2006-01-02T15:04:05"

var naiveLayouts = []string{NaiveLayout, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04"}

// Timestamp accepts RFC 3339 instants and naive wall-clock values. Naive
// values carry no zone and are read in the clinic timezone via In.
type Timestamp struct {
	time.Time
	Naive bool
}

// At wraps an absolute instant.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses either form.
func ParseTimestamp(raw string) (Timestamp, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return Timestamp{Time: t}, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t, Naive: true}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("appointment: malformed timestamp %q", raw)
}

// In returns the instant in loc. Naive values keep their wall clock.
func (ts Timestamp) In(loc *time.Location) time.Time {
	if ts.IsZero() {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if !ts.Naive {
		return ts.Time.In(loc)
	}
	t := ts.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	if ts.Naive {
		return json.Marshal(ts.Time.Format(NaiveLayout))
	}
	return json.Marshal(ts.Time.Format(time.RFC3339))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("appointment: timestamp: %w", err)
	}
	if raw == "" {
		*ts = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
