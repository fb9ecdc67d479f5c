// Package schedule reconciles trips with their vehicles, drivers, and routes
// into display-ready rows, and converts timestamps between the upstream wire
// format, the display format, and the form input-control format.
//
// Every function here is pure and never panics on malformed input.
package schedule

import (
	"strings"
	"time"
)

const (
	// WireLayout is the upstream API format.
	WireLayout = "2006-01-02 15:04:05"
	// InputLayout is the datetime-local form control format.
	InputLayout = "2006-01-02T15:04"
	// DisplayLayout is the day-first format shown in the schedule table.
	DisplayLayout = "02/01/2006, 15:04"
)

// naiveLayouts are tried in order after the date/time separator has been
// normalized to "T". None of them carries a zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses a wire, input-control, or ISO 8601 timestamp.
//
// Timestamps are naive: the result carries the wall-clock fields of raw in
// UTC, and an explicit offset in raw is dropped rather than converted.
func ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return wallClock(t), true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// FormatWire renders t in the upstream wire format.
func FormatWire(t time.Time) string {
	return t.Format(WireLayout)
}

// ToDisplay renders raw as "DD/MM/YYYY, HH:MM".
// If raw cannot be parsed it is returned unchanged.
func ToDisplay(raw string) string {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return raw
	}
	return t.Format(DisplayLayout)
}

// ToInputValue renders raw as "YYYY-MM-DDTHH:MM" for form binding.
// If raw cannot be parsed the empty string is returned.
func ToInputValue(raw string) string {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return ""
	}
	return t.Format(InputLayout)
}

// ToWireFormat converts an input-control value to the wire format by
// replacing the "T" separator with a space and appending zero seconds.
// No parsing or timezone conversion takes place; "" stays "".
func ToWireFormat(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	s = strings.Replace(s, "T", " ", 1)
	if len(s) == len(InputLayout) {
		s += ":00"
	}
	return s
}
