package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday is the canonical uppercase day name used across the engine.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

var weekdayOrder = map[Weekday]int{
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
	Sunday:    7,
}

// Index returns the ISO-ish ordinal of the day, 0 when unknown.
func (w Weekday) Index() int {
	return weekdayOrder[w]
}

// ParseWeekday normalises day names. Only the full name and the exact
// three-letter form (MON, TUE, ...) are accepted.
func ParseWeekday(raw string) (Weekday, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for day := range weekdayOrder {
		if name == string(day) || name == string(day)[:3] {
			return day, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", raw)
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TimeRange is a half-open [Start, End) window in minutes since midnight.
type TimeRange struct {
	Start int
	End   int
}

// ParseTimeRange parses "HH:MM-HH:MM".
func ParseTimeRange(raw string) (TimeRange, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), "-", 2)
	if len(parts) != 2 {
		return TimeRange{}, fmt.Errorf("invalid time range %q", raw)
	}
	start, err := ParseClock(parts[0])
	if err != nil {
		return TimeRange{}, err
	}
	end, err := ParseClock(parts[1])
	if err != nil {
		return TimeRange{}, err
	}
	if end <= start {
		return TimeRange{}, fmt.Errorf("time range %q must end after it starts", raw)
	}
	return TimeRange{Start: start, End: end}, nil
}

// Overlaps reports whether two windows intersect.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start < other.End && other.Start < r.End
}

// Contains reports whether the window fully covers the other.
func (r TimeRange) Contains(other TimeRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}
