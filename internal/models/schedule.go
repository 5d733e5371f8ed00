package models

import "sort"

// TimeSlot is one bookable (day, start, end) window generated from settings.
type TimeSlot struct {
	ID    string
	Day   Weekday
	Start int
	End   int
}

// Window returns the slot's time range.
func (t TimeSlot) Window() TimeRange {
	return TimeRange{Start: t.Start, End: t.End}
}

// ScheduleEntry binds one session to a slot, teacher and classroom.
type ScheduleEntry struct {
	Session     *Session
	Slot        TimeSlot
	TeacherID   string
	ClassroomID string
}

// Window is the occupied time range: the slot start extended to the session
// duration, which may exceed the slot length.
func (e ScheduleEntry) Window() TimeRange {
	return TimeRange{Start: e.Slot.Start, End: e.Slot.Start + e.Session.Duration}
}

// OverlapsInTime reports whether two entries occupy intersecting windows on
// the same day.
func (e ScheduleEntry) OverlapsInTime(other ScheduleEntry) bool {
	return e.Slot.Day == other.Slot.Day && e.Window().Overlaps(other.Window())
}

// Schedule is the ordered collection of entries produced by a solve.
type Schedule []ScheduleEntry

// Sort orders entries by day then start time then course for stable output.
func (s Schedule) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Slot.Day != s[j].Slot.Day {
			return s[i].Slot.Day.Index() < s[j].Slot.Day.Index()
		}
		if s[i].Slot.Start != s[j].Slot.Start {
			return s[i].Slot.Start < s[j].Slot.Start
		}
		return s[i].Session.ID < s[j].Session.ID
	})
}

// Clone copies the schedule; sessions stay shared because they are immutable.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	copy(out, s)
	return out
}
