package models

// TeacherPriority splits regular staff from visiting faculty, whose sessions
// are placed first because their availability is the tightest.
type TeacherPriority string

const (
	PriorityNormal   TeacherPriority = "NORMAL"
	PriorityVisiting TeacherPriority = "VISITING"
)

// DayWindow is one weekday of declared availability.
type DayWindow struct {
	Available bool
	Window    TimeRange
}

// SlotPreference points at a (day, start) slot a teacher prefers or avoids.
type SlotPreference struct {
	Day   Weekday
	Start int
}

// Teacher is a read-only input to a solve.
type Teacher struct {
	ID         string
	Name       string
	Department string
	Subjects   []string

	Availability map[Weekday]DayWindow
	MaxHoursWeek int
	Priority     TeacherPriority

	PreferredSlots      []SlotPreference
	AvoidedSlots        []SlotPreference
	MaxConsecutiveHours int
}

// AvailableFor reports whether the teacher's declared window covers the slot.
func (t *Teacher) AvailableFor(day Weekday, window TimeRange) bool {
	dw, ok := t.Availability[day]
	if !ok || !dw.Available {
		return false
	}
	return dw.Window.Contains(window)
}

// Prefers reports whether (day, start) is in the preferred list.
func (t *Teacher) Prefers(day Weekday, start int) bool {
	for _, p := range t.PreferredSlots {
		if p.Day == day && p.Start == start {
			return true
		}
	}
	return false
}

// Avoids reports whether (day, start) is in the avoided list.
func (t *Teacher) Avoids(day Weekday, start int) bool {
	for _, p := range t.AvoidedSlots {
		if p.Day == day && p.Start == start {
			return true
		}
	}
	return false
}

// Normalize fills optional fields so solvers never special-case shape.
func (t *Teacher) Normalize() {
	if t.Availability == nil {
		t.Availability = map[Weekday]DayWindow{}
	}
	if t.Priority == "" {
		t.Priority = PriorityNormal
	}
	if t.MaxConsecutiveHours <= 0 {
		t.MaxConsecutiveHours = 3
	}
}
