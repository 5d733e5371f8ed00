package timetable

import (
	"github.com/noah-isme/timetable-engine/internal/constraint"
	"github.com/noah-isme/timetable-engine/internal/models"
)

// ScheduleIndex is the single mutable structure behind every strategy's
// partial schedule. Insert and Remove are symmetric so backtracking restores
// exactly the prior state, and all conflict queries route through the shared
// pairwise checker.
type ScheduleIndex struct {
	checker   *constraint.Checker
	bySession map[string]models.ScheduleEntry
	byDay     map[models.Weekday][]string
}

// NewScheduleIndex builds an empty index over the solve's checker.
func NewScheduleIndex(checker *constraint.Checker) *ScheduleIndex {
	return &ScheduleIndex{
		checker:   checker,
		bySession: make(map[string]models.ScheduleEntry),
		byDay:     make(map[models.Weekday][]string),
	}
}

// Len returns the number of committed entries.
func (x *ScheduleIndex) Len() int {
	return len(x.bySession)
}

// Insert commits an entry. Re-inserting a session replaces its assignment.
func (x *ScheduleIndex) Insert(entry models.ScheduleEntry) {
	if prev, ok := x.bySession[entry.Session.ID]; ok {
		x.removeFromDay(prev.Slot.Day, entry.Session.ID)
	}
	x.bySession[entry.Session.ID] = entry
	x.byDay[entry.Slot.Day] = append(x.byDay[entry.Slot.Day], entry.Session.ID)
}

// Remove drops a session's assignment. Unknown sessions are a no-op.
func (x *ScheduleIndex) Remove(sessionID string) {
	entry, ok := x.bySession[sessionID]
	if !ok {
		return
	}
	delete(x.bySession, sessionID)
	x.removeFromDay(entry.Slot.Day, sessionID)
}

func (x *ScheduleIndex) removeFromDay(day models.Weekday, sessionID string) {
	ids := x.byDay[day]
	for i, id := range ids {
		if id == sessionID {
			x.byDay[day] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// ConflictsWith returns every pairwise violation the candidate would create
// against committed entries. Only same-day entries can conflict.
func (x *ScheduleIndex) ConflictsWith(cand models.ScheduleEntry) []constraint.Violation {
	var out []constraint.Violation
	for _, id := range x.byDay[cand.Slot.Day] {
		if id == cand.Session.ID {
			continue
		}
		out = append(out, x.checker.PairViolations(cand, x.bySession[id])...)
	}
	return out
}

// CanPlace reports whether the candidate passes every hard constraint, unary
// and pairwise, against the committed entries.
func (x *ScheduleIndex) CanPlace(cand models.ScheduleEntry) bool {
	if len(x.checker.UnaryViolations(cand)) > 0 {
		return false
	}
	return len(x.ConflictsWith(cand)) == 0
}

// SoftScore rates the candidate against the committed entries.
func (x *ScheduleIndex) SoftScore(cand models.ScheduleEntry) float64 {
	return x.checker.SoftScore(cand, x.Entries())
}

// Entries flattens the index into a sorted schedule.
func (x *ScheduleIndex) Entries() models.Schedule {
	out := make(models.Schedule, 0, len(x.bySession))
	for _, entry := range x.bySession {
		out = append(out, entry)
	}
	out.Sort()
	return out
}
