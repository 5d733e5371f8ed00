package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/constraint"
	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/solver"
	"github.com/noah-isme/timetable-engine/internal/timetable"
)

const repairPasses = 3

// repair is a best-effort local-search pass over the returned schedule:
// for each conflicting entry it tries to re-slot, then re-room, one side.
// Entries that cannot be cleaned up stay in place and surface as conflicts.
func (e *Engine) repair(schedule models.Schedule, p *solver.Problem) models.Schedule {
	if len(schedule) == 0 {
		return schedule
	}
	index := timetable.NewScheduleIndex(p.Checker)
	for _, entry := range schedule {
		index.Insert(entry)
	}

	for pass := 0; pass < repairPasses; pass++ {
		moved := 0
		for _, entry := range index.Entries() {
			index.Remove(entry.Session.ID)
			clean := len(p.Checker.UnaryViolations(entry)) == 0 && len(index.ConflictsWith(entry)) == 0
			if clean {
				index.Insert(entry)
				continue
			}
			if fixed, ok := e.relocate(entry, p, index); ok {
				index.Insert(fixed)
				moved++
				continue
			}
			index.Insert(entry)
		}
		if moved == 0 {
			break
		}
		e.logger.Debug("repair pass moved entries", zap.Int("pass", pass+1), zap.Int("moved", moved))
	}
	return index.Entries()
}

// relocate tries a different slot first, then a different room, keeping the
// teacher fixed.
func (e *Engine) relocate(entry models.ScheduleEntry, p *solver.Problem, index *timetable.ScheduleIndex) (models.ScheduleEntry, bool) {
	for _, slot := range p.Slots {
		cand := entry
		cand.Slot = slot
		if index.CanPlace(cand) {
			return cand, true
		}
	}
	roomIDs := make([]string, 0, len(p.Classrooms))
	for id := range p.Classrooms {
		roomIDs = append(roomIDs, id)
	}
	sort.Strings(roomIDs)
	for _, roomID := range roomIDs {
		cand := entry
		cand.ClassroomID = roomID
		if index.CanPlace(cand) {
			return cand, true
		}
	}
	return entry, false
}

// detectConflicts classifies every remaining pairwise violation by type,
// carrying the offending entry indices.
func detectConflicts(schedule models.Schedule, checker *constraint.Checker) []dto.Conflict {
	var out []dto.Conflict
	for i := 0; i < len(schedule); i++ {
		for j := i + 1; j < len(schedule); j++ {
			for _, v := range checker.PairViolations(schedule[i], schedule[j]) {
				out = append(out, dto.Conflict{
					Type:        conflictType(v.Kind),
					Message:     v.Message,
					FirstIndex:  i,
					SecondIndex: j,
				})
			}
		}
	}
	return out
}

func conflictType(kind constraint.ViolationKind) dto.ConflictType {
	switch kind {
	case constraint.TeacherOverlap:
		return dto.ConflictTeacher
	case constraint.RoomOverlap:
		return dto.ConflictRoom
	default:
		return dto.ConflictStudentGroup
	}
}
