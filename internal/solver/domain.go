package solver

import (
	"sort"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// Assignment is one feasible (slot, teacher, classroom) triple for a session.
type Assignment struct {
	Slot        models.TimeSlot
	TeacherID   string
	ClassroomID string
}

// Entry materialises the assignment for a session.
func (a Assignment) Entry(session *models.Session) models.ScheduleEntry {
	return models.ScheduleEntry{
		Session:     session,
		Slot:        a.Slot,
		TeacherID:   a.TeacherID,
		ClassroomID: a.ClassroomID,
	}
}

// BuildDomains precomputes each session's feasible triples after pruning by
// the unary checks (availability, capacity, features). The per-session order
// is deterministic: slot order, then teacher order, then rooms by capacity.
func BuildDomains(p *Problem) map[string][]Assignment {
	rooms := make([]*models.Classroom, 0, len(p.Classrooms))
	for _, room := range p.Classrooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Capacity != rooms[j].Capacity {
			return rooms[i].Capacity < rooms[j].Capacity
		}
		return rooms[i].ID < rooms[j].ID
	})

	domains := make(map[string][]Assignment, len(p.Sessions))
	for _, session := range p.Sessions {
		var values []Assignment
		for _, slot := range p.Slots {
			for _, teacherID := range session.TeacherIDs {
				for _, room := range rooms {
					cand := models.ScheduleEntry{
						Session:     session,
						Slot:        slot,
						TeacherID:   teacherID,
						ClassroomID: room.ID,
					}
					if len(p.Checker.UnaryViolations(cand)) == 0 {
						values = append(values, Assignment{Slot: slot, TeacherID: teacherID, ClassroomID: room.ID})
					}
				}
			}
		}
		domains[session.ID] = values
	}
	return domains
}

// demandCounts tallies, per (slot, teacher) and (slot, room) pair, how many
// sessions could use it. Backtracking's value ordering uses this as a
// least-constraining-value estimate.
type demandCounts struct {
	teacher map[string]int
	room    map[string]int
}

func countDemand(domains map[string][]Assignment) demandCounts {
	d := demandCounts{teacher: map[string]int{}, room: map[string]int{}}
	for _, values := range domains {
		for _, v := range values {
			d.teacher[v.Slot.ID+"|"+v.TeacherID]++
			d.room[v.Slot.ID+"|"+v.ClassroomID]++
		}
	}
	return d
}

func (d demandCounts) cost(a Assignment) int {
	return d.teacher[a.Slot.ID+"|"+a.TeacherID] + d.room[a.Slot.ID+"|"+a.ClassroomID]
}

// orderLeastConstraining sorts domain values cheapest-contention first, ties
// broken by earliest day then start time.
func orderLeastConstraining(values []Assignment, demand demandCounts) {
	sort.SliceStable(values, func(i, j int) bool {
		ci, cj := demand.cost(values[i]), demand.cost(values[j])
		if ci != cj {
			return ci < cj
		}
		if values[i].Slot.Day != values[j].Slot.Day {
			return values[i].Slot.Day.Index() < values[j].Slot.Day.Index()
		}
		return values[i].Slot.Start < values[j].Slot.Start
	})
}
