package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/timetable"
	apperrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

// Greedy constructs the schedule session by session, committing the first
// feasible (slot, teacher, classroom) triple it finds. No backtracking: a
// session with no feasible slot is counted, not fatal, unless nothing
// schedules at all.
type Greedy struct{}

// NewGreedy returns the greedy strategy.
func NewGreedy() *Greedy {
	return &Greedy{}
}

// Name implements Solver.
func (g *Greedy) Name() string { return "greedy" }

// Solve implements Solver.
func (g *Greedy) Solve(ctx context.Context, p *Problem) (*Result, error) {
	started := time.Now()

	sessions := make([]*models.Session, len(p.Sessions))
	copy(sessions, p.Sessions)
	timetable.SortByPriority(sessions)

	rooms := roomsByCapacity(p)
	index := timetable.NewScheduleIndex(p.Checker)
	unscheduled := 0
	interval := p.Settings.ProgressInterval
	if interval <= 0 {
		interval = 10
	}

	for i, session := range sessions {
		if i%interval == 0 {
			percent := float64(i) / float64(max(len(sessions), 1)) * 100
			if err := p.checkpoint(ctx, percent, fmt.Sprintf("placing session %d of %d", i+1, len(sessions))); err != nil {
				return nil, err
			}
		}
		if !g.place(session, p, rooms, index) {
			unscheduled++
			p.Logger.Debug("greedy: no feasible slot", zap.String("session", session.ID))
		}
	}

	scheduled := index.Len()
	result := &Result{
		Schedule: index.Entries(),
		Metrics:  baseMetrics(g.Name(), p, started, scheduled),
	}
	switch {
	case scheduled == 0 && len(sessions) > 0:
		result.Reason = "no session could be scheduled"
		result.Code = apperrors.ErrInfeasible.Code
	default:
		result.Success = true
		if unscheduled > 0 {
			result.Reason = fmt.Sprintf("%d sessions left unscheduled", unscheduled)
		}
	}
	p.report(100, "greedy pass complete")
	return result, nil
}

func (g *Greedy) place(session *models.Session, p *Problem, rooms []*models.Classroom, index *timetable.ScheduleIndex) bool {
	for _, slot := range p.Slots {
		for _, teacherID := range session.TeacherIDs {
			for _, room := range rooms {
				cand := models.ScheduleEntry{
					Session:     session,
					Slot:        slot,
					TeacherID:   teacherID,
					ClassroomID: room.ID,
				}
				if index.CanPlace(cand) {
					index.Insert(cand)
					return true
				}
			}
		}
	}
	return false
}

func roomsByCapacity(p *Problem) []*models.Classroom {
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
	return rooms
}
