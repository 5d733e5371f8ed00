package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/timetable"
	apperrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

// Backtracking runs depth-first search over priority-ordered sessions with
// least-constraining-value ordering of each domain. The search is bounded by
// a backtrack ceiling; exhausting it is a budget failure, distinct from
// provable infeasibility.
type Backtracking struct{}

// NewBacktracking returns the backtracking strategy.
func NewBacktracking() *Backtracking {
	return &Backtracking{}
}

// Name implements Solver.
func (b *Backtracking) Name() string { return "backtracking" }

type backtrackState struct {
	p          *Problem
	sessions   []*models.Session
	domains    map[string][]Assignment
	index      *timetable.ScheduleIndex
	backtracks int
	limit      int
	interval   int
	err        error
}

// Solve implements Solver.
func (b *Backtracking) Solve(ctx context.Context, p *Problem) (*Result, error) {
	started := time.Now()

	sessions := make([]*models.Session, len(p.Sessions))
	copy(sessions, p.Sessions)
	timetable.SortByPriority(sessions)

	domains := BuildDomains(p)
	for _, session := range sessions {
		if len(domains[session.ID]) == 0 {
			return &Result{
				Reason:  fmt.Sprintf("session %s has no feasible assignment", session.ID),
				Code:    apperrors.ErrInfeasible.Code,
				Metrics: baseMetrics(b.Name(), p, started, 0),
			}, nil
		}
	}
	demand := countDemand(domains)
	for _, values := range domains {
		orderLeastConstraining(values, demand)
	}

	state := &backtrackState{
		p:        p,
		sessions: sessions,
		domains:  domains,
		index:    timetable.NewScheduleIndex(p.Checker),
		limit:    p.Settings.MaxBacktracks,
		interval: p.Settings.ProgressInterval,
	}
	if state.limit <= 0 {
		state.limit = 10000
	}
	if state.interval <= 0 {
		state.interval = 100
	}

	solved := state.search(ctx, 0)
	if state.err != nil {
		return nil, state.err
	}

	metrics := baseMetrics(b.Name(), p, started, state.index.Len())
	metrics.Backtracks = state.backtracks

	result := &Result{Metrics: metrics}
	if solved {
		result.Success = true
		result.Schedule = state.index.Entries()
		p.report(100, "backtracking search complete")
	} else if state.backtracks >= state.limit {
		result.Reason = fmt.Sprintf("no solution within %d backtracks", state.limit)
		result.Code = apperrors.ErrBudgetExhausted.Code
	} else {
		result.Reason = "search space exhausted without a complete assignment"
		result.Code = apperrors.ErrInfeasible.Code
	}
	return result, nil
}

func (s *backtrackState) search(ctx context.Context, depth int) bool {
	if depth == len(s.sessions) {
		return true
	}
	session := s.sessions[depth]

	for _, value := range s.domains[session.ID] {
		cand := value.Entry(session)
		if !s.index.CanPlace(cand) {
			continue
		}
		s.index.Insert(cand)
		if s.search(ctx, depth+1) {
			return true
		}
		s.index.Remove(session.ID)
		if s.err != nil {
			return false
		}

		s.backtracks++
		if s.backtracks >= s.limit {
			return false
		}
		if s.backtracks%s.interval == 0 {
			percent := float64(depth) / float64(len(s.sessions)) * 100
			if err := s.p.checkpoint(ctx, percent, fmt.Sprintf("depth %d, %d backtracks", depth, s.backtracks)); err != nil {
				s.err = err
				return false
			}
		}
	}
	return false
}
