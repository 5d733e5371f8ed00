package solver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/timetable"
	apperrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

// CSP models sessions as variables over precomputed (slot, teacher,
// classroom) domains and searches with MRV ordering plus forward checking.
// AC-3 is implemented but skipped by default: full arc consistency proved too
// restrictive for this problem's constraint density.
//
// Sessions whose domain is empty before search are tolerated and simply left
// unscheduled; the solve fails outright only when every domain is empty.
type CSP struct{}

// NewCSP returns the CSP strategy.
func NewCSP() *CSP {
	return &CSP{}
}

// Name implements Solver.
func (c *CSP) Name() string { return "csp" }

// Solve implements Solver.
func (c *CSP) Solve(ctx context.Context, p *Problem) (*Result, error) {
	started := time.Now()

	domains := BuildDomains(p)
	var vars []*models.Session
	empty := 0
	for _, session := range p.Sessions {
		if len(domains[session.ID]) == 0 {
			empty++
			p.Logger.Debug("csp: empty domain, session left unscheduled", zap.String("session", session.ID))
			continue
		}
		vars = append(vars, session)
	}
	if len(p.Sessions) > 0 && empty == len(p.Sessions) {
		return &Result{
			Reason:  "every session has an empty domain",
			Code:    apperrors.ErrInfeasible.Code,
			Metrics: baseMetrics(c.Name(), p, started, 0),
		}, nil
	}

	if p.Settings.EnableArcCheck {
		ac3(p, vars, domains)
	}

	state := &cspState{
		p:        p,
		vars:     vars,
		domains:  domains,
		index:    timetable.NewScheduleIndex(p.Checker),
		assigned: make(map[string]bool, len(vars)),
		limit:    p.Settings.MaxBacktracks,
		interval: p.Settings.ProgressInterval,
	}
	if state.limit <= 0 {
		state.limit = 10000
	}
	if state.interval <= 0 {
		state.interval = 100
	}

	solved := state.search(ctx)
	if state.err != nil {
		return nil, state.err
	}

	metrics := baseMetrics(c.Name(), p, started, state.index.Len())
	metrics.Backtracks = state.backtracks

	result := &Result{Metrics: metrics, Schedule: state.index.Entries()}
	switch {
	case solved:
		// Partial emptiness still counts as success; the gap shows up in
		// scheduledSessions vs totalSessions.
		result.Success = true
		p.report(100, "csp search complete")
	case state.backtracks >= state.limit:
		result.Schedule = nil
		result.Reason = fmt.Sprintf("no solution within %d backtracks", state.limit)
		result.Code = apperrors.ErrBudgetExhausted.Code
	default:
		result.Schedule = nil
		result.Reason = "search space exhausted without a consistent assignment"
		result.Code = apperrors.ErrInfeasible.Code
	}
	return result, nil
}

type cspState struct {
	p        *Problem
	vars     []*models.Session
	domains  map[string][]Assignment
	index    *timetable.ScheduleIndex
	assigned map[string]bool

	backtracks int
	limit      int
	interval   int
	err        error
}

// selectVar applies minimum-remaining-values: the unassigned session with the
// smallest live domain goes next.
func (s *cspState) selectVar() *models.Session {
	var best *models.Session
	for _, v := range s.vars {
		if s.assigned[v.ID] {
			continue
		}
		if best == nil || len(s.domains[v.ID]) < len(s.domains[best.ID]) {
			best = v
		}
	}
	return best
}

func (s *cspState) search(ctx context.Context) bool {
	session := s.selectVar()
	if session == nil {
		return true
	}

	values := make([]Assignment, len(s.domains[session.ID]))
	copy(values, s.domains[session.ID])

	for _, value := range values {
		cand := value.Entry(session)
		if !s.index.CanPlace(cand) {
			continue
		}
		s.index.Insert(cand)
		s.assigned[session.ID] = true

		saved, wipeout := s.forwardCheck(cand)
		if !wipeout && s.search(ctx) {
			return true
		}
		s.restore(saved)
		s.assigned[session.ID] = false
		s.index.Remove(session.ID)
		if s.err != nil {
			return false
		}

		s.backtracks++
		if s.backtracks >= s.limit {
			return false
		}
		if s.backtracks%s.interval == 0 {
			percent := float64(s.index.Len()) / float64(len(s.vars)) * 100
			if err := s.p.checkpoint(ctx, percent, fmt.Sprintf("%d assigned, %d backtracks", s.index.Len(), s.backtracks)); err != nil {
				s.err = err
				return false
			}
		}
	}
	return false
}

// forwardCheck prunes now-infeasible values from unassigned domains. Only the
// pairwise exclusivity constraints propagate; soft constraints are scored
// post hoc. Returns the displaced domains for restoration and whether any
// domain wiped out.
func (s *cspState) forwardCheck(cand models.ScheduleEntry) (map[string][]Assignment, bool) {
	saved := make(map[string][]Assignment)
	for _, v := range s.vars {
		if s.assigned[v.ID] {
			continue
		}
		orig := s.domains[v.ID]
		filtered := make([]Assignment, 0, len(orig))
		for _, value := range orig {
			if len(s.p.Checker.PairViolations(value.Entry(v), cand)) == 0 {
				filtered = append(filtered, value)
			}
		}
		if len(filtered) == len(orig) {
			continue
		}
		saved[v.ID] = orig
		s.domains[v.ID] = filtered
		if len(filtered) == 0 {
			return saved, true
		}
	}
	return saved, false
}

func (s *cspState) restore(saved map[string][]Assignment) {
	for id, domain := range saved {
		s.domains[id] = domain
	}
}

// ac3 enforces pairwise arc consistency over the participating variables,
// using the same pairwise predicate as search. Kept behind a settings flag.
func ac3(p *Problem, vars []*models.Session, domains map[string][]Assignment) {
	type arc struct{ xi, xj *models.Session }
	var queue []arc
	for _, xi := range vars {
		for _, xj := range vars {
			if xi.ID != xj.ID {
				queue = append(queue, arc{xi, xj})
			}
		}
	}

	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		if !revise(p, a.xi, a.xj, domains) {
			continue
		}
		if len(domains[a.xi.ID]) == 0 {
			continue
		}
		for _, xk := range vars {
			if xk.ID != a.xi.ID && xk.ID != a.xj.ID {
				queue = append(queue, arc{xk, a.xi})
			}
		}
	}
}

// revise removes values of xi with no pairwise-consistent support in xj.
func revise(p *Problem, xi, xj *models.Session, domains map[string][]Assignment) bool {
	orig := domains[xi.ID]
	filtered := make([]Assignment, 0, len(orig))
	for _, vi := range orig {
		ei := vi.Entry(xi)
		supported := false
		for _, vj := range domains[xj.ID] {
			if len(p.Checker.PairViolations(ei, vj.Entry(xj))) == 0 {
				supported = true
				break
			}
		}
		if supported {
			filtered = append(filtered, vi)
		}
	}
	if len(filtered) == len(orig) {
		return false
	}
	domains[xi.ID] = filtered
	return true
}
