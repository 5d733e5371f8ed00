package solver

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/noah-isme/timetable-engine/internal/models"
	apperrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

// Annealing explores full-schedule states with Metropolis acceptance and
// geometric cooling. Lower energy is better; the best-found energy over a run
// is non-increasing.
type Annealing struct{}

// NewAnnealing returns the simulated annealing strategy.
func NewAnnealing() *Annealing {
	return &Annealing{}
}

// Name implements Solver.
func (a *Annealing) Name() string { return "simulated_annealing" }

const (
	energyPerViolation   = 100.0
	energyPerSoftDeficit = 10.0
	// acceptableEnergy is the residual below which a run still counts as
	// success even with soft-constraint slack left.
	acceptableEnergy = 100.0
	initialAttempts  = 50
)

// Solve implements Solver.
func (a *Annealing) Solve(ctx context.Context, p *Problem) (*Result, error) {
	started := time.Now()

	if len(p.Sessions) == 0 {
		return &Result{Success: true, Metrics: baseMetrics(a.Name(), p, started, 0)}, nil
	}
	if len(p.Slots) == 0 {
		return &Result{Reason: "no time slots available", Metrics: baseMetrics(a.Name(), p, started, 0)}, nil
	}

	run := &annealingRun{p: p, domains: BuildDomains(p), roomIDs: sortedRoomIDs(p)}
	current := run.initialState()
	currentEnergy := run.energy(current)
	best := append([]Assignment(nil), current...)
	bestEnergy := currentEnergy

	temperature := p.Settings.InitialTemperature
	minTemperature := p.Settings.MinTemperature
	if minTemperature <= 0 {
		minTemperature = 0.01
	}
	cooling := p.Settings.CoolingRate
	perTemp := p.Settings.IterationsPerTemp
	interval := p.Settings.ProgressInterval
	if interval <= 0 {
		interval = 100
	}

	iterations := 0
	var energyTrace []float64
	for iterations < p.Settings.MaxIterations && temperature > minTemperature {
		for batch := 0; batch < perTemp && iterations < p.Settings.MaxIterations; batch++ {
			iterations++

			neighbor := run.neighbor(current)
			neighborEnergy := run.energy(neighbor)
			delta := neighborEnergy - currentEnergy

			if delta <= 0 || p.Rand.Float64() < math.Exp(-delta/temperature) {
				current = neighbor
				currentEnergy = neighborEnergy
			}
			if currentEnergy < bestEnergy {
				best = append(best[:0], current...)
				bestEnergy = currentEnergy
			}

			if iterations%interval == 0 {
				percent := float64(iterations) / float64(p.Settings.MaxIterations) * 100
				if err := p.checkpoint(ctx, percent, fmt.Sprintf("iteration %d, temperature %.2f, best energy %.1f", iterations, temperature, bestEnergy)); err != nil {
					return nil, err
				}
			}
		}
		energyTrace = append(energyTrace, bestEnergy)
		temperature *= cooling
	}

	schedule := run.schedule(best)
	violations := run.violationCount(schedule)

	metrics := baseMetrics(a.Name(), p, started, len(schedule))
	metrics.Iterations = iterations
	metrics.FinalEnergy = bestEnergy
	metrics.EnergyTrace = energyTrace

	result := &Result{Schedule: schedule, Metrics: metrics}
	if violations == 0 || bestEnergy < acceptableEnergy {
		result.Success = true
	} else {
		// Best-found state is still returned for inspection and repair.
		result.Reason = fmt.Sprintf("%d hard violations remain after cooling", violations)
		result.Code = apperrors.ErrBudgetExhausted.Code
	}
	p.report(100, "annealing complete")
	return result, nil
}

type annealingRun struct {
	p       *Problem
	domains map[string][]Assignment
	roomIDs []string
}

func sortedRoomIDs(p *Problem) []string {
	ids := make([]string, 0, len(p.Classrooms))
	for id := range p.Classrooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// initialState samples a feasible triple per session, retrying up to a fixed
// cap and accepting a violating assignment as a last resort.
func (r *annealingRun) initialState() []Assignment {
	index := make([]Assignment, len(r.p.Sessions))
	var accepted models.Schedule
	for i, session := range r.p.Sessions {
		domain := r.domains[session.ID]
		chosen := false
		if len(domain) > 0 {
			for attempt := 0; attempt < initialAttempts; attempt++ {
				value := domain[r.p.Rand.Intn(len(domain))]
				cand := value.Entry(session)
				if len(r.p.Checker.HardViolations(cand, accepted)) == 0 {
					index[i] = value
					accepted = append(accepted, cand)
					chosen = true
					break
				}
			}
			if !chosen {
				// Last resort: keep a violating sample, annealing will
				// try to repair it.
				index[i] = domain[r.p.Rand.Intn(len(domain))]
				accepted = append(accepted, index[i].Entry(session))
				chosen = true
			}
		}
		if !chosen {
			index[i] = r.arbitrary(session)
			accepted = append(accepted, index[i].Entry(session))
		}
	}
	return index
}

func (r *annealingRun) arbitrary(session *models.Session) Assignment {
	return Assignment{
		Slot:        r.p.Slots[r.p.Rand.Intn(len(r.p.Slots))],
		TeacherID:   session.TeacherIDs[r.p.Rand.Intn(len(session.TeacherIDs))],
		ClassroomID: r.roomIDs[r.p.Rand.Intn(len(r.roomIDs))],
	}
}

// neighbor perturbs the state: swap two entries' slot and room (50%), re-slot
// one entry (30%), or re-room one entry (20%).
func (r *annealingRun) neighbor(current []Assignment) []Assignment {
	next := append([]Assignment(nil), current...)
	switch roll := r.p.Rand.Float64(); {
	case roll < 0.5 && len(next) > 1:
		i := r.p.Rand.Intn(len(next))
		j := r.p.Rand.Intn(len(next))
		next[i].Slot, next[j].Slot = next[j].Slot, next[i].Slot
		next[i].ClassroomID, next[j].ClassroomID = next[j].ClassroomID, next[i].ClassroomID
	case roll < 0.8:
		i := r.p.Rand.Intn(len(next))
		next[i].Slot = r.p.Slots[r.p.Rand.Intn(len(r.p.Slots))]
	default:
		i := r.p.Rand.Intn(len(next))
		next[i].ClassroomID = r.roomIDs[r.p.Rand.Intn(len(r.roomIDs))]
	}
	return next
}

func (r *annealingRun) schedule(state []Assignment) models.Schedule {
	out := make(models.Schedule, len(state))
	for i, value := range state {
		out[i] = value.Entry(r.p.Sessions[i])
	}
	out.Sort()
	return out
}

// energy sums, per entry, 100 per hard violation plus 10 per unit of
// soft-score deficit.
func (r *annealingRun) energy(state []Assignment) float64 {
	schedule := r.schedule(state)
	total := 0.0
	for i, entry := range schedule {
		violations := len(r.p.Checker.UnaryViolations(entry))
		for j := range schedule {
			if j != i {
				violations += len(r.p.Checker.PairViolations(entry, schedule[j]))
			}
		}
		total += energyPerViolation * float64(violations)
		total += energyPerSoftDeficit * (1 - r.p.Checker.SoftScore(entry, schedule))
	}
	return total
}

func (r *annealingRun) violationCount(schedule models.Schedule) int {
	count := 0
	for i, entry := range schedule {
		count += len(r.p.Checker.UnaryViolations(entry))
		for j := i + 1; j < len(schedule); j++ {
			count += len(r.p.Checker.PairViolations(entry, schedule[j]))
		}
	}
	return count
}
