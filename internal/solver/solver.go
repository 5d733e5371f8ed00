// Package solver implements the interchangeable search strategies. Every
// strategy consumes the same Problem and produces the same Result, so the
// engine can swap them behind one interface.
package solver

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/constraint"
	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
)

// ProgressFunc receives advisory progress updates. It is invoked at blocking
// checkpoints inside the search loop; implementations must return promptly.
type ProgressFunc func(percent float64, message string)

// Problem is the immutable input of one solve. All solver state derived from
// it is owned by the single Solve invocation.
type Problem struct {
	Teachers   map[string]*models.Teacher
	Classrooms map[string]*models.Classroom
	Sessions   []*models.Session
	Slots      []models.TimeSlot

	Checker  *constraint.Checker
	Settings dto.SolverSettings

	// Rand is the seeded source for every stochastic choice, so runs are
	// repeatable.
	Rand *rand.Rand

	// SeedSchedule primes population-based strategies with a prior partial
	// solution (hybrid pipeline).
	SeedSchedule models.Schedule

	Logger   *zap.Logger
	Progress ProgressFunc
}

// NewProblem fills defaults the strategies rely on.
func NewProblem(settings dto.SolverSettings) *Problem {
	seed := settings.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Problem{
		Settings: settings,
		Rand:     rand.New(rand.NewSource(seed)),
		Logger:   zap.NewNop(),
		Progress: func(float64, string) {},
	}
}

func (p *Problem) report(percent float64, message string) {
	if p.Progress != nil {
		p.Progress(percent, message)
	}
}

// checkpoint is the cooperative cancellation point: every strategy calls it
// at its progress interval.
func (p *Problem) checkpoint(ctx context.Context, percent float64, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.report(percent, message)
	return nil
}

// Result is the uniform strategy output. Code classifies a failed run with
// the typed error taxonomy; it stays empty on success.
type Result struct {
	Success  bool
	Reason   string
	Code     string
	Schedule models.Schedule
	Metrics  dto.SolverMetrics
}

// Solver is the strategy contract.
type Solver interface {
	Name() string
	Solve(ctx context.Context, p *Problem) (*Result, error)
}

func baseMetrics(name string, p *Problem, started time.Time, scheduled int) dto.SolverMetrics {
	return dto.SolverMetrics{
		Algorithm:         name,
		Duration:          time.Since(started),
		TotalSessions:     len(p.Sessions),
		ScheduledSessions: scheduled,
		DroppedSessions:   len(p.Sessions) - scheduled,
	}
}
