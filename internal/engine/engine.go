// Package engine orchestrates a solve: input validation, strategy selection,
// progress-reported execution and the post-processing pass (conflict repair,
// quality metrics, recommendations).
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/constraint"
	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/solver"
	"github.com/noah-isme/timetable-engine/internal/timetable"
	"github.com/noah-isme/timetable-engine/pkg/config"
	apperrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/metrics"
)

// Input carries the three read-only collections plus per-solve settings.
type Input struct {
	Teachers   []*models.Teacher
	Classrooms []*models.Classroom
	Courses    []*models.Course
	Settings   dto.SolverSettings
}

// Engine wires configuration, logging and instrumentation around the solver
// strategies. Each Solve call constructs fresh strategy state; the engine
// itself is safe for concurrent use.
type Engine struct {
	cfg       *config.Config
	logger    *zap.Logger
	validator *validator.Validate
	recorder  *metrics.Recorder
}

// New builds an engine. Nil dependencies fall back to safe defaults.
func New(cfg *config.Config, logger *zap.Logger, recorder *metrics.Recorder) *Engine {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		logger:    logger,
		validator: validator.New(),
		recorder:  recorder,
	}
}

// Solve runs the full pipeline. Failures never panic across this boundary;
// they come back as a structured result.
func (e *Engine) Solve(ctx context.Context, in Input, progress solver.ProgressFunc) *dto.SolveResult {
	started := time.Now()
	result := &dto.SolveResult{
		RunID:     uuid.NewString(),
		StartedAt: started,
	}
	defer func() {
		result.FinishedAt = time.Now()
	}()

	in.Settings.ApplyDefaults(e.cfg)
	if err := e.validator.Struct(in.Settings); err != nil {
		result.Reason = "invalid solver settings"
		result.ErrorCode = apperrors.ErrValidation.Code
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if fe.Field() == "Algorithm" {
					result.Reason = fmt.Sprintf("unknown algorithm %q", in.Settings.Algorithm)
					result.ErrorCode = apperrors.ErrUnknownStrategy.Code
					break
				}
			}
		}
		result.ValidationErrors = []string{err.Error()}
		return result
	}
	if issues := validateInput(in); len(issues) > 0 {
		result.Reason = "input validation failed"
		result.ErrorCode = apperrors.ErrValidation.Code
		result.ValidationErrors = issues
		return result
	}

	problem, err := e.buildProblem(in, progress)
	if err != nil {
		result.Reason = err.Error()
		result.ErrorCode = apperrors.ErrValidation.Code
		result.ValidationErrors = []string{err.Error()}
		return result
	}

	solverResult, err := e.run(ctx, in.Settings.Algorithm, problem)
	if err != nil {
		result.Reason = err.Error()
		result.ErrorCode = classify(err).Code
		return result
	}

	repaired := e.repair(solverResult.Schedule, problem)
	conflicts := detectConflicts(repaired, problem.Checker)

	result.Success = solverResult.Success
	result.Reason = solverResult.Reason
	if !solverResult.Success {
		result.ErrorCode = solverResult.Code
	}
	result.Solution = repaired
	result.Metrics = solverResult.Metrics
	result.Metrics.ScheduledSessions = len(repaired)
	result.Metrics.DroppedSessions = result.Metrics.TotalSessions - len(repaired)
	result.Conflicts = conflicts
	result.Quality = qualityMetrics(repaired, conflicts, problem)
	result.Recommendations = recommend(result, in.Settings.OptimizationGoals)

	if e.recorder != nil {
		e.recorder.ObserveSolve(result.Metrics.Algorithm, result.Success, time.Since(started), len(repaired), result.Metrics.TotalSessions, len(conflicts))
	}
	e.logger.Info("solve finished",
		zap.String("run_id", result.RunID),
		zap.String("algorithm", result.Metrics.Algorithm),
		zap.Bool("success", result.Success),
		zap.Int("scheduled", len(repaired)),
		zap.Int("conflicts", len(conflicts)),
		zap.Duration("duration", time.Since(started)),
	)
	return result
}

func (e *Engine) buildProblem(in Input, progress solver.ProgressFunc) (*solver.Problem, error) {
	teachers := make(map[string]*models.Teacher, len(in.Teachers))
	for _, t := range in.Teachers {
		t.Normalize()
		teachers[t.ID] = t
	}
	rooms := make(map[string]*models.Classroom, len(in.Classrooms))
	for _, c := range in.Classrooms {
		c.Normalize()
		rooms[c.ID] = c
	}

	slots, err := timetable.GenerateSlots(timetable.SlotSettings{
		WorkingDays:  in.Settings.WorkingDays,
		StartTime:    in.Settings.StartTime,
		EndTime:      in.Settings.EndTime,
		SlotDuration: in.Settings.SlotDuration,
		BreakSlots:   in.Settings.BreakSlots,
	})
	if err != nil {
		return nil, err
	}

	sessions := timetable.ExtractSessions(in.Courses, teachers, e.logger)

	problem := solver.NewProblem(in.Settings)
	problem.Teachers = teachers
	problem.Classrooms = rooms
	problem.Sessions = sessions
	problem.Slots = slots
	problem.Checker = constraint.New(teachers, rooms, in.Settings.MaxConsecutiveHours)
	problem.Logger = e.logger
	if progress != nil {
		problem.Progress = progress
	}
	return problem, nil
}

// run executes the selected strategy. Unknown names fall back to hybrid, and
// panics inside a strategy surface as a failure result.
func (e *Engine) run(ctx context.Context, algorithm string, p *solver.Problem) (result *solver.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("solver panic", zap.Any("panic", r))
			result = nil
			err = fmt.Errorf("solver panic: %v", r)
		}
	}()

	if algorithm == dto.AlgorithmHybrid {
		return e.runHybrid(ctx, p)
	}
	s, ok := registry[algorithm]
	if !ok {
		e.logger.Warn("unknown strategy, falling back to hybrid", zap.String("algorithm", algorithm))
		return e.runHybrid(ctx, p)
	}
	return s().Solve(ctx, p)
}

// classify maps pipeline errors onto the typed error taxonomy.
func classify(err error) *apperrors.Error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.ErrCancelled
	default:
		return apperrors.FromError(err)
	}
}

// registry maps strategy names to factories; every Solve gets a fresh
// instance.
var registry = map[string]func() solver.Solver{
	dto.AlgorithmGreedy:       func() solver.Solver { return solver.NewGreedy() },
	dto.AlgorithmBacktracking: func() solver.Solver { return solver.NewBacktracking() },
	dto.AlgorithmCSP:          func() solver.Solver { return solver.NewCSP() },
	dto.AlgorithmGenetic:      func() solver.Solver { return solver.NewGenetic() },
	dto.AlgorithmAnnealing:    func() solver.Solver { return solver.NewAnnealing() },
}

// runHybrid seeds a capped genetic refinement with a CSP pass run under a
// reduced backtrack budget. A CSP wash falls back to a pure genetic run.
func (e *Engine) runHybrid(ctx context.Context, p *solver.Problem) (*solver.Result, error) {
	cspProblem := *p
	cspProblem.Settings.MaxBacktracks = p.Settings.MaxBacktracks / 10
	if cspProblem.Settings.MaxBacktracks < 500 {
		cspProblem.Settings.MaxBacktracks = 500
	}
	cspResult, err := solver.NewCSP().Solve(ctx, &cspProblem)
	if err != nil {
		return nil, err
	}
	if cspResult.Success && cspResult.Metrics.DroppedSessions == 0 {
		cspResult.Metrics.Algorithm = "hybrid"
		return cspResult, nil
	}

	gaProblem := *p
	if gaProblem.Settings.PopulationSize > 30 {
		gaProblem.Settings.PopulationSize = 30
	}
	if gaProblem.Settings.MaxGenerations > 100 {
		gaProblem.Settings.MaxGenerations = 100
	}
	if cspResult.Success {
		gaProblem.SeedSchedule = cspResult.Schedule
	}
	gaResult, err := solver.NewGenetic().Solve(ctx, &gaProblem)
	if err != nil {
		return nil, err
	}
	gaResult.Metrics.Algorithm = "hybrid"
	gaResult.Metrics.Backtracks = cspResult.Metrics.Backtracks
	return gaResult, nil
}
