package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/internal/constraint"
	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/timetable"
)

func fullWeek() map[models.Weekday]models.DayWindow {
	out := map[models.Weekday]models.DayWindow{}
	for _, day := range []models.Weekday{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday} {
		out[day] = models.DayWindow{Available: true, Window: models.TimeRange{Start: 480, End: 1080}}
	}
	return out
}

func testSettings() dto.SolverSettings {
	return dto.SolverSettings{
		WorkingDays:         []models.Weekday{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday},
		StartTime:           "09:00",
		EndTime:             "17:00",
		SlotDuration:        60,
		MaxBacktracks:       5000,
		MaxIterations:       3000,
		ProgressInterval:    100,
		PopulationSize:      20,
		MaxGenerations:      60,
		MutationRate:        0.2,
		CrossoverRate:       0.8,
		TournamentSize:      3,
		EliteCount:          2,
		ConvergenceWindow:   20,
		InitialTemperature:  1000,
		CoolingRate:         0.995,
		IterationsPerTemp:   10,
		MaxConsecutiveHours: 3,
		Seed:                42,
	}
}

// buildProblem wires a solvable fixture from course definitions.
func buildProblem(t *testing.T, courses []*models.Course, mutate func(*dto.SolverSettings)) *Problem {
	t.Helper()

	settings := testSettings()
	if mutate != nil {
		mutate(&settings)
	}

	teachers := map[string]*models.Teacher{
		"T1": {ID: "T1", Availability: fullWeek()},
		"T2": {ID: "T2", Availability: fullWeek()},
		"T3": {ID: "T3", Availability: fullWeek()},
	}
	rooms := map[string]*models.Classroom{
		"R1":   {ID: "R1", Capacity: 60, Type: models.RoomClassroom, Availability: fullWeek()},
		"R2":   {ID: "R2", Capacity: 60, Type: models.RoomClassroom, Availability: fullWeek()},
		"LAB1": {ID: "LAB1", Capacity: 30, Type: models.RoomLab, Availability: fullWeek()},
	}

	slots, err := timetable.GenerateSlots(timetable.SlotSettings{
		WorkingDays:  settings.WorkingDays,
		StartTime:    settings.StartTime,
		EndTime:      settings.EndTime,
		SlotDuration: settings.SlotDuration,
	})
	require.NoError(t, err)

	p := NewProblem(settings)
	p.Teachers = teachers
	p.Classrooms = rooms
	p.Sessions = timetable.ExtractSessions(courses, teachers, nil)
	p.Slots = slots
	p.Checker = constraint.New(teachers, rooms, settings.MaxConsecutiveHours)
	return p
}

func singleCourse(teacherID string) []*models.Course {
	return []*models.Course{{
		ID:             "CS101",
		Program:        "BSC",
		Year:           1,
		Semester:       1,
		Students:       40,
		Specs:          []models.SessionSpec{{Type: models.Theory, Duration: 60, PerWeek: 1}},
		TeachersByType: map[models.SessionType][]string{models.Theory: {teacherID}},
	}}
}

func twoCoursesSameTeacher() []*models.Course {
	courses := make([]*models.Course, 2)
	for i, id := range []string{"CS101", "CS102"} {
		courses[i] = &models.Course{
			ID:             id,
			Program:        "P" + id,
			Year:           1,
			Semester:       1,
			Students:       40,
			Specs:          []models.SessionSpec{{Type: models.Theory, Duration: 60, PerWeek: 2}},
			TeachersByType: map[models.SessionType][]string{models.Theory: {"T1"}},
		}
	}
	return courses
}

// assertValid verifies the schedule holds no hard violation, unary or
// pairwise.
func assertValid(t *testing.T, p *Problem, schedule models.Schedule) {
	t.Helper()
	for i, entry := range schedule {
		assert.Empty(t, p.Checker.UnaryViolations(entry), "entry %d fails unary checks", i)
		for j := i + 1; j < len(schedule); j++ {
			assert.Empty(t, p.Checker.PairViolations(entry, schedule[j]), "entries %d and %d conflict", i, j)
		}
	}
}

func allStrategies() []Solver {
	return []Solver{NewGreedy(), NewBacktracking(), NewCSP(), NewGenetic(), NewAnnealing()}
}

func TestAllStrategiesSolveSingleSession(t *testing.T) {
	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			p := buildProblem(t, singleCourse("T1"), nil)
			result, err := s.Solve(context.Background(), p)
			require.NoError(t, err)
			assert.True(t, result.Success, "reason: %s", result.Reason)
			require.Len(t, result.Schedule, 1)
			assertValid(t, p, result.Schedule)
			assert.Equal(t, s.Name(), result.Metrics.Algorithm)
			assert.Equal(t, 1, result.Metrics.TotalSessions)
		})
	}
}

func TestStrategiesSerializeSharedTeacher(t *testing.T) {
	for _, s := range []Solver{NewGreedy(), NewBacktracking(), NewCSP()} {
		t.Run(s.Name(), func(t *testing.T) {
			p := buildProblem(t, twoCoursesSameTeacher(), nil)
			result, err := s.Solve(context.Background(), p)
			require.NoError(t, err)
			require.True(t, result.Success, "reason: %s", result.Reason)
			require.Len(t, result.Schedule, 4)
			assertValid(t, p, result.Schedule)
		})
	}
}

func infeasibleCourses() []*models.Course {
	// The practical demands a 100-seat lab; the largest lab holds 30.
	return []*models.Course{
		{
			ID:             "CS101",
			Program:        "BSC",
			Year:           1,
			Semester:       1,
			Students:       40,
			Specs:          []models.SessionSpec{{Type: models.Theory, Duration: 60, PerWeek: 1}},
			TeachersByType: map[models.SessionType][]string{models.Theory: {"T1"}},
		},
		{
			ID:             "CS199",
			Program:        "BSC",
			Year:           1,
			Semester:       1,
			Students:       100,
			Specs:          []models.SessionSpec{{Type: models.Practical, Duration: 120, PerWeek: 1, RequiresLab: true, MinCapacity: 100}},
			TeachersByType: map[models.SessionType][]string{models.Practical: {"T2"}},
		},
	}
}

func TestBacktrackingFailsOnEmptyDomain(t *testing.T) {
	p := buildProblem(t, infeasibleCourses(), nil)
	result, err := NewBacktracking().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Reason, "no feasible assignment")
	assert.Equal(t, "INFEASIBLE", result.Code)
	assert.Empty(t, result.Schedule)
}

func TestBacktrackingReportsExhaustedBudget(t *testing.T) {
	// One slot for four sessions of the same teacher; a single backtrack
	// trips the ceiling before the search can prove anything.
	p := buildProblem(t, twoCoursesSameTeacher(), func(s *dto.SolverSettings) {
		s.WorkingDays = []models.Weekday{models.Monday}
		s.StartTime = "09:00"
		s.EndTime = "10:00"
		s.MaxBacktracks = 1
	})
	result, err := NewBacktracking().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "BUDGET_EXHAUSTED", result.Code)
	assert.Contains(t, result.Reason, "within 1 backtracks")
}

func TestCSPSchedulesAroundEmptyDomain(t *testing.T) {
	p := buildProblem(t, infeasibleCourses(), nil)
	result, err := NewCSP().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, result.Success, "reason: %s", result.Reason)
	require.Len(t, result.Schedule, 1, "the feasible theory session still schedules")
	assert.Equal(t, 2, result.Metrics.TotalSessions)
	assert.Equal(t, 1, result.Metrics.DroppedSessions)
	assertValid(t, p, result.Schedule)
}

func TestGreedyCountsUnschedulable(t *testing.T) {
	p := buildProblem(t, infeasibleCourses(), nil)
	result, err := NewGreedy().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.Schedule, 1)
	assert.Contains(t, result.Reason, "1 sessions left unscheduled")
}

func TestCSPWithArcConsistency(t *testing.T) {
	p := buildProblem(t, twoCoursesSameTeacher(), func(s *dto.SolverSettings) {
		s.EnableArcCheck = true
	})
	result, err := NewCSP().Solve(context.Background(), p)
	require.NoError(t, err)
	require.True(t, result.Success, "reason: %s", result.Reason)
	assert.Len(t, result.Schedule, 4)
	assertValid(t, p, result.Schedule)
}

func TestGeneticFitnessWithinUnitRange(t *testing.T) {
	p := buildProblem(t, twoCoursesSameTeacher(), nil)
	result, err := NewGenetic().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.GreaterOrEqual(t, result.Metrics.BestFitness, 0.0)
	assert.LessOrEqual(t, result.Metrics.BestFitness, 1.0)
	assert.Positive(t, result.Metrics.Generations)
	assert.Len(t, result.Schedule, 4, "chromosomes cover every session")
}

func TestGeneticImprovesOnSeed(t *testing.T) {
	p := buildProblem(t, twoCoursesSameTeacher(), nil)

	seedResult, err := NewCSP().Solve(context.Background(), p)
	require.NoError(t, err)
	require.True(t, seedResult.Success)

	seeded := buildProblem(t, twoCoursesSameTeacher(), nil)
	seeded.SeedSchedule = seedResult.Schedule
	result, err := NewGenetic().Solve(context.Background(), seeded)
	require.NoError(t, err)
	assert.True(t, result.Success)

	// A conflict-free seed puts hard fitness at its ceiling; elitism keeps the
	// best individual from regressing below it.
	assert.GreaterOrEqual(t, result.Metrics.BestFitness, 0.6)
}

func TestGeneticBestFitnessNeverRegresses(t *testing.T) {
	p := buildProblem(t, twoCoursesSameTeacher(), nil)
	result, err := NewGenetic().Solve(context.Background(), p)
	require.NoError(t, err)
	require.True(t, result.Success)

	trace := result.Metrics.FitnessTrace
	require.NotEmpty(t, trace)
	for i := 1; i < len(trace); i++ {
		assert.GreaterOrEqual(t, trace[i], trace[i-1], "generation %d regressed", i+1)
	}
	assert.Equal(t, result.Metrics.BestFitness, trace[len(trace)-1])
}

func TestGeneticDeterministicWithSeed(t *testing.T) {
	run := func() models.Schedule {
		p := buildProblem(t, twoCoursesSameTeacher(), func(s *dto.SolverSettings) {
			s.Seed = 1234
		})
		result, err := NewGenetic().Solve(context.Background(), p)
		require.NoError(t, err)
		return result.Schedule
	}
	first := run()
	second := run()

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Session.ID, second[i].Session.ID)
		assert.Equal(t, first[i].Slot.ID, second[i].Slot.ID)
		assert.Equal(t, first[i].TeacherID, second[i].TeacherID)
		assert.Equal(t, first[i].ClassroomID, second[i].ClassroomID)
	}
}

func TestAnnealingReachesLowEnergy(t *testing.T) {
	p := buildProblem(t, singleCourse("T1"), nil)
	result, err := NewAnnealing().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, result.Success, "reason: %s", result.Reason)
	assert.GreaterOrEqual(t, result.Metrics.FinalEnergy, 0.0)
	assert.Less(t, result.Metrics.FinalEnergy, 100.0)
	assert.Positive(t, result.Metrics.Iterations)
	require.Len(t, result.Schedule, 1)
	assertValid(t, p, result.Schedule)
}

func TestAnnealingBestEnergyNeverRises(t *testing.T) {
	p := buildProblem(t, twoCoursesSameTeacher(), nil)
	result, err := NewAnnealing().Solve(context.Background(), p)
	require.NoError(t, err)

	trace := result.Metrics.EnergyTrace
	require.NotEmpty(t, trace)
	for i := 1; i < len(trace); i++ {
		assert.LessOrEqual(t, trace[i], trace[i-1], "cooling step %d raised the best energy", i+1)
	}
	assert.Equal(t, result.Metrics.FinalEnergy, trace[len(trace)-1])
}

func TestAnnealingStopsAtMinTemperature(t *testing.T) {
	p := buildProblem(t, singleCourse("T1"), func(s *dto.SolverSettings) {
		s.InitialTemperature = 1000
		s.MinTemperature = 900
		s.CoolingRate = 0.5
		s.IterationsPerTemp = 10
	})
	result, err := NewAnnealing().Solve(context.Background(), p)
	require.NoError(t, err)

	// 1000 * 0.5 drops below the floor after one cooling step.
	assert.Equal(t, 10, result.Metrics.Iterations)
	assert.Len(t, result.Metrics.EnergyTrace, 1)
}

func TestAnnealingEmptyInput(t *testing.T) {
	p := buildProblem(t, nil, nil)
	result, err := NewAnnealing().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Schedule)
}

func TestStrategiesHonorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, s := range []Solver{NewGreedy(), NewGenetic(), NewAnnealing()} {
		t.Run(s.Name(), func(t *testing.T) {
			p := buildProblem(t, twoCoursesSameTeacher(), func(set *dto.SolverSettings) {
				set.ProgressInterval = 1
			})
			_, err := s.Solve(ctx, p)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestProgressReported(t *testing.T) {
	p := buildProblem(t, twoCoursesSameTeacher(), func(s *dto.SolverSettings) {
		s.ProgressInterval = 1
	})
	var calls int
	var last float64
	p.Progress = func(percent float64, _ string) {
		calls++
		last = percent
	}
	_, err := NewGreedy().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Positive(t, calls)
	assert.Equal(t, 100.0, last)
}

func TestBuildDomainsPrunesUnary(t *testing.T) {
	p := buildProblem(t, infeasibleCourses(), nil)
	domains := BuildDomains(p)

	var labSessionID, theorySessionID string
	for _, s := range p.Sessions {
		if s.RequiresLab {
			labSessionID = s.ID
		} else {
			theorySessionID = s.ID
		}
	}
	assert.Empty(t, domains[labSessionID], "no room satisfies the 100-seat lab")
	assert.NotEmpty(t, domains[theorySessionID])

	// Domain order is deterministic.
	again := BuildDomains(p)
	assert.Equal(t, domains[theorySessionID], again[theorySessionID])
}

func TestCheckpointStopsOnDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	p := buildProblem(t, singleCourse("T1"), nil)
	err := p.checkpoint(ctx, 10, "working")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
