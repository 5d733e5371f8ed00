package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/internal/models"
)

func weekWindow(days ...models.Weekday) map[models.Weekday]models.DayWindow {
	out := map[models.Weekday]models.DayWindow{}
	for _, day := range days {
		out[day] = models.DayWindow{Available: true, Window: models.TimeRange{Start: 480, End: 1080}}
	}
	return out
}

func checkerFixture() *Checker {
	teachers := map[string]*models.Teacher{
		"T1": {ID: "T1", Availability: weekWindow(models.Monday, models.Tuesday), MaxHoursWeek: 20},
		"T2": {ID: "T2", Availability: weekWindow(models.Monday), AvoidedSlots: []models.SlotPreference{{Day: models.Monday, Start: 540}}},
	}
	rooms := map[string]*models.Classroom{
		"R1":  {ID: "R1", Capacity: 60, Type: models.RoomClassroom, Availability: weekWindow(models.Monday, models.Tuesday), Features: []string{"PROJECTOR"}},
		"LAB": {ID: "LAB", Capacity: 30, Type: models.RoomLab, Availability: weekWindow(models.Monday, models.Tuesday)},
	}
	return New(teachers, rooms, 3)
}

func entryFor(c *models.Course, sessionType models.SessionType, teacherID, roomID string, day models.Weekday, start int) models.ScheduleEntry {
	return models.ScheduleEntry{
		Session: &models.Session{
			ID:       c.ID + "-" + string(sessionType),
			CourseID: c.ID,
			Course:   c,
			Type:     sessionType,
			Duration: 60,
		},
		Slot:        models.TimeSlot{ID: string(day) + "-s", Day: day, Start: start, End: start + 60},
		TeacherID:   teacherID,
		ClassroomID: roomID,
	}
}

func course(id, program string, elective bool) *models.Course {
	return &models.Course{ID: id, Program: program, Year: 1, Semester: 1, IsElective: elective}
}

func TestUnaryViolationsAvailability(t *testing.T) {
	checker := checkerFixture()

	clean := entryFor(course("C1", "P1", false), models.Theory, "T1", "R1", models.Monday, 540)
	assert.Empty(t, checker.UnaryViolations(clean))

	offDay := entryFor(course("C1", "P1", false), models.Theory, "T2", "R1", models.Tuesday, 540)
	violations := checker.UnaryViolations(offDay)
	require.Len(t, violations, 1)
	assert.Equal(t, TeacherUnavailable, violations[0].Kind)

	unknownTeacher := entryFor(course("C1", "P1", false), models.Theory, "TX", "R1", models.Monday, 540)
	violations = checker.UnaryViolations(unknownTeacher)
	require.NotEmpty(t, violations)
	assert.Equal(t, TeacherUnavailable, violations[0].Kind)
}

func TestUnaryViolationsCapacityAndFeatures(t *testing.T) {
	checker := checkerFixture()

	tooSmall := entryFor(course("C1", "P1", false), models.Theory, "T1", "LAB", models.Monday, 540)
	tooSmall.Session.MinCapacity = 45
	violations := checker.UnaryViolations(tooSmall)
	require.Len(t, violations, 1)
	assert.Equal(t, CapacityExceeded, violations[0].Kind)

	needsLab := entryFor(course("C1", "P1", false), models.Practical, "T1", "R1", models.Monday, 540)
	needsLab.Session.RequiresLab = true
	violations = checker.UnaryViolations(needsLab)
	require.Len(t, violations, 1)
	assert.Equal(t, FeatureMismatch, violations[0].Kind)

	needsProjector := entryFor(course("C1", "P1", false), models.Theory, "T1", "LAB", models.Monday, 540)
	needsProjector.Session.RequiredFeatures = []string{"PROJECTOR"}
	violations = checker.UnaryViolations(needsProjector)
	require.Len(t, violations, 1)
	assert.Equal(t, FeatureMismatch, violations[0].Kind)
}

func TestPairViolationsExclusivity(t *testing.T) {
	checker := checkerFixture()
	c1 := course("C1", "P1", false)
	c2 := course("C2", "P2", false)

	a := entryFor(c1, models.Theory, "T1", "R1", models.Monday, 540)

	sameTeacher := entryFor(c2, models.Theory, "T1", "LAB", models.Monday, 540)
	violations := checker.PairViolations(a, sameTeacher)
	require.Len(t, violations, 1)
	assert.Equal(t, TeacherOverlap, violations[0].Kind)

	sameRoom := entryFor(c2, models.Theory, "T2", "R1", models.Monday, 540)
	violations = checker.PairViolations(a, sameRoom)
	require.Len(t, violations, 1)
	assert.Equal(t, RoomOverlap, violations[0].Kind)

	differentTime := entryFor(c2, models.Theory, "T1", "R1", models.Monday, 600)
	assert.Empty(t, checker.PairViolations(a, differentTime))

	differentDay := entryFor(c2, models.Theory, "T1", "R1", models.Tuesday, 540)
	assert.Empty(t, checker.PairViolations(a, differentDay))
}

func TestPairViolationsCohortOverlap(t *testing.T) {
	checker := checkerFixture()
	c1 := course("C1", "P1", false)
	c2 := course("C2", "P1", false)

	a := entryFor(c1, models.Theory, "T1", "R1", models.Monday, 540)
	b := entryFor(c2, models.Theory, "T2", "LAB", models.Monday, 540)

	violations := checker.PairViolations(a, b)
	require.Len(t, violations, 1)
	assert.Equal(t, CohortOverlap, violations[0].Kind)
}

func TestLabShareException(t *testing.T) {
	checker := checkerFixture()
	c1 := course("C1", "P1", false)
	c2 := course("C2", "P2", false)

	a := entryFor(c1, models.Practical, "T1", "LAB", models.Monday, 540)
	b := entryFor(c2, models.Practical, "T2", "LAB", models.Monday, 540)

	// Two practicals, different courses and teachers: the shared lab is fine.
	assert.Empty(t, checker.PairViolations(a, b))

	// Same teacher still collides.
	sameTeacher := entryFor(c2, models.Practical, "T1", "LAB", models.Monday, 540)
	violations := checker.PairViolations(a, sameTeacher)
	require.NotEmpty(t, violations)
	assert.Equal(t, TeacherOverlap, violations[0].Kind)

	// A theory session never shares.
	theory := entryFor(c2, models.Theory, "T2", "LAB", models.Monday, 540)
	violations = checker.PairViolations(a, theory)
	require.Len(t, violations, 1)
	assert.Equal(t, RoomOverlap, violations[0].Kind)
}

func TestElectiveOverlapException(t *testing.T) {
	checker := checkerFixture()
	e1 := course("E1", "P1", true)
	e2 := course("E2", "P1", true)

	a := entryFor(e1, models.Theory, "T1", "R1", models.Monday, 540)
	b := entryFor(e2, models.Theory, "T2", "LAB", models.Monday, 540)

	// Same cohort, but both elective and different courses: students attend
	// one or the other.
	assert.Empty(t, checker.PairViolations(a, b))

	// One mandatory course disables the exception.
	mandatory := entryFor(course("C3", "P1", false), models.Theory, "T2", "LAB", models.Monday, 540)
	violations := checker.PairViolations(a, mandatory)
	require.Len(t, violations, 1)
	assert.Equal(t, CohortOverlap, violations[0].Kind)

	// Two occurrences of the same elective still collide.
	sameCourse := entryFor(e1, models.Theory, "T2", "LAB", models.Monday, 540)
	violations = checker.PairViolations(a, sameCourse)
	require.Len(t, violations, 1)
	assert.Equal(t, CohortOverlap, violations[0].Kind)
}

func TestHardViolationsAccumulates(t *testing.T) {
	checker := checkerFixture()
	c1 := course("C1", "P1", false)
	c2 := course("C2", "P1", false)

	accepted := models.Schedule{
		entryFor(c1, models.Theory, "T1", "R1", models.Monday, 540),
	}
	cand := entryFor(c2, models.Theory, "T1", "R1", models.Monday, 540)

	violations := checker.HardViolations(cand, accepted)
	// Teacher, room and cohort all collide.
	assert.Len(t, violations, 3)
}

func TestSoftScoreRange(t *testing.T) {
	checker := checkerFixture()
	c1 := course("C1", "P1", false)

	clean := entryFor(c1, models.Theory, "T1", "R1", models.Monday, 540)
	clean.Session.MinCapacity = 45
	score := checker.SoftScore(clean, nil)
	assert.InDelta(t, 1.0, score, 0.001)

	avoided := entryFor(c1, models.Theory, "T2", "R1", models.Monday, 540)
	avoidedScore := checker.SoftScore(avoided, nil)
	assert.Less(t, avoidedScore, score, "avoided slot must cost")
	assert.GreaterOrEqual(t, avoidedScore, 0.0)
}

func TestSoftScoreConsecutivePenalty(t *testing.T) {
	checker := checkerFixture()
	c1 := course("C1", "P1", false)
	c2 := course("C2", "P2", false)
	c3 := course("C3", "P3", false)
	c4 := course("C4", "P4", false)

	accepted := models.Schedule{
		entryFor(c1, models.Theory, "T1", "R1", models.Monday, 540),
		entryFor(c2, models.Theory, "T1", "R1", models.Monday, 600),
		entryFor(c3, models.Theory, "T1", "R1", models.Monday, 660),
	}
	// Fourth consecutive hour crosses the 3-hour threshold.
	cand := entryFor(c4, models.Theory, "T1", "R1", models.Monday, 720)
	withRun := checker.SoftScore(cand, accepted)

	detached := entryFor(c4, models.Theory, "T1", "R1", models.Tuesday, 720)
	withoutRun := checker.SoftScore(detached, nil)

	assert.Less(t, withRun, withoutRun)
}

func TestSoftScoreTeacherConsecutiveOverride(t *testing.T) {
	teachers := map[string]*models.Teacher{
		// T1 tolerates one uninterrupted hour; the checker-wide limit is 3.
		"T1": {ID: "T1", Availability: weekWindow(models.Monday, models.Tuesday), MaxConsecutiveHours: 1},
		"T2": {ID: "T2", Availability: weekWindow(models.Monday, models.Tuesday)},
	}
	rooms := map[string]*models.Classroom{
		"R1": {ID: "R1", Capacity: 60, Type: models.RoomClassroom, Availability: weekWindow(models.Monday, models.Tuesday)},
	}
	checker := New(teachers, rooms, 3)

	c1 := course("C1", "P1", false)
	c2 := course("C2", "P2", false)

	accepted := models.Schedule{entryFor(c1, models.Theory, "T1", "R1", models.Monday, 540)}
	// Second back-to-back hour breaches T1's personal limit while staying
	// under the checker-wide threshold.
	cand := entryFor(c2, models.Theory, "T1", "R1", models.Monday, 600)
	limited := checker.SoftScore(cand, accepted)

	acceptedT2 := models.Schedule{entryFor(c1, models.Theory, "T2", "R1", models.Monday, 540)}
	candT2 := entryFor(c2, models.Theory, "T2", "R1", models.Monday, 600)
	unlimited := checker.SoftScore(candT2, acceptedT2)

	assert.Less(t, limited, unlimited)
	assert.InDelta(t, 0.20, unlimited-limited, 0.001)
}
