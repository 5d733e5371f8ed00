// Package constraint evaluates hard-constraint validity and soft-constraint
// quality of candidate assignments against a partial schedule. The checker is
// stateless: all schedule context is passed per call.
package constraint

import (
	"fmt"
	"sort"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// ViolationKind names one hard constraint.
type ViolationKind string

const (
	TeacherOverlap     ViolationKind = "TEACHER_OVERLAP"
	RoomOverlap        ViolationKind = "ROOM_OVERLAP"
	CohortOverlap      ViolationKind = "COHORT_OVERLAP"
	TeacherUnavailable ViolationKind = "TEACHER_UNAVAILABLE"
	RoomUnavailable    ViolationKind = "ROOM_UNAVAILABLE"
	CapacityExceeded   ViolationKind = "CAPACITY_EXCEEDED"
	FeatureMismatch    ViolationKind = "FEATURE_MISMATCH"
)

// Violation is one failed hard constraint with a diagnostic message.
type Violation struct {
	Kind    ViolationKind
	Message string
}

// Checker evaluates candidates against the immutable teacher and classroom
// collections of one solve.
type Checker struct {
	teachers map[string]*models.Teacher
	rooms    map[string]*models.Classroom

	// maxConsecutive is the soft threshold for uninterrupted teaching, in
	// minutes.
	maxConsecutive int
}

// New builds a checker over the solve's input collections.
func New(teachers map[string]*models.Teacher, rooms map[string]*models.Classroom, maxConsecutiveHours int) *Checker {
	if maxConsecutiveHours <= 0 {
		maxConsecutiveHours = 3
	}
	return &Checker{
		teachers:       teachers,
		rooms:          rooms,
		maxConsecutive: maxConsecutiveHours * 60,
	}
}

// UnaryViolations checks the candidate against constraints that do not depend
// on other entries: availability windows, capacity and room features.
func (c *Checker) UnaryViolations(e models.ScheduleEntry) []Violation {
	var out []Violation
	window := e.Window()

	teacher, ok := c.teachers[e.TeacherID]
	if !ok || !teacher.AvailableFor(e.Slot.Day, window) {
		out = append(out, Violation{
			Kind:    TeacherUnavailable,
			Message: fmt.Sprintf("teacher %s is not available on %s %s-%s", e.TeacherID, e.Slot.Day, models.FormatClock(window.Start), models.FormatClock(window.End)),
		})
	}

	room, ok := c.rooms[e.ClassroomID]
	if !ok {
		out = append(out, Violation{Kind: RoomUnavailable, Message: fmt.Sprintf("classroom %s is unknown", e.ClassroomID)})
		return out
	}
	if !room.AvailableFor(e.Slot.Day, window) {
		out = append(out, Violation{
			Kind:    RoomUnavailable,
			Message: fmt.Sprintf("classroom %s is not available on %s %s-%s", e.ClassroomID, e.Slot.Day, models.FormatClock(window.Start), models.FormatClock(window.End)),
		})
	}
	if e.Session.MinCapacity > 0 && room.Capacity < e.Session.MinCapacity {
		out = append(out, Violation{
			Kind:    CapacityExceeded,
			Message: fmt.Sprintf("classroom %s holds %d but session %s needs %d", e.ClassroomID, room.Capacity, e.Session, e.Session.MinCapacity),
		})
	}
	if e.Session.RequiresLab && !room.IsLab() {
		out = append(out, Violation{
			Kind:    FeatureMismatch,
			Message: fmt.Sprintf("session %s requires a lab, classroom %s is %s without computers", e.Session, e.ClassroomID, room.Type),
		})
	}
	for _, feature := range e.Session.RequiredFeatures {
		if !room.HasFeature(feature) {
			out = append(out, Violation{
				Kind:    FeatureMismatch,
				Message: fmt.Sprintf("classroom %s lacks feature %s for session %s", e.ClassroomID, feature, e.Session),
			})
		}
	}
	return out
}

// PairViolations checks the three pairwise exclusivity constraints between
// two entries, honouring the lab co-location and elective exceptions. Both
// CSP propagation and conflict detection route through here so every strategy
// shares one conflict semantics.
func (c *Checker) PairViolations(a, b models.ScheduleEntry) []Violation {
	if !a.OverlapsInTime(b) {
		return nil
	}
	var out []Violation

	if a.TeacherID == b.TeacherID {
		out = append(out, Violation{
			Kind:    TeacherOverlap,
			Message: fmt.Sprintf("teacher %s booked for %s and %s at the same time", a.TeacherID, a.Session, b.Session),
		})
	}

	if a.ClassroomID == b.ClassroomID && !labShareAllowed(a, b) {
		out = append(out, Violation{
			Kind:    RoomOverlap,
			Message: fmt.Sprintf("classroom %s booked for %s and %s at the same time", a.ClassroomID, a.Session, b.Session),
		})
	}

	if a.Session.SameCohort(b.Session) && !electiveOverlapAllowed(a, b) {
		out = append(out, Violation{
			Kind:    CohortOverlap,
			Message: fmt.Sprintf("student group %s has %s and %s at the same time", a.Session.CohortKey(), a.Session, b.Session),
		})
	}
	return out
}

// labShareAllowed implements the co-location exception: two practical
// sessions of different courses run by different teachers may share a lab.
func labShareAllowed(a, b models.ScheduleEntry) bool {
	return a.Session.Type == models.Practical &&
		b.Session.Type == models.Practical &&
		a.TeacherID != b.TeacherID &&
		a.Session.CourseID != b.Session.CourseID
}

// electiveOverlapAllowed implements the elective exception: students pick one
// of two overlapping electives of different courses.
func electiveOverlapAllowed(a, b models.ScheduleEntry) bool {
	return a.Session.Course.IsElective &&
		b.Session.Course.IsElective &&
		a.Session.CourseID != b.Session.CourseID
}

// HardViolations returns the full violation list for a candidate against the
// accepted entries, not just the first failure.
func (c *Checker) HardViolations(cand models.ScheduleEntry, accepted models.Schedule) []Violation {
	out := c.UnaryViolations(cand)
	for _, entry := range accepted {
		out = append(out, c.PairViolations(cand, entry)...)
	}
	return out
}

// Soft-constraint penalties. Each stays within [0,1] and is subtracted from a
// starting score of 1.0.
const (
	penaltyAvoidedSlot   = 0.25
	penaltyNotPreferred  = 0.10
	penaltyUtilization   = 0.15
	penaltyWorkload      = 0.20
	penaltyConsecutive   = 0.20
	penaltyDayGaps       = 0.15
	utilizationLowWater  = 0.5
	utilizationHighWater = 1.0
	maxDayGapMinutes     = 120
)

// SoftScore rates the candidate in [0,1] given the accepted entries. The
// result feeds genetic-algorithm fitness and annealing energy.
func (c *Checker) SoftScore(cand models.ScheduleEntry, accepted models.Schedule) float64 {
	score := 1.0

	teacher := c.teachers[cand.TeacherID]
	if teacher != nil {
		if teacher.Avoids(cand.Slot.Day, cand.Slot.Start) {
			score -= penaltyAvoidedSlot
		} else if len(teacher.PreferredSlots) > 0 && !teacher.Prefers(cand.Slot.Day, cand.Slot.Start) {
			score -= penaltyNotPreferred
		}
	}

	if room := c.rooms[cand.ClassroomID]; room != nil && room.Capacity > 0 && cand.Session.MinCapacity > 0 {
		ratio := float64(cand.Session.MinCapacity) / float64(room.Capacity)
		if ratio < utilizationLowWater || ratio > utilizationHighWater {
			score -= penaltyUtilization
		}
	}

	if teacher != nil && teacher.MaxHoursWeek > 0 {
		assigned := cand.Session.Duration
		for _, entry := range accepted {
			if entry.TeacherID == cand.TeacherID {
				assigned += entry.Session.Duration
			}
		}
		ratio := float64(assigned) / float64(teacher.MaxHoursWeek*60)
		if ratio > 1.0 {
			score -= penaltyWorkload
		} else if ratio > 0.9 {
			score -= penaltyWorkload / 2
		}
	}

	// A teacher's own limit overrides the solve-wide threshold.
	limit := c.maxConsecutive
	if teacher != nil && teacher.MaxConsecutiveHours > 0 {
		limit = teacher.MaxConsecutiveHours * 60
	}
	windows := teacherDayWindows(cand, accepted)
	if run := longestRun(windows); run > limit {
		score -= penaltyConsecutive
	}
	if gaps := aggregateGaps(windows); gaps > maxDayGapMinutes {
		score -= penaltyDayGaps
	}

	if score < 0 {
		return 0
	}
	return score
}

// teacherDayWindows collects the candidate teacher's same-day windows,
// candidate included, sorted by start.
func teacherDayWindows(cand models.ScheduleEntry, accepted models.Schedule) []models.TimeRange {
	windows := []models.TimeRange{cand.Window()}
	for _, entry := range accepted {
		if entry.TeacherID == cand.TeacherID && entry.Slot.Day == cand.Slot.Day {
			windows = append(windows, entry.Window())
		}
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
	return windows
}

func longestRun(windows []models.TimeRange) int {
	best, runStart, runEnd := 0, 0, 0
	for i, w := range windows {
		if i == 0 || w.Start > runEnd {
			runStart, runEnd = w.Start, w.End
		} else if w.End > runEnd {
			runEnd = w.End
		}
		if runEnd-runStart > best {
			best = runEnd - runStart
		}
	}
	return best
}

func aggregateGaps(windows []models.TimeRange) int {
	total := 0
	for i := 1; i < len(windows); i++ {
		if gap := windows[i].Start - windows[i-1].End; gap > 0 {
			total += gap
		}
	}
	return total
}
