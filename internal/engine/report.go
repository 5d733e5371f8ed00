package engine

import (
	"fmt"
	"math"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/solver"
)

// Placeholder satisfaction scores until survey feedback feeds the engine.
const (
	teacherSatisfactionScore = 85.0
	studentSatisfactionScore = 80.0
)

// qualityMetrics aggregates post-solve quality in percent.
func qualityMetrics(schedule models.Schedule, conflicts []dto.Conflict, p *solver.Problem) dto.QualityMetrics {
	q := dto.QualityMetrics{
		TeacherSatisfaction: teacherSatisfactionScore,
		StudentSatisfaction: studentSatisfactionScore,
	}
	if len(schedule) == 0 {
		return q
	}

	q.ConstraintCompliance = math.Max(0, 100*(1-float64(len(conflicts))/float64(len(schedule))))

	utilization := 0.0
	counted := 0
	for _, entry := range schedule {
		room := p.Classrooms[entry.ClassroomID]
		if room == nil || room.Capacity == 0 || entry.Session.MinCapacity == 0 {
			continue
		}
		utilization += math.Min(1, float64(entry.Session.MinCapacity)/float64(room.Capacity))
		counted++
	}
	if counted > 0 {
		q.RoomUtilization = 100 * utilization / float64(counted)
	}

	perDay := map[models.Weekday]int{}
	for _, entry := range schedule {
		perDay[entry.Slot.Day]++
	}
	mean := float64(len(schedule)) / math.Max(1, float64(len(p.Settings.WorkingDays)))
	deviation := 0.0
	for _, day := range p.Settings.WorkingDays {
		deviation += math.Abs(float64(perDay[day]) - mean)
	}
	deviation /= math.Max(1, float64(len(p.Settings.WorkingDays)))
	q.ScheduleBalance = math.Max(0, 100*(1-deviation/math.Max(1, mean)))

	return q
}

// recommend emits textual follow-ups keyed off metric thresholds and the
// requested optimization goals.
func recommend(result *dto.SolveResult, goals []string) []dto.Recommendation {
	var out []dto.Recommendation

	if len(result.Conflicts) > 0 {
		out = append(out, dto.Recommendation{
			Type:     "conflicts",
			Priority: "high",
			Message:  fmt.Sprintf("%d conflicts remain in the generated timetable", len(result.Conflicts)),
			Action:   "review the conflicting entries and relax availability or add rooms",
		})
	}
	if dropped := result.Metrics.DroppedSessions; dropped > 0 {
		out = append(out, dto.Recommendation{
			Type:     "coverage",
			Priority: "high",
			Message:  fmt.Sprintf("%d of %d sessions could not be scheduled", dropped, result.Metrics.TotalSessions),
			Action:   "add teaching capacity, rooms or working hours",
		})
	}
	if result.Quality.RoomUtilization > 0 && result.Quality.RoomUtilization < 50 {
		out = append(out, dto.Recommendation{
			Type:     "utilization",
			Priority: "medium",
			Message:  fmt.Sprintf("average room occupancy is %.0f%%", result.Quality.RoomUtilization),
			Action:   "assign smaller rooms or consolidate sparse sessions",
		})
	}
	if result.Quality.ScheduleBalance < 70 {
		out = append(out, dto.Recommendation{
			Type:     "balance",
			Priority: "medium",
			Message:  fmt.Sprintf("daily load balance is %.0f%%", result.Quality.ScheduleBalance),
			Action:   "spread sessions more evenly across working days",
		})
	}
	for _, goal := range goals {
		if goal == "minimize_gaps" && result.Quality.ScheduleBalance >= 70 && len(result.Conflicts) == 0 {
			out = append(out, dto.Recommendation{
				Type:     "goal",
				Priority: "low",
				Message:  "gap minimisation goal met within current constraints",
				Action:   "none",
			})
		}
	}
	if len(out) == 0 && result.Success {
		out = append(out, dto.Recommendation{
			Type:     "quality",
			Priority: "low",
			Message:  "timetable meets all configured thresholds",
			Action:   "none",
		})
	}
	return out
}
