// Package timetable derives the solve inputs (sessions, time slots) and owns
// the schedule index shared by every strategy.
package timetable

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// ExtractSessions expands course definitions into atomic schedulable
// sessions: one per weekly occurrence, per division and per batch when the
// course is split. Specs with no assigned teachers are logged and dropped;
// that is a data-quality escape valve, not a solver failure.
func ExtractSessions(courses []*models.Course, teachers map[string]*models.Teacher, logger *zap.Logger) []*models.Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	var sessions []*models.Session

	for _, course := range courses {
		course.Normalize()
		for _, spec := range course.Specs {
			if spec.PerWeek <= 0 {
				continue
			}
			eligible := course.TeachersByType[spec.Type]
			if len(eligible) == 0 {
				logger.Warn("dropping session spec without assigned teachers",
					zap.String("course", course.ID),
					zap.String("type", string(spec.Type)),
				)
				continue
			}
			priority := highestPriority(eligible, teachers)

			for occurrence := 1; occurrence <= spec.PerWeek; occurrence++ {
				if len(course.Divisions) == 0 {
					sessions = append(sessions, buildSession(course, spec, occurrence, "", "", cohortSize(spec, course.Students), eligible, priority))
					continue
				}
				for _, division := range course.Divisions {
					// Only practicals split into batch groups; theory and
					// tutorials run for the whole division.
					if spec.Type == models.Practical && len(division.Batches) > 0 {
						for _, batch := range division.Batches {
							sessions = append(sessions, buildSession(course, spec, occurrence, division.ID, batch.ID, cohortSize(spec, batch.StudentCount), eligible, priority))
						}
						continue
					}
					sessions = append(sessions, buildSession(course, spec, occurrence, division.ID, "", cohortSize(spec, division.StudentCount), eligible, priority))
				}
			}
		}
	}
	return sessions
}

func buildSession(course *models.Course, spec models.SessionSpec, occurrence int, divisionID, batchID string, capacity int, eligible []string, priority models.TeacherPriority) *models.Session {
	id := fmt.Sprintf("%s-%s-%d", course.ID, spec.Type, occurrence)
	if divisionID != "" {
		id += "-" + divisionID
	}
	if batchID != "" {
		id += "-" + batchID
	}
	teacherIDs := make([]string, len(eligible))
	copy(teacherIDs, eligible)
	features := make([]string, len(spec.RequiredFeatures))
	copy(features, spec.RequiredFeatures)

	return &models.Session{
		ID:               id,
		CourseID:         course.ID,
		Course:           course,
		Type:             spec.Type,
		Occurrence:       occurrence,
		DivisionID:       divisionID,
		BatchID:          batchID,
		Duration:         spec.Duration,
		TeacherIDs:       teacherIDs,
		RequiredFeatures: features,
		RequiresLab:      spec.RequiresLab,
		MinCapacity:      capacity,
		Priority:         priority,
	}
}

// cohortSize prefers the spec's explicit minimum over the inherited student
// count.
func cohortSize(spec models.SessionSpec, students int) int {
	if spec.MinCapacity > students {
		return spec.MinCapacity
	}
	return students
}

func highestPriority(teacherIDs []string, teachers map[string]*models.Teacher) models.TeacherPriority {
	for _, id := range teacherIDs {
		if t, ok := teachers[id]; ok && t.Priority == models.PriorityVisiting {
			return models.PriorityVisiting
		}
	}
	return models.PriorityNormal
}

// SortByPriority orders sessions for greedy and backtracking search: visiting
// faculty first, then most-constrained, ties broken by id for reproducibility.
func SortByPriority(sessions []*models.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.Priority != b.Priority {
			return a.Priority == models.PriorityVisiting
		}
		if a.ConstraintCount() != b.ConstraintCount() {
			return a.ConstraintCount() > b.ConstraintCount()
		}
		return a.ID < b.ID
	})
}
