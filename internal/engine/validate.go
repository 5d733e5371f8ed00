package engine

import (
	"fmt"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// validateInput checks completeness of the three collections and reports
// every issue found, not just the first. Any issue is fatal and aborts before
// a strategy runs.
func validateInput(in Input) []string {
	var issues []string

	if len(in.Teachers) == 0 {
		issues = append(issues, "at least one teacher is required")
	}
	if len(in.Classrooms) == 0 {
		issues = append(issues, "at least one classroom is required")
	}
	if len(in.Courses) == 0 {
		issues = append(issues, "at least one course is required")
	}

	teacherIDs := map[string]bool{}
	for i, teacher := range in.Teachers {
		label := teacher.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			issues = append(issues, fmt.Sprintf("teacher %s has no id", label))
		}
		teacherIDs[teacher.ID] = true
		if len(teacher.Subjects) == 0 {
			issues = append(issues, fmt.Sprintf("teacher %s has no subject qualifications", label))
		}
		if !hasAvailableDay(teacher.Availability) {
			issues = append(issues, fmt.Sprintf("teacher %s has no available day", label))
		}
	}

	for i, room := range in.Classrooms {
		label := room.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			issues = append(issues, fmt.Sprintf("classroom %s has no id", label))
		}
		if room.Capacity <= 0 {
			issues = append(issues, fmt.Sprintf("classroom %s has invalid capacity %d", label, room.Capacity))
		}
	}

	for i, course := range in.Courses {
		label := course.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			issues = append(issues, fmt.Sprintf("course %s has no id", label))
		}
		validSpec := false
		for _, spec := range course.Specs {
			if spec.PerWeek > 0 {
				validSpec = true
				break
			}
		}
		if !validSpec {
			issues = append(issues, fmt.Sprintf("course %s has no session type with sessionsPerWeek > 0", label))
		}
		assigned := false
		for _, ids := range course.TeachersByType {
			for _, id := range ids {
				assigned = true
				if !teacherIDs[id] {
					issues = append(issues, fmt.Sprintf("course %s references unknown teacher %s", label, id))
				}
			}
		}
		if !assigned {
			issues = append(issues, fmt.Sprintf("course %s has no assigned teachers", label))
		}
	}
	return issues
}

func hasAvailableDay(availability map[models.Weekday]models.DayWindow) bool {
	for _, window := range availability {
		if window.Available {
			return true
		}
	}
	return false
}
