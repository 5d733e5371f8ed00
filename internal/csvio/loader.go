// Package csvio loads the engine's input collections from CSV files.
// Repeated course rows (one per session type) merge into a single course.
package csvio

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/timetable-engine/internal/models"
)

type teacherRecord struct {
	ID             string `csv:"id"`
	Name           string `csv:"name"`
	Department     string `csv:"department"`
	Subjects       string `csv:"subjects"`
	Priority       string `csv:"priority"`
	MaxHoursWeek   int    `csv:"max_hours_week"`
	Availability   string `csv:"availability"`
	PreferredSlots string `csv:"preferred_slots"`
	AvoidedSlots   string `csv:"avoided_slots"`
	MaxConsecutive int    `csv:"max_consecutive_hours"`
}

type classroomRecord struct {
	ID           string `csv:"id"`
	Name         string `csv:"name"`
	Capacity     int    `csv:"capacity"`
	Type         string `csv:"type"`
	Features     string `csv:"features"`
	Availability string `csv:"availability"`
}

type courseRecord struct {
	ID          string `csv:"id"`
	Code        string `csv:"code"`
	Name        string `csv:"name"`
	Program     string `csv:"program"`
	Year        int    `csv:"year"`
	Semester    int    `csv:"semester"`
	Department  string `csv:"department"`
	SessionType string `csv:"session_type"`
	Duration    int    `csv:"duration"`
	PerWeek     int    `csv:"per_week"`
	MinCapacity int    `csv:"min_capacity"`
	RequiresLab bool   `csv:"requires_lab"`
	Features    string `csv:"features"`
	Teachers    string `csv:"teachers"`
	Elective    bool   `csv:"elective"`
	Students    int    `csv:"students"`
	Divisions   string `csv:"divisions"`
}

// LoadTeachers parses the teacher collection.
func LoadTeachers(path string) ([]*models.Teacher, error) {
	var records []*teacherRecord
	if err := unmarshalFile(path, &records); err != nil {
		return nil, err
	}
	teachers := make([]*models.Teacher, 0, len(records))
	for _, rec := range records {
		availability, err := parseAvailability(rec.Availability)
		if err != nil {
			return nil, fmt.Errorf("teacher %s: %w", rec.ID, err)
		}
		preferred, err := parseSlotPreferences(rec.PreferredSlots)
		if err != nil {
			return nil, fmt.Errorf("teacher %s: %w", rec.ID, err)
		}
		avoided, err := parseSlotPreferences(rec.AvoidedSlots)
		if err != nil {
			return nil, fmt.Errorf("teacher %s: %w", rec.ID, err)
		}
		priority := models.PriorityNormal
		if strings.EqualFold(rec.Priority, string(models.PriorityVisiting)) {
			priority = models.PriorityVisiting
		}
		teacher := &models.Teacher{
			ID:                  rec.ID,
			Name:                rec.Name,
			Department:          rec.Department,
			Subjects:            splitList(rec.Subjects),
			Availability:        availability,
			MaxHoursWeek:        rec.MaxHoursWeek,
			Priority:            priority,
			PreferredSlots:      preferred,
			AvoidedSlots:        avoided,
			MaxConsecutiveHours: rec.MaxConsecutive,
		}
		teacher.Normalize()
		teachers = append(teachers, teacher)
	}
	return teachers, nil
}

// LoadClassrooms parses the classroom collection.
func LoadClassrooms(path string) ([]*models.Classroom, error) {
	var records []*classroomRecord
	if err := unmarshalFile(path, &records); err != nil {
		return nil, err
	}
	rooms := make([]*models.Classroom, 0, len(records))
	for _, rec := range records {
		availability, err := parseAvailability(rec.Availability)
		if err != nil {
			return nil, fmt.Errorf("classroom %s: %w", rec.ID, err)
		}
		room := &models.Classroom{
			ID:           rec.ID,
			Name:         rec.Name,
			Capacity:     rec.Capacity,
			Type:         models.RoomType(strings.ToUpper(strings.TrimSpace(rec.Type))),
			Features:     splitList(rec.Features),
			Availability: availability,
		}
		room.Normalize()
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// LoadCourses parses the course collection, merging one row per session type
// into a single course.
func LoadCourses(path string) ([]*models.Course, error) {
	var records []*courseRecord
	if err := unmarshalFile(path, &records); err != nil {
		return nil, err
	}
	byID := map[string]*models.Course{}
	var order []string
	for _, rec := range records {
		course, ok := byID[rec.ID]
		if !ok {
			divisions, err := parseDivisions(rec.Divisions)
			if err != nil {
				return nil, fmt.Errorf("course %s: %w", rec.ID, err)
			}
			course = &models.Course{
				ID:             rec.ID,
				Code:           rec.Code,
				Name:           rec.Name,
				Program:        rec.Program,
				Year:           rec.Year,
				Semester:       rec.Semester,
				Department:     rec.Department,
				Divisions:      divisions,
				TeachersByType: map[models.SessionType][]string{},
				Students:       rec.Students,
				IsElective:     rec.Elective,
			}
			byID[rec.ID] = course
			order = append(order, rec.ID)
		}
		sessionType, err := parseSessionType(rec.SessionType)
		if err != nil {
			return nil, fmt.Errorf("course %s: %w", rec.ID, err)
		}
		course.Specs = append(course.Specs, models.SessionSpec{
			Type:             sessionType,
			Duration:         rec.Duration,
			PerWeek:          rec.PerWeek,
			RequiredFeatures: splitList(rec.Features),
			MinCapacity:      rec.MinCapacity,
			RequiresLab:      rec.RequiresLab,
		})
		course.TeachersByType[sessionType] = append(course.TeachersByType[sessionType], splitList(rec.Teachers)...)
	}
	courses := make([]*models.Course, 0, len(order))
	for _, id := range order {
		course := byID[id]
		course.Normalize()
		courses = append(courses, course)
	}
	return courses, nil
}

func unmarshalFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseAvailability reads "MON 09:00-17:00;TUE 09:00-12:00".
func parseAvailability(raw string) (map[models.Weekday]models.DayWindow, error) {
	out := map[models.Weekday]models.DayWindow{}
	for _, token := range splitList(raw) {
		fields := strings.Fields(token)
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid availability entry %q", token)
		}
		day, err := models.ParseWeekday(fields[0])
		if err != nil {
			return nil, err
		}
		window, err := models.ParseTimeRange(fields[1])
		if err != nil {
			return nil, err
		}
		out[day] = models.DayWindow{Available: true, Window: window}
	}
	return out, nil
}

// parseSlotPreferences reads "MON 09:00;WED 14:00".
func parseSlotPreferences(raw string) ([]models.SlotPreference, error) {
	var out []models.SlotPreference
	for _, token := range splitList(raw) {
		fields := strings.Fields(token)
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid slot preference %q", token)
		}
		day, err := models.ParseWeekday(fields[0])
		if err != nil {
			return nil, err
		}
		start, err := models.ParseClock(fields[1])
		if err != nil {
			return nil, err
		}
		out = append(out, models.SlotPreference{Day: day, Start: start})
	}
	return out, nil
}

// parseDivisions reads "D1:30|B1:15|B2:15;D2:30" where the first token of
// each group is the division and the rest are its batches.
func parseDivisions(raw string) ([]models.Division, error) {
	var out []models.Division
	for _, group := range splitList(raw) {
		tokens := strings.Split(group, "|")
		id, count, err := parseCohortToken(tokens[0])
		if err != nil {
			return nil, err
		}
		division := models.Division{ID: id, Name: id, StudentCount: count}
		for _, token := range tokens[1:] {
			bid, bcount, err := parseCohortToken(token)
			if err != nil {
				return nil, err
			}
			division.Batches = append(division.Batches, models.Batch{ID: bid, Name: bid, StudentCount: bcount})
		}
		out = append(out, division)
	}
	return out, nil
}

func parseCohortToken(token string) (string, int, error) {
	parts := strings.SplitN(strings.TrimSpace(token), ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("invalid cohort token %q", token)
	}
	var count int
	if _, err := fmt.Sscanf(parts[1], "%d", &count); err != nil {
		return "", 0, fmt.Errorf("invalid cohort size in %q", token)
	}
	return strings.TrimSpace(parts[0]), count, nil
}

func parseSessionType(raw string) (models.SessionType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "THEORY":
		return models.Theory, nil
	case "PRACTICAL":
		return models.Practical, nil
	case "TUTORIAL":
		return models.Tutorial, nil
	default:
		return "", fmt.Errorf("unknown session type %q", raw)
	}
}
