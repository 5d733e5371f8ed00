// Package export renders a solved timetable into tabular CSV or PDF output.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// Dataset is the tabular form of a timetable, ready for rendering.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

var timetableHeaders = []string{"Day", "Start", "End", "Course", "Type", "Group", "Teacher", "Room"}

// ScheduleDataset flattens a schedule into rows, resolving teacher and room
// names when the lookup maps carry them.
func ScheduleDataset(schedule models.Schedule, teachers map[string]*models.Teacher, rooms map[string]*models.Classroom) Dataset {
	schedule.Sort()
	rows := make([][]string, 0, len(schedule))
	for _, entry := range schedule {
		window := entry.Window()
		rows = append(rows, []string{
			string(entry.Slot.Day),
			models.FormatClock(window.Start),
			models.FormatClock(window.End),
			entry.Session.CourseID,
			string(entry.Session.Type),
			groupLabel(entry.Session),
			displayName(entry.TeacherID, teachers),
			roomName(entry.ClassroomID, rooms),
		})
	}
	return Dataset{Headers: timetableHeaders, Rows: rows}
}

func groupLabel(session *models.Session) string {
	switch {
	case session.BatchID != "":
		return session.DivisionID + "/" + session.BatchID
	case session.DivisionID != "":
		return session.DivisionID
	default:
		return "all"
	}
}

func displayName(teacherID string, teachers map[string]*models.Teacher) string {
	if t, ok := teachers[teacherID]; ok && t.Name != "" {
		return t.Name
	}
	return teacherID
}

func roomName(roomID string, rooms map[string]*models.Classroom) string {
	if r, ok := rooms[roomID]; ok && r.Name != "" {
		return r.Name
	}
	return roomID
}

// WriteCSV streams the dataset as CSV.
func WriteCSV(w io.Writer, data Dataset) error {
	if len(data.Headers) == 0 {
		return fmt.Errorf("csv requires at least one header")
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(data.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
