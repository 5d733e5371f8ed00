package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/internal/models"
)

func sampleSchedule() (models.Schedule, map[string]*models.Teacher, map[string]*models.Classroom) {
	course := &models.Course{ID: "CS201", Program: "BSC", Year: 2, Semester: 3}
	theory := &models.Session{ID: "s1", CourseID: "CS201", Course: course, Type: models.Theory, Duration: 60, DivisionID: "D1"}
	practical := &models.Session{ID: "s2", CourseID: "CS201", Course: course, Type: models.Practical, Duration: 120, DivisionID: "D1", BatchID: "B1"}

	schedule := models.Schedule{
		{Session: practical, Slot: models.TimeSlot{Day: models.Tuesday, Start: 600, End: 660}, TeacherID: "T2", ClassroomID: "LAB1"},
		{Session: theory, Slot: models.TimeSlot{Day: models.Monday, Start: 540, End: 600}, TeacherID: "T1", ClassroomID: "R1"},
	}
	teachers := map[string]*models.Teacher{
		"T1": {ID: "T1", Name: "Asha Rao"},
		"T2": {ID: "T2", Name: "Vikram Iyer"},
	}
	rooms := map[string]*models.Classroom{
		"R1": {ID: "R1", Name: "Room 101"},
	}
	return schedule, teachers, rooms
}

func TestScheduleDataset(t *testing.T) {
	schedule, teachers, rooms := sampleSchedule()
	dataset := ScheduleDataset(schedule, teachers, rooms)

	assert.Equal(t, []string{"Day", "Start", "End", "Course", "Type", "Group", "Teacher", "Room"}, dataset.Headers)
	require.Len(t, dataset.Rows, 2)

	// Sorted by day: Monday theory first.
	monday := dataset.Rows[0]
	assert.Equal(t, "MONDAY", monday[0])
	assert.Equal(t, "09:00", monday[1])
	assert.Equal(t, "10:00", monday[2])
	assert.Equal(t, "D1", monday[5])
	assert.Equal(t, "Asha Rao", monday[6], "teacher id resolves to display name")
	assert.Equal(t, "Room 101", monday[7])

	tuesday := dataset.Rows[1]
	assert.Equal(t, "12:00", tuesday[2], "end follows the session duration, not the slot")
	assert.Equal(t, "D1/B1", tuesday[5])
	assert.Equal(t, "LAB1", tuesday[7], "unknown room falls back to the id")
}

func TestWriteCSV(t *testing.T) {
	schedule, teachers, rooms := sampleSchedule()
	dataset := ScheduleDataset(schedule, teachers, rooms)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, dataset))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,End,Course,Type,Group,Teacher,Room", lines[0])
	assert.Contains(t, lines[1], "MONDAY")
}

func TestWriteCSVRequiresHeaders(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteCSV(&buf, Dataset{}))
}

func TestRenderPDF(t *testing.T) {
	schedule, teachers, rooms := sampleSchedule()
	dataset := ScheduleDataset(schedule, teachers, rooms)

	doc, err := RenderPDF(dataset, "Weekly Timetable")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))

	_, err = RenderPDF(Dataset{}, "")
	assert.Error(t, err)
}
