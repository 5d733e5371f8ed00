package models

import "strings"

// RoomType classifies classrooms for feature matching.
type RoomType string

const (
	RoomLectureHall RoomType = "LECTURE_HALL"
	RoomLab         RoomType = "LAB"
	RoomClassroom   RoomType = "CLASSROOM"
	RoomSeminar     RoomType = "SEMINAR"
)

// FeatureComputers is the lab-requirement relaxation: a non-lab room carrying
// computers may host a practical session.
const FeatureComputers = "COMPUTERS"

// Classroom is a read-only input to a solve.
type Classroom struct {
	ID       string
	Name     string
	Capacity int
	Type     RoomType
	Features []string

	Availability map[Weekday]DayWindow
}

// HasFeature matches case-insensitively.
func (c *Classroom) HasFeature(feature string) bool {
	for _, f := range c.Features {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}

// IsLab reports whether the room satisfies a lab requirement, including the
// computers relaxation.
func (c *Classroom) IsLab() bool {
	return c.Type == RoomLab || c.HasFeature(FeatureComputers)
}

// AvailableFor reports whether the room's declared window covers the slot.
func (c *Classroom) AvailableFor(day Weekday, window TimeRange) bool {
	dw, ok := c.Availability[day]
	if !ok || !dw.Available {
		return false
	}
	return dw.Window.Contains(window)
}

// Normalize fills optional fields so solvers never special-case shape.
func (c *Classroom) Normalize() {
	if c.Availability == nil {
		c.Availability = map[Weekday]DayWindow{}
	}
	if c.Type == "" {
		c.Type = RoomClassroom
	}
}
