package models

import "fmt"

// SessionType distinguishes the weekly components of a course.
type SessionType string

const (
	Theory    SessionType = "THEORY"
	Practical SessionType = "PRACTICAL"
	Tutorial  SessionType = "TUTORIAL"
)

// SessionTypes lists component types in extraction order.
var SessionTypes = []SessionType{Theory, Practical, Tutorial}

// SessionSpec describes one component of a course: how many weekly sessions
// it needs and what a hosting room must provide.
type SessionSpec struct {
	Type             SessionType
	Duration         int // minutes
	PerWeek          int
	RequiredFeatures []string
	MinCapacity      int
	RequiresLab      bool
}

// Batch is a sub-cohort of a division, e.g. one lab group.
type Batch struct {
	ID           string
	Name         string
	StudentCount int
}

// Division is a sub-cohort of a course's student body.
type Division struct {
	ID           string
	Name         string
	StudentCount int
	Batches      []Batch
}

// Course is a read-only input to a solve.
type Course struct {
	ID         string
	Code       string
	Name       string
	Program    string
	Year       int
	Semester   int
	Department string

	Specs     []SessionSpec
	Divisions []Division

	// TeachersByType lists assigned teacher IDs per session type.
	TeachersByType map[SessionType][]string

	Students   int
	IsElective bool
}

// CohortKey identifies the base student group taking this course.
func (c *Course) CohortKey() string {
	return fmt.Sprintf("%s|%d|%d", c.Program, c.Year, c.Semester)
}

// Normalize fills optional fields so solvers never special-case shape.
func (c *Course) Normalize() {
	if c.TeachersByType == nil {
		c.TeachersByType = map[SessionType][]string{}
	}
	for i := range c.Specs {
		if c.Specs[i].Duration <= 0 {
			c.Specs[i].Duration = 60
		}
	}
}
