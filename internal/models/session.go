package models

import (
	"fmt"
	"strings"
)

// Session is one schedulable weekly occurrence of a course component.
// Sessions are derived fresh per solve and never mutated afterwards.
type Session struct {
	ID         string
	CourseID   string
	Course     *Course
	Type       SessionType
	Occurrence int

	DivisionID string
	BatchID    string

	Duration         int // minutes
	TeacherIDs       []string
	RequiredFeatures []string
	RequiresLab      bool
	MinCapacity      int

	Priority TeacherPriority
}

// CohortKey identifies the student group attending this session, refined by
// division and batch when present.
func (s *Session) CohortKey() string {
	key := s.Course.CohortKey()
	if s.DivisionID != "" {
		key += "|" + s.DivisionID
	}
	if s.BatchID != "" {
		key += "|" + s.BatchID
	}
	return key
}

// SameCohort reports whether two sessions draw from overlapping student
// groups. A division-level session overlaps every batch under it. The prefix
// comparison is segment-wise so division D1 never matches D11.
func (s *Session) SameCohort(other *Session) bool {
	a, b := s.CohortKey(), other.CohortKey()
	if a == b {
		return true
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	return strings.HasPrefix(b, a+"|")
}

// ConstraintCount is the ordering heuristic for priority sorting: sessions
// with more requirements are harder to place.
func (s *Session) ConstraintCount() int {
	count := len(s.RequiredFeatures)
	if s.RequiresLab {
		count += 2
	}
	if s.MinCapacity > 0 {
		count++
	}
	if len(s.TeacherIDs) == 1 {
		count++
	}
	return count
}

func (s *Session) String() string {
	return fmt.Sprintf("%s/%s#%d", s.CourseID, s.Type, s.Occurrence)
}
