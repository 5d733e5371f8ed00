package dto

import (
	"time"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// ConflictType classifies a pairwise violation between two entries.
type ConflictType string

const (
	ConflictTeacher      ConflictType = "TEACHER"
	ConflictRoom         ConflictType = "ROOM"
	ConflictStudentGroup ConflictType = "STUDENT_GROUP"
)

// Conflict is a detected pairwise violation, carrying the offending entry
// indices into the returned schedule.
type Conflict struct {
	Type        ConflictType `json:"type"`
	Message     string       `json:"message"`
	FirstIndex  int          `json:"firstIndex"`
	SecondIndex int          `json:"secondIndex"`
}

// Recommendation is a textual post-processing hint keyed off metric
// thresholds.
type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// SolverMetrics carries per-run counters. Strategy-specific fields stay zero
// for strategies that do not use them.
type SolverMetrics struct {
	Algorithm         string        `json:"algorithm"`
	Duration          time.Duration `json:"duration"`
	TotalSessions     int           `json:"totalSessions"`
	ScheduledSessions int           `json:"scheduledSessions"`
	DroppedSessions   int           `json:"droppedSessions"`

	Backtracks  int     `json:"backtracks,omitempty"`
	Generations int     `json:"generations,omitempty"`
	Iterations  int     `json:"iterations,omitempty"`
	BestFitness float64 `json:"bestFitness,omitempty"`
	FinalEnergy float64 `json:"finalEnergy,omitempty"`

	// FitnessTrace records the best fitness after each generation;
	// EnergyTrace records the best energy after each cooling step.
	FitnessTrace []float64 `json:"fitnessTrace,omitempty"`
	EnergyTrace  []float64 `json:"energyTrace,omitempty"`
}

// QualityMetrics aggregates post-processing quality scores in percent.
type QualityMetrics struct {
	ConstraintCompliance float64 `json:"constraintCompliance"`
	RoomUtilization      float64 `json:"roomUtilization"`
	ScheduleBalance      float64 `json:"scheduleBalance"`
	TeacherSatisfaction  float64 `json:"teacherSatisfaction"`
	StudentSatisfaction  float64 `json:"studentSatisfaction"`
}

// SolveResult is the engine's boundary output. ErrorCode is set on failed
// runs so API callers can map failures without parsing Reason.
type SolveResult struct {
	RunID     string `json:"runId"`
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`

	Solution         models.Schedule  `json:"solution,omitempty"`
	Metrics          SolverMetrics    `json:"metrics"`
	Quality          QualityMetrics   `json:"quality"`
	Conflicts        []Conflict       `json:"conflicts,omitempty"`
	Recommendations  []Recommendation `json:"recommendations,omitempty"`
	ValidationErrors []string         `json:"validationErrors,omitempty"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}
