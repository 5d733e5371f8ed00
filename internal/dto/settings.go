package dto

import (
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/pkg/config"
)

// Strategy names accepted by the engine registry.
const (
	AlgorithmGreedy       = "greedy"
	AlgorithmBacktracking = "backtracking"
	AlgorithmCSP          = "csp"
	AlgorithmGenetic      = "genetic"
	AlgorithmAnnealing    = "simulated_annealing"
	AlgorithmHybrid       = "hybrid"
)

// SolverSettings is the per-solve tuning payload. Zero values fall back to
// configured defaults via ApplyDefaults.
type SolverSettings struct {
	Algorithm string `json:"algorithm" validate:"omitempty,oneof=greedy backtracking csp genetic simulated_annealing hybrid"`

	WorkingDays  []models.Weekday `json:"workingDays" validate:"required,min=1"`
	StartTime    string           `json:"startTime" validate:"required"`
	EndTime      string           `json:"endTime" validate:"required"`
	SlotDuration int              `json:"slotDuration" validate:"required,min=15,max=240"`
	BreakSlots   []string         `json:"breakSlots" validate:"omitempty,dive,min=9"`

	// Backtracking / CSP
	MaxBacktracks      int  `json:"maxBacktracks" validate:"omitempty,min=1"`
	EnableArcCheck     bool `json:"enableArcConsistency"`
	PrioritizeSessions bool `json:"prioritizeSessions"`

	// Genetic algorithm
	PopulationSize    int     `json:"populationSize" validate:"omitempty,min=2,max=100"`
	MaxGenerations    int     `json:"maxGenerations" validate:"omitempty,min=1,max=300"`
	MutationRate      float64 `json:"mutationRate" validate:"omitempty,gt=0,lte=1"`
	CrossoverRate     float64 `json:"crossoverRate" validate:"omitempty,gt=0,lte=1"`
	TournamentSize    int     `json:"tournamentSize" validate:"omitempty,min=2"`
	EliteCount        int     `json:"eliteCount" validate:"omitempty,min=0"`
	ConvergenceWindow int     `json:"convergenceWindow" validate:"omitempty,min=1"`

	// Simulated annealing
	MaxIterations      int     `json:"maxIterations" validate:"omitempty,min=1"`
	InitialTemperature float64 `json:"initialTemperature" validate:"omitempty,gt=0"`
	MinTemperature     float64 `json:"minTemperature" validate:"omitempty,gt=0"`
	CoolingRate        float64 `json:"coolingRate" validate:"omitempty,gt=0,lt=1"`
	IterationsPerTemp  int     `json:"iterationsPerTemp" validate:"omitempty,min=1"`

	MaxConsecutiveHours int   `json:"maxConsecutiveHours" validate:"omitempty,min=1"`
	Seed                int64 `json:"seed"`
	ProgressInterval    int   `json:"progressInterval" validate:"omitempty,min=1"`

	OptimizationGoals []string `json:"optimizationGoals"`
}

// ApplyDefaults merges configured defaults into unset fields.
func (s *SolverSettings) ApplyDefaults(cfg *config.Config) {
	if s.Algorithm == "" {
		s.Algorithm = cfg.Solver.Algorithm
	}
	if s.MaxBacktracks <= 0 {
		s.MaxBacktracks = cfg.Solver.MaxBacktracks
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = cfg.Solver.MaxIterations
	}
	if s.ProgressInterval <= 0 {
		s.ProgressInterval = cfg.Solver.ProgressInterval
	}
	if s.Seed == 0 {
		s.Seed = cfg.Solver.Seed
	}
	if s.PopulationSize <= 0 {
		s.PopulationSize = cfg.Genetic.PopulationSize
	}
	if s.MaxGenerations <= 0 {
		s.MaxGenerations = cfg.Genetic.MaxGenerations
	}
	if s.MutationRate <= 0 {
		s.MutationRate = cfg.Genetic.MutationRate
	}
	if s.CrossoverRate <= 0 {
		s.CrossoverRate = cfg.Genetic.CrossoverRate
	}
	if s.TournamentSize <= 0 {
		s.TournamentSize = cfg.Genetic.TournamentSize
	}
	if s.EliteCount <= 0 {
		s.EliteCount = cfg.Genetic.EliteCount
	}
	if s.ConvergenceWindow <= 0 {
		s.ConvergenceWindow = cfg.Genetic.ConvergenceWindow
	}
	if s.InitialTemperature <= 0 {
		s.InitialTemperature = cfg.Anneal.InitialTemperature
	}
	if s.MinTemperature <= 0 {
		s.MinTemperature = cfg.Anneal.MinTemperature
	}
	if s.CoolingRate <= 0 {
		s.CoolingRate = cfg.Anneal.CoolingRate
	}
	if s.IterationsPerTemp <= 0 {
		s.IterationsPerTemp = cfg.Anneal.IterationsPerTemp
	}
	if s.MaxConsecutiveHours <= 0 {
		s.MaxConsecutiveHours = 3
	}
}
