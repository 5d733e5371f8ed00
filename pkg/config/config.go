package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Log     LogConfig
	Solver  SolverConfig
	Genetic GeneticConfig
	Anneal  AnnealConfig
	Metrics MetricsConfig
	Export  ExportConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig carries defaults shared by every strategy. Per-request
// settings override these values.
type SolverConfig struct {
	Algorithm        string
	MaxBacktracks    int
	MaxIterations    int
	ProgressInterval int
	Seed             int64
	SolveTimeout     time.Duration
}

// GeneticConfig tunes the genetic algorithm strategy.
type GeneticConfig struct {
	PopulationSize    int
	MaxGenerations    int
	MutationRate      float64
	CrossoverRate     float64
	TournamentSize    int
	EliteCount        int
	ConvergenceWindow int
}

// AnnealConfig tunes the simulated annealing strategy.
type AnnealConfig struct {
	InitialTemperature float64
	CoolingRate        float64
	IterationsPerTemp  int
	MinTemperature     float64
}

// MetricsConfig toggles Prometheus instrumentation of solve runs.
type MetricsConfig struct {
	Enabled bool
}

// ExportConfig controls timetable export output.
type ExportConfig struct {
	OutputDir string
	Format    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		Algorithm:        v.GetString("SOLVER_ALGORITHM"),
		MaxBacktracks:    v.GetInt("SOLVER_MAX_BACKTRACKS"),
		MaxIterations:    v.GetInt("SOLVER_MAX_ITERATIONS"),
		ProgressInterval: v.GetInt("SOLVER_PROGRESS_INTERVAL"),
		Seed:             v.GetInt64("SOLVER_SEED"),
		SolveTimeout:     parseDuration(v.GetString("SOLVER_TIMEOUT"), 5*time.Minute),
	}

	cfg.Genetic = GeneticConfig{
		PopulationSize:    v.GetInt("GA_POPULATION_SIZE"),
		MaxGenerations:    v.GetInt("GA_MAX_GENERATIONS"),
		MutationRate:      v.GetFloat64("GA_MUTATION_RATE"),
		CrossoverRate:     v.GetFloat64("GA_CROSSOVER_RATE"),
		TournamentSize:    v.GetInt("GA_TOURNAMENT_SIZE"),
		EliteCount:        v.GetInt("GA_ELITE_COUNT"),
		ConvergenceWindow: v.GetInt("GA_CONVERGENCE_WINDOW"),
	}

	cfg.Anneal = AnnealConfig{
		InitialTemperature: v.GetFloat64("SA_INITIAL_TEMPERATURE"),
		CoolingRate:        v.GetFloat64("SA_COOLING_RATE"),
		IterationsPerTemp:  v.GetInt("SA_ITERATIONS_PER_TEMP"),
		MinTemperature:     v.GetFloat64("SA_MIN_TEMPERATURE"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
	}

	cfg.Export = ExportConfig{
		OutputDir: v.GetString("EXPORT_OUTPUT_DIR"),
		Format:    v.GetString("EXPORT_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_ALGORITHM", "hybrid")
	v.SetDefault("SOLVER_MAX_BACKTRACKS", 10000)
	v.SetDefault("SOLVER_MAX_ITERATIONS", 10000)
	v.SetDefault("SOLVER_PROGRESS_INTERVAL", 100)
	v.SetDefault("SOLVER_SEED", 0)
	v.SetDefault("SOLVER_TIMEOUT", "5m")

	v.SetDefault("GA_POPULATION_SIZE", 50)
	v.SetDefault("GA_MAX_GENERATIONS", 200)
	v.SetDefault("GA_MUTATION_RATE", 0.15)
	v.SetDefault("GA_CROSSOVER_RATE", 0.8)
	v.SetDefault("GA_TOURNAMENT_SIZE", 3)
	v.SetDefault("GA_ELITE_COUNT", 2)
	v.SetDefault("GA_CONVERGENCE_WINDOW", 30)

	v.SetDefault("SA_INITIAL_TEMPERATURE", 1000.0)
	v.SetDefault("SA_COOLING_RATE", 0.995)
	v.SetDefault("SA_ITERATIONS_PER_TEMP", 10)
	v.SetDefault("SA_MIN_TEMPERATURE", 0.01)

	v.SetDefault("ENABLE_METRICS", false)

	v.SetDefault("EXPORT_OUTPUT_DIR", "out")
	v.SetDefault("EXPORT_FORMAT", "csv")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
