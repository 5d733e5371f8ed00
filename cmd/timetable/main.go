package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/noah-isme/timetable-engine/internal/csvio"
	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/engine"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/pkg/config"
	"github.com/noah-isme/timetable-engine/pkg/export"
	"github.com/noah-isme/timetable-engine/pkg/logger"
	"github.com/noah-isme/timetable-engine/pkg/metrics"
)

func main() {
	teachersPath := flag.String("teachers", "data/teachers.csv", "teacher collection CSV")
	classroomsPath := flag.String("classrooms", "data/classrooms.csv", "classroom collection CSV")
	coursesPath := flag.String("courses", "data/courses.csv", "course collection CSV")
	settingsPath := flag.String("settings", "", "solver settings JSON (optional)")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus listen address when metrics are enabled")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	teachers, err := csvio.LoadTeachers(*teachersPath)
	if err != nil {
		logr.Sugar().Fatalw("failed to load teachers", "error", err)
	}
	classrooms, err := csvio.LoadClassrooms(*classroomsPath)
	if err != nil {
		logr.Sugar().Fatalw("failed to load classrooms", "error", err)
	}
	courses, err := csvio.LoadCourses(*coursesPath)
	if err != nil {
		logr.Sugar().Fatalw("failed to load courses", "error", err)
	}

	settings, err := loadSettings(*settingsPath)
	if err != nil {
		logr.Sugar().Fatalw("failed to load settings", "error", err)
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
		go func() {
			logr.Sugar().Infow("metrics listening", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, recorder.Handler()); err != nil {
				logr.Sugar().Errorw("metrics server failed", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Solver.SolveTimeout)
	defer cancel()

	eng := engine.New(cfg, logr, recorder)
	result := eng.Solve(ctx, engine.Input{
		Teachers:   teachers,
		Classrooms: classrooms,
		Courses:    courses,
		Settings:   settings,
	}, func(percent float64, message string) {
		logr.Sugar().Debugw("solver progress", "percent", percent, "message", message)
	})

	if len(result.ValidationErrors) > 0 {
		for _, issue := range result.ValidationErrors {
			logr.Sugar().Errorw("validation issue", "issue", issue)
		}
		logr.Sugar().Fatalw("solve aborted", "reason", result.Reason)
	}

	logr.Sugar().Infow("solve complete",
		"run_id", result.RunID,
		"success", result.Success,
		"algorithm", result.Metrics.Algorithm,
		"scheduled", result.Metrics.ScheduledSessions,
		"dropped", result.Metrics.DroppedSessions,
		"conflicts", len(result.Conflicts),
	)
	for _, rec := range result.Recommendations {
		logr.Sugar().Infow("recommendation", "priority", rec.Priority, "message", rec.Message, "action", rec.Action)
	}

	if err := writeOutputs(cfg, result.Solution, teachers, classrooms); err != nil {
		logr.Sugar().Fatalw("failed to export timetable", "error", err)
	}
	logr.Sugar().Infow("timetable exported", "dir", cfg.Export.OutputDir, "format", cfg.Export.Format)

	if !result.Success {
		logr.Sugar().Warnw("timetable incomplete", "reason", result.Reason)
		os.Exit(1)
	}
}

// loadSettings reads per-run settings or falls back to a standard working
// week. Configured defaults fill the remaining zero fields inside the engine.
func loadSettings(path string) (dto.SolverSettings, error) {
	settings := dto.SolverSettings{
		WorkingDays: []models.Weekday{
			models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday,
		},
		StartTime:    "09:00",
		EndTime:      "17:00",
		SlotDuration: 60,
	}
	if path == "" {
		return settings, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return settings, err
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return settings, err
	}
	return settings, nil
}

func writeOutputs(cfg *config.Config, schedule models.Schedule, teachers []*models.Teacher, classrooms []*models.Classroom) error {
	if err := os.MkdirAll(cfg.Export.OutputDir, 0o755); err != nil {
		return err
	}

	teacherIndex := make(map[string]*models.Teacher, len(teachers))
	for _, t := range teachers {
		teacherIndex[t.ID] = t
	}
	roomIndex := make(map[string]*models.Classroom, len(classrooms))
	for _, c := range classrooms {
		roomIndex[c.ID] = c
	}
	dataset := export.ScheduleDataset(schedule, teacherIndex, roomIndex)

	if cfg.Export.Format == "csv" || cfg.Export.Format == "both" {
		f, err := os.Create(filepath.Join(cfg.Export.OutputDir, "timetable.csv"))
		if err != nil {
			return err
		}
		if err := export.WriteCSV(f, dataset); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	if cfg.Export.Format == "pdf" || cfg.Export.Format == "both" {
		doc, err := export.RenderPDF(dataset, "Weekly Timetable")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(cfg.Export.OutputDir, "timetable.pdf"), doc, 0o644); err != nil {
			return err
		}
	}
	return nil
}
