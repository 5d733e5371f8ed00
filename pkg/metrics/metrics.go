// Package metrics exposes Prometheus instrumentation for solve runs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder registers solver collectors on a private registry so embedding
// applications can mount the handler wherever they expose telemetry.
type Recorder struct {
	registry *prometheus.Registry
	handler  http.Handler

	solveDuration     *prometheus.HistogramVec
	solveTotal        *prometheus.CounterVec
	sessionsScheduled *prometheus.CounterVec
	sessionsDropped   *prometheus.CounterVec
	conflictsGauge    prometheus.Gauge
}

// NewRecorder registers the solver collectors.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Wall-clock duration of solve runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"algorithm", "success"})

	solveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_solves_total",
		Help: "Total number of solve runs",
	}, []string{"algorithm", "success"})

	sessionsScheduled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_sessions_scheduled_total",
		Help: "Sessions placed by completed solves",
	}, []string{"algorithm"})

	sessionsDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_sessions_dropped_total",
		Help: "Sessions left unscheduled by completed solves",
	}, []string{"algorithm"})

	conflictsGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_last_solve_conflicts",
		Help: "Conflicts remaining after the most recent solve",
	})

	registry.MustRegister(solveDuration, solveTotal, sessionsScheduled, sessionsDropped, conflictsGauge)

	return &Recorder{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		solveDuration:     solveDuration,
		solveTotal:        solveTotal,
		sessionsScheduled: sessionsScheduled,
		sessionsDropped:   sessionsDropped,
		conflictsGauge:    conflictsGauge,
	}
}

// ObserveSolve records one finished solve run.
func (r *Recorder) ObserveSolve(algorithm string, success bool, duration time.Duration, scheduled, total, conflicts int) {
	labels := prometheus.Labels{"algorithm": algorithm, "success": strconv.FormatBool(success)}
	r.solveDuration.With(labels).Observe(duration.Seconds())
	r.solveTotal.With(labels).Inc()
	r.sessionsScheduled.With(prometheus.Labels{"algorithm": algorithm}).Add(float64(scheduled))
	r.sessionsDropped.With(prometheus.Labels{"algorithm": algorithm}).Add(float64(total - scheduled))
	r.conflictsGauge.Set(float64(conflicts))
}

// Handler serves the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return r.handler
}

// Registry exposes the underlying registry for additional collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
