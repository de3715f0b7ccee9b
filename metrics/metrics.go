// Package metrics counts admin action outcomes with Prometheus collectors.
//
// The CLI is short-lived, so the registry is written to a node_exporter
// textfile rather than served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the action collectors on a private registry.
type Recorder struct {
	registry *prometheus.Registry
	actions  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewRecorder creates and registers the collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendeeadmin_actions_total",
				Help: "Admin actions by action name and outcome status",
			},
			[]string{"action", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attendeeadmin_action_duration_seconds",
				Help:    "Time from confirmation prompt to settled outcome",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"action"},
		),
	}
	r.registry.MustRegister(r.actions, r.latency)
	return r
}

// ObserveAction implements action.Observer.
func (r *Recorder) ObserveAction(action, status string, elapsed time.Duration) {
	r.actions.WithLabelValues(action, status).Inc()
	r.latency.WithLabelValues(action).Observe(elapsed.Seconds())
}

// Registry exposes the registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current values in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
