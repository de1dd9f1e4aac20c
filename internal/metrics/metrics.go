// Package metrics counts the outcome of a kvsync run in a private Prometheus
// registry that can be written out as a node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run status label values.
const (
	StatusSuccess   = "success"
	StatusFailure   = "failure"
	StatusCancelled = "cancelled"
)

// Recorder holds the counters for one run. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	pushed   prometheus.Counter
	pulled   prometheus.Counter
	skipped  prometheus.Counter
	failures *prometheus.CounterVec
	lastRun  *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		pushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kvsync_secrets_pushed_total",
			Help: "Total number of secrets written to the vault",
		}),
		pulled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kvsync_secrets_pulled_total",
			Help: "Total number of secrets written to the transfer file",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kvsync_secrets_skipped_total",
			Help: "Total number of fetched secrets dropped by the name pattern",
		}),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvsync_secret_failures_total",
				Help: "Total number of per-secret remote failures",
			},
			[]string{"direction"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kvsync_last_run_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
			[]string{"direction", "status"},
		),
	}
	r.registry.MustRegister(r.pushed, r.pulled, r.skipped, r.failures, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Pushed counts one secret set in the vault.
func (r *Recorder) Pushed() {
	if r != nil {
		r.pushed.Inc()
	}
}

// Pulled counts one secret kept for the transfer file.
func (r *Recorder) Pulled() {
	if r != nil {
		r.pulled.Inc()
	}
}

// Skipped counts one secret that did not match the name pattern.
func (r *Recorder) Skipped() {
	if r != nil {
		r.skipped.Inc()
	}
}

// Failed counts one per-secret remote failure.
func (r *Recorder) Failed(direction string) {
	if r != nil {
		r.failures.WithLabelValues(direction).Inc()
	}
}

// Finished stamps the end of a run.
func (r *Recorder) Finished(direction, status string, at time.Time) {
	if r != nil {
		r.lastRun.WithLabelValues(direction, status).Set(float64(at.Unix()))
	}
}

// WriteFile writes the registry in text exposition format. An empty path is a no-op.
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
