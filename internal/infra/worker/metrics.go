package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"adherence-notify/internal/pkg/config"
)

// WorkerMetrics holds process-level Prometheus metrics of the worker.
// Pipeline metrics (stream, delivery, alerts) live in their own packages.
//
// Metrics exported:
//   - worker_config_*: configuration loading (see config.ConfigMetrics)
//   - worker_start_timestamp: Unix time the worker finished starting
//   - worker_component_up{component}: 1 while a component is running
//   - worker_reminders_restored: diary reminders scheduled at startup
type WorkerMetrics struct {
	*config.ConfigMetrics

	StartTimestamp    prometheus.Gauge
	ComponentUp       *prometheus.GaugeVec
	RemindersRestored prometheus.Gauge
}

// NewWorkerMetrics creates and registers the worker metrics. Call once per
// process.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		StartTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_start_timestamp",
			Help: "Unix timestamp of the last worker start",
		}),

		ComponentUp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_component_up",
			Help: "1 while the worker component is running, 0 otherwise",
		}, []string{"component"}),

		RemindersRestored: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_reminders_restored",
			Help: "Number of diary reminders scheduled at startup",
		}),
	}
}

// RecordStart sets the start timestamp to now.
func (m *WorkerMetrics) RecordStart() {
	m.StartTimestamp.SetToCurrentTime()
}

// SetComponentUp marks component as running or stopped.
func (m *WorkerMetrics) SetComponentUp(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.ComponentUp.WithLabelValues(component).Set(v)
}

// RecordRemindersRestored records how many reminders Restore scheduled.
func (m *WorkerMetrics) RecordRemindersRestored(n int) {
	m.RemindersRestored.Set(float64(n))
}
