package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remindersScheduled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reminder_scheduled_entries",
		Help: "Number of reminder entries currently scheduled",
	})

	remindersFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_fired_total",
			Help: "Total number of reminders sent",
		},
		[]string{"kind"},
	)

	remindersSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_skipped_total",
			Help: "Total number of reminders skipped because the member disabled them",
		},
		[]string{"kind"},
	)
)

func setScheduled(n int)        { remindersScheduled.Set(float64(n)) }
func recordFired(kind string)   { remindersFiredTotal.WithLabelValues(kind).Inc() }
func recordSkipped(kind string) { remindersSkippedTotal.WithLabelValues(kind).Inc() }
