package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"adherence-notify/internal/domain/entity"
)

var (
	messagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_published_total",
			Help: "Total number of messages appended to the main stream",
		},
		[]string{"kind"}, // kind: new|retry
	)

	publishFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_publish_failed_total",
			Help: "Total number of messages that could not be appended",
		},
		[]string{"stream", "reason"},
	)

	messagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_processed_total",
			Help: "Total number of messages processed to completion",
		},
		[]string{"outcome"},
	)

	messagesFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_failed_total",
			Help: "Total number of entries whose processing failed",
		},
		[]string{"reason"}, // reason: missing_payload|deserialize|delivery
	)

	messagesDeadLetteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_dead_lettered_total",
			Help: "Total number of messages moved to the dead-letter stream",
		},
		[]string{"type"},
	)

	deadLettersLostTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_dead_letters_lost_total",
			Help: "Total number of exhausted messages that could not be written to the dead-letter stream",
		},
	)

	entriesReclaimedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_entries_reclaimed_total",
			Help: "Total number of stale pending entries claimed for reprocessing",
		},
	)

	ackFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_ack_failures_total",
			Help: "Total number of failed acknowledgements",
		},
	)

	readErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_read_errors_total",
			Help: "Total number of failed consumer-group reads",
		},
	)

	deadLettersReplayedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_dead_letters_replayed_total",
			Help: "Total number of dead letters republished by an operator",
		},
	)

	alertFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_dead_letter_alert_failures_total",
			Help: "Total number of dead-letter alerts that could not be dispatched",
		},
	)

	processingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queue_processing_duration_seconds",
			Help:    "Time to process a single stream entry including ack",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	tickEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queue_tick_entries",
			Help:    "Number of entries read per consumer tick",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	streamLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_stream_length",
			Help: "Entries physically present on a stream (acknowledged entries included)",
		},
		[]string{"stream"},
	)

	groupPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_group_pending",
			Help: "Entries delivered to the consumer group but not acknowledged",
		},
	)
)

// RecordPublished records a successful append to the main stream.
func RecordPublished(retry bool) {
	kind := "new"
	if retry {
		kind = "retry"
	}
	messagesPublishedTotal.WithLabelValues(kind).Inc()
}

// RecordPublishFailed records an append that did not happen.
func RecordPublishFailed(stream, reason string) {
	publishFailedTotal.WithLabelValues(stream, reason).Inc()
}

// RecordProcessed records a message that needs no further attempts.
func RecordProcessed(outcome entity.DeliveryOutcome) {
	messagesProcessedTotal.WithLabelValues(string(outcome)).Inc()
}

// RecordFailed records an entry whose processing failed.
func RecordFailed(reason string) {
	messagesFailedTotal.WithLabelValues(reason).Inc()
}

// RecordDeadLettered records a message moved to the dead-letter stream.
func RecordDeadLettered(typ entity.NotificationType) {
	messagesDeadLetteredTotal.WithLabelValues(string(typ)).Inc()
}

// RecordDeadLetterLost records an exhausted message whose dead-letter append
// failed.
func RecordDeadLetterLost() {
	deadLettersLostTotal.Inc()
}

// RecordReclaimed records stale pending entries claimed by a tick.
func RecordReclaimed(n int) {
	entriesReclaimedTotal.Add(float64(n))
}

// RecordReplayed records a dead letter republished to the main stream.
func RecordReplayed() {
	deadLettersReplayedTotal.Inc()
}

// RecordAckFailure records a failed XACK.
func RecordAckFailure() {
	ackFailuresTotal.Inc()
}

// RecordReadError records a failed consumer-group read.
func RecordReadError() {
	readErrorsTotal.Inc()
}

// RecordAlertFailure records a dead-letter alert that returned an error.
func RecordAlertFailure() {
	alertFailuresTotal.Inc()
}

// RecordProcessingDuration observes the time spent on one entry.
func RecordProcessingDuration(d time.Duration) {
	processingDuration.Observe(d.Seconds())
}

// RecordTick observes the number of entries read in one tick.
func RecordTick(entries int) {
	tickEntries.Observe(float64(entries))
}

// SetStats publishes stream statistics as gauges.
func SetStats(cfg Config, stats Stats) {
	streamLength.WithLabelValues(cfg.MainStream).Set(float64(stats.MainLength))
	streamLength.WithLabelValues(cfg.DeadLetterStream).Set(float64(stats.DeadLetterLength))
	groupPending.Set(float64(stats.Pending))
}
