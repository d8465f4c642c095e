package delivery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"adherence-notify/internal/domain/entity"
)

var (
	deviceSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_device_sends_total",
			Help: "Total number of push sends attempted per device",
		},
		[]string{"platform", "status"}, // status: success|invalid_token|failure
	)

	outcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_outcomes_total",
			Help: "Total number of processed messages by notification type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

// RecordDeviceSend records one device send attempt.
func RecordDeviceSend(platform entity.Platform, status string) {
	deviceSendsTotal.WithLabelValues(string(platform), status).Inc()
}

// RecordOutcome records the result of one Process call.
func RecordOutcome(typ entity.NotificationType, outcome entity.DeliveryOutcome) {
	outcomesTotal.WithLabelValues(string(typ), string(outcome)).Inc()
}
