package push

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_provider_sends_total",
			Help: "Total number of provider send calls",
		},
		[]string{"provider", "status"}, // status: success|invalid_token|error
	)

	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "push_provider_send_duration_seconds",
			Help:    "Provider send latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	breakerRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_provider_breaker_rejections_total",
			Help: "Sends rejected while the push provider circuit breaker was open",
		},
	)
)

// RecordSend records one provider call.
func RecordSend(provider, status string, d time.Duration) {
	sendsTotal.WithLabelValues(provider, status).Inc()
	sendDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordBreakerRejection records a send the breaker refused.
func RecordBreakerRejection() {
	breakerRejectionsTotal.Inc()
}
