package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"adherence-notify/internal/domain/entity"
)

const (
	pathQueued = "queued"
	pathDirect = "direct"
	pathFailed = "failed"
)

var (
	// notifyRequestsTotal counts façade sends by notification type and path.
	notifyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_requests_total",
			Help: "Total number of notification send requests",
		},
		[]string{"type", "path"}, // path: queued|direct|failed
	)
)

// RecordRequest records one façade send.
func RecordRequest(typ entity.NotificationType, path string) {
	notifyRequestsTotal.WithLabelValues(typ.String(), path).Inc()
}
