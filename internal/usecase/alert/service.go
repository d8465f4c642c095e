package alert

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/infra/notifier"
	"adherence-notify/internal/observability/tracing"
)

// Circuit breaker constants
const (
	circuitBreakerThreshold = 5                // Number of consecutive failures before opening
	circuitBreakerTimeout   = 5 * time.Minute  // Duration to keep circuit breaker open
	workerPoolTimeout       = 5 * time.Second  // Timeout for acquiring worker slot
	alertTimeout            = 30 * time.Second // Timeout for individual alert
)

// Service dispatches dead-letter alerts to every enabled channel without
// blocking the consumer.
type Service interface {
	// NotifyDeadLetter dispatches an alert for msg in background goroutines
	// and returns immediately. It returns ErrNoChannels when nothing is enabled.
	NotifyDeadLetter(ctx context.Context, msg entity.NotificationMessage, errText string) error

	// GetChannelHealth returns the circuit breaker state of every channel.
	GetChannelHealth() []ChannelHealthStatus

	// Shutdown waits for in-flight alerts to complete or ctx to expire.
	Shutdown(ctx context.Context) error
}

// ChannelHealthStatus represents the health status of an alert channel.
type ChannelHealthStatus struct {
	Name               string     `json:"name"`
	Enabled            bool       `json:"enabled"`
	CircuitBreakerOpen bool       `json:"circuit_breaker_open"`
	DisabledUntil      *time.Time `json:"disabled_until,omitempty"`
}

type service struct {
	channels       []Channel
	workerPool     chan struct{}             // Semaphore for limiting concurrent alerts
	channelHealth  map[string]*channelHealth // Circuit breaker state per channel
	healthMu       sync.RWMutex
	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	logger         *slog.Logger
	now            func() time.Time
}

// channelHealth tracks circuit breaker state for a channel
type channelHealth struct {
	consecutiveFailures int
	disabledUntil       time.Time
	mu                  sync.Mutex
}

// NewService creates an alert service over channels. maxConcurrent bounds
// in-flight sends across all channels.
func NewService(channels []Channel, maxConcurrent int, logger *slog.Logger) Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	svc := &service{
		channels:       channels,
		workerPool:     make(chan struct{}, maxConcurrent),
		channelHealth:  make(map[string]*channelHealth),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
		logger:         logger,
		now:            time.Now,
	}

	enabled := 0
	for _, ch := range channels {
		svc.channelHealth[ch.Name()] = &channelHealth{}
		if ch.IsEnabled() {
			enabled++
		}
	}
	SetChannelsEnabled(float64(enabled))

	return svc
}

// NotifyDeadLetter implements Service.NotifyDeadLetter.
func (s *service) NotifyDeadLetter(ctx context.Context, msg entity.NotificationMessage, errText string) error {
	alert := notifier.NewDeadLetterAlert(msg, errText, s.now())

	var enabled []Channel
	for _, ch := range s.channels {
		if ch.IsEnabled() {
			enabled = append(enabled, ch)
		}
	}
	if len(enabled) == 0 {
		s.logger.Debug("no alert channels enabled", slog.String("message_id", msg.MessageID))
		return ErrNoChannels
	}

	s.logger.Info("dispatching dead-letter alert",
		slog.String("message_id", msg.MessageID),
		slog.Int64("member_id", msg.MemberID),
		slog.Int("enabled_channels", len(enabled)))

	for _, ch := range enabled {
		s.wg.Add(1)
		go s.notifyChannel(ch, alert)
	}
	return nil
}

// notifyChannel sends the alert to a single channel in a goroutine.
func (s *service) notifyChannel(channel Channel, alert notifier.DeadLetterAlert) {
	defer s.wg.Done()

	IncrementActiveGoroutines()
	defer DecrementActiveGoroutines()

	logger := s.logger.With(
		slog.String("channel", channel.Name()),
		slog.String("message_id", alert.MessageID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in alert channel",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-time.After(workerPoolTimeout):
		logger.Warn("alert dropped: worker pool full")
		RecordDropped(channel.Name(), "pool_full")
		return
	}

	health := s.getChannelHealth(channel.Name())
	health.mu.Lock()
	if s.now().Before(health.disabledUntil) {
		logger.Warn("channel temporarily disabled due to circuit breaker",
			slog.Time("disabled_until", health.disabledUntil))
		health.mu.Unlock()
		RecordDropped(channel.Name(), "circuit_open")
		return
	}
	health.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.shutdownCtx, alertTimeout)
	defer cancel()
	ctx, span := tracing.GetTracer().Start(ctx, "alert.Send")
	span.SetAttributes(
		attribute.String("alert.channel", channel.Name()),
		attribute.String("notification.message_id", alert.MessageID))
	defer span.End()

	startTime := time.Now()
	RecordDispatch(channel.Name())

	err := channel.Send(ctx, alert)
	duration := time.Since(startTime)

	health.mu.Lock()
	if err != nil {
		health.consecutiveFailures++
		if health.consecutiveFailures >= circuitBreakerThreshold {
			health.disabledUntil = s.now().Add(circuitBreakerTimeout)
			logger.Error("circuit breaker opened for channel",
				slog.Int("consecutive_failures", health.consecutiveFailures))
			RecordCircuitBreakerOpen(channel.Name())
		}
	} else {
		health.consecutiveFailures = 0
	}
	health.mu.Unlock()

	if err != nil {
		tracing.RecordError(span, err)
		RecordFailure(channel.Name(), duration)
		logger.Warn("alert channel failed",
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return
	}
	RecordSuccess(channel.Name(), duration)
	logger.Info("alert sent", slog.Duration("send_duration", duration))
}

func (s *service) getChannelHealth(channelName string) *channelHealth {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	return s.channelHealth[channelName]
}

// GetChannelHealth implements Service.GetChannelHealth.
func (s *service) GetChannelHealth() []ChannelHealthStatus {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()

	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	now := s.now()

	for _, ch := range s.channels {
		health := s.channelHealth[ch.Name()]

		health.mu.Lock()
		var disabledUntil *time.Time
		open := false
		if now.Before(health.disabledUntil) {
			open = true
			until := health.disabledUntil
			disabledUntil = &until
		}
		health.mu.Unlock()

		statuses = append(statuses, ChannelHealthStatus{
			Name:               ch.Name(),
			Enabled:            ch.IsEnabled(),
			CircuitBreakerOpen: open,
			DisabledUntil:      disabledUntil,
		})
	}

	return statuses
}

// Shutdown implements Service.Shutdown.
func (s *service) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down alert service")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.shutdownCancel()
		s.logger.Info("alert service shutdown complete")
		return nil
	case <-ctx.Done():
		// Abort in-flight sends.
		s.shutdownCancel()
		s.logger.Warn("alert service shutdown timeout")
		return ctx.Err()
	}
}
