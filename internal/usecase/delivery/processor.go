// Package delivery turns one notification message into push sends to every
// active device of its recipient, after applying the member's preferences.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/observability/logging"
	"adherence-notify/internal/observability/tracing"
	"adherence-notify/internal/repository"
)

// PushSender delivers one notification to one device token.
// A permanently rejected token is reported as entity.ErrInvalidToken.
type PushSender interface {
	Send(ctx context.Context, target entity.DeviceTarget, msg entity.NotificationMessage) error
}

const (
	defaultFanoutConcurrency = 4
	defaultMarkUsedTimeout   = 5 * time.Second
)

// Config tunes the processor.
type Config struct {
	// Location is used to evaluate quiet hours. Defaults to UTC.
	Location *time.Location
	// FanoutConcurrency bounds parallel device sends per message. 1 is sequential.
	FanoutConcurrency int
	// MarkUsedTimeout bounds each background last-used update.
	MarkUsedTimeout time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Processor implements the delivery step of the pipeline.
type Processor struct {
	prefs   repository.PreferencesRepository
	devices repository.DeviceTokenRepository
	sender  PushSender
	loc     *time.Location
	limit   int
	now     func() time.Time
	logger  *slog.Logger

	markTimeout time.Duration
	marks       sync.WaitGroup
}

// NewProcessor creates a processor. A nil logger uses slog.Default().
func NewProcessor(prefs repository.PreferencesRepository, devices repository.DeviceTokenRepository, sender PushSender, cfg Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.FanoutConcurrency <= 0 {
		cfg.FanoutConcurrency = defaultFanoutConcurrency
	}
	if cfg.MarkUsedTimeout <= 0 {
		cfg.MarkUsedTimeout = defaultMarkUsedTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Processor{
		prefs:       prefs,
		devices:     devices,
		sender:      sender,
		loc:         cfg.Location,
		limit:       cfg.FanoutConcurrency,
		now:         cfg.Now,
		logger:      logger,
		markTimeout: cfg.MarkUsedTimeout,
	}
}

// Drain waits for background last-used updates to finish or for ctx to
// expire.
func (p *Processor) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.marks.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Process delivers msg. It returns a nil error when the message needs no
// further attempts: delivered, suppressed by preferences, or no devices.
// A non-nil error wraps entity.ErrDeliveryFailed or the failing lookup and
// means the message should be retried.
func (p *Processor) Process(ctx context.Context, msg entity.NotificationMessage) (entity.DeliveryOutcome, error) {
	ctx, span := tracing.StartMessageSpan(ctx, "delivery.Process", msg)
	defer span.End()

	outcome, err := p.process(ctx, msg)
	span.SetAttributes(attribute.String("delivery.outcome", string(outcome)))
	tracing.RecordError(span, err)
	RecordOutcome(msg.NotificationType, outcome)
	return outcome, err
}

func (p *Processor) process(ctx context.Context, msg entity.NotificationMessage) (entity.DeliveryOutcome, error) {
	logger := logging.WithMessage(p.logger, msg)

	prefs, err := p.preferences(ctx, msg.MemberID)
	if err != nil {
		return entity.OutcomeFailed, err
	}
	if !prefs.PushEnabled {
		logger.Debug("push disabled by member, skipping")
		return entity.OutcomeSuppressedPushDisabled, nil
	}
	if prefs.InQuietHours(p.now().In(p.loc)) {
		logger.Debug("inside quiet hours, skipping",
			slog.String("quiet_start", prefs.QuietHoursStart.String()),
			slog.String("quiet_end", prefs.QuietHoursEnd.String()))
		return entity.OutcomeSuppressedQuietHours, nil
	}

	targets, err := p.devices.FindActiveByMember(ctx, msg.MemberID)
	if err != nil {
		return entity.OutcomeFailed, fmt.Errorf("find active devices for member %d: %w", msg.MemberID, err)
	}
	if len(targets) == 0 {
		logger.Debug("no active devices")
		return entity.OutcomeNoDevices, nil
	}

	if err := p.fanout(ctx, logger, msg, targets); err != nil {
		return entity.OutcomeFailed, err
	}
	return entity.OutcomeDelivered, nil
}

func (p *Processor) preferences(ctx context.Context, memberID int64) (entity.Preferences, error) {
	prefs, err := p.prefs.FindByMember(ctx, memberID)
	if err != nil {
		return entity.Preferences{}, fmt.Errorf("load preferences for member %d: %w", memberID, err)
	}
	if prefs == nil {
		return entity.DefaultPreferences(memberID), nil
	}
	return *prefs, nil
}

// fanout sends to every target. Each send is isolated: an error or panic on
// one device never stops the others.
func (p *Processor) fanout(ctx context.Context, logger *slog.Logger, msg entity.NotificationMessage, targets []*entity.DeviceTarget) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	var eg errgroup.Group
	eg.SetLimit(p.limit)

	for _, target := range targets {
		if target == nil {
			continue
		}
		eg.Go(func() error {
			if err := p.sendOne(ctx, logger, msg, *target); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d devices: %w", entity.ErrDeliveryFailed, len(errs), len(targets), errors.Join(errs...))
	}
	return nil
}

// sendOne returns an error only for retryable failures.
func (p *Processor) sendOne(ctx context.Context, logger *slog.Logger, msg entity.NotificationMessage, target entity.DeviceTarget) (err error) {
	logger = logger.With(
		slog.String("token", target.MaskedToken()),
		slog.String("platform", string(target.Platform)))

	defer func() {
		if r := recover(); r != nil {
			RecordDeviceSend(target.Platform, "failure")
			logger.Error("push send panicked", slog.Any("panic", r))
			err = fmt.Errorf("device %s: panic: %v", target.MaskedToken(), r)
		}
	}()

	sendErr := p.sender.Send(ctx, target, msg)
	switch {
	case sendErr == nil:
		RecordDeviceSend(target.Platform, "success")
		p.markUsed(ctx, logger, target.Token)
		return nil

	case errors.Is(sendErr, entity.ErrInvalidToken):
		RecordDeviceSend(target.Platform, "invalid_token")
		logger.Info("device token rejected by provider, deactivating", slog.Any("error", sendErr))
		if deErr := p.devices.Deactivate(ctx, target.Token); deErr != nil {
			logger.Warn("failed to deactivate device token", slog.Any("error", deErr))
		}
		return nil

	default:
		RecordDeviceSend(target.Platform, "failure")
		logger.Warn("push send failed", slog.Any("error", sendErr))
		return fmt.Errorf("device %s: %w", target.MaskedToken(), sendErr)
	}
}

// markUsed updates the token's last-used time in the background, outside the
// fan-out slot. The update survives cancellation of ctx and is bounded by
// MarkUsedTimeout.
func (p *Processor) markUsed(ctx context.Context, logger *slog.Logger, token string) {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.markTimeout)
	p.marks.Add(1)
	go func() {
		defer p.marks.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("mark device token used panicked", slog.Any("panic", r))
			}
		}()

		if err := p.devices.MarkUsed(markCtx, token); err != nil {
			logger.Warn("failed to mark device token used", slog.Any("error", err))
		}
	}()
}
