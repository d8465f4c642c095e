// Package notify is the entry point business code uses to send push
// notifications. When the stream is enabled a message is enqueued for the
// consumer; otherwise it is delivered synchronously. Callers never see an
// error: failures are logged and counted.
package notify

import (
	"context"
	"log/slog"
	"strconv"

	"adherence-notify/internal/domain/entity"
)

// Publisher enqueues a message on the main stream. queue.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, msg entity.NotificationMessage) (string, error)
}

// Processor delivers a message synchronously. delivery.Processor implements it.
type Processor interface {
	Process(ctx context.Context, msg entity.NotificationMessage) (entity.DeliveryOutcome, error)
}

// Config controls the send path.
type Config struct {
	// QueueEnabled routes messages through the stream when a publisher is set.
	QueueEnabled bool
}

// Service sends push notifications for business events.
type Service struct {
	cfg       Config
	publisher Publisher
	processor Processor
	templates *Templates
	logger    *slog.Logger
}

// NewService creates the façade. publisher may be nil, in which case every
// message is delivered directly. A nil templates uses DefaultTemplates().
func NewService(cfg Config, publisher Publisher, processor Processor, templates *Templates, logger *slog.Logger) *Service {
	if templates == nil {
		templates = DefaultTemplates()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:       cfg,
		publisher: publisher,
		processor: processor,
		templates: templates,
		logger:    logger,
	}
}

func (s *Service) queueEnabled() bool {
	return s.cfg.QueueEnabled && s.publisher != nil
}

// SendPushNotification enqueues or directly delivers one notification.
func (s *Service) SendPushNotification(ctx context.Context, memberID int64, title, body string, data map[string]string, typ entity.NotificationType) {
	msg := entity.NewNotificationMessage(memberID, title, body, data, typ)
	logger := s.logger.With(
		slog.String("message_id", msg.MessageID),
		slog.Int64("member_id", memberID),
		slog.String("type", typ.String()))

	if s.queueEnabled() {
		entryID, err := s.publisher.Publish(ctx, msg)
		if err != nil {
			RecordRequest(typ, pathFailed)
			logger.Error("failed to enqueue notification", slog.Any("error", err))
			return
		}
		RecordRequest(typ, pathQueued)
		logger.Debug("notification queued", slog.String("entry_id", entryID))
		return
	}

	if s.processor == nil {
		RecordRequest(typ, pathFailed)
		logger.Error("no delivery path configured, dropping notification")
		return
	}
	outcome, err := s.processor.Process(ctx, msg)
	if err != nil {
		RecordRequest(typ, pathFailed)
		logger.Error("direct notification delivery failed", slog.Any("error", err))
		return
	}
	RecordRequest(typ, pathDirect)
	logger.Debug("notification sent directly", slog.String("outcome", string(outcome)))
}

func (s *Service) send(ctx context.Context, memberID int64, typ entity.NotificationType, params map[string]string) {
	title, body, data, err := s.templates.Render(typ, params)
	if err != nil {
		RecordRequest(typ, pathFailed)
		s.logger.Error("failed to render notification",
			slog.Int64("member_id", memberID),
			slog.String("type", typ.String()),
			slog.Any("error", err))
		return
	}
	s.SendPushNotification(ctx, memberID, title, body, data, typ)
}

// SendSevereSideEffectAlert reports a recorded side effect of the given degree.
func (s *Service) SendSevereSideEffectAlert(ctx context.Context, memberID int64, sideEffectName string, degree int) {
	s.send(ctx, memberID, entity.NotificationSevereSideEffect, map[string]string{
		"sideEffectName": sideEffectName,
		"degree":         strconv.Itoa(degree),
	})
}

// SendMedicalConsultationReminder suggests contacting a clinician.
func (s *Service) SendMedicalConsultationReminder(ctx context.Context, memberID int64) {
	s.send(ctx, memberID, entity.NotificationMedicalConsultation, nil)
}

// SendMissedMedicationReminder reports today's missed doses.
func (s *Service) SendMissedMedicationReminder(ctx context.Context, memberID int64, missedCount int) {
	s.send(ctx, memberID, entity.NotificationMissedMedication, map[string]string{
		"missedCount": strconv.Itoa(missedCount),
	})
}

// SendMedicationReminder reminds the member to take a medication now.
func (s *Service) SendMedicationReminder(ctx context.Context, memberID int64, medicationName string) {
	s.send(ctx, memberID, entity.NotificationMedicationReminder, map[string]string{
		"medicationName": medicationName,
	})
}

func (s *Service) SendConsecutiveMedicationAchievement(ctx context.Context, memberID int64, days int) {
	s.send(ctx, memberID, entity.NotificationAchievementConsecutiveMedication, map[string]string{
		"days": strconv.Itoa(days),
	})
}

func (s *Service) SendConsecutiveDiaryAchievement(ctx context.Context, memberID int64, days int) {
	s.send(ctx, memberID, entity.NotificationAchievementConsecutiveDiary, map[string]string{
		"days": strconv.Itoa(days),
	})
}

// SendSideEffectRecordReminder asks the member to record side effects; reason
// becomes the body.
func (s *Service) SendSideEffectRecordReminder(ctx context.Context, memberID int64, reason string) {
	s.send(ctx, memberID, entity.NotificationSideEffectReminder, map[string]string{
		"reason": reason,
	})
}

// SendDiaryReminder asks the member to write today's mood diary.
func (s *Service) SendDiaryReminder(ctx context.Context, memberID int64) {
	s.send(ctx, memberID, entity.NotificationDiaryReminder, nil)
}

// SendNegativeMoodAlert reports consecutive days of negative mood entries.
func (s *Service) SendNegativeMoodAlert(ctx context.Context, memberID int64, days int) {
	s.send(ctx, memberID, entity.NotificationNegativeMoodAlert, map[string]string{
		"consecutiveDays": strconv.Itoa(days),
	})
}
