package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adherence-notify/internal/domain/entity"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []entity.NotificationMessage
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, msg entity.NotificationMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	if f.err != nil {
		return "", f.err
	}
	return "1-0", nil
}

type fakeProcessor struct {
	msgs []entity.NotificationMessage
	err  error
}

func (f *fakeProcessor) Process(_ context.Context, msg entity.NotificationMessage) (entity.DeliveryOutcome, error) {
	f.msgs = append(f.msgs, msg)
	if f.err != nil {
		return entity.OutcomeFailed, f.err
	}
	return entity.OutcomeDelivered, nil
}

func newTestService(enabled bool, pub Publisher, proc Processor) *Service {
	return NewService(Config{QueueEnabled: enabled}, pub, proc, nil, slog.New(slog.DiscardHandler))
}

func TestSendPushNotification_QueuedWhenEnabled(t *testing.T) {
	pub := &fakePublisher{}
	proc := &fakeProcessor{}
	svc := newTestService(true, pub, proc)
	before := testutil.ToFloat64(notifyRequestsTotal.WithLabelValues("GENERAL", pathQueued))

	svc.SendPushNotification(context.Background(), 7, "hello", "world", map[string]string{"k": "v"}, entity.NotificationGeneral)

	require.Len(t, pub.msgs, 1)
	assert.Empty(t, proc.msgs)
	msg := pub.msgs[0]
	assert.NotEmpty(t, msg.MessageID)
	assert.Equal(t, int64(7), msg.MemberID)
	assert.Equal(t, "hello", msg.Title)
	assert.Equal(t, "world", msg.Body)
	assert.Equal(t, "v", msg.Data["k"])
	assert.Zero(t, msg.RetryCount)
	assert.Equal(t, before+1, testutil.ToFloat64(notifyRequestsTotal.WithLabelValues("GENERAL", pathQueued)))
}

func TestSendPushNotification_DirectWhenDisabled(t *testing.T) {
	pub := &fakePublisher{}
	proc := &fakeProcessor{}
	svc := newTestService(false, pub, proc)

	svc.SendPushNotification(context.Background(), 7, "t", "b", nil, entity.NotificationGeneral)

	assert.Empty(t, pub.msgs)
	require.Len(t, proc.msgs, 1)
	assert.Equal(t, int64(7), proc.msgs[0].MemberID)
}

func TestSendPushNotification_DirectWhenNoPublisher(t *testing.T) {
	proc := &fakeProcessor{}
	svc := newTestService(true, nil, proc)

	svc.SendPushNotification(context.Background(), 7, "t", "b", nil, entity.NotificationGeneral)

	assert.Len(t, proc.msgs, 1)
}

func TestSendPushNotification_ErrorsAreSwallowed(t *testing.T) {
	t.Run("publish error", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("redis down")}
		proc := &fakeProcessor{}
		svc := newTestService(true, pub, proc)
		before := testutil.ToFloat64(notifyRequestsTotal.WithLabelValues("GENERAL", pathFailed))

		assert.NotPanics(t, func() {
			svc.SendPushNotification(context.Background(), 7, "t", "b", nil, entity.NotificationGeneral)
		})
		assert.Len(t, pub.msgs, 1)
		assert.Empty(t, proc.msgs, "a failed enqueue does not fall back to direct delivery")
		assert.Equal(t, before+1, testutil.ToFloat64(notifyRequestsTotal.WithLabelValues("GENERAL", pathFailed)))
	})

	t.Run("direct delivery error", func(t *testing.T) {
		proc := &fakeProcessor{err: entity.ErrDeliveryFailed}
		svc := newTestService(false, nil, proc)

		assert.NotPanics(t, func() {
			svc.SendPushNotification(context.Background(), 7, "t", "b", nil, entity.NotificationGeneral)
		})
		assert.Len(t, proc.msgs, 1)
	})

	t.Run("no delivery path", func(t *testing.T) {
		svc := newTestService(false, nil, nil)
		assert.NotPanics(t, func() {
			svc.SendPushNotification(context.Background(), 7, "t", "b", nil, entity.NotificationGeneral)
		})
	})
}

func TestVerbs(t *testing.T) {
	tests := []struct {
		name      string
		send      func(*Service)
		wantType  entity.NotificationType
		wantTitle string
		wantBody  string
		wantData  map[string]string
	}{
		{
			name:      "severe side effect",
			send:      func(s *Service) { s.SendSevereSideEffectAlert(context.Background(), 1, "두통", 5) },
			wantType:  entity.NotificationSevereSideEffect,
			wantTitle: "⚠️ 심각한 부작용 발생",
			wantBody:  "두통 (심각도: 5) 발생이 기록되었습니다. 의료진 상담을 권장합니다.",
			wantData:  map[string]string{"type": "SEVERE_SIDE_EFFECT", "sideEffectName": "두통", "degree": "5"},
		},
		{
			name:      "medical consultation",
			send:      func(s *Service) { s.SendMedicalConsultationReminder(context.Background(), 1) },
			wantType:  entity.NotificationMedicalConsultation,
			wantTitle: "🏥 의료진 상담 권유",
			wantBody:  "최근 심각한 부작용이 기록되었습니다. 담당 의료진과 상담하시기 바랍니다.",
			wantData:  map[string]string{"type": "MEDICAL_CONSULTATION"},
		},
		{
			name:      "missed medication",
			send:      func(s *Service) { s.SendMissedMedicationReminder(context.Background(), 1, 3) },
			wantType:  entity.NotificationMissedMedication,
			wantTitle: "💊 복약 알림",
			wantBody:  "오늘 3건의 복약이 완료되지 않았습니다.",
			wantData:  map[string]string{"type": "MISSED_MEDICATION", "missedCount": "3"},
		},
		{
			name:      "medication reminder",
			send:      func(s *Service) { s.SendMedicationReminder(context.Background(), 1, "타이레놀") },
			wantType:  entity.NotificationMedicationReminder,
			wantTitle: "💊 복약 시간",
			wantBody:  "타이레놀 복용 시간입니다.",
			wantData:  map[string]string{"type": "MEDICATION_REMINDER", "medicationName": "타이레놀"},
		},
		{
			name:      "consecutive medication",
			send:      func(s *Service) { s.SendConsecutiveMedicationAchievement(context.Background(), 1, 7) },
			wantType:  entity.NotificationAchievementConsecutiveMedication,
			wantTitle: "🎉 복약 달성!",
			wantBody:  "축하합니다! 7일 연속 복약을 달성하셨습니다.",
			wantData:  map[string]string{"type": "ACHIEVEMENT", "achievementType": "CONSECUTIVE_MEDICATION", "days": "7"},
		},
		{
			name:      "consecutive diary",
			send:      func(s *Service) { s.SendConsecutiveDiaryAchievement(context.Background(), 1, 5) },
			wantType:  entity.NotificationAchievementConsecutiveDiary,
			wantTitle: "🎉 일기 작성 달성!",
			wantBody:  "축하합니다! 5일 연속 일기 작성을 달성하셨습니다.",
			wantData:  map[string]string{"type": "ACHIEVEMENT", "achievementType": "CONSECUTIVE_DIARY", "days": "5"},
		},
		{
			name:      "side effect record reminder",
			send:      func(s *Service) { s.SendSideEffectRecordReminder(context.Background(), 1, "부작용 기록을 권장합니다.") },
			wantType:  entity.NotificationSideEffectReminder,
			wantTitle: "📝 부작용 기록 권유",
			wantBody:  "부작용 기록을 권장합니다.",
			wantData:  map[string]string{"type": "SIDE_EFFECT_REMINDER", "reason": "부작용 기록을 권장합니다."},
		},
		{
			name:      "diary reminder",
			send:      func(s *Service) { s.SendDiaryReminder(context.Background(), 1) },
			wantType:  entity.NotificationDiaryReminder,
			wantTitle: "📔 오늘의 마음 일기",
			wantBody:  "오늘 하루는 어땠나요? 마음 일기를 작성해보세요.",
			wantData:  map[string]string{"type": "DIARY_REMINDER"},
		},
		{
			name:      "negative mood",
			send:      func(s *Service) { s.SendNegativeMoodAlert(context.Background(), 1, 3) },
			wantType:  entity.NotificationNegativeMoodAlert,
			wantTitle: "💙 마음 건강 체크",
			wantBody:  "3일 연속 힘든 하루가 이어지고 있네요. 부작용으로 인한 것은 아닌지 확인해보세요.",
			wantData:  map[string]string{"type": "NEGATIVE_MOOD_ALERT", "consecutiveDays": "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			svc := newTestService(true, pub, nil)

			tt.send(svc)

			require.Len(t, pub.msgs, 1)
			msg := pub.msgs[0]
			assert.Equal(t, tt.wantType, msg.NotificationType)
			assert.Equal(t, tt.wantTitle, msg.Title)
			assert.Equal(t, tt.wantBody, msg.Body)
			assert.Equal(t, tt.wantData, msg.Data)
		})
	}
}
