// Package fixtures provides reusable test data for the notification pipeline:
// messages with realistic texts, device targets and member preferences.
package fixtures

import (
	"fmt"

	"adherence-notify/internal/domain/entity"
)

// texts holds a representative title and body per notification type.
var texts = map[entity.NotificationType][2]string{
	entity.NotificationSevereSideEffect:                 {"Severe side effect reported", "A severe side effect was recorded. Please contact your care team."},
	entity.NotificationMedicalConsultation:              {"Consultation recommended", "Please consult your doctor about your recent symptoms."},
	entity.NotificationSideEffectReminder:               {"Record your side effects", "Don't forget to record how you feel today."},
	entity.NotificationMissedMedication:                 {"Missed medication", "You have missed 2 doses. Please take your medication."},
	entity.NotificationMedicationReminder:               {"Time for your medication", "It's time to take Metformin."},
	entity.NotificationAchievementConsecutiveMedication: {"7 days in a row!", "You took your medication 7 days in a row."},
	entity.NotificationAchievementConsecutiveDiary:      {"Diary streak: 5 days", "You wrote your diary 5 days in a row."},
	entity.NotificationDiaryReminder:                    {"Diary time", "How was your day? Write today's diary."},
	entity.NotificationNegativeMoodAlert:                {"We are here for you", "Your mood has been low for 3 days."},
	entity.NotificationGeneral:                          {"Notice", "This is a general notice."},
}

// Message builds a valid message of type typ for memberID. The data map
// carries the type, as the notify façade does.
//
// Example:
//
//	msg := fixtures.Message(7, entity.NotificationDiaryReminder)
func Message(memberID int64, typ entity.NotificationType) entity.NotificationMessage {
	t, ok := texts[typ]
	if !ok {
		t = texts[entity.NotificationGeneral]
	}
	return entity.NewNotificationMessage(memberID, t[0], t[1], map[string]string{"type": string(typ)}, typ)
}

// ExhaustedMessage builds a message whose retry count is one above
// maxRetries, i.e. one that belongs on the dead-letter stream.
func ExhaustedMessage(memberID int64, typ entity.NotificationType, maxRetries int) entity.NotificationMessage {
	msg := Message(memberID, typ)
	msg.RetryCount = maxRetries + 1
	return msg
}

// DeviceToken returns a deterministic token shaped like an FCM registration
// token, long enough to be masked in logs.
func DeviceToken(memberID int64, n int) string {
	return fmt.Sprintf("fcm:APA91b-member%06d-device%02d-x7Qk2v", memberID, n)
}

// Devices returns n active devices for memberID, alternating Android and iOS.
//
// Example:
//
//	targets := fixtures.Devices(7, 3)
//	// targets[0].Token == fixtures.DeviceToken(7, 0)
func Devices(memberID int64, n int) []*entity.DeviceTarget {
	out := make([]*entity.DeviceTarget, 0, n)
	for i := range n {
		platform := entity.PlatformAndroid
		if i%2 == 1 {
			platform = entity.PlatformIOS
		}
		out = append(out, &entity.DeviceTarget{
			ID:         memberID*100 + int64(i),
			MemberID:   memberID,
			Token:      DeviceToken(memberID, i),
			Platform:   platform,
			DeviceName: fmt.Sprintf("%s device %d", platform, i),
			Active:     true,
		})
	}
	return out
}

// PreferencesOption adjusts fixture preferences.
type PreferencesOption func(*entity.Preferences)

// PushDisabled turns push off.
func PushDisabled() PreferencesOption {
	return func(p *entity.Preferences) { p.PushEnabled = false }
}

// QuietHours enables the quiet window [start, end).
func QuietHours(start, end entity.ClockTime) PreferencesOption {
	return func(p *entity.Preferences) {
		p.QuietHoursEnabled = true
		p.QuietHoursStart = start
		p.QuietHoursEnd = end
	}
}

// DiaryReminderAt enables the daily diary reminder.
func DiaryReminderAt(at entity.ClockTime) PreferencesOption {
	return func(p *entity.Preferences) {
		p.DiaryReminderEnabled = true
		p.DiaryReminderTime = at
	}
}

// Preferences returns the defaults for memberID with opts applied.
func Preferences(memberID int64, opts ...PreferencesOption) *entity.Preferences {
	p := entity.DefaultPreferences(memberID)
	for _, opt := range opts {
		opt(&p)
	}
	return &p
}
