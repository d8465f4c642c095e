// Package entity defines the notification pipeline's domain types: the
// notification message and its closed set of types, device targets, member
// preferences, stream records and delivery outcomes.
package entity

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a notification. The set is closed: payloads
// carrying any other value are rejected at decode time.
type NotificationType string

const (
	NotificationSevereSideEffect                 NotificationType = "SEVERE_SIDE_EFFECT"
	NotificationMedicalConsultation              NotificationType = "MEDICAL_CONSULTATION"
	NotificationSideEffectReminder               NotificationType = "SIDE_EFFECT_REMINDER"
	NotificationMissedMedication                 NotificationType = "MISSED_MEDICATION"
	NotificationMedicationReminder               NotificationType = "MEDICATION_REMINDER"
	NotificationAchievementConsecutiveMedication NotificationType = "ACHIEVEMENT_CONSECUTIVE_MEDICATION"
	NotificationAchievementConsecutiveDiary      NotificationType = "ACHIEVEMENT_CONSECUTIVE_DIARY"
	NotificationDiaryReminder                    NotificationType = "DIARY_REMINDER"
	NotificationNegativeMoodAlert                NotificationType = "NEGATIVE_MOOD_ALERT"
	NotificationGeneral                          NotificationType = "GENERAL"
)

var allNotificationTypes = []NotificationType{
	NotificationSevereSideEffect,
	NotificationMedicalConsultation,
	NotificationSideEffectReminder,
	NotificationMissedMedication,
	NotificationMedicationReminder,
	NotificationAchievementConsecutiveMedication,
	NotificationAchievementConsecutiveDiary,
	NotificationDiaryReminder,
	NotificationNegativeMoodAlert,
	NotificationGeneral,
}

// AllNotificationTypes returns every known notification type in declaration order.
func AllNotificationTypes() []NotificationType {
	out := make([]NotificationType, len(allNotificationTypes))
	copy(out, allNotificationTypes)
	return out
}

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	for _, known := range allNotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// String returns the wire representation of the type.
func (t NotificationType) String() string {
	return string(t)
}

// ParseNotificationType converts a wire string into a NotificationType.
func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(s)
	if !t.Valid() {
		return "", &ValidationError{Field: "notificationType", Message: fmt.Sprintf("unknown type %q", s)}
	}
	return t, nil
}

// UnmarshalJSON rejects values outside the closed set.
func (t *NotificationType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseNotificationType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NotificationMessage is the unit of work carried on the notification stream.
// It is immutable once published; a retry produces a new value with an
// incremented RetryCount and the same MessageID and CreatedAt.
type NotificationMessage struct {
	MessageID        string            `json:"messageId"`
	MemberID         int64             `json:"memberId"`
	Title            string            `json:"title"`
	Body             string            `json:"body"`
	Data             map[string]string `json:"data,omitempty"`
	NotificationType NotificationType  `json:"notificationType"`
	RetryCount       int               `json:"retryCount"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// NewNotificationMessage builds a fresh message with a generated id, the
// current UTC time and a zero retry count. data is copied.
func NewNotificationMessage(memberID int64, title, body string, data map[string]string, typ NotificationType) NotificationMessage {
	return NotificationMessage{
		MessageID:        uuid.New().String(),
		MemberID:         memberID,
		Title:            title,
		Body:             body,
		Data:             maps.Clone(data),
		NotificationType: typ,
		RetryCount:       0,
		CreatedAt:        time.Now().UTC(),
	}
}

// WithIncrementedRetry returns a copy of m with RetryCount+1. The receiver is
// left untouched.
func (m NotificationMessage) WithIncrementedRetry() NotificationMessage {
	next := m
	next.Data = maps.Clone(m.Data)
	next.RetryCount = m.RetryCount + 1
	return next
}

// WithResetRetry returns a copy of m with RetryCount set to zero.
func (m NotificationMessage) WithResetRetry() NotificationMessage {
	next := m
	next.Data = maps.Clone(m.Data)
	next.RetryCount = 0
	return next
}

// ExceedsMaxRetries reports whether the retry count is strictly greater than maxRetries.
func (m NotificationMessage) ExceedsMaxRetries(maxRetries int) bool {
	return m.RetryCount > maxRetries
}

// Validate checks the fields every consumer relies on.
func (m NotificationMessage) Validate() error {
	if m.MessageID == "" {
		return &ValidationError{Field: "messageId", Message: "messageId is required"}
	}
	if m.MemberID <= 0 {
		return &ValidationError{Field: "memberId", Message: "memberId must be positive"}
	}
	if !m.NotificationType.Valid() {
		return &ValidationError{Field: "notificationType", Message: fmt.Sprintf("unknown type %q", m.NotificationType)}
	}
	if m.RetryCount < 0 {
		return &ValidationError{Field: "retryCount", Message: "retryCount must not be negative"}
	}
	return nil
}

// MarshalPayload encodes m as the JSON document stored in the stream's
// payload field.
func (m NotificationMessage) MarshalPayload() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal notification payload: %w", err)
	}
	return string(b), nil
}

// UnmarshalNotificationMessage decodes a stream payload. Any decoding or
// validation problem is reported as ErrInvalidPayload.
func UnmarshalNotificationMessage(payload []byte) (NotificationMessage, error) {
	var m NotificationMessage
	if len(payload) == 0 {
		return m, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	if err := json.Unmarshal(payload, &m); err != nil {
		return NotificationMessage{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := m.Validate(); err != nil {
		return NotificationMessage{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return m, nil
}
