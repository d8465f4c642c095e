package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotificationType(t *testing.T) {
	for _, typ := range AllNotificationTypes() {
		t.Run(string(typ), func(t *testing.T) {
			got, err := ParseNotificationType(string(typ))
			require.NoError(t, err)
			assert.Equal(t, typ, got)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseNotificationType("BIRTHDAY")
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestNewNotificationMessage(t *testing.T) {
	data := map[string]string{"type": "GENERAL"}
	before := time.Now().UTC()

	msg := NewNotificationMessage(42, "title", "body", data, NotificationGeneral)

	assert.NotEmpty(t, msg.MessageID)
	assert.Equal(t, int64(42), msg.MemberID)
	assert.Equal(t, 0, msg.RetryCount)
	assert.False(t, msg.CreatedAt.Before(before))
	assert.Equal(t, time.UTC, msg.CreatedAt.Location())

	data["type"] = "mutated"
	assert.Equal(t, "GENERAL", msg.Data["type"], "data must be copied")
}

func TestWithIncrementedRetry_LeavesReceiverUntouched(t *testing.T) {
	msg := NewNotificationMessage(42, "t", "b", map[string]string{"k": "v"}, NotificationMissedMedication)

	next := msg.WithIncrementedRetry()
	next.Data["k"] = "changed"

	assert.Equal(t, 0, msg.RetryCount)
	assert.Equal(t, 1, next.RetryCount)
	assert.Equal(t, msg.MessageID, next.MessageID)
	assert.True(t, msg.CreatedAt.Equal(next.CreatedAt))
	assert.Equal(t, "v", msg.Data["k"])
}

func TestExceedsMaxRetries(t *testing.T) {
	tests := []struct {
		retry int
		max   int
		want  bool
	}{
		{retry: 0, max: 0, want: false},
		{retry: 1, max: 0, want: true},
		{retry: 2, max: 2, want: false},
		{retry: 3, max: 2, want: true},
	}

	for _, tt := range tests {
		msg := NotificationMessage{RetryCount: tt.retry}
		assert.Equal(t, tt.want, msg.ExceedsMaxRetries(tt.max), "retry=%d max=%d", tt.retry, tt.max)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	msg := NotificationMessage{
		MessageID:        "abc",
		MemberID:         7,
		Title:            "Reminder",
		Body:             "Take your medication",
		Data:             map[string]string{"type": "MEDICATION_REMINDER"},
		NotificationType: NotificationMedicationReminder,
		RetryCount:       2,
		CreatedAt:        created,
	}

	payload, err := msg.MarshalPayload()
	require.NoError(t, err)
	assert.Contains(t, payload, `"memberId":7`)
	assert.Contains(t, payload, `"notificationType":"MEDICATION_REMINDER"`)

	got, err := UnmarshalNotificationMessage([]byte(payload))
	require.NoError(t, err)
	if diff := cmp.Diff(msg, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalNotificationMessage_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: ""},
		{name: "not json", payload: "{{{"},
		{name: "unknown type", payload: `{"messageId":"a","memberId":1,"notificationType":"NOPE"}`},
		{name: "missing id", payload: `{"memberId":1,"notificationType":"GENERAL"}`},
		{name: "zero member", payload: `{"messageId":"a","memberId":0,"notificationType":"GENERAL"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalNotificationMessage([]byte(tt.payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPayload))
		})
	}
}

func TestDeliveryOutcome_Completed(t *testing.T) {
	for _, o := range []DeliveryOutcome{OutcomeDelivered, OutcomeSuppressedPushDisabled, OutcomeSuppressedQuietHours, OutcomeNoDevices} {
		assert.True(t, o.Completed(), o)
	}
	assert.False(t, OutcomeFailed.Completed())
	assert.False(t, DeliveryOutcome("").Completed())
}
