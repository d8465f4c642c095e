package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "simple validation error",
			field:    "memberId",
			message:  "memberId must be positive",
			expected: "validation error on field 'memberId': memberId must be positive",
		},
		{
			name:     "empty field name",
			field:    "",
			message:  "test message",
			expected: "validation error on field '': test message",
		},
		{
			name:     "empty message",
			field:    "test",
			message:  "",
			expected: "validation error on field 'test': ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ValidationError{
				Field:   tt.field,
				Message: tt.message,
			}

			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestValidationError_WithErrors(t *testing.T) {
	var err error = &ValidationError{
		Field:   "title",
		Message: "required",
	}

	assert.True(t, errors.Is(err, ErrValidationFailed))

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "title", validationErr.Field)
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	all := []error{ErrValidationFailed, ErrConsumerGroupMissing, ErrInvalidPayload, ErrInvalidToken, ErrDeliveryFailed}

	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}
