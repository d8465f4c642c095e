package repository

import (
	"context"

	"adherence-notify/internal/domain/entity"
)

// PreferencesRepository loads notification settings.
// FindByMember returns (nil, nil) when the member never saved settings.
type PreferencesRepository interface {
	FindByMember(ctx context.Context, memberID int64) (*entity.Preferences, error)
	ListDiaryReminders(ctx context.Context) ([]*entity.Preferences, error)
}
