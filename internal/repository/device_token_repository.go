package repository

import (
	"context"

	"adherence-notify/internal/domain/entity"
)

// DeviceTokenRepository reads a member's push targets and records what the
// delivery pipeline learned about them.
type DeviceTokenRepository interface {
	FindActiveByMember(ctx context.Context, memberID int64) ([]*entity.DeviceTarget, error)
	Deactivate(ctx context.Context, token string) error
	MarkUsed(ctx context.Context, token string) error
	DeactivateAllForMember(ctx context.Context, memberID int64) (int64, error)
}
