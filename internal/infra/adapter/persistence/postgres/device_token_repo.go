package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/repository"
)

type DeviceTokenRepo struct{ db Querier }

func NewDeviceTokenRepo(db Querier) repository.DeviceTokenRepository {
	return &DeviceTokenRepo{db: db}
}

func scanDevice(rows *sql.Rows) (*entity.DeviceTarget, error) {
	var (
		device     entity.DeviceTarget
		platform   string
		deviceName sql.NullString
		lastUsedAt sql.NullTime
	)
	if err := rows.Scan(
		&device.ID, &device.MemberID, &device.Token, &platform,
		&deviceName, &device.Active, &lastUsedAt, &device.CreatedAt,
	); err != nil {
		return nil, err
	}
	device.Platform = entity.Platform(platform)
	device.DeviceName = deviceName.String
	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		device.LastUsedAt = &t
	}
	return &device, nil
}

func (repo *DeviceTokenRepo) FindActiveByMember(ctx context.Context, memberID int64) ([]*entity.DeviceTarget, error) {
	const query = `
SELECT id, member_id, token, device_type, device_name, is_active, last_used_at, created_at
FROM fcm_device_tokens
WHERE member_id = $1 AND is_active = TRUE
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("FindActiveByMember: %w", err)
	}
	defer func() { _ = rows.Close() }()

	devices := make([]*entity.DeviceTarget, 0, 4)
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("FindActiveByMember: %w", err)
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

// Deactivate is idempotent: an unknown or already inactive token is not an error.
func (repo *DeviceTokenRepo) Deactivate(ctx context.Context, token string) error {
	const query = `
UPDATE fcm_device_tokens
SET is_active = FALSE
WHERE token = $1 AND is_active = TRUE`
	if _, err := repo.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return nil
}

func (repo *DeviceTokenRepo) MarkUsed(ctx context.Context, token string) error {
	const query = `
UPDATE fcm_device_tokens
SET last_used_at = now()
WHERE token = $1`
	if _, err := repo.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("MarkUsed: %w", err)
	}
	return nil
}

func (repo *DeviceTokenRepo) DeactivateAllForMember(ctx context.Context, memberID int64) (int64, error) {
	const query = `
UPDATE fcm_device_tokens
SET is_active = FALSE
WHERE member_id = $1 AND is_active = TRUE`
	res, err := repo.db.ExecContext(ctx, query, memberID)
	if err != nil {
		return 0, fmt.Errorf("DeactivateAllForMember: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeactivateAllForMember: %w", err)
	}
	return n, nil
}
