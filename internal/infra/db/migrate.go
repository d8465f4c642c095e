package db

import (
	"context"
	"database/sql"
	"fmt"
)

// MigrateUp creates the device token and notification settings tables the
// worker reads. Both tables are owned by the main application; this keeps
// local and test databases usable without it.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS fcm_device_tokens (
    id           BIGSERIAL PRIMARY KEY,
    member_id    BIGINT NOT NULL,
    token        TEXT NOT NULL UNIQUE,
    device_type  VARCHAR(16) NOT NULL,
    device_name  TEXT,
    is_active    BOOLEAN NOT NULL DEFAULT TRUE,
    last_used_at TIMESTAMPTZ,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return fmt.Errorf("create fcm_device_tokens: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS notification_settings (
    member_id              BIGINT PRIMARY KEY,
    push_enabled           BOOLEAN NOT NULL DEFAULT TRUE,
    quiet_hours_enabled    BOOLEAN NOT NULL DEFAULT FALSE,
    quiet_hours_start      TIME,
    quiet_hours_end        TIME,
    diary_reminder_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    diary_reminder_time    TIME,
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return fmt.Errorf("create notification_settings: %w", err)
	}

	indexes := []string{
		// FindActiveByMember
		`CREATE INDEX IF NOT EXISTS idx_fcm_device_tokens_member_active ON fcm_device_tokens(member_id) WHERE is_active = TRUE`,
		// ListDiaryReminders
		`CREATE INDEX IF NOT EXISTS idx_notification_settings_diary ON notification_settings(member_id) WHERE diary_reminder_enabled = TRUE`,
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}
