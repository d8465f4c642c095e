package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/repository"
)

type PreferencesRepo struct{ db Querier }

func NewPreferencesRepo(db Querier) repository.PreferencesRepository {
	return &PreferencesRepo{db: db}
}

const preferencesColumns = `member_id, push_enabled, quiet_hours_enabled, quiet_hours_start,
       quiet_hours_end, diary_reminder_enabled, diary_reminder_time, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreferences(row rowScanner) (*entity.Preferences, error) {
	var p entity.Preferences
	if err := row.Scan(
		&p.MemberID, &p.PushEnabled, &p.QuietHoursEnabled, &p.QuietHoursStart,
		&p.QuietHoursEnd, &p.DiaryReminderEnabled, &p.DiaryReminderTime, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (repo *PreferencesRepo) FindByMember(ctx context.Context, memberID int64) (*entity.Preferences, error) {
	query := `
SELECT ` + preferencesColumns + `
FROM notification_settings
WHERE member_id = $1
LIMIT 1`
	p, err := scanPreferences(repo.db.QueryRowContext(ctx, query, memberID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByMember: %w", err)
	}
	return p, nil
}

func (repo *PreferencesRepo) ListDiaryReminders(ctx context.Context) ([]*entity.Preferences, error) {
	query := `
SELECT ` + preferencesColumns + `
FROM notification_settings
WHERE diary_reminder_enabled = TRUE AND push_enabled = TRUE AND diary_reminder_time IS NOT NULL
ORDER BY member_id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListDiaryReminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	prefs := make([]*entity.Preferences, 0, 50)
	for rows.Next() {
		p, err := scanPreferences(rows)
		if err != nil {
			return nil, fmt.Errorf("ListDiaryReminders: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}
