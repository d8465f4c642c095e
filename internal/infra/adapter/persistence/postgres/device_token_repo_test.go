package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/infra/adapter/persistence/postgres"
)

var deviceColumns = []string{
	"id", "member_id", "token", "device_type", "device_name", "is_active", "last_used_at", "created_at",
}

/* ──────────────────────────────── FindActiveByMember ──────────────────────────────── */

func TestDeviceTokenRepo_FindActiveByMember(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	used := created.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM fcm_device_tokens`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(deviceColumns).
			AddRow(int64(1), int64(7), "token-android", "ANDROID", "Pixel", true, used, created).
			AddRow(int64(2), int64(7), "token-ios", "IOS", nil, true, nil, created))

	repo := postgres.NewDeviceTokenRepo(db)
	got, err := repo.FindActiveByMember(context.Background(), 7)
	if err != nil {
		t.Fatalf("FindActiveByMember err=%v", err)
	}

	want := []*entity.DeviceTarget{
		{ID: 1, MemberID: 7, Token: "token-android", Platform: entity.PlatformAndroid, DeviceName: "Pixel", Active: true, LastUsedAt: &used, CreatedAt: created},
		{ID: 2, MemberID: 7, Token: "token-ios", Platform: entity.PlatformIOS, Active: true, CreatedAt: created},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeviceTokenRepo_FindActiveByMember_Empty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM fcm_device_tokens`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(deviceColumns))

	repo := postgres.NewDeviceTokenRepo(db)
	got, err := repo.FindActiveByMember(context.Background(), 99)
	if err != nil || len(got) != 0 {
		t.Fatalf("FindActiveByMember err=%v len=%d", err, len(got))
	}
}

func TestDeviceTokenRepo_FindActiveByMember_QueryError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	boom := errors.New("connection reset")
	mock.ExpectQuery(`FROM fcm_device_tokens`).WillReturnError(boom)

	repo := postgres.NewDeviceTokenRepo(db)
	if _, err := repo.FindActiveByMember(context.Background(), 1); !errors.Is(err, boom) {
		t.Fatalf("want wrapped %v, got %v", boom, err)
	}
}

/* ──────────────────────────────── Deactivate / MarkUsed ──────────────────────────────── */

func TestDeviceTokenRepo_Deactivate(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE fcm_device_tokens
SET is_active = FALSE
WHERE token = $1`)).
		WithArgs("stale-token").
		WillReturnResult(sqlmock.NewResult(0, 0)) // already inactive is fine

	repo := postgres.NewDeviceTokenRepo(db)
	if err := repo.Deactivate(context.Background(), "stale-token"); err != nil {
		t.Fatalf("Deactivate err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeviceTokenRepo_MarkUsed(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`SET last_used_at = now()`)).
		WithArgs("live-token").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewDeviceTokenRepo(db)
	if err := repo.MarkUsed(context.Background(), "live-token"); err != nil {
		t.Fatalf("MarkUsed err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeviceTokenRepo_DeactivateAllForMember(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`WHERE member_id = $1 AND is_active = TRUE`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := postgres.NewDeviceTokenRepo(db)
	n, err := repo.DeactivateAllForMember(context.Background(), 42)
	if err != nil {
		t.Fatalf("DeactivateAllForMember err=%v", err)
	}
	if n != 3 {
		t.Fatalf("want 3 rows, got %d", n)
	}
}
