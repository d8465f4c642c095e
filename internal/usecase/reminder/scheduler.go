// Package reminder schedules recurring per-member reminders (daily diary
// reminders, medication reminders) on a cron scheduler. Entries are keyed so
// rescheduling a member replaces the previous entry.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"adherence-notify/internal/domain/entity"
	"adherence-notify/internal/repository"
)

const defaultJobTimeout = 30 * time.Second

// Sender sends reminder notifications. notify.Service implements it.
type Sender interface {
	SendDiaryReminder(ctx context.Context, memberID int64)
	SendMedicationReminder(ctx context.Context, memberID int64, medicationName string)
}

// Scheduler owns the keyed reminder entries.
type Scheduler struct {
	cron   *cron.Cron
	prefs  repository.PreferencesRepository
	sender Sender
	logger *slog.Logger

	jobTimeout time.Duration
	ctx        context.Context
	cancel     context.CancelFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler creates a scheduler evaluating cron specs in loc.
func NewScheduler(prefs repository.PreferencesRepository, sender Sender, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cronLogger))),
		prefs:      prefs,
		sender:     sender,
		logger:     logger,
		jobTimeout: defaultJobTimeout,
		ctx:        ctx,
		cancel:     cancel,
		entries:    make(map[string]cron.EntryID),
	}
}

// Schedule registers job under key with a standard five-field cron spec,
// replacing any entry already registered under key.
func (s *Scheduler) Schedule(key, spec string, job func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)
		defer cancel()
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", key, spec, err)
	}

	if old, ok := s.entries[key]; ok {
		s.cron.Remove(old)
	}
	s.entries[key] = id
	setScheduled(len(s.entries))
	return nil
}

// Cancel removes the entry for key and reports whether one existed.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[key]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.entries, key)
	setScheduled(len(s.entries))
	s.logger.Debug("cancelled reminder", slog.String("key", key))
	return true
}

// Len returns the number of scheduled entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start starts the underlying cron in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reminder scheduler started", slog.Int("entries", s.Len()))
}

// Stop stops scheduling and waits for running jobs or ctx, then cancels
// the context handed to jobs.
func (s *Scheduler) Stop(ctx context.Context) error {
	defer s.cancel()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("reminder scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func diaryKey(memberID int64) string      { return fmt.Sprintf("diary_reminder:%d", memberID) }
func medicationKey(memberID int64) string { return fmt.Sprintf("medication_reminder:%d", memberID) }

// dailySpec returns the cron spec firing every day at at.
func dailySpec(at entity.ClockTime) string {
	return fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour())
}

// ScheduleDiaryReminder sends a diary reminder every day at at. The job
// re-reads the member's preferences and sends only while diary reminders
// are enabled.
func (s *Scheduler) ScheduleDiaryReminder(memberID int64, at entity.ClockTime) error {
	if !at.IsSet() {
		return fmt.Errorf("diary reminder for member %d: reminder time not set", memberID)
	}
	if err := s.Schedule(diaryKey(memberID), dailySpec(at), func(ctx context.Context) {
		s.sendDiaryReminder(ctx, memberID)
	}); err != nil {
		return err
	}
	s.logger.Info("scheduled diary reminder",
		slog.Int64("member_id", memberID),
		slog.String("at", at.String()))
	return nil
}

// ScheduleMedicationReminder sends a medication reminder every day at at.
func (s *Scheduler) ScheduleMedicationReminder(memberID int64, at entity.ClockTime, medicationName string) error {
	if !at.IsSet() {
		return fmt.Errorf("medication reminder for member %d: reminder time not set", memberID)
	}
	return s.Schedule(medicationKey(memberID), dailySpec(at), func(ctx context.Context) {
		s.sender.SendMedicationReminder(ctx, memberID, medicationName)
		recordFired("medication")
	})
}

// CancelDiaryReminder removes the member's diary reminder.
func (s *Scheduler) CancelDiaryReminder(memberID int64) bool {
	return s.Cancel(diaryKey(memberID))
}

// CancelAll removes every reminder of the member. Called when push is
// disabled.
func (s *Scheduler) CancelAll(memberID int64) {
	s.Cancel(diaryKey(memberID))
	s.Cancel(medicationKey(memberID))
	s.logger.Info("cancelled all reminders", slog.Int64("member_id", memberID))
}

// Restore schedules a diary reminder for every member that has one enabled
// in the preferences store. It returns the number of reminders scheduled.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	prefs, err := s.prefs.ListDiaryReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("list diary reminders: %w", err)
	}

	n := 0
	for _, p := range prefs {
		if p == nil || !p.DiaryReminderEnabled || !p.PushEnabled {
			continue
		}
		if err := s.ScheduleDiaryReminder(p.MemberID, p.DiaryReminderTime); err != nil {
			s.logger.Warn("skipping diary reminder", slog.Int64("member_id", p.MemberID), slog.Any("error", err))
			continue
		}
		n++
	}
	s.logger.Info("restored diary reminders", slog.Int("scheduled", n), slog.Int("candidates", len(prefs)))
	return n, nil
}

func (s *Scheduler) sendDiaryReminder(ctx context.Context, memberID int64) {
	prefs, err := s.prefs.FindByMember(ctx, memberID)
	if err != nil {
		s.logger.Error("failed to load preferences for diary reminder",
			slog.Int64("member_id", memberID),
			slog.Any("error", err))
		return
	}
	if prefs == nil || !prefs.DiaryReminderEnabled {
		s.logger.Debug("diary reminder disabled", slog.Int64("member_id", memberID))
		recordSkipped("diary")
		return
	}
	s.sender.SendDiaryReminder(ctx, memberID)
	recordFired("diary")
}
