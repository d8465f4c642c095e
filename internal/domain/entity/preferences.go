package entity

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day with minute precision, stored as
// minutes since midnight.
type ClockTime struct {
	minutes int
	set     bool
}

// NewClockTime builds a ClockTime from hour and minute.
func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, &ValidationError{Field: "time", Message: fmt.Sprintf("out of range %02d:%02d", hour, minute)}
	}
	return ClockTime{minutes: hour*60 + minute, set: true}, nil
}

// MustClockTime is NewClockTime for constants and tests.
func MustClockTime(hour, minute int) ClockTime {
	ct, err := NewClockTime(hour, minute)
	if err != nil {
		panic(err)
	}
	return ct
}

// ParseClockTime accepts "HH:MM" and "HH:MM:SS" (seconds are dropped).
func ParseClockTime(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewClockTime(t.Hour(), t.Minute())
		}
	}
	return ClockTime{}, &ValidationError{Field: "time", Message: fmt.Sprintf("invalid clock time %q", s)}
}

// ClockTimeOf returns the wall-clock part of t in t's location.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime{minutes: t.Hour()*60 + t.Minute(), set: true}
}

// IsSet reports whether the value was explicitly provided.
func (c ClockTime) IsSet() bool { return c.set }

func (c ClockTime) Hour() int   { return c.minutes / 60 }
func (c ClockTime) Minute() int { return c.minutes % 60 }

// Before reports whether c is strictly earlier in the day than o.
func (c ClockTime) Before(o ClockTime) bool { return c.minutes < o.minutes }

func (c ClockTime) String() string {
	if !c.set {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Scan implements sql.Scanner for TIME and text columns.
func (c *ClockTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = ClockTime{}
		return nil
	case string:
		parsed, err := ParseClockTime(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case []byte:
		return c.Scan(string(v))
	case time.Time:
		*c = ClockTimeOf(v)
		return nil
	default:
		return fmt.Errorf("scan ClockTime: unsupported type %T", src)
	}
}

// Value implements driver.Valuer.
func (c ClockTime) Value() (driver.Value, error) {
	if !c.set {
		return nil, nil
	}
	return c.String(), nil
}

// Preferences are a member's notification settings.
type Preferences struct {
	MemberID             int64
	PushEnabled          bool
	QuietHoursEnabled    bool
	QuietHoursStart      ClockTime
	QuietHoursEnd        ClockTime
	DiaryReminderEnabled bool
	DiaryReminderTime    ClockTime
	UpdatedAt            time.Time
}

// DefaultPreferences is what applies to members that never saved settings:
// push enabled, no quiet hours, no reminders.
func DefaultPreferences(memberID int64) Preferences {
	return Preferences{
		MemberID:    memberID,
		PushEnabled: true,
	}
}

// InQuietHours reports whether now falls inside the member's quiet window.
// A window whose start is after its end wraps past midnight. Equal start and
// end describe an empty window.
func (p Preferences) InQuietHours(now time.Time) bool {
	if !p.QuietHoursEnabled || !p.QuietHoursStart.IsSet() || !p.QuietHoursEnd.IsSet() {
		return false
	}

	current := ClockTimeOf(now)
	start, end := p.QuietHoursStart, p.QuietHoursEnd

	if end.Before(start) {
		return !current.Before(start) || current.Before(end)
	}
	return !current.Before(start) && current.Before(end)
}
