package dose

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const MinutesPerDay = 24 * 60

var (
	ErrInvalidTimeFormat = errors.New("dose: invalid time format")
	ErrEmptySchedule     = errors.New("dose: schedule has no times")
)

// TimeError reports a single malformed time-of-day value.
type TimeError struct {
	Value  string
	Reason string
}

func (e *TimeError) Error() string {
	return fmt.Sprintf("%v: %q: %s", ErrInvalidTimeFormat, e.Value, e.Reason)
}

func (e *TimeError) Unwrap() error { return ErrInvalidTimeFormat }

// TimeOfDay is a wall-clock time without a date, minute resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts 24-hour "HH:MM" (a single-digit hour is tolerated).
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	s := strings.TrimSpace(raw)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return TimeOfDay{}, &TimeError{Value: raw, Reason: "expected HH:MM"}
	}
	if len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return TimeOfDay{}, &TimeError{Value: raw, Reason: "expected HH:MM"}
	}
	h, err := parseDigits(hh)
	if err != nil {
		return TimeOfDay{}, &TimeError{Value: raw, Reason: "hour is not a number"}
	}
	m, err := parseDigits(mm)
	if err != nil {
		return TimeOfDay{}, &TimeError{Value: raw, Reason: "minute is not a number"}
	}
	if _, err := MinutesSinceMidnight(h, m); err != nil {
		return TimeOfDay{}, &TimeError{Value: raw, Reason: "out of range"}
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func MustParseTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// MinutesSinceMidnight returns h*60+m in [0, 1439].
func MinutesSinceMidnight(h, m int) (int, error) {
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: hour %d out of range", ErrInvalidTimeFormat, h)
	}
	if m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: minute %d out of range", ErrInvalidTimeFormat, m)
	}
	return h*60 + m, nil
}

func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Kitchen renders the time as "8:00 AM".
func (t TimeOfDay) Kitchen() string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format("3:04 PM")
}

// NowMinutes converts an instant to minutes since its own local midnight.
func NowMinutes(now time.Time) int {
	return now.Hour()*60 + now.Minute()
}

// NextOccurrence is the first instant at or after now whose wall clock in
// now's location equals t.
func NextOccurrence(t TimeOfDay, now time.Time) time.Time {
	y, mo, d := now.Date()
	candidate := time.Date(y, mo, d, t.Hour, t.Minute, 0, 0, now.Location())
	if candidate.Before(now.Truncate(time.Minute)) {
		candidate = time.Date(y, mo, d+1, t.Hour, t.Minute, 0, 0, now.Location())
	}
	return candidate
}

func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
