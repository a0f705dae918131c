package dose

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/dosed/internal/model"
)

type Status string

const (
	StatusNotDue  Status = "not-due"
	StatusDue     Status = "due"
	StatusOverdue Status = "overdue"
)

// Policy holds the tunable windows used to classify doses.
type Policy struct {
	DueWindow        time.Duration
	OverdueThreshold time.Duration
	DueSoonWindow    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		DueWindow:        60 * time.Minute,
		OverdueThreshold: 15 * time.Minute,
		DueSoonWindow:    60 * time.Minute,
	}
}

func (p Policy) Validate() error {
	if p.DueWindow < 0 || p.OverdueThreshold < 0 || p.DueSoonWindow < 0 {
		return errors.New("dose: policy windows must not be negative")
	}
	if p.OverdueThreshold > p.DueWindow {
		return fmt.Errorf("dose: overdue threshold %s exceeds due window %s", p.OverdueThreshold, p.DueWindow)
	}
	return nil
}

func (p Policy) dueWindowMinutes() int        { return int(p.DueWindow / time.Minute) }
func (p Policy) overdueThresholdMinutes() int { return int(p.OverdueThreshold / time.Minute) }
func (p Policy) dueSoonMinutes() int          { return int(p.DueSoonWindow / time.Minute) }

type DueEntry struct {
	ReminderID   string
	MedicineName string
	TimeOfDay    TimeOfDay
	Status       Status
	MinutesLate  int
}

// Key identifies a dose occurrence on a given day.
func (e DueEntry) Key(day time.Time) string {
	return fmt.Sprintf("%s@%s@%s", e.ReminderID, day.Format("2006-01-02"), e.TimeOfDay)
}

type NextDose struct {
	Raw          string
	TimeOfDay    TimeOfDay
	MinutesUntil int
	HasNext      bool
}

type Evaluation struct {
	ReminderID string
	Due        []DueEntry
	Next       NextDose
	DueSoon    bool
	Errors     []error
}

// EvaluateDueStatus classifies one scheduled time against nowMinutes. Only
// times already passed today can be due; there is no wrap-around.
func EvaluateDueStatus(t TimeOfDay, nowMinutes int, p Policy) Status {
	delta := nowMinutes - t.Minutes()
	switch {
	case delta < 0 || delta > p.dueWindowMinutes():
		return StatusNotDue
	case delta <= p.overdueThresholdMinutes():
		return StatusDue
	default:
		return StatusOverdue
	}
}

// FindNextDose picks the time with the smallest forward distance from
// nowMinutes, wrapping past midnight. Ties keep the first occurrence.
// An empty schedule yields a NextDose with HasNext false.
func FindNextDose(times []string, nowMinutes int) (NextDose, []error) {
	var (
		best NextDose
		errs []error
	)
	for _, raw := range times {
		t, err := ParseTimeOfDay(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		diff := t.Minutes() - nowMinutes
		if diff < 0 {
			diff += MinutesPerDay
		}
		if !best.HasNext || diff < best.MinutesUntil {
			best = NextDose{Raw: strings.TrimSpace(raw), TimeOfDay: t, MinutesUntil: diff, HasNext: true}
		}
	}
	return best, errs
}

// IsDueSoon reports whether any time falls within the upcoming due-soon
// window. Malformed entries are ignored here; FindNextDose reports them.
func IsDueSoon(times []string, nowMinutes int, p Policy) bool {
	for _, raw := range times {
		t, err := ParseTimeOfDay(raw)
		if err != nil {
			continue
		}
		diff := t.Minutes() - nowMinutes
		if diff >= 0 && diff <= p.dueSoonMinutes() {
			return true
		}
	}
	return false
}

// EvaluateReminder computes due entries and the next dose for an active
// reminder. Inactive reminders report false and are not evaluated.
func EvaluateReminder(r model.Reminder, now time.Time, p Policy) (Evaluation, bool) {
	if !r.Active {
		return Evaluation{}, false
	}
	nowMin := NowMinutes(now)
	ev := Evaluation{ReminderID: r.ID}
	for _, raw := range r.TimesOfDay {
		t, err := ParseTimeOfDay(raw)
		if err != nil {
			ev.Errors = append(ev.Errors, err)
			continue
		}
		status := EvaluateDueStatus(t, nowMin, p)
		if status == StatusNotDue {
			continue
		}
		ev.Due = append(ev.Due, DueEntry{
			ReminderID:   r.ID,
			MedicineName: r.MedicineName,
			TimeOfDay:    t,
			Status:       status,
			MinutesLate:  nowMin - t.Minutes(),
		})
	}
	// parse errors were already collected above
	ev.Next, _ = FindNextDose(r.TimesOfDay, nowMin)
	ev.DueSoon = IsDueSoon(r.TimesOfDay, nowMin, p)
	return ev, true
}

type Board struct {
	At          time.Time
	Due         []DueEntry
	Evaluations map[string]Evaluation
	Errors      []error
}

func (b Board) Count() int { return len(b.Due) }

func (b Board) OverdueCount() int {
	n := 0
	for _, e := range b.Due {
		if e.Status == StatusOverdue {
			n++
		}
	}
	return n
}

// EvaluateAll evaluates every active reminder in input order.
func EvaluateAll(reminders []model.Reminder, now time.Time, p Policy) Board {
	b := Board{At: now, Evaluations: make(map[string]Evaluation, len(reminders))}
	for _, r := range reminders {
		ev, ok := EvaluateReminder(r, now, p)
		if !ok {
			continue
		}
		b.Evaluations[r.ID] = ev
		b.Due = append(b.Due, ev.Due...)
		for _, err := range ev.Errors {
			b.Errors = append(b.Errors, fmt.Errorf("reminder %s: %w", r.ID, err))
		}
	}
	return b
}
