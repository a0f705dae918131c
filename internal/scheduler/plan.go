package scheduler

import (
	"time"

	"github.com/sandeepkv93/dosed/internal/dose"
	"github.com/sandeepkv93/dosed/internal/model"
)

// Plan builds one event per valid configured time of every active reminder,
// each at its next occurrence strictly after now, so a time that fired during
// the current minute is armed for tomorrow. Malformed times are skipped; the
// calculator reports them.
func Plan(reminders []model.Reminder, now time.Time) []DoseEvent {
	var out []DoseEvent
	for _, r := range reminders {
		if !r.Active {
			continue
		}
		for _, raw := range r.TimesOfDay {
			tod, err := dose.ParseTimeOfDay(raw)
			if err != nil {
				continue
			}
			at := dose.NextOccurrence(tod, now)
			if !at.After(now) {
				at = at.AddDate(0, 0, 1)
			}
			out = append(out, DoseEvent{
				ReminderID:   r.ID,
				MedicineName: r.MedicineName,
				TimeOfDay:    tod.String(),
				TriggerAt:    at,
			})
		}
	}
	return out
}
