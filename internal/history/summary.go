package history

import (
	"time"

	"github.com/sandeepkv93/dosed/internal/model"
)

const DefaultDays = 7

// Day holds per-status counts for one local calendar day.
type Day struct {
	Date    time.Time
	Taken   int
	Missed  int
	Skipped int
}

func (d Day) Total() int { return d.Taken + d.Missed + d.Skipped }

// Label renders the day the way the chart axis does, e.g. "Mon 09".
func (d Day) Label() string { return d.Date.Format("Mon 02") }

type Summary struct {
	Days []Day
}

func (s Summary) Totals() Day {
	var out Day
	for _, d := range s.Days {
		out.Taken += d.Taken
		out.Missed += d.Missed
		out.Skipped += d.Skipped
	}
	return out
}

// Summarize buckets records into the last days calendar days ending on now's
// day, oldest first. Days without records are present with zero counts.
// Records outside the window are ignored.
func Summarize(records []model.IntakeRecord, now time.Time, days int) Summary {
	if days <= 0 {
		days = DefaultDays
	}
	loc := now.Location()
	today := startOfDay(now)
	first := today.AddDate(0, 0, -(days - 1))

	out := Summary{Days: make([]Day, days)}
	index := make(map[string]int, days)
	for i := range out.Days {
		date := first.AddDate(0, 0, i)
		out.Days[i].Date = date
		index[date.Format(time.DateOnly)] = i
	}

	for _, rec := range records {
		key := rec.TakenAt.In(loc).Format(time.DateOnly)
		i, ok := index[key]
		if !ok {
			continue
		}
		switch rec.Status {
		case model.IntakeTaken:
			out.Days[i].Taken++
		case model.IntakeMissed:
			out.Days[i].Missed++
		case model.IntakeSkipped:
			out.Days[i].Skipped++
		}
	}
	return out
}

// Since returns the first instant covered by a summary of days ending at now.
func Since(now time.Time, days int) time.Time {
	if days <= 0 {
		days = DefaultDays
	}
	return startOfDay(now).AddDate(0, 0, -(days - 1))
}

// Adherence is the taken share of all recorded doses, 0 when nothing was recorded.
func Adherence(s Summary) float64 {
	t := s.Totals()
	if t.Total() == 0 {
		return 0
	}
	return float64(t.Taken) / float64(t.Total())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
