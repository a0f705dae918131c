package history

import (
	"testing"
	"time"

	"github.com/sandeepkv93/dosed/internal/model"
)

func rec(status model.IntakeStatus, at time.Time) model.IntakeRecord {
	return model.IntakeRecord{ID: at.String(), MedicineName: "Aspirin", Status: status, TakenAt: at}
}

func TestSummarizeBucketsByLocalDay(t *testing.T) {
	loc := time.FixedZone("IST", 5*60*60+30*60)
	now := time.Date(2026, 2, 9, 10, 0, 0, 0, loc)
	records := []model.IntakeRecord{
		rec(model.IntakeTaken, time.Date(2026, 2, 9, 8, 0, 0, 0, loc)),
		rec(model.IntakeSkipped, time.Date(2026, 2, 9, 9, 0, 0, 0, loc)),
		rec(model.IntakeMissed, time.Date(2026, 2, 3, 20, 0, 0, 0, loc)),
		// 2026-02-08 20:00 UTC is 2026-02-09 01:30 in loc.
		rec(model.IntakeTaken, time.Date(2026, 2, 8, 20, 0, 0, 0, time.UTC)),
		// outside the window
		rec(model.IntakeTaken, time.Date(2026, 2, 2, 23, 0, 0, 0, loc)),
	}

	s := Summarize(records, now, 7)
	if len(s.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(s.Days))
	}
	if s.Days[0].Date.Format(time.DateOnly) != "2026-02-03" || s.Days[6].Date.Format(time.DateOnly) != "2026-02-09" {
		t.Fatalf("unexpected window: %s .. %s", s.Days[0].Date, s.Days[6].Date)
	}
	if s.Days[0].Missed != 1 {
		t.Fatalf("expected one missed on first day, got %+v", s.Days[0])
	}
	today := s.Days[6]
	if today.Taken != 2 || today.Skipped != 1 || today.Missed != 0 {
		t.Fatalf("unexpected today counts: %+v", today)
	}
	for _, d := range s.Days[1:6] {
		if d.Total() != 0 {
			t.Fatalf("expected empty day %s, got %+v", d.Label(), d)
		}
	}

	totals := s.Totals()
	if totals.Total() != 4 {
		t.Fatalf("expected 4 records in window, got %+v", totals)
	}
	if got := Adherence(s); got != 0.5 {
		t.Fatalf("expected adherence 0.5, got %v", got)
	}
}

func TestSummarizeDefaultsAndEmpty(t *testing.T) {
	now := time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)
	s := Summarize(nil, now, 0)
	if len(s.Days) != DefaultDays {
		t.Fatalf("expected default window, got %d", len(s.Days))
	}
	if Adherence(s) != 0 {
		t.Fatal("expected zero adherence with no records")
	}
	if got := Since(now, 7); !got.Equal(time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected since: %s", got)
	}
}
