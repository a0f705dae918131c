package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/dosed/internal/dose"
	"github.com/sandeepkv93/dosed/internal/model"
	"github.com/sandeepkv93/dosed/internal/storage"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func setupService(t *testing.T, start time.Time) (*Service, *fakeClock) {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	clock := &fakeClock{now: start}
	return New(repo, WithClock(clock.Now)), clock
}

func TestAddReminderAppliesPresetsAndValidates(t *testing.T) {
	svc, _ := setupService(t, time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC))
	ctx := t.Context()

	rem, err := svc.AddReminder(ctx, AddReminderInput{MedicineName: "  Metformin ", Frequency: model.FrequencyTwiceDaily})
	if err != nil {
		t.Fatalf("add preset: %v", err)
	}
	if rem.MedicineName != "Metformin" || !rem.Active || len(rem.TimesOfDay) != 2 || rem.TimesOfDay[1] != "20:00" {
		t.Fatalf("unexpected preset reminder: %+v", rem)
	}
	if rem.ID == "" {
		t.Fatal("expected generated id")
	}

	rem, err = svc.AddReminder(ctx, AddReminderInput{MedicineName: "Vitamin D", TimesOfDay: []string{"9:30, 21:00"}})
	if err != nil {
		t.Fatalf("add custom: %v", err)
	}
	if rem.Frequency != model.FrequencyCustom || rem.TimesOfDay[0] != "09:30" || rem.TimesOfDay[1] != "21:00" {
		t.Fatalf("expected normalized custom times, got %+v", rem)
	}

	_, err = svc.AddReminder(ctx, AddReminderInput{MedicineName: "Bad", TimesOfDay: []string{"08:00", "25:00"}})
	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, dose.ErrInvalidTimeFormat) {
		t.Fatalf("expected invalid time to fail fast, got %v", err)
	}
	if _, err := svc.AddReminder(ctx, AddReminderInput{MedicineName: ""}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing name to fail, got %v", err)
	}
	if _, err := svc.AddReminder(ctx, AddReminderInput{MedicineName: "X", Frequency: model.FrequencyCustom}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected custom without times to fail, got %v", err)
	}
	if _, err := svc.AddReminder(ctx, AddReminderInput{MedicineName: "X", Frequency: "hourly"}); !errors.Is(err, model.ErrInvalidFrequency) {
		t.Fatalf("expected unknown frequency to fail, got %v", err)
	}

	all, err := svc.ListReminders(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected only valid reminders stored, got %d", len(all))
	}
}

func TestBoardUsesInjectedClock(t *testing.T) {
	svc, clock := setupService(t, time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC))
	ctx := t.Context()
	rem, err := svc.AddReminder(ctx, AddReminderInput{MedicineName: "Aspirin", TimesOfDay: []string{"08:00"}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	board, err := svc.Board(ctx)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if board.Count() != 0 || !board.Evaluations[rem.ID].DueSoon {
		t.Fatalf("expected nothing due yet but due soon, got %+v", board)
	}

	clock.now = time.Date(2026, 2, 9, 8, 20, 0, 0, time.UTC)
	board, err = svc.Board(ctx)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if board.Count() != 1 || board.Due[0].Status != dose.StatusOverdue || board.OverdueCount() != 1 {
		t.Fatalf("expected one overdue entry, got %+v", board.Due)
	}

	if _, err := svc.SetActive(ctx, rem.ID, false); err != nil {
		t.Fatalf("pause: %v", err)
	}
	board, err = svc.Board(ctx)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if board.Count() != 0 || len(board.Evaluations) != 0 {
		t.Fatalf("expected paused reminder excluded, got %+v", board)
	}
}

func TestFindReminder(t *testing.T) {
	svc, _ := setupService(t, time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC))
	ctx := t.Context()
	rem, err := svc.AddReminder(ctx, AddReminderInput{MedicineName: "Ibuprofen", Frequency: model.FrequencyOnceDaily})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	for _, ref := range []string{rem.ID, rem.ID[:8], "ibuprofen", " IBUPROFEN "} {
		got, err := svc.FindReminder(ctx, ref)
		if err != nil {
			t.Fatalf("find %q: %v", ref, err)
		}
		if got.ID != rem.ID {
			t.Fatalf("find %q got %s", ref, got.ID)
		}
	}
	if _, err := svc.FindReminder(ctx, "nothing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.AddReminder(ctx, AddReminderInput{MedicineName: "ibuprofen", Frequency: model.FrequencyOnceDaily}); err != nil {
		t.Fatalf("add duplicate name: %v", err)
	}
	if _, err := svc.FindReminder(ctx, "Ibuprofen"); !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
}

func TestRecordIntakeAndSummary(t *testing.T) {
	svc, clock := setupService(t, time.Date(2026, 2, 8, 8, 5, 0, 0, time.UTC))
	ctx := t.Context()
	rem, err := svc.AddReminder(ctx, AddReminderInput{MedicineName: "Metformin", Frequency: model.FrequencyTwiceDaily})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := svc.RecordIntake(ctx, rem.ID, model.IntakeTaken, ""); err != nil {
		t.Fatalf("record taken: %v", err)
	}
	clock.now = time.Date(2026, 2, 9, 20, 30, 0, 0, time.UTC)
	if _, err := svc.RecordIntake(ctx, rem.ID, model.IntakeSkipped, "felt sick"); err != nil {
		t.Fatalf("record skipped: %v", err)
	}
	if _, err := svc.RecordIntake(ctx, "missing", model.IntakeTaken, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown reminder, got %v", err)
	}
	if _, err := svc.RecordIntake(ctx, rem.ID, "forgot", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}

	records, err := svc.History(ctx, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 2 || records[0].Status != model.IntakeSkipped || records[0].Notes != "felt sick" {
		t.Fatalf("expected newest first, got %+v", records)
	}
	if !records[1].TakenAt.Equal(time.Date(2026, 2, 8, 8, 5, 0, 0, time.UTC)) {
		t.Fatalf("expected clock timestamp, got %s", records[1].TakenAt)
	}

	summary, err := svc.Summary(ctx, 7)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	last := summary.Days[len(summary.Days)-1]
	prev := summary.Days[len(summary.Days)-2]
	if last.Skipped != 1 || prev.Taken != 1 {
		t.Fatalf("unexpected summary tail: %+v %+v", prev, last)
	}

	if err := svc.DeleteReminder(ctx, rem.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteReminder(ctx, rem.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	records, err = svc.History(ctx, 1)
	if err != nil {
		t.Fatalf("history after delete: %v", err)
	}
	if len(records) != 1 || records[0].ReminderID != "" {
		t.Fatalf("expected history to survive delete, got %+v", records)
	}
}
