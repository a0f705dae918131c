package scheduler

import (
	"testing"
	"time"

	"github.com/sandeepkv93/dosed/internal/model"
)

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if err := engine.Schedule(DoseEvent{ReminderID: "later", TriggerAt: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := engine.Schedule(DoseEvent{ReminderID: "sooner", TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitEvent(t, engine.C(), time.Second)
	second := waitEvent(t, engine.C(), time.Second)
	if first.ReminderID != "sooner" || second.ReminderID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.ReminderID, second.ReminderID)
	}
}

func TestEngineEqualTriggersKeepScheduleOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	at := time.Now().Add(20 * time.Millisecond)
	for _, id := range []string{"a", "b", "c"} {
		if err := engine.Schedule(DoseEvent{ReminderID: id, TriggerAt: at}); err != nil {
			t.Fatalf("schedule %s: %v", id, err)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		if got := waitEvent(t, engine.C(), time.Second); got.ReminderID != want {
			t.Fatalf("expected %s, got %s", want, got.ReminderID)
		}
	}
}

func TestEngineReplaceDropsPendingEvents(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if err := engine.Schedule(DoseEvent{ReminderID: "stale", TriggerAt: now.Add(40 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule stale: %v", err)
	}
	if err := engine.Replace([]DoseEvent{
		{ReminderID: "fresh", TriggerAt: now.Add(60 * time.Millisecond)},
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected one pending event, got %d", engine.Pending())
	}

	if got := waitEvent(t, engine.C(), time.Second); got.ReminderID != "fresh" {
		t.Fatalf("expected fresh event, got %s", got.ReminderID)
	}
	select {
	case ev := <-engine.C():
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(80 * time.Millisecond):
	}

	if err := engine.Replace([]DoseEvent{{ReminderID: "bad"}}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	at := time.Now().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := engine.Schedule(DoseEvent{ReminderID: "evt", TriggerAt: at}); err != nil {
			t.Fatalf("schedule event: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped events > 0, got %d", engine.Dropped())
	}
}

func TestScheduleValidatesTriggerTime(t *testing.T) {
	engine := NewEngine(1)
	if err := engine.Schedule(DoseEvent{ReminderID: "bad"}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
}

func TestScheduleAfterStop(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	engine.Stop()
	if err := engine.Schedule(DoseEvent{ReminderID: "late", TriggerAt: time.Now()}); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if _, ok := <-engine.C(); ok {
		t.Fatal("expected closed channel after stop")
	}
}

func TestPlanArmsNextOccurrences(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	reminders := []model.Reminder{
		{ID: "a", MedicineName: "A", TimesOfDay: []string{"08:00", "14:00", "oops"}, Active: true},
		{ID: "b", MedicineName: "B", TimesOfDay: []string{"12:00"}, Active: false},
		{ID: "c", MedicineName: "C", TimesOfDay: []string{"12:00"}, Active: true},
	}
	events := Plan(reminders, now)
	if len(events) != 3 {
		t.Fatalf("expected 2 events, got %+v", events)
	}
	if !events[0].TriggerAt.Equal(time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 08:00 tomorrow, got %s", events[0].TriggerAt)
	}
	if events[1].TimeOfDay != "14:00" || !events[1].TriggerAt.Equal(time.Date(2026, 2, 9, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 14:00 today, got %+v", events[1])
	}
	if !events[2].TriggerAt.Equal(time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected current minute armed for tomorrow, got %s", events[2].TriggerAt)
	}
}

func waitEvent(t *testing.T, ch <-chan DoseEvent, timeout time.Duration) DoseEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
		return DoseEvent{}
	}
}
