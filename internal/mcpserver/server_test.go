package mcpserver

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sandeepkv93/dosed/internal/service"
	"github.com/sandeepkv93/dosed/internal/storage"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func setupServer(t *testing.T, start time.Time) (*Server, *testClock) {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "mcp.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	clock := &testClock{now: start}
	svc := service.New(repo, service.WithClock(clock.Now))
	return NewServer(svc, "test", nil), clock
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("expected tool result content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestAddAndListReminders(t *testing.T) {
	s, _ := setupServer(t, time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC))
	ctx := t.Context()

	res, err := s.handleListReminders(ctx, call("list_reminders", nil))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := resultText(t, res); got != "No reminders found." {
		t.Fatalf("unexpected empty listing: %q", got)
	}

	res, err = s.handleAddReminder(ctx, call("add_reminder", map[string]any{
		"medicine_name": "Metformin",
		"times":         "8:00,20:00",
		"dosage":        "500mg",
	}))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var added reminderView
	if err := json.Unmarshal([]byte(resultText(t, res)), &added); err != nil {
		t.Fatalf("decode add result: %v", err)
	}
	if added.Frequency != "custom" || len(added.TimesOfDay) != 2 || added.TimesOfDay[0] != "08:00" || !added.Active {
		t.Fatalf("unexpected reminder: %+v", added)
	}

	res, err = s.handleListReminders(ctx, call("list_reminders", map[string]any{"active_only": true}))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var listed []reminderView
	if err := json.Unmarshal([]byte(resultText(t, res)), &listed); err != nil {
		t.Fatalf("decode list result: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != added.ID || listed[0].Dosage != "500mg" {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}

func TestAddReminderRejectsBadInputAsToolError(t *testing.T) {
	s, _ := setupServer(t, time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC))
	ctx := t.Context()

	res, err := s.handleAddReminder(ctx, call("add_reminder", map[string]any{"medicine_name": "X", "times": "25:00"}))
	if err != nil {
		t.Fatalf("expected tool error, not protocol error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "invalid time format") {
		t.Fatalf("expected invalid time tool error, got %+v", res)
	}

	res, err = s.handleAddReminder(ctx, call("add_reminder", map[string]any{"times": "08:00"}))
	if err != nil || !res.IsError {
		t.Fatalf("expected missing name tool error, got %+v %v", res, err)
	}
}

func TestDueAndNextDoses(t *testing.T) {
	s, clock := setupServer(t, time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC))
	ctx := t.Context()
	for _, args := range []map[string]any{
		{"medicine_name": "Aspirin", "times": "08:00"},
		{"medicine_name": "Vitamin D", "times": "12:00"},
	} {
		if res, err := s.handleAddReminder(ctx, call("add_reminder", args)); err != nil || res.IsError {
			t.Fatalf("add %v failed: %+v %v", args, res, err)
		}
	}

	res, err := s.handleGetDueDoses(ctx, call("get_due_doses", nil))
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if got := resultText(t, res); got != "No doses due right now." {
		t.Fatalf("expected nothing due at 07:00, got %q", got)
	}

	clock.now = time.Date(2026, 2, 9, 8, 30, 0, 0, time.UTC)
	res, err = s.handleGetDueDoses(ctx, call("get_due_doses", nil))
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	var due []dueView
	if err := json.Unmarshal([]byte(resultText(t, res)), &due); err != nil {
		t.Fatalf("decode due: %v", err)
	}
	if len(due) != 1 || due[0].MedicineName != "Aspirin" || due[0].Status != "overdue" || due[0].MinutesLate != 30 {
		t.Fatalf("unexpected due doses: %+v", due)
	}

	res, err = s.handleGetNextDoses(ctx, call("get_next_doses", nil))
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	var next []nextView
	if err := json.Unmarshal([]byte(resultText(t, res)), &next); err != nil {
		t.Fatalf("decode next: %v", err)
	}
	byName := map[string]nextView{}
	for _, n := range next {
		byName[n.MedicineName] = n
	}
	if a := byName["Aspirin"]; a.TimeOfDay != "08:00" || a.MinutesUntil != 1410 || a.DueSoon {
		t.Fatalf("expected aspirin to wrap to tomorrow, got %+v", a)
	}
	if v := byName["Vitamin D"]; v.TimeOfDay != "12:00" || v.MinutesUntil != 210 {
		t.Fatalf("unexpected vitamin d next dose: %+v", v)
	}
}

func TestRecordIntakeAndHistory(t *testing.T) {
	s, _ := setupServer(t, time.Date(2026, 2, 9, 8, 5, 0, 0, time.UTC))
	ctx := t.Context()
	if res, err := s.handleAddReminder(ctx, call("add_reminder", map[string]any{"medicine_name": "Ibuprofen", "frequency": "once_daily"})); err != nil || res.IsError {
		t.Fatalf("add failed: %+v %v", res, err)
	}

	res, err := s.handleRecordIntake(ctx, call("record_intake", map[string]any{"reminder": "ibuprofen"}))
	if err != nil || res.IsError {
		t.Fatalf("record failed: %+v %v", res, err)
	}
	var rec intakeView
	if err := json.Unmarshal([]byte(resultText(t, res)), &rec); err != nil {
		t.Fatalf("decode intake: %v", err)
	}
	if rec.Status != "taken" || rec.MedicineName != "Ibuprofen" || rec.TakenAt != "2026-02-09T08:05:00Z" {
		t.Fatalf("unexpected intake: %+v", rec)
	}

	res, err = s.handleRecordIntake(ctx, call("record_intake", map[string]any{"reminder": "ibuprofen", "status": "forgot"}))
	if err != nil || !res.IsError {
		t.Fatalf("expected invalid status tool error, got %+v %v", res, err)
	}
	res, err = s.handleRecordIntake(ctx, call("record_intake", map[string]any{"reminder": "paracetamol"}))
	if err != nil || !res.IsError || !strings.Contains(resultText(t, res), "not found") {
		t.Fatalf("expected not found tool error, got %+v %v", res, err)
	}

	res, err = s.handleIntakeHistory(ctx, call("intake_history", map[string]any{"days": float64(3)}))
	if err != nil || res.IsError {
		t.Fatalf("history failed: %+v %v", res, err)
	}
	var hist struct {
		Records   []intakeView `json:"records"`
		Days      []dayView    `json:"days"`
		Adherence float64      `json:"adherence"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Records) != 1 || len(hist.Days) != 3 || hist.Adherence != 1 {
		t.Fatalf("unexpected history: %+v", hist)
	}
	if last := hist.Days[2]; last.Date != "2026-02-09" || last.Taken != 1 {
		t.Fatalf("unexpected last day: %+v", last)
	}

	res, err = s.handleIntakeHistory(ctx, call("intake_history", map[string]any{"limit": float64(-1)}))
	if err != nil || !res.IsError {
		t.Fatalf("expected negative limit tool error, got %+v %v", res, err)
	}
}

func TestToolsRegistered(t *testing.T) {
	s, _ := setupServer(t, time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC))
	tools := s.MCPServer().ListTools()
	for _, name := range []string{"list_reminders", "add_reminder", "get_due_doses", "get_next_doses", "record_intake", "intake_history"} {
		if _, ok := tools[name]; !ok {
			t.Fatalf("tool %s not registered", name)
		}
	}
}
