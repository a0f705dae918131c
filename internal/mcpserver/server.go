package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sandeepkv93/dosed/internal/dose"
	"github.com/sandeepkv93/dosed/internal/history"
	"github.com/sandeepkv93/dosed/internal/model"
	"github.com/sandeepkv93/dosed/internal/service"
)

const serverName = "dosed"

// Store is what the tool handlers need from the service layer.
type Store interface {
	Now() time.Time
	AddReminder(ctx context.Context, in service.AddReminderInput) (model.Reminder, error)
	ListReminders(ctx context.Context, activeOnly bool) ([]model.Reminder, error)
	FindReminder(ctx context.Context, ref string) (model.Reminder, error)
	Board(ctx context.Context) (dose.Board, error)
	RecordIntake(ctx context.Context, reminderID string, status model.IntakeStatus, notes string) (model.IntakeRecord, error)
	History(ctx context.Context, limit int) ([]model.IntakeRecord, error)
	Summary(ctx context.Context, days int) (history.Summary, error)
}

// Server exposes dose reminders as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	store     Store
	log       *slog.Logger
}

func NewServer(store Store, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, log: logger}
	s.mcpServer = server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve blocks serving tools over stdin/stdout.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List medicine reminders with their daily dose times"),
			mcp.WithBoolean("active_only", mcp.Description("Only return reminders that are not paused")),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Add a medicine reminder. Give times, a frequency preset, or both"),
			mcp.WithString("medicine_name", mcp.Required(), mcp.Description("Medicine name")),
			mcp.WithString("times", mcp.Description("Comma separated 24h times, e.g. 08:00,20:00")),
			mcp.WithString("frequency", mcp.Description("once_daily, twice_daily, three_times_daily or custom")),
			mcp.WithString("dosage", mcp.Description("Dosage text, e.g. 500mg")),
			mcp.WithString("notes", mcp.Description("Free-form notes (markdown)")),
		),
		s.handleAddReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_due_doses",
			mcp.WithDescription("Doses that are due now or overdue, in reminder order"),
		),
		s.handleGetDueDoses,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_next_doses",
			mcp.WithDescription("Next upcoming dose for every active reminder, wrapping past midnight"),
		),
		s.handleGetNextDoses,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("record_intake",
			mcp.WithDescription("Record that a dose was taken, skipped or missed"),
			mcp.WithString("reminder", mcp.Required(), mcp.Description("Reminder id, id prefix or medicine name")),
			mcp.WithString("status", mcp.Description("taken, skipped or missed (default: taken)")),
			mcp.WithString("notes", mcp.Description("Optional notes")),
		),
		s.handleRecordIntake,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("intake_history",
			mcp.WithDescription("Recent intake records and a per-day taken/missed/skipped summary"),
			mcp.WithNumber("limit", mcp.Description("Maximum records to return (default 20)")),
			mcp.WithNumber("days", mcp.Description("Days to summarize (default 7)")),
		),
		s.handleIntakeHistory,
	)
}

type reminderView struct {
	ID           string   `json:"id"`
	MedicineName string   `json:"medicine_name"`
	Dosage       string   `json:"dosage,omitempty"`
	Frequency    string   `json:"frequency"`
	TimesOfDay   []string `json:"times_of_day"`
	Notes        string   `json:"notes,omitempty"`
	Active       bool     `json:"active"`
}

type dueView struct {
	ReminderID   string `json:"reminder_id"`
	MedicineName string `json:"medicine_name"`
	TimeOfDay    string `json:"time_of_day"`
	Status       string `json:"status"`
	MinutesLate  int    `json:"minutes_late"`
}

type nextView struct {
	ReminderID   string `json:"reminder_id"`
	MedicineName string `json:"medicine_name"`
	TimeOfDay    string `json:"time_of_day"`
	MinutesUntil int    `json:"minutes_until"`
	DueSoon      bool   `json:"due_soon"`
}

type intakeView struct {
	ID           string `json:"id"`
	ReminderID   string `json:"reminder_id,omitempty"`
	MedicineName string `json:"medicine_name"`
	Status       string `json:"status"`
	TakenAt      string `json:"taken_at"`
	Notes        string `json:"notes,omitempty"`
}

type dayView struct {
	Date    string `json:"date"`
	Taken   int    `json:"taken"`
	Missed  int    `json:"missed"`
	Skipped int    `json:"skipped"`
}

func (s *Server) handleListReminders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reminders, err := s.store.ListReminders(ctx, req.GetBool("active_only", false))
	if err != nil {
		return s.toolError("failed to list reminders", err), nil
	}
	if len(reminders) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}
	out := make([]reminderView, 0, len(reminders))
	for _, r := range reminders {
		out = append(out, toReminderView(r))
	}
	return jsonResult(out), nil
}

func (s *Server) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("medicine_name", "")
	if strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("medicine_name is required"), nil
	}
	var times []string
	if raw := req.GetString("times", ""); raw != "" {
		times = []string{raw}
	}
	rem, err := s.store.AddReminder(ctx, service.AddReminderInput{
		MedicineName: name,
		Dosage:       req.GetString("dosage", ""),
		Frequency:    model.Frequency(req.GetString("frequency", "")),
		TimesOfDay:   times,
		Notes:        req.GetString("notes", ""),
	})
	if err != nil {
		return s.toolError("failed to add reminder", err), nil
	}
	return jsonResult(toReminderView(rem)), nil
}

func (s *Server) handleGetDueDoses(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	board, err := s.store.Board(ctx)
	if err != nil {
		return s.toolError("failed to evaluate doses", err), nil
	}
	if board.Count() == 0 {
		return mcp.NewToolResultText("No doses due right now."), nil
	}
	out := make([]dueView, 0, board.Count())
	for _, e := range board.Due {
		out = append(out, dueView{
			ReminderID:   e.ReminderID,
			MedicineName: e.MedicineName,
			TimeOfDay:    e.TimeOfDay.String(),
			Status:       string(e.Status),
			MinutesLate:  e.MinutesLate,
		})
	}
	return jsonResult(out), nil
}

func (s *Server) handleGetNextDoses(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reminders, err := s.store.ListReminders(ctx, true)
	if err != nil {
		return s.toolError("failed to list reminders", err), nil
	}
	board, err := s.store.Board(ctx)
	if err != nil {
		return s.toolError("failed to evaluate doses", err), nil
	}
	out := make([]nextView, 0, len(reminders))
	for _, r := range reminders {
		ev, ok := board.Evaluations[r.ID]
		if !ok || !ev.Next.HasNext {
			continue
		}
		out = append(out, nextView{
			ReminderID:   r.ID,
			MedicineName: r.MedicineName,
			TimeOfDay:    ev.Next.TimeOfDay.String(),
			MinutesUntil: ev.Next.MinutesUntil,
			DueSoon:      ev.DueSoon,
		})
	}
	if len(out) == 0 {
		return mcp.NewToolResultText("No upcoming doses."), nil
	}
	return jsonResult(out), nil
}

func (s *Server) handleRecordIntake(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := req.GetString("reminder", "")
	if strings.TrimSpace(ref) == "" {
		return mcp.NewToolResultError("reminder is required"), nil
	}
	status := model.IntakeStatus(strings.ToLower(req.GetString("status", string(model.IntakeTaken))))
	rem, err := s.store.FindReminder(ctx, ref)
	if err != nil {
		return s.toolError("failed to find reminder", err), nil
	}
	rec, err := s.store.RecordIntake(ctx, rem.ID, status, req.GetString("notes", ""))
	if err != nil {
		return s.toolError("failed to record intake", err), nil
	}
	return jsonResult(toIntakeView(rec)), nil
}

func (s *Server) handleIntakeHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(req.GetFloat("limit", 20))
	days := int(req.GetFloat("days", float64(history.DefaultDays)))
	if limit <= 0 || days <= 0 {
		return mcp.NewToolResultError("limit and days must be positive"), nil
	}
	records, err := s.store.History(ctx, limit)
	if err != nil {
		return s.toolError("failed to load history", err), nil
	}
	summary, err := s.store.Summary(ctx, days)
	if err != nil {
		return s.toolError("failed to summarize history", err), nil
	}

	out := struct {
		Records   []intakeView `json:"records"`
		Days      []dayView    `json:"days"`
		Adherence float64      `json:"adherence"`
	}{
		Records:   make([]intakeView, 0, len(records)),
		Days:      make([]dayView, 0, len(summary.Days)),
		Adherence: history.Adherence(summary),
	}
	for _, r := range records {
		out.Records = append(out.Records, toIntakeView(r))
	}
	for _, d := range summary.Days {
		out.Days = append(out.Days, dayView{
			Date:    d.Date.Format(time.DateOnly),
			Taken:   d.Taken,
			Missed:  d.Missed,
			Skipped: d.Skipped,
		})
	}
	return jsonResult(out), nil
}

func (s *Server) toolError(prefix string, err error) *mcp.CallToolResult {
	s.log.Warn("mcp tool failed", "op", prefix, "err", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, err))
}

func jsonResult(v any) *mcp.CallToolResult {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	return mcp.NewToolResultText(string(output))
}

func toReminderView(r model.Reminder) reminderView {
	return reminderView{
		ID:           r.ID,
		MedicineName: r.MedicineName,
		Dosage:       r.Dosage,
		Frequency:    string(r.Frequency),
		TimesOfDay:   r.TimesOfDay,
		Notes:        r.Notes,
		Active:       r.Active,
	}
}

func toIntakeView(r model.IntakeRecord) intakeView {
	return intakeView{
		ID:           r.ID,
		ReminderID:   r.ReminderID,
		MedicineName: r.MedicineName,
		Status:       string(r.Status),
		TakenAt:      r.TakenAt.Format(time.RFC3339),
		Notes:        r.Notes,
	}
}
