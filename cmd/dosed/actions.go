package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli"

	"github.com/sandeepkv93/dosed/internal/dose"
	"github.com/sandeepkv93/dosed/internal/history"
	"github.com/sandeepkv93/dosed/internal/mcpserver"
	"github.com/sandeepkv93/dosed/internal/model"
	"github.com/sandeepkv93/dosed/internal/scheduler"
	"github.com/sandeepkv93/dosed/internal/service"
	"github.com/sandeepkv93/dosed/internal/update"
	"github.com/sandeepkv93/dosed/internal/views"
)

var (
	addTimes     string
	addFrequency string
	addDose      string
	addNotes     string

	addFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "times, t",
			Usage:       "comma separated 24h times, e.g. 08:00,20:00 (implies custom frequency)",
			Destination: &addTimes,
		},
		cli.StringFlag{
			Name:        "frequency, f",
			Usage:       "once_daily, twice_daily, three_times_daily or custom (default: once_daily)",
			Destination: &addFrequency,
		},
		cli.StringFlag{
			Name:        "dose, d",
			Usage:       "dosage text, e.g. 500mg",
			Destination: &addDose,
		},
		cli.StringFlag{
			Name:        "notes, n",
			Usage:       "free-form notes (markdown)",
			Destination: &addNotes,
		},
	}

	listAll   bool
	listFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "all, a",
			Usage:       "include paused reminders (default: false)",
			Destination: &listAll,
		},
	}

	takeStatus string
	takeNotes  string
	takeFlags  = []cli.Flag{
		cli.StringFlag{
			Name:        "status, s",
			Usage:       "taken, skipped or missed",
			Value:       string(model.IntakeTaken),
			Destination: &takeStatus,
		},
		cli.StringFlag{
			Name:        "notes, n",
			Usage:       "optional notes",
			Destination: &takeNotes,
		},
	}

	historyLimit int
	historyDays  int
	historyFlags = []cli.Flag{
		cli.IntFlag{
			Name:        "limit, l",
			Usage:       "maximum records to show",
			Value:       20,
			Destination: &historyLimit,
		},
		cli.IntFlag{
			Name:        "days, d",
			Usage:       "days to summarize (default: history_days from config)",
			Destination: &historyDays,
		},
	}
)

func runTUI(ctx *cli.Context) error {
	env, err := openEnv(logToFile)
	if err != nil {
		return err
	}
	defer env.close()

	engine := scheduler.NewEngine(env.cfg.SchedulerBuffer)
	engine.Start()
	defer engine.Stop()

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if env.cfg.DesktopNotifications {
		notifier = update.ExecDesktopNotifier{}
	}
	m := update.NewModelWithConfig(env.svc, engine, notifier, update.RuntimeConfig{
		DesktopNotifications: env.cfg.DesktopNotifications,
		RefreshInterval:      env.cfg.RefreshInterval(),
		HistoryDays:          env.cfg.HistoryDays,
		Logger:               env.logger,
	})
	env.logger.Info("tui started", "version", version)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	if dropped := engine.Dropped(); dropped > 0 {
		env.logger.Warn("scheduler dropped dose events", "count", dropped)
	}
	return nil
}

func due(ctx *cli.Context) error {
	env, err := openEnv(logToStderr)
	if err != nil {
		return err
	}
	defer env.close()

	board, err := env.svc.Board(context.Background())
	if err != nil {
		return err
	}
	w := ctx.App.Writer
	if board.Count() == 0 {
		fmt.Fprintln(w, "dosed: no doses due right now")
		return nil
	}
	rows := make([][]string, 0, board.Count())
	for _, e := range board.Due {
		state := "due"
		if e.Status == dose.StatusOverdue {
			state = "OVERDUE"
		}
		rows = append(rows, []string{e.MedicineName, e.TimeOfDay.String(), state, fmt.Sprintf("%dm", e.MinutesLate)})
	}
	fmt.Fprintf(w, "%d dose(s) due, %d overdue\n", board.Count(), board.OverdueCount())
	fmt.Fprintln(w, renderTable([]string{"Medicine", "Time", "Status", "Late"}, rows))
	return nil
}

func next(ctx *cli.Context) error {
	env, err := openEnv(logToStderr)
	if err != nil {
		return err
	}
	defer env.close()

	c := context.Background()
	reminders, err := env.svc.ListReminders(c, true)
	if err != nil {
		return err
	}
	board, err := env.svc.Board(c)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(reminders))
	for _, r := range reminders {
		ev, ok := board.Evaluations[r.ID]
		if !ok || !ev.Next.HasNext {
			continue
		}
		soon := ""
		if ev.DueSoon {
			soon = "soon"
		}
		rows = append(rows, []string{r.MedicineName, ev.Next.TimeOfDay.String(), formatIn(ev.Next.MinutesUntil), soon})
	}
	w := ctx.App.Writer
	if len(rows) == 0 {
		fmt.Fprintln(w, "dosed: no upcoming doses")
		return nil
	}
	fmt.Fprintln(w, renderTable([]string{"Medicine", "Next", "In", ""}, rows))
	return nil
}

func add(ctx *cli.Context) error {
	name := strings.TrimSpace(strings.Join(ctx.Args(), " "))
	if name == "" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	env, err := openEnv(logToStderr)
	if err != nil {
		return err
	}
	defer env.close()

	var times []string
	if addTimes != "" {
		times = []string{addTimes}
	}
	rem, err := env.svc.AddReminder(context.Background(), service.AddReminderInput{
		MedicineName: name,
		Dosage:       addDose,
		Frequency:    model.Frequency(addFrequency),
		TimesOfDay:   times,
		Notes:        addNotes,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "added %s (%s) at %s [%s]\n",
		rem.MedicineName, rem.Frequency.Label(), strings.Join(rem.TimesOfDay, ", "), shortID(rem.ID))
	return nil
}

func list(ctx *cli.Context) error {
	env, err := openEnv(logToStderr)
	if err != nil {
		return err
	}
	defer env.close()

	reminders, err := env.svc.ListReminders(context.Background(), !listAll)
	if err != nil {
		return err
	}
	w := ctx.App.Writer
	if len(reminders) == 0 {
		fmt.Fprintln(w, "dosed: no reminders found")
		return nil
	}
	rows := make([][]string, 0, len(reminders))
	for _, r := range reminders {
		state := "active"
		if !r.Active {
			state = "paused"
		}
		rows = append(rows, []string{shortID(r.ID), r.MedicineName, r.Dosage, strings.Join(r.TimesOfDay, ", "), state})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "Medicine", "Dose", "Times", "State"}, rows))
	return nil
}

func take(ctx *cli.Context) error {
	ref := strings.TrimSpace(strings.Join(ctx.Args(), " "))
	if ref == "" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	env, err := openEnv(logToStderr)
	if err != nil {
		return err
	}
	defer env.close()

	c := context.Background()
	rem, err := env.svc.FindReminder(c, ref)
	if err != nil {
		if errors.Is(err, service.ErrAmbiguous) {
			return fmt.Errorf("%w; use the reminder id from `dosed list`", err)
		}
		return err
	}
	rec, err := env.svc.RecordIntake(c, rem.ID, model.IntakeStatus(strings.ToLower(takeStatus)), takeNotes)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "%s marked %s at %s\n", rec.MedicineName, rec.Status, rec.TakenAt.Local().Format("15:04"))
	return nil
}

func showHistory(ctx *cli.Context) error {
	env, err := openEnv(logToStderr)
	if err != nil {
		return err
	}
	defer env.close()

	days := historyDays
	if days <= 0 {
		days = env.cfg.HistoryDays
	}
	c := context.Background()
	records, err := env.svc.History(c, historyLimit)
	if err != nil {
		return err
	}
	summary, err := env.svc.Summary(c, days)
	if err != nil {
		return err
	}

	w := ctx.App.Writer
	if len(records) == 0 {
		fmt.Fprintln(w, "dosed: no intake history yet")
	} else {
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{r.TakenAt.Local().Format("Mon 02 Jan 15:04"), r.MedicineName, string(r.Status), r.Notes})
		}
		fmt.Fprintln(w, renderTable([]string{"When", "Medicine", "Status", "Notes"}, rows))
	}

	summaryDays := make([]views.SummaryDayData, 0, len(summary.Days))
	for _, d := range summary.Days {
		summaryDays = append(summaryDays, views.SummaryDayData{Label: d.Label(), Taken: d.Taken, Missed: d.Missed, Skipped: d.Skipped})
	}
	fmt.Fprintln(w, views.RenderSummaryPanel(views.SummaryPanelData{
		Days:      summaryDays,
		Adherence: history.Adherence(summary),
	}))
	return nil
}

func serveMCP(ctx *cli.Context) error {
	// stdout carries the protocol, so logs stay on stderr.
	env, err := openEnv(logToStderr)
	if err != nil {
		return err
	}
	defer env.close()

	env.logger.Info("mcp server starting", "version", version)
	return mcpserver.NewServer(env.svc, version, env.logger).Serve()
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

func formatIn(minutes int) string {
	d := time.Duration(minutes) * time.Minute
	if d < time.Hour {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
