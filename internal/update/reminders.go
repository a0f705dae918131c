package update

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dosed/internal/dose"
	"github.com/sandeepkv93/dosed/internal/model"
	"github.com/sandeepkv93/dosed/internal/scheduler"
)

// reload pulls reminders, the due board and history from the store and
// rebuilds every derived view. It never carries state over from the previous
// board except the bell's read marks.
func (m *Model) reload() {
	if m.store == nil {
		return
	}
	ctx := context.Background()
	now := m.store.Now()

	reminders, err := m.store.ListReminders(ctx, false)
	if err != nil {
		m.setError(fmt.Errorf("load reminders: %w", err))
		return
	}
	board, err := m.store.Board(ctx)
	if err != nil {
		m.setError(fmt.Errorf("evaluate doses: %w", err))
		return
	}
	records, err := m.store.History(ctx, m.cfg.HistoryLimit)
	if err != nil {
		m.setError(fmt.Errorf("load history: %w", err))
		return
	}
	summary, err := m.store.Summary(ctx, m.cfg.HistoryDays)
	if err != nil {
		m.setError(fmt.Errorf("summarize history: %w", err))
		return
	}

	m.Reminders = reminders
	m.Board = board
	m.Records = records
	m.Summary = summary
	m.LastRefresh = now

	if sig := reminderSignature(reminders); sig != m.armedSignature {
		m.armScheduler(reminders, now)
		m.armedSignature = sig
	}
	m.announceNewlyDue(now)
	m.clampCursors()
}

func (m *Model) armScheduler(reminders []model.Reminder, now time.Time) {
	if m.Scheduler == nil {
		return
	}
	events := scheduler.Plan(reminders, now)
	if err := m.Scheduler.Replace(events); err != nil {
		m.log.Warn("arm scheduler failed", "err", err)
		return
	}
	m.log.Debug("scheduler armed", "events", len(events))
}

// announceNewlyDue notifies once per due entry and forgets entries that have
// left the due window.
func (m *Model) announceNewlyDue(now time.Time) {
	current := make(map[string]bool, len(m.Board.Due))
	for _, e := range m.Board.Due {
		k := e.Key(now)
		current[k] = true
		if m.Bell.Announced[k] {
			continue
		}
		m.Bell.Announced[k] = true
		level := "info"
		if e.Status == dose.StatusOverdue {
			level = "warn"
		}
		m.notify("Time for "+e.MedicineName, fmt.Sprintf("%s dose %s (%s)", e.TimeOfDay.Kitchen(), e.Status, e.MedicineName), level)
	}
	for k := range m.Bell.Announced {
		if !current[k] {
			delete(m.Bell.Announced, k)
		}
	}
	for k := range m.Bell.Read {
		if !current[k] {
			delete(m.Bell.Read, k)
		}
	}
}

func (m Model) UnreadCount() int {
	n := 0
	for _, e := range m.Board.Due {
		if !m.Bell.Read[e.Key(m.LastRefresh)] {
			n++
		}
	}
	return n
}

func (m *Model) markAllRead() int {
	marked := 0
	for _, e := range m.Board.Due {
		k := e.Key(m.LastRefresh)
		if !m.Bell.Read[k] {
			m.Bell.Read[k] = true
			marked++
		}
	}
	return marked
}

func (m *Model) onDoseDue(ev scheduler.DoseEvent) {
	m.log.Info("dose time reached", "reminder", ev.ReminderID, "time", ev.TimeOfDay)
	if m.Scheduler != nil {
		next := ev
		next.TriggerAt = ev.TriggerAt.AddDate(0, 0, 1)
		if err := m.Scheduler.Schedule(next); err != nil {
			m.log.Warn("re-arm dose failed", "err", err)
		}
	}
	m.reload()
	if !m.Status.IsError {
		m.Status = StatusBar{Text: fmt.Sprintf("time for %s (%s)", ev.MedicineName, ev.TimeOfDay)}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.RefreshInterval, func(t time.Time) tea.Msg {
		return RefreshTickMsg{At: t}
	})
}

func waitForDoseCmd(ch <-chan scheduler.DoseEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return DoseDueMsg{Event: ev}
	}
}

func (m *Model) clampCursors() {
	limits := map[View]int{
		ViewReminders: len(m.Reminders),
		ViewDue:       len(m.Board.Due),
		ViewHistory:   len(m.Records),
	}
	for v, n := range limits {
		c := m.Cursor[v]
		if c >= n {
			c = n - 1
		}
		if c < 0 {
			c = 0
		}
		m.Cursor[v] = c
	}
}

func (m *Model) moveCursor(delta int) {
	m.Cursor[m.CurrentView] += delta
	m.clampCursors()
}

func (m Model) selectedReminder() (model.Reminder, bool) {
	i := m.Cursor[ViewReminders]
	if i < 0 || i >= len(m.Reminders) {
		return model.Reminder{}, false
	}
	return m.Reminders[i], true
}

func (m Model) selectedDue() (dose.DueEntry, bool) {
	i := m.Cursor[ViewDue]
	if i < 0 || i >= len(m.Board.Due) {
		return dose.DueEntry{}, false
	}
	return m.Board.Due[i], true
}

func reminderSignature(reminders []model.Reminder) string {
	parts := make([]string, 0, len(reminders))
	for _, r := range reminders {
		parts = append(parts, fmt.Sprintf("%s|%t|%s", r.ID, r.Active, strings.Join(r.TimesOfDay, ",")))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}
