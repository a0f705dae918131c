package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/sandeepkv93/dosed/internal/dose"
	"github.com/sandeepkv93/dosed/internal/history"
	"github.com/sandeepkv93/dosed/internal/views"
)

// syncBubbleData copies model state into the bubbles components before
// rendering.
func (m *Model) syncBubbleData() {
	rows := make([]table.Row, 0, len(m.Records))
	for _, r := range m.Records {
		rows = append(rows, table.Row{
			r.TakenAt.In(m.LastRefresh.Location()).Format("Jan 02 15:04"),
			r.MedicineName,
			string(r.Status),
		})
	}
	m.historyTable.SetRows(rows)
	m.historyTable.SetCursor(m.Cursor[ViewHistory])

	notes := ""
	if id := m.detailReminderID(); id != "" {
		for _, r := range m.Reminders {
			if r.ID == id {
				notes = views.RenderMarkdown(r.Notes, m.notesViewport.Width)
				break
			}
		}
	}
	m.notesViewport.SetContent(notes)
}

func (m Model) renderRemindersView() string {
	items := make([]views.ReminderRowData, 0, len(m.Reminders))
	for _, r := range m.Reminders {
		row := views.ReminderRowData{
			ID:     r.ID,
			Name:   r.MedicineName,
			Dosage: r.Dosage,
			Times:  r.TimesOfDay,
			Active: r.Active,
		}
		if ev, ok := m.Board.Evaluations[r.ID]; ok {
			row.DueSoon = ev.DueSoon
			row.DueCount = len(ev.Due)
			if ev.Next.HasNext {
				row.NextTime = ev.Next.TimeOfDay.Kitchen()
				row.NextIn = formatMinutes(ev.Next.MinutesUntil)
			}
		}
		items = append(items, row)
	}
	selected := ""
	if r, ok := m.selectedReminder(); ok {
		selected = r.ID
	}
	return views.RenderRemindersPanel(views.RemindersPanelData{Items: items, SelectedID: selected})
}

func (m Model) detailReminderID() string {
	switch m.CurrentView {
	case ViewDue:
		if e, ok := m.selectedDue(); ok {
			return e.ReminderID
		}
	case ViewReminders:
		if r, ok := m.selectedReminder(); ok {
			return r.ID
		}
	}
	return ""
}

func (m Model) renderDetailPane() string {
	id := m.detailReminderID()
	for _, r := range m.Reminders {
		if r.ID != id {
			continue
		}
		data := views.ReminderDetailData{
			ID:        r.ID,
			Name:      r.MedicineName,
			Dosage:    r.Dosage,
			Frequency: r.Frequency.Label(),
			Times:     r.TimesOfDay,
			Active:    r.Active,
			NotesView: m.notesViewport.View(),
		}
		if strings.TrimSpace(r.Notes) == "" {
			data.NotesView = ""
		}
		if ev, ok := m.Board.Evaluations[r.ID]; ok {
			if ev.Next.HasNext {
				data.NextTime = ev.Next.TimeOfDay.Kitchen()
				data.NextIn = formatMinutes(ev.Next.MinutesUntil)
			}
			for _, err := range ev.Errors {
				data.Errors = append(data.Errors, err.Error())
			}
		}
		return views.RenderReminderDetail(data)
	}
	return views.RenderReminderDetail(views.ReminderDetailData{})
}

func (m Model) renderBellView() string {
	entries := make([]views.DueRowData, 0, len(m.Board.Due))
	for _, e := range m.Board.Due {
		entries = append(entries, views.DueRowData{
			Key:         e.Key(m.LastRefresh),
			Name:        e.MedicineName,
			Time:        e.TimeOfDay.Kitchen(),
			Status:      string(e.Status),
			MinutesLate: e.MinutesLate,
			Read:        m.Bell.Read[e.Key(m.LastRefresh)],
		})
	}
	selected := ""
	if e, ok := m.selectedDue(); ok {
		selected = e.Key(m.LastRefresh)
	}
	return views.RenderBellPanel(views.BellPanelData{
		Unread:      m.UnreadCount(),
		Overdue:     m.Board.OverdueCount(),
		Entries:     entries,
		SelectedKey: selected,
	})
}

func (m Model) renderHistoryView() string {
	return views.RenderHistoryPanel(views.HistoryPanelData{
		TableView: m.historyTable.View(),
		Count:     len(m.Records),
	})
}

func (m Model) renderSummaryView() string {
	days := make([]views.SummaryDayData, 0, len(m.Summary.Days))
	for _, d := range m.Summary.Days {
		days = append(days, views.SummaryDayData{
			Label:   d.Label(),
			Taken:   d.Taken,
			Missed:  d.Missed,
			Skipped: d.Skipped,
		})
	}
	return views.RenderSummaryPanel(views.SummaryPanelData{
		Days:      days,
		Adherence: history.Adherence(m.Summary),
	})
}

func (m Model) renderCommandPalette() string {
	out := views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
	if out == "" {
		return ""
	}
	return "\n\n" + out
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    time.Now(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
	if m.DesktopEnabled && m.notifier != nil {
		if err := m.notifier.Send(n); err != nil {
			m.log.Warn("desktop notification failed", "err", err)
		}
	}
}

func formatMinutes(total int) string {
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	if total%60 == 0 {
		return fmt.Sprintf("%dh", total/60)
	}
	return fmt.Sprintf("%dh%02dm", total/60, total%60)
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// dueLabel is used by the palette "show due" summary.
func dueLabel(e dose.DueEntry) string {
	return fmt.Sprintf("%s %s (%s)", e.TimeOfDay, e.MedicineName, e.Status)
}
