package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dosed/internal/model"
	"github.com/sandeepkv93/dosed/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd()}
	if m.Scheduler != nil {
		cmds = append(cmds, waitForDoseCmd(m.Scheduler.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if key.Matches(typed, m.Keys.Help) {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed), nil
		}

		switch {
		case key.Matches(typed, m.Keys.Quit):
			m.Quitting = true
			return m, tea.Quit
		case key.Matches(typed, m.Keys.Palette):
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.SetValue("")
			m.commandInput.Focus()
			m.Status = StatusBar{Text: "command palette active"}
		case key.Matches(typed, m.Keys.Reminders):
			m.CurrentView = ViewReminders
		case key.Matches(typed, m.Keys.Due):
			m.CurrentView = ViewDue
		case key.Matches(typed, m.Keys.History):
			m.CurrentView = ViewHistory
		case key.Matches(typed, m.Keys.Help):
			m.HelpVisible = !m.HelpVisible
		case key.Matches(typed, m.Keys.Up):
			m.moveCursor(-1)
		case key.Matches(typed, m.Keys.Down):
			m.moveCursor(1)
		case key.Matches(typed, m.Keys.Take):
			m.recordSelected(model.IntakeTaken)
		case key.Matches(typed, m.Keys.Skip):
			m.recordSelected(model.IntakeSkipped)
		case key.Matches(typed, m.Keys.Pause):
			m.toggleSelected()
		case key.Matches(typed, m.Keys.Delete):
			m.deleteSelected()
		case key.Matches(typed, m.Keys.MarkRead):
			n := m.markAllRead()
			m.Status = StatusBar{Text: fmt.Sprintf("marked %d dose(s) read", n)}
		}
		return m, nil
	case RefreshTickMsg:
		m.reload()
		return m, m.tickCmd()
	case DoseDueMsg:
		m.onDoseDue(typed.Event)
		if m.Scheduler != nil {
			return m, waitForDoseCmd(m.Scheduler.C())
		}
		return m, nil
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.setError(typed.Err)
		if typed.Err != nil {
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	m.syncBubbleData()

	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewReminders:
		leftPane = m.renderRemindersView()
		rightPane = m.renderDetailPane()
	case ViewDue:
		leftPane = m.renderBellView()
		rightPane = m.renderDetailPane()
	case ViewHistory:
		leftPane = m.renderHistoryView()
		rightPane = m.renderSummaryView()
	}
	rightPane += m.renderCommandPalette() + m.renderHelpIfVisible()

	return views.RenderApp(views.AppData{
		Header: fmt.Sprintf("dosed | view: %s | due: %d unread | %s",
			m.CurrentView, m.UnreadCount(), m.LastRefresh.Format("Mon 15:04")),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: m.renderNotificationsView(),
		Footer:       "keys: 1 reminders | 2 due | 3 history | / cmd | ? help | q quit",
	})
}

func isKnownView(v View) bool {
	switch v {
	case ViewReminders, ViewDue, ViewHistory:
		return true
	default:
		return false
	}
}
