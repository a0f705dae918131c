package update

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dosed/internal/commands"
	"github.com/sandeepkv93/dosed/internal/service"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}

	ctx := context.Background()
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			rem, err := m.store.AddReminder(ctx, service.AddReminderInput{
				MedicineName: a.Name,
				Dosage:       a.Dosage,
				Frequency:    a.Frequency,
				TimesOfDay:   a.Times,
			})
			if err != nil {
				return commands.Result{}, err
			}
			m.CurrentView = ViewReminders
			return commands.Result{Message: fmt.Sprintf("added %s at %s", rem.MedicineName, strings.Join(rem.TimesOfDay, ", "))}, nil
		},
		Intake: func(a commands.IntakeArgs) (commands.Result, error) {
			rem, err := m.store.FindReminder(ctx, a.Ref)
			if err != nil {
				return commands.Result{}, err
			}
			if _, err := m.store.RecordIntake(ctx, rem.ID, a.Status, ""); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s: %s", rem.MedicineName, a.Status)}, nil
		},
		Toggle: func(a commands.ToggleArgs) (commands.Result, error) {
			rem, err := m.store.FindReminder(ctx, a.Ref)
			if err != nil {
				return commands.Result{}, err
			}
			if _, err := m.store.SetActive(ctx, rem.ID, a.Active); err != nil {
				return commands.Result{}, err
			}
			state := "paused"
			if a.Active {
				state = "resumed"
			}
			return commands.Result{Message: fmt.Sprintf("%s %s", rem.MedicineName, state)}, nil
		},
		Delete: func(a commands.DeleteArgs) (commands.Result, error) {
			rem, err := m.store.FindReminder(ctx, a.Ref)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.store.DeleteReminder(ctx, rem.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("deleted %s", rem.MedicineName)}, nil
		},
		Show: func(s commands.ShowArgs) (commands.Result, error) {
			switch s.Subject {
			case "due":
				m.CurrentView = ViewDue
				if len(m.Board.Due) == 0 {
					return commands.Result{Message: "nothing due right now"}, nil
				}
				labels := make([]string, 0, len(m.Board.Due))
				for _, e := range m.Board.Due {
					labels = append(labels, dueLabel(e))
				}
				return commands.Result{Message: "due: " + strings.Join(labels, "; ")}, nil
			case "history":
				m.CurrentView = ViewHistory
			default:
				m.CurrentView = ViewReminders
			}
			return commands.Result{Message: fmt.Sprintf("showing %s", strings.ToLower(string(m.CurrentView)))}, nil
		},
	})
	if err != nil {
		m.setError(err)
		m.notify("Command Failed", err.Error(), "error")
		return m
	}

	m.reload()
	m.Status = StatusBar{Text: res.Message}
	m.notify("Command", res.Message, "info")
	return m
}
