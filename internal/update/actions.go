package update

import (
	"context"
	"fmt"

	"github.com/sandeepkv93/dosed/internal/model"
)

// recordSelected logs an intake for the reminder under the cursor. In the
// Due view the entry is also marked read.
func (m *Model) recordSelected(status model.IntakeStatus) {
	var (
		reminderID string
		name       string
	)
	switch m.CurrentView {
	case ViewDue:
		e, ok := m.selectedDue()
		if !ok {
			m.Status = StatusBar{Text: "nothing due to record", IsError: true}
			return
		}
		reminderID, name = e.ReminderID, e.MedicineName
		m.Bell.Read[e.Key(m.LastRefresh)] = true
	case ViewReminders:
		r, ok := m.selectedReminder()
		if !ok {
			m.Status = StatusBar{Text: "no reminder selected", IsError: true}
			return
		}
		reminderID, name = r.ID, r.MedicineName
	default:
		return
	}

	if _, err := m.store.RecordIntake(context.Background(), reminderID, status, ""); err != nil {
		m.setError(err)
		return
	}
	m.reload()
	m.Status = StatusBar{Text: fmt.Sprintf("%s: %s", name, status)}
}

func (m *Model) toggleSelected() {
	r, ok := m.selectedReminder()
	if !ok || m.CurrentView != ViewReminders {
		return
	}
	updated, err := m.store.SetActive(context.Background(), r.ID, !r.Active)
	if err != nil {
		m.setError(err)
		return
	}
	m.reload()
	state := "resumed"
	if !updated.Active {
		state = "paused"
	}
	m.Status = StatusBar{Text: fmt.Sprintf("%s %s", updated.MedicineName, state)}
}

func (m *Model) deleteSelected() {
	r, ok := m.selectedReminder()
	if !ok || m.CurrentView != ViewReminders {
		return
	}
	if err := m.store.DeleteReminder(context.Background(), r.ID); err != nil {
		m.setError(err)
		return
	}
	m.reload()
	m.Status = StatusBar{Text: fmt.Sprintf("deleted %s", r.MedicineName)}
}

func (m *Model) setError(err error) {
	m.LastError = err
	if err == nil {
		return
	}
	m.log.Error("tui action failed", "err", err)
	m.Status = StatusBar{Text: err.Error(), IsError: true}
}
