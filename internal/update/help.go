package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/dosed/internal/views"
)

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return "\n\n" + m.renderHelpView()
}

func (m Model) renderHelpView() string {
	global := m.globalBindings()
	contextual := m.viewBindings()
	var plain []string
	for _, b := range contextual {
		plain = append(plain, fmt.Sprintf("- %s: %s", b.Help().Key, b.Help().Desc))
	}
	if len(plain) == 0 {
		plain = append(plain, "- no contextual bindings")
	}
	hm := m.helpModel
	hm.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView:    hm.View(helpKeyMap{short: global, full: [][]key.Binding{global, contextual}}),
	})
}

func (m Model) globalBindings() []key.Binding {
	k := m.Keys
	return []key.Binding{k.Reminders, k.Due, k.History, k.Palette, k.MarkRead, k.Help, k.Quit}
}

func (m Model) viewBindings() []key.Binding {
	k := m.Keys
	switch m.CurrentView {
	case ViewReminders:
		return []key.Binding{k.Down, k.Up, k.Take, k.Skip, k.Pause, k.Delete}
	case ViewDue:
		return []key.Binding{k.Down, k.Up, k.Take, k.Skip, k.MarkRead}
	case ViewHistory:
		return []key.Binding{k.Down, k.Up}
	default:
		return nil
	}
}
