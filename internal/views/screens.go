package views

import (
	"fmt"
	"strings"
)

type ReminderRowData struct {
	ID       string
	Name     string
	Dosage   string
	Times    []string
	NextTime string
	NextIn   string
	DueSoon  bool
	Active   bool
	DueCount int
}

type RemindersPanelData struct {
	Items      []ReminderRowData
	SelectedID string
}

type ReminderDetailData struct {
	ID        string
	Name      string
	Dosage    string
	Frequency string
	Times     []string
	NextTime  string
	NextIn    string
	Active    bool
	NotesView string
	Errors    []string
}

type DueRowData struct {
	Key         string
	Name        string
	Time        string
	Status      string
	MinutesLate int
	Read        bool
}

type BellPanelData struct {
	Unread      int
	Overdue     int
	Entries     []DueRowData
	SelectedKey string
}

type HistoryPanelData struct {
	TableView string
	Count     int
}

type SummaryDayData struct {
	Label   string
	Taken   int
	Missed  int
	Skipped int
}

type SummaryPanelData struct {
	Days      []SummaryDayData
	Adherence float64
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderRemindersPanel(data RemindersPanelData) string {
	var b strings.Builder
	b.WriteString("reminders:\n")
	b.WriteString("actions: [j/k]move [t]take [s]skip [p]pause [x]delete\n")
	if len(data.Items) == 0 {
		b.WriteString("\n(no reminders yet, try /add Aspirin at 08:00)")
		return b.String()
	}
	for _, item := range data.Items {
		cursor := " "
		if item.ID == data.SelectedID {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("\n%s %s %s", cursor, reminderBadge(item), item.Name))
		if item.Dosage != "" {
			b.WriteString(" (" + item.Dosage + ")")
		}
		b.WriteString("\n    " + strings.Join(item.Times, " "))
		if item.Active && item.NextTime != "" {
			b.WriteString(fmt.Sprintf(" | next %s in %s", item.NextTime, item.NextIn))
		}
	}
	return b.String()
}

func reminderBadge(item ReminderRowData) string {
	switch {
	case !item.Active:
		return mutedStyle.Render("[PAUSED]")
	case item.DueCount > 0:
		return dueStyle.Render("[DUE]")
	case item.DueSoon:
		return soonStyle.Render("[SOON]")
	default:
		return "[OK]"
	}
}

func RenderReminderDetail(data ReminderDetailData) string {
	if strings.TrimSpace(data.ID) == "" {
		return "details:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString("details:\n")
	b.WriteString(fmt.Sprintf("medicine: %s\n", data.Name))
	if data.Dosage != "" {
		b.WriteString(fmt.Sprintf("dosage: %s\n", data.Dosage))
	}
	b.WriteString(fmt.Sprintf("frequency: %s\n", data.Frequency))
	b.WriteString(fmt.Sprintf("times: %s\n", strings.Join(data.Times, ", ")))
	switch {
	case !data.Active:
		b.WriteString("status: paused\n")
	case data.NextTime != "":
		b.WriteString(fmt.Sprintf("next dose: %s (in %s)\n", data.NextTime, data.NextIn))
	}
	for _, e := range data.Errors {
		b.WriteString(errorStyle.Render("invalid time: "+e) + "\n")
	}
	if data.NotesView != "" {
		b.WriteString("\nnotes:\n" + data.NotesView)
	}
	b.WriteString(fmt.Sprintf("\nid: %s", data.ID))
	return b.String()
}

func RenderBellPanel(data BellPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("due now: %d unread", data.Unread))
	if data.Overdue > 0 {
		b.WriteString(" | " + overdueStyle.Render(fmt.Sprintf("%d overdue", data.Overdue)))
	}
	b.WriteString("\nactions: [j/k]move [t]take [s]skip [m]mark all read\n")
	if len(data.Entries) == 0 {
		b.WriteString("\nnothing due right now")
		return b.String()
	}
	for _, e := range data.Entries {
		cursor := " "
		if e.Key == data.SelectedKey {
			cursor = ">"
		}
		dot := "*"
		if e.Read {
			dot = " "
		}
		label := dueStyle.Render("DUE")
		if e.Status == "overdue" {
			label = overdueStyle.Render("OVERDUE")
		}
		b.WriteString(fmt.Sprintf("\n%s%s %s %s %s", cursor, dot, label, e.Time, e.Name))
		if e.MinutesLate > 0 {
			b.WriteString(mutedStyle.Render(fmt.Sprintf(" (%dm late)", e.MinutesLate)))
		}
	}
	return b.String()
}

func RenderHistoryPanel(data HistoryPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("history: %d records\n", data.Count))
	if data.Count == 0 {
		b.WriteString("\nno intake recorded yet")
		return b.String()
	}
	b.WriteString(data.TableView)
	return b.String()
}

// RenderSummaryPanel draws one bar per day, taken then missed then skipped.
func RenderSummaryPanel(data SummaryPanelData) string {
	var b strings.Builder
	b.WriteString("last days:\n")
	for _, d := range data.Days {
		bar := takenStyle.Render(strings.Repeat("#", d.Taken)) +
			missedStyle.Render(strings.Repeat("x", d.Missed)) +
			skippedStyle.Render(strings.Repeat("-", d.Skipped))
		b.WriteString(fmt.Sprintf("%s %s\n", d.Label, bar))
	}
	b.WriteString(fmt.Sprintf("\nlegend: %s taken %s missed %s skipped\n",
		takenStyle.Render("#"), missedStyle.Render("x"), skippedStyle.Render("-")))
	b.WriteString(fmt.Sprintf("adherence: %.0f%%", data.Adherence*100))
	return b.String()
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help (%s view):\n%s\n\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
