package update

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/dosed/internal/dose"
	"github.com/sandeepkv93/dosed/internal/history"
	"github.com/sandeepkv93/dosed/internal/model"
	"github.com/sandeepkv93/dosed/internal/scheduler"
	"github.com/sandeepkv93/dosed/internal/service"
)

type View string

const (
	ViewReminders View = "Reminders"
	ViewDue       View = "Due"
	ViewHistory   View = "History"
)

// Store is the slice of the service layer the TUI drives.
type Store interface {
	Now() time.Time
	Board(ctx context.Context) (dose.Board, error)
	ListReminders(ctx context.Context, activeOnly bool) ([]model.Reminder, error)
	AddReminder(ctx context.Context, in service.AddReminderInput) (model.Reminder, error)
	FindReminder(ctx context.Context, ref string) (model.Reminder, error)
	SetActive(ctx context.Context, id string, active bool) (model.Reminder, error)
	DeleteReminder(ctx context.Context, id string) error
	RecordIntake(ctx context.Context, reminderID string, status model.IntakeStatus, notes string) (model.IntakeRecord, error)
	History(ctx context.Context, limit int) ([]model.IntakeRecord, error)
	Summary(ctx context.Context, days int) (history.Summary, error)
}

type RuntimeConfig struct {
	DesktopNotifications bool
	RefreshInterval      time.Duration
	HistoryDays          int
	HistoryLimit         int
	Logger               *slog.Logger
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		RefreshInterval: time.Minute,
		HistoryDays:     history.DefaultDays,
		HistoryLimit:    100,
	}
}

type StatusBar struct {
	Text    string
	IsError bool
}

type KeyMap struct {
	Reminders key.Binding
	Due       key.Binding
	History   key.Binding
	Up        key.Binding
	Down      key.Binding
	Take      key.Binding
	Skip      key.Binding
	Pause     key.Binding
	Delete    key.Binding
	MarkRead  key.Binding
	Palette   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Reminders: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "reminders")),
		Due:       key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "due now")),
		History:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "history")),
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Take:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "mark taken")),
		Skip:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "mark skipped")),
		Pause:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume")),
		Delete:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete reminder")),
		MarkRead:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mark all read")),
		Palette:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command palette")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// BellState tracks which due entries the user has already seen. Keys are
// dose.DueEntry.Key values, so read marks survive refresh ticks.
type BellState struct {
	Read      map[string]bool
	Announced map[string]bool
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type Model struct {
	CurrentView   View
	Reminders     []model.Reminder
	Board         dose.Board
	Records       []model.IntakeRecord
	Summary       history.Summary
	LastRefresh   time.Time
	Cursor        map[View]int
	Bell          BellState
	Palette       CommandPaletteState
	HelpVisible   bool
	Notifications []Notification
	Status        StatusBar
	Keys          KeyMap
	Quitting      bool
	LastError     error

	Scheduler      *scheduler.Engine
	DesktopEnabled bool
	notifier       DesktopNotifier
	store          Store
	cfg            RuntimeConfig
	log            *slog.Logger
	armedSignature string

	historyTable  table.Model
	commandInput  textinput.Model
	helpModel     help.Model
	notesViewport viewport.Model
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// RefreshTickMsg recomputes the board from scratch.
type RefreshTickMsg struct {
	At time.Time
}

type DoseDueMsg struct {
	Event scheduler.DoseEvent
}

func NewModel(store Store) Model {
	return NewModelWithConfig(store, nil, nil, DefaultRuntimeConfig())
}

func NewModelWithConfig(store Store, engine *scheduler.Engine, notifier DesktopNotifier, cfg RuntimeConfig) Model {
	defaults := DefaultRuntimeConfig()
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaults.RefreshInterval
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = defaults.HistoryDays
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaults.HistoryLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NoopDesktopNotifier{}
	}

	m := Model{
		CurrentView: ViewReminders,
		Cursor:      map[View]int{},
		Bell: BellState{
			Read:      make(map[string]bool),
			Announced: make(map[string]bool),
		},
		Keys:           DefaultKeyMap(),
		Scheduler:      engine,
		DesktopEnabled: cfg.DesktopNotifications,
		notifier:       notifier,
		store:          store,
		cfg:            cfg,
		log:            logger,
	}
	m.initBubbleComponents()
	m.reload()
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "When", Width: 16},
		{Title: "Medicine", Width: 20},
		{Title: "Status", Width: 8},
	}
	m.historyTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(12))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.helpModel = help.New()
	m.notesViewport = viewport.New(54, 8)
}
