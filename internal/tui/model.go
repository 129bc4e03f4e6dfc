package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grindflow/grindflow/internal/config"
	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
	"github.com/grindflow/grindflow/internal/tui/commands"
	"github.com/grindflow/grindflow/internal/tui/input"
	"github.com/grindflow/grindflow/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModePrompt
	ModeConfirm
	ModeHelp
)

const (
	statusTTL  = 3 * time.Second
	errorTTL   = 5 * time.Second
	tickPeriod = time.Minute
)

var promptCommands = []input.PromptCommand{
	{Name: "/goto", Description: "Jump to a month (YYYY-MM) or a day"},
	{Name: "/today", Description: "Select today"},
	{Name: "/theme", Description: "Switch color theme"},
	{Name: "/help", Description: "Show key bindings"},
}

// Model is the main TUI model: a month grid with an agenda for the
// selected day.
type Model struct {
	// Dependencies
	repo     todo.Repository
	config   *config.Config
	clock    schedule.Clock
	loc      *time.Location
	logger   *slog.Logger
	grouper  *schedule.Grouper
	detector *schedule.Detector

	// Theme and styles
	theme  *theme.Theme
	styles *Styles

	// Calendar state
	year        int
	month       time.Month
	selected    time.Time // local midnight
	todos       []*todo.Todo
	grid        schedule.Month
	occurrences map[string]todo.Occurrence // keyed by occurrence ID
	agendaIdx   int
	loading     bool

	// Interaction
	mode    Mode
	prompt  textinput.Model
	overlay OverlayModel
	pending *todo.Occurrence // awaiting delete confirmation

	// Terminal dimensions
	width  int
	height int

	// Messages
	statusMsg  string
	statusErr  bool
	statusTime time.Time
}

// ModelOption configures optional model behavior.
type ModelOption func(*Model)

// WithClock sets the source of "now".
func WithClock(c schedule.Clock) ModelOption {
	return func(m *Model) { m.clock = c }
}

// WithLocation sets the time zone days are compared in.
func WithLocation(loc *time.Location) ModelOption {
	return func(m *Model) { m.loc = loc }
}

// WithLogger sets the logger for excluded records and key events.
func WithLogger(l *slog.Logger) ModelOption {
	return func(m *Model) { m.logger = l }
}

// New creates a new TUI model showing the current month.
func New(repo todo.Repository, cfg *config.Config, opts ...ModelOption) *Model {
	ti := textinput.New()
	ti.Placeholder = "Title 09:00-10:00 @tomorrow !high #work  or /goto 2025-03"
	ti.CharLimit = 256

	t, err := theme.Load(cfg.UI.Theme)
	if err != nil {
		t, _ = theme.Load(theme.DefaultName)
	}

	m := &Model{
		repo:    repo,
		config:  cfg,
		clock:   schedule.SystemClock{},
		loc:     time.Local,
		logger:  slog.Default(),
		theme:   t,
		styles:  NewStyles(t),
		mode:    ModeNormal,
		prompt:  ti,
		overlay: NewOverlayModel(),
		loading: repo != nil,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.grouper = schedule.NewGrouper(m.clock, m.loc, m.logger)
	m.detector = schedule.NewDetector(m.loc, m.logger)
	m.selected = dateutil.TruncateToDay(m.now())
	m.year, m.month = m.selected.Year(), m.selected.Month()
	m.overlay.SetColors(m.styles.ModalBgColor, m.styles.ModalBorderColor)
	m.rebuild()
	return m
}

// Init loads the current month and starts the minute tick.
func (m Model) Init() tea.Cmd {
	if m.repo == nil {
		return nil
	}
	return tea.Batch(m.loadMonth(), commands.Tick(tickPeriod))
}

func (m Model) now() time.Time {
	return m.clock.Now().In(m.loc)
}

func (m Model) loadMonth() tea.Cmd {
	return commands.LoadMonth(m.repo, m.year, m.month, m.loc)
}

// rebuild expands loaded todos into occurrences and lays them on the grid.
func (m *Model) rebuild() {
	first, last := dateutil.MonthGridRange(m.year, m.month, m.loc)
	occ := todo.Expand(m.todos, first, last)

	m.occurrences = make(map[string]todo.Occurrence, len(occ))
	for _, o := range occ {
		m.occurrences[o.ID()] = o
	}
	m.grid = m.grouper.MonthMatrix(m.year, m.month, todo.OccurrenceItems(occ))

	if n := len(m.agendaItems()); m.agendaIdx >= n {
		m.agendaIdx = max(0, n-1)
	}
}

// selectedCell returns the grid cell of the selected day.
func (m Model) selectedCell() (schedule.Cell, bool) {
	i := m.grid.Index(schedule.DayKey(m.selected))
	if i < 0 {
		return schedule.Cell{}, false
	}
	return m.grid.Cells[i], true
}

// agendaItems lists the selected day's items ordered by start time.
func (m Model) agendaItems() []schedule.Item {
	cell, ok := m.selectedCell()
	if !ok {
		return nil
	}
	return cell.Items
}

// selectedOccurrence returns the occurrence under the agenda cursor.
func (m Model) selectedOccurrence() (todo.Occurrence, bool) {
	items := m.agendaItems()
	if m.agendaIdx < 0 || m.agendaIdx >= len(items) {
		return todo.Occurrence{}, false
	}
	o, ok := m.occurrences[items[m.agendaIdx].ID]
	return o, ok
}

// hasConflict reports whether it overlaps another item on its own day.
func (m Model) hasConflict(it schedule.Item, day []schedule.Item) bool {
	conflicts, err := m.detector.Detect(schedule.Slot{Date: it.Date, Start: it.Start, End: it.End}, day, it.ID)
	return err == nil && len(conflicts) > 0
}

// setSelected moves the selection, switching months when it leaves the
// displayed one.
func (m Model) setSelected(day time.Time) (Model, tea.Cmd) {
	day = dateutil.TruncateToDay(day.In(m.loc))
	sameDay := day.Equal(m.selected)
	m.selected = day
	if !sameDay {
		m.agendaIdx = 0
	}
	if day.Year() == m.year && day.Month() == m.month {
		return m, nil
	}
	m.year, m.month = day.Year(), day.Month()
	m.rebuild()
	if m.repo == nil {
		return m, nil
	}
	m.loading = true
	return m, m.loadMonth()
}

// addMonths shifts day by n months, clamping to the last day of the
// target month instead of overflowing into the next one.
func addMonths(day time.Time, n int) time.Time {
	first := time.Date(day.Year(), day.Month()+time.Month(n), 1, 0, 0, 0, 0, day.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(day.Day(), lastDay), 0, 0, 0, 0, day.Location())
}

func (m *Model) setStatus(msg string, isErr bool) {
	ttl := statusTTL
	if isErr {
		ttl = errorTTL
	}
	m.statusMsg = msg
	m.statusErr = isErr
	m.statusTime = time.Now().Add(ttl)
}

func (m *Model) setTheme(name string) {
	t, err := theme.Load(name)
	if err != nil {
		return
	}
	m.theme = t
	m.styles = NewStyles(t)
	m.overlay.SetColors(m.styles.ModalBgColor, m.styles.ModalBorderColor)
}
