package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
	"github.com/grindflow/grindflow/internal/tui/commands"
	"github.com/grindflow/grindflow/internal/tui/input"
	"github.com/grindflow/grindflow/internal/tui/theme"
)

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.logger.Debug("key", "key", msg.String(), "mode", int(m.mode))

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case ModePrompt:
		return m.handlePromptKeys(msg)
	case ModeConfirm:
		return m.handleConfirmKeys(msg)
	case ModeHelp:
		m.mode = ModeNormal
		m.overlay.Hide()
		return m, nil
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	// Day navigation
	case "h", "left":
		return m.setSelected(m.selected.AddDate(0, 0, -1))
	case "l", "right":
		return m.setSelected(m.selected.AddDate(0, 0, 1))
	case "k", "up":
		return m.setSelected(m.selected.AddDate(0, 0, -7))
	case "j", "down":
		return m.setSelected(m.selected.AddDate(0, 0, 7))

	// Month navigation
	case "[", "H", "pgup":
		return m.setSelected(addMonths(m.selected, -1))
	case "]", "L", "pgdown":
		return m.setSelected(addMonths(m.selected, 1))
	case "t":
		return m.setSelected(m.now())

	// Agenda selection
	case "tab", "n":
		if n := len(m.agendaItems()); n > 0 {
			m.agendaIdx = (m.agendaIdx + 1) % n
		}
	case "shift+tab", "p":
		if n := len(m.agendaItems()); n > 0 {
			m.agendaIdx = (m.agendaIdx - 1 + n) % n
		}

	// Actions
	case " ", "x":
		o, ok := m.selectedOccurrence()
		if !ok || m.repo == nil {
			return m, nil
		}
		return m, commands.ToggleTodo(m.repo, o.Todo.ID, o.Day)
	case "d", "delete":
		o, ok := m.selectedOccurrence()
		if !ok {
			return m, nil
		}
		m.pending = &o
		m.mode = ModeConfirm
		m.overlay.Show()
	case "y":
		text := m.agendaCopyText()
		if text == "" {
			m.setStatus("Nothing to copy", false)
			return m, commands.ClearStatusAfter(statusTTL)
		}
		return m, commands.CopyText(text, "agenda")
	case "r":
		if m.repo == nil {
			return m, nil
		}
		m.loading = true
		return m, m.loadMonth()
	case "a", "/":
		m.mode = ModePrompt
		m.prompt.Reset()
		if msg.String() == "/" {
			m.prompt.SetValue("/")
			m.prompt.CursorEnd()
		}
		return m, m.prompt.Focus()
	case "?":
		m.mode = ModeHelp
		m.overlay.Show()
	}
	return m, nil
}

// handleConfirmKeys handles the delete confirmation overlay.
func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.pending
	m.mode = ModeNormal
	m.pending = nil
	m.overlay.Hide()

	switch msg.String() {
	case "y", "Y", "enter":
		if pending == nil || m.repo == nil {
			return m, nil
		}
		return m, commands.DeleteTodo(m.repo, pending.Todo.ID, pending.Todo.Title)
	}
	return m, nil
}

// handlePromptKeys handles keys while the prompt is focused.
func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.prompt.Blur()
		m.prompt.Reset()
		return m, nil
	case "tab":
		if value, ok := input.PromptAutocomplete(m.prompt.Value(), promptCommands); ok {
			m.prompt.SetValue(value)
			m.prompt.CursorEnd()
		}
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.prompt.Value())
		m.mode = ModeNormal
		m.prompt.Blur()
		m.prompt.Reset()
		if value == "" {
			return m, nil
		}
		return m.submitPrompt(value)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// submitPrompt runs a slash command or adds a todo from quick-add text.
func (m Model) submitPrompt(value string) (tea.Model, tea.Cmd) {
	if !strings.HasPrefix(value, "/") {
		return m.quickAdd(value)
	}

	name, arg, _ := strings.Cut(value, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/today":
		return m.setSelected(m.now())
	case "/goto":
		return m.gotoDate(arg)
	case "/theme":
		if !theme.IsAvailable(arg) {
			return m.fail(fmt.Errorf("unknown theme %q (available: %s)", arg, strings.Join(theme.Available(), ", ")))
		}
		m.setTheme(arg)
		m.setStatus("Theme "+arg, false)
		return m, commands.ClearStatusAfter(statusTTL)
	case "/help":
		m.mode = ModeHelp
		m.overlay.Show()
		return m, nil
	}
	return m.fail(fmt.Errorf("unknown command %s", name))
}

// gotoDate accepts a month (YYYY-MM) or anything a relative date accepts.
func (m Model) gotoDate(arg string) (tea.Model, tea.Cmd) {
	now := m.now()
	if year, month, err := dateutil.ParseMonth(arg, now); err == nil {
		day := m.selected.Day()
		if year == now.Year() && month == now.Month() {
			day = now.Day()
		}
		lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, m.loc).Day()
		return m.setSelected(time.Date(year, month, min(day, lastDay), 0, 0, 0, 0, m.loc))
	}
	day, err := dateutil.ParseRelativeDate(arg, now)
	if err != nil {
		return m.fail(fmt.Errorf("goto %q: %w", arg, err))
	}
	return m.setSelected(day)
}

func (m Model) quickAdd(value string) (tea.Model, tea.Cmd) {
	p, err := input.ParseQuickAdd(value)
	if err != nil {
		return m.fail(err)
	}
	if p.Date == "" {
		p.Date = schedule.DayKey(m.selected)
	}
	t, err := todo.NewAt(p, m.now())
	if err != nil {
		return m.fail(err)
	}
	if m.repo == nil {
		return m.fail(errors.New("no database open"))
	}
	return m, commands.CreateTodo(m.repo, t)
}

func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	return m, func() tea.Msg { return commands.ErrMsg{Err: err} }
}
