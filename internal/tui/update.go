package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prompt.Width = max(10, msg.Width-8)
		return m, nil

	case commands.MonthLoadedMsg:
		// Ignore results for a month the user already navigated away from.
		if msg.Year != m.year || msg.Month != m.month {
			return m, nil
		}
		m.todos = msg.Todos
		m.loading = false
		m.rebuild()
		m.logger.Debug("month loaded", "month", fmt.Sprintf("%d-%02d", msg.Year, msg.Month), "todos", len(msg.Todos))
		return m, nil

	case commands.TodoCreatedMsg:
		status := "Added " + msg.Todo.Title
		if len(msg.Conflicts) > 0 {
			status = fmt.Sprintf("Added %s (overlaps %s)", msg.Todo.Title, schedule.FormatConflict(msg.Conflicts[0]))
		}
		m.setStatus(status, false)
		return m, tea.Batch(m.loadMonth(), commands.ClearStatusAfter(statusTTL))

	case commands.TodoToggledMsg:
		state := "open"
		if msg.Todo.CompletedOn(msg.Day) {
			state = "done"
		}
		m.setStatus(fmt.Sprintf("%s marked %s", msg.Todo.Title, state), false)
		return m, tea.Batch(m.loadMonth(), commands.ClearStatusAfter(statusTTL))

	case commands.TodoDeletedMsg:
		m.setStatus("Deleted "+msg.Title, false)
		return m, tea.Batch(m.loadMonth(), commands.ClearStatusAfter(statusTTL))

	case commands.ErrMsg:
		m.loading = false
		m.logger.Warn("tui command failed", "err", msg.Err)
		m.setStatus(fmt.Sprintf("Error: %v", msg.Err), true)
		return m, commands.ClearStatusAfter(errorTTL)

	case commands.StatusMsgCmd:
		m.setStatus(msg.Msg, false)
		return m, commands.ClearStatusAfter(statusTTL)

	case commands.ClearStatusMsg:
		if time.Now().After(m.statusTime) {
			m.statusMsg = ""
			m.statusErr = false
		}
		return m, nil

	case commands.TickMsg:
		// Today and past highlighting depend on the clock.
		m.rebuild()
		return m, commands.Tick(tickPeriod)
	}

	if m.mode == ModePrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}
