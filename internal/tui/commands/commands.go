// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

// MonthLoadedMsg is sent when the todos visible in a month grid are loaded.
type MonthLoadedMsg struct {
	Year  int
	Month time.Month
	Todos []*todo.Todo
}

// TodoCreatedMsg is sent after a todo has been stored. Conflicts is only
// non-empty under the warn policy.
type TodoCreatedMsg struct {
	Todo      *todo.Todo
	Conflicts []schedule.Conflict
}

// TodoToggledMsg is sent after completion was flipped for one day.
type TodoToggledMsg struct {
	Todo *todo.Todo
	Day  string
}

// TodoDeletedMsg is sent after a todo was removed.
type TodoDeletedMsg struct {
	ID    string
	Title string
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// TickMsg refreshes time dependent state such as today and past items.
type TickMsg time.Time

// LoadMonth loads every todo occurring in the 42-day grid of year/month.
func LoadMonth(repo todo.Repository, year int, month time.Month, loc *time.Location) tea.Cmd {
	return func() tea.Msg {
		first, last := dateutil.MonthGridRange(year, month, loc)
		todos, err := repo.ListTodosByDateRange(context.Background(), first, last)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("loading %s %d: %w", month, year, err)}
		}
		return MonthLoadedMsg{Year: year, Month: month, Todos: todos}
	}
}

// CreateTodo stores a new todo.
func CreateTodo(repo todo.Repository, t *todo.Todo) tea.Cmd {
	return func() tea.Msg {
		conflicts, err := repo.CreateTodo(context.Background(), t)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return TodoCreatedMsg{Todo: t, Conflicts: conflicts}
	}
}

// ToggleTodo flips completion of a todo on day.
func ToggleTodo(repo todo.Repository, id, day string) tea.Cmd {
	return func() tea.Msg {
		t, err := repo.ToggleTodo(context.Background(), id, day)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("toggling todo: %w", err)}
		}
		return TodoToggledMsg{Todo: t, Day: day}
	}
}

// DeleteTodo removes a todo and every occurrence of it.
func DeleteTodo(repo todo.Repository, id, title string) tea.Cmd {
	return func() tea.Msg {
		if err := repo.DeleteTodo(context.Background(), id); err != nil {
			return ErrMsg{Err: fmt.Errorf("deleting todo: %w", err)}
		}
		return TodoDeletedMsg{ID: id, Title: title}
	}
}

// CopyText writes text to the system clipboard.
func CopyText(text, what string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying %s: %w", what, err)}
		}
		return StatusMsgCmd{Msg: "Copied " + what}
	}
}

// ClearStatusAfter schedules a ClearStatusMsg.
func ClearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// Tick schedules the next TickMsg.
func Tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
