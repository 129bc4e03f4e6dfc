package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grindflow/grindflow/internal/config"
	"github.com/grindflow/grindflow/internal/todo"
)

// Run starts the TUI on an open repository and blocks until the user quits.
func Run(repo todo.Repository, cfg *config.Config, opts ...ModelOption) error {
	if repo == nil {
		return errors.New("tui: repository is required")
	}
	model := New(repo, cfg, opts...)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
