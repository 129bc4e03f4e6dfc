// Package tui provides the terminal user interface for grindflow.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/grindflow/grindflow/internal/tui/theme"
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	// Header
	TitleStyle     lipgloss.Style
	MonthStyle     lipgloss.Style
	WeekdayStyle   lipgloss.Style
	WeekendHeader  lipgloss.Style
	SeparatorStyle lipgloss.Style

	// Month grid cells
	DayNumberStyle     lipgloss.Style
	DayOutsideStyle    lipgloss.Style
	DayWeekendStyle    lipgloss.Style
	DayTodayStyle      lipgloss.Style
	DaySelectedStyle   lipgloss.Style
	CellItemStyle      lipgloss.Style
	CellItemPastStyle  lipgloss.Style
	CellMoreStyle      lipgloss.Style
	CellSelectedBorder lipgloss.Color

	// Agenda
	AgendaTitleStyle    lipgloss.Style
	AgendaTimeStyle     lipgloss.Style
	AgendaItemStyle     lipgloss.Style
	AgendaDoneStyle     lipgloss.Style
	AgendaSelectedStyle lipgloss.Style
	AgendaEmptyStyle    lipgloss.Style
	ConflictStyle       lipgloss.Style
	ActiveStyle         lipgloss.Style

	// Footer
	PromptStyle        lipgloss.Style
	PromptFocusedStyle lipgloss.Style
	StatusStyle        lipgloss.Style
	ErrorStyle         lipgloss.Style
	HelpStyle          lipgloss.Style

	// Overlay
	ModalBgColor     lipgloss.Color
	ModalTitleStyle  lipgloss.Style
	ModalBodyStyle   lipgloss.Style
	ModalHintStyle   lipgloss.Style
	ModalWarnStyle   lipgloss.Style
	ModalBorderColor lipgloss.Color

	// App container
	AppStyle lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	s := &Styles{palette: p}

	s.TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent)
	s.MonthStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Fg)
	s.WeekdayStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Bold(true)
	s.WeekendHeader = lipgloss.NewStyle().Foreground(p.Weekend).Bold(true)
	s.SeparatorStyle = lipgloss.NewStyle().Foreground(p.BgSelection)

	s.DayNumberStyle = lipgloss.NewStyle().Foreground(p.Fg)
	s.DayOutsideStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Faint(true)
	s.DayWeekendStyle = lipgloss.NewStyle().Foreground(p.Weekend)
	s.DayTodayStyle = lipgloss.NewStyle().Bold(true).Foreground(p.TextOnToday).Background(p.Today)
	s.DaySelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(p.TextOnAccent).Background(p.Accent)
	s.CellItemStyle = lipgloss.NewStyle().Foreground(p.Fg)
	s.CellItemPastStyle = lipgloss.NewStyle().Foreground(p.FgMuted)
	s.CellMoreStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Italic(true)
	s.CellSelectedBorder = p.Accent

	s.AgendaTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent)
	s.AgendaTimeStyle = lipgloss.NewStyle().Foreground(p.FgMuted)
	s.AgendaItemStyle = lipgloss.NewStyle().Foreground(p.Fg)
	s.AgendaDoneStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Strikethrough(true)
	s.AgendaSelectedStyle = lipgloss.NewStyle().Background(p.BgSelection).Bold(true)
	s.AgendaEmptyStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Italic(true)
	s.ConflictStyle = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	s.ActiveStyle = lipgloss.NewStyle().Foreground(p.Today).Bold(true)

	s.PromptStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.BgSelection).
		Padding(0, 1)
	s.PromptFocusedStyle = s.PromptStyle.BorderForeground(p.Accent)
	s.StatusStyle = lipgloss.NewStyle().Foreground(p.Accent)
	s.ErrorStyle = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	s.HelpStyle = lipgloss.NewStyle().Foreground(p.FgMuted)

	s.ModalBgColor = p.BgHighlight
	s.ModalBorderColor = p.Accent
	s.ModalTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent).Background(p.BgHighlight)
	s.ModalBodyStyle = lipgloss.NewStyle().Foreground(p.Fg).Background(p.BgHighlight)
	s.ModalHintStyle = lipgloss.NewStyle().Foreground(p.FgMuted).Background(p.BgHighlight)
	s.ModalWarnStyle = lipgloss.NewStyle().Foreground(p.Warning).Background(p.BgHighlight).Bold(true)

	s.AppStyle = lipgloss.NewStyle().Padding(0, 1)

	return s
}

// PriorityStyle returns a foreground style for a priority marker.
func (s *Styles) PriorityStyle(priority string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.palette.Priority(priority)).Bold(true)
}

// TodoStyle returns the block style for a todo color.
func (s *Styles) TodoStyle(color string, past bool) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.palette.TodoText(color)).
		Background(s.palette.TodoBg(color, past))
}

// TodoAccent returns a foreground style in the todo's own color.
func (s *Styles) TodoAccent(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.palette.TodoFg(color))
}
