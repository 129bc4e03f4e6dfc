package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/grindflow/grindflow/internal/schedule"
)

// Color definitions for consistent styling across the UI.
var (
	// High priority: bold red so it cannot be missed
	colorHigh = color.New(color.FgRed, color.Bold)

	// Medium priority: yellow
	colorMedium = color.New(color.FgYellow)

	// Low priority: dim/grey
	colorLow = color.New(color.FgWhite, color.Faint)

	// Insight/results: cyan for model output
	colorInsight = color.New(color.FgCyan)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Stats: green for positive metrics
	colorStats = color.New(color.FgGreen)

	// Today in the calendar grid
	colorToday = color.New(color.FgGreen, color.Bold, color.Underline)

	// Warnings: conflicts and skipped records
	colorWarn = color.New(color.FgMagenta, color.Bold)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

// formatPriority colors text by priority.
func formatPriority(p schedule.Priority, s string) string {
	switch p.OrDefault() {
	case schedule.PriorityHigh:
		return colorHigh.Sprint(s)
	case schedule.PriorityLow:
		return colorLow.Sprint(s)
	default:
		return colorMedium.Sprint(s)
	}
}

// formatInsight formats text for insight/coaching output.
func formatInsight(s string) string {
	return colorInsight.Sprint(s)
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatStats formats text for statistics.
func formatStats(s string) string {
	return colorStats.Sprint(s)
}

// formatWarn formats warnings.
func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
