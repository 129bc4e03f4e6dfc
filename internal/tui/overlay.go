package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	overlayMinWidth = 24
	overlayMaxWidth = 56
)

// OverlayModel draws a bordered box centered over the base view.
type OverlayModel struct {
	active  bool
	bgColor lipgloss.Color
	border  lipgloss.Color
}

// NewOverlayModel initializes an overlay model.
func NewOverlayModel() OverlayModel {
	return OverlayModel{}
}

// Show makes the overlay visible.
func (o *OverlayModel) Show() { o.active = true }

// Hide removes the overlay.
func (o *OverlayModel) Hide() { o.active = false }

// Active reports whether the overlay is visible.
func (o OverlayModel) Active() bool {
	return o.active
}

// SetColors updates the box background and border colors.
func (o *OverlayModel) SetColors(bg, border lipgloss.Color) {
	o.bgColor = bg
	o.border = border
}

// Render draws content in a box on top of base. Rows of base outside the
// box are kept as is; rows under it are cut around the box.
func (o OverlayModel) Render(base string, width, height int, content string) string {
	if !o.active || width <= 0 || height <= 0 {
		return base
	}

	box := o.box(content, width)
	boxLines := strings.Split(box, "\n")
	boxW := lipgloss.Width(box)
	boxH := len(boxLines)
	if boxH > height {
		boxLines = boxLines[:height]
		boxH = height
	}

	top := max(0, (height-boxH)/2)
	left := max(0, (width-boxW)/2)

	baseLines := normalizeLines(base, width, height)
	for i, line := range boxLines {
		row := top + i
		leftSlice := ansi.Cut(baseLines[row], 0, left)
		rightSlice := ansi.Cut(baseLines[row], left+boxW, width)
		baseLines[row] = leftSlice + line + rightSlice
	}
	return strings.Join(baseLines, "\n")
}

func (o OverlayModel) box(content string, width int) string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	innerW := 0
	for _, line := range lines {
		innerW = max(innerW, lipgloss.Width(line))
	}
	// border and padding take four columns
	innerW = min(max(innerW, overlayMinWidth-4), min(overlayMaxWidth, width)-4)
	if innerW < 1 {
		innerW = 1
	}

	for i, line := range lines {
		if lipgloss.Width(line) > innerW {
			lines[i] = ansi.Truncate(line, innerW, "…")
		}
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(o.border).
		BorderBackground(o.bgColor).
		Background(o.bgColor).
		Padding(0, 1).
		Width(innerW + 2)
	return style.Render(strings.Join(lines, "\n"))
}

// normalizeLines pads or cuts base to exactly width x height cells.
func normalizeLines(base string, width, height int) []string {
	lines := strings.Split(base, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	lines = lines[:height]

	for i, line := range lines {
		lineWidth := lipgloss.Width(line)
		if lineWidth > width {
			lines[i] = ansi.Cut(line, 0, width)
			continue
		}
		if lineWidth < width {
			lines[i] = line + strings.Repeat(" ", width-lineWidth)
		}
	}
	return lines
}
