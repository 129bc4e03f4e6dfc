package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
	"github.com/grindflow/grindflow/internal/tui/input"
)

const (
	headerLines     = 2
	footerLines     = 3
	sideBySideWidth = 96
	minAgendaWidth  = 32
	maxCellLines    = 6
)

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// View renders the month grid, the agenda and the footer.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Loading..."
	}
	base := m.renderApp()
	if !m.overlay.Active() {
		return base
	}
	return m.overlay.Render(base, m.width, m.height, m.overlayContent())
}

func (m Model) renderApp() string {
	inner := m.width - 2
	if inner < 7*4 || m.height < headerLines+footerLines+4 {
		return "Terminal too small"
	}

	sideBySide := inner >= sideBySideWidth
	calW, agendaW := inner, inner
	bodyH := m.height - headerLines - footerLines
	gridH := bodyH - 1
	agendaH := bodyH
	if sideBySide {
		agendaW = max(minAgendaWidth, inner*2/5)
		calW = inner - agendaW - 3
	} else {
		agendaH = max(6, bodyH/3)
		gridH -= agendaH
	}
	cellH := min(max(gridH/6, 1), maxCellLines)

	calendar := m.renderMonth(calW/7, cellH)
	agenda := m.renderAgenda(agendaW, agendaH)

	var body string
	if sideBySide {
		body = lipgloss.JoinHorizontal(lipgloss.Top, calendar, "   ", agenda)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, calendar, "", agenda)
	}
	body = padHeight(body, bodyH)

	content := lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(inner), body, m.renderFooter(inner))
	return m.styles.AppStyle.Render(content)
}

func (m Model) renderHeader(width int) string {
	title := m.styles.TitleStyle.Render("GrindFlow")
	month := m.styles.MonthStyle.Render(fmt.Sprintf("%s %d", m.month, m.year))
	left := title + "  " + month
	if m.loading {
		left += m.styles.HelpStyle.Render("  loading…")
	}
	right := m.styles.HelpStyle.Render(m.theme.Name)
	gap := max(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	return fit(left+strings.Repeat(" ", gap)+right, width) + "\n"
}

// renderMonth draws the 42 cells as six week rows.
func (m Model) renderMonth(colW, cellH int) string {
	w := colW - 1
	var b strings.Builder

	for i, name := range weekdayNames {
		style := m.styles.WeekdayStyle
		if i == 0 || i == 6 {
			style = m.styles.WeekendHeader
		}
		b.WriteString(fit(style.Render(name), w))
		b.WriteString(" ")
	}

	now := m.now()
	for _, week := range m.grid.Weeks() {
		cells := make([][]string, len(week))
		for i, cell := range week {
			cells[i] = m.renderCell(cell, w, cellH, now)
		}
		for line := range cellH {
			b.WriteString("\n")
			for _, c := range cells {
				b.WriteString(c[line])
				b.WriteString(" ")
			}
		}
	}
	return b.String()
}

// renderCell returns exactly height lines of width w for one day.
func (m Model) renderCell(cell schedule.Cell, w, height int, now time.Time) []string {
	style := m.styles.DayNumberStyle
	switch {
	case cell.Date.Equal(m.selected):
		style = m.styles.DaySelectedStyle
	case cell.IsToday:
		style = m.styles.DayTodayStyle
	case !cell.InMonth:
		style = m.styles.DayOutsideStyle
	case cell.IsWeekend:
		style = m.styles.DayWeekendStyle
	}
	head := style.Render(fmt.Sprintf("%2d", cell.Date.Day()))
	if height == 1 && len(cell.Items) > 0 {
		head += m.styles.CellMoreStyle.Render(fmt.Sprintf(" •%d", len(cell.Items)))
	}

	lines := []string{fit(head, w)}
	rows := height - 1
	shown := len(cell.Items)
	if shown > rows {
		shown = max(0, rows-1)
	}
	for _, it := range cell.Items[:shown] {
		lines = append(lines, fit(m.cellItem(it, cell.Items, now), w))
	}
	if hidden := len(cell.Items) - shown; hidden > 0 && rows > 0 {
		lines = append(lines, fit(m.styles.CellMoreStyle.Render(fmt.Sprintf("+%d more", hidden)), w))
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", w))
	}
	return lines
}

func (m Model) cellItem(it schedule.Item, day []schedule.Item, now time.Time) string {
	o := m.occurrences[it.ID]
	dot := "●"
	if o.Completed {
		dot = "✓"
	}
	var color string
	if o.Todo != nil {
		color = string(o.Todo.Color)
	}

	text := m.styles.CellItemStyle
	if o.Completed || schedule.IsPast(it, now, m.loc) {
		text = m.styles.CellItemPastStyle
	}
	line := m.styles.TodoAccent(color).Render(dot) + " " + text.Render(it.Title)
	if m.hasConflict(it, day) {
		line = m.styles.ConflictStyle.Render("!") + line
	}
	return line
}

// renderAgenda lists the selected day's items.
func (m Model) renderAgenda(width, height int) string {
	key := schedule.DayKey(m.selected)
	now := m.now()
	items := m.agendaItems()

	lines := []string{
		fit(m.styles.AgendaTitleStyle.Render(schedule.DayLabel(key, now)), width),
		fit(m.styles.HelpStyle.Render(m.agendaSummary(items)), width),
		"",
	}
	if len(items) == 0 {
		lines = append(lines, m.styles.AgendaEmptyStyle.Render("Nothing scheduled. Press a to add."))
	}

	nowMinute := now.Hour()*60 + now.Minute()
	isToday := key == schedule.DayKey(now)
	for i, it := range items {
		line := m.agendaLine(it, items, isToday && schedule.IsActiveAt(it, nowMinute), now)
		if i == m.agendaIdx {
			line = m.styles.AgendaSelectedStyle.Render(fit("▸ "+line, width))
		} else {
			line = "  " + line
		}
		lines = append(lines, fit(line, width))
	}

	if o, ok := m.selectedOccurrence(); ok {
		lines = append(lines, "")
		for _, d := range detailLines(o.Todo) {
			lines = append(lines, fit(m.styles.HelpStyle.Render(d), width))
		}
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) agendaLine(it schedule.Item, day []schedule.Item, active bool, now time.Time) string {
	o := m.occurrences[it.ID]
	check := "○"
	title := m.styles.AgendaItemStyle
	if o.Completed {
		check = "✓"
		title = m.styles.AgendaDoneStyle
	} else if schedule.IsPast(it, now, m.loc) {
		title = m.styles.CellItemPastStyle
	}

	var color, icon string
	if o.Todo != nil {
		color = string(o.Todo.Color)
		icon = o.Todo.Icon
	}
	name := it.Title
	if icon != "" {
		name = icon + " " + name
	}

	parts := []string{
		check,
		m.styles.AgendaTimeStyle.Render(it.Start + "-" + it.End),
		m.styles.TodoAccent(color).Render("●"),
		title.Render(name),
		m.styles.PriorityStyle(string(it.Priority)).Render(priorityMark(it.Priority)),
	}
	if active {
		parts = append(parts, m.styles.ActiveStyle.Render("now"))
	}
	if m.hasConflict(it, day) {
		parts = append(parts, m.styles.ConflictStyle.Render("⚠ overlap"))
	}
	return strings.Join(parts, " ")
}

func (m Model) agendaSummary(items []schedule.Item) string {
	if len(items) == 0 {
		return "0 todos"
	}
	minutes, done := 0, 0
	for _, it := range items {
		start, err1 := schedule.TimeToMinutes(it.Start)
		end, err2 := schedule.TimeToMinutes(it.End)
		if err1 == nil && err2 == nil && end > start {
			minutes += end - start
		}
		if m.occurrences[it.ID].Completed {
			done++
		}
	}
	noun := "todos"
	if len(items) == 1 {
		noun = "todo"
	}
	return fmt.Sprintf("%d %s · %d done · %s booked", len(items), noun, done, formatMinutes(minutes))
}

func detailLines(t *todo.Todo) []string {
	lines := []string{"  " + t.Category}
	if t.IsRecurring() {
		rec := string(t.Recurring)
		if len(t.Days) > 0 {
			rec += " on " + strings.Join(t.Days, ", ")
		}
		lines = append(lines, "  repeats "+rec)
	}
	if t.Description != "" {
		lines = append(lines, "  "+t.Description)
	}
	return lines
}

func (m Model) renderFooter(width int) string {
	if m.mode == ModePrompt {
		box := m.styles.PromptFocusedStyle.Width(width - 2).Render(m.prompt.View())
		if matches := input.PromptMatchingCommands(m.prompt.Value(), promptCommands); len(matches) > 0 {
			hints := make([]string, 0, len(matches))
			for _, c := range matches {
				hints = append(hints, c.Name+" "+c.Description)
			}
			// the hint replaces the top border row
			lines := strings.Split(box, "\n")
			lines[0] = fit(m.styles.HelpStyle.Render(strings.Join(hints, " · ")), width)
			box = strings.Join(lines, "\n")
		}
		return box
	}

	status := ""
	if m.statusMsg != "" {
		style := m.styles.StatusStyle
		if m.statusErr {
			style = m.styles.ErrorStyle
		}
		status = style.Render(m.statusMsg)
	}
	help := m.styles.HelpStyle.Render("←↓↑→ day · [ ] month · t today · tab item · a add · x done · d delete · y copy · ? help · q quit")
	return strings.Join([]string{"", fit(status, width), fit(help, width)}, "\n")
}

func (m Model) overlayContent() string {
	switch m.mode {
	case ModeConfirm:
		if m.pending == nil {
			return ""
		}
		lines := []string{
			m.styles.ModalTitleStyle.Render("Delete todo"),
			"",
			m.styles.ModalBodyStyle.Render(fmt.Sprintf("Delete %q?", m.pending.Todo.Title)),
		}
		if m.pending.Todo.IsRecurring() {
			lines = append(lines, m.styles.ModalWarnStyle.Render("This removes every occurrence."))
		}
		lines = append(lines, "", m.styles.ModalHintStyle.Render("y confirm · any other key cancels"))
		return strings.Join(lines, "\n")
	case ModeHelp:
		return m.styles.ModalTitleStyle.Render("Keys") + "\n\n" + m.styles.ModalBodyStyle.Render(helpText)
	}
	return ""
}

const helpText = `h/l        previous/next day
k/j        previous/next week
[ ]        previous/next month
t          today
tab/n p    next/previous agenda item
x space    toggle done
d          delete
y          copy day agenda
a          quick add
/          command (/goto /today /theme)
r          reload
q          quit`

// agendaCopyText renders the selected day as plain text.
func (m Model) agendaCopyText() string {
	items := m.agendaItems()
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.selected.Format(schedule.LongDayLayout))
	b.WriteString("\n")
	for _, it := range items {
		mark := " "
		if m.occurrences[it.ID].Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "[%s] %s-%s %s (%s)\n", mark, it.Start, it.End, it.Title, it.Priority)
	}
	return b.String()
}

func priorityMark(p schedule.Priority) string {
	switch p {
	case schedule.PriorityHigh:
		return "!!!"
	case schedule.PriorityLow:
		return "!"
	default:
		return "!!"
	}
}

func formatMinutes(minutes int) string {
	h, mm := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", mm)
	case mm == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02dm", h, mm)
	}
}

// fit truncates s to w cells and pads it with spaces to exactly w.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if lipgloss.Width(s) > w {
		s = ansi.Truncate(s, w, "…")
	}
	if pad := w - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines[:h], "\n")
}
