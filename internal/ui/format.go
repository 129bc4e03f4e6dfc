package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// DayStats holds the totals printed under an agenda.
type DayStats struct {
	Todos      int
	Done       int
	Booked     int // minutes
	PeakBooked int // minutes inside peak hours
}

// RowOpts configures agenda row printing.
type RowOpts struct {
	PeakStart  string // Peak hours start time (HH:MM)
	PeakEnd    string // Peak hours end time (HH:MM)
	Verbose    bool   // Show descriptions under each row
	NowMinute  int    // Minute of day to mark as active, -1 for none
	TitleWidth int    // Title column width (0 = auto)
}

// HasPeakHours returns true if peak hours are configured.
func (o RowOpts) HasPeakHours() bool {
	return o.PeakStart != "" && o.PeakEnd != ""
}

func (o RowOpts) titleWidth() int {
	if o.TitleWidth > 0 {
		return o.TitleWidth
	}
	// "▶ ○ HH:MM-HH:MM  !!!  " plus "  12h30m ⚠ overlap"
	if w := termWidth() - 40; w > 20 {
		return min(w, 60)
	}
	return 20
}

// occurrenceIndex maps occurrence IDs back to their todos.
func occurrenceIndex(occ []todo.Occurrence) map[string]todo.Occurrence {
	idx := make(map[string]todo.Occurrence, len(occ))
	for _, o := range occ {
		idx[o.ID()] = o
	}
	return idx
}

// overlapping returns the IDs of items that overlap another item on the
// same day.
func overlapping(d *schedule.Detector, items []schedule.Item) map[string]bool {
	out := make(map[string]bool)
	for _, it := range items {
		conflicts, err := d.Detect(schedule.Slot{Date: it.Date, Start: it.Start, End: it.End}, items, it.ID)
		if err == nil && len(conflicts) > 0 {
			out[it.ID] = true
		}
	}
	return out
}

// PrintAgendaRow prints one occurrence with status, time range, priority
// and duration.
func PrintAgendaRow(w io.Writer, o todo.Occurrence, conflict bool, opts RowOpts) {
	t := o.Todo
	it := o.Item()

	marker := " "
	if opts.NowMinute >= 0 && schedule.IsActiveAt(it, opts.NowMinute) {
		marker = formatStats("▶")
	}

	title := t.Title
	if t.Icon != "" {
		title = t.Icon + " " + title
	}
	width := opts.titleWidth()
	if r := []rune(title); len(r) > width {
		title = string(r[:width-3]) + "..."
	}

	peak := ""
	if opts.HasPeakHours() && schedule.OverlapMinutes(t.StartTime, t.EndTime, opts.PeakStart, opts.PeakEnd) > 0 {
		peak = " ⚡"
	}
	suffix := ""
	if conflict {
		suffix = " " + formatWarn("⚠ overlap")
	}

	fmt.Fprintf(w, "%s %s  %s-%s  %s  %-*s  %s%s%s\n",
		marker, statusSymbol(o.Completed), t.StartTime, t.EndTime,
		formatPriority(it.Priority, fmt.Sprintf("%-3s", priorityMark(it.Priority))),
		width, title, formatMuted(FormatDuration(t.Duration())), peak, suffix)

	if opts.Verbose && t.Description != "" {
		fmt.Fprintf(w, "      %s\n", formatMuted(t.Description))
	}
}

// AccumulateStats adds an occurrence to the day totals.
func AccumulateStats(stats *DayStats, o todo.Occurrence, opts RowOpts) {
	stats.Todos++
	if o.Completed {
		stats.Done++
	}
	stats.Booked += o.Todo.Duration()
	if opts.HasPeakHours() {
		stats.PeakBooked += schedule.OverlapMinutes(o.Todo.StartTime, o.Todo.EndTime, opts.PeakStart, opts.PeakEnd)
	}
}

// PrintStats prints the stats summary line.
func PrintStats(w io.Writer, stats DayStats, showPeak bool) {
	fmt.Fprintf(w, "Todos: %d | Done: %s | Booked: %s\n",
		stats.Todos, formatStats(fmt.Sprintf("%d", stats.Done)), FormatDuration(stats.Booked))
	if showPeak && stats.Booked > 0 {
		fmt.Fprintf(w, "Peak hours: %s of %s booked\n",
			formatStats(FormatDuration(stats.PeakBooked)), FormatDuration(stats.Booked))
	}
}

// PrintConflicts lists conflicts under a warning header.
func PrintConflicts(w io.Writer, header string, conflicts []schedule.Conflict) {
	if len(conflicts) == 0 {
		return
	}
	fmt.Fprintln(w, formatWarn(header))
	for _, c := range conflicts {
		fmt.Fprintf(w, "  ! %s %s-%s  %s (%s)\n", c.Date, c.Start, c.End, c.Title, c.Type)
	}
}

// FormatDuration formats minutes as a human-readable duration.
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

func statusSymbol(done bool) string {
	if done {
		return "✓"
	}
	return "○"
}

func priorityMark(p schedule.Priority) string {
	switch p.OrDefault() {
	case schedule.PriorityHigh:
		return "!!!"
	case schedule.PriorityLow:
		return "!"
	default:
		return "!!"
	}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (use text, json or yaml)", format)
	}
}

func validOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (use text, json or yaml)", format)
}

// PrintInsightWrapped formats and prints model output preserving structure.
func PrintInsightWrapped(w io.Writer, text string, width int) {
	text = stripMarkdownCodeBlocks(text)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			fmt.Fprintln(w)
			continue
		}

		prefix, content, contentWidth, isHeader := parseInsightLine(trimmed, width)
		if isHeader {
			fmt.Fprintln(w)
			fmt.Fprintln(w, formatHeader("  "+content))
			continue
		}
		wrapAndPrint(w, content, prefix, contentWidth)
	}
}

// parseInsightLine returns the prefix, content and wrap width for a line.
func parseInsightLine(trimmed string, width int) (prefix, content string, contentWidth int, isHeader bool) {
	prefix = "  "
	content = trimmed
	contentWidth = width - 2

	switch {
	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
		prefix = "    • "
		content = trimmed[2:]
		contentWidth = width - 6
	case strings.HasPrefix(trimmed, "#"):
		content = strings.TrimLeft(trimmed, "# ")
		isHeader = true
	case strings.HasPrefix(trimmed, ">"):
		prefix = "  │ "
		content = strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
		contentWidth = width - 4
	case isNumberedItem(trimmed):
		idx := strings.Index(trimmed, ".")
		prefix = "  " + trimmed[:idx+1] + " "
		content = strings.TrimSpace(trimmed[idx+1:])
		contentWidth = width - len(prefix)
	}
	return prefix, content, contentWidth, isHeader
}

// isNumberedItem reports whether s starts with "N." or "NN.".
func isNumberedItem(s string) bool {
	i := 0
	for i < len(s) && i < 2 && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i > 0 && s[0] != '0' && i < len(s) && s[i] == '.' && i+1 < len(s)
}

// wrapAndPrint wraps text to width, indenting continuation lines under
// the first.
func wrapAndPrint(w io.Writer, text, prefix string, width int) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}
	indent := strings.Repeat(" ", len([]rune(prefix)))

	line := words[0]
	lead := prefix
	for _, word := range words[1:] {
		if len(line)+1+len(word) <= width {
			line += " " + word
			continue
		}
		fmt.Fprintln(w, formatInsight(lead+line))
		lead = indent
		line = word
	}
	fmt.Fprintln(w, formatInsight(lead+line))
}

// stripMarkdownCodeBlocks removes ```...``` fences from text.
func stripMarkdownCodeBlocks(text string) string {
	var kept []string
	inBlock := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inBlock = !inBlock
			continue
		}
		if !inBlock {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
