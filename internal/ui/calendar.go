package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

const cellWidth = 7

var weekdayHeaders = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// cellView is the structured form of one calendar cell.
type cellView struct {
	Date      string     `json:"date" yaml:"date"`
	InMonth   bool       `json:"in_month" yaml:"in_month"`
	IsToday   bool       `json:"is_today" yaml:"is_today"`
	IsWeekend bool       `json:"is_weekend" yaml:"is_weekend"`
	Todos     []todoView `json:"todos" yaml:"todos"`
}

// monthView is the structured form of a month grid.
type monthView struct {
	Year  int        `json:"year" yaml:"year"`
	Month int        `json:"month" yaml:"month"`
	Cells []cellView `json:"cells" yaml:"cells"`
}

func (a *App) calendarCmd() *cobra.Command {
	var (
		month  string
		output string
		agenda bool
	)

	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Show a month as a calendar grid",
		Long: `Print the month as six weeks starting on Sunday, with the number of
todos on each day. Days outside the month are dimmed.`,
		Example: `  grindflow calendar
  grindflow calendar --month=2025-02 --agenda`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			now := a.now()
			year, mon, err := dateutil.ParseMonth(month, now)
			if err != nil {
				return err
			}
			first, last := dateutil.MonthGridRange(year, mon, now.Location())
			occ, err := a.occurrences(cmd.Context(), first, last)
			if err != nil {
				return err
			}

			items := todo.OccurrenceItems(occ)
			m := a.grouper().MonthMatrix(year, mon, items)

			out := cmd.OutOrStdout()
			if output != outputText {
				return writeStructured(out, output, newMonthView(m, occ, overlapping(a.detector(), items)))
			}

			printMonth(out, m)
			if agenda {
				var inMonth []todo.Occurrence
				for _, o := range occ {
					if strings.HasPrefix(o.Day, fmt.Sprintf("%04d-%02d", year, int(mon))) {
						inMonth = append(inMonth, o)
					}
				}
				if days := a.dayViews(inMonth); len(days) > 0 {
					fmt.Fprintln(out)
					printDays(out, days, false)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to show (YYYY-MM, default: this month)")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	cmd.Flags().BoolVarP(&agenda, "agenda", "a", false, "List the month's todos under the grid")

	return cmd
}

func newMonthView(m schedule.Month, occ []todo.Occurrence, conflicts map[string]bool) monthView {
	idx := occurrenceIndex(occ)
	mv := monthView{Year: m.Year, Month: int(m.Month), Cells: make([]cellView, 0, len(m.Cells))}
	for _, c := range m.Cells {
		cv := cellView{
			Date:      c.Key,
			InMonth:   c.InMonth,
			IsToday:   c.IsToday,
			IsWeekend: c.IsWeekend,
			Todos:     make([]todoView, 0, len(c.Items)),
		}
		for _, it := range c.Items {
			cv.Todos = append(cv.Todos, newTodoView(idx[it.ID], conflicts[it.ID]))
		}
		mv.Cells = append(mv.Cells, cv)
	}
	return mv
}

// printMonth prints the 6x7 grid with a todo count on busy days.
func printMonth(w io.Writer, m schedule.Month) {
	title := fmt.Sprintf("%s %d", m.Month, m.Year)
	pad := max(0, (cellWidth*7-len(title))/2)
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", pad), formatHeader(title))

	var header strings.Builder
	for _, d := range weekdayHeaders {
		fmt.Fprintf(&header, "%-*s", cellWidth, " "+d)
	}
	fmt.Fprintln(w, formatMuted(strings.TrimRight(header.String(), " ")))

	for _, week := range m.Weeks() {
		var row strings.Builder
		for _, c := range week {
			row.WriteString(formatCell(c))
		}
		fmt.Fprintln(w, strings.TrimRight(row.String(), " "))
	}
}

func formatCell(c schedule.Cell) string {
	text := fmt.Sprintf("%3d", c.Date.Day())
	if n := len(c.Items); n > 0 {
		text += fmt.Sprintf("·%d", n)
	}
	text = fmt.Sprintf("%-*s", cellWidth, text)

	switch {
	case c.IsToday:
		return colorToday.Sprint(text)
	case !c.InMonth:
		return formatMuted(text)
	default:
		return text
	}
}
