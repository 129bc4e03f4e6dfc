package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

// todoView is the structured form of one occurrence.
type todoView struct {
	ID          string   `json:"id" yaml:"id"`
	TodoID      string   `json:"todo_id" yaml:"todo_id"`
	Title       string   `json:"title" yaml:"title"`
	Date        string   `json:"date" yaml:"date"`
	Start       string   `json:"start" yaml:"start"`
	End         string   `json:"end" yaml:"end"`
	Priority    string   `json:"priority" yaml:"priority"`
	Category    string   `json:"category" yaml:"category"`
	Color       string   `json:"color" yaml:"color"`
	Icon        string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	Recurring   string   `json:"recurring" yaml:"recurring"`
	Days        []string `json:"days,omitempty" yaml:"days,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Completed   bool     `json:"completed" yaml:"completed"`
	Conflict    bool     `json:"conflict" yaml:"conflict"`
}

// dayView is one labelled day of todos.
type dayView struct {
	Date  string     `json:"date" yaml:"date"`
	Label string     `json:"label" yaml:"label"`
	Todos []todoView `json:"todos" yaml:"todos"`
}

func newTodoView(o todo.Occurrence, conflict bool) todoView {
	t := o.Todo
	return todoView{
		ID:          o.ID(),
		TodoID:      t.ID,
		Title:       t.Title,
		Date:        o.Day,
		Start:       t.StartTime,
		End:         t.EndTime,
		Priority:    string(t.Priority.OrDefault()),
		Category:    t.Category,
		Color:       string(t.Color),
		Icon:        t.Icon,
		Recurring:   string(t.Recurring),
		Days:        t.Days,
		Description: t.Description,
		Completed:   o.Completed,
		Conflict:    conflict,
	}
}

// occurrences loads every occurrence between two days, inclusive.
func (a *App) occurrences(ctx context.Context, from, to time.Time) ([]todo.Occurrence, error) {
	todos, err := a.repo.ListTodosByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	return todo.Expand(todos, from, to), nil
}

// dayViews groups occurrences by day, labelled relative to today.
func (a *App) dayViews(occ []todo.Occurrence) []dayView {
	idx := occurrenceIndex(occ)
	items := todo.OccurrenceItems(occ)
	conflicts := overlapping(a.detector(), items)

	groups := a.grouper().GroupByDay(items)
	days := make([]dayView, 0, len(groups))
	for _, g := range groups {
		dv := dayView{Date: g.Key, Label: g.Label, Todos: make([]todoView, 0, len(g.Items))}
		for _, it := range g.Items {
			dv.Todos = append(dv.Todos, newTodoView(idx[it.ID], conflicts[it.ID]))
		}
		days = append(days, dv)
	}
	return days
}

func (a *App) listCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
		output    string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos in a date range",
		Long: `List all todos scheduled within a date range, grouped by day.

If no dates are specified, lists today's todos.
If only --start is specified, lists todos for that single day.
If both --start and --end are specified, lists todos in that range (inclusive).
Recurring todos are listed once per occurrence.`,
		Example: `  grindflow list
  grindflow list --start=2025-01-15
  grindflow list --start=2025-01-15 --end=2025-01-20 --output=json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			dateRange, err := dateutil.NewDateRange(startDate, endDate, a.now())
			if err != nil {
				return err
			}
			occ, err := a.occurrences(cmd.Context(), dateRange.Start, dateRange.End)
			if err != nil {
				return err
			}

			days := a.dayViews(occ)
			out := cmd.OutOrStdout()
			if output != outputText {
				return writeStructured(out, output, days)
			}

			if len(days) == 0 {
				fmt.Fprintln(out, "No todos found in the specified date range.")
				return nil
			}
			printDays(out, days, verbose)
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD, defaults to start date)")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show ids and descriptions")

	return cmd
}

// printDays prints day groups in list order.
func printDays(w io.Writer, days []dayView, verbose bool) {
	for i, d := range days {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := d.Label
		if header != d.Date && !isLongLabel(d) {
			header = fmt.Sprintf("%s (%s)", d.Label, d.Date)
		}
		fmt.Fprintf(w, "=== %s ===\n", formatHeader(header))

		for _, v := range d.Todos {
			line := fmt.Sprintf("  %s %s-%s  %s  %s",
				statusSymbol(v.Completed), v.Start, v.End,
				formatPriority(schedule.Priority(v.Priority), fmt.Sprintf("%-3s", priorityMark(schedule.Priority(v.Priority)))),
				v.Title)
			if v.Recurring != "" && v.Recurring != string(todo.RecurNone) {
				line += " " + formatMuted("↻")
			}
			if v.Conflict {
				line += " " + formatWarn("⚠ overlap")
			}
			fmt.Fprintln(w, line)
			if verbose {
				fmt.Fprintf(w, "      %s  #%s\n", formatMuted(v.ID), v.Category)
				if v.Description != "" {
					fmt.Fprintf(w, "      %s\n", formatMuted(v.Description))
				}
			}
		}
	}
}

// isLongLabel reports whether the label already spells out the date.
func isLongLabel(d dayView) bool {
	t, err := time.Parse(schedule.DayLayout, d.Date)
	return err == nil && d.Label == t.Format(schedule.LongDayLayout)
}
