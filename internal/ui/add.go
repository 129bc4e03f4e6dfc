package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

// todoFlags binds the editable todo fields shared by add and edit.
type todoFlags struct {
	date        string
	start       string
	end         string
	priority    string
	category    string
	color       string
	icon        string
	recurring   string
	days        []string
	description string
}

func (f *todoFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "Scheduled date (YYYY-MM-DD, today, tomorrow, monday, ...; default: today)")
	cmd.Flags().StringVar(&f.start, "start", "", "Start time (HH:MM)")
	cmd.Flags().StringVar(&f.end, "end", "", "End time (HH:MM)")
	cmd.Flags().StringVar(&f.priority, "priority", "", "Priority: low, medium or high (default: medium)")
	cmd.Flags().StringVar(&f.category, "category", "", "Category (default: personal)")
	cmd.Flags().StringVar(&f.color, "color", "", "Color: "+joinColors())
	cmd.Flags().StringVar(&f.icon, "icon", "", "Icon shown before the title")
	cmd.Flags().StringVar(&f.recurring, "recurring", "", "Repeat: none, daily, weekly or monthly")
	cmd.Flags().StringSliceVar(&f.days, "days", nil, "Weekdays for weekly todos (e.g. mon,wed,fri)")
	cmd.Flags().StringVar(&f.description, "description", "", "Longer description")
}

// apply copies the flags the user set onto p.
func (f *todoFlags) apply(cmd *cobra.Command, p *todo.Params) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("date", &p.Date, f.date)
	set("start", &p.Start, f.start)
	set("end", &p.End, f.end)
	set("priority", &p.Priority, f.priority)
	set("category", &p.Category, f.category)
	set("color", &p.Color, f.color)
	set("icon", &p.Icon, f.icon)
	set("recurring", &p.Recurring, f.recurring)
	set("description", &p.Description, f.description)
	if cmd.Flags().Changed("days") {
		p.Days = f.days
	}
}

func joinColors() string {
	names := make([]string, len(todo.Colors))
	for i, c := range todo.Colors {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func (a *App) addCmd() *cobra.Command {
	var flags todoFlags

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a new todo",
		Long: `Add a new todo to your schedule.

The time range is half-open: a todo ending at 10:00 does not overlap one
starting at 10:00. With the default conflict policy an overlapping todo is
rejected; set [conflicts] policy = "warn" to store it anyway.`,
		Example: `  grindflow add "Write documentation" --date=2025-01-10 --start=09:00 --end=11:00 --priority=high
  grindflow add "Standup" --start=09:00 --end=09:15 --recurring=weekly --days=mon,tue,wed,thu,fri`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			p := todo.Params{Title: strings.Join(args, " ")}
			flags.apply(cmd, &p)
			if p.Date == "" {
				p.Date = "today"
			}
			t, err := todo.NewAt(p, a.now())
			if err != nil {
				return err
			}

			conflicts, err := a.repo.CreateTodo(cmd.Context(), t)
			if err != nil {
				return conflictHint("creating todo", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created todo %s: %s\n", t.ID, describeTodo(t))
			PrintConflicts(out, "Warning: overlaps existing todos", conflicts)
			return nil
		},
	}

	flags.bind(cmd)
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func (a *App) editCmd() *cobra.Command {
	var (
		flags todoFlags
		title string
	)

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a todo",
		Long: `Change fields of an existing todo. Only the flags you pass are updated.

The todo's own current slot is ignored when checking for conflicts.`,
		Example: `  grindflow edit 5f0c... --start=10:00 --end=11:00`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			ctx := cmd.Context()
			t, err := a.repo.GetTodo(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading todo: %w", err)
			}

			p := t.Params()
			flags.apply(cmd, &p)
			if cmd.Flags().Changed("title") {
				p.Title = title
			}
			if err := t.Apply(p, a.now()); err != nil {
				return err
			}

			conflicts, err := a.repo.UpdateTodo(ctx, t)
			if err != nil {
				return conflictHint("updating todo", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated todo %s: %s\n", t.ID, describeTodo(t))
			PrintConflicts(out, "Warning: overlaps existing todos", conflicts)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&title, "title", "", "New title")

	return cmd
}

// conflictHint wraps repository write errors, listing conflicts one per line.
func conflictHint(action string, err error) error {
	var ce *todo.ConflictError
	if errors.As(err, &ce) {
		var b strings.Builder
		b.WriteString(todo.ErrTimeConflict.Error())
		for _, c := range ce.Conflicts {
			fmt.Fprintf(&b, "\n  %s", schedule.FormatConflict(c))
		}
		return fmt.Errorf("%s: %w", action, &hintError{msg: b.String(), err: err})
	}
	return fmt.Errorf("%s: %w", action, err)
}

// hintError replaces an error's message while keeping it matchable.
type hintError struct {
	msg string
	err error
}

func (e *hintError) Error() string { return e.msg }
func (e *hintError) Unwrap() error { return e.err }

// describeTodo renders "Title [priority] 2025-01-10 09:00-10:00 (weekly on mon, wed)".
func describeTodo(t *todo.Todo) string {
	s := fmt.Sprintf("%s [%s] %s %s-%s",
		t.Title, t.Priority.OrDefault(), schedule.DayKey(t.ScheduledDate), t.StartTime, t.EndTime)
	if t.IsRecurring() {
		s += " (" + describeRecurrence(t) + ")"
	}
	return s
}

func describeRecurrence(t *todo.Todo) string {
	if len(t.Days) > 0 {
		return fmt.Sprintf("%s on %s", t.Recurring, strings.Join(t.Days, ", "))
	}
	return string(t.Recurring)
}

func printTodoDetail(w io.Writer, t *todo.Todo) {
	fmt.Fprintf(w, "%s\n", formatHeader(t.Title))
	fmt.Fprintf(w, "  id        %s\n", t.ID)
	fmt.Fprintf(w, "  when      %s %s-%s\n", schedule.DayKey(t.ScheduledDate), t.StartTime, t.EndTime)
	fmt.Fprintf(w, "  priority  %s\n", formatPriority(t.Priority, string(t.Priority.OrDefault())))
	fmt.Fprintf(w, "  category  %s\n", t.Category)
	fmt.Fprintf(w, "  color     %s\n", t.Color)
	if t.IsRecurring() {
		fmt.Fprintf(w, "  repeats   %s\n", describeRecurrence(t))
	}
	if t.Description != "" {
		fmt.Fprintf(w, "  notes     %s\n", t.Description)
	}
}
