package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/habit"
	"github.com/grindflow/grindflow/internal/schedule"
)

// habitView is the structured output of habit list.
type habitView struct {
	ID        string       `json:"id" yaml:"id"`
	Title     string       `json:"title" yaml:"title"`
	Frequency string       `json:"frequency" yaml:"frequency"`
	Days      []string     `json:"days,omitempty" yaml:"days,omitempty"`
	StartDate string       `json:"start_date" yaml:"start_date"`
	Category  string       `json:"category" yaml:"category"`
	Goal      string       `json:"goal,omitempty" yaml:"goal,omitempty"`
	Archived  bool         `json:"archived,omitempty" yaml:"archived,omitempty"`
	Streak    habit.Streak `json:"streak" yaml:"streak"`
}

// habitRepo returns the habit store behind the configured repository.
func (a *App) habitRepo() (habit.Repository, error) {
	if err := a.ensureRepo(); err != nil {
		return nil, err
	}
	hr, ok := a.repo.(habit.Repository)
	if !ok {
		return nil, errors.New("storage does not support habits")
	}
	return hr, nil
}

// habitFlags binds the editable habit fields shared by add and edit.
type habitFlags struct {
	frequency   string
	days        []string
	start       string
	category    string
	icon        string
	goal        string
	description string
}

func (f *habitFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.frequency, "frequency", "", "Repeat: daily, weekly or monthly (default: daily)")
	cmd.Flags().StringSliceVar(&f.days, "days", nil, "Weekdays the habit is due (e.g. monday,friday)")
	cmd.Flags().StringVar(&f.start, "start", "", "First day (default: today)")
	cmd.Flags().StringVar(&f.category, "category", "", "Category (default: personal)")
	cmd.Flags().StringVar(&f.icon, "icon", "", "Icon shown before the title")
	cmd.Flags().StringVar(&f.goal, "goal", "", "Goal id this habit feeds")
	cmd.Flags().StringVar(&f.description, "description", "", "Longer description")
}

func (f *habitFlags) apply(cmd *cobra.Command, p *habit.Params) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("frequency", &p.Frequency, f.frequency)
	set("start", &p.StartDate, f.start)
	set("category", &p.Category, f.category)
	set("icon", &p.Icon, f.icon)
	set("goal", &p.LinkedGoalID, f.goal)
	set("description", &p.Description, f.description)
	if cmd.Flags().Changed("days") {
		p.Days = f.days
	}
}

func (a *App) habitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Track habits and streaks",
		Long: `Track things you do on a schedule.

A habit is due on the days its frequency picks. Marking due days done
builds a streak; a due day left undone breaks it, except today, which
stays open until it is over.`,
	}

	cmd.AddCommand(a.habitAddCmd())
	cmd.AddCommand(a.habitListCmd())
	cmd.AddCommand(a.habitDoneCmd())
	cmd.AddCommand(a.habitEditCmd())
	cmd.AddCommand(a.habitDeleteCmd())

	return cmd
}

func (a *App) habitAddCmd() *cobra.Command {
	var flags habitFlags

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a habit",
		Example: `  grindflow habit add "Read 30 minutes"
  grindflow habit add "Gym" --frequency=weekly --days=monday,wednesday,friday --goal=3c1e...`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.habitRepo()
			if err != nil {
				return err
			}

			p := habit.Params{Title: strings.Join(args, " ")}
			flags.apply(cmd, &p)
			if p.StartDate == "" {
				p.StartDate = "today"
			}
			h, err := habit.NewAt(p, a.now())
			if err != nil {
				return err
			}
			if err := repo.CreateHabit(cmd.Context(), h); err != nil {
				return fmt.Errorf("creating habit: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created habit %s: %s (%s)\n", h.ID, h.Title, describeFrequency(h))
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}

func (a *App) habitListCmd() *cobra.Command {
	var (
		all    bool
		output string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List habits with their streaks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			repo, err := a.habitRepo()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			habits, err := repo.ListHabits(ctx, all)
			if err != nil {
				return fmt.Errorf("listing habits: %w", err)
			}
			goals, err := repo.ListGoals(ctx)
			if err != nil {
				return fmt.Errorf("listing goals: %w", err)
			}
			goalTitles := make(map[string]string, len(goals))
			for _, g := range goals {
				goalTitles[g.ID] = g.Title
			}

			now := a.now()
			views := make([]habitView, 0, len(habits))
			for _, h := range habits {
				views = append(views, habitView{
					ID:        h.ID,
					Title:     h.Title,
					Frequency: string(h.Frequency),
					Days:      h.Days,
					StartDate: schedule.DayKey(h.StartDate),
					Category:  h.Category,
					Goal:      goalTitles[h.LinkedGoalID],
					Archived:  h.IsArchived,
					Streak:    h.Streaks(now),
				})
			}

			out := cmd.OutOrStdout()
			if output != outputText {
				return writeStructured(out, output, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "No habits yet. Add one with: grindflow habit add \"Read\"")
				return nil
			}
			for i, v := range views {
				printHabitRow(out, habits[i], v)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include archived habits")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")

	return cmd
}

func (a *App) habitDoneCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "done [id]",
		Short: "Mark a habit done or undone",
		Long: `Flip completion of a habit on a due day (default: today).

Running it again on the same day undoes the mark.`,
		Example: `  grindflow habit done 3c1e...
  grindflow habit done 3c1e... --date=yesterday`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.habitRepo()
			if err != nil {
				return err
			}

			day := schedule.DayKey(a.now())
			if date != "" {
				d, err := dateutil.ParseRelativeDate(date, a.now())
				if err != nil {
					return err
				}
				day = schedule.DayKey(d)
			}

			h, err := repo.ToggleHabit(cmd.Context(), args[0], day)
			if err != nil {
				return fmt.Errorf("marking habit: %w", err)
			}

			state := "undone"
			if h.CompletedOn(day) {
				state = "done"
			}
			s := h.Streaks(a.now())
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s %s on %s (streak %d, best %d)\n", h.Title, state, day, s.Current, s.Longest)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to mark (default: today)")

	return cmd
}

func (a *App) habitEditCmd() *cobra.Command {
	var (
		flags    habitFlags
		title    string
		archived bool
	)

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a habit",
		Long:  `Change fields of an existing habit. Only the flags you pass are updated.`,
		Example: `  grindflow habit edit 3c1e... --days=tuesday,thursday
  grindflow habit edit 3c1e... --archived`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.habitRepo()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			h, err := repo.GetHabit(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading habit: %w", err)
			}

			p := h.Params()
			flags.apply(cmd, &p)
			if cmd.Flags().Changed("title") {
				p.Title = title
			}
			if err := h.Apply(p, a.now()); err != nil {
				return err
			}
			if cmd.Flags().Changed("archived") {
				h.IsArchived = archived
			}
			if err := repo.UpdateHabit(ctx, h); err != nil {
				return fmt.Errorf("updating habit: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated habit %s: %s (%s)\n", h.ID, h.Title, describeFrequency(h))
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().BoolVar(&archived, "archived", false, "Archive the habit (--archived=false restores it)")

	return cmd
}

func (a *App) habitDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a habit and its history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.habitRepo()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			h, err := repo.GetHabit(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading habit: %w", err)
			}
			if err := repo.DeleteHabit(ctx, h.ID); err != nil {
				return fmt.Errorf("deleting habit: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted habit %s: %s\n", h.ID, h.Title)
			return nil
		},
	}
}

func describeFrequency(h *habit.Habit) string {
	if len(h.Days) > 0 {
		return fmt.Sprintf("%s on %s", h.Frequency, strings.Join(h.Days, ", "))
	}
	return string(h.Frequency)
}

// printHabitRow renders "✓ Title  daily  streak 3 (best 5)  → Goal".
func printHabitRow(w io.Writer, h *habit.Habit, v habitView) {
	mark := formatMuted("-")
	if v.Streak.DueToday {
		mark = statusSymbol(v.Streak.DoneToday)
	}
	title := v.Title
	if h.Icon != "" {
		title = h.Icon + " " + title
	}
	line := fmt.Sprintf("%s %-24s %-24s streak %s (best %d)",
		mark, title, describeFrequency(h), formatStats(fmt.Sprintf("%d", v.Streak.Current)), v.Streak.Longest)
	if v.Goal != "" {
		line += "  → " + v.Goal
	}
	if v.Archived {
		line += "  " + formatMuted("[archived]")
	}
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "  %s\n", formatMuted(v.ID))
}
