package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/habit"
	"github.com/grindflow/grindflow/internal/schedule"
)

// goalView is the structured output of goal list.
type goalView struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Status     string   `json:"status" yaml:"status"`
	Progress   int      `json:"progress" yaml:"progress"`
	TargetDate string   `json:"target_date,omitempty" yaml:"target_date,omitempty"`
	DaysLeft   *int     `json:"days_left,omitempty" yaml:"days_left,omitempty"`
	Overdue    bool     `json:"overdue,omitempty" yaml:"overdue,omitempty"`
	Category   string   `json:"category" yaml:"category"`
	Habits     []string `json:"habits,omitempty" yaml:"habits,omitempty"`
}

// goalFlags binds the editable goal fields shared by add and edit.
type goalFlags struct {
	target      string
	category    string
	description string
}

func (f *goalFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.target, "target", "", "Target date (YYYY-MM-DD or relative; empty for none)")
	cmd.Flags().StringVar(&f.category, "category", "", "Category (default: personal)")
	cmd.Flags().StringVar(&f.description, "description", "", "Longer description")
}

func (f *goalFlags) apply(cmd *cobra.Command, p *habit.GoalParams) {
	if cmd.Flags().Changed("target") {
		p.TargetDate = f.target
	}
	if cmd.Flags().Changed("category") {
		p.Category = f.category
	}
	if cmd.Flags().Changed("description") {
		p.Description = f.description
	}
}

func (a *App) goalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Track goals and their progress",
		Long: `Track longer-term goals.

Goals start active at 0%. Reaching 100% completes a goal; habits can be
linked to a goal with "grindflow habit add --goal".`,
	}

	cmd.AddCommand(a.goalAddCmd())
	cmd.AddCommand(a.goalListCmd())
	cmd.AddCommand(a.goalProgressCmd())
	cmd.AddCommand(a.goalStatusCmd())
	cmd.AddCommand(a.goalEditCmd())
	cmd.AddCommand(a.goalDeleteCmd())

	return cmd
}

func (a *App) goalAddCmd() *cobra.Command {
	var flags goalFlags

	cmd := &cobra.Command{
		Use:     "add [title]",
		Short:   "Add a goal",
		Example: `  grindflow goal add "Run a half marathon" --target=2025-06-01 --category=health`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.habitRepo()
			if err != nil {
				return err
			}

			p := habit.GoalParams{Title: strings.Join(args, " ")}
			flags.apply(cmd, &p)
			g, err := habit.NewGoalAt(p, a.now())
			if err != nil {
				return err
			}
			if err := repo.CreateGoal(cmd.Context(), g); err != nil {
				return fmt.Errorf("creating goal: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created goal %s: %s%s\n", g.ID, g.Title, describeTarget(g))
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}

func (a *App) goalListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List goals with progress and linked habits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			repo, err := a.habitRepo()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			goals, err := repo.ListGoals(ctx)
			if err != nil {
				return fmt.Errorf("listing goals: %w", err)
			}
			habits, err := repo.ListHabits(ctx, false)
			if err != nil {
				return fmt.Errorf("listing habits: %w", err)
			}
			linked := make(map[string][]string)
			for _, h := range habits {
				if h.LinkedGoalID != "" {
					linked[h.LinkedGoalID] = append(linked[h.LinkedGoalID], h.Title)
				}
			}

			now := a.now()
			views := make([]goalView, 0, len(goals))
			for _, g := range goals {
				v := goalView{
					ID:       g.ID,
					Title:    g.Title,
					Status:   string(g.Status),
					Progress: g.Progress,
					Overdue:  g.IsOverdue(now),
					Category: g.Category,
					Habits:   linked[g.ID],
				}
				if !g.TargetDate.IsZero() {
					left := g.DaysLeft(now)
					v.TargetDate = schedule.DayKey(g.TargetDate)
					v.DaysLeft = &left
				}
				views = append(views, v)
			}

			out := cmd.OutOrStdout()
			if output != outputText {
				return writeStructured(out, output, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "No goals yet. Add one with: grindflow goal add \"Ship it\"")
				return nil
			}
			for _, v := range views {
				printGoalRow(out, v)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")

	return cmd
}

func (a *App) goalProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "progress [id] [percent]",
		Short:   "Record progress on a goal",
		Example: `  grindflow goal progress 3c1e... 40`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			percent, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
			if err != nil {
				return fmt.Errorf("%w: %q", habit.ErrInvalidProgress, args[1])
			}
			return a.updateGoal(cmd, args[0], func(g *habit.Goal) error {
				return g.SetProgress(percent, a.now())
			})
		},
	}
}

func (a *App) goalStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "status [id] [active|completed|paused]",
		Short:     "Change a goal's status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(habit.GoalActive), string(habit.GoalCompleted), string(habit.GoalPaused)},
		RunE: func(cmd *cobra.Command, args []string) error {
			status := habit.GoalStatus(strings.ToLower(args[1]))
			return a.updateGoal(cmd, args[0], func(g *habit.Goal) error {
				return g.SetStatus(status, a.now())
			})
		},
	}
}

func (a *App) goalEditCmd() *cobra.Command {
	var (
		flags goalFlags
		title string
	)

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updateGoal(cmd, args[0], func(g *habit.Goal) error {
				p := g.Params()
				flags.apply(cmd, &p)
				if cmd.Flags().Changed("title") {
					p.Title = title
				}
				return g.Apply(p, a.now())
			})
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&title, "title", "", "New title")

	return cmd
}

// updateGoal loads a goal, applies change and stores the result.
func (a *App) updateGoal(cmd *cobra.Command, id string, change func(*habit.Goal) error) error {
	repo, err := a.habitRepo()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	g, err := repo.GetGoal(ctx, id)
	if err != nil {
		return fmt.Errorf("loading goal: %w", err)
	}
	if err := change(g); err != nil {
		return err
	}
	if err := repo.UpdateGoal(ctx, g); err != nil {
		return fmt.Errorf("updating goal: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated goal %s: %s [%s %d%%]%s\n", g.ID, g.Title, g.Status, g.Progress, describeTarget(g))
	return nil
}

func (a *App) goalDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a goal and unlink its habits",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.habitRepo()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			g, err := repo.GetGoal(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading goal: %w", err)
			}
			if err := repo.DeleteGoal(ctx, g.ID); err != nil {
				return fmt.Errorf("deleting goal: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %s: %s\n", g.ID, g.Title)
			return nil
		},
	}
}

func describeTarget(g *habit.Goal) string {
	if g.TargetDate.IsZero() {
		return ""
	}
	return " by " + schedule.DayKey(g.TargetDate)
}

// progressBar renders percent as a ten-cell bar.
func progressBar(percent int) string {
	filled := max(0, min(10, percent/10))
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

func printGoalRow(w io.Writer, v goalView) {
	line := fmt.Sprintf("%-10s %-28s %s %3d%%", "["+v.Status+"]", v.Title, progressBar(v.Progress), v.Progress)
	if v.TargetDate != "" {
		when := fmt.Sprintf("due %s (%d days left)", v.TargetDate, *v.DaysLeft)
		if v.Overdue {
			when = formatWarn(fmt.Sprintf("overdue since %s", v.TargetDate))
		}
		line += "  " + when
	}
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "  %s\n", formatMuted(v.ID))
	if len(v.Habits) > 0 {
		fmt.Fprintf(w, "  habits: %s\n", strings.Join(v.Habits, ", "))
	}
}
