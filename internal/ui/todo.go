package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
)

func (a *App) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			t, err := a.repo.GetTodo(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("loading todo: %w", err)
			}
			printTodoDetail(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

func (a *App) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a todo",
		Long: `Delete a todo. Deleting a recurring todo removes every occurrence.

Example:
  grindflow delete 5f0c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			ctx := cmd.Context()
			t, err := a.repo.GetTodo(ctx, args[0])
			if err != nil {
				return fmt.Errorf("loading todo: %w", err)
			}
			if err := a.repo.DeleteTodo(ctx, t.ID); err != nil {
				return fmt.Errorf("deleting todo: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted todo %s: %s\n", t.ID, t.Title)
			return nil
		},
	}
}

func (a *App) toggleCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "toggle [id]",
		Short: "Mark a todo done or open",
		Long: `Flip the completion state of a todo.

Recurring todos are completed per occurrence: --date picks the day
(default: today).`,
		Example: `  grindflow toggle 5f0c...
  grindflow toggle 5f0c... --date=yesterday`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
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

			t, err := a.repo.ToggleTodo(cmd.Context(), args[0], day)
			if err != nil {
				return fmt.Errorf("toggling todo: %w", err)
			}

			state := "open"
			if t.CompletedOn(day) {
				state = "done"
			}
			if t.IsRecurring() {
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s %s on %s\n", t.Title, state, day)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s %s\n", t.Title, state)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Occurrence day for recurring todos (default: today)")

	return cmd
}
