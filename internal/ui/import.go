package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/ics"
	"github.com/grindflow/grindflow/internal/todo"
)

// importResult counts what happened to each imported event.
type importResult struct {
	Imported  int
	Duplicate int
	Conflict  int
}

func (a *App) importCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [file.ics]",
		Short: "Import todos from an iCalendar file",
		Long: `Import timed events from an iCalendar (.ics) file as todos.

All-day events, events spanning midnight and unsupported repeat rules are
skipped with a warning. Events already imported (same UID) are left alone,
and events that overlap existing todos follow the conflict policy: with
"reject" they are skipped, with "warn" they are stored and reported.

Example:
  grindflow import ~/Downloads/calendar.ics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			path, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening calendar: %w", err)
			}
			defer func() { _ = f.Close() }()

			loc, err := a.location()
			if err != nil {
				return err
			}
			importer := &ics.Importer{Location: loc, Clock: a.clock, Logger: a.logger}
			todos, err := importer.Import(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, t := range todos {
					fmt.Fprintf(out, "  %s\n", describeTodo(t))
				}
				fmt.Fprintf(out, "%d todos found in %s (dry run - not saved)\n", len(todos), path)
				return nil
			}

			res, err := importTodos(cmd.Context(), a.repo, todos, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %d todos from %s\n", res.Imported, path)
			if res.Duplicate > 0 || res.Conflict > 0 {
				fmt.Fprintln(out, formatMuted(fmt.Sprintf("Skipped: %d already imported | %d overlapping", res.Duplicate, res.Conflict)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the events without saving them")

	return cmd
}

// importTodos stores todos one by one. Duplicates and rejected overlaps are
// counted, any other error stops the import.
func importTodos(ctx context.Context, dest todo.Repository, todos []*todo.Todo, w io.Writer) (importResult, error) {
	var res importResult
	for _, t := range todos {
		if _, err := dest.GetTodo(ctx, t.ID); err == nil {
			res.Duplicate++
			continue
		} else if !errors.Is(err, todo.ErrTodoNotFound) {
			return res, fmt.Errorf("checking %q: %w", t.Title, err)
		}

		conflicts, err := dest.CreateTodo(ctx, t)
		if errors.Is(err, todo.ErrTimeConflict) {
			fmt.Fprintf(w, "  %s %s\n", formatWarn("skipped"), describeTodo(t))
			res.Conflict++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("importing %q: %w", t.Title, err)
		}
		PrintConflicts(w, fmt.Sprintf("Warning: %q overlaps existing todos", t.Title), conflicts)
		res.Imported++
	}
	return res, nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
