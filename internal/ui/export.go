package ui

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/ics"
	"github.com/grindflow/grindflow/internal/todo"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

func (a *App) exportCmd() *cobra.Command {
	var (
		outPath   string
		startDate string
		endDate   string
		toClip    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export todos as iCalendar",
		Long: `Write todos as an iCalendar (.ics) document that calendar apps can
subscribe to or import. Recurring todos keep their repeat rule.

Without --start every todo is exported. The document goes to stdout
unless --out or --copy is given.`,
		Example: `  grindflow export --out=grindflow.ics
  grindflow export --start=today --end=next-week --copy`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			ctx := cmd.Context()
			var (
				todos []*todo.Todo
				err   error
			)
			if startDate == "" && endDate == "" {
				todos, err = a.repo.ListTodos(ctx)
			} else {
				var r *dateutil.DateRange
				r, err = dateutil.NewDateRange(startDate, endDate, a.now())
				if err != nil {
					return err
				}
				todos, err = a.repo.ListTodosByDateRange(ctx, r.Start, r.End)
			}
			if err != nil {
				return fmt.Errorf("listing todos: %w", err)
			}

			doc := ics.Export(todos, a.clock.Now(), a.logger)
			out := cmd.OutOrStdout()

			switch {
			case toClip:
				if err := writeClipboard(doc); err != nil {
					return fmt.Errorf("copying to clipboard: %w", err)
				}
				fmt.Fprintf(out, "Copied %d todos to the clipboard\n", len(todos))
			case outPath != "":
				path, err := resolvePath(outPath)
				if err != nil {
					return err
				}
				if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
					return fmt.Errorf("writing calendar: %w", err)
				}
				fmt.Fprintf(out, "Exported %d todos to %s\n", len(todos), path)
			default:
				fmt.Fprint(out, doc)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&startDate, "start", "", "First day to export")
	cmd.Flags().StringVar(&endDate, "end", "", "Last day to export (defaults to --start)")
	cmd.Flags().BoolVar(&toClip, "copy", false, "Copy the document to the clipboard")

	return cmd
}
