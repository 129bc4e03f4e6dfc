package ui

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

// ErrConflictsFound is returned by check when the slot is taken.
var ErrConflictsFound = errors.New("slot has conflicts")

// checkResult is the structured output of check.
type checkResult struct {
	Date      string              `json:"date" yaml:"date"`
	Start     string              `json:"start" yaml:"start"`
	End       string              `json:"end" yaml:"end"`
	Free      bool                `json:"free" yaml:"free"`
	Conflicts []schedule.Conflict `json:"conflicts" yaml:"conflicts"`
}

func (a *App) checkCmd() *cobra.Command {
	var (
		date    string
		start   string
		end     string
		exclude string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a time slot for conflicts",
		Long: `Report every todo that overlaps the given slot.

Ranges are half-open, so back-to-back todos do not conflict. Use --exclude
with a todo id to ignore that todo, as edit does. The command fails when
the slot is taken, which makes it usable from scripts.`,
		Example: `  grindflow check --date=tomorrow --start=09:00 --end=10:00
  grindflow check --start=14:00 --end=15:00 --exclude=5f0c... --output=json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			day, err := dateutil.ParseRelativeDate(date, a.now())
			if err != nil {
				return err
			}
			slot := schedule.Slot{Date: schedule.DayOf(day), Start: start, End: end}
			s1, err := schedule.TimeToMinutes(start)
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			e1, err := schedule.TimeToMinutes(end)
			if err != nil {
				return fmt.Errorf("end: %w", err)
			}

			todos, err := a.repo.ListTodosByDateRange(cmd.Context(), day, day)
			if err != nil {
				return fmt.Errorf("listing todos: %w", err)
			}
			conflicts, err := a.detector().Detect(slot, todo.DayItems(todos, day), exclude)
			if err != nil {
				return err
			}

			res := checkResult{
				Date:      schedule.DayKey(day),
				Start:     start,
				End:       end,
				Free:      len(conflicts) == 0,
				Conflicts: conflicts,
			}
			if res.Conflicts == nil {
				res.Conflicts = []schedule.Conflict{}
			}

			out := cmd.OutOrStdout()
			if output != outputText {
				if err := writeStructured(out, output, res); err != nil {
					return err
				}
			} else if res.Free {
				fmt.Fprintf(out, "%s %s-%s is %s\n", res.Date, start, end, formatStats("free"))
			} else {
				fmt.Fprintln(out, formatWarn(fmt.Sprintf("%s %s-%s overlaps:", res.Date, start, end)))
				for _, c := range conflicts {
					fmt.Fprintf(out, "  ! %s %s-%s  %s (%s)\n", c.Date, c.Start, c.End, c.Title, relation(s1, e1, c))
				}
			}

			if !res.Free {
				return fmt.Errorf("%w: %d", ErrConflictsFound, len(conflicts))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to check (default: today)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM, required)")
	cmd.Flags().StringVar(&end, "end", "", "End time (HH:MM, required)")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Todo id to ignore")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")

	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

// relation describes how a conflicting todo sits against the checked range.
func relation(s1, e1 int, c schedule.Conflict) string {
	s2, err := schedule.TimeToMinutes(c.Start)
	if err != nil {
		return string(c.Type)
	}
	e2, err := schedule.TimeToMinutes(c.End)
	if err != nil {
		return string(c.Type)
	}
	if schedule.Classify(s1, e1, s2, e2) != schedule.ConflictContains {
		return string(c.Type)
	}
	if s1 <= s2 && e2 <= e1 {
		return "inside the slot"
	}
	return "covers the slot"
}
