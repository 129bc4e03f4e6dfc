package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/scheduler"
	"github.com/grindflow/grindflow/internal/todo"
)

// slotView is the structured form of a free slot.
type slotView struct {
	Date    string `json:"date" yaml:"date"`
	Start   string `json:"start" yaml:"start"`
	End     string `json:"end" yaml:"end"`
	Minutes int    `json:"minutes" yaml:"minutes"`
}

func newSlotView(s scheduler.AvailableSlot) slotView {
	return slotView{Date: schedule.DayKey(s.Date), Start: s.Start, End: s.End, Minutes: s.Minutes()}
}

func (a *App) newScheduler() *scheduler.Scheduler {
	return scheduler.New(a.config.Schedule.Workdays, a.config.Schedule.DayStart, a.config.Schedule.DayEnd)
}

// busyItems returns one item per occurrence between two days.
func (a *App) busyItems(ctx context.Context, from, to time.Time) ([]schedule.Item, error) {
	occ, err := a.occurrences(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return todo.OccurrenceItems(occ), nil
}

func (a *App) freeCmd() *cobra.Command {
	var (
		date    string
		minutes int
		output  string
	)

	cmd := &cobra.Command{
		Use:   "free",
		Short: "Show free time inside working hours",
		Long: `List the gaps between todos on a day, bounded by day_start and day_end.

With --minutes, find the first gap of that length instead, searching
forward over workdays from now (or from --date).`,
		Example: `  grindflow free
  grindflow free --date=tomorrow
  grindflow free --minutes=90`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			now := a.now()
			day, err := dateutil.ParseRelativeDate(date, now)
			if err != nil {
				return err
			}
			sched := a.newScheduler()
			out := cmd.OutOrStdout()

			if minutes > 0 {
				from := now
				if day.After(now) {
					from = day
				}
				items, err := a.busyItems(cmd.Context(), dateutil.TruncateToDay(from), from.AddDate(0, 0, scheduler.SearchDays))
				if err != nil {
					return err
				}
				slot, ok := sched.NextFreeSlot(from, items, minutes)
				if !ok {
					return fmt.Errorf("no free %s slot in the next %d days", FormatDuration(minutes), scheduler.SearchDays)
				}
				if output != outputText {
					return writeStructured(out, output, newSlotView(slot))
				}
				fmt.Fprintf(out, "Next free %s: %s %s-%s\n",
					FormatDuration(minutes), slot.Date.Format("Mon Jan 2"), slot.Start, slot.End)
				return nil
			}

			items, err := a.busyItems(cmd.Context(), day, day)
			if err != nil {
				return err
			}
			slots := sched.FreeSlots(day, items)
			if output != outputText {
				views := make([]slotView, 0, len(slots))
				for _, s := range slots {
					views = append(views, newSlotView(s))
				}
				return writeStructured(out, output, views)
			}

			fmt.Fprintf(out, "=== %s ===\n", formatHeader(schedule.DayLabel(schedule.DayKey(day), now)))
			if !sched.IsWorkday(day) {
				fmt.Fprintln(out, formatMuted("  (not a workday)"))
			}
			if len(slots) == 0 {
				fmt.Fprintln(out, "No free time between", sched.DayStart(), "and", sched.DayEnd())
				return nil
			}
			total := 0
			for _, s := range slots {
				fmt.Fprintf(out, "  %s-%s  %s\n", s.Start, s.End, formatMuted(FormatDuration(s.Minutes())))
				total += s.Minutes()
			}
			fmt.Fprintf(out, "Free: %s\n", formatStats(FormatDuration(total)))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to inspect (default: today)")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Find the next free slot of this length")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")

	return cmd
}
