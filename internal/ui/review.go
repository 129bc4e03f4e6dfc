package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/llm"
	"github.com/grindflow/grindflow/internal/schedule"
)

func (a *App) reviewCmd() *cobra.Command {
	var (
		date      string
		modelFlag string
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Ask the LLM to critique a day's plan",
		Long: `Print the day's agenda followed by a short review from the configured
model: how full the day is, whether hard work lands in peak hours and
what to move.`,
		Example: `  grindflow review
  grindflow review --date=tomorrow`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			day, err := dateutil.ParseRelativeDate(date, a.now())
			if err != nil {
				return err
			}
			occ, err := a.occurrences(ctx, day, day)
			if err != nil {
				return err
			}
			if len(occ) == 0 {
				fmt.Fprintf(out, "Nothing scheduled for %s.\n", day.Format(schedule.LongDayLayout))
				return nil
			}
			sortByStart(occ)

			llmCfg := a.config.LLM
			if modelFlag != "" {
				llmCfg.Model = modelFlag
			}
			client, err := a.newClient(llmCfg)
			if err != nil {
				return fmt.Errorf("creating LLM client: %w", err)
			}

			fmt.Fprintf(out, "=== %s ===\n\n", formatHeader(schedule.DayLabel(schedule.DayKey(day), a.now())))
			opts := RowOpts{
				PeakStart: a.config.Schedule.PeakHoursStart,
				PeakEnd:   a.config.Schedule.PeakHoursEnd,
				NowMinute: -1,
			}
			var stats DayStats
			items := make([]schedule.Item, 0, len(occ))
			for _, o := range occ {
				PrintAgendaRow(out, o, false, opts)
				AccumulateStats(&stats, o, opts)
				items = append(items, o.Item())
			}
			fmt.Fprintln(out)
			PrintStats(out, stats, opts.HasPeakHours())

			review, err := llm.NewReviewer(client).Review(ctx, llm.ReviewRequest{
				Day:       day,
				Items:     items,
				DayStart:  a.config.Schedule.DayStart,
				DayEnd:    a.config.Schedule.DayEnd,
				PeakStart: a.config.Schedule.PeakHoursStart,
				PeakEnd:   a.config.Schedule.PeakHoursEnd,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			PrintInsightWrapped(out, review, min(termWidth(), 100))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to review (default: today)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "LLM model to use (from config if not set)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")

	return cmd
}
