package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\033[H\033[2J"

func (a *App) todayCmd() *cobra.Command {
	var verbose bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's agenda",
		Long: `Display today's todos ordered by start time.

The todo running right now is marked with ▶ and overlapping todos are
flagged. Use 'grindflow watch' to keep the view refreshed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}
			return a.renderToday(cmd.Context(), cmd.OutOrStdout(), verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show todo descriptions")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}

// renderToday prints today's agenda with the active todo marked.
func (a *App) renderToday(ctx context.Context, w io.Writer, verbose bool) error {
	now := a.now()
	today := dateutil.TruncateToDay(now)

	occ, err := a.occurrences(ctx, today, today)
	if err != nil {
		return err
	}
	sortByStart(occ)

	fmt.Fprintf(w, "=== %s ===\n\n", formatHeader("Today · "+today.Format(schedule.LongDayLayout)))
	if len(occ) == 0 {
		fmt.Fprintln(w, "No todos scheduled for today.")
		return nil
	}

	opts := RowOpts{
		PeakStart: a.config.Schedule.PeakHoursStart,
		PeakEnd:   a.config.Schedule.PeakHoursEnd,
		Verbose:   verbose,
		NowMinute: now.Hour()*60 + now.Minute(),
	}
	conflicts := overlapping(a.detector(), todo.OccurrenceItems(occ))

	var stats DayStats
	for _, o := range occ {
		PrintAgendaRow(w, o, conflicts[o.ID()], opts)
		AccumulateStats(&stats, o, opts)
	}

	fmt.Fprintln(w)
	PrintStats(w, stats, opts.HasPeakHours())
	return nil
}

// sortByStart orders occurrences by day, then start time, then creation.
func sortByStart(occ []todo.Occurrence) {
	slices.SortStableFunc(occ, func(x, y todo.Occurrence) int {
		if x.Day != y.Day {
			if x.Day < y.Day {
				return -1
			}
			return 1
		}
		xs, _ := schedule.TimeToMinutes(x.Todo.StartTime)
		ys, _ := schedule.TimeToMinutes(y.Todo.StartTime)
		if xs != ys {
			return xs - ys
		}
		return x.Todo.CreatedAt.Compare(y.Todo.CreatedAt)
	})
}

func (a *App) watchCmd() *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep today's agenda on screen",
		Long: `Redraw today's agenda on a cron schedule until interrupted.

The schedule comes from [watch] spec in the config file ("@every 1m" by
default) and accepts standard five-field cron expressions or descriptors
such as "@every 30s".`,
		Example: `  grindflow watch
  grindflow watch --spec="*/5 * * * *"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if spec == "" {
				spec = a.config.Watch.Spec
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, cmd.OutOrStdout(), spec)
		},
	}

	cmd.Flags().StringVar(&spec, "spec", "", "Cron spec for refreshes (default: from config)")
	return cmd
}

// watch renders today once, then again on every tick of spec until ctx
// is done.
func (a *App) watch(ctx context.Context, w io.Writer, spec string) error {
	loc, err := a.location()
	if err != nil {
		return err
	}

	// A refresh that has started finishes drawing even if ctx ends.
	renderCtx := context.WithoutCancel(ctx)
	var mu sync.Mutex
	render := func() {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprint(w, clearScreen)
		if err := a.renderToday(renderCtx, w, false); err != nil {
			a.logger.Error("refreshing agenda", "err", err)
		}
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, render); err != nil {
		return fmt.Errorf("invalid watch spec %q: %w", spec, err)
	}

	render()
	c.Start()
	a.logger.Debug("watching agenda", "spec", spec, "jobs", len(c.Entries()))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
