package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/llm"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/scheduler"
)

// recentDays is how much history the planner sees to infer habits.
const recentDays = 14

func (a *App) planCmd() *cobra.Command {
	var (
		modelFlag string
		date      string
		minutes   int
		compact   bool
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "plan [description]",
		Short: "Plan todos from natural language input",
		Long: `Use an LLM to turn a description into scheduled todos.

Every proposal is checked against your existing todos. A proposal that
overlaps something is moved to the next free slot of the same length;
if none is found within two weeks it is shown with its conflicts and
left out when saving.

Examples:
  grindflow plan "Write thesis introduction, review PRs, email clients"
  grindflow plan "Gym three times next week" --minutes=60
  grindflow plan "Focus on documentation" --date=tomorrow --dry-run

Interactive mode:
  After the model proposes a schedule, you can:
  - [a]ccept: Save the todos to your schedule
  - [m]odify: Provide feedback to adjust the proposal
  - [c]ancel: Exit without saving`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			llmCfg := a.config.LLM
			if modelFlag != "" {
				llmCfg.Model = modelFlag
			}
			client, err := a.newClient(llmCfg)
			if err != nil {
				return fmt.Errorf("creating LLM client: %w", err)
			}

			now, err := a.planningNow(date)
			if err != nil {
				return err
			}
			today := dateutil.TruncateToDay(now)
			existing, err := a.busyItems(ctx, today, today.AddDate(0, 0, scheduler.SearchDays))
			if err != nil {
				return err
			}
			recent, err := a.busyItems(ctx, today.AddDate(0, 0, -recentDays), today.AddDate(0, 0, -1))
			if err != nil {
				return err
			}

			input := strings.Join(args, " ")
			if minutes > 0 {
				input += fmt.Sprintf("\nEach todo should take about %d minutes.", minutes)
			}
			req := llm.PlanRequest{
				Input:    input,
				Now:      now,
				DayStart: a.config.Schedule.DayStart,
				DayEnd:   a.config.Schedule.DayEnd,
				Existing: existing,
				Recent:   recent,
				Compact:  compact,
			}
			planner := llm.NewPlanner(client, a.newScheduler(), a.detector(), a.logger)

			reader := bufio.NewReader(cmd.InOrStdin())
			for {
				fmt.Fprintln(out, "Planning todos...")
				proposals, resp, err := planner.Suggest(ctx, req)
				if err != nil {
					return fmt.Errorf("planning: %w", err)
				}
				displayPlan(out, req, proposals, resp)

				if dryRun {
					fmt.Fprintln(out, "\n(Dry run - todos not saved)")
					return nil
				}

				fmt.Fprint(out, "\n[a]ccept / [m]odify / [c]ancel: ")
				choice, err := reader.ReadString('\n')
				if err != nil && choice == "" {
					return fmt.Errorf("reading input: %w", err)
				}

				switch strings.TrimSpace(strings.ToLower(choice)) {
				case "a", "accept":
					saved := 0
					for _, p := range proposals {
						if len(p.Conflicts) > 0 {
							fmt.Fprintf(out, "Skipping %q: it still overlaps existing todos\n", p.Todo.Title)
							continue
						}
						conflicts, err := a.repo.CreateTodo(ctx, p.Todo)
						if err != nil {
							return conflictHint(fmt.Sprintf("saving %q", p.Todo.Title), err)
						}
						PrintConflicts(out, fmt.Sprintf("Warning: %q overlaps existing todos", p.Todo.Title), conflicts)
						saved++
					}
					fmt.Fprintf(out, "\n%d todos saved\n", saved)
					return nil

				case "m", "modify":
					fmt.Fprint(out, "What would you like to change? ")
					feedback, _ := reader.ReadString('\n')
					feedback = strings.TrimSpace(feedback)
					if feedback == "" {
						fmt.Fprintln(out, "No modification provided, planning again...")
						continue
					}
					req.Input = input + "\n\nChanges to the previous plan: " + feedback

				case "c", "cancel":
					fmt.Fprintln(out, "Planning cancelled.")
					return nil

				default:
					fmt.Fprintln(out, "Invalid choice. Please enter 'a', 'm', or 'c'.")
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&modelFlag, "model", "", "LLM model to use (from config if not set)")
	cmd.Flags().StringVar(&date, "date", "", "Plan from this day instead of now")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Preferred length of each todo")
	cmd.Flags().BoolVar(&compact, "compact", false, "Use a shorter prompt for small local models")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show planned todos without saving")

	return cmd
}

// planningNow is now, or the start of the working day when planning a
// later date.
func (a *App) planningNow(date string) (time.Time, error) {
	now := a.now()
	if date == "" {
		return now, nil
	}
	day, err := dateutil.ParseRelativeDate(date, now)
	if err != nil {
		return time.Time{}, err
	}
	if !day.After(now) {
		return now, nil
	}
	start, err := schedule.TimeToMinutes(a.config.Schedule.DayStart)
	if err != nil {
		return day, nil
	}
	return day.Add(time.Duration(start) * time.Minute), nil
}

// displayPlan shows the proposals grouped by day.
func displayPlan(w io.Writer, req llm.PlanRequest, proposals []llm.Proposal, resp *llm.PlanResponse) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Planning context: %s\n", req.Now.Format(schedule.LongDayLayout))
	fmt.Fprintf(w, "Working hours: %s - %s\n", req.DayStart, req.DayEnd)

	if len(resp.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range resp.Warnings {
			fmt.Fprintf(w, "  ! %s\n", formatWarn(warn))
		}
	}
	if len(resp.Suggestions) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		for _, s := range resp.Suggestions {
			fmt.Fprintf(w, "  * %s\n", s)
		}
	}

	if len(proposals) == 0 {
		fmt.Fprintln(w, "\nNo todos proposed.")
		return
	}

	var days []string
	byDay := make(map[string][]llm.Proposal)
	for _, p := range proposals {
		key := schedule.DayKey(p.Todo.ScheduledDate)
		if _, ok := byDay[key]; !ok {
			days = append(days, key)
		}
		byDay[key] = append(byDay[key], p)
	}

	for _, key := range days {
		fmt.Fprintf(w, "\n%s:\n", schedule.DayLabel(key, req.Now))
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, p := range byDay[key] {
			t := p.Todo
			fmt.Fprintf(w, "  %s %s-%s  %s  %s\n",
				statusSymbol(false), t.StartTime, t.EndTime,
				formatPriority(t.Priority, fmt.Sprintf("%-3s", priorityMark(t.Priority))), t.Title)
			if t.IsRecurring() {
				fmt.Fprintf(w, "      %s\n", formatMuted("repeats "+describeRecurrence(t)))
			}
			if p.MovedFrom != "" {
				fmt.Fprintf(w, "      %s\n", formatMuted("moved from "+p.MovedFrom))
			}
			for _, c := range p.Conflicts {
				fmt.Fprintf(w, "      %s\n", formatWarn("⚠ overlaps "+schedule.FormatConflict(c)))
			}
		}
	}

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Total: %d todos", len(proposals))
	if len(days) > 1 {
		fmt.Fprintf(w, " across %d days", len(days))
	}
	fmt.Fprintln(w)
}
