package llm

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/scheduler"
	"github.com/grindflow/grindflow/internal/todo"
)

const systemPromptWithContext = `You are a scheduling assistant that turns a request into todos for a personal planner.

Context:
- Current date and time: %s, %s %s (format: DayOfWeek, YYYY-MM-DD HH:MM)
- Today: %s (%s, %s)
- Tomorrow: %s (%s, %s)
- Working hours: %s to %s

%s

%s

%s

User request: "%s"

Date rules:
- "today" → %s, "tomorrow" → %s, even on weekends
- "monday", "next monday" → next occurrence of Monday
- "in X days" → add X days to today
- Explicit "YYYY-MM-DD" → use that exact date

Other rules:
1. Resolve ALL dates to YYYY-MM-DD in "date"
2. Never schedule before the current time (%s) when scheduling for today
3. Never overlap existing todos listed above; back-to-back is fine
4. Use 24-hour HH:MM for "start" and "end", in 15-minute increments (minimum 15 minutes)
5. "priority" is "high", "medium" or "low"
6. "recurring" is "none", "daily", "weekly" or "monthly"; "days" lists weekday names for weekly or daily repeats
7. If a todo lacks a time, infer one from the recent history and suggested windows above
8. Add a warning if something does not fit

Respond ONLY with valid JSON (no markdown, no explanation):
{
  "todos": [
    {
      "title": "string",
      "description": "string",
      "category": "string",
      "priority": "high" | "medium" | "low",
      "date": "YYYY-MM-DD",
      "start": "HH:MM",
      "end": "HH:MM",
      "recurring": "none",
      "days": []
    }
  ],
  "warnings": ["string"],
  "suggestions": ["string"]
}`

const systemPromptCompact = `You are a scheduling assistant. Use the context and return JSON only.

Today: %s (%s)
Tomorrow: %s (%s)
Current time: %s
Working hours: %s to %s

%s

User request: "%s"

Rules:
- Return JSON only (no markdown).
- Use date YYYY-MM-DD and time HH:MM (24-hour), 15-minute increments.
- Do not overlap existing todos above. Do not schedule before the current time today.
- priority is "high", "medium" or "low".
- "warnings" and "suggestions" must be arrays of strings.

JSON schema:
{
  "todos": [
    {"title": "string", "priority": "medium", "date": "YYYY-MM-DD", "start": "HH:MM", "end": "HH:MM"}
  ],
  "warnings": ["string"],
  "suggestions": ["string"]
}`

// PlanRequest contains the input for the planner.
type PlanRequest struct {
	Input    string
	Now      time.Time
	DayStart string // "HH:MM"
	DayEnd   string // "HH:MM"
	// Existing holds the concrete items already booked in the planning
	// window, one per occurrence.
	Existing []schedule.Item
	// Recent is past history used to infer habitual times.
	Recent  []schedule.Item
	Compact bool // shorter prompt for small local models
}

// PlanResponse contains the parsed LLM response.
type PlanResponse struct {
	Todos       []PlannedTodo `json:"todos"`
	Warnings    []string      `json:"warnings"`
	Suggestions []string      `json:"suggestions"`
}

// PlannedTodo is one todo as proposed by the model.
type PlannedTodo struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Date        string   `json:"date"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Recurring   string   `json:"recurring"`
	Days        []string `json:"days"`
}

// Params converts the proposal into todo input.
func (pt PlannedTodo) Params() todo.Params {
	return todo.Params{
		Title:       pt.Title,
		Description: pt.Description,
		Category:    pt.Category,
		Priority:    pt.Priority,
		Date:        pt.Date,
		Start:       pt.Start,
		End:         pt.End,
		Recurring:   pt.Recurring,
		Days:        pt.Days,
	}
}

// Proposal is a validated todo ready to be saved.
type Proposal struct {
	Todo *todo.Todo
	// MovedFrom is the model's original "YYYY-MM-DD HH:MM-HH:MM" when the
	// proposal was shifted to a free slot.
	MovedFrom string
	// Conflicts is set when the proposal clashes and no free slot was found.
	Conflicts []schedule.Conflict
}

// Planner uses an LLM to plan todos from natural language input. Every
// proposal is checked with the conflict detector before it is returned.
type Planner struct {
	client    Client
	scheduler *scheduler.Scheduler
	detector  *schedule.Detector
	logger    *slog.Logger
}

// NewPlanner creates a new Planner with the given LLM client.
func NewPlanner(client Client, sched *scheduler.Scheduler, detector *schedule.Detector, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{client: client, scheduler: sched, detector: detector, logger: logger}
}

// Plan asks the model for todos without checking them.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*PlanResponse, error) {
	var resp PlanResponse
	if err := p.client.ChatJSON(ctx, p.BuildMessages(req), &resp); err != nil {
		return nil, fmt.Errorf("getting plan from LLM: %w", err)
	}
	return &resp, nil
}

// Suggest plans todos and verifies them. Invalid proposals are dropped
// with a warning appended to the response.
func (p *Planner) Suggest(ctx context.Context, req PlanRequest) ([]Proposal, *PlanResponse, error) {
	resp, err := p.Plan(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	proposals, warnings := p.Verify(resp, req)
	resp.Warnings = append(resp.Warnings, warnings...)
	return proposals, resp, nil
}

// Verify validates each proposed todo and checks it against the existing
// items and the proposals accepted before it. A clashing proposal moves to
// the next free slot of the same length at or after its requested day.
func (p *Planner) Verify(resp *PlanResponse, req PlanRequest) ([]Proposal, []string) {
	busy := slices.Clone(req.Existing)
	var proposals []Proposal
	var warnings []string

	for _, pt := range resp.Todos {
		t, err := todo.NewAt(pt.Params(), req.Now)
		if err != nil {
			p.logger.Warn("dropping invalid proposal", "title", pt.Title, "err", err)
			warnings = append(warnings, fmt.Sprintf("skipped %q: %v", pt.Title, err))
			continue
		}

		conflicts, err := p.detector.Detect(t.Slot(), busy, "")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped %q: %v", pt.Title, err))
			continue
		}

		prop := Proposal{Todo: t}
		if len(conflicts) > 0 {
			if err := p.reschedule(t, busy, req.Now); err != nil {
				prop.Conflicts = conflicts
				warnings = append(warnings, fmt.Sprintf("%q conflicts with %s", t.Title, formatConflicts(conflicts)))
			} else {
				prop.MovedFrom = fmt.Sprintf("%s %s-%s", pt.Date, pt.Start, pt.End)
				p.logger.Info("moved proposal to free slot", "title", t.Title, "from", prop.MovedFrom,
					"to", fmt.Sprintf("%s %s-%s", schedule.DayKey(t.ScheduledDate), t.StartTime, t.EndTime))
			}
		}
		if len(prop.Conflicts) == 0 {
			busy = append(busy, t.Item())
		}
		proposals = append(proposals, prop)
	}
	return proposals, warnings
}

// reschedule moves t into the first free slot of the same length.
func (p *Planner) reschedule(t *todo.Todo, busy []schedule.Item, now time.Time) error {
	from := t.ScheduledDate
	if from.Before(now) {
		from = now
	}
	slot, ok := p.scheduler.NextFreeSlot(from, busy, t.Duration())
	if !ok {
		return fmt.Errorf("no free %d minute slot within %d days", t.Duration(), scheduler.SearchDays)
	}
	params := t.Params()
	params.Date = schedule.DayKey(slot.Date)
	params.Start = slot.Start
	params.End = slot.End
	return t.Apply(params, now)
}

func formatConflicts(conflicts []schedule.Conflict) string {
	parts := make([]string, len(conflicts))
	for i, c := range conflicts {
		parts[i] = schedule.FormatConflict(c)
	}
	return strings.Join(parts, ", ")
}

// BuildMessages creates the message list for a planning request.
func (p *Planner) BuildMessages(req PlanRequest) []Message {
	now := req.Now
	dayOfWeek := now.Format("Monday")
	currentDate := schedule.DayKey(now)
	currentTime := now.Format("15:04")
	tomorrow := now.AddDate(0, 0, 1)
	tomorrowDate := schedule.DayKey(tomorrow)
	tomorrowDay := tomorrow.Format("Monday")

	dayStart := cmp.Or(req.DayStart, "09:00")
	dayEnd := cmp.Or(req.DayEnd, "17:00")
	loc := now.Location()
	existingSection := formatExisting(req.Existing, loc)

	var prompt string
	if req.Compact {
		prompt = fmt.Sprintf(systemPromptCompact,
			dayOfWeek, currentDate,
			tomorrowDay, tomorrowDate,
			currentTime,
			dayStart, dayEnd,
			existingSection,
			req.Input,
		)
	} else {
		prompt = fmt.Sprintf(systemPromptWithContext,
			dayOfWeek, currentDate, currentTime,
			dayOfWeek, currentDate, dayKind(now),
			tomorrowDay, tomorrowDate, dayKind(tomorrow),
			dayStart, dayEnd,
			existingSection,
			formatRecent(req.Recent, loc),
			formatSuggestedTimes(req.Recent),
			req.Input,
			currentDate, tomorrowDate,
			currentTime,
		)
	}

	return []Message{
		{Role: "system", Content: prompt},
	}
}

func dayKind(t time.Time) string {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return "weekend"
	default:
		return "weekday"
	}
}

type promptLine struct {
	day   string
	start string
	end   string
	title string
	prio  schedule.Priority
}

// promptLines renders items sorted by day and time. Items whose date
// cannot be resolved are left out.
func promptLines(items []schedule.Item, loc *time.Location) []string {
	lines := make([]promptLine, 0, len(items))
	for _, it := range items {
		day, err := schedule.NormalizeDay(it.Date, loc)
		if err != nil {
			continue
		}
		lines = append(lines, promptLine{day, it.Start, it.End, it.Title, it.Priority.OrDefault()})
	}
	slices.SortFunc(lines, func(a, b promptLine) int {
		return cmp.Or(
			cmp.Compare(a.day, b.day),
			cmp.Compare(a.start, b.start),
			cmp.Compare(a.end, b.end),
			cmp.Compare(a.title, b.title),
		)
	})
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fmt.Sprintf("- %s %s-%s: %s [%s]", l.day, l.start, l.end, l.title, l.prio)
	}
	return out
}

func formatExisting(items []schedule.Item, loc *time.Location) string {
	lines := promptLines(items, loc)
	if len(lines) == 0 {
		return "Existing todos: None"
	}
	return "Existing todos (avoid overlaps):\n" + strings.Join(lines, "\n")
}

func formatRecent(items []schedule.Item, loc *time.Location) string {
	lines := promptLines(items, loc)
	if len(lines) == 0 {
		return "Recent history (last 14 days): None"
	}
	return "Recent history (last 14 days):\n" + strings.Join(lines, "\n")
}

func formatSuggestedTimes(items []schedule.Item) string {
	suggestions := suggestedTimeWindows(items)
	if len(suggestions) == 0 {
		return "Suggested time windows from recent history: None"
	}
	return "Suggested time windows from recent history (median):\n- " + strings.Join(suggestions, "\n- ")
}

// suggestedTimeWindows reports the median start and end per title.
func suggestedTimeWindows(items []schedule.Item) []string {
	type timeSummary struct {
		starts []int
		ends   []int
	}

	summaries := make(map[string]*timeSummary)
	for _, it := range items {
		if it.Title == "" {
			continue
		}
		start, err1 := schedule.TimeToMinutes(it.Start)
		end, err2 := schedule.TimeToMinutes(it.End)
		if err1 != nil || err2 != nil {
			continue
		}
		s := summaries[it.Title]
		if s == nil {
			s = &timeSummary{}
			summaries[it.Title] = s
		}
		s.starts = append(s.starts, start)
		s.ends = append(s.ends, end)
	}

	titles := make([]string, 0, len(summaries))
	for title := range summaries {
		titles = append(titles, title)
	}
	slices.Sort(titles)

	suggestions := make([]string, 0, len(titles))
	for _, title := range titles {
		s := summaries[title]
		slices.Sort(s.starts)
		slices.Sort(s.ends)
		start := roundToQuarterHour(medianMinutes(s.starts))
		end := roundToQuarterHour(medianMinutes(s.ends))
		suggestions = append(suggestions, fmt.Sprintf("%s: ~%s-%s (n=%d)",
			title, schedule.MinutesToTime(start), schedule.MinutesToTime(end), len(s.starts)))
	}
	return suggestions
}

func medianMinutes(values []int) int {
	if len(values) == 0 {
		return 0
	}
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}

func roundToQuarterHour(minutes int) int {
	rounded := ((max(minutes, 0) + 7) / 15) * 15
	return min(rounded, 23*60+59)
}
