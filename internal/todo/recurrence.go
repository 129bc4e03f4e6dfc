package todo

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/grindflow/grindflow/internal/schedule"
)

// maxOccurrences caps expansion of a single todo within one window.
const maxOccurrences = 1000

var ruleDays = map[string]rrule.Weekday{
	"monday":    rrule.MO,
	"tuesday":   rrule.TU,
	"wednesday": rrule.WE,
	"thursday":  rrule.TH,
	"friday":    rrule.FR,
	"saturday":  rrule.SA,
	"sunday":    rrule.SU,
}

var weekdayRule = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Occurrence is one concrete day of a todo.
type Occurrence struct {
	Todo      *Todo
	Day       string // YYYY-MM-DD
	Completed bool
}

// ID identifies the occurrence. Recurring todos get "<id>@<day>".
func (o Occurrence) ID() string {
	if !o.Todo.IsRecurring() {
		return o.Todo.ID
	}
	return o.Todo.ID + "@" + o.Day
}

// Item converts the occurrence for the scheduling core.
func (o Occurrence) Item() schedule.Item {
	it := o.Todo.Item()
	it.ID = o.ID()
	it.Date = schedule.CanonicalDay(o.Day)
	return it
}

// OccurrenceItems converts occurrences for the scheduling core.
func OccurrenceItems(occ []Occurrence) []schedule.Item {
	items := make([]schedule.Item, 0, len(occ))
	for _, o := range occ {
		items = append(items, o.Item())
	}
	return items
}

// options builds the recurrence rule anchored at the scheduled date.
func (t *Todo) options() (*rrule.ROption, error) {
	opt := &rrule.ROption{Dtstart: t.ScheduledDate}
	switch t.Recurring {
	case RecurDaily:
		opt.Freq = rrule.DAILY
	case RecurWeekly:
		opt.Freq = rrule.WEEKLY
		if len(t.Days) == 0 {
			opt.Byweekday = []rrule.Weekday{weekdayRule[t.ScheduledDate.Weekday()]}
		}
	case RecurMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecurrence, t.Recurring)
	}
	// Daily todos restricted to certain weekdays behave like a weekly rule.
	if t.Recurring != RecurMonthly {
		for _, d := range t.Days {
			if wd, ok := ruleDays[d]; ok {
				opt.Byweekday = append(opt.Byweekday, wd)
			}
		}
	}
	return opt, nil
}

// RRule renders the RFC 5545 recurrence rule, or "" for one-off todos.
func (t *Todo) RRule() string {
	if !t.IsRecurring() {
		return ""
	}
	opt, err := t.options()
	if err != nil {
		return ""
	}
	return opt.RRuleString()
}

// Occurrences returns the days in [from, to] the todo falls on, inclusive.
// from and to are calendar days read in their own location; the days
// returned are in the location of ScheduledDate.
func (t *Todo) Occurrences(from, to time.Time) ([]time.Time, error) {
	if !t.IsRecurring() {
		d := t.ScheduledDate
		key := schedule.DayKey(d)
		if key < schedule.DayKey(from) || key > schedule.DayKey(to) {
			return nil, nil
		}
		return []time.Time{d}, nil
	}

	opt, err := t.options()
	if err != nil {
		return nil, err
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("building rule for %s: %w", t.ID, err)
	}
	loc := t.ScheduledDate.Location()
	days := r.Between(dayIn(from, loc), dayIn(to, loc).AddDate(0, 0, 1).Add(-time.Nanosecond), true)
	if len(days) > maxOccurrences {
		days = days[:maxOccurrences]
	}
	return days, nil
}

// dayIn returns midnight in loc of the calendar day t falls on.
func dayIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Expand lists every occurrence of the todos between two days, inclusive.
// Todos whose rule cannot be built are skipped.
func Expand(todos []*Todo, from, to time.Time) []Occurrence {
	var out []Occurrence
	for _, t := range todos {
		days, err := t.Occurrences(from, to)
		if err != nil {
			continue
		}
		for _, d := range days {
			key := schedule.DayKey(d)
			out = append(out, Occurrence{Todo: t, Day: key, Completed: t.CompletedOn(key)})
		}
	}
	return out
}

// DayItems returns one item per todo occurring on day, keeping the plain
// todo ID so a todo can be excluded while it is being edited.
func DayItems(todos []*Todo, day time.Time) []schedule.Item {
	var items []schedule.Item
	for _, o := range Expand(todos, day, day) {
		it := o.Item()
		it.ID = o.Todo.ID
		items = append(items, it)
	}
	return items
}
