package ics

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

var errSkip = errors.New("unsupported event")

var ruleDayNames = map[rrule.Weekday]string{
	rrule.MO: "monday",
	rrule.TU: "tuesday",
	rrule.WE: "wednesday",
	rrule.TH: "thursday",
	rrule.FR: "friday",
	rrule.SA: "saturday",
	rrule.SU: "sunday",
}

// Importer turns VEVENTs into todos.
type Importer struct {
	Location *time.Location
	Clock    schedule.Clock
	Logger   *slog.Logger
}

// Import parses an iCalendar document. Events that cannot become a todo
// (all-day, spanning midnight, missing summary, bad times) are skipped with
// a warning. Only a document that fails to parse is an error.
func (im *Importer) Import(r io.Reader) ([]*todo.Todo, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	loc := im.Location
	if loc == nil {
		loc = time.Local
	}
	logger := im.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := im.Clock
	if clock == nil {
		clock = schedule.SystemClock{}
	}
	now := clock.Now().In(loc)

	var todos []*todo.Todo
	for _, ev := range cal.Events() {
		t, err := fromEvent(ev, loc, now)
		if err != nil {
			logger.Warn("skipping calendar event", "uid", ev.Id(), "err", err)
			continue
		}
		todos = append(todos, t)
	}
	return todos, nil
}

func fromEvent(ev *ical.VEvent, loc *time.Location, now time.Time) (*todo.Todo, error) {
	summary := propValue(ev, ical.ComponentPropertySummary)
	if summary == "" {
		return nil, fmt.Errorf("%w: missing summary", errSkip)
	}

	if dt := ev.GetProperty(ical.ComponentPropertyDtStart); dt == nil {
		return nil, fmt.Errorf("%w: missing DTSTART", errSkip)
	} else if !strings.Contains(dt.Value, "T") {
		return nil, fmt.Errorf("%w: all-day event", errSkip)
	}

	start, err := ev.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := ev.GetEndAt()
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	start, end = start.In(loc), end.In(loc)
	if schedule.DayKey(start) != schedule.DayKey(end) {
		return nil, fmt.Errorf("%w: spans more than one day", errSkip)
	}

	p := todo.Params{
		Title:       summary,
		Description: propValue(ev, ical.ComponentPropertyDescription),
		Category:    firstCategory(propValue(ev, ical.ComponentPropertyCategories)),
		Icon:        propValue(ev, propIcon),
		Priority:    string(priorityFromValue(propValue(ev, ical.ComponentPropertyPriority))),
		Color:       strings.ToLower(propValue(ev, propColor)),
		Date:        schedule.DayKey(start),
		Start:       start.Format("15:04"),
		End:         end.Format("15:04"),
	}
	if !isKnownColor(p.Color) {
		p.Color = ""
	}
	if raw := propValue(ev, ical.ComponentPropertyRrule); raw != "" {
		p.Recurring, p.Days, err = recurrenceFromRule(raw)
		if err != nil {
			return nil, err
		}
	}

	t, err := todo.NewAt(p, now)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(ev.Id()); err == nil {
		t.ID = ev.Id()
	}
	t.IsCompleted = strings.EqualFold(propValue(ev, propCompleted), "TRUE")
	return t, nil
}

// recurrenceFromRule maps an RRULE onto the repeat modes todos support.
// Rules that would repeat on different days once mapped are skipped.
func recurrenceFromRule(raw string) (string, []string, error) {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return "", nil, fmt.Errorf("rrule %q: %w", raw, err)
	}
	if opt.Interval > 1 || opt.Count > 0 || !opt.Until.IsZero() {
		return "", nil, fmt.Errorf("%w: rrule %q", errSkip, raw)
	}
	if len(opt.Bysetpos) > 0 || len(opt.Bymonth) > 0 || len(opt.Bymonthday) > 0 ||
		len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 || len(opt.Byeaster) > 0 ||
		len(opt.Byhour) > 0 || len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 {
		return "", nil, fmt.Errorf("%w: rrule %q", errSkip, raw)
	}

	var days []string
	for _, wd := range opt.Byweekday {
		if wd.N() != 0 {
			return "", nil, fmt.Errorf("%w: rrule %q", errSkip, raw)
		}
		name, ok := ruleDayNames[wd]
		if !ok {
			return "", nil, fmt.Errorf("%w: rrule %q", errSkip, raw)
		}
		days = append(days, name)
	}
	switch opt.Freq {
	case rrule.DAILY:
		return string(todo.RecurDaily), days, nil
	case rrule.WEEKLY:
		return string(todo.RecurWeekly), days, nil
	case rrule.MONTHLY:
		if len(days) > 0 {
			return "", nil, fmt.Errorf("%w: rrule %q", errSkip, raw)
		}
		return string(todo.RecurMonthly), nil, nil
	default:
		return "", nil, fmt.Errorf("%w: rrule %q", errSkip, raw)
	}
}

func priorityFromValue(v string) schedule.Priority {
	switch strings.TrimSpace(v) {
	case "1", "2", "3", "4":
		return schedule.PriorityHigh
	case "6", "7", "8", "9":
		return schedule.PriorityLow
	case "5":
		return schedule.PriorityMedium
	default:
		return ""
	}
}

func propValue(ev *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ev.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

func firstCategory(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

func isKnownColor(c string) bool {
	for _, known := range todo.Colors {
		if string(known) == c {
			return true
		}
	}
	return false
}
