// Package ics converts todos to and from iCalendar documents.
package ics

import (
	"log/slog"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

// ProductID identifies exported calendars.
const ProductID = "-//grindflow//grindflow//EN"

// Extension properties carrying fields iCalendar has no slot for.
const (
	propIcon      ical.ComponentProperty = "X-GRINDFLOW-ICON"
	propColor     ical.ComponentProperty = "COLOR"
	propCompleted ical.ComponentProperty = "X-GRINDFLOW-COMPLETED"
)

// PRIORITY values per RFC 5545: 1 is highest, 9 lowest.
var priorityValues = map[schedule.Priority]int{
	schedule.PriorityHigh:   1,
	schedule.PriorityMedium: 5,
	schedule.PriorityLow:    9,
}

// Export renders todos as a VCALENDAR with one VEVENT per todo.
// Recurring todos carry their RRULE. Todos without a usable date or time
// range are left out with a warning.
func Export(todos []*todo.Todo, now time.Time, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, t := range todos {
		start, end, ok := bounds(t)
		if !ok {
			logger.Warn("skipping todo in export", "id", t.ID, "date", t.ScheduledDate, "start", t.StartTime, "end", t.EndTime)
			continue
		}

		ev := cal.AddEvent(t.ID)
		ev.SetDtStampTime(now)
		ev.SetCreatedTime(t.CreatedAt)
		ev.SetModifiedAt(t.UpdatedAt)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(t.Title)
		if t.Description != "" {
			ev.SetDescription(t.Description)
		}
		if t.Category != "" {
			ev.SetProperty(ical.ComponentPropertyCategories, t.Category)
		}
		ev.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(priorityValues[t.Priority.OrDefault()]))
		if t.Color != "" {
			ev.SetProperty(propColor, string(t.Color))
		}
		if t.Icon != "" {
			ev.SetProperty(propIcon, t.Icon)
		}
		if rule := t.RRule(); rule != "" {
			ev.AddRrule(rule)
		}
		if t.IsCompleted {
			ev.SetProperty(propCompleted, "TRUE")
		}
	}
	return cal.Serialize()
}

// bounds returns the first occurrence's start and end instants.
func bounds(t *todo.Todo) (time.Time, time.Time, bool) {
	if t.ScheduledDate.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	s, err1 := schedule.TimeToMinutes(t.StartTime)
	e, err2 := schedule.TimeToMinutes(t.EndTime)
	if err1 != nil || err2 != nil || e <= s {
		return time.Time{}, time.Time{}, false
	}
	d := t.ScheduledDate
	start := time.Date(d.Year(), d.Month(), d.Day(), s/60, s%60, 0, 0, d.Location())
	end := time.Date(d.Year(), d.Month(), d.Day(), e/60, e%60, 0, 0, d.Location())
	return start, end, true
}
