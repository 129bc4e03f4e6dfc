package habit

import (
	"time"

	"github.com/grindflow/grindflow/internal/schedule"
)

// Streak summarizes a habit's completion history as of one day.
type Streak struct {
	Current   int  `json:"current" yaml:"current"`
	Longest   int  `json:"longest" yaml:"longest"`
	DueToday  bool `json:"due_today" yaml:"due_today"`
	DoneToday bool `json:"done_today" yaml:"done_today"`
}

// Streaks counts consecutive completed due days up to now. A due day that
// is still today and not yet done does not break the current streak.
// Completions on days that were not due are ignored.
func (h *Habit) Streaks(now time.Time) Streak {
	loc := h.StartDate.Location()
	today := now.In(loc)
	todayKey := schedule.DayKey(today)

	s := Streak{
		DueToday:  h.IsDueOn(today),
		DoneToday: h.CompletedOn(todayKey),
	}
	if len(h.CompletedDates) == 0 || todayKey < schedule.DayKey(h.StartDate) {
		return s
	}

	// Due days before the first completion can only be misses.
	from := h.StartDate
	if first, err := schedule.ParseDayKey(h.CompletedDates[0], loc); err == nil && first.After(from) {
		from = first
	}

	run := 0
	for _, day := range h.dueThrough(from, today) {
		switch {
		case h.CompletedOn(day):
			run++
			s.Longest = max(s.Longest, run)
		case day == todayKey:
		default:
			run = 0
		}
	}
	s.Current = run
	return s
}

// dueThrough expands due days a year at a time so long histories are not
// cut short by the per-window occurrence cap.
func (h *Habit) dueThrough(from, to time.Time) []string {
	var days []string
	for cur := from; schedule.DayKey(cur) <= schedule.DayKey(to); cur = cur.AddDate(1, 0, 0) {
		end := cur.AddDate(1, 0, -1)
		if schedule.DayKey(end) > schedule.DayKey(to) {
			end = to
		}
		keys, err := h.DueDays(cur, end)
		if err != nil {
			return days
		}
		days = append(days, keys...)
	}
	return days
}
