// Package habit tracks repeating habits, their streaks and the goals they feed.
package habit

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

// Validation errors.
var (
	ErrEmptyTitle       = errors.New("title cannot be empty")
	ErrInvalidFrequency = errors.New("frequency must be 'daily', 'weekly' or 'monthly'")
	ErrNotDue           = errors.New("habit is not due on that day")
	ErrFutureDay        = errors.New("cannot complete a habit in the future")
)

// Domain errors.
var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrGoalNotFound  = errors.New("goal not found")
)

// DefaultCategory is used when a habit or goal has none.
const DefaultCategory = "personal"

// Habit is something done on a repeating schedule. Completion is tracked
// per due day.
type Habit struct {
	ID              string
	Title           string
	Description     string
	Frequency       todo.Recurrence // daily, weekly or monthly
	Days            []string        // lower-case weekday names
	StartDate       time.Time       // local midnight
	CompletedDates  []string        // YYYY-MM-DD, sorted
	LastCompletedAt time.Time       // zero when never completed
	LinkedGoalID    string
	Icon            string
	Category        string
	IsArchived      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Params holds user input for creating or editing a habit.
type Params struct {
	Title        string
	Description  string
	Frequency    string
	Days         []string
	StartDate    string // anything dateutil.ParseRelativeDate accepts
	Icon         string
	Category     string
	LinkedGoalID string
}

// NewAt creates a habit with validation. Relative dates resolve against now.
func NewAt(p Params, now time.Time) (*Habit, error) {
	h := &Habit{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	if err := h.Apply(p, now); err != nil {
		return nil, err
	}
	return h, nil
}

// Params returns the habit's editable fields as input.
func (h *Habit) Params() Params {
	return Params{
		Title:        h.Title,
		Description:  h.Description,
		Frequency:    string(h.Frequency),
		Days:         slices.Clone(h.Days),
		StartDate:    schedule.DayKey(h.StartDate),
		Icon:         h.Icon,
		Category:     h.Category,
		LinkedGoalID: h.LinkedGoalID,
	}
}

// Apply validates p and copies it onto h. On error h is left unchanged.
func (h *Habit) Apply(p Params, now time.Time) error {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return ErrEmptyTitle
	}

	freq := todo.Recurrence(strings.ToLower(strings.TrimSpace(p.Frequency)))
	if freq == "" {
		freq = todo.RecurDaily
	}
	if freq == todo.RecurNone || !freq.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, p.Frequency)
	}

	days, err := todo.ParseDays(p.Days)
	if err != nil {
		return err
	}

	start, err := dateutil.ParseRelativeDate(p.StartDate, now)
	if err != nil {
		return err
	}

	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = DefaultCategory
	}

	h.Title = title
	h.Description = p.Description
	h.Frequency = freq
	h.Days = days
	h.StartDate = start
	h.Icon = p.Icon
	h.Category = category
	h.LinkedGoalID = strings.TrimSpace(p.LinkedGoalID)
	h.UpdatedAt = now
	return nil
}

// rule is the habit's schedule expressed as a recurring todo so both share
// one expansion.
func (h *Habit) rule() *todo.Todo {
	return &todo.Todo{
		ID:            h.ID,
		ScheduledDate: h.StartDate,
		Recurring:     h.Frequency,
		Days:          h.Days,
	}
}

// DueDays returns the day keys in [from, to] the habit is due, inclusive.
func (h *Habit) DueDays(from, to time.Time) ([]string, error) {
	days, err := h.rule().Occurrences(from, to)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = schedule.DayKey(d)
	}
	return keys, nil
}

// IsDueOn reports whether the habit is due on day.
func (h *Habit) IsDueOn(day time.Time) bool {
	keys, err := h.DueDays(day, day)
	return err == nil && len(keys) > 0
}

// CompletedOn reports whether the habit was done on the given day key.
func (h *Habit) CompletedOn(day string) bool {
	_, found := slices.BinarySearch(h.CompletedDates, day)
	return found
}

// Toggle flips completion on day. Only due days up to today can be marked.
func (h *Habit) Toggle(day string, now time.Time) error {
	loc := h.StartDate.Location()
	d, err := schedule.ParseDayKey(day, loc)
	if err != nil {
		return err
	}
	if day > schedule.DayKey(now.In(loc)) {
		return fmt.Errorf("%w: %s", ErrFutureDay, day)
	}
	if !h.IsDueOn(d) {
		return fmt.Errorf("%w: %s", ErrNotDue, day)
	}

	h.UpdatedAt = now
	if i, found := slices.BinarySearch(h.CompletedDates, day); found {
		h.CompletedDates = slices.Delete(h.CompletedDates, i, i+1)
		if len(h.CompletedDates) == 0 {
			h.LastCompletedAt = time.Time{}
		}
		return nil
	}
	h.CompletedDates = append(h.CompletedDates, day)
	slices.Sort(h.CompletedDates)
	h.LastCompletedAt = now
	return nil
}
