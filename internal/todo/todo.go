// Package todo defines the core domain types for grindflow.
package todo

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
)

// Validation errors.
var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrInvalidPriority   = errors.New("priority must be 'low', 'medium' or 'high'")
	ErrInvalidColor      = errors.New("unknown color")
	ErrInvalidRecurrence = errors.New("recurring must be 'none', 'daily', 'weekly' or 'monthly'")
	ErrInvalidDay        = errors.New("days must be weekday names")
	ErrInvalidTimeFormat = errors.New("time must be in HH:MM format")
	ErrEndBeforeStart    = errors.New("end time must be after start time")
)

// Domain errors.
var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrTimeConflict = errors.New("time slot conflicts with existing todo")
)

// Recurrence describes how a todo repeats.
type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

// Valid returns true if the recurrence is a valid value.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurNone, RecurDaily, RecurWeekly, RecurMonthly:
		return true
	default:
		return false
	}
}

// Color is the accent a todo is rendered with.
type Color string

// Colors lists the accepted colors in display order.
var Colors = []Color{"blue", "green", "purple", "orange", "red", "pink", "indigo", "teal", "yellow", "gray"}

// Defaults applied when a field is left empty.
const (
	DefaultColor    Color  = "blue"
	DefaultCategory string = "personal"
)

// Todo is a scheduled block of work on a calendar day.
type Todo struct {
	ID             string
	Title          string
	Description    string
	Category       string
	Icon           string
	Priority       schedule.Priority
	Color          Color
	ScheduledDate  time.Time // local midnight
	StartTime      string    // "HH:MM"
	EndTime        string    // "HH:MM"
	Recurring      Recurrence
	Days           []string // lower-case weekday names
	IsCompleted    bool
	CompletedDates []string // YYYY-MM-DD, recurring todos only
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Params holds user input for creating or editing a todo.
type Params struct {
	Title       string
	Description string
	Category    string
	Icon        string
	Priority    string
	Color       string
	Date        string // anything dateutil.ParseRelativeDate accepts
	Start       string
	End         string
	Recurring   string
	Days        []string
}

// New creates a new Todo with validation, using the current time.
func New(p Params) (*Todo, error) {
	return NewAt(p, time.Now())
}

// NewAt creates a new Todo with validation. Relative dates resolve
// against now.
func NewAt(p Params, now time.Time) (*Todo, error) {
	t := &Todo{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	if err := t.Apply(p, now); err != nil {
		return nil, err
	}
	return t, nil
}

// Params returns the todo's editable fields as input.
func (t *Todo) Params() Params {
	return Params{
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Icon:        t.Icon,
		Priority:    string(t.Priority),
		Color:       string(t.Color),
		Date:        schedule.DayKey(t.ScheduledDate),
		Start:       t.StartTime,
		End:         t.EndTime,
		Recurring:   string(t.Recurring),
		Days:        slices.Clone(t.Days),
	}
}

// Apply validates p and copies it onto t. On error t is left unchanged.
func (t *Todo) Apply(p Params, now time.Time) error {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return ErrEmptyTitle
	}

	prio := schedule.Priority(strings.ToLower(p.Priority)).OrDefault()
	if !prio.Valid() {
		return ErrInvalidPriority
	}

	color, err := parseColor(p.Color)
	if err != nil {
		return err
	}

	rec := Recurrence(strings.ToLower(p.Recurring))
	if rec == "" {
		rec = RecurNone
	}
	if !rec.Valid() {
		return ErrInvalidRecurrence
	}

	days, err := ParseDays(p.Days)
	if err != nil {
		return err
	}

	date, err := dateutil.ParseRelativeDate(p.Date, now)
	if err != nil {
		return err
	}

	start, err := normalizeTime(p.Start)
	if err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	end, err := normalizeTime(p.End)
	if err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if end <= start {
		return ErrEndBeforeStart
	}

	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = DefaultCategory
	}

	t.Title = title
	t.Description = p.Description
	t.Category = category
	t.Icon = p.Icon
	t.Priority = prio
	t.Color = color
	t.ScheduledDate = date
	t.StartTime = start
	t.EndTime = end
	t.Recurring = rec
	t.Days = days
	t.UpdatedAt = now
	return nil
}

func parseColor(s string) (Color, error) {
	if s == "" {
		return DefaultColor, nil
	}
	c := Color(strings.ToLower(s))
	if !slices.Contains(Colors, c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return c, nil
}

// ParseDays validates weekday names and returns them lower-cased without duplicates.
func ParseDays(in []string) ([]string, error) {
	var out []string
	for _, d := range in {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if _, ok := dateutil.Weekday(d); !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDay, d)
		}
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// normalizeTime accepts H:MM or HH:MM and returns HH:MM.
func normalizeTime(s string) (string, error) {
	m, err := schedule.TimeToMinutes(s)
	if err != nil {
		return "", ErrInvalidTimeFormat
	}
	return schedule.MinutesToTime(m), nil
}

// IsRecurring returns true if the todo repeats.
func (t *Todo) IsRecurring() bool {
	return t.Recurring != "" && t.Recurring != RecurNone
}

// CompletedOn reports whether the todo is done on the given day key.
// Non-recurring todos ignore the day.
func (t *Todo) CompletedOn(day string) bool {
	if !t.IsRecurring() {
		return t.IsCompleted
	}
	return slices.Contains(t.CompletedDates, day)
}

// Toggle flips completion for today.
func (t *Todo) Toggle(now time.Time) {
	t.ToggleOn(schedule.DayKey(now), now)
}

// ToggleOn flips completion. Recurring todos track completion per day.
func (t *Todo) ToggleOn(day string, now time.Time) {
	t.UpdatedAt = now
	if !t.IsRecurring() {
		t.IsCompleted = !t.IsCompleted
		return
	}
	if i := slices.Index(t.CompletedDates, day); i >= 0 {
		t.CompletedDates = slices.Delete(t.CompletedDates, i, i+1)
		return
	}
	t.CompletedDates = append(t.CompletedDates, day)
	slices.Sort(t.CompletedDates)
}

// Duration returns the todo duration in minutes.
func (t *Todo) Duration() int {
	start, err1 := schedule.TimeToMinutes(t.StartTime)
	end, err2 := schedule.TimeToMinutes(t.EndTime)
	if err1 != nil || err2 != nil {
		return 0
	}
	return end - start
}

// Item converts the todo for the scheduling core. Missing priority
// defaults to medium here and nowhere else.
func (t *Todo) Item() schedule.Item {
	return schedule.Item{
		ID:        t.ID,
		Title:     t.Title,
		Date:      t.dateInput(),
		Start:     t.StartTime,
		End:       t.EndTime,
		Priority:  t.Priority.OrDefault(),
		CreatedAt: t.CreatedAt,
	}
}

// Slot returns the todo's own time range as a candidate slot.
func (t *Todo) Slot() schedule.Slot {
	return schedule.Slot{
		Date:  t.dateInput(),
		Start: t.StartTime,
		End:   t.EndTime,
	}
}

// dateInput keeps the stored calendar day regardless of the reader's zone.
// A zero date stays an Instant so the core rejects it.
func (t *Todo) dateInput() schedule.DateInput {
	if t.ScheduledDate.IsZero() {
		return schedule.Instant(t.ScheduledDate)
	}
	return schedule.CanonicalDay(schedule.DayKey(t.ScheduledDate))
}

// Items converts todos for the scheduling core.
func Items(todos []*Todo) []schedule.Item {
	items := make([]schedule.Item, 0, len(todos))
	for _, t := range todos {
		items = append(items, t.Item())
	}
	return items
}

// ConflictError reports the todos a write would collide with.
type ConflictError struct {
	Conflicts []schedule.Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = schedule.FormatConflict(c)
	}
	return fmt.Sprintf("%s: %s", ErrTimeConflict, strings.Join(parts, ", "))
}

// Unwrap makes errors.Is(err, ErrTimeConflict) work.
func (e *ConflictError) Unwrap() error {
	return ErrTimeConflict
}
