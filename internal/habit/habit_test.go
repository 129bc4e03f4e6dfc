package habit

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/grindflow/grindflow/internal/todo"
)

// testNow is Friday 2025-01-10 18:00 UTC.
var testNow = time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)

func newHabit(t *testing.T, p Params) *Habit {
	t.Helper()
	h, err := NewAt(p, testNow)
	if err != nil {
		t.Fatalf("creating habit: %v", err)
	}
	return h
}

func TestNewAt_Defaults(t *testing.T) {
	h := newHabit(t, Params{Title: "  Read  ", StartDate: "2025-01-01"})
	if h.Title != "Read" || h.Frequency != todo.RecurDaily || h.Category != DefaultCategory {
		t.Errorf("got %+v", h)
	}
	if h.ID == "" || !h.CreatedAt.Equal(testNow) || !h.UpdatedAt.Equal(testNow) {
		t.Errorf("id %q created %v updated %v", h.ID, h.CreatedAt, h.UpdatedAt)
	}
	if got := h.Params(); got.StartDate != "2025-01-01" || got.Frequency != "daily" {
		t.Errorf("params = %+v", got)
	}
}

func TestNewAt_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want error
	}{
		{"empty title", Params{Title: " "}, ErrEmptyTitle},
		{"none frequency", Params{Title: "x", Frequency: "none"}, ErrInvalidFrequency},
		{"unknown frequency", Params{Title: "x", Frequency: "yearly"}, ErrInvalidFrequency},
		{"bad day", Params{Title: "x", Frequency: "weekly", Days: []string{"funday"}}, todo.ErrInvalidDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAt(tt.p, testNow); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := NewAt(Params{Title: "x", StartDate: "someday"}, testNow); err == nil {
		t.Error("expected error for bad start date")
	}
}

func TestApply_LeavesHabitOnError(t *testing.T) {
	h := newHabit(t, Params{Title: "Read", StartDate: "2025-01-01"})
	if err := h.Apply(Params{Title: "Read", Frequency: "hourly"}, testNow); err == nil {
		t.Fatal("expected error")
	}
	if h.Frequency != todo.RecurDaily {
		t.Errorf("frequency changed to %s", h.Frequency)
	}
}

func TestDueDays(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want []string
	}{
		{"daily", Params{Title: "x", StartDate: "2025-01-08"}, []string{"2025-01-08", "2025-01-09", "2025-01-10", "2025-01-11", "2025-01-12"}},
		{"weekly on chosen days", Params{Title: "x", Frequency: "weekly", Days: []string{"monday", "wednesday"}, StartDate: "2025-01-01"}, []string{"2025-01-06", "2025-01-08"}},
		{"weekly on start weekday", Params{Title: "x", Frequency: "weekly", StartDate: "2025-01-03"}, []string{"2025-01-10"}},
		{"monthly", Params{Title: "x", Frequency: "monthly", StartDate: "2024-12-09"}, []string{"2025-01-09"}},
	}
	from := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newHabit(t, tt.p).DueDays(from, to)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	h := newHabit(t, Params{Title: "Gym", Frequency: "weekly", Days: []string{"monday", "friday"}, StartDate: "2025-01-01"})

	if err := h.Toggle("2025-01-13", testNow); !errors.Is(err, ErrFutureDay) {
		t.Errorf("future day: got %v", err)
	}
	if err := h.Toggle("2025-01-09", testNow); !errors.Is(err, ErrNotDue) {
		t.Errorf("thursday: got %v", err)
	}
	if err := h.Toggle("10/01/2025", testNow); err == nil {
		t.Error("expected error for malformed day")
	}

	later := testNow.Add(time.Hour)
	if err := h.Toggle("2025-01-10", testNow); err != nil {
		t.Fatal(err)
	}
	if err := h.Toggle("2025-01-06", later); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(h.CompletedDates, []string{"2025-01-06", "2025-01-10"}) {
		t.Errorf("completed = %v", h.CompletedDates)
	}
	if !h.CompletedOn("2025-01-10") || !h.LastCompletedAt.Equal(later) {
		t.Errorf("last completed = %v", h.LastCompletedAt)
	}

	_ = h.Toggle("2025-01-10", later)
	_ = h.Toggle("2025-01-06", later)
	if len(h.CompletedDates) != 0 || !h.LastCompletedAt.IsZero() {
		t.Errorf("after undo: %v %v", h.CompletedDates, h.LastCompletedAt)
	}
}

func TestStreaks(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		done []string
		want Streak
	}{
		{
			name: "nothing done",
			p:    Params{Title: "x", StartDate: "2025-01-01"},
			want: Streak{DueToday: true},
		},
		{
			name: "today still open keeps the streak",
			p:    Params{Title: "x", StartDate: "2025-01-01"},
			done: []string{"2025-01-07", "2025-01-08", "2025-01-09"},
			want: Streak{Current: 3, Longest: 3, DueToday: true},
		},
		{
			name: "done today",
			p:    Params{Title: "x", StartDate: "2025-01-01"},
			done: []string{"2025-01-07", "2025-01-08", "2025-01-09", "2025-01-10"},
			want: Streak{Current: 4, Longest: 4, DueToday: true, DoneToday: true},
		},
		{
			name: "missed yesterday",
			p:    Params{Title: "x", StartDate: "2025-01-01"},
			done: []string{"2025-01-08"},
			want: Streak{Current: 0, Longest: 1, DueToday: true},
		},
		{
			name: "longest run in the past",
			p:    Params{Title: "x", StartDate: "2025-01-01"},
			done: []string{"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-08", "2025-01-09"},
			want: Streak{Current: 2, Longest: 3, DueToday: true},
		},
		{
			name: "weekly only counts due days",
			p:    Params{Title: "x", Frequency: "weekly", Days: []string{"monday", "wednesday", "friday"}, StartDate: "2025-01-01"},
			done: []string{"2025-01-03", "2025-01-06", "2025-01-08"},
			want: Streak{Current: 3, Longest: 3, DueToday: true},
		},
		{
			name: "not due today",
			p:    Params{Title: "x", Frequency: "weekly", Days: []string{"monday"}, StartDate: "2025-01-01"},
			done: []string{"2024-12-30", "2025-01-06", "2025-01-07"},
			want: Streak{Current: 1, Longest: 1},
		},
		{
			name: "starts in the future",
			p:    Params{Title: "x", StartDate: "2025-02-01"},
			want: Streak{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHabit(t, tt.p)
			h.CompletedDates = tt.done
			if got := h.Streaks(testNow); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStreaks_LongHistory(t *testing.T) {
	h := newHabit(t, Params{Title: "Journal", StartDate: "2021-01-01"})
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Before(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)); d = d.AddDate(0, 0, 1) {
		h.CompletedDates = append(h.CompletedDates, d.Format("2006-01-02"))
	}

	got := h.Streaks(testNow)
	want := len(h.CompletedDates)
	if want <= 1000 {
		t.Fatalf("history too short: %d", want)
	}
	if got.Current != want || got.Longest != want {
		t.Errorf("got %+v, want a %d day streak", got, want)
	}
}
