package todo

import (
	"reflect"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func occurrenceDays(occ []Occurrence) []string {
	var out []string
	for _, o := range occ {
		out = append(out, o.Day)
	}
	return out
}

func TestExpand(t *testing.T) {
	// January 6, 2025 is a Monday.
	tests := []struct {
		name string
		todo *Todo
		from time.Time
		to   time.Time
		want []string
	}{
		{
			name: "one-off inside window",
			todo: &Todo{ID: "a", ScheduledDate: day(8), Recurring: RecurNone},
			from: day(6), to: day(12),
			want: []string{"2025-01-08"},
		},
		{
			name: "one-off outside window",
			todo: &Todo{ID: "a", ScheduledDate: day(20), Recurring: RecurNone},
			from: day(6), to: day(12),
			want: nil,
		},
		{
			name: "daily from anchor",
			todo: &Todo{ID: "a", ScheduledDate: day(10), Recurring: RecurDaily},
			from: day(6), to: day(12),
			want: []string{"2025-01-10", "2025-01-11", "2025-01-12"},
		},
		{
			name: "weekly defaults to anchor weekday",
			todo: &Todo{ID: "a", ScheduledDate: day(6), Recurring: RecurWeekly},
			from: day(1), to: day(31),
			want: []string{"2025-01-06", "2025-01-13", "2025-01-20", "2025-01-27"},
		},
		{
			name: "weekly on named days",
			todo: &Todo{ID: "a", ScheduledDate: day(6), Recurring: RecurWeekly, Days: []string{"wednesday", "sunday"}},
			from: day(6), to: day(13),
			want: []string{"2025-01-08", "2025-01-12"},
		},
		{
			name: "daily restricted to weekdays",
			todo: &Todo{ID: "a", ScheduledDate: day(6), Recurring: RecurDaily, Days: []string{"saturday", "sunday"}},
			from: day(6), to: day(19),
			want: []string{"2025-01-11", "2025-01-12", "2025-01-18", "2025-01-19"},
		},
		{
			name: "monthly",
			todo: &Todo{ID: "a", ScheduledDate: day(15), Recurring: RecurMonthly},
			from: day(1), to: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			want: []string{"2025-01-15", "2025-02-15", "2025-03-15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := occurrenceDays(Expand([]*Todo{tt.todo}, tt.from, tt.to))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpand_WindowIsCalendarDays(t *testing.T) {
	east := time.FixedZone("UTC+9", 9*60*60)
	west := time.FixedZone("UTC-5", -5*60*60)
	anchor := time.Date(2025, 1, 6, 0, 0, 0, 0, west)

	tests := []struct {
		name     string
		todo     *Todo
		from, to time.Time
		want     []string
	}{
		{
			name: "recurring anchored west, window in utc",
			todo: &Todo{ID: "a", ScheduledDate: anchor, Recurring: RecurDaily},
			from: day(8), to: day(9),
			want: []string{"2025-01-08", "2025-01-09"},
		},
		{
			name: "recurring anchored west, window in east",
			todo: &Todo{ID: "a", ScheduledDate: anchor, Recurring: RecurDaily},
			from: time.Date(2025, 1, 8, 0, 0, 0, 0, east), to: time.Date(2025, 1, 8, 0, 0, 0, 0, east),
			want: []string{"2025-01-08"},
		},
		{
			name: "window with time of day",
			todo: &Todo{ID: "a", ScheduledDate: anchor, Recurring: RecurDaily},
			from: time.Date(2025, 1, 8, 10, 30, 0, 0, time.UTC), to: time.Date(2025, 1, 8, 10, 30, 0, 0, time.UTC),
			want: []string{"2025-01-08"},
		},
		{
			name: "one-off anchored west, window in utc",
			todo: &Todo{ID: "b", ScheduledDate: time.Date(2025, 1, 8, 0, 0, 0, 0, west)},
			from: day(8), to: day(8),
			want: []string{"2025-01-08"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ := Expand([]*Todo{tt.todo}, tt.from, tt.to)
			if got := occurrenceDays(occ); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for _, o := range occ {
				d, err := tt.todo.Occurrences(tt.from, tt.to)
				if err != nil || len(d) == 0 || d[0].Location() != west {
					t.Errorf("%s: days should be in the todo's location, got %v (%v)", o.Day, d, err)
				}
			}
		})
	}
}

func TestOccurrence_Item(t *testing.T) {
	td := &Todo{ID: "gym", Title: "Gym", ScheduledDate: day(6), StartTime: "18:00", EndTime: "19:00", Recurring: RecurDaily, CompletedDates: []string{"2025-01-07"}}
	occ := Expand([]*Todo{td}, day(7), day(8))
	if len(occ) != 2 {
		t.Fatalf("got %d occurrences, want 2", len(occ))
	}
	if !occ[0].Completed || occ[1].Completed {
		t.Errorf("completion flags = %v, %v", occ[0].Completed, occ[1].Completed)
	}
	it := occ[1].Item()
	if it.ID != "gym@2025-01-08" {
		t.Errorf("got id %q", it.ID)
	}
	if it.Start != "18:00" || it.End != "19:00" {
		t.Errorf("got %s-%s", it.Start, it.End)
	}

	one := &Todo{ID: "once", ScheduledDate: day(7), StartTime: "09:00", EndTime: "10:00"}
	if got := Expand([]*Todo{one}, day(7), day(7))[0].ID(); got != "once" {
		t.Errorf("one-off occurrence id = %q", got)
	}
}

func TestDayItems_KeepsTodoID(t *testing.T) {
	todos := []*Todo{
		{ID: "daily", ScheduledDate: day(1), StartTime: "07:00", EndTime: "08:00", Recurring: RecurDaily},
		{ID: "other-day", ScheduledDate: day(9), StartTime: "07:00", EndTime: "08:00"},
		{ID: "same-day", ScheduledDate: day(8), StartTime: "09:00", EndTime: "10:00"},
	}
	items := DayItems(todos, day(8))
	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	if !reflect.DeepEqual(ids, []string{"daily", "same-day"}) {
		t.Errorf("got %v", ids)
	}
}

func TestTodo_RRule(t *testing.T) {
	tests := []struct {
		todo *Todo
		want string
	}{
		{todo: &Todo{Recurring: RecurNone, ScheduledDate: day(6)}, want: ""},
		{todo: &Todo{Recurring: RecurDaily, ScheduledDate: day(6)}, want: "FREQ=DAILY"},
		{todo: &Todo{Recurring: RecurWeekly, ScheduledDate: day(6)}, want: "FREQ=WEEKLY;BYDAY=MO"},
		{todo: &Todo{Recurring: RecurMonthly, ScheduledDate: day(6)}, want: "FREQ=MONTHLY"},
	}
	for _, tt := range tests {
		if got := tt.todo.RRule(); got != tt.want {
			t.Errorf("%s: RRule() = %q, want %q", tt.todo.Recurring, got, tt.want)
		}
	}
}
