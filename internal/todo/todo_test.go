package todo

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
)

// Friday, January 10, 2025
var now = time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)

func validParams() Params {
	return Params{
		Title: "Write tests",
		Date:  "2025-01-15",
		Start: "09:00",
		End:   "11:00",
	}
}

func TestNewAt(t *testing.T) {
	t.Run("valid todo with defaults", func(t *testing.T) {
		td, err := NewAt(validParams(), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if td.ID == "" {
			t.Error("expected ID to be set")
		}
		if td.Title != "Write tests" {
			t.Errorf("got title %q", td.Title)
		}
		if td.Priority != schedule.PriorityMedium {
			t.Errorf("got priority %q, want medium", td.Priority)
		}
		if td.Color != DefaultColor {
			t.Errorf("got color %q, want %q", td.Color, DefaultColor)
		}
		if td.Category != DefaultCategory {
			t.Errorf("got category %q, want %q", td.Category, DefaultCategory)
		}
		if td.Recurring != RecurNone {
			t.Errorf("got recurring %q, want none", td.Recurring)
		}
		if !td.ScheduledDate.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("got date %v", td.ScheduledDate)
		}
		if !td.CreatedAt.Equal(now) || !td.UpdatedAt.Equal(now) {
			t.Errorf("got timestamps %v / %v", td.CreatedAt, td.UpdatedAt)
		}
	})

	t.Run("times are zero padded", func(t *testing.T) {
		p := validParams()
		p.Start, p.End = "9:00", "9:45"
		td, err := NewAt(p, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if td.StartTime != "09:00" || td.EndTime != "09:45" {
			t.Errorf("got %s-%s", td.StartTime, td.EndTime)
		}
		if td.Duration() != 45 {
			t.Errorf("got duration %d, want 45", td.Duration())
		}
	})

	t.Run("relative date", func(t *testing.T) {
		p := validParams()
		p.Date = "tomorrow"
		td, err := NewAt(p, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if schedule.DayKey(td.ScheduledDate) != "2025-01-11" {
			t.Errorf("got %s, want 2025-01-11", schedule.DayKey(td.ScheduledDate))
		}
	})

	t.Run("unique ids", func(t *testing.T) {
		a, _ := NewAt(validParams(), now)
		b, _ := NewAt(validParams(), now)
		if a.ID == b.ID {
			t.Errorf("ids collide: %s", a.ID)
		}
	})
}

func TestNewAt_Errors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *Params)
		wantErr error
	}{
		{name: "empty title", modify: func(p *Params) { p.Title = "  " }, wantErr: ErrEmptyTitle},
		{name: "invalid priority", modify: func(p *Params) { p.Priority = "urgent" }, wantErr: ErrInvalidPriority},
		{name: "invalid color", modify: func(p *Params) { p.Color = "magenta" }, wantErr: ErrInvalidColor},
		{name: "invalid recurrence", modify: func(p *Params) { p.Recurring = "yearly" }, wantErr: ErrInvalidRecurrence},
		{name: "invalid day", modify: func(p *Params) { p.Days = []string{"funday"} }, wantErr: ErrInvalidDay},
		{name: "invalid date", modify: func(p *Params) { p.Date = "15/01/2025" }, wantErr: dateutil.ErrInvalidDateFormat},
		{name: "invalid start", modify: func(p *Params) { p.Start = "9am" }, wantErr: ErrInvalidTimeFormat},
		{name: "invalid end", modify: func(p *Params) { p.End = "24:00" }, wantErr: ErrInvalidTimeFormat},
		{name: "end before start", modify: func(p *Params) { p.Start, p.End = "14:00", "12:00" }, wantErr: ErrEndBeforeStart},
		{name: "end equals start", modify: func(p *Params) { p.Start, p.End = "14:00", "14:00" }, wantErr: ErrEndBeforeStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.modify(&p)
			_, err := NewAt(p, now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTodo_ApplyLeavesTodoOnError(t *testing.T) {
	td, err := NewAt(validParams(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := *td

	p := td.Params()
	p.Title = "Renamed"
	p.End = "08:00"
	if err := td.Apply(p, now.Add(time.Hour)); !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("got error %v, want %v", err, ErrEndBeforeStart)
	}
	if !reflect.DeepEqual(*td, before) {
		t.Errorf("todo changed on failed apply: %+v", td)
	}
}

func TestTodo_ParamsRoundTrip(t *testing.T) {
	p := validParams()
	p.Recurring = "weekly"
	p.Days = []string{"Monday", "wednesday"}
	p.Priority = "HIGH"
	td, err := NewAt(p, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(td.Days, []string{"monday", "wednesday"}) {
		t.Errorf("got days %v", td.Days)
	}

	again := &Todo{}
	if err := again.Apply(td.Params(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Priority != schedule.PriorityHigh || again.Recurring != RecurWeekly ||
		!again.ScheduledDate.Equal(td.ScheduledDate) || !reflect.DeepEqual(again.Days, td.Days) {
		t.Errorf("round trip mismatch: %+v vs %+v", again, td)
	}
}

func TestTodo_Toggle(t *testing.T) {
	t.Run("one-off", func(t *testing.T) {
		td := &Todo{Recurring: RecurNone}
		td.Toggle(now)
		if !td.IsCompleted || !td.CompletedOn("1999-01-01") {
			t.Error("expected completed")
		}
		td.Toggle(now)
		if td.IsCompleted {
			t.Error("expected pending after second toggle")
		}
		if len(td.CompletedDates) != 0 {
			t.Errorf("one-off todo recorded dates: %v", td.CompletedDates)
		}
	})

	t.Run("recurring tracks days", func(t *testing.T) {
		td := &Todo{Recurring: RecurDaily}
		td.ToggleOn("2025-01-12", now)
		td.Toggle(now)
		if !reflect.DeepEqual(td.CompletedDates, []string{"2025-01-10", "2025-01-12"}) {
			t.Errorf("got %v", td.CompletedDates)
		}
		if td.IsCompleted {
			t.Error("recurring todo should not flip IsCompleted")
		}
		if !td.CompletedOn("2025-01-10") || td.CompletedOn("2025-01-11") {
			t.Error("CompletedOn mismatch")
		}
		td.Toggle(now)
		if !reflect.DeepEqual(td.CompletedDates, []string{"2025-01-12"}) {
			t.Errorf("got %v", td.CompletedDates)
		}
	})
}

func TestTodo_Item(t *testing.T) {
	td := &Todo{
		ID:            "abc",
		Title:         "Gym",
		ScheduledDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.FixedZone("X", 5*3600)),
		StartTime:     "18:00",
		EndTime:       "19:00",
		CreatedAt:     now,
	}
	it := td.Item()
	if it.Priority != schedule.PriorityMedium {
		t.Errorf("got priority %q, want medium default", it.Priority)
	}
	day, err := schedule.NormalizeDay(it.Date, time.UTC)
	if err != nil || day != "2025-01-15" {
		t.Errorf("got day %q, %v", day, err)
	}

	empty := &Todo{ID: "broken", StartTime: "09:00", EndTime: "10:00"}
	if _, err := schedule.NormalizeDay(empty.Item().Date, time.UTC); err == nil {
		t.Error("zero date should not normalize")
	}

	items := Items([]*Todo{td, empty})
	if len(items) != 2 || items[0].ID != "abc" || items[1].ID != "broken" {
		t.Errorf("Items = %+v", items)
	}
}

func TestNew_UsesWallClock(t *testing.T) {
	before := time.Now()
	td, err := New(validParams())
	if err != nil {
		t.Fatal(err)
	}
	if td.CreatedAt.Before(before) || td.UpdatedAt.IsZero() {
		t.Errorf("created %v updated %v", td.CreatedAt, td.UpdatedAt)
	}
}

func TestConflictError(t *testing.T) {
	err := error(&ConflictError{Conflicts: []schedule.Conflict{
		{Title: "Standup", Start: "09:00", End: "09:15"},
		{Title: "Review", Start: "09:10", End: "10:00"},
	}})
	if !errors.Is(err, ErrTimeConflict) {
		t.Error("expected errors.Is to match ErrTimeConflict")
	}
	if !strings.Contains(err.Error(), "Standup (09:00 - 09:15), Review (09:10 - 10:00)") {
		t.Errorf("got %q", err.Error())
	}
	var ce *ConflictError
	if !errors.As(err, &ce) || len(ce.Conflicts) != 2 {
		t.Error("expected errors.As to recover conflicts")
	}
}
