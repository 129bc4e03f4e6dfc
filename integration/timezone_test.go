package integration

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/grindflow/grindflow/internal/db"
	"github.com/grindflow/grindflow/internal/ics"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

func TestTimezone_DaysFollowConfiguredLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	repo := openRepo(t, db.PolicyReject, ny)
	ctx := context.Background()

	// 23:30 on the 8th in New York is already the 9th in UTC.
	lateNight := time.Date(2025, 1, 8, 23, 30, 0, 0, ny)

	td, err := todo.NewAt(todo.Params{Title: "Late call", Date: "today", Start: "22:00", End: "23:00"}, lateNight)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateTodo(ctx, td); err != nil {
		t.Fatal(err)
	}

	day := time.Date(2025, 1, 8, 0, 0, 0, 0, ny)
	todos, err := repo.ListTodosByDateRange(ctx, day, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(todos) != 1 {
		t.Fatalf("fetched %d todos, want 1", len(todos))
	}
	got := todos[0]
	if got.ScheduledDate.Location().String() != ny.String() {
		t.Errorf("date location = %v, want %v", got.ScheduledDate.Location(), ny)
	}
	if schedule.DayKey(got.ScheduledDate) != "2025-01-08" {
		t.Errorf("stored on %s", schedule.DayKey(got.ScheduledDate))
	}

	grouper := schedule.NewGrouper(schedule.FixedClock(lateNight.UTC()), ny, nil)
	groups := grouper.GroupByDay(todo.OccurrenceItems(todo.Expand(todos, day, day)))
	if len(groups) != 1 || groups[0].Key != "2025-01-08" || groups[0].Label != schedule.LabelToday {
		t.Errorf("groups = %+v", groups)
	}

	m := grouper.MonthMatrix(2025, time.January, todo.OccurrenceItems(todo.Expand(todos, day, day)))
	cell := m.Cells[m.Index("2025-01-08")]
	if !cell.IsToday || len(cell.Items) != 1 {
		t.Errorf("cell = %+v", cell)
	}

	// An instant on the same local day conflicts even though UTC has moved on.
	clash, err := todo.NewAt(todo.Params{Title: "Clash", Date: "2025-01-08", Start: "22:30", End: "23:30"}, lateNight)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateTodo(ctx, clash); err == nil {
		t.Error("expected a conflict on the local day")
	}
}

func TestTimezone_CalendarRoundTrip(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	logger := slog.New(slog.DiscardHandler)
	clock := schedule.FixedClock(time.Date(2025, 1, 8, 12, 0, 0, 0, ny))

	src, err := todo.NewAt(todo.Params{Title: "Late call", Date: "2025-01-08", Start: "22:00", End: "23:00"}, clock.Now())
	if err != nil {
		t.Fatal(err)
	}
	doc := ics.Export([]*todo.Todo{src}, clock.Now(), logger)
	if !strings.Contains(doc, "DTSTART:20250109T030000Z") {
		t.Errorf("expected a UTC start on the next day:\n%s", doc)
	}

	importer := &ics.Importer{Location: ny, Clock: clock, Logger: logger}
	todos, err := importer.Import(bytes.NewBufferString(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(todos) != 1 {
		t.Fatalf("imported %d todos", len(todos))
	}
	got := todos[0]
	if got.ID != src.ID || schedule.DayKey(got.ScheduledDate) != "2025-01-08" || got.StartTime != "22:00" || got.EndTime != "23:00" {
		t.Errorf("imported %s %s-%s (id %s)", schedule.DayKey(got.ScheduledDate), got.StartTime, got.EndTime, got.ID)
	}

	// The same document read in UTC lands on the next day.
	importer.Location = time.UTC
	todos, err = importer.Import(bytes.NewBufferString(doc))
	if err != nil {
		t.Fatal(err)
	}
	if schedule.DayKey(todos[0].ScheduledDate) != "2025-01-09" || todos[0].StartTime != "03:00" {
		t.Errorf("UTC import = %s %s", schedule.DayKey(todos[0].ScheduledDate), todos[0].StartTime)
	}
}
