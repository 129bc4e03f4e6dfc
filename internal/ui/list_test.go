package ui

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/grindflow/grindflow/internal/db"
	"github.com/grindflow/grindflow/internal/schedule"
)

func TestList_Today(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	env.seed()

	out := env.mustRun("list")
	for _, want := range []string{
		"=== Today (2025-01-08) ===",
		"○ 09:00-09:30  !!   Standup ↻",
		"○ 10:00-11:00  !!!  Review",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Gym") {
		t.Error("Gym is on another day")
	}
}

func TestList_Empty(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	out := env.mustRun("list", "--start=2025-02-01")
	if !strings.Contains(out, "No todos found") {
		t.Errorf("got %q", out)
	}
}

func TestList_InvalidRange(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	if _, err := env.run("list", "--start=2025-01-10", "--end=2025-01-01"); err == nil {
		t.Error("expected error for end before start")
	}
	if _, err := env.run("list", "--output=xml"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestList_JSON(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	env.seed()
	standup := env.todoByTitle("Standup")

	out := env.mustRun("list", "--start=2025-01-06", "--end=2025-01-12", "--output=json")
	var days []dayView
	if err := json.Unmarshal([]byte(out), &days); err != nil {
		t.Fatalf("decoding: %v\n%s", err, out)
	}

	var keys, labels []string
	for _, d := range days {
		keys = append(keys, d.Date)
		labels = append(labels, d.Label)
	}
	wantKeys := []string{"2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09", "2025-01-10", "2025-01-11", "2025-01-12"}
	if strings.Join(keys, ",") != strings.Join(wantKeys, ",") {
		t.Fatalf("days = %v, want %v", keys, wantKeys)
	}
	if labels[0] != "Monday, January 6, 2025" || labels[1] != "Yesterday" || labels[2] != "Today" || labels[3] != "Tomorrow" {
		t.Errorf("labels = %v", labels)
	}

	today := days[2]
	if len(today.Todos) != 2 {
		t.Fatalf("today has %d todos, want 2", len(today.Todos))
	}
	for _, v := range today.Todos {
		if v.Title == "Standup" {
			if v.ID != standup.ID+"@2025-01-08" || v.TodoID != standup.ID {
				t.Errorf("occurrence ids = %q / %q", v.ID, v.TodoID)
			}
			if v.Priority != "medium" || v.Recurring != "daily" {
				t.Errorf("standup view = %+v", v)
			}
		}
	}
	if got := len(days[5].Todos); got != 2 {
		t.Errorf("Saturday has %d todos, want standup and gym", got)
	}
}

func TestList_YAML(t *testing.T) {
	env := newTestEnv(t, db.PolicyWarn)
	env.mustRun("add", "Review", "--date=2025-01-08", "--start=10:00", "--end=11:00")
	env.mustRun("add", "Lunch", "--date=2025-01-08", "--start=10:30", "--end=11:30", "--icon=🍜")

	out := env.mustRun("list", "-o", "yaml")
	var days []dayView
	if err := yaml.Unmarshal([]byte(out), &days); err != nil {
		t.Fatalf("decoding: %v\n%s", err, out)
	}
	if len(days) != 1 || len(days[0].Todos) != 2 {
		t.Fatalf("got %+v", days)
	}
	for _, v := range days[0].Todos {
		if !v.Conflict {
			t.Errorf("%s should be flagged as overlapping", v.Title)
		}
	}
}

func TestCheck(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	env.seed()
	review := env.todoByTitle("Review")

	out := env.mustRun("check", "--start=11:00", "--end=12:00")
	if !strings.Contains(out, "2025-01-08 11:00-12:00 is free") {
		t.Errorf("got %q", out)
	}

	out, err := env.run("check", "--start=09:15", "--end=10:15")
	if !errors.Is(err, ErrConflictsFound) {
		t.Fatalf("got %v, want ErrConflictsFound", err)
	}
	for _, want := range []string{"2025-01-08 09:15-10:15 overlaps:", "Standup (overlap)", "Review (overlap)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = env.run("check", "--start=09:45", "--end=11:30")
	if !errors.Is(err, ErrConflictsFound) {
		t.Fatalf("got %v, want ErrConflictsFound", err)
	}
	if !strings.Contains(out, "Review (inside the slot)") {
		t.Errorf("output missing containment note:\n%s", out)
	}

	out, err = env.run("check", "--start=10:15", "--end=10:45", "--output=json")
	if !errors.Is(err, ErrConflictsFound) {
		t.Fatalf("got %v, want ErrConflictsFound", err)
	}
	if !strings.Contains(out, `"type": "overlap"`) {
		t.Errorf("structured conflicts should report overlap:\n%s", out)
	}
	out, _ = env.run("check", "--start=10:15", "--end=10:45")
	if !strings.Contains(out, "Review (covers the slot)") {
		t.Errorf("output missing containment note:\n%s", out)
	}

	// Excluding the todo being edited frees its own slot.
	env.mustRun("check", "--start=10:00", "--end=11:00", "--exclude="+review.ID)

	// Other days are independent.
	env.mustRun("check", "--date=2025-01-05", "--start=09:00", "--end=09:30")
}

func TestCheck_JSON(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	env.seed()

	out, err := env.run("check", "--start=10:30", "--end=12:00", "-o", "json")
	if !errors.Is(err, ErrConflictsFound) {
		t.Fatalf("got %v", err)
	}
	// cobra appends the error message after the document.
	doc := out[:strings.LastIndex(out, "}")+1]
	var res checkResult
	if err := json.Unmarshal([]byte(doc), &res); err != nil {
		t.Fatalf("decoding: %v\n%s", err, out)
	}
	if res.Free || len(res.Conflicts) != 1 {
		t.Fatalf("got %+v", res)
	}
	c := res.Conflicts[0]
	if c.Title != "Review" || c.Date != "2025-01-08" || c.Type != schedule.ConflictOverlap || c.Priority != schedule.PriorityHigh {
		t.Errorf("conflict = %+v", c)
	}
}

func TestCheck_MalformedTime(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	if _, err := env.run("check", "--start=25:00", "--end=26:00"); err == nil {
		t.Error("expected malformed time error")
	}
}

func TestCalendar(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	env.seed()

	out := env.mustRun("calendar", "--agenda")
	for _, want := range []string{
		"January 2025",
		" Sun    Mon    Tue    Wed    Thu    Fri    Sat",
		" 29     30     31      1      2      3      4",
		"  5      6·1    7·1    8·2    9·1   10·1   11·2",
		"=== Today (2025-01-08) ===",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// The grid ends on 2025-02-08, which is outside the agenda.
	if strings.Contains(out, "February 8") {
		t.Error("agenda should only list in-month days")
	}
}

func TestCalendar_JSON(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	env.seed()

	out := env.mustRun("calendar", "--month=2025-01", "-o", "json")
	var mv monthView
	if err := json.Unmarshal([]byte(out), &mv); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if mv.Year != 2025 || mv.Month != 1 || len(mv.Cells) != schedule.MonthCells {
		t.Fatalf("got %d-%d with %d cells", mv.Year, mv.Month, len(mv.Cells))
	}
	if mv.Cells[0].Date != "2024-12-29" || mv.Cells[0].InMonth {
		t.Errorf("first cell = %+v", mv.Cells[0])
	}
	today := mv.Cells[10]
	if today.Date != "2025-01-08" || !today.IsToday || len(today.Todos) != 2 {
		t.Errorf("today cell = %+v", today)
	}
	if !mv.Cells[13].IsWeekend {
		t.Error("2025-01-11 is a Saturday")
	}
}

func TestCalendar_BadMonth(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	if _, err := env.run("calendar", "--month=2025-13"); err == nil {
		t.Error("expected invalid month error")
	}
}
