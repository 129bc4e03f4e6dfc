package ics

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

var testNow = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

func newTodo(t *testing.T, p todo.Params) *todo.Todo {
	t.Helper()
	td, err := todo.NewAt(p, testNow)
	if err != nil {
		t.Fatalf("creating todo: %v", err)
	}
	return td
}

func newImporter(buf *bytes.Buffer) *Importer {
	return &Importer{
		Location: time.UTC,
		Clock:    schedule.FixedClock(testNow),
		Logger:   slog.New(slog.NewTextHandler(buf, nil)),
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	standup := newTodo(t, todo.Params{
		Title: "Standup", Description: "daily sync", Category: "work", Icon: "☕",
		Priority: "high", Color: "green", Date: "2025-01-06", Start: "09:00", End: "09:15",
		Recurring: "weekly", Days: []string{"monday", "wednesday"},
	})
	review := newTodo(t, todo.Params{
		Title: "Review", Priority: "low", Date: "2025-01-07", Start: "14:00", End: "15:30",
	})
	review.IsCompleted = true

	var logs bytes.Buffer
	out := Export([]*todo.Todo{standup, review}, testNow, slog.New(slog.NewTextHandler(&logs, nil)))

	for _, want := range []string{"BEGIN:VCALENDAR", "PRODID:" + ProductID, "SUMMARY:Standup", "RRULE:FREQ=WEEKLY", "PRIORITY:1", "PRIORITY:9"} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}

	got, err := newImporter(&logs).Import(strings.NewReader(out))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d todos, want 2 (logs: %s)", len(got), logs.String())
	}

	s := got[0]
	if s.ID != standup.ID {
		t.Errorf("got id %s, want %s", s.ID, standup.ID)
	}
	if s.Title != "Standup" || s.Description != "daily sync" || s.Category != "work" || s.Icon != "☕" {
		t.Errorf("got %+v", s)
	}
	if s.Priority != schedule.PriorityHigh || s.Color != "green" {
		t.Errorf("got priority %s color %s", s.Priority, s.Color)
	}
	if schedule.DayKey(s.ScheduledDate) != "2025-01-06" || s.StartTime != "09:00" || s.EndTime != "09:15" {
		t.Errorf("got %s %s-%s", schedule.DayKey(s.ScheduledDate), s.StartTime, s.EndTime)
	}
	if s.Recurring != todo.RecurWeekly || strings.Join(s.Days, ",") != "monday,wednesday" {
		t.Errorf("got recurrence %s %v", s.Recurring, s.Days)
	}

	r := got[1]
	if r.Priority != schedule.PriorityLow || !r.IsCompleted || r.Recurring != todo.RecurNone {
		t.Errorf("got %+v", r)
	}
	if r.Category != todo.DefaultCategory {
		t.Errorf("got category %q", r.Category)
	}
}

func TestExport_SkipsUnschedulable(t *testing.T) {
	bad := newTodo(t, todo.Params{Title: "Broken", Date: "2025-01-06", Start: "09:00", End: "10:00"})
	bad.EndTime = "noon"

	var logs bytes.Buffer
	out := Export([]*todo.Todo{bad}, testNow, slog.New(slog.NewTextHandler(&logs, nil)))
	if strings.Contains(out, "BEGIN:VEVENT") {
		t.Errorf("expected no events:\n%s", out)
	}
	if !strings.Contains(logs.String(), "id="+bad.ID) {
		t.Errorf("expected warning naming the todo, got %q", logs.String())
	}
}

func TestPriorityFromValue(t *testing.T) {
	tests := []struct {
		in   string
		want schedule.Priority
	}{
		{"1", schedule.PriorityHigh},
		{"4", schedule.PriorityHigh},
		{"5", schedule.PriorityMedium},
		{"6", schedule.PriorityLow},
		{"9", schedule.PriorityLow},
		{"0", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := priorityFromValue(tt.in); got != tt.want {
			t.Errorf("priorityFromValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecurrenceFromRule(t *testing.T) {
	tests := []struct {
		rule     string
		wantRec  string
		wantDays []string
		wantSkip bool
	}{
		{rule: "FREQ=DAILY", wantRec: "daily"},
		{rule: "FREQ=WEEKLY;BYDAY=MO,WE", wantRec: "weekly", wantDays: []string{"monday", "wednesday"}},
		{rule: "FREQ=MONTHLY", wantRec: "monthly"},
		{rule: "FREQ=WEEKLY;INTERVAL=2", wantSkip: true},
		{rule: "FREQ=DAILY;COUNT=5", wantSkip: true},
		{rule: "FREQ=MONTHLY;BYDAY=2TU", wantSkip: true},
		{rule: "FREQ=MONTHLY;BYDAY=-1FR", wantSkip: true},
		{rule: "FREQ=MONTHLY;BYDAY=TU", wantSkip: true},
		{rule: "FREQ=MONTHLY;BYMONTHDAY=-1", wantSkip: true},
		{rule: "FREQ=MONTHLY;BYMONTHDAY=15", wantSkip: true},
		{rule: "FREQ=MONTHLY;BYDAY=MO,TU,WE,TH,FR;BYSETPOS=-1", wantSkip: true},
		{rule: "FREQ=WEEKLY;BYDAY=1MO", wantSkip: true},
		{rule: "FREQ=WEEKLY;BYMONTH=1", wantSkip: true},
		{rule: "FREQ=DAILY;BYYEARDAY=100", wantSkip: true},
		{rule: "FREQ=WEEKLY;BYWEEKNO=20", wantSkip: true},
		{rule: "FREQ=YEARLY", wantSkip: true},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			rec, days, err := recurrenceFromRule(tt.rule)
			if tt.wantSkip {
				if !errors.Is(err, errSkip) {
					t.Fatalf("got %q %v %v, want skip", rec, days, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec != tt.wantRec || strings.Join(days, ",") != strings.Join(tt.wantDays, ",") {
				t.Errorf("got %q %v, want %q %v", rec, days, tt.wantRec, tt.wantDays)
			}
		})
	}
}

const foreignCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//other//app//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:meeting@example.com\r\n" +
	"DTSTART:20250108T100000Z\r\n" +
	"DTEND:20250108T110000Z\r\n" +
	"SUMMARY:Planning\r\n" +
	"CATEGORIES:work,meetings\r\n" +
	"COLOR:crimson\r\n" +
	"RRULE:FREQ=DAILY\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:holiday@example.com\r\n" +
	"DTSTART;VALUE=DATE:20250101\r\n" +
	"DTEND;VALUE=DATE:20250102\r\n" +
	"SUMMARY:Holiday\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:overnight@example.com\r\n" +
	"DTSTART:20250108T220000Z\r\n" +
	"DTEND:20250109T020000Z\r\n" +
	"SUMMARY:Deploy\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:nameless@example.com\r\n" +
	"DTSTART:20250108T120000Z\r\n" +
	"DTEND:20250108T130000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:biweekly@example.com\r\n" +
	"DTSTART:20250108T150000Z\r\n" +
	"DTEND:20250108T160000Z\r\n" +
	"SUMMARY:Retro\r\n" +
	"RRULE:FREQ=WEEKLY;INTERVAL=2\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:board@example.com\r\n" +
	"DTSTART:20250114T150000Z\r\n" +
	"DTEND:20250114T160000Z\r\n" +
	"SUMMARY:Board meeting\r\n" +
	"RRULE:FREQ=MONTHLY;BYDAY=2TU\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestImport_ForeignCalendar(t *testing.T) {
	var logs bytes.Buffer
	got, err := newImporter(&logs).Import(strings.NewReader(foreignCalendar))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d todos, want 1", len(got))
	}

	p := got[0]
	if p.Title != "Planning" || p.Category != "work" || p.Recurring != todo.RecurDaily {
		t.Errorf("got %+v", p)
	}
	if p.Color != todo.DefaultColor {
		t.Errorf("unknown color should fall back to default, got %s", p.Color)
	}
	if p.Priority != schedule.PriorityMedium {
		t.Errorf("missing priority should default to medium, got %s", p.Priority)
	}
	if p.ID == "meeting@example.com" {
		t.Error("non-uuid UID should not become the todo id")
	}

	for _, uid := range []string{"holiday@example.com", "overnight@example.com", "nameless@example.com", "biweekly@example.com", "board@example.com"} {
		if !strings.Contains(logs.String(), "uid="+uid) {
			t.Errorf("expected skip warning for %s, logs: %s", uid, logs.String())
		}
	}
}

func TestImport_Malformed(t *testing.T) {
	var logs bytes.Buffer
	_, err := newImporter(&logs).Import(strings.NewReader("not a calendar"))
	if err == nil {
		t.Error("expected parse error")
	}
}

func TestImport_LocalZone(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	var logs bytes.Buffer
	im := newImporter(&logs)
	im.Location = loc

	cal := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nBEGIN:VEVENT\r\nUID:x\r\n" +
		"DTSTART:20250108T070000Z\r\nDTEND:20250108T080000Z\r\nSUMMARY:Gym\r\n" +
		"END:VEVENT\r\nEND:VCALENDAR\r\n"
	got, err := im.Import(strings.NewReader(cal))
	if err != nil || len(got) != 1 {
		t.Fatalf("got %v, %v", got, err)
	}
	if got[0].StartTime != "09:00" || got[0].EndTime != "10:00" {
		t.Errorf("got %s-%s, want 09:00-10:00", got[0].StartTime, got[0].EndTime)
	}
}
