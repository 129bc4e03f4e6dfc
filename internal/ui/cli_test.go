package ui

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grindflow/grindflow/internal/config"
	"github.com/grindflow/grindflow/internal/db"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

// testNow is Wednesday 2025-01-08 10:30 UTC.
var testNow = time.Date(2025, 1, 8, 10, 30, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Schedule.Timezone = "UTC"
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "data", "grindflow.db")
	return cfg
}

// testEnv shares one database across commands. Every run builds a fresh
// App because cobra keeps flag values between executions.
type testEnv struct {
	t    *testing.T
	cfg  *config.Config
	repo *db.SQLite
	opts []Option
}

func newTestEnv(t *testing.T, policy db.ConflictPolicy, opts ...Option) *testEnv {
	t.Helper()
	DisableColor()
	cfg := testConfig(t)
	cfg.Conflicts.Policy = string(policy)

	logger := slog.New(slog.DiscardHandler)
	repo, err := db.New(filepath.Join(t.TempDir(), "test.db"),
		db.WithConflictPolicy(policy),
		db.WithLocation(time.UTC),
		db.WithClock(schedule.FixedClock(testNow)),
		db.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("creating repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	base := []Option{WithClock(schedule.FixedClock(testNow)), WithLogger(logger)}
	return &testEnv{t: t, cfg: cfg, repo: repo, opts: append(base, opts...)}
}

func (e *testEnv) app() *App {
	return NewApp(e.repo, e.cfg, e.opts...)
}

// run executes args and returns combined output.
func (e *testEnv) run(args ...string) (string, error) {
	return e.runWithInput("", args...)
}

func (e *testEnv) runWithInput(stdin string, args ...string) (string, error) {
	e.t.Helper()
	a := e.app()
	var out bytes.Buffer
	a.root.SetOut(&out)
	a.root.SetErr(&out)
	a.root.SetIn(strings.NewReader(stdin))
	a.root.SetArgs(args)
	err := a.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

// todoByTitle finds a stored todo.
func (e *testEnv) todoByTitle(title string) *todo.Todo {
	e.t.Helper()
	todos, err := e.repo.ListTodos(context.Background())
	if err != nil {
		e.t.Fatalf("ListTodos: %v", err)
	}
	for _, td := range todos {
		if td.Title == title {
			return td
		}
	}
	e.t.Fatalf("no todo titled %q", title)
	return nil
}

// seed adds a daily standup, an overlapping pair on testNow's day and a
// Saturday gym session.
func (e *testEnv) seed() {
	e.t.Helper()
	e.mustRun("add", "Standup", "--date=2025-01-06", "--start=09:00", "--end=09:30", "--recurring=daily")
	e.mustRun("add", "Review", "--date=2025-01-08", "--start=10:00", "--end=11:00", "--priority=high")
	e.mustRun("add", "Gym", "--date=2025-01-11", "--start=08:00", "--end=09:00", "--priority=low", "--category=health")
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	out := env.mustRun("version")
	if !strings.HasPrefix(out, "grindflow dev") {
		t.Errorf("got %q", out)
	}
}

func TestEnsureRepo_CreatesDataDirectory(t *testing.T) {
	DisableColor()
	cfg := testConfig(t)
	a := NewApp(nil, cfg, WithClock(schedule.FixedClock(testNow)), WithLogger(slog.New(slog.DiscardHandler)))
	defer func() { _ = a.Close() }()

	var out bytes.Buffer
	a.root.SetOut(&out)
	a.root.SetArgs([]string{"list"})
	if err := a.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := os.Stat(cfg.Storage.DBPath); err != nil {
		t.Errorf("database not created: %v", err)
	}
	if !strings.Contains(out.String(), "No todos found") {
		t.Errorf("got %q", out.String())
	}
}

func TestEnsureRepo_InvalidTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.Timezone = "Mars/Olympus"
	a := NewApp(nil, cfg)
	if err := a.ensureRepo(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestAdd(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)

	out := env.mustRun("add", "Write", "docs", "--start=09:00", "--end=10:30", "--priority=high", "--color=green")
	if !strings.Contains(out, "Write docs [high] 2025-01-08 09:00-10:30") {
		t.Errorf("unexpected output: %q", out)
	}

	got := env.todoByTitle("Write docs")
	if got.Color != "green" || got.Category != todo.DefaultCategory {
		t.Errorf("got color %q category %q", got.Color, got.Category)
	}
}

func TestAdd_Validation(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"end before start", []string{"add", "X", "--start=10:00", "--end=09:00"}, todo.ErrEndBeforeStart},
		{"bad time", []string{"add", "X", "--start=9am", "--end=10:00"}, todo.ErrInvalidTimeFormat},
		{"bad priority", []string{"add", "X", "--start=09:00", "--end=10:00", "--priority=urgent"}, todo.ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := env.run("add", "X", "--start=09:00"); err == nil {
		t.Error("expected missing --end to fail")
	}
}

func TestAdd_RejectsOverlap(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	env.mustRun("add", "Review", "--date=2025-01-08", "--start=10:00", "--end=11:00")

	_, err := env.run("add", "Lunch", "--date=2025-01-08", "--start=10:30", "--end=11:30")
	if !errors.Is(err, todo.ErrTimeConflict) {
		t.Fatalf("got %v, want ErrTimeConflict", err)
	}
	if !strings.Contains(err.Error(), "Review (10:00 - 11:00)") {
		t.Errorf("error should name the conflict: %v", err)
	}

	// Back-to-back is fine.
	env.mustRun("add", "Lunch", "--date=2025-01-08", "--start=11:00", "--end=12:00")
}

func TestAdd_WarnPolicyStoresAndReports(t *testing.T) {
	env := newTestEnv(t, db.PolicyWarn)
	env.mustRun("add", "Review", "--date=2025-01-08", "--start=10:00", "--end=11:00")

	out := env.mustRun("add", "Lunch", "--date=2025-01-08", "--start=10:30", "--end=11:30")
	if !strings.Contains(out, "Warning: overlaps existing todos") || !strings.Contains(out, "Review (overlap)") {
		t.Errorf("expected overlap warning, got:\n%s", out)
	}
	env.todoByTitle("Lunch")
}

func TestEdit(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	env.mustRun("add", "Review", "--date=2025-01-08", "--start=10:00", "--end=11:00", "--priority=high")
	env.mustRun("add", "Lunch", "--date=2025-01-08", "--start=12:00", "--end=13:00")
	review := env.todoByTitle("Review")

	// Growing into its own slot is not a conflict.
	out := env.mustRun("edit", review.ID, "--end=11:30", "--title=Code review")
	if !strings.Contains(out, "Code review [high] 2025-01-08 10:00-11:30") {
		t.Errorf("unexpected output: %q", out)
	}

	if _, err := env.run("edit", review.ID, "--end=12:30"); !errors.Is(err, todo.ErrTimeConflict) {
		t.Errorf("got %v, want ErrTimeConflict", err)
	}
	if _, err := env.run("edit", "missing", "--end=12:30"); !errors.Is(err, todo.ErrTodoNotFound) {
		t.Errorf("got %v, want ErrTodoNotFound", err)
	}
}

func TestShowAndDelete(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	env.seed()
	standup := env.todoByTitle("Standup")

	out := env.mustRun("show", standup.ID)
	if !strings.Contains(out, "repeats   daily") || !strings.Contains(out, "2025-01-06 09:00-09:30") {
		t.Errorf("unexpected detail:\n%s", out)
	}

	out = env.mustRun("delete", standup.ID)
	if !strings.Contains(out, "Deleted todo "+standup.ID+": Standup") {
		t.Errorf("got %q", out)
	}
	if _, err := env.run("delete", standup.ID); !errors.Is(err, todo.ErrTodoNotFound) {
		t.Errorf("got %v, want ErrTodoNotFound", err)
	}
}

func TestToggle(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	env.seed()
	standup := env.todoByTitle("Standup")
	review := env.todoByTitle("Review")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"toggle", standup.ID}, "Marked Standup done on 2025-01-08"},
		{[]string{"toggle", standup.ID, "--date=yesterday"}, "Marked Standup done on 2025-01-07"},
		{[]string{"toggle", standup.ID}, "Marked Standup open on 2025-01-08"},
		{[]string{"toggle", review.ID}, "Marked Review done"},
	}
	for _, tt := range tests {
		out := env.mustRun(tt.args...)
		if !strings.Contains(out, tt.want) {
			t.Errorf("%v: got %q, want %q", tt.args, out, tt.want)
		}
	}

	got := env.todoByTitle("Standup")
	if got.CompletedOn("2025-01-08") || !got.CompletedOn("2025-01-07") {
		t.Errorf("completed dates = %v", got.CompletedDates)
	}
}
