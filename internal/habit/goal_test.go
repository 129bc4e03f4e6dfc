package habit

import (
	"errors"
	"testing"
	"time"
)

func TestNewGoalAt(t *testing.T) {
	g, err := NewGoalAt(GoalParams{Title: "Run a marathon", TargetDate: "2025-06-01"}, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if g.Status != GoalActive || g.Progress != 0 || g.Category != DefaultCategory {
		t.Errorf("got %+v", g)
	}
	if p := g.Params(); p.TargetDate != "2025-06-01" {
		t.Errorf("target = %q", p.TargetDate)
	}

	open, err := NewGoalAt(GoalParams{Title: "Learn Go"}, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if !open.TargetDate.IsZero() || open.Params().TargetDate != "" {
		t.Errorf("open-ended goal got target %v", open.TargetDate)
	}

	if _, err := NewGoalAt(GoalParams{Title: ""}, testNow); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("empty title: got %v", err)
	}
	if _, err := NewGoalAt(GoalParams{Title: "x", TargetDate: "whenever"}, testNow); err == nil {
		t.Error("expected error for bad target date")
	}
}

func TestGoal_Progress(t *testing.T) {
	g, _ := NewGoalAt(GoalParams{Title: "Ship"}, testNow)

	if err := g.SetProgress(101, testNow); !errors.Is(err, ErrInvalidProgress) {
		t.Errorf("got %v", err)
	}
	if err := g.SetProgress(-1, testNow); !errors.Is(err, ErrInvalidProgress) {
		t.Errorf("got %v", err)
	}

	_ = g.SetProgress(100, testNow)
	if g.Status != GoalCompleted {
		t.Errorf("status at 100%% = %s", g.Status)
	}
	_ = g.SetProgress(60, testNow)
	if g.Status != GoalActive || g.Progress != 60 {
		t.Errorf("reopened goal = %s %d", g.Status, g.Progress)
	}

	_ = g.SetStatus(GoalPaused, testNow)
	_ = g.SetProgress(70, testNow)
	if g.Status != GoalPaused {
		t.Errorf("progress should not resume a paused goal, got %s", g.Status)
	}
}

func TestGoal_SetStatus(t *testing.T) {
	g, _ := NewGoalAt(GoalParams{Title: "Ship"}, testNow)
	if err := g.SetStatus("done", testNow); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("got %v", err)
	}
	if err := g.SetStatus(GoalCompleted, testNow); err != nil {
		t.Fatal(err)
	}
	if g.Progress != 100 {
		t.Errorf("progress = %d", g.Progress)
	}
}

func TestGoal_Deadline(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		status      GoalStatus
		wantOverdue bool
		wantLeft    int
	}{
		{"open-ended", "", GoalActive, false, 0},
		{"due today", "2025-01-10", GoalActive, false, 0},
		{"next week", "2025-01-17", GoalActive, false, 7},
		{"past", "2025-01-08", GoalActive, true, -2},
		{"past but paused", "2025-01-08", GoalPaused, true, -2},
		{"past but completed", "2025-01-08", GoalCompleted, false, -2},
		{"across a month", "2025-02-01", GoalActive, false, 22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Goal{Title: "x", Status: tt.status}
			if tt.target != "" {
				d, err := time.ParseInLocation("2006-01-02", tt.target, time.UTC)
				if err != nil {
					t.Fatal(err)
				}
				g.TargetDate = d
			}
			if got := g.IsOverdue(testNow); got != tt.wantOverdue {
				t.Errorf("IsOverdue = %v, want %v", got, tt.wantOverdue)
			}
			if got := g.DaysLeft(testNow); got != tt.wantLeft {
				t.Errorf("DaysLeft = %d, want %d", got, tt.wantLeft)
			}
		})
	}
}
