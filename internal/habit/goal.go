package habit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grindflow/grindflow/internal/dateutil"
	"github.com/grindflow/grindflow/internal/schedule"
)

// Goal validation errors.
var (
	ErrInvalidStatus   = errors.New("status must be 'active', 'completed' or 'paused'")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
)

// GoalStatus is where a goal stands.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
)

// Valid returns true if the status is a known value.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalPaused:
		return true
	default:
		return false
	}
}

// Goal is a longer-term target that habits can be linked to.
type Goal struct {
	ID          string
	Title       string
	Description string
	TargetDate  time.Time // local midnight, zero when open-ended
	Status      GoalStatus
	Progress    int // percent
	Category    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GoalParams holds user input for creating or editing a goal.
type GoalParams struct {
	Title       string
	Description string
	TargetDate  string // empty for none
	Category    string
}

// NewGoalAt creates an active goal at 0% progress.
func NewGoalAt(p GoalParams, now time.Time) (*Goal, error) {
	g := &Goal{
		ID:        uuid.NewString(),
		Status:    GoalActive,
		CreatedAt: now,
	}
	if err := g.Apply(p, now); err != nil {
		return nil, err
	}
	return g, nil
}

// Params returns the goal's editable fields as input.
func (g *Goal) Params() GoalParams {
	p := GoalParams{
		Title:       g.Title,
		Description: g.Description,
		Category:    g.Category,
	}
	if !g.TargetDate.IsZero() {
		p.TargetDate = schedule.DayKey(g.TargetDate)
	}
	return p
}

// Apply validates p and copies it onto g. On error g is left unchanged.
func (g *Goal) Apply(p GoalParams, now time.Time) error {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return ErrEmptyTitle
	}

	var target time.Time
	if strings.TrimSpace(p.TargetDate) != "" {
		d, err := dateutil.ParseRelativeDate(p.TargetDate, now)
		if err != nil {
			return err
		}
		target = d
	}

	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = DefaultCategory
	}

	g.Title = title
	g.Description = p.Description
	g.TargetDate = target
	g.Category = category
	g.UpdatedAt = now
	return nil
}

// SetStatus moves the goal to status. Completing a goal fills its progress.
func (g *Goal) SetStatus(status GoalStatus, now time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	g.Status = status
	if status == GoalCompleted {
		g.Progress = 100
	}
	g.UpdatedAt = now
	return nil
}

// SetProgress records progress in percent. Reaching 100 completes the goal
// and dropping below it reopens a completed one.
func (g *Goal) SetProgress(percent int, now time.Time) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidProgress, percent)
	}
	g.Progress = percent
	switch {
	case percent == 100:
		g.Status = GoalCompleted
	case g.Status == GoalCompleted:
		g.Status = GoalActive
	}
	g.UpdatedAt = now
	return nil
}

// IsOverdue reports whether an unfinished goal is past its target date.
func (g *Goal) IsOverdue(now time.Time) bool {
	if g.Status == GoalCompleted || g.TargetDate.IsZero() {
		return false
	}
	return schedule.DayKey(now.In(g.TargetDate.Location())) > schedule.DayKey(g.TargetDate)
}

// DaysLeft counts calendar days from now until the target date. It is
// negative once the date has passed and zero for open-ended goals.
func (g *Goal) DaysLeft(now time.Time) int {
	if g.TargetDate.IsZero() {
		return 0
	}
	y, m, d := now.In(g.TargetDate.Location()).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = g.TargetDate.Date()
	target := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(target.Sub(today).Hours() / 24)
}
