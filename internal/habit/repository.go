package habit

import "context"

// Repository defines the storage interface for habits and goals.
type Repository interface {
	// CreateHabit adds a habit. A linked goal must exist.
	CreateHabit(ctx context.Context, h *Habit) error

	// GetHabit retrieves a habit by ID.
	GetHabit(ctx context.Context, id string) (*Habit, error)

	// ListHabits returns habits ordered by creation time. Archived habits
	// are left out unless includeArchived is set.
	ListHabits(ctx context.Context, includeArchived bool) ([]*Habit, error)

	// UpdateHabit replaces a habit's fields. A linked goal must exist.
	UpdateHabit(ctx context.Context, h *Habit) error

	// DeleteHabit removes a habit.
	DeleteHabit(ctx context.Context, id string) error

	// ToggleHabit flips completion of a habit on the given day key and
	// returns the updated habit.
	ToggleHabit(ctx context.Context, id, day string) (*Habit, error)

	// CreateGoal adds a goal.
	CreateGoal(ctx context.Context, g *Goal) error

	// GetGoal retrieves a goal by ID.
	GetGoal(ctx context.Context, id string) (*Goal, error)

	// ListGoals returns goals ordered by target date, open-ended last.
	ListGoals(ctx context.Context) ([]*Goal, error)

	// UpdateGoal replaces a goal's fields.
	UpdateGoal(ctx context.Context, g *Goal) error

	// DeleteGoal removes a goal and unlinks its habits.
	DeleteGoal(ctx context.Context, id string) error
}
