package todo

import (
	"context"
	"time"

	"github.com/grindflow/grindflow/internal/schedule"
)

// Repository defines the storage interface for todos.
type Repository interface {
	// CreateTodo adds a new todo. It returns the conflicts found on the
	// todo's day. Under a rejecting policy a conflict aborts the write
	// with a *ConflictError.
	CreateTodo(ctx context.Context, t *Todo) ([]schedule.Conflict, error)

	// GetTodo retrieves a todo by ID.
	GetTodo(ctx context.Context, id string) (*Todo, error)

	// ListTodos returns every todo ordered by scheduled date and start time.
	ListTodos(ctx context.Context) ([]*Todo, error)

	// ListTodosByDateRange returns todos that occur within the date range
	// (inclusive), including recurring todos anchored before it.
	ListTodosByDateRange(ctx context.Context, start, end time.Time) ([]*Todo, error)

	// UpdateTodo replaces a todo's fields. The todo itself is excluded
	// from the conflict check.
	UpdateTodo(ctx context.Context, t *Todo) ([]schedule.Conflict, error)

	// DeleteTodo removes a todo.
	DeleteTodo(ctx context.Context, id string) error

	// ToggleTodo flips completion of a todo on the given day key and
	// returns the updated todo.
	ToggleTodo(ctx context.Context, id, day string) (*Todo, error)

	// Close releases any resources held by the repository.
	Close() error
}
