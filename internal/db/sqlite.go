// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
)

// ConflictPolicy decides what happens when a write collides with existing todos.
type ConflictPolicy string

const (
	// PolicyReject aborts the write with a *todo.ConflictError.
	PolicyReject ConflictPolicy = "reject"
	// PolicyWarn stores the todo and reports the conflicts to the caller.
	PolicyWarn ConflictPolicy = "warn"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339Nano
)

// SQLite implements todo.Repository and habit.Repository using SQLite.
type SQLite struct {
	db       *sql.DB
	policy   ConflictPolicy
	loc      *time.Location
	clock    schedule.Clock
	logger   *slog.Logger
	detector *schedule.Detector
}

// Option configures a SQLite repository.
type Option func(*SQLite)

// WithConflictPolicy sets how overlapping writes are handled. Default is reject.
func WithConflictPolicy(p ConflictPolicy) Option {
	return func(s *SQLite) { s.policy = p }
}

// WithLocation sets the zone stored dates are read in. Default is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *SQLite) { s.loc = loc }
}

// WithClock sets the clock used for update timestamps.
func WithClock(c schedule.Clock) Option {
	return func(s *SQLite) { s.clock = c }
}

// WithLogger sets the logger for skipped rows and conflict warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *SQLite) { s.logger = l }
}

// New creates a new SQLite repository and runs migrations.
func New(path string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{
		db:     db,
		policy: PolicyReject,
		loc:    time.Local,
		clock:  schedule.SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.detector = schedule.NewDetector(s.loc, s.logger)

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectColumns = `
	SELECT id, title, description, category, icon, priority, color,
	       scheduled_date, start_time, end_time, recurring, days,
	       is_completed, completed_dates, created_at, updated_at
	FROM todos
`

// CreateTodo adds a new todo to the repository.
func (s *SQLite) CreateTodo(ctx context.Context, t *todo.Todo) ([]schedule.Conflict, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	conflicts, err := s.checkConflicts(ctx, tx, t, "")
	if err != nil {
		return conflicts, err
	}

	query := `
		INSERT INTO todos (
			id, title, description, category, icon, priority, color,
			scheduled_date, start_time, end_time, recurring, days,
			is_completed, completed_dates, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args, err := rowArgs(t)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, query, append([]any{t.ID}, args...)...); err != nil {
		return nil, fmt.Errorf("inserting todo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return conflicts, nil
}

// GetTodo retrieves a todo by ID.
func (s *SQLite) GetTodo(ctx context.Context, id string) (*todo.Todo, error) {
	return s.getTodo(ctx, s.db, id)
}

func (s *SQLite) getTodo(ctx context.Context, q querier, id string) (*todo.Todo, error) {
	rows, err := q.QueryContext(ctx, selectColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying todo: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating todos: %w", err)
		}
		return nil, fmt.Errorf("%w: %s", todo.ErrTodoNotFound, id)
	}
	t, err := s.scanTodo(rows)
	if err != nil {
		return nil, fmt.Errorf("reading todo %s: %w", id, err)
	}
	return t, nil
}

// ListTodos returns every todo ordered by scheduled date and start time.
func (s *SQLite) ListTodos(ctx context.Context) ([]*todo.Todo, error) {
	return s.listTodos(ctx, s.db, selectColumns+` ORDER BY scheduled_date, start_time, created_at`)
}

// ListTodosByDateRange returns todos scheduled within the date range
// (inclusive) plus recurring todos anchored on or before its end.
func (s *SQLite) ListTodosByDateRange(ctx context.Context, start, end time.Time) ([]*todo.Todo, error) {
	query := selectColumns + `
		WHERE (scheduled_date >= ? AND scheduled_date <= ?)
		   OR (recurring != 'none' AND scheduled_date <= ?)
		ORDER BY scheduled_date, start_time, created_at
	`
	endKey := end.Format(dateLayout)
	return s.listTodos(ctx, s.db, query, start.Format(dateLayout), endKey, endKey)
}

// listTodos runs query and scans the rows. Rows that cannot be decoded are
// skipped with a warning so one bad record never hides the rest.
func (s *SQLite) listTodos(ctx context.Context, q querier, query string, args ...any) ([]*todo.Todo, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var todos []*todo.Todo
	for rows.Next() {
		t, err := s.scanTodo(rows)
		if err != nil {
			var rowErr *rowError
			if errors.As(err, &rowErr) {
				s.logger.Warn("skipping malformed todo", "id", rowErr.id, "err", rowErr.err)
				continue
			}
			return nil, err
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating todos: %w", err)
	}
	return todos, nil
}

// UpdateTodo replaces a todo's stored fields.
func (s *SQLite) UpdateTodo(ctx context.Context, t *todo.Todo) ([]schedule.Conflict, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.getTodo(ctx, tx, t.ID); err != nil {
		return nil, err
	}

	conflicts, err := s.checkConflicts(ctx, tx, t, t.ID)
	if err != nil {
		return conflicts, err
	}

	query := `
		UPDATE todos SET
			title = ?, description = ?, category = ?, icon = ?, priority = ?, color = ?,
			scheduled_date = ?, start_time = ?, end_time = ?, recurring = ?, days = ?,
			is_completed = ?, completed_dates = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`
	args, err := rowArgs(t)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, query, append(args, t.ID)...); err != nil {
		return nil, fmt.Errorf("updating todo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return conflicts, nil
}

// DeleteTodo removes a todo.
func (s *SQLite) DeleteTodo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting todo: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", todo.ErrTodoNotFound, id)
	}
	return nil
}

// ToggleTodo flips completion of a todo on the given day.
func (s *SQLite) ToggleTodo(ctx context.Context, id, day string) (*todo.Todo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	t, err := s.getTodo(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	t.ToggleOn(day, s.clock.Now())

	completed, err := json.Marshal(nonNil(t.CompletedDates))
	if err != nil {
		return nil, fmt.Errorf("encoding completed dates: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE todos SET is_completed = ?, completed_dates = ?, updated_at = ? WHERE id = ?`,
		t.IsCompleted, string(completed), t.UpdatedAt.Format(timeLayout), id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggling todo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return t, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// checkConflicts runs the detector for t's day against the todos that
// occur on it. Under PolicyReject any conflict is returned as an error.
func (s *SQLite) checkConflicts(ctx context.Context, q querier, t *todo.Todo, excludeID string) ([]schedule.Conflict, error) {
	key := t.ScheduledDate.Format(dateLayout)
	query := selectColumns + `
		WHERE scheduled_date = ?
		   OR (recurring != 'none' AND scheduled_date <= ?)
	`
	existing, err := s.listTodos(ctx, q, query, key, key)
	if err != nil {
		return nil, err
	}

	day, err := schedule.ParseDayKey(key, s.loc)
	if err != nil {
		return nil, fmt.Errorf("parsing scheduled date: %w", err)
	}
	conflicts, err := s.detector.Detect(t.Slot(), todo.DayItems(existing, day), excludeID)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}
	if len(conflicts) == 0 {
		return nil, nil
	}
	if s.policy == PolicyWarn {
		s.logger.Warn("saving todo despite conflicts", "id", t.ID, "conflicts", len(conflicts))
		return conflicts, nil
	}
	return conflicts, &todo.ConflictError{Conflicts: conflicts}
}

// rowArgs encodes every column except id, in table order.
func rowArgs(t *todo.Todo) ([]any, error) {
	days, err := json.Marshal(nonNil(t.Days))
	if err != nil {
		return nil, fmt.Errorf("encoding days: %w", err)
	}
	completed, err := json.Marshal(nonNil(t.CompletedDates))
	if err != nil {
		return nil, fmt.Errorf("encoding completed dates: %w", err)
	}

	var priority sql.NullString
	if t.Priority != "" {
		priority = sql.NullString{String: string(t.Priority), Valid: true}
	}
	recurring := t.Recurring
	if recurring == "" {
		recurring = todo.RecurNone
	}

	return []any{
		t.Title,
		t.Description,
		t.Category,
		t.Icon,
		priority,
		string(t.Color),
		t.ScheduledDate.Format(dateLayout),
		t.StartTime,
		t.EndTime,
		string(recurring),
		string(days),
		t.IsCompleted,
		string(completed),
		t.CreatedAt.Format(timeLayout),
		t.UpdatedAt.Format(timeLayout),
	}, nil
}

// rowError marks a row that was read but could not be decoded.
type rowError struct {
	kind string
	id   string
	err  error
}

func (e *rowError) Error() string { return fmt.Sprintf("%s %s: %v", e.kind, e.id, e.err) }
func (e *rowError) Unwrap() error { return e.err }

func (s *SQLite) scanTodo(rows *sql.Rows) (*todo.Todo, error) {
	var (
		t              todo.Todo
		priority       sql.NullString
		scheduledDate  string
		days           string
		completedDates string
		createdAt      string
		updatedAt      string
	)
	err := rows.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Category,
		&t.Icon,
		&priority,
		&t.Color,
		&scheduledDate,
		&t.StartTime,
		&t.EndTime,
		&t.Recurring,
		&days,
		&t.IsCompleted,
		&completedDates,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning todo: %w", err)
	}
	if priority.Valid {
		t.Priority = schedule.Priority(priority.String)
	}

	if t.ScheduledDate, err = parseDate(scheduledDate, s.loc); err != nil {
		return nil, &rowError{kind: "todo", id: t.ID, err: fmt.Errorf("scheduled date: %w", err)}
	}
	if err := json.Unmarshal([]byte(days), &t.Days); err != nil {
		return nil, &rowError{kind: "todo", id: t.ID, err: fmt.Errorf("days: %w", err)}
	}
	if err := json.Unmarshal([]byte(completedDates), &t.CompletedDates); err != nil {
		return nil, &rowError{kind: "todo", id: t.ID, err: fmt.Errorf("completed dates: %w", err)}
	}
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, &rowError{kind: "todo", id: t.ID, err: fmt.Errorf("created at: %w", err)}
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, &rowError{kind: "todo", id: t.ID, err: fmt.Errorf("updated at: %w", err)}
	}
	return &t, nil
}

// parseDate parses a stored date as local midnight. Values written by
// other tools may carry a time component; only the calendar day is kept.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	key, err := schedule.NormalizeDay(schedule.ParseDateInput(s), loc)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.ParseDayKey(key, loc)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
