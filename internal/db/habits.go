package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/grindflow/grindflow/internal/habit"
	"github.com/grindflow/grindflow/internal/todo"
)

const selectHabitColumns = `
	SELECT id, title, description, frequency, days, start_date,
	       completed_dates, last_completed_at, linked_goal_id, icon,
	       category, is_archived, created_at, updated_at
	FROM habits
`

const selectGoalColumns = `
	SELECT id, title, description, target_date, status, progress,
	       category, created_at, updated_at
	FROM goals
`

// CreateHabit adds a new habit.
func (s *SQLite) CreateHabit(ctx context.Context, h *habit.Habit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.checkGoal(ctx, tx, h.LinkedGoalID); err != nil {
		return err
	}

	query := `
		INSERT INTO habits (
			id, title, description, frequency, days, start_date,
			completed_dates, last_completed_at, linked_goal_id, icon,
			category, is_archived, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args, err := habitArgs(h)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, append([]any{h.ID}, args...)...); err != nil {
		return fmt.Errorf("inserting habit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetHabit retrieves a habit by ID.
func (s *SQLite) GetHabit(ctx context.Context, id string) (*habit.Habit, error) {
	return s.getHabit(ctx, s.db, id)
}

func (s *SQLite) getHabit(ctx context.Context, q querier, id string) (*habit.Habit, error) {
	rows, err := q.QueryContext(ctx, selectHabitColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying habit: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating habits: %w", err)
		}
		return nil, fmt.Errorf("%w: %s", habit.ErrHabitNotFound, id)
	}
	h, err := s.scanHabit(rows)
	if err != nil {
		return nil, fmt.Errorf("reading habit %s: %w", id, err)
	}
	return h, nil
}

// ListHabits returns habits in creation order.
func (s *SQLite) ListHabits(ctx context.Context, includeArchived bool) ([]*habit.Habit, error) {
	query := selectHabitColumns
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY created_at, title`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying habits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var habits []*habit.Habit
	for rows.Next() {
		h, err := s.scanHabit(rows)
		if err != nil {
			var rowErr *rowError
			if errors.As(err, &rowErr) {
				s.logger.Warn("skipping malformed habit", "id", rowErr.id, "err", rowErr.err)
				continue
			}
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating habits: %w", err)
	}
	return habits, nil
}

// UpdateHabit replaces a habit's stored fields.
func (s *SQLite) UpdateHabit(ctx context.Context, h *habit.Habit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.getHabit(ctx, tx, h.ID); err != nil {
		return err
	}
	if err := s.checkGoal(ctx, tx, h.LinkedGoalID); err != nil {
		return err
	}

	query := `
		UPDATE habits SET
			title = ?, description = ?, frequency = ?, days = ?, start_date = ?,
			completed_dates = ?, last_completed_at = ?, linked_goal_id = ?, icon = ?,
			category = ?, is_archived = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`
	args, err := habitArgs(h)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, append(args, h.ID)...); err != nil {
		return fmt.Errorf("updating habit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteHabit removes a habit.
func (s *SQLite) DeleteHabit(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting habit: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", habit.ErrHabitNotFound, id)
	}
	return nil
}

// ToggleHabit flips completion of a habit on the given day.
func (s *SQLite) ToggleHabit(ctx context.Context, id, day string) (*habit.Habit, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	h, err := s.getHabit(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := h.Toggle(day, s.clock.Now()); err != nil {
		return nil, err
	}

	completed, err := json.Marshal(nonNil(h.CompletedDates))
	if err != nil {
		return nil, fmt.Errorf("encoding completed dates: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE habits SET completed_dates = ?, last_completed_at = ?, updated_at = ? WHERE id = ?`,
		string(completed), formatOptionalTime(h.LastCompletedAt), h.UpdatedAt.Format(timeLayout), id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggling habit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return h, nil
}

// CreateGoal adds a new goal.
func (s *SQLite) CreateGoal(ctx context.Context, g *habit.Goal) error {
	query := `
		INSERT INTO goals (
			id, title, description, target_date, status, progress,
			category, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, append([]any{g.ID}, goalArgs(g)...)...); err != nil {
		return fmt.Errorf("inserting goal: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal by ID.
func (s *SQLite) GetGoal(ctx context.Context, id string) (*habit.Goal, error) {
	rows, err := s.db.QueryContext(ctx, selectGoalColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying goal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating goals: %w", err)
		}
		return nil, fmt.Errorf("%w: %s", habit.ErrGoalNotFound, id)
	}
	g, err := s.scanGoal(rows)
	if err != nil {
		return nil, fmt.Errorf("reading goal %s: %w", id, err)
	}
	return g, nil
}

// ListGoals returns goals by target date, open-ended goals last.
func (s *SQLite) ListGoals(ctx context.Context) ([]*habit.Goal, error) {
	rows, err := s.db.QueryContext(ctx, selectGoalColumns+`
		ORDER BY target_date = '', target_date, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []*habit.Goal
	for rows.Next() {
		g, err := s.scanGoal(rows)
		if err != nil {
			var rowErr *rowError
			if errors.As(err, &rowErr) {
				s.logger.Warn("skipping malformed goal", "id", rowErr.id, "err", rowErr.err)
				continue
			}
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating goals: %w", err)
	}
	return goals, nil
}

// UpdateGoal replaces a goal's stored fields.
func (s *SQLite) UpdateGoal(ctx context.Context, g *habit.Goal) error {
	query := `
		UPDATE goals SET
			title = ?, description = ?, target_date = ?, status = ?, progress = ?,
			category = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, append(goalArgs(g), g.ID)...)
	if err != nil {
		return fmt.Errorf("updating goal: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", habit.ErrGoalNotFound, g.ID)
	}
	return nil
}

// DeleteGoal removes a goal and clears the link on its habits.
func (s *SQLite) DeleteGoal(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", habit.ErrGoalNotFound, id)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE habits SET linked_goal_id = '', updated_at = ? WHERE linked_goal_id = ?`,
		s.clock.Now().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("unlinking habits: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// checkGoal verifies a linked goal exists. An empty id means no link.
func (s *SQLite) checkGoal(ctx context.Context, q querier, id string) error {
	if id == "" {
		return nil
	}
	var found string
	err := q.QueryRowContext(ctx, `SELECT id FROM goals WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", habit.ErrGoalNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("querying goal: %w", err)
	}
	return nil
}

// habitArgs encodes every habit column except id, in table order.
func habitArgs(h *habit.Habit) ([]any, error) {
	days, err := json.Marshal(nonNil(h.Days))
	if err != nil {
		return nil, fmt.Errorf("encoding days: %w", err)
	}
	completed, err := json.Marshal(nonNil(h.CompletedDates))
	if err != nil {
		return nil, fmt.Errorf("encoding completed dates: %w", err)
	}

	return []any{
		h.Title,
		h.Description,
		string(h.Frequency),
		string(days),
		h.StartDate.Format(dateLayout),
		string(completed),
		formatOptionalTime(h.LastCompletedAt),
		h.LinkedGoalID,
		h.Icon,
		h.Category,
		h.IsArchived,
		h.CreatedAt.Format(timeLayout),
		h.UpdatedAt.Format(timeLayout),
	}, nil
}

func goalArgs(g *habit.Goal) []any {
	target := ""
	if !g.TargetDate.IsZero() {
		target = g.TargetDate.Format(dateLayout)
	}
	return []any{
		g.Title,
		g.Description,
		target,
		string(g.Status),
		g.Progress,
		g.Category,
		g.CreatedAt.Format(timeLayout),
		g.UpdatedAt.Format(timeLayout),
	}
}

func (s *SQLite) scanHabit(rows *sql.Rows) (*habit.Habit, error) {
	var (
		h               habit.Habit
		frequency       string
		days            string
		startDate       string
		completedDates  string
		lastCompletedAt string
		createdAt       string
		updatedAt       string
	)
	err := rows.Scan(
		&h.ID,
		&h.Title,
		&h.Description,
		&frequency,
		&days,
		&startDate,
		&completedDates,
		&lastCompletedAt,
		&h.LinkedGoalID,
		&h.Icon,
		&h.Category,
		&h.IsArchived,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning habit: %w", err)
	}
	h.Frequency = todo.Recurrence(frequency)

	if h.StartDate, err = parseDate(startDate, s.loc); err != nil {
		return nil, &rowError{kind: "habit", id: h.ID, err: fmt.Errorf("start date: %w", err)}
	}
	if err := json.Unmarshal([]byte(days), &h.Days); err != nil {
		return nil, &rowError{kind: "habit", id: h.ID, err: fmt.Errorf("days: %w", err)}
	}
	if err := json.Unmarshal([]byte(completedDates), &h.CompletedDates); err != nil {
		return nil, &rowError{kind: "habit", id: h.ID, err: fmt.Errorf("completed dates: %w", err)}
	}
	slices.Sort(h.CompletedDates)
	if h.LastCompletedAt, err = parseOptionalTime(lastCompletedAt); err != nil {
		return nil, &rowError{kind: "habit", id: h.ID, err: fmt.Errorf("last completed at: %w", err)}
	}
	if h.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, &rowError{kind: "habit", id: h.ID, err: fmt.Errorf("created at: %w", err)}
	}
	if h.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, &rowError{kind: "habit", id: h.ID, err: fmt.Errorf("updated at: %w", err)}
	}
	return &h, nil
}

func (s *SQLite) scanGoal(rows *sql.Rows) (*habit.Goal, error) {
	var (
		g          habit.Goal
		targetDate string
		status     string
		createdAt  string
		updatedAt  string
	)
	err := rows.Scan(
		&g.ID,
		&g.Title,
		&g.Description,
		&targetDate,
		&status,
		&g.Progress,
		&g.Category,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning goal: %w", err)
	}
	g.Status = habit.GoalStatus(status)

	if targetDate != "" {
		if g.TargetDate, err = parseDate(targetDate, s.loc); err != nil {
			return nil, &rowError{kind: "goal", id: g.ID, err: fmt.Errorf("target date: %w", err)}
		}
	}
	if g.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, &rowError{kind: "goal", id: g.ID, err: fmt.Errorf("created at: %w", err)}
	}
	if g.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, &rowError{kind: "goal", id: g.ID, err: fmt.Errorf("updated at: %w", err)}
	}
	return &g, nil
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func parseOptionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}
