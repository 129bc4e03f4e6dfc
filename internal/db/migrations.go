package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS todos (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			category        TEXT NOT NULL DEFAULT 'personal',
			icon            TEXT NOT NULL DEFAULT '',
			priority        TEXT CHECK(priority IN ('low', 'medium', 'high')),
			color           TEXT NOT NULL DEFAULT 'blue',
			scheduled_date  TEXT NOT NULL,
			start_time      TEXT NOT NULL,
			end_time        TEXT NOT NULL,
			recurring       TEXT NOT NULL DEFAULT 'none' CHECK(recurring IN ('none', 'daily', 'weekly', 'monthly')),
			days            TEXT NOT NULL DEFAULT '[]',
			is_completed    INTEGER NOT NULL DEFAULT 0,
			completed_dates TEXT NOT NULL DEFAULT '[]',
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_todos_scheduled ON todos(scheduled_date);
		CREATE INDEX IF NOT EXISTS idx_todos_recurring ON todos(recurring);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating todos table: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS goals (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			target_date TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'completed', 'paused')),
			progress    INTEGER NOT NULL DEFAULT 0 CHECK(progress BETWEEN 0 AND 100),
			category    TEXT NOT NULL DEFAULT 'personal',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS habits (
			id                TEXT PRIMARY KEY,
			title             TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			frequency         TEXT NOT NULL CHECK(frequency IN ('daily', 'weekly', 'monthly')),
			days              TEXT NOT NULL DEFAULT '[]',
			start_date        TEXT NOT NULL,
			completed_dates   TEXT NOT NULL DEFAULT '[]',
			last_completed_at TEXT NOT NULL DEFAULT '',
			linked_goal_id    TEXT NOT NULL DEFAULT '',
			icon              TEXT NOT NULL DEFAULT '',
			category          TEXT NOT NULL DEFAULT 'personal',
			is_archived       INTEGER NOT NULL DEFAULT 0,
			created_at        TEXT NOT NULL,
			updated_at        TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_habits_goal ON habits(linked_goal_id);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating habit tables: %w", err)
	}

	return nil
}
