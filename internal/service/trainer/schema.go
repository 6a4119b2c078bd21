package trainer

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		fen TEXT NOT NULL,
		eval_cp INTEGER NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS position_ratings (
		position_id TEXT NOT NULL,
		time_control INTEGER NOT NULL,
		rating INTEGER NOT NULL,
		PRIMARY KEY (position_id, time_control)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_position_ratings_band ON position_ratings (time_control, rating)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		eval_display TEXT NOT NULL DEFAULT 'raw',
		update_ratings BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_ratings (
		user_id TEXT NOT NULL,
		time_control INTEGER NOT NULL,
		rating INTEGER NOT NULL,
		PRIMARY KEY (user_id, time_control)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_ratings_board ON user_ratings (time_control, rating)`,
	`CREATE TABLE IF NOT EXISTS survival_best (
		user_id TEXT NOT NULL,
		time_control INTEGER NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, time_control)
	)`,
}

// Migrate creates the trainer tables when they do not exist. The DDL is shared by postgres and sqlite3.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
