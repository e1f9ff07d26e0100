package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS llm_logs (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		user_id TEXT,
		route TEXT NOT NULL,
		prompt TEXT NOT NULL DEFAULT '',
		response TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_logs_timestamp ON llm_logs (timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS feature_flags (
		key TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0,
		description TEXT
	)`,
}

// OpenSQLite opens (or creates) a local SQLite database with the log and
// flag tables in place.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	ctx := context.Background()
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return db, nil
}
