package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS deployments (
		id TEXT PRIMARY KEY,
		chain_id INTEGER NOT NULL,
		state TEXT NOT NULL,
		records INTEGER NOT NULL,
		contracts INTEGER NOT NULL,
		revision TEXT NOT NULL,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS build_infos (
		id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		content BLOB NOT NULL,
		size_bytes INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS artifacts (
		deployment_id TEXT NOT NULL REFERENCES deployments(id) ON DELETE CASCADE,
		artifact_id TEXT NOT NULL,
		build_info_id TEXT NOT NULL REFERENCES build_infos(id),
		content BLOB NOT NULL,
		PRIMARY KEY (deployment_id, artifact_id)
	);

	CREATE INDEX IF NOT EXISTS idx_deployments_chain_id ON deployments(chain_id);
	CREATE INDEX IF NOT EXISTS idx_artifacts_build_info ON artifacts(build_info_id);
`

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &SQLStore{db: db, logger: logger, schema: sqliteSchema}, nil
}
