package storage

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS deployments (
		id TEXT PRIMARY KEY,
		chain_id BIGINT NOT NULL,
		state JSONB NOT NULL,
		records INTEGER NOT NULL,
		contracts INTEGER NOT NULL,
		revision UUID NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS build_infos (
		id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		content BYTEA NOT NULL,
		size_bytes INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS artifacts (
		deployment_id TEXT NOT NULL REFERENCES deployments(id) ON DELETE CASCADE,
		artifact_id TEXT NOT NULL,
		build_info_id TEXT NOT NULL REFERENCES build_infos(id),
		content BYTEA NOT NULL,
		PRIMARY KEY (deployment_id, artifact_id)
	);

	CREATE INDEX IF NOT EXISTS idx_deployments_chain_id ON deployments(chain_id);
	CREATE INDEX IF NOT EXISTS idx_artifacts_build_info ON artifacts(build_info_id);
`

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(url string, logger *slog.Logger) (*SQLStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &SQLStore{db: db, logger: logger, schema: postgresSchema, postgres: true}, nil
}
