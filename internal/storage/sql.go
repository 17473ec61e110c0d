package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pendergraft/verifyprep/internal/deployment"
	"github.com/pendergraft/verifyprep/internal/solc"
)

// SQLStore stores deployment snapshots in SQLite or Postgres. Queries are
// written with '?' placeholders and rebound for the dialect.
type SQLStore struct {
	db       *sql.DB
	logger   *slog.Logger
	schema   string
	postgres bool
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("database migrations complete")
	return nil
}

func (s *SQLStore) q(query string) string {
	if s.postgres {
		return rebind(query)
	}
	return query
}

// SaveSnapshot stores a snapshot, replacing any earlier snapshot of the
// same deployment. Build infos are shared between deployments.
func (s *SQLStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	state, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	sum := Summarize(snap.ID, snap.State)
	revision := generateID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO deployments (id, chain_id, state, records, contracts, revision)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			chain_id = excluded.chain_id,
			state = excluded.state,
			records = excluded.records,
			contracts = excluded.contracts,
			revision = excluded.revision
	`), snap.ID, sum.ChainID, string(state), sum.Records, sum.Contracts, revision)
	if err != nil {
		return fmt.Errorf("saving deployment %s: %w", snap.ID, err)
	}

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM artifacts WHERE deployment_id = ?`), snap.ID); err != nil {
		return fmt.Errorf("clearing artifacts of %s: %w", snap.ID, err)
	}

	for id, content := range snap.BuildInfos {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO build_infos (id, content_hash, content, size_bytes)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`), id, computeHash(content), content, len(content))
		if err != nil {
			return fmt.Errorf("saving build info %s: %w", id, err)
		}
	}

	for artifactID, a := range snap.Artifacts {
		if _, ok := snap.BuildInfos[a.BuildInfoID]; !ok {
			return fmt.Errorf("artifact %s references missing build info %s", artifactID, a.BuildInfoID)
		}
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO artifacts (deployment_id, artifact_id, build_info_id, content)
			VALUES (?, ?, ?, ?)
		`), snap.ID, artifactID, a.BuildInfoID, a.Content)
		if err != nil {
			return fmt.Errorf("saving artifact %s: %w", artifactID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}

	s.logger.Info("snapshot saved",
		"deployment", snap.ID,
		"revision", revision,
		"artifacts", len(snap.Artifacts),
		"buildInfos", len(snap.BuildInfos),
	)
	return nil
}

// LoadState returns the stored execution record of a deployment
func (s *SQLStore) LoadState(ctx context.Context, location string) (*deployment.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT state FROM deployments WHERE id = ?`), location).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deployment %s: %w", location, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading deployment %s: %w", location, err)
	}

	// Numbers in constructor arguments may exceed float64 precision.
	var state deployment.State
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&state); err != nil {
		return nil, fmt.Errorf("decoding deployment %s: %w", location, err)
	}
	return &state, nil
}

// LoadArtifact returns a stored artifact
func (s *SQLStore) LoadArtifact(ctx context.Context, location, artifactID string) (*solc.Artifact, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT content FROM artifacts WHERE deployment_id = ? AND artifact_id = ?
	`), location, artifactID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artifact %s: %w", artifactID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading artifact %s: %w", artifactID, err)
	}

	var artifact solc.Artifact
	if err := json.Unmarshal(content, &artifact); err != nil {
		return nil, fmt.Errorf("parsing artifact %s: %w", artifactID, err)
	}
	return &artifact, nil
}

// ReadBuildInfo returns the build info an artifact was compiled in
func (s *SQLStore) ReadBuildInfo(ctx context.Context, location, artifactID string) (*solc.BuildInfo, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT b.content
		FROM artifacts a
		JOIN build_infos b ON b.id = a.build_info_id
		WHERE a.deployment_id = ? AND a.artifact_id = ?
	`), location, artifactID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build info for %s: %w", artifactID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading build info for %s: %w", artifactID, err)
	}

	var bi solc.BuildInfo
	if err := json.Unmarshal(content, &bi); err != nil {
		return nil, fmt.Errorf("parsing build info for %s: %w", artifactID, err)
	}
	return &bi, nil
}

// ListDeployments lists stored deployments ordered by id
func (s *SQLStore) ListDeployments(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chain_id, records, contracts, created_at
		FROM deployments
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.ChainID, &sum.Records, &sum.Contracts, &sum.CreatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
