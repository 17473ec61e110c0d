// Package storage reads Ignition deployments from a bucket or a SQL
// database and snapshots them between the two.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pendergraft/verifyprep/internal/config"
	"github.com/pendergraft/verifyprep/internal/deployment"
)

// Store is a deployment source with lifecycle methods.
// Domain services define their own minimal interfaces based on their actual usage.
type Store interface {
	deployment.Loader
	ListDeployments(ctx context.Context) ([]Summary, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// SnapshotWriter persists deployment snapshots
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
}

// Summary describes a stored deployment
type Summary struct {
	ID        string `json:"id"`
	ChainID   int64  `json:"chainId"`
	Records   int    `json:"records"`
	Contracts int    `json:"contracts"` // successfully deployed contracts
	CreatedAt string `json:"createdAt,omitempty"`
}

// Snapshot is everything needed to prepare verification payloads for one
// deployment, detached from where it was read.
type Snapshot struct {
	ID         string
	State      *deployment.State
	Artifacts  map[string]SnapshotArtifact // by artifact id
	BuildInfos map[string][]byte           // raw build info JSON by build info id
}

// SnapshotArtifact is a raw artifact and the build info it came from
type SnapshotArtifact struct {
	Content     []byte
	BuildInfoID string
}

// New creates a new store based on configuration
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "blob":
		return OpenBlobStore(ctx, cfg.Blob.URL, logger)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path, logger)
	case "postgres":
		return NewPostgresStore(cfg.Postgres.URL, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// Summarize builds the summary of a deployment state.
func Summarize(id string, state *deployment.State) Summary {
	s := Summary{ID: id, ChainID: state.ChainID, Records: len(state.ExecutionStates)}
	for i := range state.ExecutionStates {
		if state.ExecutionStates[i].IsSuccessfulDeployment() {
			s.Contracts++
		}
	}
	return s
}
