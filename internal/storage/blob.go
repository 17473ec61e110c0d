package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/memblob"  // mem:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
	"gocloud.dev/gcerrors"

	"github.com/pendergraft/verifyprep/internal/deployment"
	"github.com/pendergraft/verifyprep/internal/solc"
	"github.com/pendergraft/verifyprep/internal/validation"
)

// BlobStore reads Ignition deployment directories from a bucket. Each
// deployment lives under <id>/ with the layout Ignition writes to
// ignition/deployments/<id>/:
//
//	journal.jsonl
//	artifacts/<artifactId>.json
//	artifacts/<artifactId>.dbg.json
//	build-info/<buildInfoId>.json
type BlobStore struct {
	bucket *blob.Bucket
	logger *slog.Logger
}

// OpenBlobStore opens the bucket at a gocloud.dev URL such as
// file:///srv/ignition/deployments, s3://bucket?region=us-east-1 or
// gs://bucket.
func OpenBlobStore(ctx context.Context, url string, logger *slog.Logger) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", url, err)
	}
	return NewBlobStore(bucket, logger), nil
}

// NewBlobStore wraps an already opened bucket.
func NewBlobStore(bucket *blob.Bucket, logger *slog.Logger) *BlobStore {
	return &BlobStore{bucket: bucket, logger: logger}
}

// Close closes the bucket
func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

// Migrate is a no-op; buckets have no schema.
func (s *BlobStore) Migrate(ctx context.Context) error {
	return nil
}

// LoadState replays the deployment's journal.
func (s *BlobStore) LoadState(ctx context.Context, location string) (*deployment.State, error) {
	if err := validation.ValidateDeploymentID(location); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}

	r, err := s.bucket.NewReader(ctx, path.Join(location, deployment.JournalFile), nil)
	if err != nil {
		return nil, s.wrap(err, "opening journal of %s", location)
	}
	defer r.Close()

	state, err := deployment.ReplayJournal(r)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", location, err)
	}
	return state, nil
}

// LoadArtifact reads artifacts/<artifactID>.json.
func (s *BlobStore) LoadArtifact(ctx context.Context, location, artifactID string) (*solc.Artifact, error) {
	data, err := s.readArtifact(ctx, location, artifactID)
	if err != nil {
		return nil, err
	}

	var artifact solc.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parsing artifact %s: %w", artifactID, err)
	}
	return &artifact, nil
}

// ReadBuildInfo follows the artifact's debug file to its build info.
func (s *BlobStore) ReadBuildInfo(ctx context.Context, location, artifactID string) (*solc.BuildInfo, error) {
	_, data, err := s.readBuildInfo(ctx, location, artifactID)
	if err != nil {
		return nil, err
	}

	var bi solc.BuildInfo
	if err := json.Unmarshal(data, &bi); err != nil {
		return nil, fmt.Errorf("parsing build info for %s: %w", artifactID, err)
	}
	return &bi, nil
}

// ListDeployments lists every top-level directory that holds a journal.
func (s *BlobStore) ListDeployments(ctx context.Context) ([]Summary, error) {
	var summaries []Summary

	iter := s.bucket.List(&blob.ListOptions{Delimiter: "/"})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing deployments: %w", err)
		}
		if !obj.IsDir {
			continue
		}

		id := strings.TrimSuffix(obj.Key, "/")
		state, err := s.LoadState(ctx, id)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidLocation) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sum := Summarize(id, state)
		if attrs, err := s.bucket.Attributes(ctx, path.Join(id, deployment.JournalFile)); err == nil {
			sum.CreatedAt = attrs.ModTime.UTC().Format("2006-01-02 15:04:05")
		}
		summaries = append(summaries, sum)
	}

	return summaries, nil
}

// Snapshot reads the state of a deployment together with the artifact and
// build info of every successfully deployed contract.
func (s *BlobStore) Snapshot(ctx context.Context, location string) (*Snapshot, error) {
	state, err := s.LoadState(ctx, location)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:         location,
		State:      state,
		Artifacts:  make(map[string]SnapshotArtifact),
		BuildInfos: make(map[string][]byte),
	}

	for _, es := range state.ExecutionStates {
		if !es.IsSuccessfulDeployment() {
			continue
		}
		if _, ok := snap.Artifacts[es.ArtifactID]; ok {
			continue
		}

		content, err := s.readArtifact(ctx, location, es.ArtifactID)
		if err != nil {
			return nil, err
		}
		id, buildInfo, err := s.readBuildInfo(ctx, location, es.ArtifactID)
		if err != nil {
			return nil, err
		}

		snap.Artifacts[es.ArtifactID] = SnapshotArtifact{Content: content, BuildInfoID: id}
		snap.BuildInfos[id] = buildInfo
	}

	s.logger.Debug("snapshot read",
		"deployment", location,
		"artifacts", len(snap.Artifacts),
		"buildInfos", len(snap.BuildInfos),
	)
	return snap, nil
}

func (s *BlobStore) readArtifact(ctx context.Context, location, artifactID string) ([]byte, error) {
	if err := validation.ValidateDeploymentID(location); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}

	data, err := s.bucket.ReadAll(ctx, path.Join(location, "artifacts", artifactID+".json"))
	if err != nil {
		return nil, s.wrap(err, "reading artifact %s", artifactID)
	}
	return data, nil
}

// readBuildInfo returns the build info id and raw content for an artifact.
func (s *BlobStore) readBuildInfo(ctx context.Context, location, artifactID string) (string, []byte, error) {
	if err := validation.ValidateDeploymentID(location); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}

	artifactsDir := path.Join(location, "artifacts")
	raw, err := s.bucket.ReadAll(ctx, path.Join(artifactsDir, artifactID+".dbg.json"))
	if err != nil {
		return "", nil, s.wrap(err, "reading debug file of %s", artifactID)
	}

	var dbg solc.DebugFile
	if err := json.Unmarshal(raw, &dbg); err != nil {
		return "", nil, fmt.Errorf("parsing debug file of %s: %w", artifactID, err)
	}
	if dbg.BuildInfo == "" {
		return "", nil, fmt.Errorf("debug file of %s has no build info reference", artifactID)
	}

	// The reference is relative to the artifacts directory and must stay
	// inside the deployment.
	ref := path.Join(artifactsDir, strings.ReplaceAll(dbg.BuildInfo, `\`, "/"))
	if !strings.HasPrefix(ref, location+"/") {
		return "", nil, fmt.Errorf("%w: build info reference %q escapes deployment", ErrInvalidLocation, dbg.BuildInfo)
	}

	data, err := s.bucket.ReadAll(ctx, ref)
	if err != nil {
		return "", nil, s.wrap(err, "reading build info for %s", artifactID)
	}
	return buildInfoID(ref), data, nil
}

// wrap maps bucket not-found errors to ErrNotFound.
func (s *BlobStore) wrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
