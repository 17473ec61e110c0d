package storage

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pendergraft/verifyprep/internal/deployment"
	"github.com/pendergraft/verifyprep/internal/solc"
)

// CachingLoader keeps recently parsed build infos in memory, keyed by
// deployment and artifact. Callers must not mutate a returned build info;
// solc.PrepareInput works on a clone.
type CachingLoader struct {
	deployment.Loader
	buildInfos *lru.Cache[string, *solc.BuildInfo]
}

// NewCachingLoader wraps next with an LRU cache holding up to size build
// infos.
func NewCachingLoader(next deployment.Loader, size int) (*CachingLoader, error) {
	cache, err := lru.New[string, *solc.BuildInfo](size)
	if err != nil {
		return nil, fmt.Errorf("creating build info cache: %w", err)
	}
	return &CachingLoader{Loader: next, buildInfos: cache}, nil
}

// ReadBuildInfo returns a cached build info or loads and caches it.
func (c *CachingLoader) ReadBuildInfo(ctx context.Context, location, artifactID string) (*solc.BuildInfo, error) {
	key := location + "\x00" + artifactID
	if bi, ok := c.buildInfos.Get(key); ok {
		return bi, nil
	}

	bi, err := c.Loader.ReadBuildInfo(ctx, location, artifactID)
	if err != nil {
		return nil, err
	}
	c.buildInfos.Add(key, bi)
	return bi, nil
}

// Len returns the number of cached build infos.
func (c *CachingLoader) Len() int {
	return c.buildInfos.Len()
}
