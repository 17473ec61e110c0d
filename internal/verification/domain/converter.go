package domain

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pendergraft/verifyprep/internal/abicodec"
	"github.com/pendergraft/verifyprep/internal/deployment"
	"github.com/pendergraft/verifyprep/internal/imports"
	"github.com/pendergraft/verifyprep/internal/solc"
	"github.com/pendergraft/verifyprep/internal/validation"
)

// Converter turns one successful deployment record into a VerifyInfo.
type Converter struct {
	loader   deployment.Loader
	analyzer imports.Analyzer
	encoder  abicodec.Encoder
	logger   *slog.Logger
}

// NewConverter creates a converter reading from loader.
func NewConverter(loader deployment.Loader, analyzer imports.Analyzer, encoder abicodec.Encoder) *Converter {
	return &Converter{
		loader:   loader,
		analyzer: analyzer,
		encoder:  encoder,
		logger:   slog.New(slog.DiscardHandler),
	}
}

// Convert builds the payload for record, which must be a successful
// deployment of the deployment at location. Unless includeUnrelated is set
// the compiler input only keeps the contract's own source and everything it
// imports.
func (c *Converter) Convert(ctx context.Context, location string, record *deployment.ExecutionState, includeUnrelated bool) (*VerifyInfo, error) {
	if !record.IsSuccessfulDeployment() || record.Result == nil || record.Result.Type != deployment.ResultSuccess {
		return nil, fmt.Errorf("%w: record %s has no successful result", ErrInvariantViolation, record.ID)
	}
	if err := validation.ValidateAddress(record.Result.Address); err != nil {
		return nil, fmt.Errorf("%w: record %s: %v", ErrInvariantViolation, record.ID, err)
	}

	var (
		buildInfo *solc.BuildInfo
		artifact  *solc.Artifact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bi, err := c.loader.ReadBuildInfo(gctx, location, record.ArtifactID)
		if err != nil {
			return fmt.Errorf("reading build info of %s: %w", record.ArtifactID, err)
		}
		buildInfo = bi
		return nil
	})
	g.Go(func() error {
		a, err := c.loader.LoadArtifact(gctx, location, record.ArtifactID)
		if err != nil {
			return fmt.Errorf("loading artifact %s: %w", record.ArtifactID, err)
		}
		artifact = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if strings.TrimPrefix(buildInfo.SolcLongVersion, "v") == "" {
		return nil, fmt.Errorf("build info of %s: compiler version cannot be empty", record.ArtifactID)
	}
	if err := validation.ValidateCompilerVersion(buildInfo.SolcLongVersion); err != nil {
		c.logger.WarnContext(ctx, "unusual compiler version",
			"artifact", record.ArtifactID,
			"version", buildInfo.SolcLongVersion,
			"error", err,
		)
	}

	input, err := solc.PrepareInput(buildInfo, artifact, record.Libraries)
	if errors.Is(err, solc.ErrMissingLibraryAddress) {
		return nil, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	if err != nil {
		return nil, fmt.Errorf("preparing compiler input of %s: %w", record.ArtifactID, err)
	}

	if !includeUnrelated {
		closure, err := imports.Closure(artifact.SourceName, input.Sources, c.analyzer)
		if err != nil {
			return nil, fmt.Errorf("resolving imports of %s: %w", artifact.SourceName, err)
		}
		keep := make(map[string]bool, len(closure)+1)
		keep[artifact.SourceName] = true
		for _, p := range closure {
			keep[p] = true
		}
		input.RetainSources(keep)
	}

	sourceCode, err := input.MarshalCanonical()
	if err != nil {
		return nil, err
	}

	args, err := c.encoder.EncodeConstructorArgs(ctx, artifact.ABI, record.ConstructorArgs)
	if err != nil {
		return nil, fmt.Errorf("encoding constructor arguments of %s: %w", record.ID, err)
	}

	return &VerifyInfo{
		Address:         record.Result.Address,
		CompilerVersion: solc.NormalizeCompilerVersion(buildInfo.SolcLongVersion),
		SourceCode:      sourceCode,
		Name:            artifact.SourceName + ":" + record.ContractName,
		Args:            hex.EncodeToString(args),
	}, nil
}
