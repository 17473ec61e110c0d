package domain

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/pendergraft/verifyprep/internal/abicodec"
	"github.com/pendergraft/verifyprep/internal/chains"
	"github.com/pendergraft/verifyprep/internal/deployment"
	"github.com/pendergraft/verifyprep/internal/imports"
	"github.com/pendergraft/verifyprep/internal/observability/metrics"
	"github.com/pendergraft/verifyprep/internal/storage"
)

// Service defines the verification service interface.
type Service interface {
	// Prepare loads the deployment, resolves its chain and returns a lazy
	// sequence with one result per successfully deployed contract, in
	// record order. Errors that concern the whole deployment are returned
	// before any sequence exists. A conversion error is yielded once and
	// ends the sequence.
	Prepare(ctx context.Context, req Request) (iter.Seq2[*Result, error], error)

	// Chains returns the chain list lookups use for custom.
	Chains(custom []chains.ChainConfig) []chains.ChainConfig

	// ListDeployments lists the deployments that can be prepared.
	ListDeployments(ctx context.Context) ([]storage.Summary, error)
}

// DeploymentLister lists known deployments.
type DeploymentLister interface {
	ListDeployments(ctx context.Context) ([]storage.Summary, error)
}

// service implements the Service interface.
type service struct {
	loader      deployment.Loader
	deployments DeploymentLister
	converter   *Converter
}

// Option configures a Service.
type Option func(*Converter)

// WithLogger sets the logger used for warnings about unusual build data.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// NewService creates a new verification service.
func NewService(loader deployment.Loader, deployments DeploymentLister, analyzer imports.Analyzer, encoder abicodec.Encoder, opts ...Option) Service {
	converter := NewConverter(loader, analyzer, encoder)
	for _, opt := range opts {
		opt(converter)
	}
	return &service{
		loader:      loader,
		deployments: deployments,
		converter:   converter,
	}
}

// Prepare implements Service.
func (s *service) Prepare(ctx context.Context, req Request) (iter.Seq2[*Result, error], error) {
	state, err := s.loader.LoadState(ctx, req.Location)
	if errors.Is(err, deployment.ErrNotFound) {
		err = &UninitializedDeploymentError{Location: req.Location}
	}
	if err != nil {
		metrics.VerificationRun(runResult(err))
		return nil, err
	}

	chain, err := chains.Resolve(state.ChainID, req.CustomChains)
	if err != nil {
		metrics.VerificationRun(runResult(err))
		return nil, err
	}

	records := successfulDeployments(state)
	if len(records) == 0 {
		err := &NoContractsDeployedError{Location: req.Location}
		metrics.VerificationRun(runResult(err))
		return nil, err
	}

	return func(yield func(*Result, error) bool) {
		for _, record := range records {
			if err := ctx.Err(); err != nil {
				metrics.VerificationRun("canceled")
				yield(nil, err)
				return
			}

			info, err := s.converter.Convert(ctx, req.Location, record, req.IncludeUnrelatedContracts)
			if err != nil {
				metrics.VerificationPrepared(chain.Network, "error")
				metrics.VerificationRun(runResult(err))
				yield(nil, fmt.Errorf("preparing %s: %w", record.ID, err))
				return
			}

			metrics.VerificationPrepared(chain.Network, "success")
			if !yield(&Result{Chain: chain, Info: *info}, nil) {
				metrics.VerificationRun("stopped")
				return
			}
		}
		metrics.VerificationRun("ok")
	}, nil
}

// Chains implements Service.
func (s *service) Chains(custom []chains.ChainConfig) []chains.ChainConfig {
	return chains.Effective(custom)
}

// ListDeployments implements Service.
func (s *service) ListDeployments(ctx context.Context) ([]storage.Summary, error) {
	summaries, err := s.deployments.ListDeployments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}
	return summaries, nil
}

// successfulDeployments returns the successfully completed deployment
// records in the order they were created.
func successfulDeployments(state *deployment.State) []*deployment.ExecutionState {
	var records []*deployment.ExecutionState
	for i := range state.ExecutionStates {
		if state.ExecutionStates[i].IsSuccessfulDeployment() {
			records = append(records, &state.ExecutionStates[i])
		}
	}
	return records
}

// runResult names the outcome of a run for the runs counter.
func runResult(err error) string {
	switch {
	case errors.Is(err, ErrUninitializedDeployment):
		return "uninitialized"
	case errors.Is(err, chains.ErrUnsupportedChain):
		return "unsupported_chain"
	case errors.Is(err, ErrNoContractsDeployed):
		return "no_contracts"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant_violation"
	default:
		return "error"
	}
}
