package domain

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/pendergraft/verifyprep/internal/chains"
	"github.com/pendergraft/verifyprep/internal/storage"
)

// LoggingMiddleware returns a service middleware that logs all operations.
// A Prepare call is logged once its sequence ends, with the number of
// results the consumer received.
func LoggingMiddleware(logger *slog.Logger) func(Service) Service {
	return func(next Service) Service {
		return &loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   Service
	logger *slog.Logger
}

func (m *loggingMiddleware) Prepare(ctx context.Context, req Request) (iter.Seq2[*Result, error], error) {
	start := time.Now()
	seq, err := m.next.Prepare(ctx, req)
	if err != nil {
		m.logger.Info("Prepare",
			"location", req.Location,
			"includeUnrelated", req.IncludeUnrelatedContracts,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, err
	}

	return func(yield func(*Result, error) bool) {
		var (
			count  int
			seqErr error
		)
		defer func() {
			m.logger.Info("Prepare",
				"location", req.Location,
				"includeUnrelated", req.IncludeUnrelatedContracts,
				"results", count,
				"duration", time.Since(start),
				"error", seqErr,
			)
		}()

		for res, err := range seq {
			if err != nil {
				seqErr = err
			} else {
				count++
			}
			if !yield(res, err) {
				return
			}
		}
	}, nil
}

func (m *loggingMiddleware) Chains(custom []chains.ChainConfig) []chains.ChainConfig {
	return m.next.Chains(custom)
}

func (m *loggingMiddleware) ListDeployments(ctx context.Context) ([]storage.Summary, error) {
	start := time.Now()
	summaries, err := m.next.ListDeployments(ctx)
	m.logger.Debug("ListDeployments",
		"count", len(summaries),
		"duration", time.Since(start),
		"error", err,
	)
	return summaries, err
}
