package cli

import (
	"context"
	"iter"
	"log/slog"

	"github.com/pendergraft/verifyprep/internal/abicodec"
	"github.com/pendergraft/verifyprep/internal/chains"
	"github.com/pendergraft/verifyprep/internal/imports"
	"github.com/pendergraft/verifyprep/internal/storage"
	"github.com/pendergraft/verifyprep/internal/verification/domain"
	"github.com/pendergraft/verifyprep/pkg/client"
)

// backend is where commands get their data from: the deployments directory
// itself or a verifyprep server.
type backend interface {
	Prepare(ctx context.Context, deploymentID string, includeUnrelated *bool) (iter.Seq2[*client.Verification, error], error)
	Chains(ctx context.Context) ([]client.Chain, error)
	ListDeployments(ctx context.Context) ([]client.Deployment, error)
	Close() error
}

type remoteBackend struct {
	c *client.Client
}

func newRemoteBackend(url string) *remoteBackend {
	return &remoteBackend{c: client.New(url)}
}

func (b *remoteBackend) Prepare(ctx context.Context, deploymentID string, includeUnrelated *bool) (iter.Seq2[*client.Verification, error], error) {
	return b.c.PrepareVerification(ctx, deploymentID, client.PrepareOptions{IncludeUnrelated: includeUnrelated})
}

func (b *remoteBackend) Chains(ctx context.Context) ([]client.Chain, error) {
	return b.c.Chains(ctx)
}

func (b *remoteBackend) ListDeployments(ctx context.Context) ([]client.Deployment, error) {
	return b.c.ListDeployments(ctx)
}

func (b *remoteBackend) Close() error { return nil }

// localBackend runs the verification service in process.
type localBackend struct {
	store  storage.Store
	svc    domain.Service
	custom []chains.ChainConfig
}

func openLocalBackend(ctx context.Context, url string, custom []chains.ChainConfig, logger *slog.Logger) (*localBackend, error) {
	store, err := storage.OpenBlobStore(ctx, url, logger)
	if err != nil {
		return nil, err
	}
	return newLocalBackend(store, custom, logger), nil
}

func newLocalBackend(store storage.Store, custom []chains.ChainConfig, logger *slog.Logger) *localBackend {
	svc := domain.NewService(store, store, imports.NewSolidityAnalyzer(), abicodec.New(), domain.WithLogger(logger))
	return &localBackend{
		store:  store,
		svc:    domain.LoggingMiddleware(logger)(svc),
		custom: custom,
	}
}

func (b *localBackend) Prepare(ctx context.Context, deploymentID string, includeUnrelated *bool) (iter.Seq2[*client.Verification, error], error) {
	req := domain.Request{Location: deploymentID, CustomChains: b.custom}
	if includeUnrelated != nil {
		req.IncludeUnrelatedContracts = *includeUnrelated
	}

	seq, err := b.svc.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return func(yield func(*client.Verification, error) bool) {
		for res, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(toVerification(res), nil) {
				return
			}
		}
	}, nil
}

func (b *localBackend) Chains(ctx context.Context) ([]client.Chain, error) {
	effective := b.svc.Chains(b.custom)
	out := make([]client.Chain, len(effective))
	for i, c := range effective {
		out[i] = toChain(c)
	}
	return out, nil
}

func (b *localBackend) ListDeployments(ctx context.Context) ([]client.Deployment, error) {
	summaries, err := b.svc.ListDeployments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]client.Deployment, len(summaries))
	for i, s := range summaries {
		out[i] = client.Deployment{
			ID:        s.ID,
			ChainID:   s.ChainID,
			Records:   s.Records,
			Contracts: s.Contracts,
			CreatedAt: s.CreatedAt,
		}
	}
	return out, nil
}

func (b *localBackend) Close() error {
	return b.store.Close()
}

func toChain(c chains.ChainConfig) client.Chain {
	return client.Chain{
		Network: c.Network,
		ChainID: c.ChainID,
		URLs:    client.ChainURLs{APIURL: c.URLs.APIURL, BrowserURL: c.URLs.BrowserURL},
	}
}

func toVerification(res *domain.Result) *client.Verification {
	return &client.Verification{
		Chain: toChain(res.Chain),
		Info: client.VerifyInfo{
			Address:         res.Info.Address,
			CompilerVersion: res.Info.CompilerVersion,
			SourceCode:      res.Info.SourceCode,
			Name:            res.Info.Name,
			Args:            res.Info.Args,
		},
	}
}
