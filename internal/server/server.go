// Package server provides the HTTP server setup and wiring.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pendergraft/verifyprep/internal/abicodec"
	"github.com/pendergraft/verifyprep/internal/config"
	"github.com/pendergraft/verifyprep/internal/deployment"
	"github.com/pendergraft/verifyprep/internal/imports"
	"github.com/pendergraft/verifyprep/internal/middleware/logging"
	"github.com/pendergraft/verifyprep/internal/middleware/ratelimit"
	"github.com/pendergraft/verifyprep/internal/middleware/realip"
	"github.com/pendergraft/verifyprep/internal/middleware/security"
	"github.com/pendergraft/verifyprep/internal/observability/metrics"
	"github.com/pendergraft/verifyprep/internal/storage"
	verificationDomain "github.com/pendergraft/verifyprep/internal/verification/domain"
	verificationTransport "github.com/pendergraft/verifyprep/internal/verification/transport"
)

// Server is the HTTP server
type Server struct {
	cfg    *config.Config
	store  storage.Store
	logger *slog.Logger
	router *chi.Mux

	verificationSvc verificationTransport.Service
}

// New creates a new server reading deployments from store. The context
// bounds background work started by middleware, such as rate limiter
// eviction.
func New(ctx context.Context, cfg *config.Config, store storage.Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		router: chi.NewRouter(),
	}

	var loader deployment.Loader = store
	if n := cfg.Storage.Cache.BuildInfoEntries; n > 0 {
		cached, err := storage.NewCachingLoader(store, n)
		if err != nil {
			return nil, err
		}
		loader = cached
	}

	verifyImpl := verificationDomain.NewService(loader, store, imports.NewSolidityAnalyzer(), abicodec.New(), verificationDomain.WithLogger(logger))
	s.verificationSvc = verificationDomain.LoggingMiddleware(logger)(verifyImpl)

	s.setupMiddleware(ctx)
	s.setupRoutes()

	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// MetricsHandler returns the metrics HTTP handler for separate metrics server
func (s *Server) MetricsHandler() http.Handler {
	return metrics.Handler()
}

func (s *Server) setupMiddleware(ctx context.Context) {
	// Order matters: the client IP is needed by everything after it, and
	// malicious requests are dropped before they are counted or logged.
	s.router.Use(realip.Middleware(realip.Config{
		TrustProxy:     s.cfg.Proxy.TrustProxy,
		TrustedProxies: s.cfg.Proxy.TrustedProxies,
	}))
	s.router.Use(security.FilterMiddleware(s.cfg.Security.FilterEnabled))
	s.router.Use(ratelimit.Middleware(ctx, ratelimit.Config{
		Enabled:        s.cfg.RateLimit.Enabled,
		RequestsPerMin: s.cfg.RateLimit.RequestsPerMin,
		BurstSize:      s.cfg.RateLimit.BurstSize,
		CleanupMinutes: s.cfg.RateLimit.CleanupMinutes,
	}))

	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)
	// NDJSON is not in the default compressible types, so verification
	// streams pass through and keep flushing line by line.
	s.router.Use(middleware.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(time.Duration(s.cfg.Server.RequestTimeout) * time.Second))
	}

	// CORS
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)

	if metrics.Enabled() {
		s.router.Handle("/metrics", metrics.Handler())
	}

	verificationHandler := verificationTransport.NewHandler(s.verificationSvc, verificationTransport.Options{
		CustomChains:              s.cfg.Verification.CustomChains,
		IncludeUnrelatedContracts: s.cfg.Verification.IncludeUnrelatedContracts,
	}, s.logger)

	s.router.Route("/api/v1", func(r chi.Router) {
		verificationHandler.RegisterRoutes(r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready once the deployment store can be listed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.store.ListDeployments(ctx); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
