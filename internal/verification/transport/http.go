// Package transport provides HTTP handlers for the verification domain.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/verifyprep/internal/chains"
	"github.com/pendergraft/verifyprep/internal/storage"
	"github.com/pendergraft/verifyprep/internal/validation"
	"github.com/pendergraft/verifyprep/internal/verification/domain"
)

// Service defines the verification service interface for HTTP transport.
type Service interface {
	Prepare(ctx context.Context, req domain.Request) (iter.Seq2[*domain.Result, error], error)
	Chains(custom []chains.ChainConfig) []chains.ChainConfig
	ListDeployments(ctx context.Context) ([]storage.Summary, error)
}

// Options are the server side defaults applied to every request.
type Options struct {
	CustomChains              []chains.ChainConfig
	IncludeUnrelatedContracts bool
}

// Handler handles HTTP requests for verification.
type Handler struct {
	svc    Service
	opts   Options
	logger *slog.Logger
}

// NewHandler creates a new verification HTTP handler.
func NewHandler(svc Service, opts Options, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, opts: opts, logger: logger}
}

// RegisterRoutes registers the verification routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chains", h.handleChains)
	r.Get("/deployments", h.handleListDeployments)
	r.Get("/deployments/{deploymentID}/verification", h.handlePrepare)
}

func (h *Handler) handleChains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ChainsResponse{Data: h.svc.Chains(h.opts.CustomChains)})
}

func (h *Handler) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.ListDeployments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list deployments")
		return
	}
	if summaries == nil {
		summaries = []storage.Summary{}
	}
	writeJSON(w, http.StatusOK, DeploymentsResponse{Data: summaries})
}

// handlePrepare streams one JSON line per prepared contract. Errors found
// before the first result get a regular error response; a failure part way
// through ends the stream with an ErrorResponse line.
func (h *Handler) handlePrepare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "deploymentID")
	if err := validation.ValidateDeploymentID(id); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DEPLOYMENT_ID", err.Error())
		return
	}

	include := h.opts.IncludeUnrelatedContracts
	if v := r.URL.Query().Get("includeUnrelated"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "includeUnrelated must be a boolean")
			return
		}
		include = parsed
	}

	seq, err := h.svc.Prepare(r.Context(), domain.Request{
		Location:                  id,
		CustomChains:              h.opts.CustomChains,
		IncludeUnrelatedContracts: include,
	})
	if err != nil {
		status, code := errorStatus(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			h.logger.Error("preparing verification failed", "deployment", id, "error", err)
			message = "Failed to prepare verification"
		}
		writeError(w, status, code, message)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for res, err := range seq {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			h.logger.Error("verification stream failed", "deployment", id, "error", err)
			_, code := errorStatus(err)
			enc.Encode(ErrorResponse{Error: ErrorDetail{Code: code, Message: err.Error()}})
			return
		}
		if err := enc.Encode(res); err != nil {
			// The client went away; stop preparing.
			return
		}
		rc.Flush()
	}
}

// errorStatus maps a domain error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUninitializedDeployment):
		return http.StatusNotFound, "DEPLOYMENT_NOT_FOUND"
	case errors.Is(err, chains.ErrUnsupportedChain):
		return http.StatusUnprocessableEntity, "UNSUPPORTED_CHAIN"
	case errors.Is(err, domain.ErrNoContractsDeployed):
		return http.StatusUnprocessableEntity, "NO_CONTRACTS_DEPLOYED"
	case errors.Is(err, storage.ErrInvalidLocation):
		return http.StatusBadRequest, "INVALID_DEPLOYMENT_ID"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
