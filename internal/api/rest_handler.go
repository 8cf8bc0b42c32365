package api

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/processor"
	"customer_index/internal/repository"
	"customer_index/internal/service"
	"customer_index/pkg/logger"
	"customer_index/pkg/validator"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Querier interface {
	Query(ctx context.Context, req domain.QueryRequest) (*domain.Page, error)
}

type IndexManager interface {
	Info() service.IndexInfo
	Rebuild(ctx context.Context) (*processor.BuildResult, error)
}

type APIHandler struct {
	queries        Querier
	index          IndexManager
	logger         zerolog.Logger
	requestTimeout time.Duration
	rebuildTimeout time.Duration
}

func NewAPIHandler(queries Querier, index IndexManager, log zerolog.Logger) *APIHandler {
	return &APIHandler{
		queries:        queries,
		index:          index,
		logger:         logger.Component(log, "api"),
		requestTimeout: 30 * time.Second,
		rebuildTimeout: 10 * time.Minute,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type RebuildResponse struct {
	BuildID        string    `json:"buildId"`
	Customers      int       `json:"customers"`
	SourcesScanned int       `json:"sourcesScanned"`
	SkippedSources []string  `json:"skippedSources"`
	BuiltAt        time.Time `json:"builtAt"`
	Fingerprint    string    `json:"fingerprint"`
	DurationMs     int64     `json:"durationMs"`
}

func (h *APIHandler) CustomersHandler(w http.ResponseWriter, r *http.Request) {
	req, err := ParseQueryRequest(r.URL.Query())
	if err != nil {
		h.sendError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	page, err := h.queries.Query(ctx, req)
	if err != nil {
		h.sendError(w, err)
		return
	}

	if page.Fingerprint != "" {
		w.Header().Set("ETag", `"`+page.Fingerprint+`"`)
	}
	h.sendJSON(w, page, http.StatusOK)
}

func (h *APIHandler) IndexInfoHandler(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, h.index.Info(), http.StatusOK)
}

func (h *APIHandler) RebuildHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.rebuildTimeout)
	defer cancel()

	result, err := h.index.Rebuild(ctx)
	if err != nil {
		h.sendError(w, err)
		return
	}

	h.sendJSON(w, RebuildResponse{
		BuildID:        result.BuildID,
		Customers:      result.Index.Len(),
		SourcesScanned: result.SourcesScanned,
		SkippedSources: result.SkippedSources,
		BuiltAt:        result.Index.BuiltAt,
		Fingerprint:    result.Index.Fingerprint,
		DurationMs:     result.Duration.Milliseconds(),
	}, http.StatusOK)

	h.logger.Info().
		Str("build_id", result.BuildID).
		Int("customers", result.Index.Len()).
		Msg("Index rebuilt on request")
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	info := h.index.Info()
	status := "healthy"
	if !info.Ready {
		status = "initializing"
	}

	h.sendJSON(w, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"customers": info.Customers,
	}, http.StatusOK)
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, err error) {
	statusCode, code := classify(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})

	event := h.logger.Warn()
	if statusCode >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).
		Str("code", code).
		Int("status", statusCode).
		Msg("API error response")
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, validator.ErrInvalidQueryArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, service.ErrIndexNotInitialized):
		return http.StatusServiceUnavailable, "INDEX_NOT_READY"
	case errors.Is(err, repository.ErrMalformedRecord):
		return http.StatusInternalServerError, "MALFORMED_RECORD"
	case errors.Is(err, repository.ErrSourceNotFound):
		return http.StatusInternalServerError, "SOURCE_NOT_FOUND"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "SERVER_ERROR"
	}
}

func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customers", h.CustomersHandler)
	r.Get("/index", h.IndexInfoHandler)
	r.Post("/index/rebuild", h.RebuildHandler)
	r.Get("/api/health", h.HealthCheckHandler)
}
