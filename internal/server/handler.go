// Package server exposes the resolvers over HTTP. Routing and validation
// live here; all domain behaviour is behind the resolver interfaces.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/search"
	apperrors "github.com/subarna-sahoo/portcast-project-assignment/pkg/errors"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/logger"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/tracing"
)

// Ingester runs one ingestion cycle.
type Ingester interface {
	Ingest(ctx context.Context) (passage.Passage, error)
}

// Dictionary answers top-N definitions.
type Dictionary interface {
	TopDefinitions(ctx context.Context, n int) ([]passage.WordDefinition, error)
}

// Searcher answers ranked multi-term queries.
type Searcher interface {
	Search(ctx context.Context, words []string, operator string) (search.Result, error)
}

// RankingInvalidator drops the ranking cache snapshot on demand.
type RankingInvalidator interface {
	InvalidateRanking(ctx context.Context) error
}

// Handler holds the HTTP endpoints.
type Handler struct {
	ingester    Ingester
	dictionary  Dictionary
	searcher    Searcher
	cache       RankingInvalidator
	defaultTopN int
	logger      *slog.Logger
}

// New wires a Handler. cache may be nil, which disables the invalidation
// endpoint.
func New(ingester Ingester, dictionary Dictionary, searcher Searcher, cache RankingInvalidator, defaultTopN int) *Handler {
	if defaultTopN <= 0 {
		defaultTopN = 10
	}
	return &Handler{
		ingester:    ingester,
		dictionary:  dictionary,
		searcher:    searcher,
		cache:       cache,
		defaultTopN: defaultTopN,
		logger:      slog.Default().With("component", "http-handler"),
	}
}

// Ingest handles POST /api/v1/passages/fetch: pull one passage from the
// text source and run it through the pipeline.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "ingest", logger.RequestID(r.Context()))
	defer func() { span.End(); span.Log() }()
	log := logger.FromContext(ctx)

	p, err := h.ingester.Ingest(ctx)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("ingestion failed", "error", err, "status_code", status)
		h.writeError(w, status, "ingestion failed")
		return
	}
	span.SetAttr("passage_id", p.ID)
	log.Info("passage ingested", "passage_id", p.ID)
	h.writeJSON(w, http.StatusCreated, p)
}

// Dictionary handles GET /api/v1/dictionary?limit=N.
func (h *Handler) Dictionary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "dictionary", logger.RequestID(r.Context()))
	defer func() { span.End(); span.Log() }()
	log := logger.FromContext(ctx)

	n := h.defaultTopN
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		n = parsed
	}

	resolveCtx, resolveSpan := tracing.StartChildSpan(ctx, "resolve-definitions")
	definitions, err := h.dictionary.TopDefinitions(resolveCtx, n)
	resolveSpan.End()
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("dictionary resolution failed", "error", err, "status_code", status)
		h.writeError(w, status, "dictionary resolution failed")
		return
	}
	span.SetAttr("entries", len(definitions))
	h.writeJSON(w, http.StatusOK, map[string]any{"definitions": definitions})
}

// searchRequest is the JSON body accepted by the search endpoint.
type searchRequest struct {
	Words    []string `json:"words"`
	Operator string   `json:"operator"`
}

// Search handles POST /api/v1/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "search", logger.RequestID(r.Context()))
	defer func() { span.End(); span.Log() }()
	log := logger.FromContext(ctx)

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resolveCtx, resolveSpan := tracing.StartChildSpan(ctx, "resolve-search")
	result, err := h.searcher.Search(resolveCtx, req.Words, req.Operator)
	resolveSpan.End()
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			log.Error("search failed", "error", err, "status_code", status)
		}
		h.writeError(w, status, err.Error())
		return
	}
	span.SetAttr("total", result.Total)
	h.writeJSON(w, http.StatusOK, result)
}

// InvalidateRanking handles POST /api/v1/cache/invalidate.
func (h *Handler) InvalidateRanking(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.InvalidateRanking(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
