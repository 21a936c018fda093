// Package search implements the multi-term passage search resolver. It
// validates the operator, delegates the ranked boolean query to the search
// index, and hydrates the hits from the durable store in the index's
// order. The resolver never re-ranks: relevance order is the index's
// verdict and is preserved verbatim.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
	apperrors "github.com/subarna-sahoo/portcast-project-assignment/pkg/errors"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/metrics"
)

// Index runs ranked boolean queries. Unreachability is fatal here: no
// fallback source can rank full text.
type Index interface {
	Query(ctx context.Context, words []string, op passage.Operator) (hits []passage.Hit, total int64, err error)
}

// Store hydrates passages for the returned hits.
type Store interface {
	PassagesByID(ctx context.Context, ids []int64) ([]passage.Passage, error)
}

// Result is a ranked, bounded page of passages plus the index's full match
// count.
type Result struct {
	Passages []passage.Passage `json:"passages"`
	Total    int64             `json:"total"`
}

// Resolver answers multi-term boolean queries.
type Resolver struct {
	index    Index
	store    Store
	pageSize int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New wires a Resolver; pageSize caps results (policy: 10). m may be nil.
func New(index Index, store Store, pageSize int, m *metrics.Metrics) *Resolver {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Resolver{
		index:    index,
		store:    store,
		pageSize: pageSize,
		metrics:  m,
		logger:   slog.Default().With("component", "search-resolver"),
	}
}

// Search validates the request and returns the first pageSize matches in
// index relevance order. An empty or blank word list is rejected before
// any I/O: the index cannot evaluate a query with zero clauses, and
// surfacing its error for that case would misclassify a client mistake.
func (r *Resolver) Search(ctx context.Context, words []string, operator string) (Result, error) {
	op, ok := passage.ParseOperator(operator)
	if !ok {
		return Result{}, apperrors.Newf(apperrors.ErrInvalidInput, 400, "operator must be AND or OR, got %q", operator)
	}

	terms := make([]string, 0, len(words))
	for _, w := range words {
		if trimmed := strings.TrimSpace(w); trimmed != "" {
			terms = append(terms, trimmed)
		}
	}
	if len(terms) == 0 {
		return Result{}, apperrors.New(apperrors.ErrInvalidInput, 400, "words must contain at least one non-empty term")
	}

	start := time.Now()
	hits, total, err := r.index.Query(ctx, terms, op)
	if err != nil {
		r.countQuery(op, "error")
		return Result{}, err
	}
	if r.metrics != nil {
		r.metrics.SearchLatency.Observe(time.Since(start).Seconds())
	}

	if len(hits) > r.pageSize {
		hits = hits[:r.pageSize]
	}
	ids := make([]int64, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}

	passages, err := r.store.PassagesByID(ctx, ids)
	if err != nil {
		r.countQuery(op, "error")
		return Result{}, err
	}

	outcome := "ok"
	if total == 0 {
		outcome = "zero_results"
	}
	r.countQuery(op, outcome)
	r.logger.Info("search completed",
		"terms", terms,
		"operator", op,
		"total", total,
		"returned", len(passages),
	)
	return Result{Passages: passages, Total: total}, nil
}

func (r *Resolver) countQuery(op passage.Operator, outcome string) {
	if r.metrics != nil {
		r.metrics.SearchQueriesTotal.WithLabelValues(string(op), outcome).Inc()
	}
}
