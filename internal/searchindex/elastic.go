// Package searchindex is the Elasticsearch adapter behind ingestion and
// search. Ingestion treats index failures as degraded; search treats them
// as fatal, since no fallback source exists for relevance ranking.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/config"
	apperrors "github.com/subarna-sahoo/portcast-project-assignment/pkg/errors"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/resilience"
)

// Index wraps an Elasticsearch client for one passages index.
type Index struct {
	es        *elasticsearch.Client
	index     string
	fuzziness int
	pageSize  int
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates the adapter from config. The connection is lazy; the first
// request surfaces connectivity errors.
func New(cfg config.ElasticsearchConfig, search config.SearchConfig) (*Index, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}
	return &Index{
		es:        es,
		index:     cfg.Index,
		fuzziness: search.Fuzziness,
		pageSize:  search.PageSize,
		timeout:   cfg.Timeout,
		logger:    slog.Default().With("component", "search-index"),
	}, nil
}

// indexDocument is the stored document shape.
type indexDocument struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// IndexPassage stores the full passage content under its identity.
func (i *Index) IndexPassage(ctx context.Context, p passage.Passage) error {
	body, err := json.Marshal(indexDocument{
		ID:        p.ID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshaling index document: %w", err)
	}

	err = resilience.WithTimeout(ctx, i.timeout, "index-passage", func(ctx context.Context) error {
		res, err := i.es.Index(
			i.index,
			bytes.NewReader(body),
			i.es.Index.WithDocumentID(strconv.FormatInt(p.ID, 10)),
			i.es.Index.WithContext(ctx),
		)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("%s", res.String())
		}
		return nil
	})
	if err != nil {
		return apperrors.Newf(apperrors.ErrIndexUnavailable, 503, "indexing passage %d: %v", p.ID, err)
	}
	return nil
}

// Query runs a boolean multi-term query: one fuzzy match clause per word,
// all required for AND, at least one for OR. Hits arrive in the index's
// relevance order and are returned verbatim; total is the index's match
// count, not the page length.
func (i *Index) Query(ctx context.Context, words []string, op passage.Operator) (hits []passage.Hit, total int64, err error) {
	clauses := make([]map[string]any, 0, len(words))
	for _, w := range words {
		clauses = append(clauses, map[string]any{
			"match": map[string]any{
				"content": map[string]any{
					"query":     w,
					"fuzziness": i.fuzziness,
				},
			},
		})
	}

	boolClause := map[string]any{}
	if op == passage.OperatorOr {
		boolClause["should"] = clauses
		boolClause["minimum_should_match"] = 1
	} else {
		boolClause["must"] = clauses
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]any{
		"query": map[string]any{"bool": boolClause},
	}); err != nil {
		return nil, 0, fmt.Errorf("encoding search query: %w", err)
	}

	err = resilience.WithTimeout(ctx, i.timeout, "search-query", func(ctx context.Context) error {
		res, err := i.es.Search(
			i.es.Search.WithContext(ctx),
			i.es.Search.WithIndex(i.index),
			i.es.Search.WithBody(&buf),
			i.es.Search.WithSize(i.pageSize),
			i.es.Search.WithTrackTotalHits(true),
		)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("%s", res.String())
		}
		hits, total, err = decodeHits(res.Body)
		return err
	})
	if err != nil {
		return nil, 0, apperrors.Newf(apperrors.ErrIndexUnavailable, 503, "querying index: %v", err)
	}
	return hits, total, nil
}

// searchResponse mirrors the slice of the Elasticsearch response we read.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID    string  `json:"_id"`
			Score float64 `json:"_score"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeHits(body io.Reader) ([]passage.Hit, int64, error) {
	var resp searchResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, 0, fmt.Errorf("decoding search response: %w", err)
	}
	hits := make([]passage.Hit, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("parsing hit id %q: %w", h.ID, err)
		}
		hits = append(hits, passage.Hit{ID: id, Score: h.Score})
	}
	return hits, resp.Hits.Total.Value, nil
}

// Ping checks cluster reachability for readiness probes.
func (i *Index) Ping(ctx context.Context) error {
	res, err := i.es.Ping(i.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}
