// Package ingest implements the ingestion pipeline: fetch a passage from
// the external text source, persist it, count its words, index it, and
// refresh the ranking cache. The durable write is the only mandatory step;
// counting, indexing, and cache refresh degrade independently.
package ingest

import (
	"context"
	"log/slog"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/normalizer"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/metrics"
)

// TextSource fetches one raw passage. Failure is fatal for the call.
type TextSource interface {
	Fetch(ctx context.Context) (string, error)
}

// Store is the durable system of record for passages and word counts.
type Store interface {
	CreatePassage(ctx context.Context, content string) (passage.Passage, error)
	IncrementWord(ctx context.Context, word string) (int64, error)
	TopWords(ctx context.Context, n int) ([]passage.WordCount, error)
}

// Indexer makes a passage searchable. Failure during ingestion is
// degraded: the passage is already durable and becomes searchable on
// backfill.
type Indexer interface {
	IndexPassage(ctx context.Context, p passage.Passage) error
}

// RankingCache is refreshed after each ingestion so the next dictionary
// call does not serve pre-ingestion data. Best-effort; the TTL bounds
// staleness when refresh fails.
type RankingCache interface {
	SetRanking(ctx context.Context, ranking []passage.WordCount)
	InvalidateRanking(ctx context.Context) error
}

// BackfillQueue records passages whose index write failed, for later
// re-indexing.
type BackfillQueue interface {
	Enqueue(p passage.Passage)
}

// Pipeline orchestrates one ingestion per call. Safe for concurrent use:
// it holds no mutable state, and the store's atomic increment resolves
// interleaved updates to the same word.
type Pipeline struct {
	source   TextSource
	store    Store
	index    Indexer
	cache    RankingCache
	backfill BackfillQueue
	topN     int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New wires a Pipeline. index, cache, backfill, and m may be nil; the
// corresponding steps are skipped (cache/backfill) or degraded (index).
func New(source TextSource, store Store, index Indexer, cache RankingCache, backfill BackfillQueue, topN int, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		source:   source,
		store:    store,
		index:    index,
		cache:    cache,
		backfill: backfill,
		topN:     topN,
		metrics:  m,
		logger:   slog.Default().With("component", "ingest-pipeline"),
	}
}

// Ingest fetches one passage and pushes it through the pipeline. The
// returned passage has its durable identity. The durable write happens
// first; once it succeeds, no later failure can fail the call.
func (p *Pipeline) Ingest(ctx context.Context) (passage.Passage, error) {
	text, err := p.source.Fetch(ctx)
	if err != nil {
		p.countFailure("fetch")
		return passage.Passage{}, err
	}

	stored, err := p.store.CreatePassage(ctx, text)
	if err != nil {
		p.countFailure("persist")
		return passage.Passage{}, err
	}
	if p.metrics != nil {
		p.metrics.PassagesIngestedTotal.Inc()
	}

	p.incrementWords(ctx, stored)
	p.indexPassage(ctx, stored)
	p.refreshRanking(ctx, stored)

	p.logger.Info("passage ingested", "passage_id", stored.ID, "bytes", len(stored.Content))
	return stored, nil
}

// incrementWords applies one atomic increment per occurrence of each
// normalized word. Individual failures are logged and skipped; the row
// invariant (count = successful occurrences) is preserved per word.
func (p *Pipeline) incrementWords(ctx context.Context, stored passage.Passage) {
	for word, occurrences := range normalizer.Occurrences(stored.Content) {
		for n := 0; n < occurrences; n++ {
			if _, err := p.store.IncrementWord(ctx, word); err != nil {
				p.countFailure("increment")
				p.logger.Error("word increment failed", "passage_id", stored.ID, "word", word, "error", err)
				break
			}
			if p.metrics != nil {
				p.metrics.WordsIncrementedTotal.Inc()
			}
		}
	}
}

// indexPassage indexes the full passage content. On failure the passage is
// queued for backfill and ingestion still succeeds.
func (p *Pipeline) indexPassage(ctx context.Context, stored passage.Passage) {
	if p.index == nil {
		return
	}
	if err := p.index.IndexPassage(ctx, stored); err != nil {
		p.countFailure("index")
		p.logger.Error("indexing failed, queueing for backfill", "passage_id", stored.ID, "error", err)
		if p.backfill != nil {
			p.backfill.Enqueue(stored)
			if p.metrics != nil {
				p.metrics.BackfillQueuedTotal.Inc()
			}
		}
	}
}

// refreshRanking recomputes the top-N snapshot from the store so the next
// dictionary call sees this ingestion. If the recompute read fails the
// stale snapshot is dropped instead, and the TTL covers the rest.
func (p *Pipeline) refreshRanking(ctx context.Context, stored passage.Passage) {
	if p.cache == nil {
		return
	}
	ranking, err := p.store.TopWords(ctx, p.topN)
	if err != nil {
		p.countFailure("cache")
		p.logger.Error("ranking refresh read failed, invalidating", "passage_id", stored.ID, "error", err)
		if err := p.cache.InvalidateRanking(ctx); err != nil {
			p.logger.Error("ranking invalidation failed", "error", err)
		}
		return
	}
	p.cache.SetRanking(ctx, ranking)
}

func (p *Pipeline) countFailure(stage string) {
	if p.metrics != nil {
		p.metrics.IngestFailuresTotal.WithLabelValues(stage).Inc()
	}
}
