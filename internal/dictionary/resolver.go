// Package dictionary implements the top-N frequent-words-with-definitions
// resolver. The ranking comes from an explicit fallback chain — ranking
// cache, then the durable store — and definitions from a per-word cache
// backed by the external dictionary API. Only an unreachable or empty
// store fails the request; every cache or lookup failure degrades.
package dictionary

import (
	"context"
	"log/slog"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
	apperrors "github.com/subarna-sahoo/portcast-project-assignment/pkg/errors"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/metrics"
)

// PlaceholderDefinition is surfaced when no definition can be resolved, so
// a failing lookup never drops a word from the ranking.
const PlaceholderDefinition = "Definition not found"

// maxTopN bounds the requested ranking size.
const maxTopN = 100

// Store provides the authoritative frequency ranking.
type Store interface {
	TopWords(ctx context.Context, n int) ([]passage.WordCount, error)
}

// Cache provides the derived ranking snapshot and per-word definitions.
// Implementations report any cache-layer error as a miss.
type Cache interface {
	RankingOrCompute(ctx context.Context, compute func() ([]passage.WordCount, error)) (ranking []passage.WordCount, cacheHit bool, err error)
	Definition(ctx context.Context, word string) (definition string, ok bool)
	SetDefinition(ctx context.Context, word, definition string)
}

// DefinitionSource looks up one word's definition externally.
type DefinitionSource interface {
	Lookup(ctx context.Context, word string) (string, error)
}

// Resolver answers "top n frequent words with definitions".
type Resolver struct {
	store   Store
	cache   Cache
	defs    DefinitionSource
	topN    int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New wires a Resolver. topN is the snapshot size kept in the ranking
// cache; m may be nil.
func New(store Store, cache Cache, defs DefinitionSource, topN int, m *metrics.Metrics) *Resolver {
	if topN <= 0 {
		topN = 10
	}
	return &Resolver{
		store:   store,
		cache:   cache,
		defs:    defs,
		topN:    topN,
		metrics: m,
		logger:  slog.Default().With("component", "dictionary-resolver"),
	}
}

// TopDefinitions returns at most n entries ordered by frequency descending.
// Fewer than n exist when the store holds fewer words; the result is never
// padded.
func (r *Resolver) TopDefinitions(ctx context.Context, n int) ([]passage.WordDefinition, error) {
	if n < 1 || n > maxTopN {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, 400, "n must be between 1 and %d", maxTopN)
	}

	ranking, err := r.ranking(ctx, n)
	if err != nil {
		return nil, err
	}
	if len(ranking) == 0 {
		return nil, apperrors.New(apperrors.ErrNoWords, 404, "frequency table is empty")
	}
	if len(ranking) > n {
		ranking = ranking[:n]
	}

	result := make([]passage.WordDefinition, 0, len(ranking))
	for _, wc := range ranking {
		result = append(result, passage.WordDefinition{
			Word:       wc.Word,
			Definition: r.definition(ctx, wc.Word),
			Frequency:  wc.Count,
		})
	}
	return result, nil
}

// ranking resolves the frequency ranking: cache first, durable store on
// miss or cache error. A cached snapshot smaller than n (an older, smaller
// top-N request) falls through to the store as well.
func (r *Resolver) ranking(ctx context.Context, n int) ([]passage.WordCount, error) {
	size := r.topN
	if n > size {
		size = n
	}
	ranking, cacheHit, err := r.cache.RankingOrCompute(ctx, func() ([]passage.WordCount, error) {
		return r.store.TopWords(ctx, size)
	})
	if err != nil {
		return nil, err
	}
	r.countCache("ranking", cacheHit)
	if cacheHit && len(ranking) < n {
		// The snapshot may simply be smaller than this request; only the
		// store can tell. If that read fails, the snapshot we hold is still
		// a valid (shorter) answer.
		fuller, err := r.store.TopWords(ctx, n)
		if err != nil {
			r.logger.Warn("ranking extension read failed, serving cached snapshot", "error", err)
			return ranking, nil
		}
		return fuller, nil
	}
	return ranking, nil
}

// definition resolves one word's definition through the cache and the
// external source. Lookup failures degrade to the placeholder.
func (r *Resolver) definition(ctx context.Context, word string) string {
	if def, ok := r.cache.Definition(ctx, word); ok {
		r.countCache("definition", true)
		return def
	}
	r.countCache("definition", false)

	def, err := r.defs.Lookup(ctx, word)
	if err != nil {
		r.countLookup("error")
		r.logger.Warn("definition lookup failed", "word", word, "error", err)
		return PlaceholderDefinition
	}
	if def == "" {
		r.countLookup("miss")
		return PlaceholderDefinition
	}
	r.countLookup("ok")
	r.cache.SetDefinition(ctx, word, def)
	return def
}

func (r *Resolver) countCache(cache string, hit bool) {
	if r.metrics == nil {
		return
	}
	if hit {
		r.metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		r.metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func (r *Resolver) countLookup(outcome string) {
	if r.metrics != nil {
		r.metrics.DefinitionLookupsTotal.WithLabelValues(outcome).Inc()
	}
}
