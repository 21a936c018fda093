// Package cache is the Redis-backed cache adapter. It holds two derived,
// disposable projections: a TTL-bound snapshot of the word-frequency
// ranking under a fixed key, and one definition per word under its own key.
// Every read classifies a connection error as a miss; the cache being down
// must never fail a request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/config"
	pkgredis "github.com/subarna-sahoo/portcast-project-assignment/pkg/redis"
)

const (
	rankingKey       = "wordfreq:ranking"
	definitionPrefix = "wordfreq:def:"
)

// Commands is the subset of the Redis client the cache uses. Satisfied by
// *pkgredis.Client and by in-memory fakes in tests.
type Commands interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Cache bundles the ranking and definition caches.
type Cache struct {
	client Commands
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
}

// New creates a Cache with the configured TTLs.
func New(client Commands, cfg config.RedisConfig) *Cache {
	return &Cache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "cache"),
	}
}

// Ranking returns the cached frequency ranking. ok is false on a miss or
// any cache error; the caller falls back to the durable store either way.
func (c *Cache) Ranking(ctx context.Context) (ranking []passage.WordCount, ok bool) {
	data, err := c.client.Get(ctx, rankingKey)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("ranking cache get failed", "error", err)
		}
		return nil, false
	}
	if err := json.Unmarshal([]byte(data), &ranking); err != nil {
		c.logger.Error("ranking cache unmarshal failed", "error", err)
		return nil, false
	}
	return ranking, true
}

// SetRanking stores a fresh ranking snapshot, best-effort.
func (c *Cache) SetRanking(ctx context.Context, ranking []passage.WordCount) {
	data, err := json.Marshal(ranking)
	if err != nil {
		c.logger.Error("ranking cache marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, rankingKey, data, c.cfg.RankingTTL); err != nil {
		c.logger.Error("ranking cache set failed", "error", err)
	}
}

// RankingOrCompute returns the cached ranking or computes and stores a
// fresh one. Concurrent recomputations of a cold key are deduplicated with
// singleflight. Errors from computeFn surface to the caller; cache errors
// never do.
func (c *Cache) RankingOrCompute(
	ctx context.Context,
	computeFn func() ([]passage.WordCount, error),
) ([]passage.WordCount, bool, error) {
	if ranking, ok := c.Ranking(ctx); ok {
		return ranking, true, nil
	}
	val, err, _ := c.group.Do(rankingKey, func() (interface{}, error) {
		if ranking, ok := c.Ranking(ctx); ok {
			return ranking, nil
		}
		ranking, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.SetRanking(ctx, ranking)
		return ranking, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]passage.WordCount), false, nil
}

// InvalidateRanking drops the ranking snapshot so the next dictionary call
// rebuilds it from the store. Best-effort: correctness rests on the TTL.
func (c *Cache) InvalidateRanking(ctx context.Context) error {
	if err := c.client.Del(ctx, rankingKey); err != nil {
		return fmt.Errorf("invalidating ranking cache: %w", err)
	}
	return nil
}

// Definition returns the cached definition for word. ok is false on a miss
// or any cache error.
func (c *Cache) Definition(ctx context.Context, word string) (definition string, ok bool) {
	data, err := c.client.Get(ctx, definitionPrefix+word)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("definition cache get failed", "word", word, "error", err)
		}
		return "", false
	}
	return data, true
}

// SetDefinition writes a definition through to the cache with its own TTL,
// best-effort.
func (c *Cache) SetDefinition(ctx context.Context, word, definition string) {
	if err := c.client.Set(ctx, definitionPrefix+word, definition, c.cfg.DefinitionTTL); err != nil {
		c.logger.Error("definition cache set failed", "word", word, "error", err)
	}
}
