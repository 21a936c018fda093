// Command server starts the passage analytics HTTP service.
//
// The service fetches passages from an external text source via
// POST /api/v1/passages/fetch, persists them to PostgreSQL, maintains a
// word-frequency table, indexes passages into Elasticsearch, and serves
// GET /api/v1/dictionary and POST /api/v1/search on top of that data.
// Health probes live at GET /health and GET /health/ready.
//
// Usage:
//
//	go run ./cmd/server [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/backfill"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/cache"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/dictapi"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/dictionary"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/ingest"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/search"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/searchindex"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/server"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/store"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/textsource"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/config"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/health"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/kafka"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/logger"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/metrics"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/postgres"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/redis"
)

// main loads configuration, connects PostgreSQL, Redis, Elasticsearch, and
// Kafka, wires the ingestion pipeline and the two resolvers, and starts
// the HTTP server. Graceful shutdown is triggered by SIGINT/SIGTERM. Redis
// being down does not prevent startup; the caches degrade to misses.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting server", "port", cfg.Server.Port)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgres")

	esIndex, err := searchindex.New(cfg.Elasticsearch, cfg.Search)
	if err != nil {
		slog.Error("failed to create elasticsearch client", "error", err)
		os.Exit(1)
	}
	slog.Info("elasticsearch client initialized", "index", cfg.Elasticsearch.Index)

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, caches degrade to misses", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		slog.Info("connected to redis")
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexBackfill)
	defer producer.Close()
	slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.IndexBackfill)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	queue := backfill.NewQueue(producer, 50, 5*time.Second)
	queue.Start(ctx)
	defer queue.Close()

	var appCache *cache.Cache
	if redisClient != nil {
		appCache = cache.New(redisClient, cfg.Redis)
	}

	st := store.New(db)
	source := textsource.New(cfg.TextSource)
	defs := dictapi.New(cfg.Dictionary)

	// Without Redis the dictionary resolver runs against a pass-through
	// cache: every ranking read computes from the store, every definition
	// read misses.
	var rankingCache ingest.RankingCache
	var dictCache dictionary.Cache = passthroughCache{}
	var invalidator server.RankingInvalidator
	if appCache != nil {
		rankingCache = appCache
		dictCache = appCache
		invalidator = appCache
	}

	pipeline := ingest.New(source, st, esIndex, rankingCache, queue, cfg.Dictionary.TopN, m)
	dictResolver := dictionary.New(st, dictCache, defs, cfg.Dictionary.TopN, m)
	searchResolver := search.New(esIndex, st, cfg.Search.PageSize, m)

	checker := health.NewChecker()
	checker.Register("postgres", pingCheck(db.Ping))
	checker.Register("elasticsearch", pingCheck(esIndex.Ping))
	if redisClient != nil {
		checker.Register("redis", degradedCheck(redisClient.Ping))
	}
	checker.Register("backfill-queue", func(ctx context.Context) health.ComponentHealth {
		depth := queue.BufferLen()
		if depth >= 100 {
			return health.ComponentHealth{
				Status:  health.StatusDegraded,
				Message: fmt.Sprintf("%d events awaiting flush", depth),
			}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := server.New(pipeline, dictResolver, searchResolver, invalidator, cfg.Dictionary.TopN)
	handler := server.Routes(h, checker, m, cfg.Server.WriteTimeout)

	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// pingCheck adapts a Ping method to a health.Check where failure means down.
func pingCheck(ping func(context.Context) error) health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		if err := ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	}
}

// degradedCheck adapts a Ping method for dependencies the service can run
// without.
func degradedCheck(ping func(context.Context) error) health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		if err := ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	}
}

// passthroughCache satisfies the dictionary cache port when Redis is not
// available: reads always miss and writes are dropped.
type passthroughCache struct{}

func (passthroughCache) RankingOrCompute(ctx context.Context, compute func() ([]passage.WordCount, error)) ([]passage.WordCount, bool, error) {
	ranking, err := compute()
	return ranking, false, err
}

func (passthroughCache) Definition(ctx context.Context, word string) (string, bool) {
	return "", false
}

func (passthroughCache) SetDefinition(ctx context.Context, word, definition string) {}
