// Command backfill consumes the index-backfill Kafka topic and retries the
// Elasticsearch writes that failed during ingestion. Messages are committed
// only after a successful index write, so delivery is at-least-once.
//
// Usage:
//
//	go run ./cmd/backfill [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/backfill"
	"github.com/subarna-sahoo/portcast-project-assignment/internal/searchindex"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/config"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/kafka"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/logger"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting backfill worker", "topic", cfg.Kafka.Topics.IndexBackfill)

	esIndex, err := searchindex.New(cfg.Elasticsearch, cfg.Search)
	if err != nil {
		slog.Error("failed to create elasticsearch client", "error", err)
		os.Exit(1)
	}
	slog.Info("elasticsearch client initialized", "index", cfg.Elasticsearch.Index)

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	worker := backfill.NewWorker(esIndex, m)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexBackfill, worker.Handle)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("backfill worker consuming", "group", cfg.Kafka.ConsumerGroup)
	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		slog.Error("consumer error", "error", err)
		os.Exit(1)
	}

	if metricsShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := metricsShutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
	slog.Info("backfill worker stopped")
}
