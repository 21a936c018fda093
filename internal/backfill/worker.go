package backfill

import (
	"context"
	"log/slog"
	"time"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/kafka"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/metrics"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/resilience"
)

// Indexer re-attempts the index write for a queued passage.
type Indexer interface {
	IndexPassage(ctx context.Context, p passage.Passage) error
}

// Worker turns backfill events back into index writes. Handler errors
// leave the message uncommitted, so delivery is at-least-once; re-indexing
// the same passage id is an idempotent overwrite.
type Worker struct {
	index   Indexer
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewWorker creates a Worker. m may be nil.
func NewWorker(index Indexer, m *metrics.Metrics) *Worker {
	return &Worker{
		index: index,
		retry: resilience.RetryConfig{
			MaxAttempts:  5,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     30 * time.Second,
		},
		metrics: m,
		logger:  slog.Default().With("component", "backfill-worker"),
	}
}

// Handle is the kafka.MessageHandler for the backfill topic.
func (w *Worker) Handle(ctx context.Context, key []byte, value []byte) error {
	event, err := kafka.DecodeJSON[Event](value)
	if err != nil {
		// Malformed events can never succeed; drop them instead of
		// poisoning the partition.
		w.logger.Error("dropping undecodable backfill event", "key", string(key), "error", err)
		return nil
	}

	p := passage.Passage{
		ID:        event.PassageID,
		Content:   event.Content,
		CreatedAt: event.CreatedAt,
	}
	err = resilience.Retry(ctx, "backfill-index", w.retry, func() error {
		return w.index.IndexPassage(ctx, p)
	})
	if err != nil {
		if w.metrics != nil {
			w.metrics.BackfillIndexedTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	if w.metrics != nil {
		w.metrics.BackfillIndexedTotal.WithLabelValues("ok").Inc()
	}
	w.logger.Info("passage backfilled", "passage_id", event.PassageID, "queued_at", event.QueuedAt)
	return nil
}
