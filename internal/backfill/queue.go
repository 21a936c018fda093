// Package backfill gives failed index writes a second life. The ingestion
// pipeline enqueues passages whose index write failed; the queue batches
// them to a Kafka topic, and the worker consumes that topic and retries
// the index write until it lands (at-least-once).
package backfill

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/kafka"
)

// Event is the Kafka payload for one passage awaiting indexing.
type Event struct {
	PassageID int64     `json:"passage_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	QueuedAt  time.Time `json:"queued_at"`
}

// Publisher is the slice of the Kafka producer the queue needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Queue accumulates backfill events and flushes them to Kafka either when
// the buffer reaches batchSize or after flushInterval, whichever first.
type Queue struct {
	producer      Publisher
	mu            sync.Mutex
	buffer        []kafka.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
}

// NewQueue creates a Queue. Zero values fall back to a batch of 50 and a
// 5s interval.
func NewQueue(producer Publisher, batchSize int, flushInterval time.Duration) *Queue {
	if batchSize <= 0 {
		batchSize = 50
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Queue{
		producer:      producer,
		buffer:        make([]kafka.Event, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "backfill-queue"),
		done:          make(chan struct{}),
	}
}

// Start launches the background flush loop, which runs until ctx is
// cancelled and then performs a final flush.
func (q *Queue) Start(ctx context.Context) {
	go func() {
		defer close(q.done)
		ticker := time.NewTicker(q.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				q.flush(ctx)
			case <-ctx.Done():
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				q.flush(flushCtx)
				cancel()
				return
			}
		}
	}()
	q.logger.Info("backfill queue started",
		"batch_size", q.batchSize,
		"flush_interval", q.flushInterval,
	)
}

// Enqueue buffers one passage for re-indexing. A full buffer triggers an
// immediate flush.
func (q *Queue) Enqueue(p passage.Passage) {
	event := kafka.Event{
		Key: strconv.FormatInt(p.ID, 10),
		Value: Event{
			PassageID: p.ID,
			Content:   p.Content,
			CreatedAt: p.CreatedAt,
			QueuedAt:  time.Now().UTC(),
		},
	}
	q.mu.Lock()
	q.buffer = append(q.buffer, event)
	shouldFlush := len(q.buffer) >= q.batchSize
	q.mu.Unlock()

	if shouldFlush {
		go q.flush(context.Background())
	}
}

// Close waits for the background flush loop to finish.
func (q *Queue) Close() {
	<-q.done
}

// BufferLen returns the current number of buffered events.
func (q *Queue) BufferLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buffer)
}

func (q *Queue) flush(ctx context.Context) {
	q.mu.Lock()
	if len(q.buffer) == 0 {
		q.mu.Unlock()
		return
	}
	batch := q.buffer
	q.buffer = make([]kafka.Event, 0, q.batchSize)
	q.mu.Unlock()

	if err := q.producer.PublishBatch(ctx, batch); err != nil {
		q.logger.Error("backfill flush failed",
			"batch_size", len(batch),
			"error", err,
		)
		// Requeue so the passages are not lost; cap the buffer so a dead
		// broker cannot grow it without bound.
		q.mu.Lock()
		q.buffer = append(batch, q.buffer...)
		if len(q.buffer) > q.batchSize*3 {
			dropped := len(q.buffer) - q.batchSize*3
			q.buffer = q.buffer[:q.batchSize*3]
			q.logger.Warn("backfill buffer overflow, events dropped", "dropped", dropped)
		}
		q.mu.Unlock()
		return
	}
	q.logger.Debug("backfill batch flushed", "events", len(batch))
}
