package backfill

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/kafka"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (f *fakePublisher) PublishBatch(ctx context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, events)
	return nil
}

func (f *fakePublisher) published() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func testPassage(id int64) passage.Passage {
	return passage.Passage{ID: id, Content: "harbor lights", CreatedAt: time.Now().UTC()}
}

func TestQueueFlushesAtBatchSize(t *testing.T) {
	pub := &fakePublisher{}
	q := NewQueue(pub, 3, time.Hour)

	q.Enqueue(testPassage(1))
	q.Enqueue(testPassage(2))
	if pub.published() != 0 {
		t.Fatal("no flush before the batch fills")
	}
	q.Enqueue(testPassage(3))

	deadline := time.Now().Add(time.Second)
	for pub.published() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if pub.published() != 3 {
		t.Fatalf("published = %d, want 3", pub.published())
	}
	if q.BufferLen() != 0 {
		t.Errorf("buffer = %d, want 0 after flush", q.BufferLen())
	}
}

func TestQueueFinalFlushOnShutdown(t *testing.T) {
	pub := &fakePublisher{}
	q := NewQueue(pub, 50, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	q.Enqueue(testPassage(1))
	q.Enqueue(testPassage(2))

	cancel()
	q.Close()
	if pub.published() != 2 {
		t.Errorf("published = %d, want final flush of 2", pub.published())
	}
}

func TestQueueRequeuesOnPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	q := NewQueue(pub, 50, time.Hour)

	q.Enqueue(testPassage(1))
	q.flush(context.Background())
	if q.BufferLen() != 1 {
		t.Fatalf("buffer = %d, want the event requeued", q.BufferLen())
	}

	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()
	q.flush(context.Background())
	if pub.published() != 1 {
		t.Errorf("published = %d, want 1 after recovery", pub.published())
	}
}

func TestQueueEventPayload(t *testing.T) {
	pub := &fakePublisher{}
	q := NewQueue(pub, 50, time.Hour)

	p := testPassage(42)
	q.Enqueue(p)
	q.flush(context.Background())

	if len(pub.batches) != 1 || len(pub.batches[0]) != 1 {
		t.Fatalf("batches = %v", pub.batches)
	}
	event := pub.batches[0][0]
	if event.Key != "42" {
		t.Errorf("key = %q, want the passage id", event.Key)
	}
	payload, ok := event.Value.(Event)
	if !ok {
		t.Fatalf("value is %T, want Event", event.Value)
	}
	if payload.PassageID != 42 || payload.Content != p.Content {
		t.Errorf("payload = %+v", payload)
	}
	if payload.QueuedAt.IsZero() {
		t.Error("queued_at must be stamped")
	}
}

type fakeIndexer struct {
	errs    []error
	indexed []passage.Passage
}

func (f *fakeIndexer) IndexPassage(ctx context.Context, p passage.Passage) error {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.indexed = append(f.indexed, p)
	return nil
}

func encodeEvent(t *testing.T, e Event) []byte {
	t.Helper()
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestWorkerIndexesEvent(t *testing.T) {
	index := &fakeIndexer{}
	w := NewWorker(index, nil)
	w.retry.InitialDelay = time.Millisecond

	event := Event{PassageID: 7, Content: "harbor lights", CreatedAt: time.Now().UTC(), QueuedAt: time.Now().UTC()}
	if err := w.Handle(context.Background(), []byte("7"), encodeEvent(t, event)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(index.indexed) != 1 || index.indexed[0].ID != 7 {
		t.Errorf("indexed = %+v", index.indexed)
	}
}

func TestWorkerRetriesTransientFailure(t *testing.T) {
	index := &fakeIndexer{errs: []error{errors.New("blip"), errors.New("blip")}}
	w := NewWorker(index, nil)
	w.retry.InitialDelay = time.Millisecond
	w.retry.MaxDelay = 5 * time.Millisecond

	event := Event{PassageID: 7, Content: "harbor lights"}
	if err := w.Handle(context.Background(), []byte("7"), encodeEvent(t, event)); err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if len(index.indexed) != 1 {
		t.Errorf("indexed = %d, want 1", len(index.indexed))
	}
}

func TestWorkerReturnsErrorWhenRetriesExhaust(t *testing.T) {
	wantErr := errors.New("index dead")
	index := &fakeIndexer{errs: []error{wantErr, wantErr, wantErr, wantErr, wantErr}}
	w := NewWorker(index, nil)
	w.retry.MaxAttempts = 2
	w.retry.InitialDelay = time.Millisecond
	w.retry.MaxDelay = 5 * time.Millisecond

	event := Event{PassageID: 7, Content: "harbor lights"}
	err := w.Handle(context.Background(), []byte("7"), encodeEvent(t, event))
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v (message must stay uncommitted)", err, wantErr)
	}
}

func TestWorkerDropsUndecodableEvent(t *testing.T) {
	index := &fakeIndexer{}
	w := NewWorker(index, nil)

	if err := w.Handle(context.Background(), []byte("k"), []byte("{broken")); err != nil {
		t.Fatalf("undecodable events must be dropped, not retried: %v", err)
	}
	if len(index.indexed) != 0 {
		t.Error("nothing may be indexed from a broken event")
	}
}
