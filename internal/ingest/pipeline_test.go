package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
)

type fakeSource struct {
	text string
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context) (string, error) {
	return f.text, f.err
}

type fakeStore struct {
	createErr    error
	incrementErr map[string]error
	topWordsErr  error

	created    []string
	increments map[string]int64
	topWords   []passage.WordCount
	topCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		increments:   make(map[string]int64),
		incrementErr: make(map[string]error),
	}
}

func (f *fakeStore) CreatePassage(ctx context.Context, content string) (passage.Passage, error) {
	if f.createErr != nil {
		return passage.Passage{}, f.createErr
	}
	f.created = append(f.created, content)
	return passage.Passage{ID: int64(len(f.created)), Content: content, CreatedAt: time.Now()}, nil
}

func (f *fakeStore) IncrementWord(ctx context.Context, word string) (int64, error) {
	if err := f.incrementErr[word]; err != nil {
		return 0, err
	}
	f.increments[word]++
	return f.increments[word], nil
}

func (f *fakeStore) TopWords(ctx context.Context, n int) ([]passage.WordCount, error) {
	f.topCalls++
	if f.topWordsErr != nil {
		return nil, f.topWordsErr
	}
	return f.topWords, nil
}

type fakeIndexer struct {
	err     error
	indexed []passage.Passage
}

func (f *fakeIndexer) IndexPassage(ctx context.Context, p passage.Passage) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, p)
	return nil
}

type fakeRankingCache struct {
	set         [][]passage.WordCount
	invalidated int
}

func (f *fakeRankingCache) SetRanking(ctx context.Context, ranking []passage.WordCount) {
	f.set = append(f.set, ranking)
}

func (f *fakeRankingCache) InvalidateRanking(ctx context.Context) error {
	f.invalidated++
	return nil
}

type fakeQueue struct {
	enqueued []passage.Passage
}

func (f *fakeQueue) Enqueue(p passage.Passage) {
	f.enqueued = append(f.enqueued, p)
}

func TestIngestHappyPath(t *testing.T) {
	source := &fakeSource{text: "harbor lights guide ships toward harbor"}
	store := newFakeStore()
	store.topWords = []passage.WordCount{{Word: "harbor", Count: 2}}
	index := &fakeIndexer{}
	cache := &fakeRankingCache{}
	queue := &fakeQueue{}

	p := New(source, store, index, cache, queue, 10, nil)
	stored, err := p.Ingest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ID == 0 {
		t.Error("stored passage must carry its durable id")
	}

	// One increment per occurrence: harbor twice, the rest once.
	wantCounts := map[string]int64{
		"harbor": 2,
		"lights": 1,
		"guide":  1,
		"ships":  1,
		"toward": 1,
	}
	for word, want := range wantCounts {
		if got := store.increments[word]; got != want {
			t.Errorf("increments[%q] = %d, want %d", word, got, want)
		}
	}
	if len(store.increments) != len(wantCounts) {
		t.Errorf("incremented %d distinct words, want %d: %v", len(store.increments), len(wantCounts), store.increments)
	}

	if len(index.indexed) != 1 || index.indexed[0].ID != stored.ID {
		t.Errorf("indexed = %+v, want the stored passage", index.indexed)
	}
	if len(queue.enqueued) != 0 {
		t.Errorf("nothing should be queued for backfill, got %d", len(queue.enqueued))
	}
	if len(cache.set) != 1 {
		t.Fatalf("ranking refreshed %d times, want 1", len(cache.set))
	}
	if cache.set[0][0].Word != "harbor" {
		t.Errorf("refreshed ranking = %+v", cache.set[0])
	}
}

func TestIngestFetchFailureIsFatal(t *testing.T) {
	wantErr := errors.New("text source unreachable")
	store := newFakeStore()

	p := New(&fakeSource{err: wantErr}, store, &fakeIndexer{}, &fakeRankingCache{}, &fakeQueue{}, 10, nil)
	_, err := p.Ingest(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if len(store.created) != 0 {
		t.Error("nothing may be persisted when the fetch fails")
	}
}

func TestIngestPersistFailureAbortsDownstream(t *testing.T) {
	wantErr := errors.New("store unavailable")
	store := newFakeStore()
	store.createErr = wantErr
	index := &fakeIndexer{}
	cache := &fakeRankingCache{}

	p := New(&fakeSource{text: "harbor lights"}, store, index, cache, &fakeQueue{}, 10, nil)
	_, err := p.Ingest(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if len(store.increments) != 0 {
		t.Error("no increments may run after a failed persist")
	}
	if len(index.indexed) != 0 {
		t.Error("no index write may run after a failed persist")
	}
	if len(cache.set) != 0 || cache.invalidated != 0 {
		t.Error("no cache refresh may run after a failed persist")
	}
}

func TestIngestIndexFailureDegradesAndQueues(t *testing.T) {
	store := newFakeStore()
	index := &fakeIndexer{err: errors.New("index down")}
	queue := &fakeQueue{}

	p := New(&fakeSource{text: "harbor lights guide ships"}, store, index, &fakeRankingCache{}, queue, 10, nil)
	stored, err := p.Ingest(context.Background())
	if err != nil {
		t.Fatalf("index failure must not fail ingestion: %v", err)
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0].ID != stored.ID {
		t.Errorf("enqueued = %+v, want the stored passage", queue.enqueued)
	}
}

func TestIngestIncrementFailureIsDegraded(t *testing.T) {
	store := newFakeStore()
	store.incrementErr["harbor"] = errors.New("deadlock")
	index := &fakeIndexer{}

	p := New(&fakeSource{text: "harbor lights guide ships"}, store, index, &fakeRankingCache{}, &fakeQueue{}, 10, nil)
	_, err := p.Ingest(context.Background())
	if err != nil {
		t.Fatalf("increment failure must not fail ingestion: %v", err)
	}
	if got := store.increments["lights"]; got != 1 {
		t.Errorf("other words must still be counted, increments[lights] = %d", got)
	}
	if len(index.indexed) != 1 {
		t.Error("indexing must still run after an increment failure")
	}
}

func TestIngestRankingReadFailureInvalidates(t *testing.T) {
	store := newFakeStore()
	store.topWordsErr = errors.New("store flaked")
	cache := &fakeRankingCache{}

	p := New(&fakeSource{text: "harbor lights"}, store, &fakeIndexer{}, cache, &fakeQueue{}, 10, nil)
	if _, err := p.Ingest(context.Background()); err != nil {
		t.Fatalf("ranking refresh failure must not fail ingestion: %v", err)
	}
	if len(cache.set) != 0 {
		t.Error("no snapshot may be written from a failed read")
	}
	if cache.invalidated != 1 {
		t.Errorf("invalidated = %d, want 1", cache.invalidated)
	}
}

func TestIngestNilOptionalDependencies(t *testing.T) {
	store := newFakeStore()
	p := New(&fakeSource{text: "harbor lights"}, store, nil, nil, nil, 10, nil)
	if _, err := p.Ingest(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.topCalls != 0 {
		t.Error("no ranking read without a cache")
	}
}
