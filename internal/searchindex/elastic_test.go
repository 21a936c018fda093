package searchindex

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/subarna-sahoo/portcast-project-assignment/internal/passage"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/config"
	apperrors "github.com/subarna-sahoo/portcast-project-assignment/pkg/errors"
)

// fakeES records the last request and plays back a canned response. The
// product header satisfies the client's compatibility check.
type fakeES struct {
	srv      *httptest.Server
	lastPath string
	lastBody []byte
	status   int
	response string
	delay    time.Duration
}

func newFakeES(t *testing.T, response string) *fakeES {
	t.Helper()
	f := &fakeES{status: http.StatusOK, response: response}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lastPath = r.URL.Path
		f.lastBody, _ = io.ReadAll(r.Body)
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		w.Write([]byte(f.response))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newTestIndex(t *testing.T, es *fakeES) *Index {
	t.Helper()
	idx, err := New(
		config.ElasticsearchConfig{
			Addresses: []string{es.srv.URL},
			Index:     "passages",
			Timeout:   2 * time.Second,
		},
		config.SearchConfig{PageSize: 10, Fuzziness: 2},
	)
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}
	return idx
}

func TestIndexPassageUsesIDAsDocumentID(t *testing.T) {
	es := newFakeES(t, `{"result":"created"}`)
	idx := newTestIndex(t, es)

	p := passage.Passage{ID: 42, Content: "harbor lights", CreatedAt: time.Now().UTC()}
	if err := idx.IndexPassage(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(es.lastPath, "/passages/_doc/42") {
		t.Errorf("path = %q, want document id 42 in the passages index", es.lastPath)
	}

	var doc map[string]any
	if err := json.Unmarshal(es.lastBody, &doc); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if doc["content"] != "harbor lights" {
		t.Errorf("indexed content = %v", doc["content"])
	}
}

func TestIndexPassageErrorResponse(t *testing.T) {
	es := newFakeES(t, `{"error":{"reason":"shard failure"}}`)
	es.status = http.StatusInternalServerError
	idx := newTestIndex(t, es)

	err := idx.IndexPassage(context.Background(), passage.Passage{ID: 1, Content: "x"})
	if !errors.Is(err, apperrors.ErrIndexUnavailable) {
		t.Fatalf("err = %v, want ErrIndexUnavailable", err)
	}
}

const searchFixture = `{
	"hits": {
		"total": {"value": 15, "relation": "eq"},
		"hits": [
			{"_id": "7", "_score": 0.9},
			{"_id": "2", "_score": 0.7},
			{"_id": "9", "_score": 0.5}
		]
	}
}`

func TestQueryAndOperator(t *testing.T) {
	es := newFakeES(t, searchFixture)
	idx := newTestIndex(t, es)

	hits, total, err := idx.Query(context.Background(), []string{"harbor", "cargo"}, passage.OperatorAnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 15 {
		t.Errorf("total = %d, want 15", total)
	}
	wantIDs := []int64{7, 2, 9}
	for i, want := range wantIDs {
		if hits[i].ID != want {
			t.Errorf("hit %d id = %d, want %d", i, hits[i].ID, want)
		}
	}
	if hits[0].Score != 0.9 {
		t.Errorf("hit 0 score = %v", hits[0].Score)
	}

	boolClause := decodeBoolClause(t, es.lastBody)
	must, ok := boolClause["must"].([]any)
	if !ok {
		t.Fatalf("AND query must use must clauses, got %v", boolClause)
	}
	if len(must) != 2 {
		t.Errorf("got %d must clauses, want 2", len(must))
	}
	assertMatchClause(t, must[0], "harbor")
	assertMatchClause(t, must[1], "cargo")
	if _, hasShould := boolClause["should"]; hasShould {
		t.Error("AND query must not carry should clauses")
	}
}

func TestQueryOrOperator(t *testing.T) {
	es := newFakeES(t, searchFixture)
	idx := newTestIndex(t, es)

	if _, _, err := idx.Query(context.Background(), []string{"harbor", "cargo"}, passage.OperatorOr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	boolClause := decodeBoolClause(t, es.lastBody)
	should, ok := boolClause["should"].([]any)
	if !ok {
		t.Fatalf("OR query must use should clauses, got %v", boolClause)
	}
	if len(should) != 2 {
		t.Errorf("got %d should clauses, want 2", len(should))
	}
	if msm, ok := boolClause["minimum_should_match"].(float64); !ok || msm != 1 {
		t.Errorf("minimum_should_match = %v, want 1", boolClause["minimum_should_match"])
	}
}

func TestQueryErrorResponse(t *testing.T) {
	es := newFakeES(t, `{"error":{"reason":"index_not_found"}}`)
	es.status = http.StatusNotFound
	idx := newTestIndex(t, es)

	_, _, err := idx.Query(context.Background(), []string{"harbor"}, passage.OperatorAnd)
	if !errors.Is(err, apperrors.ErrIndexUnavailable) {
		t.Fatalf("err = %v, want ErrIndexUnavailable", err)
	}
}

func TestQueryTimeoutBudget(t *testing.T) {
	es := newFakeES(t, searchFixture)
	es.delay = 300 * time.Millisecond
	idx, err := New(
		config.ElasticsearchConfig{
			Addresses: []string{es.srv.URL},
			Index:     "passages",
			Timeout:   30 * time.Millisecond,
		},
		config.SearchConfig{PageSize: 10, Fuzziness: 2},
	)
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}

	_, _, err = idx.Query(context.Background(), []string{"harbor"}, passage.OperatorAnd)
	if !errors.Is(err, apperrors.ErrIndexUnavailable) {
		t.Fatalf("err = %v, want ErrIndexUnavailable when the budget expires", err)
	}

	err = idx.IndexPassage(context.Background(), passage.Passage{ID: 1, Content: "harbor lights"})
	if !errors.Is(err, apperrors.ErrIndexUnavailable) {
		t.Fatalf("err = %v, want ErrIndexUnavailable when the budget expires", err)
	}
}

func TestDecodeHitsBadID(t *testing.T) {
	body := strings.NewReader(`{"hits":{"total":{"value":1},"hits":[{"_id":"not-a-number","_score":1}]}}`)
	if _, _, err := decodeHits(body); err == nil {
		t.Fatal("expected error for a non-numeric hit id")
	}
}

func decodeBoolClause(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var req struct {
		Query struct {
			Bool map[string]any `json:"bool"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("search request is not JSON: %v (%s)", err, body)
	}
	if req.Query.Bool == nil {
		t.Fatalf("search request carries no bool query: %s", body)
	}
	return req.Query.Bool
}

func assertMatchClause(t *testing.T, clause any, word string) {
	t.Helper()
	m, ok := clause.(map[string]any)
	if !ok {
		t.Fatalf("clause %v is not an object", clause)
	}
	match, ok := m["match"].(map[string]any)
	if !ok {
		t.Fatalf("clause %v is not a match clause", clause)
	}
	content, ok := match["content"].(map[string]any)
	if !ok {
		t.Fatalf("match clause %v does not target content", match)
	}
	if content["query"] != word {
		t.Errorf("query = %v, want %q", content["query"], word)
	}
	if fz, ok := content["fuzziness"].(float64); !ok || fz != 2 {
		t.Errorf("fuzziness = %v, want 2", content["fuzziness"])
	}
}
