package rag

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestPineconeStoreUpsert(t *testing.T) {
	reqCh := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/vectors/upsert") {
			body, _ := io.ReadAll(r.Body)
			reqCh <- string(body)
			_, _ = w.Write([]byte(`{"upsertedCount":1}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store, err := NewPineconeStore(PineconeOptions{
		APIKey:          "test-key",
		IndexName:       "ut_index",
		VectorDimension: 2,
		DataPlaneURL:    server.URL,
		SkipIndexCheck:  true,
	})
	if err != nil {
		t.Fatalf("init store: %v", err)
	}

	item := &IndexedItem{
		ID:     "notes.txt-0-abcdef0123456789",
		Values: []float32{0.1, 0.2},
		Metadata: map[string]any{
			"source":   "docs/notes.txt",
			"chunk_id": 0,
			"text":     "hello",
		},
	}

	if err := store.Upsert(context.Background(), []*IndexedItem{item}, "default"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	select {
	case payload := <-reqCh:
		var body map[string]any
		_ = json.Unmarshal([]byte(payload), &body)
		vectors, _ := body["vectors"].([]any)
		if len(vectors) != 1 {
			t.Fatalf("expected 1 vector, got %d", len(vectors))
		}
		if body["namespace"] != "default" {
			t.Fatalf("expected namespace default, got %v", body["namespace"])
		}
	default:
		t.Fatalf("no request captured")
	}
}

func TestPineconeStoreUpsertDimensionMismatch(t *testing.T) {
	store, err := NewPineconeStore(PineconeOptions{
		APIKey:          "test-key",
		VectorDimension: 4,
		DataPlaneURL:    "https://example.invalid",
		SkipIndexCheck:  true,
	})
	if err != nil {
		t.Fatalf("init store: %v", err)
	}

	item := &IndexedItem{ID: "x", Values: []float32{0.1, 0.2}}
	if err := store.Upsert(context.Background(), []*IndexedItem{item}, ""); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestPineconeStoreQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/query") {
			body, _ := io.ReadAll(r.Body)
			var req map[string]any
			_ = json.Unmarshal(body, &req)
			if req["includeMetadata"] != true {
				t.Errorf("expected includeMetadata true")
			}
			if req["namespace"] != "research" {
				t.Errorf("expected namespace research, got %v", req["namespace"])
			}
			_, _ = w.Write([]byte(`{"matches":[{"id":"a-0-1111","score":0.92,"metadata":{"source":"a.txt","chunk_id":0,"text":"alpha"}},{"id":"b-3-2222","score":0.41,"metadata":{"source":"b.txt","chunk_id":3,"text":"beta"}}],"namespace":"research"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store, err := NewPineconeStore(PineconeOptions{
		APIKey:          "test-key",
		VectorDimension: 2,
		DataPlaneURL:    server.URL,
		SkipIndexCheck:  true,
	})
	if err != nil {
		t.Fatalf("init store: %v", err)
	}

	matches, err := store.Query(context.Background(), []float32{0.5, 0.5}, 5, "research")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "a-0-1111" || matches[0].Score != 0.92 {
		t.Fatalf("unexpected first match: %+v", matches[0])
	}
	if matches[1].Metadata["text"] != "beta" {
		t.Fatalf("unexpected metadata: %+v", matches[1].Metadata)
	}
}

func TestPineconeStoreEnsureIndexOnce(t *testing.T) {
	var listCalls atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/indexes":
			listCalls.Add(1)
			_, _ = w.Write([]byte(`{"indexes":[{"name":"ut_index","host":"` + server.URL + `"}]}`))
		case strings.HasSuffix(r.URL.Path, "/query"):
			_, _ = w.Write([]byte(`{"matches":[]}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	store, err := NewPineconeStore(PineconeOptions{
		APIKey:          "test-key",
		IndexName:       "ut_index",
		VectorDimension: 2,
		ControlPlaneURL: server.URL,
	})
	if err != nil {
		t.Fatalf("init store: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := store.Query(context.Background(), []float32{0.1, 0.2}, 3, ""); err != nil {
			t.Fatalf("query %d: %v", i, err)
		}
	}

	if got := listCalls.Load(); got != 1 {
		t.Fatalf("expected a single list-indexes call, got %d", got)
	}
}
