package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"FinAdvisor/internal/domain/service"
	"FinAdvisor/pkg/cache"
)

func TestGoogleSearcherParsesItems(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("key") != "k" || q.Get("cx") != "cx1" || q.Get("q") != "egypt funds" || q.Get("num") != "5" {
			t.Errorf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"title":"Fund A","link":"https://a.example","snippet":"s","displayLink":"a.example"}]}`))
	}))
	defer srv.Close()

	mem := cache.NewMemoryCache()
	defer mem.Close()
	s := NewGoogleSearcher(srv.URL, "k", "cx1", WithCache(mem, time.Minute))

	for i := 0; i < 2; i++ {
		hits, err := s.Search(context.Background(), service.SearchRequest{Query: "egypt funds", ResultCount: 5})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(hits) != 1 || hits[0].DisplaySource != "a.example" || hits[0].Link != "https://a.example" {
			t.Fatalf("hits = %+v", hits)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected cached second call, got %d requests", calls.Load())
	}
}

func TestGoogleSearcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	if _, err := NewGoogleSearcher(srv.URL, "k", "cx").Search(context.Background(), service.SearchRequest{Query: "x"}); err == nil {
		t.Fatal("expected error on 403")
	}
	if _, err := NewGoogleSearcher(srv.URL, "", "").Search(context.Background(), service.SearchRequest{Query: "x"}); err == nil {
		t.Fatal("expected error without credentials")
	}
}
