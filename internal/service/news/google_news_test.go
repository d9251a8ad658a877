package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FinAdvisor/pkg/cache"
)

const feed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>results</title>
<item><title>Older headline</title><link>https://n.example/1</link>
<description>&lt;a href="x"&gt;Older&lt;/a&gt;&amp;nbsp;story</description>
<pubDate>Mon, 13 Oct 2025 08:00:00 GMT</pubDate><source url="https://a.example">Ahram</source></item>
<item><title>Newer headline</title><link>https://n.example/2</link>
<description>plain text</description>
<pubDate>Tue, 14 Oct 2025 09:30:00 GMT</pubDate><source url="https://b.example">Reuters</source></item>
<item><title></title><link>https://n.example/3</link></item>
</channel></rss>`

func TestFetchParsesFeed(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		q := r.URL.Query()
		if q.Get("q") != "gold price" || q.Get("hl") != "en" || q.Get("gl") != "EG" || q.Get("ceid") != "EG:en" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	g := NewGoogleNews(srv.URL, WithLocale("en", "eg"), WithCache(cache.NewMemoryCache(), time.Minute))
	items, err := g.Fetch(context.Background(), "gold price")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}
	if items[0].Title != "Newer headline" || items[0].Source != "Reuters" {
		t.Fatalf("first = %+v", items[0])
	}
	if items[1].Snippet != "Older story" {
		t.Fatalf("snippet = %q", items[1].Snippet)
	}
	if items[0].Published.Day() != 14 {
		t.Fatalf("published = %v", items[0].Published)
	}

	if _, err := g.Fetch(context.Background(), "gold price"); err != nil || hits != 1 {
		t.Fatalf("expected cached second fetch, hits=%d err=%v", hits, err)
	}
}

func TestFetchLimitsItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	items, err := NewGoogleNews(srv.URL, WithMaxItems(1)).Fetch(context.Background(), "egypt")
	if err != nil || len(items) != 1 {
		t.Fatalf("items = %v, %v", items, err)
	}
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGoogleNews(srv.URL)
	if _, err := g.Fetch(context.Background(), "egypt"); err == nil {
		t.Fatal("expected status error")
	}
	if _, err := g.Fetch(context.Background(), "  "); err == nil {
		t.Fatal("expected empty query error")
	}
}
