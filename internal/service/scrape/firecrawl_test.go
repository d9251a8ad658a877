package scrape

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestScrapeViaAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		var req scrapeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.URL != "https://news.example/a" || !req.OnlyMainContent {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"markdown":"# Rates\nCBE held rates."}}`))
	}))
	defer srv.Close()

	text, err := New(srv.URL, "key").Scrape(context.Background(), "https://news.example/a")
	if err != nil || !strings.Contains(text, "CBE held rates.") {
		t.Fatalf("scrape = %q, %v", text, err)
	}
}

func TestScrapeFallsBackToDirectFetch(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer api.Close()
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><nav>menu</nav><article><h1>Gold</h1><p>Gold   rose 2%.</p></article><script>x()</script></body></html>`))
	}))
	defer page.Close()

	text, err := New(api.URL, "key", WithDirectFallback(true)).Scrape(context.Background(), page.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if text != "Gold\nGold rose 2%." {
		t.Fatalf("text = %q", text)
	}

	if _, err := New(api.URL, "key").Scrape(context.Background(), page.URL); err == nil {
		t.Fatal("expected error without fallback")
	}
}

func TestExtractTextFallsBackToBody(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><div>plain   text</div><footer>f</footer></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	if got := ExtractText(doc); got != "plain text" {
		t.Fatalf("got %q", got)
	}
}
