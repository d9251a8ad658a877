package tools

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/service"
)

type fakeSearcher struct {
	hits    map[string][]service.SearchHit
	err     error
	queries []string
	mu      sync.Mutex
}

func (f *fakeSearcher) Search(_ context.Context, req service.SearchRequest) ([]service.SearchHit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, req.Query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.hits[req.Query], nil
}

type fakeScraper struct {
	pages map[string]string
}

func (f fakeScraper) Scrape(_ context.Context, url string) (string, error) {
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return "", errors.New("blocked")
}

type fakeNews struct {
	items []service.NewsItem
	err   error
}

func (f fakeNews) Fetch(context.Context, string) ([]service.NewsItem, error) { return f.items, f.err }

func TestDeriveQueries(t *testing.T) {
	cases := map[string]string{
		"Egyptian bank investment funds": "Egyptian bank investment funds Egypt banks current rates",
		"latest news on EGX":             "latest news on EGX latest news Egypt",
		"is gold a hedge":                "is gold a hedge Egypt market",
	}
	for msg, want := range cases {
		q := DeriveQueries(msg)
		if len(q) != 2 || q[0] != want || q[1] != msg {
			t.Errorf("%q: queries = %v", msg, q)
		}
	}
}

func TestWebSearchNoResultsFails(t *testing.T) {
	res := NewExecutor(NewRegistry(NewWebSearchTool(&fakeSearcher{}, nil))).
		Execute(context.Background(), []models.ToolName{models.ToolWebSearch}, Input{Message: "Egyptian bank investment funds"})
	if !res.Failed(models.ToolWebSearch) {
		t.Fatalf("expected failure, got %+v", res[models.ToolWebSearch])
	}
}

func TestWebSearchDedupesAndScrapesNews(t *testing.T) {
	msg := "latest news on EGX"
	q := DeriveQueries(msg)
	searcher := &fakeSearcher{hits: map[string][]service.SearchHit{
		q[0]: {
			{Title: "EGX rallies", Link: "https://a.example/1", Snippet: "EGX30 stocks up on interest rate cut", DisplaySource: "a.example"},
			{Title: "Gold steady", Link: "https://b.example/2", Snippet: "gold flat", DisplaySource: "b.example"},
		},
		q[1]: {
			{Title: "EGX rallies again", Link: "https://a.example/1"},
			{Title: "Third", Link: "https://c.example/3"},
		},
	}}
	scraper := fakeScraper{pages: map[string]string{"https://a.example/1": "  full   article text "}}

	out, err := NewWebSearchTool(searcher, scraper).Run(context.Background(), Input{Message: msg})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	p := out.(models.WebSearchPayload)
	if len(p.Results) != 3 || len(p.Sources) != 3 {
		t.Fatalf("results = %+v", p.Results)
	}
	if p.Results[0].Content != "full article text" || p.Results[1].Content != "" {
		t.Fatalf("scrape enrichment wrong: %+v", p.Results)
	}
	if p.Results[0].Title != "EGX rallies" {
		t.Fatalf("first title should win, got %q", p.Results[0].Title)
	}
	topics := strings.Join(p.MarketTopics, ",")
	if !strings.Contains(topics, "stocks") || !strings.Contains(topics, "interest_rates") || !strings.Contains(topics, "gold") {
		t.Fatalf("topics = %v", p.MarketTopics)
	}
}

func TestWebSearchReportsSearchErrors(t *testing.T) {
	_, err := NewWebSearchTool(&fakeSearcher{err: errors.New("quota")}, nil).Run(context.Background(), Input{Message: "funds"})
	if err == nil || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("err = %v", err)
	}
}

func TestNewsToolSummarizes(t *testing.T) {
	pub := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var items []service.NewsItem
	for i := 0; i < 7; i++ {
		items = append(items, service.NewsItem{Title: "headline", Snippet: "details", Link: "https://n.example/" + string(rune('a'+i)), Source: "n", Published: pub})
	}
	out, err := NewNewsTool(fakeNews{items: items}).Run(context.Background(), Input{Message: "news"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	p := out.(models.NewsPayload)
	if len(p.Sources) != 5 || len(p.KeyInsights) != 5 || !p.LastUpdated.Equal(pub) {
		t.Fatalf("payload = %+v", p)
	}
	if !strings.HasPrefix(p.Summary, "Latest 5 headlines") {
		t.Fatalf("summary = %q", p.Summary)
	}
}

func TestNewsToolFailures(t *testing.T) {
	for name, f := range map[string]fakeNews{"error": {err: errors.New("rss down")}, "empty": {}} {
		if _, err := NewNewsTool(f).Run(context.Background(), Input{Message: "x"}); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
