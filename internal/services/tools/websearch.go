package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/service"
	xutil "FinAdvisor/pkg/util"
)

const (
	maxSearchResults = 5
	maxScraped       = 2
	maxContentRunes  = 3000
	maxQueryRunes    = 120
)

var errNoResults = errors.New("no search results")

type queryKind int

const (
	kindMarket queryKind = iota
	kindBankProduct
	kindNews
)

var (
	bankProductWords = []string{
		"bank", "certificate", "deposit", "saving", "fund", "interest rate", "account",
		"بنك", "بنوك", "شهادات", "شهادة", "ودائع", "وديعة", "صناديق", "صندوق", "فائدة", "توفير",
	}
	newsWords = []string{
		"news", "latest", "today", "recent", "this week", "announce", "headline",
		"أخبار", "اخبار", "خبر", "آخر", "اليوم", "حديث", "مؤخرا",
	}
	topicWords = map[string][]string{
		"interest_rates":   {"interest rate", "rate hike", "rate cut", "فائدة", "الفائدة"},
		"certificates":     {"certificate", "شهادات", "شهادة"},
		"investment_funds": {"fund", "صندوق", "صناديق"},
		"gold":             {"gold", "ذهب", "الذهب"},
		"stocks":           {"stock", "egx", "share", "بورصة", "أسهم", "اسهم"},
		"currency":         {"dollar", "exchange rate", "pound", "دولار", "الجنيه", "صرف"},
		"inflation":        {"inflation", "تضخم", "التضخم"},
		"real_estate":      {"real estate", "property", "عقار", "عقارات"},
	}
	topicOrder = []string{"interest_rates", "certificates", "investment_funds", "gold", "stocks", "currency", "inflation", "real_estate"}
)

// WebSearchTool searches the web for current offerings and market context.
type WebSearchTool struct {
	searcher service.WebSearcher
	scraper  service.PageScraper
}

// NewWebSearchTool creates the tool. scraper may be nil.
func NewWebSearchTool(searcher service.WebSearcher, scraper service.PageScraper) *WebSearchTool {
	return &WebSearchTool{searcher: searcher, scraper: scraper}
}

func (t *WebSearchTool) Name() models.ToolName { return models.ToolWebSearch }

func (t *WebSearchTool) Run(ctx context.Context, in Input) (any, error) {
	if t.searcher == nil {
		return nil, errors.New("web searcher not configured")
	}
	kind := classifyQuery(in.Message)
	queries := DeriveQueries(in.Message)

	var (
		results []models.WebResult
		seen    = make(map[string]bool)
		errs    []error
	)
	for _, q := range queries {
		hits, err := t.searcher.Search(ctx, service.SearchRequest{Query: q, ResultCount: maxSearchResults})
		if err != nil {
			errs = append(errs, fmt.Errorf("search %q: %w", q, err))
			continue
		}
		for _, h := range hits {
			link := strings.TrimSpace(h.Link)
			if link == "" || seen[link] {
				continue
			}
			seen[link] = true
			results = append(results, models.WebResult{
				Title:         strings.TrimSpace(h.Title),
				URL:           link,
				Snippet:       strings.TrimSpace(h.Snippet),
				DisplaySource: h.DisplaySource,
			})
		}
	}
	if len(results) == 0 {
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, errNoResults
	}
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}

	if kind == kindNews && t.scraper != nil {
		t.enrich(ctx, results)
	}
	return buildSearchPayload(queries, results, xutil.ContainsArabic(in.Message)), nil
}

// enrich fills Content for the top results. Scrape failures leave the snippet only.
func (t *WebSearchTool) enrich(ctx context.Context, results []models.WebResult) {
	n := min(maxScraped, len(results))
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := t.scraper.Scrape(ctx, results[i].URL)
			if err != nil {
				return
			}
			results[i].Content = xutil.TruncateRunes(xutil.CollapseSpaces(text), maxContentRunes)
		}()
	}
	wg.Wait()
}

// DeriveQueries builds one or two search queries for message.
func DeriveQueries(message string) []string {
	base := xutil.TruncateRunes(xutil.CollapseSpaces(message), maxQueryRunes)
	base = strings.TrimSuffix(base, "…")
	arabic := xutil.ContainsArabic(message)

	var derived string
	switch classifyQuery(message) {
	case kindBankProduct:
		if arabic {
			derived = base + " البنوك المصرية أسعار الفائدة الحالية"
		} else {
			derived = base + " Egypt banks current rates"
		}
	case kindNews:
		if arabic {
			derived = base + " آخر الأخبار مصر"
		} else {
			derived = base + " latest news Egypt"
		}
	default:
		if arabic {
			derived = base + " السوق المصري"
		} else {
			derived = base + " Egypt market"
		}
	}

	if base == "" {
		return []string{strings.TrimSpace(derived)}
	}
	return []string{derived, base}
}

func classifyQuery(message string) queryKind {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, newsWords):
		return kindNews
	case containsAny(lower, bankProductWords):
		return kindBankProduct
	default:
		return kindMarket
	}
}

func buildSearchPayload(queries []string, results []models.WebResult, arabic bool) models.WebSearchPayload {
	p := models.WebSearchPayload{
		Queries:      queries,
		Results:      results,
		KeyInsights:  make([]string, 0, len(results)),
		MarketTopics: []string{},
		Sources:      make([]models.Source, 0, len(results)),
	}

	var corpus strings.Builder
	for _, r := range results {
		p.Sources = append(p.Sources, models.Source{Title: r.Title, URL: r.URL, Publisher: r.DisplaySource})
		if r.Snippet != "" {
			p.KeyInsights = append(p.KeyInsights, xutil.TruncateRunes(r.Snippet, 200))
		}
		corpus.WriteString(strings.ToLower(r.Title + " " + r.Snippet + " "))
	}

	text := corpus.String()
	for _, topic := range topicOrder {
		if containsAny(text, topicWords[topic]) {
			p.MarketTopics = append(p.MarketTopics, topic)
		}
	}

	if arabic {
		p.Summary = fmt.Sprintf("تم العثور على %d نتائج بحث من %s", len(results), publishers(results))
	} else {
		p.Summary = fmt.Sprintf("Found %d search results from %s", len(results), publishers(results))
	}
	return p
}

func publishers(results []models.WebResult) string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range results {
		name := r.DisplaySource
		if name == "" {
			name = r.URL
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return strings.Join(out, ", ")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
