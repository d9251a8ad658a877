package marketdata

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/domain/service"
	"FinAdvisor/pkg/cache"
)

type fakeTables struct {
	mu    sync.Mutex
	rows  map[string][]repository.Row
	fail  map[string]bool
	reads map[string]int
}

func newFakeTables() *fakeTables {
	return &fakeTables{rows: map[string][]repository.Row{}, fail: map[string]bool{}, reads: map[string]int{}}
}

func (f *fakeTables) Select(_ context.Context, table string, q repository.Query) ([]repository.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[table]++
	if f.fail[table] {
		return nil, errors.New("connection reset")
	}
	rows := f.rows[table]
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

type fakeQuotes struct{ calls int }

func (f *fakeQuotes) Quotes(_ context.Context, symbols []string) ([]service.Quote, error) {
	f.calls++
	out := make([]service.Quote, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, service.Quote{Symbol: s, Name: s + " index", Price: 5000, ChangePercent: 0.5})
	}
	return out, nil
}

func classification(t models.QueryType, ctx ...string) models.QueryClassification {
	return models.NewClassification(t, ctx, models.PriorityMedium, models.ResponseMedium, nil)
}

func TestCategoriesRuleTable(t *testing.T) {
	rules := DefaultFetchRules("SA")

	got := Categories(rules, classification(models.QueryGeneralFinancial))
	if !slices.Equal(got, []models.MarketCategory{models.CategoryGoldPrices, models.CategoryCurrencyRates}) {
		t.Fatalf("baseline categories = %v", got)
	}

	got = Categories(rules, classification(models.QueryInvestmentAdvice, models.CtxStocks))
	if !slices.Contains(got, models.CategorySaudiStocks) || slices.Contains(got, models.CategoryEgyptStocks) {
		t.Fatalf("country stocks not selected: %v", got)
	}
	if slices.Contains(got, models.CategoryRealEstate) {
		t.Fatalf("real estate without property context: %v", got)
	}

	got = Categories(rules, classification(models.QueryGeneralFinancial, models.CtxProperty))
	if !slices.Contains(got, models.CategoryRealEstate) {
		t.Fatalf("real estate missing: %v", got)
	}

	got = Categories(DefaultFetchRules("ZZ"), classification(models.QueryMarketResearch))
	if !slices.Contains(got, models.CategoryEgyptStocks) || !slices.Contains(got, models.CategoryUSStocks) {
		t.Fatalf("fallback country not applied: %v", got)
	}
}

func TestDecodeRow(t *testing.T) {
	r, ok := DecodeRow(models.CategoryEgyptStocks, repository.Row{"symbol": "comi", "name": "CIB", "price": "82.5", "change_percent": 1.2})
	if !ok {
		t.Fatal("stock row rejected")
	}
	s := r.(models.StockRow)
	if s.Symbol != "COMI" || s.Price != 82.5 || s.Currency != "EGP" {
		t.Fatalf("stock = %+v", s)
	}
	if pct, ok := s.ChangePercent.Get(); !ok || pct != 1.2 {
		t.Fatalf("change percent = %v %v", pct, ok)
	}
	if s.Volume.IsSome() {
		t.Fatal("missing volume must be absent")
	}

	if _, ok := DecodeRow(models.CategoryEgyptStocks, repository.Row{"symbol": "X"}); ok {
		t.Fatal("row without price accepted")
	}

	rate, ok := DecodeRow(models.CategoryCurrencyRates, repository.Row{"from_currency": "usd", "to_currency": "egp", "exchange_rate": 48.5})
	if !ok || rate.Label() != "USD/EGP" {
		t.Fatalf("currency row = %+v %v", rate, ok)
	}
}

func TestSelectAndFetchToleratesFailures(t *testing.T) {
	tables := newFakeTables()
	tables.rows["gold_prices"] = []repository.Row{{"karat": "21", "buy_price": 3200.0, "currency": "EGP"}}
	tables.fail["currency_rates"] = true

	sel := NewSelector(tables)
	snap := sel.SelectAndFetch(context.Background(), classification(models.QueryQuickValue, models.CtxGold), "EG")

	if len(snap.Rows(models.CategoryGoldPrices)) != 1 {
		t.Fatalf("gold rows = %v", snap)
	}
	if _, ok := snap[models.CategoryCurrencyRates]; ok {
		t.Fatal("failed category must be absent")
	}
}

func TestSelectAndFetchUsesCache(t *testing.T) {
	tables := newFakeTables()
	tables.rows["gold_prices"] = []repository.Row{{"karat": "24", "price": 3600}}
	mem := cache.NewMemoryCache()
	defer mem.Close()

	sel := NewSelector(tables, WithCache(mem, 0))
	for i := 0; i < 3; i++ {
		snap := sel.SelectAndFetch(context.Background(), classification(models.QueryQuickValue), "")
		if len(snap.Rows(models.CategoryGoldPrices)) != 1 {
			t.Fatalf("iteration %d: gold rows missing", i)
		}
	}
	if tables.reads["gold_prices"] != 1 {
		t.Fatalf("gold table read %d times", tables.reads["gold_prices"])
	}
}

func TestSelectAndFetchFallsBackToLiveQuotes(t *testing.T) {
	q := &fakeQuotes{}
	sel := NewSelector(newFakeTables(), WithQuotes(q, []string{"^GSPC"}, nil))
	snap := sel.SelectAndFetch(context.Background(), classification(models.QueryGeneralFinancial, models.CtxIndices), "EG")

	rows := snap.Rows(models.CategoryGlobalIndices)
	if len(rows) != 1 || q.calls != 1 {
		t.Fatalf("live rows = %v calls = %d", rows, q.calls)
	}
	if rows[0].(models.IndexRow).Value != 5000 {
		t.Fatalf("index row = %+v", rows[0])
	}
}

func testSnapshot() models.MarketSnapshot {
	return models.MarketSnapshot{
		models.CategoryGoldPrices: {
			models.GoldRow{Karat: "21", BuyPrice: 3200, Currency: "EGP", Unit: "gram"},
			models.GoldRow{Karat: "24", BuyPrice: 3650, SellPrice: models.Some(3600.0), Currency: "EGP", Unit: "gram"},
		},
		models.CategoryCurrencyRates: {models.CurrencyRow{Base: "USD", Target: "EGP", Rate: 48.5}},
		models.CategoryRealEstate: {
			models.RealEstateRow{City: "Cairo", Area: "New Cairo", PropertyType: "apartment", PricePerMeter: 45000, Currency: "EGP"},
		},
	}
}

func TestSummarizeMatchesMessageCategories(t *testing.T) {
	out := Summarize("كم سعر الذهب عيار 21؟", testSnapshot(), 0)
	if !strings.Contains(out, "أسعار الذهب") || !strings.Contains(out, "21: buy") {
		t.Fatalf("gold block missing:\n%s", out)
	}
	if strings.Contains(out, "USD") || strings.Contains(out, "Cairo") {
		t.Fatalf("unrelated categories rendered:\n%s", out)
	}

	out = Summarize("price of a 120 meter apartment in New Cairo", testSnapshot(), 0)
	if !strings.Contains(out, "Real estate") || !strings.Contains(out, "per m²") {
		t.Fatalf("real estate block missing:\n%s", out)
	}
}

func TestMatchCategoriesWholeWords(t *testing.T) {
	cases := map[string][]models.MarketCategory{
		"travel plans for europe":      nil,
		"tune the parameter please":    nil,
		"EUR to EGP today":             {models.CategoryCurrencyRates},
		"government bonds and savings": {models.CategoryBonds, models.CategoryBankProducts},
		"سعر الدولار اليوم":            {models.CategoryCurrencyRates},
		"ذهبت إلى السوق":               nil,
		"شهادات البنك الأهلي":          {models.CategoryBankProducts},
	}
	for msg, want := range cases {
		got := MatchCategories(msg)
		if len(got) != len(want) {
			t.Errorf("MatchCategories(%q) = %v, want %v", msg, got, want)
			continue
		}
		for _, c := range want {
			if !slices.Contains(got, c) {
				t.Errorf("MatchCategories(%q) = %v, missing %s", msg, got, c)
			}
		}
	}
}

func TestSummarizeOverviewAndBound(t *testing.T) {
	out := Summarize("what should I do?", testSnapshot(), 0)
	for _, want := range []string{"Gold prices", "Exchange rates", "Real estate"} {
		if !strings.Contains(out, want) {
			t.Fatalf("overview missing %q:\n%s", want, out)
		}
	}

	out = Summarize("what should I do?", testSnapshot(), 40)
	if n := utf8.RuneCountInString(out); n > 40 {
		t.Fatalf("summary has %d runes", n)
	}
	if Summarize("gold", nil, 0) != "" {
		t.Fatal("empty snapshot must render nothing")
	}
}
