package currency

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/repository"
	"FinAdvisor/pkg/cache"
)

type rateTable struct {
	rows  []repository.Row
	err   error
	calls int
}

func (r *rateTable) Select(_ context.Context, table string, _ repository.Query) ([]repository.Row, error) {
	r.calls++
	if table != repository.TableCurrencyRates {
		return nil, repository.ErrUnknownTable
	}
	return r.rows, r.err
}

func TestRateBookLoadsAndReusesGraph(t *testing.T) {
	tbl := &rateTable{rows: []repository.Row{
		{"base_currency": "USD", "target_currency": "EGP", "rate": 48.5},
		{"from_currency": "eur", "to_currency": "usd", "exchange_rate": "1.08"},
		{"base_currency": "USD", "rate": 1.0},
	}}
	book := NewRateBook(tbl, WithRateTTL(time.Minute))

	g, err := book.Graph(context.Background())
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("len = %d", g.Len())
	}
	if c := g.Exchange(1, "EUR", "EGP"); c.Path != models.PathPivot {
		t.Fatalf("unexpected %+v", c)
	}

	_, _ = book.Graph(context.Background())
	if tbl.calls != 1 {
		t.Fatalf("expected cached graph, reader calls = %d", tbl.calls)
	}
}

func TestRateBookInvalidateReloads(t *testing.T) {
	ctx := context.Background()
	mc := cache.NewMemoryCache()
	defer mc.Close()

	tbl := &rateTable{rows: []repository.Row{{"base_currency": "USD", "target_currency": "EGP", "rate": 48.5}}}
	book := NewRateBook(tbl, WithRateCache(mc))
	_, _ = book.Graph(ctx)

	tbl.rows = []repository.Row{{"base_currency": "USD", "target_currency": "EGP", "rate": 50.0}}
	book.Invalidate(ctx)
	g, err := book.Graph(ctx)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if r, _ := g.Rate("USD", "EGP"); r != 50 {
		t.Fatalf("rate = %v", r)
	}
	if tbl.calls != 2 {
		t.Fatalf("reader calls = %d", tbl.calls)
	}
}

func TestRateBookKeepsPreviousGraphOnError(t *testing.T) {
	ctx := context.Background()
	tbl := &rateTable{rows: []repository.Row{{"base_currency": "USD", "target_currency": "EGP", "rate": 48.5}}}
	book := NewRateBook(tbl)
	_, _ = book.Graph(ctx)

	tbl.err = errors.New("db down")
	book.Invalidate(ctx)
	g, err := book.Graph(ctx)
	if err == nil {
		t.Fatalf("expected error")
	}
	if r, ok := g.Rate("USD", "EGP"); !ok || r != 48.5 {
		t.Fatalf("previous graph lost: %v %v", r, ok)
	}
}

func TestRateBookEmptyGraphWhenFirstLoadFails(t *testing.T) {
	book := NewRateBook(&rateTable{err: errors.New("db down")})
	g, err := book.Graph(context.Background())
	if err == nil || g == nil || g.Len() != 0 {
		t.Fatalf("expected empty graph and error, got %v %v", g, err)
	}
}

func TestRateBookApplyMergesPushedRates(t *testing.T) {
	ctx := context.Background()
	book := NewRateBook(&rateTable{rows: []repository.Row{{"base_currency": "USD", "target_currency": "EGP", "rate": 48.5}}})
	_, _ = book.Graph(ctx)

	book.Apply([]models.CurrencyRate{{Base: "USD", Target: "SAR", Rate: 3.75, ObservedAt: time.Now()}})
	g, _ := book.Graph(ctx)
	if g.Len() != 2 {
		t.Fatalf("len = %d", g.Len())
	}
}
