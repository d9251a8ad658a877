package quotes

import (
	"context"
	"errors"
	"testing"

	finance "github.com/piquette/finance-go"
)

func TestQuotesSkipsFailures(t *testing.T) {
	get := func(symbol string) (*finance.Quote, error) {
		switch symbol {
		case "^GSPC":
			return &finance.Quote{Symbol: "^GSPC", ShortName: "S&P 500", RegularMarketPrice: 5000, RegularMarketChangePercent: 1.2, CurrencyID: "usd"}, nil
		case "^DJI":
			return nil, nil
		default:
			return nil, errors.New("boom")
		}
	}
	y := NewYahoo(withGetter(get))
	out, err := y.Quotes(context.Background(), []string{"^GSPC", "^DJI", "BAD"})
	if err != nil {
		t.Fatalf("quotes: %v", err)
	}
	if len(out) != 1 || out[0].Name != "S&P 500" || out[0].Currency != "USD" {
		t.Fatalf("out = %+v", out)
	}
}

func TestQuotesAllFailed(t *testing.T) {
	y := NewYahoo(withGetter(func(string) (*finance.Quote, error) { return nil, errors.New("down") }))
	if _, err := y.Quotes(context.Background(), []string{"AAPL"}); err == nil {
		t.Fatal("expected error")
	}
	if out, err := y.Quotes(context.Background(), nil); err != nil || out != nil {
		t.Fatalf("empty symbols = %v, %v", out, err)
	}
}
