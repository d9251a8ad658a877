package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"golang.org/x/sync/errgroup"

	"FinAdvisor/internal/domain/service"
	applogger "FinAdvisor/pkg/logger"
)

type getFunc func(symbol string) (*finance.Quote, error)

// Yahoo serves live quotes from Yahoo Finance.
type Yahoo struct {
	get         getFunc
	concurrency int
	log         *applogger.Logger
}

var _ service.QuoteProvider = (*Yahoo)(nil)

type Option func(*Yahoo)

func WithConcurrency(n int) Option {
	return func(y *Yahoo) {
		if n > 0 {
			y.concurrency = n
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(y *Yahoo) { y.log = l }
}

func withGetter(get getFunc) Option {
	return func(y *Yahoo) { y.get = get }
}

func NewYahoo(opts ...Option) *Yahoo {
	y := &Yahoo{get: quote.Get, concurrency: 4}
	for _, opt := range opts {
		opt(y)
	}
	y.log = applogger.OrNop(y.log)
	return y
}

// Quotes fetches symbols concurrently. Symbols that fail are skipped; an error
// is returned only when nothing could be fetched.
func (y *Yahoo) Quotes(ctx context.Context, symbols []string) ([]service.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	results := make([]*service.Quote, len(symbols))
	errs := make([]error, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(y.concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			q, err := y.one(gctx, sym)
			if err != nil {
				errs[i] = err
				y.log.Debug("quote failed", applogger.String("symbol", sym), applogger.Error(err))
				return nil
			}
			results[i] = q
			return nil
		})
	}
	_ = g.Wait()

	out := make([]service.Quote, 0, len(symbols))
	for _, q := range results {
		if q != nil {
			out = append(out, *q)
		}
	}
	if len(out) == 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (y *Yahoo) one(ctx context.Context, symbol string) (*service.Quote, error) {
	type result struct {
		q   *finance.Quote
		err error
	}
	ch := make(chan result, 1)
	go func() {
		q, err := y.get(symbol)
		ch <- result{q, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("quote %s: %w", symbol, r.err)
		}
		if r.q == nil || r.q.RegularMarketPrice == 0 {
			return nil, fmt.Errorf("quote %s: not found", symbol)
		}
		return &service.Quote{
			Symbol:        firstNonEmpty(r.q.Symbol, symbol),
			Name:          firstNonEmpty(r.q.ShortName, symbol),
			Price:         r.q.RegularMarketPrice,
			Change:        r.q.RegularMarketChange,
			ChangePercent: r.q.RegularMarketChangePercent,
			Currency:      strings.ToUpper(r.q.CurrencyID),
		}, nil
	}
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return ""
}
