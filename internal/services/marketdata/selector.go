package marketdata

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/domain/service"
	"FinAdvisor/pkg/cache"
	applogger "FinAdvisor/pkg/logger"
)

const (
	defaultRowLimit  = 50
	defaultMaxRunes  = 6000
	defaultMarketTTL = 5 * time.Minute
	fetchConcurrency = 6
)

// Selector fetches the market categories a query needs and renders the
// ones the message asks about.
type Selector struct {
	reader       repository.TableReader
	quotes       service.QuoteProvider
	cache        cache.Service
	ttl          time.Duration
	rowLimit     int
	maxRunes     int
	indexSymbols []string
	usSymbols    []string
	rules        func(country string) []FetchRule
	metrics      repository.Metrics
	log          *applogger.Logger
}

type Option func(*Selector)

// WithCache memoizes raw table reads across requests.
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(s *Selector) {
		s.cache = c
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithQuotes enables live quotes for indices and US stocks when their tables are empty.
func WithQuotes(q service.QuoteProvider, indexSymbols, usSymbols []string) Option {
	return func(s *Selector) {
		s.quotes = q
		s.indexSymbols = indexSymbols
		s.usSymbols = usSymbols
	}
}

func WithRowLimit(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.rowLimit = n
		}
	}
}

func WithSummaryLimit(runes int) Option {
	return func(s *Selector) {
		if runes > 0 {
			s.maxRunes = runes
		}
	}
}

// WithFetchRules replaces the category table.
func WithFetchRules(rules func(country string) []FetchRule) Option {
	return func(s *Selector) {
		if rules != nil {
			s.rules = rules
		}
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(s *Selector) { s.metrics = m }
}

func WithLogger(l *applogger.Logger) Option {
	return func(s *Selector) { s.log = l }
}

func NewSelector(reader repository.TableReader, opts ...Option) *Selector {
	s := &Selector{
		reader:   reader,
		ttl:      defaultMarketTTL,
		rowLimit: defaultRowLimit,
		maxRunes: defaultMaxRunes,
		rules:    DefaultFetchRules,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = repository.OrNopMetrics(s.metrics)
	s.log = applogger.OrNop(s.log)
	return s
}

// SelectAndFetch reads every category the rule table selects, concurrently.
// A category that fails or is empty is left out of the snapshot.
func (s *Selector) SelectAndFetch(ctx context.Context, c models.QueryClassification, country string) models.MarketSnapshot {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		country = DefaultCountry
	}
	categories := Categories(s.rules(country), c)

	snap := make(models.MarketSnapshot, len(categories))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(fetchConcurrency)
	for _, cat := range categories {
		g.Go(func() error {
			rows, err := s.fetch(ctx, cat)
			s.metrics.RecordMarketFetch(string(cat), len(rows), err)
			if err != nil {
				s.log.Warn("market fetch failed",
					applogger.String("category", string(cat)),
					applogger.Error(err))
				return nil
			}
			if len(rows) == 0 {
				return nil
			}
			mu.Lock()
			snap[cat] = rows
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return snap
}

func (s *Selector) fetch(ctx context.Context, cat models.MarketCategory) ([]models.MarketRow, error) {
	var rows []models.MarketRow
	var readErr error
	if s.reader != nil {
		raw, err := s.readTable(ctx, cat)
		if err != nil {
			readErr = err
		} else {
			rows = DecodeRows(cat, raw)
		}
	}
	if len(rows) > 0 {
		return rows, nil
	}

	live, err := s.liveQuotes(ctx, cat)
	if err != nil {
		if readErr != nil {
			return nil, fmt.Errorf("%w; quotes: %v", readErr, err)
		}
		return nil, err
	}
	if len(live) == 0 && readErr != nil {
		return nil, readErr
	}
	return live, nil
}

func (s *Selector) readTable(ctx context.Context, cat models.MarketCategory) ([]repository.Row, error) {
	table := repository.MarketTable(cat)
	key := cache.GenerateKeyWithParams("market", table, s.rowLimit)
	return cache.GetOrLoad(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]repository.Row, error) {
		rows, err := s.reader.Select(ctx, table, repository.Query{Limit: s.rowLimit})
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", table, err)
		}
		return rows, nil
	})
}

func (s *Selector) liveQuotes(ctx context.Context, cat models.MarketCategory) ([]models.MarketRow, error) {
	if s.quotes == nil {
		return nil, nil
	}
	var symbols []string
	switch cat {
	case models.CategoryGlobalIndices:
		symbols = s.indexSymbols
	case models.CategoryUSStocks:
		symbols = s.usSymbols
	}
	if len(symbols) == 0 {
		return nil, nil
	}

	quotes, err := s.quotes.Quotes(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("live quotes for %s: %w", cat, err)
	}
	out := make([]models.MarketRow, 0, len(quotes))
	for _, q := range quotes {
		if cat == models.CategoryGlobalIndices {
			out = append(out, models.IndexRow{
				Symbol:        q.Symbol,
				Name:          q.Name,
				Value:         q.Price,
				Change:        models.Some(q.Change),
				ChangePercent: models.Some(q.ChangePercent),
			})
			continue
		}
		out = append(out, models.StockRow{
			Market:        cat,
			Symbol:        q.Symbol,
			Name:          q.Name,
			Price:         q.Price,
			Currency:      firstNonEmpty(q.Currency, "USD"),
			Change:        models.Some(q.Change),
			ChangePercent: models.Some(q.ChangePercent),
		})
	}
	return out, nil
}
