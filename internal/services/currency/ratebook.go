package currency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/repository"
	"FinAdvisor/pkg/cache"
	applogger "FinAdvisor/pkg/logger"
)

const ratesCacheKey = "rates:currency_rates"

// RateBook loads currency_rates through the persistence layer and keeps a
// Graph for the process. The graph is reloaded after ttl or Invalidate.
type RateBook struct {
	reader          repository.TableReader
	cache           cache.Service
	log             *applogger.Logger
	ttl             time.Duration
	defaultCurrency string
	now             func() time.Time

	mu       sync.Mutex
	graph    *Graph
	loadedAt time.Time
}

// RateBookOption configures RateBook.
type RateBookOption func(*RateBook)

// WithRateCache shares loaded rates through c.
func WithRateCache(c cache.Service) RateBookOption {
	return func(b *RateBook) { b.cache = c }
}

// WithRateTTL sets how long a built graph is reused.
func WithRateTTL(ttl time.Duration) RateBookOption {
	return func(b *RateBook) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithRateLogger sets the logger.
func WithRateLogger(l *applogger.Logger) RateBookOption {
	return func(b *RateBook) { b.log = l }
}

// WithDefaultCurrency sets the graph's default conversion target.
func WithDefaultCurrency(code string) RateBookOption {
	return func(b *RateBook) { b.defaultCurrency = code }
}

func NewRateBook(reader repository.TableReader, opts ...RateBookOption) *RateBook {
	b := &RateBook{
		reader:          reader,
		ttl:             10 * time.Minute,
		defaultCurrency: models.PivotCurrency,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = applogger.OrNop(b.log)
	return b
}

// Graph returns the current graph, loading it when stale. When a reload fails
// the previous graph is returned with the error; with no previous graph an
// empty one is returned so callers can still convert at parity.
func (b *RateBook) Graph(ctx context.Context) (*Graph, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.graph != nil && b.now().Sub(b.loadedAt) < b.ttl {
		return b.graph, nil
	}

	rates, err := cache.GetOrLoad(ctx, b.cache, ratesCacheKey, b.ttl, b.load)
	if err != nil {
		b.log.Warn("currency rates load failed", applogger.Error(err))
		if b.graph == nil {
			return NewGraph(nil, b.defaultCurrency), err
		}
		return b.graph, err
	}

	if b.graph == nil {
		b.graph = NewGraph(rates, b.defaultCurrency)
	} else {
		b.graph.Rebuild(rates)
	}
	b.loadedAt = b.now()
	b.log.Debug("currency graph rebuilt", applogger.Int("rates", b.graph.Len()))
	return b.graph, nil
}

// Invalidate forces the next Graph call to reload.
func (b *RateBook) Invalidate(ctx context.Context) {
	b.mu.Lock()
	b.loadedAt = time.Time{}
	b.mu.Unlock()

	if b.cache != nil {
		if err := b.cache.Delete(ctx, ratesCacheKey); err != nil {
			b.log.Warn("currency rates cache delete failed", applogger.Error(err))
		}
	}
}

// Apply merges pushed rates into the live graph without a reload.
func (b *RateBook) Apply(rates []models.CurrencyRate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.graph == nil {
		return
	}
	merged := append(b.graph.Rates(), rates...)
	b.graph.Rebuild(merged)
}

func (b *RateBook) load(ctx context.Context) ([]models.CurrencyRate, error) {
	rows, err := b.reader.Select(ctx, repository.TableCurrencyRates, repository.Query{})
	if err != nil {
		return nil, fmt.Errorf("select currency rates: %w", err)
	}
	rates := make([]models.CurrencyRate, 0, len(rows))
	for _, row := range rows {
		if r, ok := RateFromRow(row); ok {
			rates = append(rates, r)
		}
	}
	return rates, nil
}

// RateFromRow decodes one currency_rates row. Column names vary between backends.
func RateFromRow(row repository.Row) (models.CurrencyRate, bool) {
	r := models.CurrencyRate{
		Base:   Normalize(row.String("base_currency", "from_currency", "base")),
		Target: Normalize(row.String("target_currency", "to_currency", "target")),
	}
	rate, ok := row.Float("rate", "exchange_rate")
	if !ok || r.Base == "" || r.Target == "" {
		return r, false
	}
	r.Rate = rate
	r.ObservedAt, _ = row.Time("observed_at", "updated_at", "created_at")
	return r, true
}
