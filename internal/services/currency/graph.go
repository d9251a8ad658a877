package currency

import (
	"math"
	"strings"
	"sync"

	"FinAdvisor/internal/domain/models"
)

// Graph holds known exchange rates keyed "BASE-TARGET" and resolves conversions
// between any two currencies. Safe for concurrent use.
type Graph struct {
	mu              sync.RWMutex
	rates           map[string]models.CurrencyRate
	defaultCurrency string
}

// NewGraph builds a graph from rates. defaultCurrency is used when a
// conversion target is empty.
func NewGraph(rates []models.CurrencyRate, defaultCurrency string) *Graph {
	g := &Graph{defaultCurrency: Normalize(defaultCurrency)}
	if g.defaultCurrency == "" {
		g.defaultCurrency = models.PivotCurrency
	}
	g.Rebuild(rates)
	return g
}

// Rebuild replaces the rate set. Invalid rates are skipped and the most recent
// observation wins for duplicate pairs.
func (g *Graph) Rebuild(rates []models.CurrencyRate) {
	m := make(map[string]models.CurrencyRate, len(rates))
	for _, r := range rates {
		r.Base, r.Target = Normalize(r.Base), Normalize(r.Target)
		if r.Base == "" || r.Target == "" || !usable(r.Rate) {
			continue
		}
		k := key(r.Base, r.Target)
		if prev, ok := m[k]; ok && prev.ObservedAt.After(r.ObservedAt) {
			continue
		}
		m[k] = r
	}

	g.mu.Lock()
	g.rates = m
	g.mu.Unlock()
}

// Rates returns a copy of the rate set.
func (g *Graph) Rates() []models.CurrencyRate {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.CurrencyRate, 0, len(g.rates))
	for _, r := range g.rates {
		out = append(out, r)
	}
	return out
}

func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rates)
}

func (g *Graph) DefaultCurrency() string { return g.defaultCurrency }

// Rate returns the direct rate base -> target.
func (g *Graph) Rate(base, target string) (float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lookup(Normalize(base), Normalize(target))
}

// Resolve finds the rate from -> to. Resolution order: identity, direct,
// via USD (from-USD x USD-to), reverse via USD ((to-USD) / (USD-from)),
// inverse of the opposite pair, then parity. Parity is the only unverified result.
func (g *Graph) Resolve(from, to string) models.Conversion {
	from, to = g.codes(from, to)
	c := models.Conversion{From: from, To: to, Rate: 1, Verified: true}

	if from == to {
		c.Path = models.PathIdentity
		return c
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if r, ok := g.lookup(from, to); ok {
		c.Rate, c.Path = r, models.PathDirect
		return c
	}

	pivot := models.PivotCurrency
	if a, ok := g.lookup(from, pivot); ok {
		if b, ok := g.lookup(pivot, to); ok {
			c.Rate, c.Path = a*b, models.PathPivot
			return c
		}
	}

	if usdFrom, ok := g.lookup(pivot, from); ok {
		if toUSD, ok := g.lookup(to, pivot); ok {
			c.Rate, c.Path = toUSD/usdFrom, models.PathReverse
			return c
		}
	}

	if r, ok := g.lookup(to, from); ok {
		c.Rate, c.Path = 1/r, models.PathInverse
		return c
	}

	c.Path, c.Verified = models.PathAssumed, false
	return c
}

// Exchange converts amount and reports how the rate was found.
func (g *Graph) Exchange(amount float64, from, to string) models.Conversion {
	c := g.Resolve(from, to)
	c.Amount = amount
	c.Result = amount * c.Rate
	return c
}

// Convert converts amount from -> to. An empty to means the default currency.
func (g *Graph) Convert(amount float64, from, to string) float64 {
	return g.Exchange(amount, from, to).Result
}

func (g *Graph) codes(from, to string) (string, string) {
	from, to = Normalize(from), Normalize(to)
	if from == "" {
		from = g.defaultCurrency
	}
	if to == "" {
		to = g.defaultCurrency
	}
	return from, to
}

func (g *Graph) lookup(base, target string) (float64, bool) {
	r, ok := g.rates[key(base, target)]
	return r.Rate, ok
}

// Normalize upper-cases and trims a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func key(base, target string) string { return base + "-" + target }

func usable(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
