package currency

import (
	"math"
	"testing"

	"FinAdvisor/internal/domain/models"
)

func rates(pairs ...any) []models.CurrencyRate {
	var out []models.CurrencyRate
	for i := 0; i+2 < len(pairs); i += 3 {
		out = append(out, models.CurrencyRate{
			Base:   pairs[i].(string),
			Target: pairs[i+1].(string),
			Rate:   pairs[i+2].(float64),
		})
	}
	return out
}

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestConvertIdentity(t *testing.T) {
	g := NewGraph(rates("USD", "EGP", 48.5), "EGP")
	for _, code := range []string{"USD", "EGP", "XYZ", "sar"} {
		for _, amount := range []float64{0, 1, 123.45, -7} {
			if got := g.Convert(amount, code, code); got != amount {
				t.Fatalf("convert(%v, %s, %s) = %v", amount, code, code, got)
			}
		}
	}
}

func TestConvertDirect(t *testing.T) {
	g := NewGraph(rates("USD", "EGP", 48.5), "")
	c := g.Exchange(10, "usd", "egp")
	if !almost(c.Result, 485) || c.Path != models.PathDirect || !c.Verified {
		t.Fatalf("unexpected %+v", c)
	}
}

func TestConvertThroughPivot(t *testing.T) {
	g := NewGraph(rates("SAR", "USD", 0.2666, "USD", "EGP", 48.5), "")
	c := g.Exchange(100, "SAR", "EGP")
	if !almost(c.Result, 100*0.2666*48.5) || c.Path != models.PathPivot {
		t.Fatalf("unexpected %+v", c)
	}
}

func TestConvertReverseIndirect(t *testing.T) {
	// only USD-A and B-USD are known
	g := NewGraph(rates("USD", "AED", 3.6725, "KWD", "USD", 3.25), "")
	c := g.Exchange(50, "AED", "KWD")
	if !almost(c.Result, 50*(3.25/3.6725)) || c.Path != models.PathReverse {
		t.Fatalf("unexpected %+v", c)
	}
}

func TestConvertInverseOfOppositePair(t *testing.T) {
	g := NewGraph(rates("EUR", "GBP", 0.85), "")
	c := g.Exchange(85, "GBP", "EUR")
	if !almost(c.Result, 100) || c.Path != models.PathInverse || !c.Verified {
		t.Fatalf("unexpected %+v", c)
	}
}

func TestConvertAssumesParityWhenNoPath(t *testing.T) {
	g := NewGraph(nil, "")
	c := g.Exchange(42, "EGP", "JPY")
	if c.Result != 42 || c.Path != models.PathAssumed || c.Verified {
		t.Fatalf("unexpected %+v", c)
	}
}

func TestConvertEmptyTargetUsesDefault(t *testing.T) {
	g := NewGraph(rates("USD", "EGP", 50.0), "EGP")
	if got := g.Convert(2, "USD", ""); !almost(got, 100) {
		t.Fatalf("convert = %v", got)
	}
}

func TestRebuildSkipsInvalidAndKeepsLatest(t *testing.T) {
	g := NewGraph(rates("USD", "EGP", 0.0, "USD", "EUR", math.Inf(1)), "")
	if g.Len() != 0 {
		t.Fatalf("invalid rates kept: %d", g.Len())
	}
	g.Rebuild(rates("USD", "EGP", 49.0))
	if r, ok := g.Rate("usd", "egp"); !ok || r != 49 {
		t.Fatalf("rate = %v %v", r, ok)
	}
}
