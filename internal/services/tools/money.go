package tools

import (
	"strings"

	"github.com/shopspring/decimal"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/services/currency"
)

var hundred = decimal.NewFromInt(100)

// converter turns amounts in arbitrary currencies into one reporting currency.
type converter struct {
	rates    *currency.Graph
	target   string
	verified bool
}

func newConverter(in Input) *converter {
	return &converter{rates: in.graph(), target: in.Currency(), verified: true}
}

// convert turns amount in code into the reporting currency and reports whether
// the rate was verified. An empty code is taken to already be in the reporting currency.
func (c *converter) convert(amount decimal.Decimal, code string) (decimal.Decimal, bool) {
	if code == "" {
		return amount, true
	}
	conv := c.rates.Resolve(code, c.target)
	if !conv.Verified {
		c.verified = false
	}
	return amount.Mul(decimal.NewFromFloat(conv.Rate)), conv.Verified
}

func (c *converter) to(amount decimal.Decimal, code string) decimal.Decimal {
	d, _ := c.convert(amount, code)
	return d
}

func (c *converter) float(amount float64, code string) decimal.Decimal {
	return c.to(decimal.NewFromFloat(amount), code)
}

// monthlyCashFlow returns frequency-normalized income and expenses.
// Inactive income streams are skipped.
func (c *converter) monthlyCashFlow(s *models.UserSnapshot) (income, expenses decimal.Decimal) {
	if s == nil {
		return decimal.Zero, decimal.Zero
	}
	for _, in := range s.Income {
		if !in.Active {
			continue
		}
		monthly := decimal.NewFromFloat(in.Amount).Mul(decimal.NewFromFloat(in.Frequency.MonthlyFactor()))
		income = income.Add(c.to(monthly, in.Currency))
	}
	for _, ex := range s.Expenses {
		monthly := decimal.NewFromFloat(ex.Amount).Mul(decimal.NewFromFloat(ex.Frequency.MonthlyFactor()))
		expenses = expenses.Add(c.to(monthly, ex.Currency))
	}
	return income, expenses
}

func round2(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }

// percent returns part/whole*100, or zero when whole is not positive.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func normKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
