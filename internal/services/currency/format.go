package currency

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

type glyph struct {
	symbol string
	suffix bool
}

// Glyphs for the currencies users hold most. Arabic-script symbols follow the amount.
var glyphs = map[string]glyph{
	"EGP": {"ج.م", true},
	"SAR": {"ر.س", true},
	"AED": {"د.إ", true},
	"KWD": {"د.ك", true},
	"QAR": {"ر.ق", true},
	"BHD": {"د.ب", true},
	"OMR": {"ر.ع", true},
	"JOD": {"د.أ", true},
	"USD": {"$", false},
	"EUR": {"€", false},
	"GBP": {"£", false},
	"JPY": {"¥", false},
	"TRY": {"₺", false},
	"INR": {"₹", false},
}

// Symbol returns the display glyph for code, falling back to the code itself.
func Symbol(code string) string {
	code = Normalize(code)
	if g, ok := glyphs[code]; ok {
		return g.symbol
	}
	if c := money.GetCurrency(code); c != nil && c.Grapheme != "" {
		return c.Grapheme
	}
	return code
}

// Format renders amount with two decimals, thousands separators and the
// currency glyph. Unknown codes use go-money's formatter, then the raw code.
func Format(amount float64, code string) string {
	code = Normalize(code)
	d := decimal.NewFromFloat(amount).Round(2)

	if g, ok := glyphs[code]; ok {
		num := group(d.Abs().StringFixed(2))
		sign := ""
		if d.IsNegative() {
			sign = "-"
		}
		if g.suffix {
			return sign + num + " " + g.symbol
		}
		return sign + g.symbol + num
	}

	if c := money.GetCurrency(code); c != nil {
		minor := d.Shift(int32(c.Fraction)).Round(0).IntPart()
		return c.Formatter().Format(minor)
	}

	if code == "" {
		return group(d.StringFixed(2))
	}
	return group(d.StringFixed(2)) + " " + code
}

// group inserts thousands separators into a fixed-point number string.
func group(s string) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
