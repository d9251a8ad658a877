package marketdata

import (
	"fmt"
	"regexp"
	"strings"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/services/classifier"
	"FinAdvisor/internal/services/currency"
	xutil "FinAdvisor/pkg/util"
)

const (
	defaultRowsShown  = 5
	overviewRowsShown = 3
)

type categoryText struct {
	en, ar   string
	keywords []string
	rows     int
}

// Keywords are matched against the normalized message, so Arabic entries
// are written in folded form.
var categoryTexts = map[models.MarketCategory]categoryText{
	models.CategoryEgyptStocks: {"Egyptian stocks", "الأسهم المصرية",
		[]string{"egx", "egypt stock", "egyptian stock", "البورصه المصريه", "البورصه", "اسهم مصر", "الاسهم المصريه"}, 10},
	models.CategorySaudiStocks: {"Saudi stocks", "الأسهم السعودية",
		[]string{"saudi", "tadawul", "tasi", "السعوديه", "تداول"}, 10},
	models.CategoryUAEStocks: {"UAE stocks", "أسهم الإمارات",
		[]string{"uae", "dubai", "abu dhabi", "dfm", "adx", "الامارات", "دبي", "ابوظبي"}, 10},
	models.CategoryKuwaitStocks: {"Kuwait stocks", "أسهم الكويت",
		[]string{"kuwait", "boursa kuwait", "الكويت"}, 10},
	models.CategoryQatarStocks: {"Qatar stocks", "أسهم قطر",
		[]string{"qatar", "qse", "قطر"}, 10},
	models.CategoryUSStocks: {"US stocks", "الأسهم الأمريكية",
		[]string{"us stock", "nasdaq", "nyse", "wall street", "apple", "tesla", "الامريكيه", "وول ستريت"}, defaultRowsShown},
	models.CategoryGlobalIndices: {"Global indices", "المؤشرات العالمية",
		[]string{"index", "indices", "s&p", "dow jones", "موشر", "موشرات"}, defaultRowsShown},
	models.CategoryGoldPrices: {"Gold prices", "أسعار الذهب",
		[]string{"gold", "karat", "ذهب", "الذهب", "عيار"}, 10},
	models.CategoryCrypto: {"Cryptocurrencies", "العملات المشفرة",
		[]string{"crypto", "bitcoin", "btc", "ethereum", "بيتكوين", "كريبتو", "عملات رقميه", "العملات المشفره"}, defaultRowsShown},
	models.CategoryCurrencyRates: {"Exchange rates", "أسعار الصرف",
		[]string{"currency", "exchange rate", "dollar", "euro", "usd", "eur", "عمله", "عملات", "دولار", "يورو", "صرف", "ريال", "درهم"}, 10},
	models.CategoryETFs: {"ETFs", "صناديق المؤشرات",
		[]string{"etf", "exchange traded"}, defaultRowsShown},
	models.CategoryBonds: {"Bonds", "السندات",
		[]string{"bond", "treasury", "sukuk", "سند", "سندات", "صكوك", "اذون"}, defaultRowsShown},
	models.CategoryRealEstate: {"Real estate", "العقارات",
		[]string{"real estate", "property", "apartment", "villa", "meter", "عقار", "عقارات", "شقه", "فيلا", "متر"}, 10},
	models.CategoryBankProducts: {"Bank products", "المنتجات البنكية",
		[]string{"certificate", "deposit", "saving", "bank", "شهاده", "شهادات", "وديعه", "ودايع", "بنك", "توفير"}, 10},
	models.CategoryInvestmentFunds: {"Investment funds", "صناديق الاستثمار",
		[]string{"fund", "mutual", "صندوق", "صناديق"}, 10},
}

var categoryPatterns = compileKeywords()

// compileKeywords builds whole-word matchers per category. English keywords
// also match their plural, so "bond" finds "bonds" but "eur" misses "europe".
func compileKeywords() map[models.MarketCategory][]*regexp.Regexp {
	out := make(map[models.MarketCategory][]*regexp.Regexp, len(categoryTexts))
	for c, t := range categoryTexts {
		var latin, arabic []string
		for _, kw := range t.keywords {
			if xutil.ContainsArabic(kw) {
				arabic = append(arabic, regexp.QuoteMeta(kw))
			} else {
				latin = append(latin, regexp.QuoteMeta(kw))
			}
		}
		if len(latin) > 0 {
			out[c] = append(out[c], regexp.MustCompile(`\b(?:`+strings.Join(latin, "|")+`)(?:s|es)?\b`))
		}
		if len(arabic) > 0 {
			out[c] = append(out[c], regexp.MustCompile(classifier.ArabicWords(strings.Join(arabic, "|"))))
		}
	}
	return out
}

// MatchCategories rescans message for category keywords, in canonical order.
func MatchCategories(message string) []models.MarketCategory {
	text := classifier.Normalize(message)
	var out []models.MarketCategory
	for _, c := range models.MarketCategories {
		for _, re := range categoryPatterns[c] {
			if re.MatchString(text) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Summarize renders the snapshot categories the message mentions. When the
// message names none, a short overview of every fetched category is rendered.
// Output never exceeds the selector's rune limit.
func (s *Selector) Summarize(message string, snap models.MarketSnapshot) string {
	return Summarize(message, snap, s.maxRunes)
}

// Summarize is the pure form of Selector.Summarize.
func Summarize(message string, snap models.MarketSnapshot, maxRunes int) string {
	if len(snap) == 0 {
		return ""
	}
	if maxRunes <= 0 {
		maxRunes = defaultMaxRunes
	}
	arabic := xutil.ContainsArabic(message)

	var cats []models.MarketCategory
	overview := false
	for _, c := range MatchCategories(message) {
		if len(snap.Rows(c)) > 0 {
			cats = append(cats, c)
		}
	}
	if len(cats) == 0 {
		cats = snap.Categories()
		overview = true
	}

	var b strings.Builder
	used := 0
	for _, c := range cats {
		limit := categoryTexts[c].rows
		switch {
		case overview:
			limit = overviewRowsShown
		case limit == 0:
			limit = defaultRowsShown
		}
		block := renderBlock(c, snap.Rows(c), limit, arabic)
		n := len([]rune(block))
		if used+n > maxRunes {
			if used == 0 {
				b.WriteString(xutil.TruncateRunes(block, maxRunes-1))
			}
			break
		}
		b.WriteString(block)
		used += n
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBlock(c models.MarketCategory, rows []models.MarketRow, limit int, arabic bool) string {
	t := categoryTexts[c]
	title := t.en
	if arabic && t.ar != "" {
		title = t.ar
	}
	if title == "" {
		title = string(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n", title)
	for i, r := range rows {
		if i >= limit {
			break
		}
		b.WriteString("- ")
		b.WriteString(RenderRow(r))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}

// RenderRow formats one row as a single line with its currency.
func RenderRow(r models.MarketRow) string {
	switch v := r.(type) {
	case models.StockRow:
		line := fmt.Sprintf("%s (%s): %s", v.Label(), v.Symbol, currency.Format(v.Price, v.Currency))
		return line + changeSuffix(v.ChangePercent)
	case models.IndexRow:
		return fmt.Sprintf("%s: %s", v.Label(), currency.Format(v.Value, "")) + changeSuffix(v.ChangePercent)
	case models.GoldRow:
		line := fmt.Sprintf("%s: buy %s/%s", v.Karat, currency.Format(v.BuyPrice, v.Currency), v.Unit)
		if sell, ok := v.SellPrice.Get(); ok {
			line += ", sell " + currency.Format(sell, v.Currency)
		}
		return line
	case models.CryptoRow:
		return fmt.Sprintf("%s (%s): %s", v.Label(), v.Symbol, currency.Format(v.Price, v.Currency)) + changeSuffix(v.Change24h)
	case models.CurrencyRow:
		return fmt.Sprintf("1 %s = %.4f %s", v.Base, v.Rate, v.Target)
	case models.FundRow:
		line := fmt.Sprintf("%s: NAV %s", v.Name, currency.Format(v.NAV, v.Currency))
		if m, ok := v.Manager.Get(); ok {
			line += " (" + m + ")"
		}
		if ytd, ok := v.ReturnYTD.Get(); ok {
			line += fmt.Sprintf(", YTD %.2f%%", ytd)
		}
		if risk, ok := v.Risk.Get(); ok {
			line += ", risk " + risk
		}
		return line
	case models.BondRow:
		line := fmt.Sprintf("%s: yield %.2f%% (%s)", v.Name, v.Yield, v.Currency)
		if m, ok := v.Maturity.Get(); ok {
			line += ", matures " + m
		}
		return line
	case models.RealEstateRow:
		line := v.Label()
		if v.PropertyType != "" {
			line += " " + v.PropertyType
		}
		return line + fmt.Sprintf(": %s per m²", currency.Format(v.PricePerMeter, v.Currency))
	case models.BankProductRow:
		line := v.Label()
		if rate, ok := v.Rate.Get(); ok {
			line += fmt.Sprintf(": %.2f%%", rate)
		}
		if term, ok := v.Term.Get(); ok {
			line += ", " + term
		}
		if minAmt, ok := v.MinAmount.Get(); ok {
			line += ", min " + currency.Format(minAmt, v.Currency)
		}
		return line
	}
	return r.Label()
}

func changeSuffix(pct models.Opt[float64]) string {
	v, ok := pct.Get()
	if !ok {
		return ""
	}
	return fmt.Sprintf(" (%+.2f%%)", v)
}
