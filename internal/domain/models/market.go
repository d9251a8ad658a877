package models

type MarketCategory string

const (
	CategoryEgyptStocks     MarketCategory = "egypt_stocks"
	CategorySaudiStocks     MarketCategory = "saudi_stocks"
	CategoryUAEStocks       MarketCategory = "uae_stocks"
	CategoryKuwaitStocks    MarketCategory = "kuwait_stocks"
	CategoryQatarStocks     MarketCategory = "qatar_stocks"
	CategoryUSStocks        MarketCategory = "us_stocks"
	CategoryGlobalIndices   MarketCategory = "global_indices"
	CategoryGoldPrices      MarketCategory = "gold_prices"
	CategoryCrypto          MarketCategory = "crypto"
	CategoryCurrencyRates   MarketCategory = "currency_rates"
	CategoryETFs            MarketCategory = "etfs"
	CategoryBonds           MarketCategory = "bonds"
	CategoryRealEstate      MarketCategory = "real_estate"
	CategoryBankProducts    MarketCategory = "bank_products"
	CategoryInvestmentFunds MarketCategory = "investment_funds"
)

// MarketCategories lists every category in fetch order.
var MarketCategories = []MarketCategory{
	CategoryEgyptStocks, CategorySaudiStocks, CategoryUAEStocks, CategoryKuwaitStocks,
	CategoryQatarStocks, CategoryUSStocks, CategoryGlobalIndices, CategoryGoldPrices,
	CategoryCrypto, CategoryCurrencyRates, CategoryETFs, CategoryBonds,
	CategoryRealEstate, CategoryBankProducts, CategoryInvestmentFunds,
}

// StockCategoryForCountry maps an ISO country code to its stock table category.
func StockCategoryForCountry(country string) (MarketCategory, bool) {
	switch country {
	case "EG":
		return CategoryEgyptStocks, true
	case "SA":
		return CategorySaudiStocks, true
	case "AE":
		return CategoryUAEStocks, true
	case "KW":
		return CategoryKuwaitStocks, true
	case "QA":
		return CategoryQatarStocks, true
	case "US":
		return CategoryUSStocks, true
	}
	return "", false
}

// MarketRow is one row of market data. Concrete types are listed below.
type MarketRow interface {
	Category() MarketCategory
	Label() string
}

type StockRow struct {
	Market        MarketCategory `json:"market"`
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name"`
	Price         float64        `json:"price"`
	Currency      string         `json:"currency"`
	Change        Opt[float64]   `json:"change"`
	ChangePercent Opt[float64]   `json:"change_percent"`
	Volume        Opt[float64]   `json:"volume"`
	Sector        Opt[string]    `json:"sector"`
}

func (r StockRow) Category() MarketCategory { return r.Market }
func (r StockRow) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Symbol
}

type IndexRow struct {
	Symbol        string       `json:"symbol"`
	Name          string       `json:"name"`
	Value         float64      `json:"value"`
	Change        Opt[float64] `json:"change"`
	ChangePercent Opt[float64] `json:"change_percent"`
	Country       Opt[string]  `json:"country"`
}

func (r IndexRow) Category() MarketCategory { return CategoryGlobalIndices }
func (r IndexRow) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Symbol
}

type GoldRow struct {
	Karat     string       `json:"karat"`
	BuyPrice  float64      `json:"buy_price"`
	SellPrice Opt[float64] `json:"sell_price"`
	Currency  string       `json:"currency"`
	Unit      string       `json:"unit"`
	Change    Opt[float64] `json:"change"`
}

func (r GoldRow) Category() MarketCategory { return CategoryGoldPrices }
func (r GoldRow) Label() string { return r.Karat }

type CryptoRow struct {
	Symbol    string       `json:"symbol"`
	Name      string       `json:"name"`
	Price     float64      `json:"price"`
	Currency  string       `json:"currency"`
	Change24h Opt[float64] `json:"change_24h"`
	MarketCap Opt[float64] `json:"market_cap"`
}

func (r CryptoRow) Category() MarketCategory { return CategoryCrypto }
func (r CryptoRow) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Symbol
}

type CurrencyRow struct {
	Base   string       `json:"base"`
	Target string       `json:"target"`
	Rate   float64      `json:"rate"`
	Change Opt[float64] `json:"change"`
}

func (r CurrencyRow) Category() MarketCategory { return CategoryCurrencyRates }
func (r CurrencyRow) Label() string { return r.Base + "/" + r.Target }

// FundRow covers both exchange traded funds and bank-managed investment funds.
type FundRow struct {
	Kind      MarketCategory `json:"kind"`
	Name      string         `json:"name"`
	Symbol    Opt[string]    `json:"symbol"`
	Manager   Opt[string]    `json:"manager"`
	NAV       float64        `json:"nav"`
	Currency  string         `json:"currency"`
	ReturnYTD Opt[float64]   `json:"return_ytd"`
	Risk      Opt[string]    `json:"risk"`
}

func (r FundRow) Category() MarketCategory { return r.Kind }
func (r FundRow) Label() string { return r.Name }

type BondRow struct {
	Name     string      `json:"name"`
	Issuer   Opt[string] `json:"issuer"`
	Yield    float64     `json:"yield"`
	Maturity Opt[string] `json:"maturity"`
	Currency string      `json:"currency"`
}

func (r BondRow) Category() MarketCategory { return CategoryBonds }
func (r BondRow) Label() string { return r.Name }

type RealEstateRow struct {
	City          string       `json:"city"`
	Area          string       `json:"area"`
	PropertyType  string       `json:"property_type"`
	PricePerMeter float64      `json:"price_per_meter"`
	Currency      string       `json:"currency"`
	Change        Opt[float64] `json:"change"`
}

func (r RealEstateRow) Category() MarketCategory { return CategoryRealEstate }
func (r RealEstateRow) Label() string {
	if r.Area == "" {
		return r.City
	}
	return r.Area + ", " + r.City
}

type BankProductRow struct {
	Bank      string       `json:"bank"`
	Product   string       `json:"product"`
	Rate      Opt[float64] `json:"rate"`
	Term      Opt[string]  `json:"term"`
	MinAmount Opt[float64] `json:"min_amount"`
	Currency  string       `json:"currency"`
}

func (r BankProductRow) Category() MarketCategory { return CategoryBankProducts }
func (r BankProductRow) Label() string { return r.Bank + " " + r.Product }

// MarketSnapshot is the request-scoped set of fetched market rows.
type MarketSnapshot map[MarketCategory][]MarketRow

func (s MarketSnapshot) Rows(c MarketCategory) []MarketRow { return s[c] }

// Categories returns the non-empty categories in canonical order.
func (s MarketSnapshot) Categories() []MarketCategory {
	out := make([]MarketCategory, 0, len(s))
	for _, c := range MarketCategories {
		if len(s[c]) > 0 {
			out = append(out, c)
		}
	}
	return out
}
