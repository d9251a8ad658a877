package marketdata

import (
	"strings"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/services/currency"
)

// DecodeRow converts a storage row into the typed row for category.
// Rows without their identifying value are rejected.
func DecodeRow(category models.MarketCategory, row repository.Row) (models.MarketRow, bool) {
	switch category {
	case models.CategoryEgyptStocks, models.CategorySaudiStocks, models.CategoryUAEStocks,
		models.CategoryKuwaitStocks, models.CategoryQatarStocks, models.CategoryUSStocks:
		return decodeStock(category, row)
	case models.CategoryGlobalIndices:
		return decodeIndex(row)
	case models.CategoryGoldPrices:
		return decodeGold(row)
	case models.CategoryCrypto:
		return decodeCrypto(row)
	case models.CategoryCurrencyRates:
		return decodeCurrency(row)
	case models.CategoryETFs, models.CategoryInvestmentFunds:
		return decodeFund(category, row)
	case models.CategoryBonds:
		return decodeBond(row)
	case models.CategoryRealEstate:
		return decodeRealEstate(row)
	case models.CategoryBankProducts:
		return decodeBankProduct(row)
	}
	return nil, false
}

// DecodeRows decodes rows and drops the ones that do not fit category.
func DecodeRows(category models.MarketCategory, rows []repository.Row) []models.MarketRow {
	out := make([]models.MarketRow, 0, len(rows))
	for _, r := range rows {
		if mr, ok := DecodeRow(category, r); ok {
			out = append(out, mr)
		}
	}
	return out
}

func optFloat(r repository.Row, keys ...string) models.Opt[float64] {
	if f, ok := r.Float(keys...); ok {
		return models.Some(f)
	}
	return models.None[float64]()
}

func optString(r repository.Row, keys ...string) models.Opt[string] {
	if s := r.String(keys...); s != "" {
		return models.Some(s)
	}
	return models.None[string]()
}

func code(r repository.Row, def string) string {
	if c := r.String("currency", "currency_code"); c != "" {
		return currency.Normalize(c)
	}
	return def
}

func defaultCurrency(c models.MarketCategory) string {
	switch c {
	case models.CategoryEgyptStocks:
		return "EGP"
	case models.CategorySaudiStocks:
		return "SAR"
	case models.CategoryUAEStocks:
		return "AED"
	case models.CategoryKuwaitStocks:
		return "KWD"
	case models.CategoryQatarStocks:
		return "QAR"
	case models.CategoryUSStocks:
		return "USD"
	}
	return ""
}

func decodeStock(c models.MarketCategory, r repository.Row) (models.MarketRow, bool) {
	price, ok := r.Float("price", "current_price", "last_price", "close")
	symbol := r.String("symbol", "ticker")
	name := r.String("name", "company_name", "name_en", "name_ar")
	if !ok || (symbol == "" && name == "") {
		return nil, false
	}
	return models.StockRow{
		Market:        c,
		Symbol:        strings.ToUpper(symbol),
		Name:          name,
		Price:         price,
		Currency:      code(r, defaultCurrency(c)),
		Change:        optFloat(r, "change", "price_change"),
		ChangePercent: optFloat(r, "change_percent", "change_pct", "percent_change"),
		Volume:        optFloat(r, "volume"),
		Sector:        optString(r, "sector"),
	}, true
}

func decodeIndex(r repository.Row) (models.MarketRow, bool) {
	value, ok := r.Float("value", "price", "last_price", "close")
	symbol := r.String("symbol")
	name := r.String("name", "index_name")
	if !ok || (symbol == "" && name == "") {
		return nil, false
	}
	return models.IndexRow{
		Symbol:        symbol,
		Name:          name,
		Value:         value,
		Change:        optFloat(r, "change"),
		ChangePercent: optFloat(r, "change_percent", "change_pct"),
		Country:       optString(r, "country"),
	}, true
}

func decodeGold(r repository.Row) (models.MarketRow, bool) {
	buy, ok := r.Float("buy_price", "price", "price_per_gram")
	karat := r.String("karat", "type", "name")
	if !ok || karat == "" {
		return nil, false
	}
	return models.GoldRow{
		Karat:     karat,
		BuyPrice:  buy,
		SellPrice: optFloat(r, "sell_price"),
		Currency:  code(r, "EGP"),
		Unit:      firstNonEmpty(r.String("unit"), "gram"),
		Change:    optFloat(r, "change", "change_percent"),
	}, true
}

func decodeCrypto(r repository.Row) (models.MarketRow, bool) {
	price, ok := r.Float("price", "price_usd", "current_price")
	symbol := r.String("symbol")
	if !ok || symbol == "" {
		return nil, false
	}
	return models.CryptoRow{
		Symbol:    strings.ToUpper(symbol),
		Name:      r.String("name"),
		Price:     price,
		Currency:  code(r, "USD"),
		Change24h: optFloat(r, "change_24h", "change_percent_24h", "change_percent"),
		MarketCap: optFloat(r, "market_cap"),
	}, true
}

func decodeCurrency(r repository.Row) (models.MarketRow, bool) {
	rate, ok := currency.RateFromRow(r)
	if !ok {
		return nil, false
	}
	return models.CurrencyRow{
		Base:   rate.Base,
		Target: rate.Target,
		Rate:   rate.Rate,
		Change: optFloat(r, "change", "change_percent"),
	}, true
}

func decodeFund(c models.MarketCategory, r repository.Row) (models.MarketRow, bool) {
	name := r.String("name", "fund_name")
	nav, ok := r.Float("nav", "price", "unit_price")
	if name == "" || !ok {
		return nil, false
	}
	return models.FundRow{
		Kind:      c,
		Name:      name,
		Symbol:    optString(r, "symbol"),
		Manager:   optString(r, "manager", "bank", "bank_name", "issuer"),
		NAV:       nav,
		Currency:  code(r, "EGP"),
		ReturnYTD: optFloat(r, "return_ytd", "ytd_return", "annual_return"),
		Risk:      optString(r, "risk", "risk_level"),
	}, true
}

func decodeBond(r repository.Row) (models.MarketRow, bool) {
	name := r.String("name", "bond_name")
	yield, ok := r.Float("yield", "coupon_rate", "rate")
	if name == "" || !ok {
		return nil, false
	}
	return models.BondRow{
		Name:     name,
		Issuer:   optString(r, "issuer"),
		Yield:    yield,
		Maturity: optString(r, "maturity", "maturity_date"),
		Currency: code(r, "EGP"),
	}, true
}

func decodeRealEstate(r repository.Row) (models.MarketRow, bool) {
	city := r.String("city")
	price, ok := r.Float("price_per_meter", "price_per_sqm", "avg_price_per_meter")
	if city == "" || !ok {
		return nil, false
	}
	return models.RealEstateRow{
		City:          city,
		Area:          r.String("area", "district", "neighborhood"),
		PropertyType:  r.String("property_type", "type"),
		PricePerMeter: price,
		Currency:      code(r, "EGP"),
		Change:        optFloat(r, "change", "change_percent"),
	}, true
}

func decodeBankProduct(r repository.Row) (models.MarketRow, bool) {
	bank := r.String("bank", "bank_name")
	product := r.String("product", "product_name", "name")
	if bank == "" || product == "" {
		return nil, false
	}
	return models.BankProductRow{
		Bank:      bank,
		Product:   product,
		Rate:      optFloat(r, "rate", "interest_rate", "return_rate"),
		Term:      optString(r, "term", "duration"),
		MinAmount: optFloat(r, "min_amount", "minimum_amount"),
		Currency:  code(r, "EGP"),
	}, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
