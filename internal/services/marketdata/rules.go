package marketdata

import "FinAdvisor/internal/domain/models"

// DefaultCountry is used when the user has no country or one without a stock table.
const DefaultCountry = "EG"

// FetchRule decides whether a category is fetched for a classification.
type FetchRule struct {
	Category models.MarketCategory
	When     func(c models.QueryClassification) bool
}

func always(models.QueryClassification) bool { return true }

func contextOrType(tags []string, types ...models.QueryType) func(models.QueryClassification) bool {
	return func(c models.QueryClassification) bool {
		if c.HasAnyContext(tags...) {
			return true
		}
		for _, t := range types {
			if c.Type() == t {
				return true
			}
		}
		return false
	}
}

// DefaultFetchRules is the category table for the user's country. Gold and
// currency rates are always fetched.
func DefaultFetchRules(country string) []FetchRule {
	stocks, ok := models.StockCategoryForCountry(country)
	if !ok {
		stocks, _ = models.StockCategoryForCountry(DefaultCountry)
	}
	rules := []FetchRule{
		{Category: models.CategoryGoldPrices, When: always},
		{Category: models.CategoryCurrencyRates, When: always},
		{Category: stocks, When: contextOrType(
			[]string{models.CtxAssets, models.CtxStocks, models.CtxNews, models.CtxPortfolio},
			models.QueryMarketResearch, models.QueryInvestmentAdvice)},
		{Category: models.CategoryGlobalIndices, When: contextOrType(
			[]string{models.CtxIndices, models.CtxStocks, models.CtxNews},
			models.QueryMarketResearch)},
		{Category: models.CategoryCrypto, When: contextOrType(
			[]string{models.CtxCrypto},
			models.QueryMarketResearch)},
		{Category: models.CategoryETFs, When: contextOrType(
			[]string{models.CtxETFs, models.CtxFunds})},
		{Category: models.CategoryInvestmentFunds, When: contextOrType(
			[]string{models.CtxFunds, models.CtxBanks},
			models.QueryProductResearch)},
		{Category: models.CategoryBankProducts, When: contextOrType(
			[]string{models.CtxBanks, models.CtxDeposits, models.CtxSavings},
			models.QueryProductResearch)},
		{Category: models.CategoryBonds, When: contextOrType(
			[]string{models.CtxBonds},
			models.QueryInvestmentAdvice)},
		{Category: models.CategoryRealEstate, When: contextOrType(
			[]string{models.CtxRealEstate, models.CtxProperty})},
	}
	if stocks != models.CategoryUSStocks {
		rules = append(rules, FetchRule{Category: models.CategoryUSStocks, When: contextOrType(
			nil, models.QueryMarketResearch)})
	}
	return rules
}

// Categories lists the categories rules select for c, without duplicates.
func Categories(rules []FetchRule, c models.QueryClassification) []models.MarketCategory {
	seen := make(map[models.MarketCategory]bool, len(rules))
	var out []models.MarketCategory
	for _, r := range rules {
		if seen[r.Category] || !r.When(c) {
			continue
		}
		seen[r.Category] = true
		out = append(out, r.Category)
	}
	return out
}
