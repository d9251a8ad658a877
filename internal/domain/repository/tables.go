package repository

import "FinAdvisor/internal/domain/models"

// User-owned tables.
const (
	TableAssets         = "assets"
	TableDebts          = "debts"
	TableIncomeStreams  = "income_streams"
	TableExpenseStreams = "expense_streams"
	TableGoals          = "financial_goals"
	TableDeposits       = "deposits"
	TableUserSettings   = "user_settings"
	TableCurrencyRates  = "currency_rates"
)

// UserTables are read with a user_id filter on every request.
var UserTables = []string{
	TableAssets, TableDebts, TableIncomeStreams, TableExpenseStreams,
	TableGoals, TableDeposits, TableUserSettings,
}

// MarketTable returns the storage table backing a market category.
// Table names follow the category names except where noted.
func MarketTable(c models.MarketCategory) string {
	switch c {
	case models.CategoryCurrencyRates:
		return TableCurrencyRates
	case models.CategoryInvestmentFunds:
		return "bank_investment_funds"
	}
	return string(c)
}

// IsMarketTable reports whether table holds shared market data rather than user rows.
func IsMarketTable(table string) bool {
	for _, c := range models.MarketCategories {
		if MarketTable(c) == table {
			return true
		}
	}
	return false
}

// IsKnownTable reports whether the pipeline is allowed to read table.
func IsKnownTable(table string) bool {
	for _, t := range UserTables {
		if t == table {
			return true
		}
	}
	return IsMarketTable(table)
}
