package models

import "time"

// ToolResult is the outcome of one invoked tool. A failed tool carries Error and no Payload.
type ToolResult struct {
	Tool    ToolName `json:"tool"`
	Success bool     `json:"success"`
	Payload any      `json:"payload,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ToolResults holds one entry per invoked tool. A missing key means the tool was not requested.
type ToolResults map[ToolName]ToolResult

// Succeeded returns the result for t only when it ran successfully.
func (r ToolResults) Succeeded(t ToolName) (ToolResult, bool) {
	res, ok := r[t]
	if !ok || !res.Success {
		return ToolResult{}, false
	}
	return res, true
}

// Failed reports whether t was requested and did not succeed.
func (r ToolResults) Failed(t ToolName) bool {
	res, ok := r[t]
	return ok && !res.Success
}

// Names returns the invoked tools in registry order.
func (r ToolResults) Names(order []ToolName) []string {
	out := make([]string, 0, len(r))
	for _, t := range order {
		if _, ok := r[t]; ok {
			out = append(out, string(t))
		}
	}
	return out
}

type Source struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Publisher string `json:"publisher,omitempty"`
}

type NewsPayload struct {
	Summary     string    `json:"summary"`
	KeyInsights []string  `json:"key_insights"`
	Sources     []Source  `json:"sources"`
	LastUpdated time.Time `json:"last_updated"`
}

type WebResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Snippet       string `json:"snippet"`
	DisplaySource string `json:"display_source"`
	Content       string `json:"content,omitempty"`
}

type WebSearchPayload struct {
	Queries      []string    `json:"queries"`
	Results      []WebResult `json:"results"`
	Summary      string      `json:"summary"`
	KeyInsights  []string    `json:"key_insights"`
	MarketTopics []string    `json:"market_topics"`
	Sources      []Source    `json:"sources"`
}

type HoldingValuation struct {
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Country         string  `json:"country,omitempty"`
	CurrentValue    float64 `json:"current_value"`
	PurchaseValue   float64 `json:"purchase_value"`
	GainLoss        float64 `json:"gain_loss"`
	GainLossPercent float64 `json:"gain_loss_percent"`
	RateVerified    bool    `json:"rate_verified"`
}

type Diversification struct {
	AssetTypes      int                `json:"asset_types"`
	Countries       int                `json:"countries"`
	WellDiversified bool               `json:"well_diversified"`
	ByType          map[string]float64 `json:"by_type"`
}

type PortfolioPayload struct {
	Currency             string             `json:"currency"`
	TotalValue           float64            `json:"total_value"`
	TotalPurchaseValue   float64            `json:"total_purchase_value"`
	TotalGainLoss        float64            `json:"total_gain_loss"`
	TotalGainLossPercent float64            `json:"total_gain_loss_percent"`
	Holdings             []HoldingValuation `json:"holdings"`
	Diversification      Diversification    `json:"diversification"`
	AllRatesVerified     bool               `json:"all_rates_verified"`
}

type GoalProgress struct {
	Name             string       `json:"name"`
	Target           float64      `json:"target"`
	Saved            float64      `json:"saved"`
	Remaining        float64      `json:"remaining"`
	ProgressPercent  float64      `json:"progress_percent"`
	MonthsToComplete Opt[float64] `json:"months_to_complete"`
}

type GoalPlanningPayload struct {
	Currency        string         `json:"currency"`
	ActiveGoals     int            `json:"active_goals"`
	CompletedGoals  int            `json:"completed_goals"`
	TotalTarget     float64        `json:"total_target"`
	TotalSaved      float64        `json:"total_saved"`
	OverallProgress float64        `json:"overall_progress"`
	MonthlySurplus  float64        `json:"monthly_surplus"`
	Goals           []GoalProgress `json:"goals"`
}

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

type RiskPayload struct {
	Currency                string   `json:"currency"`
	MonthlyIncome           float64  `json:"monthly_income"`
	MonthlyExpenses         float64  `json:"monthly_expenses"`
	NetCashFlow             float64  `json:"net_cash_flow"`
	CashFlowPositive        bool     `json:"cash_flow_positive"`
	EmergencyFundTarget     float64  `json:"emergency_fund_target"`
	LiquidSavings           float64  `json:"liquid_savings"`
	EmergencyCoverageMonths float64  `json:"emergency_coverage_months"`
	TotalDebt               float64  `json:"total_debt"`
	DebtToIncome            float64  `json:"debt_to_income"`
	RiskLevel               string   `json:"risk_level"`
	Recommendations         []string `json:"recommendations"`
}
