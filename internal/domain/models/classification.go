package models

import "slices"

type QueryType string

const (
	QueryGreeting          QueryType = "greeting"
	QueryQuickValue        QueryType = "quick_value"
	QueryProductResearch   QueryType = "product_research"
	QueryInvestmentAdvice  QueryType = "investment_advice"
	QueryNewsAnalysis      QueryType = "news_analysis"
	QueryPortfolioAnalysis QueryType = "portfolio_analysis"
	QueryMarketResearch    QueryType = "market_research"
	QueryGeneralFinancial  QueryType = "general_financial"
)

var queryTypes = []QueryType{
	QueryGreeting, QueryQuickValue, QueryProductResearch, QueryInvestmentAdvice,
	QueryNewsAnalysis, QueryPortfolioAnalysis, QueryMarketResearch, QueryGeneralFinancial,
}

// Valid reports whether t is one of the known query types.
func (t QueryType) Valid() bool { return slices.Contains(queryTypes, t) }

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type ResponseType string

const (
	ResponseBrief    ResponseType = "brief"
	ResponseValue    ResponseType = "value"
	ResponseMedium   ResponseType = "medium"
	ResponseDetailed ResponseType = "detailed"
)

func (r ResponseType) Valid() bool {
	return r == ResponseBrief || r == ResponseValue || r == ResponseMedium || r == ResponseDetailed
}

// MaxTokens is the completion budget for a response of this verbosity.
func (r ResponseType) MaxTokens() int {
	switch r {
	case ResponseBrief:
		return 150
	case ResponseValue:
		return 50
	case ResponseDetailed:
		return 800
	default:
		return 500
	}
}

type ToolName string

const (
	ToolEgyptianNews      ToolName = "egyptian_news"
	ToolWebSearch         ToolName = "web_search"
	ToolPortfolioAnalysis ToolName = "portfolio_analysis"
	ToolGoalPlanning      ToolName = "goal_planning"
	ToolRiskAnalysis      ToolName = "risk_analysis"
)

// KnownTools lists every tool in registration order.
var KnownTools = []ToolName{
	ToolEgyptianNews, ToolWebSearch, ToolPortfolioAnalysis, ToolGoalPlanning, ToolRiskAnalysis,
}

// Context vocabulary shared by the classifier, router and market selector.
const (
	CtxPersonalFinance = "personal_finance"
	CtxDebts           = "debts"
	CtxDeposits        = "deposits"
	CtxGoals           = "goals"
	CtxPortfolio       = "portfolio"
	CtxGold            = "gold"
	CtxStocks          = "stocks"
	CtxFunds           = "funds"
	CtxCrypto          = "crypto"
	CtxCurrency        = "currency"
	CtxNews            = "news"
	CtxAssets          = "assets"
	CtxBanks           = "banks"
	CtxRealEstate      = "real_estate"
	CtxProperty        = "property"
	CtxBonds           = "bonds"
	CtxETFs            = "etfs"
	CtxIndices         = "indices"
	CtxSavings         = "savings"
	CtxRisk            = "risk"
)

// ContextVocabulary lists every context tag the classifier may emit.
var ContextVocabulary = []string{
	CtxPersonalFinance, CtxDebts, CtxDeposits, CtxGoals, CtxPortfolio,
	CtxGold, CtxStocks, CtxFunds, CtxCrypto, CtxCurrency,
	CtxNews, CtxAssets, CtxBanks, CtxRealEstate, CtxProperty,
	CtxBonds, CtxETFs, CtxIndices, CtxSavings, CtxRisk,
}

// QueryClassification is the structured intent of one user message.
// Values are built once by NewClassification and not mutated afterwards;
// slice accessors return copies.
type QueryClassification struct {
	typ          QueryType
	context      []string
	priority     Priority
	responseType ResponseType
	tools        []ToolName
}

// NewClassification builds a classification, dropping duplicate context tags and tools.
func NewClassification(t QueryType, context []string, p Priority, r ResponseType, tools []ToolName) QueryClassification {
	return QueryClassification{
		typ:          t,
		context:      dedupe(context),
		priority:     p,
		responseType: r,
		tools:        dedupe(tools),
	}
}

// DefaultClassification is used whenever the model output cannot be trusted.
func DefaultClassification() QueryClassification {
	return NewClassification(QueryGeneralFinancial, nil, PriorityMedium, ResponseMedium, nil)
}

func (c QueryClassification) Type() QueryType { return c.typ }
func (c QueryClassification) Priority() Priority { return c.priority }
func (c QueryClassification) ResponseType() ResponseType { return c.responseType }
func (c QueryClassification) Context() []string { return slices.Clone(c.context) }
func (c QueryClassification) ToolsNeeded() []ToolName { return slices.Clone(c.tools) }
func (c QueryClassification) HasContext(tag string) bool { return slices.Contains(c.context, tag) }
func (c QueryClassification) NeedsTool(t ToolName) bool { return slices.Contains(c.tools, t) }

// HasAnyContext reports whether at least one of tags is present.
func (c QueryClassification) HasAnyContext(tags ...string) bool {
	for _, t := range tags {
		if c.HasContext(t) {
			return true
		}
	}
	return false
}

// WithTools returns a copy of c whose tool set is replaced.
func (c QueryClassification) WithTools(tools []ToolName) QueryClassification {
	return NewClassification(c.typ, c.context, c.priority, c.responseType, tools)
}

// ClassificationView is the JSON shape of a classification.
type ClassificationView struct {
	Type         QueryType    `json:"type"`
	Context      []string     `json:"context"`
	Priority     Priority     `json:"priority"`
	ResponseType ResponseType `json:"responseType"`
	ToolsNeeded  []ToolName   `json:"toolsNeeded"`
}

func (c QueryClassification) View() ClassificationView {
	ctx := c.Context()
	if ctx == nil {
		ctx = []string{}
	}
	tools := c.ToolsNeeded()
	if tools == nil {
		tools = []ToolName{}
	}
	return ClassificationView{
		Type:         c.typ,
		Context:      ctx,
		Priority:     c.priority,
		ResponseType: c.responseType,
		ToolsNeeded:  tools,
	}
}

func dedupe[T comparable](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
