package classifier

import (
	"regexp"

	"FinAdvisor/internal/domain/models"
)

// Rule maps keyword patterns to a fixed classification. Patterns are matched
// against normalized text; any pattern matching selects the rule.
type Rule struct {
	Name     string
	Patterns []*regexp.Regexp
	Result   models.QueryClassification
}

// Matches reports whether normalized text triggers the rule.
func (r Rule) Matches(text string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// NewRule compiles patterns. Arabic letters in patterns are folded the same
// way as input text, so patterns may be written with any spelling. Arabic
// keyword lists go through ArabicWords so they never match inside a word.
func NewRule(name string, result models.QueryClassification, patterns ...string) Rule {
	r := Rule{Name: name, Result: result}
	for _, p := range patterns {
		r.Patterns = append(r.Patterns, regexp.MustCompile(foldArabic(p)))
	}
	return r
}

func quick(ctx string, p models.Priority, tools ...models.ToolName) models.QueryClassification {
	return models.NewClassification(models.QueryQuickValue, []string{ctx}, p, models.ResponseValue, tools)
}

// DefaultRules is the fast-path table in priority order: greeting, news,
// personal finance, bank product research, then market data. First match wins.
func DefaultRules() []Rule {
	return []Rule{
		NewRule("greeting",
			models.NewClassification(models.QueryGreeting, nil, models.PriorityLow, models.ResponseBrief, nil),
			`^(hi|hello|hey|hiya|greetings|good (morning|afternoon|evening)|salam|assalamu alaikum)[\s!.,]*$`,
			`^(مرحبا|مرحباً|اهلا|أهلا وسهلا|السلام عليكم|سلام|صباح الخير|مساء الخير|هاي|هلا)[\s!.,؟]*$`,
		),
		NewRule("news",
			models.NewClassification(models.QueryNewsAnalysis, []string{models.CtxNews}, models.PriorityHigh, models.ResponseDetailed,
				[]models.ToolName{models.ToolEgyptianNews, models.ToolWebSearch}),
			`\b(news|headlines?|breaking|latest developments?|what happened)\b`,
			ArabicWords(`أخبار|خبر|عاجل|مستجدات|آخر التطورات|ايه الجديد`),
		),
		NewRule("income_expenses",
			quick(models.CtxPersonalFinance, models.PriorityHigh, models.ToolRiskAnalysis),
			`\bmy (income|salary|salaries|expenses?|spending|budget|cash ?flow)\b`,
			`\bhow much (do|did) i (earn|make|spend)\b`,
			ArabicWords(`دخلي|راتبي|مرتبي|مصروفاتي|مصاريفي|نفقاتي|ميزانيتي|دخل الشهري`),
		),
		NewRule("debts",
			quick(models.CtxDebts, models.PriorityHigh, models.ToolRiskAnalysis),
			`\bmy (debts?|loans?|mortgage|credit cards?|installments?)\b`,
			`\bhow much do i owe\b`,
			ArabicWords(`ديوني|قروضي|قرضي|أقساطي|مديونيتي`),
		),
		NewRule("deposits",
			quick(models.CtxDeposits, models.PriorityMedium),
			`\bmy (deposits?|savings|certificates?|cds?)\b`,
			ArabicWords(`ودائعي|وديعتي|شهاداتي|مدخراتي|توفيري`),
		),
		NewRule("goals",
			quick(models.CtxGoals, models.PriorityMedium, models.ToolGoalPlanning),
			`\bmy (financial )?(goals?|targets?)\b`,
			`\bgoal progress\b`,
			ArabicWords(`أهدافي|هدفي|أهداف المالية`),
		),
		NewRule("portfolio",
			quick(models.CtxPortfolio, models.PriorityHigh, models.ToolPortfolioAnalysis),
			`\bmy (portfolio|assets|holdings|investments|net worth)\b`,
			ArabicWords(`محفظتي|أصولي|استثماراتي|ثروتي|صافي ثروتي`),
		),
		NewRule("product_research",
			models.NewClassification(models.QueryProductResearch, []string{models.CtxBanks, models.CtxFunds}, models.PriorityMedium, models.ResponseDetailed,
				[]models.ToolName{models.ToolWebSearch}),
			`\b(investment|mutual|bank|money market) funds?\b`,
			`\b(bank )?(savings )?certificates?\b`,
			`\bsavings accounts?\b|\bbank (products?|offers?)\b`,
			ArabicWords(`صناديق|صندوق استثمار|صندوق الاستثمار|شهادات|شهادة ادخار|حساب توفير|منتجات بنكية|عروض البنوك`),
		),
		NewRule("gold",
			quick(models.CtxGold, models.PriorityMedium),
			`\bgold\b`,
			ArabicWords(`ذهب|دهب|عيار ?(٢١|٢٤|١٨|21|24|18)|جرام الذهب`),
		),
		NewRule("stocks",
			quick(models.CtxStocks, models.PriorityMedium),
			`\b(stocks?|shares?|egx ?30|tasi|dfm|nasdaq|s&p|dow jones|stock market)\b`,
			ArabicWords(`أسهم|سهم|البورصة|مؤشر|مؤشرات`),
		),
		NewRule("funds",
			quick(models.CtxFunds, models.PriorityMedium),
			`\b(etfs?|nav|fund prices?)\b`,
			ArabicWords(`وثائق|صندوق`),
		),
		NewRule("crypto",
			quick(models.CtxCrypto, models.PriorityMedium),
			`\b(bitcoin|btc|ethereum|eth|crypto(currency|currencies)?|usdt)\b`,
			ArabicWords(`بيتكوين|بتكوين|عملات رقمية|عملات مشفرة|كريبتو|إيثريوم`),
		),
		NewRule("currency",
			quick(models.CtxCurrency, models.PriorityMedium),
			`\b(exchange rates?|dollar|usd|euro|eur|riyal|dirham|dinar|forex|fx)\b`,
			ArabicWords(`دولار|يورو|سعر الصرف|ريال|درهم|دينار|جنيه|عملة|عملات`),
		),
	}
}
