package classifier

import (
	"fmt"
	"strings"

	"FinAdvisor/internal/domain/models"
)

const instructions = `You classify personal-finance questions for a financial assistant.
Reply with ONE JSON object and nothing else:
{"type": "...", "context": ["..."], "priority": "low|medium|high", "responseType": "brief|value|medium|detailed", "toolsNeeded": ["..."]}

Valid type values: %s.
Valid context tags: %s.
Valid tools: %s.

Rules:
- egyptian_news is for current events and market news in Egypt and the region.
- web_search is for bank products, funds, certificates, rates offered by institutions, and anything that needs current public information.
- portfolio_analysis, goal_planning and risk_analysis read the user's own data.
- Use "value" when the user wants a single number, "brief" for a short answer, "detailed" for comparisons and advice.
- Any question about funds ("صناديق") is product_research and needs web_search.

Examples:
"what is the best savings certificate in Egypt now?" -> {"type":"product_research","context":["banks","savings"],"priority":"medium","responseType":"detailed","toolsNeeded":["web_search"]}
"ما هي أفضل صناديق الاستثمار في البنوك المصرية؟" -> {"type":"product_research","context":["funds","banks"],"priority":"medium","responseType":"detailed","toolsNeeded":["web_search"]}
"is my portfolio diversified enough?" -> {"type":"portfolio_analysis","context":["portfolio"],"priority":"high","responseType":"detailed","toolsNeeded":["portfolio_analysis"]}
"هل أقدر أحقق هدف شراء شقة خلال ٣ سنين؟" -> {"type":"investment_advice","context":["goals","real_estate"],"priority":"high","responseType":"detailed","toolsNeeded":["goal_planning","risk_analysis"]}
"how did the EGX30 react to the rate decision?" -> {"type":"news_analysis","context":["stocks","news"],"priority":"high","responseType":"detailed","toolsNeeded":["egyptian_news","web_search"]}
"write me a short poem about saving" -> {"type":"general_financial","context":[],"priority":"low","responseType":"brief","toolsNeeded":[]}`

func systemPrompt() string {
	types := []string{
		string(models.QueryGreeting), string(models.QueryQuickValue), string(models.QueryProductResearch),
		string(models.QueryInvestmentAdvice), string(models.QueryNewsAnalysis), string(models.QueryPortfolioAnalysis),
		string(models.QueryMarketResearch), string(models.QueryGeneralFinancial),
	}
	tools := make([]string, len(models.KnownTools))
	for i, t := range models.KnownTools {
		tools[i] = string(t)
	}
	return fmt.Sprintf(instructions,
		strings.Join(types, ", "),
		strings.Join(models.ContextVocabulary, ", "),
		strings.Join(tools, ", "),
	)
}

func userPrompt(message, locale string) string {
	if locale == "" {
		return message
	}
	return fmt.Sprintf("[locale: %s]\n%s", locale, message)
}
