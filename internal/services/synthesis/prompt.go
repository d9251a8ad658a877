package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/services/currency"
	xutil "FinAdvisor/pkg/util"
)

const simpleInstruction = `You are a helpful personal finance assistant for users in Egypt and the Gulf region.
Answer concisely and accurately. If the question needs live prices or news you do not have, say so instead of guessing.
Reply in the same language as the user.`

const dataRules = `DATA RULES:
- Quote figures exactly as they appear in the data above. Never round, estimate or invent numbers.
- Always state the currency next to every amount.
- Do not recompute values. The only allowed calculation is real estate pricing: price_per_meter × requested area.
- If the data needed is missing, say it is unavailable.`

const citationRules = `CITATION PROTOCOL:
- Every fact taken from the web search results must end with a tag [SOURCE:Title|URL].
- Copy Title and URL exactly from the allowed list below. Never write any other URL.`

// SystemPrompt builds the grounding instruction for a detailed answer.
func SystemPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("You are a personal finance advisor. Ground every statement in the data sections below.\n")
	if xutil.ContainsArabic(in.Message) {
		b.WriteString("Reply in Arabic.\n")
	} else {
		b.WriteString("Reply in English.\n")
	}
	fmt.Fprintf(&b, "Answer style: %s.\n\n", in.Classification.ResponseType())

	b.WriteString("USER PROFILE:\n")
	b.WriteString(profileSummary(in.Snapshot, in.Rates))
	b.WriteString("\n\n")

	if in.MarketSummary != "" {
		b.WriteString("MARKET DATA:\n")
		b.WriteString(in.MarketSummary)
		b.WriteString("\n\n")
	}

	b.WriteString(dataRules)
	b.WriteString("\n\n")

	if section := toolSections(in); section != "" {
		b.WriteString("TOOL RESULTS:\n")
		b.WriteString(section)
		b.WriteString("\n")
	}

	if in.Tools.Failed(models.ToolWebSearch) {
		b.WriteString("Live web search failed. State clearly that you cannot confirm current offerings and do not cite any source.\n\n")
	}

	if sources := AllowedSources(in.Tools); len(sources) > 0 {
		b.WriteString(citationRules)
		b.WriteString("\nALLOWED SOURCES:\n")
		for i, s := range sources {
			fmt.Fprintf(&b, "%d. %s | %s\n", i+1, s.Title, s.URL)
		}
	}
	return strings.TrimSpace(b.String())
}

func profileSummary(snap *models.UserSnapshot, rates *currency.Graph) string {
	if snap.IsEmpty() {
		if snap != nil && snap.Settings.Currency != "" {
			return "No financial records. Preferred currency: " + snap.Settings.Currency
		}
		return "No financial records."
	}
	t := ComputeTotals(snap, rates)
	f := func(v float64) string { return currency.Format(v, t.Currency) }

	lines := []string{
		"Currency: " + t.Currency,
		"Monthly income: " + f(t.MonthlyIncome),
		"Monthly expenses: " + f(t.MonthlyExpenses),
		"Net cash flow: " + f(t.NetCashFlow),
		"Assets value: " + f(t.Assets),
		"Deposits: " + f(t.Deposits),
		"Debts: " + f(t.Debts),
		"Net worth: " + f(t.NetWorth),
		fmt.Sprintf("Active goals: %d", t.ActiveGoals),
	}
	if snap.Settings.Country != "" {
		lines = append(lines, "Country: "+snap.Settings.Country)
	}
	return strings.Join(lines, "\n")
}

func toolSections(in Input) string {
	var b strings.Builder
	for _, name := range models.KnownTools {
		r, ok := in.Tools[name]
		if !ok {
			continue
		}
		if !r.Success {
			fmt.Fprintf(&b, "[%s] unavailable\n", name)
			continue
		}
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n%s\n", name, xutil.TruncateRunes(string(payload), maxToolRunes))
	}
	return b.String()
}
