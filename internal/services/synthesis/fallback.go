package synthesis

import (
	"fmt"
	"strings"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/services/currency"
	"FinAdvisor/internal/services/tools"
	xutil "FinAdvisor/pkg/util"
)

const (
	apologyEN = "Sorry, I couldn't process your request right now. Please try again in a moment."
	apologyAR = "عذراً، لم أتمكن من معالجة طلبك الآن. يرجى المحاولة مرة أخرى بعد قليل."

	noOfferingsEN = "I couldn't confirm current offerings from live sources right now, so please verify rates and terms directly with the bank before deciding."
	noOfferingsAR = "لم أتمكن من تأكيد العروض الحالية من مصادر مباشرة الآن، لذا يرجى التحقق من الأسعار والشروط مباشرة مع البنك قبل اتخاذ القرار."
)

// Apology is the user-facing failure message in the message's language.
func Apology(message string) string {
	if xutil.ContainsArabic(message) {
		return apologyAR
	}
	return apologyEN
}

// NoOfferingsNotice states that live offerings could not be confirmed.
func NoOfferingsNotice(message string) string {
	if xutil.ContainsArabic(message) {
		return noOfferingsAR
	}
	return noOfferingsEN
}

// Totals are the headline figures of a user snapshot in one currency.
type Totals struct {
	Currency        string
	MonthlyIncome   float64
	MonthlyExpenses float64
	NetCashFlow     float64
	Assets          float64
	Deposits        float64
	Debts           float64
	NetWorth        float64
	ActiveGoals     int
}

// ComputeTotals derives Totals through the same arithmetic the tools use.
func ComputeTotals(snap *models.UserSnapshot, rates *currency.Graph) Totals {
	in := tools.Input{Snapshot: snap, Rates: rates}
	risk := tools.AssessRisk(in)
	portfolio := tools.AnalyzePortfolio(in)
	goals := tools.PlanGoals(in)

	t := Totals{
		Currency:        risk.Currency,
		MonthlyIncome:   risk.MonthlyIncome,
		MonthlyExpenses: risk.MonthlyExpenses,
		NetCashFlow:     risk.NetCashFlow,
		Assets:          portfolio.TotalValue,
		Debts:           risk.TotalDebt,
		ActiveGoals:     goals.ActiveGoals,
	}
	if snap != nil {
		g := rates
		if g == nil {
			g = currency.NewGraph(nil, t.Currency)
		}
		for _, d := range snap.Deposits {
			from := d.Currency
			if from == "" {
				from = t.Currency
			}
			t.Deposits += g.Convert(d.Amount, from, t.Currency)
		}
	}
	t.NetWorth = t.Assets + t.Deposits - t.Debts
	return t
}

// QuickAnswer renders the snapshot headline figures, or false when the
// snapshot has nothing to report.
func QuickAnswer(message string, snap *models.UserSnapshot, rates *currency.Graph) (string, bool) {
	if snap.IsEmpty() {
		return "", false
	}
	t := ComputeTotals(snap, rates)
	f := func(v float64) string { return currency.Format(v, t.Currency) }

	var b strings.Builder
	if xutil.ContainsArabic(message) {
		b.WriteString("ملخص وضعك المالي:\n")
		fmt.Fprintf(&b, "- إجمالي الدخل الشهري: %s\n", f(t.MonthlyIncome))
		fmt.Fprintf(&b, "- إجمالي المصروفات الشهرية: %s\n", f(t.MonthlyExpenses))
		fmt.Fprintf(&b, "- صافي الثروة: %s\n", f(t.NetWorth))
		fmt.Fprintf(&b, "- إجمالي الديون: %s", f(t.Debts))
	} else {
		b.WriteString("Your financial snapshot:\n")
		fmt.Fprintf(&b, "- Total monthly income: %s\n", f(t.MonthlyIncome))
		fmt.Fprintf(&b, "- Total monthly expenses: %s\n", f(t.MonthlyExpenses))
		fmt.Fprintf(&b, "- Net worth: %s\n", f(t.NetWorth))
		fmt.Fprintf(&b, "- Total debts: %s", f(t.Debts))
	}
	return b.String(), true
}

// isQuick reports whether a failed synthesis may be answered from the snapshot.
func isQuick(c models.QueryClassification) bool {
	return c.Type() == models.QueryQuickValue ||
		c.ResponseType() == models.ResponseValue ||
		c.HasAnyContext(models.CtxPersonalFinance, models.CtxDebts, models.CtxDeposits, models.CtxGoals)
}
