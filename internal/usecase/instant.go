package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/services/currency"
	"FinAdvisor/internal/services/marketdata"
	"FinAdvisor/internal/services/synthesis"
	"FinAdvisor/internal/services/tools"
	xutil "FinAdvisor/pkg/util"
)

const instantRowLimit = 10

var (
	greetingsEN = []string{
		"Hello! I'm your financial assistant. Ask me about your budget, debts, goals, or today's gold and market prices.",
		"Hi there! How can I help with your finances today?",
		"Welcome! I can check market prices, review your portfolio, or help plan your savings goals.",
	}
	greetingsAR = []string{
		"أهلاً بك! أنا مساعدك المالي. اسألني عن ميزانيتك أو ديونك أو أهدافك أو أسعار الذهب والأسواق.",
		"مرحباً! كيف يمكنني مساعدتك في أمورك المالية اليوم؟",
		"أهلاً وسهلاً! يمكنني متابعة أسعار السوق أو مراجعة محفظتك أو مساعدتك في التخطيط لأهداف الادخار.",
	}
)

// Greeting returns one of the fixed greetings in the message's language.
func Greeting(message string) string {
	if xutil.ContainsArabic(message) {
		return greetingsAR[rand.IntN(len(greetingsAR))]
	}
	return greetingsEN[rand.IntN(len(greetingsEN))]
}

// instantMarket maps quick-lookup contexts to the table that answers them.
var instantMarket = []struct {
	ctx string
	cat func(country string) models.MarketCategory
}{
	{models.CtxGold, fixed(models.CategoryGoldPrices)},
	{models.CtxCurrency, fixed(models.CategoryCurrencyRates)},
	{models.CtxCrypto, fixed(models.CategoryCrypto)},
	{models.CtxFunds, fixed(models.CategoryInvestmentFunds)},
	{models.CtxStocks, func(country string) models.MarketCategory {
		if c, ok := models.StockCategoryForCountry(country); ok {
			return c
		}
		c, _ := models.StockCategoryForCountry(marketdata.DefaultCountry)
		return c
	}},
}

func fixed(c models.MarketCategory) func(string) models.MarketCategory {
	return func(string) models.MarketCategory { return c }
}

// InstantResponder answers quick lookups from stored data with fixed templates.
type InstantResponder struct {
	market domrepo.TableReader
}

func NewInstantResponder(market domrepo.TableReader) *InstantResponder {
	return &InstantResponder{market: market}
}

// Answer renders a templated answer. It reports false when the stored data
// cannot answer the question, so the caller can escalate.
func (r *InstantResponder) Answer(ctx context.Context, message string, c models.QueryClassification, snap *models.UserSnapshot, rates *currency.Graph) (string, bool, error) {
	if c.Type() == models.QueryGreeting {
		return Greeting(message), true, nil
	}
	arabic := xutil.ContainsArabic(message)
	in := tools.Input{Message: message, Snapshot: snap, Rates: rates}

	switch {
	case c.HasContext(models.CtxDebts):
		return debtsAnswer(in, arabic)
	case c.HasContext(models.CtxDeposits):
		return depositsAnswer(in, arabic)
	case c.HasContext(models.CtxGoals):
		return goalsAnswer(in, arabic)
	case c.HasContext(models.CtxPortfolio):
		return portfolioAnswer(in, arabic)
	case c.HasContext(models.CtxPersonalFinance):
		text, ok := synthesis.QuickAnswer(message, snap, rates)
		return text, ok, nil
	}

	country := ""
	if snap != nil {
		country = snap.Settings.Country
	}
	for _, m := range instantMarket {
		if c.HasContext(m.ctx) {
			return r.marketAnswer(ctx, m.cat(country), arabic)
		}
	}
	return "", false, nil
}

func (r *InstantResponder) marketAnswer(ctx context.Context, cat models.MarketCategory, arabic bool) (string, bool, error) {
	if r.market == nil {
		return "", false, nil
	}
	rows, err := r.market.Select(ctx, domrepo.MarketTable(cat), domrepo.Query{Limit: instantRowLimit})
	if err != nil {
		return "", false, fmt.Errorf("instant %s: %w", cat, err)
	}
	decoded := marketdata.DecodeRows(cat, rows)
	if len(decoded) == 0 {
		return "", false, nil
	}

	var b strings.Builder
	b.WriteString(marketTitle(cat, arabic))
	for i, row := range decoded {
		if i >= instantRowLimit {
			break
		}
		b.WriteString("\n• ")
		if g, ok := row.(models.GoldRow); ok {
			b.WriteString(goldLine(g, arabic))
			continue
		}
		b.WriteString(marketdata.RenderRow(row))
	}
	return b.String(), true, nil
}

func marketTitle(cat models.MarketCategory, arabic bool) string {
	titles := map[models.MarketCategory][2]string{
		models.CategoryGoldPrices:      {"💰 Current gold prices:", "💰 أسعار الذهب الحالية:"},
		models.CategoryCurrencyRates:   {"💱 Current exchange rates:", "💱 أسعار الصرف الحالية:"},
		models.CategoryCrypto:          {"🪙 Cryptocurrency prices:", "🪙 أسعار العملات المشفرة:"},
		models.CategoryInvestmentFunds: {"📊 Investment funds:", "📊 صناديق الاستثمار:"},
	}
	t, ok := titles[cat]
	if !ok {
		t = [2]string{"📈 Latest stock prices:", "📈 أحدث أسعار الأسهم:"}
	}
	if arabic {
		return t[1]
	}
	return t[0]
}

func goldLine(g models.GoldRow, arabic bool) string {
	buy := currency.Format(g.BuyPrice, g.Currency)
	sell, hasSell := g.SellPrice.Get()
	if arabic {
		line := fmt.Sprintf("%s: شراء %s", arabicKarat(g.Karat), buy)
		if hasSell {
			line += "، بيع " + currency.Format(sell, g.Currency)
		}
		return line
	}
	line := fmt.Sprintf("%s: buy %s", g.Karat, buy)
	if hasSell {
		line += ", sell " + currency.Format(sell, g.Currency)
	}
	return line
}

func arabicKarat(karat string) string {
	k := strings.ToLower(strings.TrimSpace(karat))
	k = strings.TrimSuffix(strings.TrimSuffix(k, "k"), " karat")
	if k != "" && strings.Trim(k, "0123456789") == "" {
		return "عيار " + k
	}
	return karat
}

func debtsAnswer(in tools.Input, arabic bool) (string, bool, error) {
	if in.Snapshot == nil || len(in.Snapshot.Debts) == 0 {
		return pick(arabic, "You have no recorded debts. 🎉", "لا توجد لديك ديون مسجلة. 🎉"), true, nil
	}
	risk := tools.AssessRisk(in)
	f := func(v float64) string { return currency.Format(v, risk.Currency) }

	var b strings.Builder
	b.WriteString(pick(arabic, "💳 Your debts:", "💳 ديونك:"))
	for _, d := range in.Snapshot.Debts {
		fmt.Fprintf(&b, "\n• %s: %s", d.Name, currency.Format(d.Amount, firstCode(d.Currency, risk.Currency)))
		if d.MonthlyPayment > 0 {
			fmt.Fprintf(&b, pick(arabic, " (monthly %s)", " (شهرياً %s)"), currency.Format(d.MonthlyPayment, firstCode(d.Currency, risk.Currency)))
		}
	}
	fmt.Fprintf(&b, pick(arabic, "\nTotal debt: %s", "\nإجمالي الديون: %s"), f(risk.TotalDebt))
	if risk.MonthlyIncome > 0 {
		fmt.Fprintf(&b, pick(arabic, "\nDebt-to-income ratio: %.1f%%", "\nنسبة الدين إلى الدخل: %.1f%%"), risk.DebtToIncome)
	}
	return b.String(), true, nil
}

func depositsAnswer(in tools.Input, arabic bool) (string, bool, error) {
	if in.Snapshot == nil || len(in.Snapshot.Deposits) == 0 {
		return pick(arabic, "You have no recorded deposits or certificates.", "لا توجد لديك ودائع أو شهادات مسجلة."), true, nil
	}
	target := in.Currency()
	g := in.Rates
	if g == nil {
		g = currency.NewGraph(nil, target)
	}

	var b strings.Builder
	b.WriteString(pick(arabic, "🏦 Your deposits:", "🏦 ودائعك:"))
	total := 0.0
	for _, d := range in.Snapshot.Deposits {
		code := firstCode(d.Currency, target)
		fmt.Fprintf(&b, "\n• %s %s: %s", d.Bank, d.Type, currency.Format(d.Amount, code))
		if d.InterestRate > 0 {
			fmt.Fprintf(&b, pick(arabic, " at %.2f%%", " بعائد %.2f%%"), d.InterestRate)
		}
		if m, ok := d.MaturityDate.Get(); ok {
			fmt.Fprintf(&b, pick(arabic, ", matures %s", "، تستحق %s"), m.Format("2006-01-02"))
		}
		total += g.Convert(d.Amount, code, target)
	}
	fmt.Fprintf(&b, pick(arabic, "\nTotal: %s", "\nالإجمالي: %s"), currency.Format(total, target))
	return b.String(), true, nil
}

func goalsAnswer(in tools.Input, arabic bool) (string, bool, error) {
	if in.Snapshot == nil || len(in.Snapshot.Goals) == 0 {
		return pick(arabic, "You haven't set any financial goals yet.", "لم تقم بتحديد أي أهداف مالية بعد."), true, nil
	}
	plan := tools.PlanGoals(in)

	var b strings.Builder
	b.WriteString(pick(arabic, "🎯 Your goals:", "🎯 أهدافك:"))
	for _, g := range plan.Goals {
		fmt.Fprintf(&b, "\n• %s: %.0f%% (%s / %s)", g.Name, g.ProgressPercent,
			currency.Format(g.Saved, plan.Currency), currency.Format(g.Target, plan.Currency))
		if months, ok := g.MonthsToComplete.Get(); ok {
			fmt.Fprintf(&b, pick(arabic, ", about %.1f months left", "، حوالي %.1f شهر متبقي"), months)
		}
	}
	fmt.Fprintf(&b, pick(arabic, "\nCompleted goals: %d", "\nالأهداف المكتملة: %d"), plan.CompletedGoals)
	return b.String(), true, nil
}

func portfolioAnswer(in tools.Input, arabic bool) (string, bool, error) {
	if in.Snapshot == nil || len(in.Snapshot.Assets) == 0 {
		return pick(arabic, "You have no recorded assets yet.", "لا توجد لديك أصول مسجلة بعد."), true, nil
	}
	p := tools.AnalyzePortfolio(in)
	f := func(v float64) string { return currency.Format(v, p.Currency) }

	var b strings.Builder
	b.WriteString(pick(arabic, "📊 Your portfolio:", "📊 محفظتك:"))
	for _, h := range p.Holdings {
		fmt.Fprintf(&b, "\n• %s: %s (%+.2f%%)", h.Name, f(h.CurrentValue), h.GainLossPercent)
	}
	fmt.Fprintf(&b, pick(arabic, "\nTotal value: %s", "\nالقيمة الإجمالية: %s"), f(p.TotalValue))
	fmt.Fprintf(&b, pick(arabic, "\nGain/loss: %s (%+.2f%%)", "\nالربح/الخسارة: %s (%+.2f%%)"), f(p.TotalGainLoss), p.TotalGainLossPercent)
	if !p.AllRatesVerified {
		b.WriteString(pick(arabic, "\n⚠️ Some values use unverified exchange rates.", "\n⚠️ بعض القيم تستخدم أسعار صرف غير مؤكدة."))
	}
	return b.String(), true, nil
}

func pick(arabic bool, en, ar string) string {
	if arabic {
		return ar
	}
	return en
}

func firstCode(code, def string) string {
	if code = strings.TrimSpace(code); code != "" {
		return strings.ToUpper(code)
	}
	return def
}
