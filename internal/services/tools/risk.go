package tools

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"FinAdvisor/internal/domain/models"
	xutil "FinAdvisor/pkg/util"
)

const emergencyMonths = 6

var (
	errNoCashFlow = errors.New("no income or expense records")

	liquidAssetTypes = map[string]bool{"cash": true, "savings": true, "money_market": true}
)

// RiskTool assesses cash flow, emergency fund and debt load.
type RiskTool struct{}

func NewRiskTool() *RiskTool { return &RiskTool{} }

func (t *RiskTool) Name() models.ToolName { return models.ToolRiskAnalysis }

func (t *RiskTool) Run(_ context.Context, in Input) (any, error) {
	if in.Snapshot == nil || len(in.Snapshot.Income)+len(in.Snapshot.Expenses) == 0 {
		return nil, errNoCashFlow
	}
	return AssessRisk(in), nil
}

// AssessRisk derives the risk profile from the snapshot.
func AssessRisk(in Input) models.RiskPayload {
	conv := newConverter(in)
	income, expenses := conv.monthlyCashFlow(in.Snapshot)
	net := income.Sub(expenses)

	var liquid, debt, debtPayments decimal.Decimal
	if s := in.Snapshot; s != nil {
		for _, d := range s.Deposits {
			liquid = liquid.Add(conv.float(d.Amount, d.Currency))
		}
		for _, a := range s.Assets {
			if liquidAssetTypes[normKey(a.Type)] {
				liquid = liquid.Add(conv.to(decimal.NewFromFloat(a.Quantity).Mul(decimal.NewFromFloat(a.CurrentPrice)), a.Currency))
			}
		}
		for _, d := range s.Debts {
			debt = debt.Add(conv.float(d.Amount, d.Currency))
			debtPayments = debtPayments.Add(conv.float(d.MonthlyPayment, d.Currency))
		}
	}

	target := expenses.Mul(decimal.NewFromInt(emergencyMonths))
	var coverage decimal.Decimal
	if expenses.IsPositive() {
		coverage = liquid.Div(expenses)
	}
	dti := percent(debtPayments, income)

	p := models.RiskPayload{
		Currency:                conv.target,
		MonthlyIncome:           round2(income),
		MonthlyExpenses:         round2(expenses),
		NetCashFlow:             round2(net),
		CashFlowPositive:        net.IsPositive(),
		EmergencyFundTarget:     round2(target),
		LiquidSavings:           round2(liquid),
		EmergencyCoverageMonths: round2(coverage),
		TotalDebt:               round2(debt),
		DebtToIncome:            round2(dti),
	}
	p.RiskLevel = riskLevel(p)
	p.Recommendations = recommendations(p, xutil.ContainsArabic(in.Message))
	return p
}

func riskLevel(p models.RiskPayload) string {
	switch {
	case !p.CashFlowPositive || p.DebtToIncome > 40 || (p.MonthlyExpenses > 0 && p.EmergencyCoverageMonths < 1):
		return models.RiskHigh
	case p.EmergencyCoverageMonths < emergencyMonths || p.DebtToIncome > 20:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func recommendations(p models.RiskPayload, arabic bool) []string {
	pick := func(en, ar string) string {
		if arabic {
			return ar
		}
		return en
	}
	var out []string
	if !p.CashFlowPositive {
		out = append(out, pick("Expenses exceed income; cut discretionary spending first.",
			"مصروفاتك أعلى من دخلك؛ ابدأ بتقليل المصروفات غير الضرورية."))
	}
	if p.EmergencyCoverageMonths < emergencyMonths {
		out = append(out, pick("Build an emergency fund covering six months of expenses.",
			"كوّن صندوق طوارئ يغطي مصروفات ستة أشهر."))
	}
	if p.DebtToIncome > 20 {
		out = append(out, pick("Prioritize paying down high-interest debt.",
			"ركّز على سداد الديون ذات الفائدة المرتفعة."))
	}
	if len(out) == 0 {
		out = append(out, pick("Your finances look stable; consider investing your surplus.",
			"وضعك المالي مستقر؛ فكّر في استثمار الفائض."))
	}
	return out
}
