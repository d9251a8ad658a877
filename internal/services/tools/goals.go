package tools

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"FinAdvisor/internal/domain/models"
)

var errNoGoals = errors.New("no financial goals")

// GoalPlanningTool reports progress toward the user's savings goals.
type GoalPlanningTool struct{}

func NewGoalPlanningTool() *GoalPlanningTool { return &GoalPlanningTool{} }

func (t *GoalPlanningTool) Name() models.ToolName { return models.ToolGoalPlanning }

func (t *GoalPlanningTool) Run(_ context.Context, in Input) (any, error) {
	if in.Snapshot == nil || len(in.Snapshot.Goals) == 0 {
		return nil, errNoGoals
	}
	return PlanGoals(in), nil
}

// PlanGoals summarizes active and completed goals. Months to complete are
// only estimated when the monthly surplus is positive.
func PlanGoals(in Input) models.GoalPlanningPayload {
	conv := newConverter(in)
	income, expenses := conv.monthlyCashFlow(in.Snapshot)
	surplus := income.Sub(expenses)

	p := models.GoalPlanningPayload{
		Currency:       conv.target,
		MonthlySurplus: round2(surplus),
	}
	if in.Snapshot == nil {
		return p
	}

	var totalTarget, totalSaved decimal.Decimal
	for _, g := range in.Snapshot.Goals {
		target := conv.float(g.TargetAmount, g.Currency)
		saved := conv.float(g.CurrentAmount, g.Currency)

		if normKey(g.Status) == models.GoalCompleted || (target.IsPositive() && saved.GreaterThanOrEqual(target)) {
			p.CompletedGoals++
			continue
		}
		if s := normKey(g.Status); s != "" && s != models.GoalActive {
			continue
		}
		p.ActiveGoals++

		remaining := decimal.Max(target.Sub(saved), decimal.Zero)
		progress := decimal.Min(percent(saved, target), hundred)
		gp := models.GoalProgress{
			Name:            g.Name,
			Target:          round2(target),
			Saved:           round2(saved),
			Remaining:       round2(remaining),
			ProgressPercent: round2(progress),
		}
		if surplus.IsPositive() {
			months := remaining.Div(surplus).Round(1)
			gp.MonthsToComplete = models.Some(months.InexactFloat64())
		}
		p.Goals = append(p.Goals, gp)

		totalTarget = totalTarget.Add(target)
		totalSaved = totalSaved.Add(saved)
	}

	p.TotalTarget = round2(totalTarget)
	p.TotalSaved = round2(totalSaved)
	p.OverallProgress = round2(percent(totalSaved, totalTarget))
	return p
}
