package tools

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"FinAdvisor/internal/domain/models"
)

const minDiversifiedTypes = 3

var errNoAssets = errors.New("no assets in portfolio")

// PortfolioTool values the user's holdings in their reporting currency.
type PortfolioTool struct{}

func NewPortfolioTool() *PortfolioTool { return &PortfolioTool{} }

func (t *PortfolioTool) Name() models.ToolName { return models.ToolPortfolioAnalysis }

func (t *PortfolioTool) Run(_ context.Context, in Input) (any, error) {
	if in.Snapshot == nil || len(in.Snapshot.Assets) == 0 {
		return nil, errNoAssets
	}
	return AnalyzePortfolio(in), nil
}

// AnalyzePortfolio is the pure valuation behind PortfolioTool.
func AnalyzePortfolio(in Input) models.PortfolioPayload {
	conv := newConverter(in)
	p := models.PortfolioPayload{Currency: conv.target}

	var (
		totalCurrent  decimal.Decimal
		totalPurchase decimal.Decimal
		byType        = make(map[string]decimal.Decimal)
		countries     = make(map[string]bool)
	)
	var assets []models.Asset
	if in.Snapshot != nil {
		assets = in.Snapshot.Assets
	}

	for _, a := range assets {
		qty := decimal.NewFromFloat(a.Quantity)
		current, okCurrent := conv.convert(qty.Mul(decimal.NewFromFloat(a.CurrentPrice)), a.Currency)
		purchase, okPurchase := conv.convert(qty.Mul(decimal.NewFromFloat(a.PurchasePrice)), a.Currency)

		gain := current.Sub(purchase)
		p.Holdings = append(p.Holdings, models.HoldingValuation{
			Name:            a.Name,
			Type:            a.Type,
			Country:         a.Country,
			CurrentValue:    round2(current),
			PurchaseValue:   round2(purchase),
			GainLoss:        round2(gain),
			GainLossPercent: round2(percent(gain, purchase)),
			RateVerified:    okCurrent && okPurchase,
		})

		totalCurrent = totalCurrent.Add(current)
		totalPurchase = totalPurchase.Add(purchase)
		if k := normKey(a.Type); k != "" {
			byType[k] = byType[k].Add(current)
		}
		if k := normKey(a.Country); k != "" {
			countries[k] = true
		}
	}

	gain := totalCurrent.Sub(totalPurchase)
	p.TotalValue = round2(totalCurrent)
	p.TotalPurchaseValue = round2(totalPurchase)
	p.TotalGainLoss = round2(gain)
	p.TotalGainLossPercent = round2(percent(gain, totalPurchase))
	p.AllRatesVerified = conv.verified

	shares := make(map[string]float64, len(byType))
	for k, v := range byType {
		shares[k] = round2(percent(v, totalCurrent))
	}
	p.Diversification = models.Diversification{
		AssetTypes:      len(byType),
		Countries:       len(countries),
		WellDiversified: len(byType) >= minDiversifiedTypes,
		ByType:          shares,
	}
	return p
}
