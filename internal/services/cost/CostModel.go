package cost

import (
	"github.com/shopspring/decimal"

	"EquityPaperBot/config"
	"EquityPaperBot/internal/models"
)

// Model converts a nominal fill price into an effective fill price and a
// brokerage fee. It is fully deterministic: identical inputs always produce
// identical fills, which keeps backtests reproducible. All arithmetic runs
// in decimal space and is rounded before re-entering float space.
type Model struct {
	spread   decimal.Decimal
	impact   decimal.Decimal
	feeFixed decimal.Decimal
	feeProp  decimal.Decimal

	liquidityThreshold float64
}

func NewModel(cfg config.CostConfig) *Model {
	return &Model{
		spread:             decimal.NewFromFloat(cfg.SpreadFraction),
		impact:             decimal.NewFromFloat(cfg.IlliquidImpact),
		feeFixed:           decimal.NewFromFloat(cfg.FeeFixed),
		feeProp:            decimal.NewFromFloat(cfg.FeeProportional),
		liquidityThreshold: cfg.LiquidityThreshold,
	}
}

// Classify buckets an instrument by average daily turnover. Liquid names
// get spread-based slippage, illiquid ones a volume-impact term.
func (m *Model) Classify(inst models.Instrument) string {
	if inst.AvgDailyVolume >= m.liquidityThreshold {
		return models.LiquidityClassLiquid
	}
	return models.LiquidityClassIlliquid
}

// Fill returns the effective price for a fill and the brokerage fee on the
// filled notional. Buys slip up, sells slip down.
func (m *Model) Fill(nominal float64, buy bool, shares float64, liquidity string) (price float64, fee float64) {
	p := decimal.NewFromFloat(nominal)

	slip := p.Mul(m.spread).Div(decimal.NewFromInt(2))
	if liquidity == models.LiquidityClassIlliquid {
		slip = p.Mul(m.impact)
	}
	if buy {
		p = p.Add(slip)
	} else {
		p = p.Sub(slip)
	}
	p = p.Round(4)

	notional := p.Mul(decimal.NewFromFloat(shares))
	f := m.feeFixed.Add(notional.Mul(m.feeProp)).Round(2)

	price, _ = p.Float64()
	fee, _ = f.Float64()
	return price, fee
}

// EntryFill prices the opening fill for a position side.
func (m *Model) EntryFill(nominal float64, side string, shares float64, liquidity string) (float64, float64) {
	return m.Fill(nominal, side == models.PositionSideLong, shares, liquidity)
}

// ExitFill prices the closing fill for a position side.
func (m *Model) ExitFill(nominal float64, side string, shares float64, liquidity string) (float64, float64) {
	return m.Fill(nominal, side == models.PositionSideShort, shares, liquidity)
}
