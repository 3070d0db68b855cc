package metrics

import (
	"math"

	"EquityPaperBot/internal/operations/portfolio"
)

const tradingDaysPerYear = 252

// Summary holds the performance statistics derived from a run's closed
// trades and equity curve. Ratios that are undefined for the input (zero
// trades, flat or too-short curves) are NaN rather than a division panic.
type Summary struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int

	WinRate        float64
	AvgWinPct      float64
	AvgLossPct     float64
	ProfitFactor   float64
	AvgHoldingDays float64

	SharpeRatio float64
	MaxDrawdown float64
	CAGR        float64
	FinalEquity float64
	TotalPnL    float64
}

// Calculate is a pure function over the trade log and equity curve.
func Calculate(trades []portfolio.Trade, curve []portfolio.EquityPoint, initialBalance float64) Summary {
	s := Summary{
		WinRate:      math.NaN(),
		AvgWinPct:    math.NaN(),
		AvgLossPct:   math.NaN(),
		ProfitFactor: math.NaN(),
		SharpeRatio:  math.NaN(),
		CAGR:         math.NaN(),
		FinalEquity:  initialBalance,
	}

	var winPctSum, lossPctSum, grossWin, grossLoss, holdSum float64
	for _, t := range trades {
		s.TotalPnL += t.PnL
		holdSum += float64(t.HoldingDays)
		if t.PnL > 0 {
			s.WinningTrades++
			winPctSum += t.PnLPct
			grossWin += t.PnL
		} else {
			s.LosingTrades++
			lossPctSum += math.Abs(t.PnLPct)
			grossLoss += math.Abs(t.PnL)
		}
	}
	s.TotalTrades = len(trades)
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
		s.AvgHoldingDays = holdSum / float64(s.TotalTrades)
	}
	if s.WinningTrades > 0 {
		s.AvgWinPct = winPctSum / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLossPct = lossPctSum / float64(s.LosingTrades)
	}
	if grossLoss > 0 {
		s.ProfitFactor = grossWin / grossLoss
	}

	if len(curve) > 0 {
		s.FinalEquity = curve[len(curve)-1].Equity
	}
	s.SharpeRatio = sharpe(curve)
	s.MaxDrawdown = maxDrawdown(curve, initialBalance)
	s.CAGR = cagr(curve, initialBalance)
	return s
}

func sharpe(curve []portfolio.EquityPoint) float64 {
	if len(curve) < 3 {
		return math.NaN()
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			return math.NaN()
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += math.Pow(r-mean, 2)
	}
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return math.NaN()
	}

	return mean / std * math.Sqrt(tradingDaysPerYear)
}

func maxDrawdown(curve []portfolio.EquityPoint, initialBalance float64) float64 {
	peak := initialBalance
	maxDD := 0.0
	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak > 0 {
			if dd := (peak - point.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func cagr(curve []portfolio.EquityPoint, initialBalance float64) float64 {
	if len(curve) < 2 || initialBalance <= 0 {
		return math.NaN()
	}
	final := curve[len(curve)-1].Equity
	years := curve[len(curve)-1].Date.Sub(curve[0].Date).Hours() / 24 / 365.25
	if years <= 0 || final <= 0 {
		return math.NaN()
	}
	return math.Pow(final/initialBalance, 1/years) - 1
}
