package sizing

import (
	"errors"
	"math"

	"EquityPaperBot/config"
	"EquityPaperBot/internal/operations/portfolio"
	"EquityPaperBot/internal/services/strategy"
)

var (
	// ErrNoEdge means the Kelly fraction was non-positive; the candidate
	// carries no statistical advantage and is rejected regardless of
	// available capital.
	ErrNoEdge = errors.New("no edge: kelly fraction <= 0")

	// ErrInsufficientCapital means sizing produced an allocation below the
	// minimum viable position value.
	ErrInsufficientCapital = errors.New("insufficient capital")
)

// Stats are the realized trade statistics feeding the Kelly formula.
type Stats struct {
	WinRate    float64
	AvgWinPct  float64
	AvgLossPct float64
	SampleSize int
}

// StatsFromTrades derives Kelly inputs from the closed-trade log.
func StatsFromTrades(trades []portfolio.Trade) Stats {
	var s Stats
	var winSum, lossSum float64
	var wins, losses int
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
			winSum += t.PnLPct
		} else {
			losses++
			lossSum += math.Abs(t.PnLPct)
		}
	}
	s.SampleSize = len(trades)
	if s.SampleSize > 0 {
		s.WinRate = float64(wins) / float64(s.SampleSize)
	}
	if wins > 0 {
		s.AvgWinPct = winSum / float64(wins)
	}
	if losses > 0 {
		s.AvgLossPct = lossSum / float64(losses)
	}
	return s
}

// Sized is the capital allocation for an accepted candidate.
type Sized struct {
	Fraction      float64
	CapitalAmount float64
	Shares        float64
}

// Sizer converts candidates into share quantities with a fractional-Kelly
// rule bounded by an exposure ceiling.
type Sizer struct {
	cfg config.SizingConfig
}

func NewSizer(cfg config.SizingConfig) *Sizer {
	return &Sizer{cfg: cfg}
}

// Size computes the allocation for a candidate against current equity.
// Before enough trade history exists it falls back to a fixed conservative
// fraction instead of trusting noisy statistics.
func (s *Sizer) Size(c *strategy.Candidate, account portfolio.AccountState, stats Stats, lotSize float64) (*Sized, error) {
	fraction, err := s.fraction(stats)
	if err != nil {
		return nil, err
	}

	capital := fraction * account.Equity
	if lotSize <= 0 {
		lotSize = 1
	}
	shares := math.Floor(capital/c.EntryPrice/lotSize) * lotSize
	value := shares * c.EntryPrice
	if shares <= 0 || value < s.cfg.MinPositionValue {
		return nil, ErrInsufficientCapital
	}

	return &Sized{
		Fraction:      fraction,
		CapitalAmount: value,
		Shares:        shares,
	}, nil
}

func (s *Sizer) fraction(stats Stats) (float64, error) {
	if stats.SampleSize < s.cfg.MinTradeHistory || stats.AvgLossPct == 0 {
		// Cold start: no reliable edge estimate yet.
		return s.cfg.ColdStartFraction, nil
	}

	payoff := stats.AvgWinPct / stats.AvgLossPct
	full := stats.WinRate - (1-stats.WinRate)/payoff
	if full <= 0 {
		return 0, ErrNoEdge
	}

	fraction := full * s.cfg.KellyMultiplier
	if fraction > s.cfg.KellyCeilingFraction {
		fraction = s.cfg.KellyCeilingFraction
	}
	return fraction, nil
}
