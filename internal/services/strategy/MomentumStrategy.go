package strategy

import (
	"context"
	"fmt"
	"time"

	"EquityPaperBot/internal/models"
)

// MomentumStrategy enters long on a close above the prior N-day high, with
// the stop below the recent swing low and a payoff-ratio target.
type MomentumStrategy struct {
	history BarHistory

	lookbackDays  int
	stopLookback  int
	rewardRisk    float64
	minConfidence float64
}

func NewMomentumStrategy(history BarHistory) *MomentumStrategy {
	return &MomentumStrategy{
		history:       history,
		lookbackDays:  20,
		stopLookback:  5,
		rewardRisk:    2.0,
		minConfidence: 0.55,
	}
}

func (s *MomentumStrategy) Name() string { return "momentum_breakout" }

func (s *MomentumStrategy) GetCandidates(ctx context.Context, date time.Time, universe []string) ([]Candidate, error) {
	var out []Candidate
	for _, symbol := range universe {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := s.analyze(symbol, date)
		if err != nil {
			return nil, fmt.Errorf("momentum analysis for %s: %w", symbol, err)
		}
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *MomentumStrategy) analyze(symbol string, date time.Time) (*Candidate, error) {
	bars, err := s.history.GetHistory(symbol, date.AddDate(0, 0, -2*s.lookbackDays), date)
	if err != nil {
		return nil, err
	}
	if len(bars) < s.lookbackDays+1 {
		return nil, nil // not enough history yet
	}

	last := bars[len(bars)-1]
	if !sameDay(last.Date, date) {
		return nil, nil // no bar for today
	}

	prior := bars[:len(bars)-1]
	breakout := highestHigh(tail(prior, s.lookbackDays))
	if last.Close <= breakout {
		return nil, nil
	}

	stop := lowestLow(tail(prior, s.stopLookback))
	if stop >= last.Close {
		return nil, nil
	}
	risk := last.Close - stop

	// Stronger breakouts relative to recent range score higher.
	rng := breakout - lowestLow(tail(prior, s.lookbackDays))
	confidence := 0.5
	if rng > 0 {
		confidence += 0.5 * clamp01((last.Close-breakout)/rng*10)
	}
	if confidence < s.minConfidence {
		return nil, nil
	}

	return &Candidate{
		Symbol:      symbol,
		Date:        date,
		Direction:   models.PositionSideLong,
		EntryPrice:  last.Close,
		StopPrice:   stop,
		TargetPrice: last.Close + s.rewardRisk*risk,
		Confidence:  confidence,
	}, nil
}
