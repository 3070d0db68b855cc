package strategy

import (
	"context"
	"fmt"
	"math"
	"time"

	"EquityPaperBot/internal/models"
)

// MeanReversionStrategy fades stretched closes: long when price sits well
// below its moving average, short when well above. Stops go beyond the
// extreme, targets back at the mean.
type MeanReversionStrategy struct {
	history BarHistory

	lookbackDays  int
	entryZ        float64
	stopZ         float64
	minConfidence float64
}

func NewMeanReversionStrategy(history BarHistory) *MeanReversionStrategy {
	return &MeanReversionStrategy{
		history:       history,
		lookbackDays:  20,
		entryZ:        2.0,
		stopZ:         3.0,
		minConfidence: 0.55,
	}
}

func (s *MeanReversionStrategy) Name() string { return "mean_reversion" }

func (s *MeanReversionStrategy) GetCandidates(ctx context.Context, date time.Time, universe []string) ([]Candidate, error) {
	var out []Candidate
	for _, symbol := range universe {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := s.analyze(symbol, date)
		if err != nil {
			return nil, fmt.Errorf("mean reversion analysis for %s: %w", symbol, err)
		}
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *MeanReversionStrategy) analyze(symbol string, date time.Time) (*Candidate, error) {
	bars, err := s.history.GetHistory(symbol, date.AddDate(0, 0, -2*s.lookbackDays), date)
	if err != nil {
		return nil, err
	}
	if len(bars) < s.lookbackDays {
		return nil, nil
	}

	last := bars[len(bars)-1]
	if !sameDay(last.Date, date) {
		return nil, nil
	}

	window := tail(bars, s.lookbackDays)
	mean := closeMean(window)
	dev := closeStdDev(window, mean)
	if dev == 0 {
		return nil, nil
	}

	z := (last.Close - mean) / dev
	if math.Abs(z) < s.entryZ {
		return nil, nil
	}

	confidence := s.minConfidence + 0.4*clamp01((math.Abs(z)-s.entryZ)/s.entryZ)

	if z <= -s.entryZ {
		return &Candidate{
			Symbol:      symbol,
			Date:        date,
			Direction:   models.PositionSideLong,
			EntryPrice:  last.Close,
			StopPrice:   mean - s.stopZ*dev,
			TargetPrice: mean,
			Confidence:  confidence,
		}, nil
	}
	return &Candidate{
		Symbol:      symbol,
		Date:        date,
		Direction:   models.PositionSideShort,
		EntryPrice:  last.Close,
		StopPrice:   mean + s.stopZ*dev,
		TargetPrice: mean,
		Confidence:  confidence,
	}, nil
}
