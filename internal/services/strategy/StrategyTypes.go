package strategy

import (
	"context"
	"time"

	"EquityPaperBot/internal/models"
)

// Candidate is a proposed entry produced by a signal source. It is consumed
// once by the simulation engine and never mutated.
type Candidate struct {
	Symbol      string
	Date        time.Time
	Direction   string // models.PositionSideLong or models.PositionSideShort
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	Confidence  float64 // [0,1]
}

// SignalSource yields trade candidates for a date. An empty slice is a
// normal outcome, not an error. The engine depends only on this interface,
// never on strategy internals.
type SignalSource interface {
	Name() string
	GetCandidates(ctx context.Context, date time.Time, universe []string) ([]Candidate, error)
}

// BarHistory is the read interface strategies use for lookback data.
// *repositories.PriceRepository satisfies it.
type BarHistory interface {
	GetHistory(symbol string, start, end time.Time) ([]models.Price, error)
}
