package portfolio

import (
	"time"

	"EquityPaperBot/internal/models"
)

// Position is the in-memory record of an open holding. The ledger is the
// only mutator; once closed it is archived as a Trade and never edited.
type Position struct {
	ID          uint64
	Symbol      string
	Side        string
	Size        float64 // shares
	EntryDate   time.Time
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	EntryFee    float64
	Confidence  float64

	// LastPrice carries the most recent close so a stale position can be
	// marked to market through a data outage.
	LastPrice float64
	DataStale bool
}

// RiskAmount is the cash lost if the stop is hit from entry.
func (p Position) RiskAmount() float64 {
	d := p.EntryPrice - p.StopPrice
	if d < 0 {
		d = -d
	}
	return p.Size * d
}

// MarkValue values the position at the given price, entry capital plus
// unrealized P&L. For longs this is simply shares times price.
func (p Position) MarkValue(price float64) float64 {
	return p.Size*p.EntryPrice + p.UnrealizedPnL(price)
}

// UnrealizedPnL is the open profit at the given price, before fees.
func (p Position) UnrealizedPnL(price float64) float64 {
	if p.Side == models.PositionSideShort {
		return (p.EntryPrice - price) * p.Size
	}
	return (price - p.EntryPrice) * p.Size
}

// Trade is the closed-position projection that forms the trade log.
type Trade struct {
	PositionID  uint64
	Symbol      string
	Side        string
	Size        float64
	EntryDate   time.Time
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	ExitDate    time.Time
	ExitPrice   float64
	ExitReason  string
	PnL         float64 // net of entry and exit fees
	PnLPct      float64
	HoldingDays int
	EntryFee    float64
	ExitFee     float64
	Confidence  float64
}

// AccountState is the ledger snapshot after a mark-to-market.
type AccountState struct {
	Date          time.Time
	Cash          float64
	Equity        float64
	PeakEquity    float64
	OpenPositions int
}

// EquityPoint is one row of the append-only equity curve.
type EquityPoint struct {
	Date          time.Time
	Equity        float64
	Cash          float64
	OpenPositions int
}

// ExitPolicy decides which level wins when a bar touches both stop and
// target. Stop-first is the conservative intrabar convention; target-first
// exists because backtest conventions differ on this.
type ExitPolicy int

const (
	ExitStopFirst ExitPolicy = iota
	ExitTargetFirst
)

// ParseExitPolicy maps the config string to a policy, defaulting to
// stop-first.
func ParseExitPolicy(s string) ExitPolicy {
	if s == "target_first" {
		return ExitTargetFirst
	}
	return ExitStopFirst
}

// ExitCheck evaluates a position against a daily bar: stop, then target,
// then the time-based exit. Returns the exit price and reason when any
// condition fires.
func ExitCheck(p Position, bar *models.Price, date time.Time, policy ExitPolicy, maxHoldingDays int) (float64, string, bool) {
	stopHit, targetHit := false, false
	if p.Side == models.PositionSideLong {
		stopHit = bar.Low <= p.StopPrice
		targetHit = bar.High >= p.TargetPrice
	} else {
		stopHit = bar.High >= p.StopPrice
		targetHit = bar.Low <= p.TargetPrice
	}

	switch {
	case stopHit && targetHit:
		if policy == ExitTargetFirst {
			return p.TargetPrice, models.ExitReasonTarget, true
		}
		return p.StopPrice, models.ExitReasonStop, true
	case stopHit:
		return p.StopPrice, models.ExitReasonStop, true
	case targetHit:
		return p.TargetPrice, models.ExitReasonTarget, true
	}

	if maxHoldingDays > 0 && holdingDays(p.EntryDate, date) >= maxHoldingDays {
		return bar.Close, models.ExitReasonTime, true
	}
	return 0, "", false
}

func holdingDays(entry, now time.Time) int {
	return int(now.Sub(entry).Hours() / 24)
}
