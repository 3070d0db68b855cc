package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"EquityPaperBot/internal/models"
)

// ErrInvariant signals corrupted account state. It is fatal: any further
// equity computation after it would be untrustworthy, so callers must abort
// the run rather than continue.
type ErrInvariant struct {
	Detail string
}

func (e *ErrInvariant) Error() string {
	return fmt.Sprintf("ledger invariant violation: %s", e.Detail)
}

const cashTolerance = 1e-6

// Ledger is the authoritative record of cash, open positions and closed
// trades for a single run. It is not safe for concurrent use; each run owns
// its own instance.
type Ledger struct {
	initialCash float64
	cash        float64
	peakEquity  float64

	positions map[uint64]*Position
	trades    []Trade
	curve     []EquityPoint

	lastEquity AccountState
	nextID     uint64
}

func NewLedger(initialCash float64) *Ledger {
	return &Ledger{
		initialCash: initialCash,
		cash:        initialCash,
		peakEquity:  initialCash,
		positions:   make(map[uint64]*Position),
		nextID:      1,
	}
}

// OpenPosition reserves capital for a new position. The candidate must have
// been sized and risk-checked upstream: opening a position the account
// cannot pay for is an invariant violation, not a recoverable rejection.
func (l *Ledger) OpenPosition(p Position) (uint64, error) {
	cost := p.Size*p.EntryPrice + p.EntryFee
	if p.Size <= 0 {
		return 0, &ErrInvariant{Detail: fmt.Sprintf("non-positive size %v for %s", p.Size, p.Symbol)}
	}
	if cost > l.cash+cashTolerance {
		return 0, &ErrInvariant{
			Detail: fmt.Sprintf("opening %s costs %.2f with only %.2f cash", p.Symbol, cost, l.cash),
		}
	}

	p.ID = l.nextID
	l.nextID++
	p.LastPrice = p.EntryPrice

	l.cash -= cost
	l.positions[p.ID] = &p
	return p.ID, nil
}

// ClosePosition realizes a position at the given exit price, archives it as
// a Trade and returns the ledger credit. A position closes exactly once.
func (l *Ledger) ClosePosition(id uint64, exitPrice float64, reason string, date time.Time, exitFee float64) (Trade, error) {
	p, ok := l.positions[id]
	if !ok {
		return Trade{}, &ErrInvariant{Detail: fmt.Sprintf("close of unknown position %d", id)}
	}

	gross := p.UnrealizedPnL(exitPrice)
	l.cash += p.Size*p.EntryPrice + gross - exitFee
	if l.cash < -cashTolerance {
		return Trade{}, &ErrInvariant{Detail: fmt.Sprintf("negative cash %.2f after closing %s", l.cash, p.Symbol)}
	}

	net := gross - p.EntryFee - exitFee
	t := Trade{
		PositionID:  p.ID,
		Symbol:      p.Symbol,
		Side:        p.Side,
		Size:        p.Size,
		EntryDate:   p.EntryDate,
		EntryPrice:  p.EntryPrice,
		StopPrice:   p.StopPrice,
		TargetPrice: p.TargetPrice,
		ExitDate:    date,
		ExitPrice:   exitPrice,
		ExitReason:  reason,
		PnL:         net,
		PnLPct:      net / (p.Size * p.EntryPrice),
		HoldingDays: holdingDays(p.EntryDate, date),
		EntryFee:    p.EntryFee,
		ExitFee:     exitFee,
		Confidence:  p.Confidence,
	}

	delete(l.positions, id)
	l.trades = append(l.trades, t)
	return t, nil
}

// MarkToMarket revalues every open position at the supplied prices and
// returns the snapshot. Equity is recomputed in full on every call rather
// than adjusted incrementally, and cash is re-derived from the trade log as
// a drift check. The equity curve is not touched here; CommitDay records
// the point once the day's entries are in.
func (l *Ledger) MarkToMarket(date time.Time, lookup func(symbol string) (*models.Price, bool)) (AccountState, error) {
	if err := l.auditCash(); err != nil {
		return AccountState{}, err
	}

	for _, p := range l.openSorted() {
		if bar, ok := lookup(p.Symbol); ok && bar != nil {
			p.LastPrice = bar.Close
		}
	}
	return l.compute(date), nil
}

// CommitDay recomputes equity at the last marked prices and appends the
// day's point to the append-only curve.
func (l *Ledger) CommitDay(date time.Time) (AccountState, error) {
	if err := l.auditCash(); err != nil {
		return AccountState{}, err
	}
	snap := l.compute(date)
	l.curve = append(l.curve, EquityPoint{
		Date:          date,
		Equity:        snap.Equity,
		Cash:          snap.Cash,
		OpenPositions: snap.OpenPositions,
	})
	return snap, nil
}

func (l *Ledger) compute(date time.Time) AccountState {
	equity := l.cash
	for _, p := range l.openSorted() {
		equity += p.MarkValue(p.LastPrice)
	}
	if equity > l.peakEquity {
		l.peakEquity = equity
	}
	snap := AccountState{
		Date:          date,
		Cash:          l.cash,
		Equity:        equity,
		PeakEquity:    l.peakEquity,
		OpenPositions: len(l.positions),
	}
	l.lastEquity = snap
	return snap
}

// auditCash recomputes cash from the trade log and open entries. The log is
// the source of truth; disagreement means the sizing or cost math corrupted
// the account.
func (l *Ledger) auditCash() error {
	derived := l.initialCash
	for _, t := range l.trades {
		derived += t.PnL
	}
	for _, p := range l.positions {
		derived -= p.Size*p.EntryPrice + p.EntryFee
	}
	if math.Abs(derived-l.cash) > 1e-4 {
		return &ErrInvariant{
			Detail: fmt.Sprintf("cash %.6f disagrees with trade log %.6f", l.cash, derived),
		}
	}
	if l.cash < -cashTolerance {
		return &ErrInvariant{Detail: fmt.Sprintf("negative cash %.6f", l.cash)}
	}
	return nil
}

// MarkStale flags or clears the data-outage marker on an open position.
func (l *Ledger) MarkStale(id uint64, stale bool) {
	if p, ok := l.positions[id]; ok {
		p.DataStale = stale
	}
}

// Snapshot returns the state as of the last mark-to-market.
func (l *Ledger) Snapshot() AccountState {
	if l.lastEquity.Date.IsZero() {
		return AccountState{
			Cash:       l.cash,
			Equity:     l.cash,
			PeakEquity: l.peakEquity,
		}
	}
	s := l.lastEquity
	s.OpenPositions = len(l.positions)
	return s
}

// OpenPositions returns copies of the open positions in opening order.
func (l *Ledger) OpenPositions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.openSorted() {
		out = append(out, *p)
	}
	return out
}

// HasOpen reports whether the symbol is already held.
func (l *Ledger) HasOpen(symbol string) bool {
	for _, p := range l.positions {
		if p.Symbol == symbol {
			return true
		}
	}
	return false
}

// Trades returns the closed-trade log in close order.
func (l *Ledger) Trades() []Trade {
	return append([]Trade(nil), l.trades...)
}

// Curve returns the equity curve recorded so far.
func (l *Ledger) Curve() []EquityPoint {
	return append([]EquityPoint(nil), l.curve...)
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

func (l *Ledger) openSorted() []*Position {
	out := make([]*Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
