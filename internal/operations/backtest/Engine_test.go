package backtest

import (
	"context"
	"io"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"EquityPaperBot/config"
	"EquityPaperBot/internal/models"
	"EquityPaperBot/internal/operations/marketdata"
	"EquityPaperBot/internal/operations/portfolio"
	"EquityPaperBot/internal/services/strategy"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

// fakeAccessor serves bars keyed by symbol and date; anything else is a
// missing bar.
type fakeAccessor struct {
	bars map[string]map[string]*models.Price
}

func newFakeAccessor() *fakeAccessor {
	return &fakeAccessor{bars: make(map[string]map[string]*models.Price)}
}

func (f *fakeAccessor) add(symbol string, day time.Time, low, high, close float64) {
	if f.bars[symbol] == nil {
		f.bars[symbol] = make(map[string]*models.Price)
	}
	f.bars[symbol][dateKey(day)] = &models.Price{
		Symbol: symbol, Date: day, Open: close, Low: low, High: high, Close: close,
	}
}

func (f *fakeAccessor) GetBar(ctx context.Context, symbol string, day time.Time) (*models.Price, error) {
	if bar, ok := f.bars[symbol][dateKey(day)]; ok {
		return bar, nil
	}
	return nil, marketdata.ErrNotAvailable
}

// scriptedSignals emits a fixed candidate list per date.
type scriptedSignals struct {
	byDate map[string][]strategy.Candidate
}

func newScriptedSignals() *scriptedSignals {
	return &scriptedSignals{byDate: make(map[string][]strategy.Candidate)}
}

func (s *scriptedSignals) add(day time.Time, c strategy.Candidate) {
	c.Date = day
	s.byDate[dateKey(day)] = append(s.byDate[dateKey(day)], c)
}

func (s *scriptedSignals) Name() string { return "scripted" }

func (s *scriptedSignals) GetCandidates(ctx context.Context, day time.Time, universe []string) ([]strategy.Candidate, error) {
	return s.byDate[dateKey(day)], nil
}

func testEngineConfig(start, end time.Time) Config {
	return Config{
		RunID:          "test-run",
		Name:           "test",
		Universe:       []string{"AAA", "BBB", "CCC"},
		Start:          start,
		End:            end,
		InitialBalance: 100000,
		MaxHoldingDays: 10,
		ExitPolicy:     portfolio.ExitStopFirst,
		Risk: config.RiskConfig{
			MaxConcurrentPositions:   5,
			MaxPortfolioRiskFraction: 0.5,
			MaxDailyLossFraction:     0.03,
			DailyHaltReset:           true,
		},
		Sizing: config.SizingConfig{
			KellyMultiplier:      0.5,
			KellyCeilingFraction: 0.2,
			ColdStartFraction:    0.02,
			MinTradeHistory:      20,
			MinPositionValue:     100,
		},
		// Zero costs keep the arithmetic exact.
		Cost: config.CostConfig{LiquidityThreshold: 0},
	}
}

func longCandidate(symbol string, entry, stop, target float64) strategy.Candidate {
	return strategy.Candidate{
		Symbol:      symbol,
		Direction:   models.PositionSideLong,
		EntryPrice:  entry,
		StopPrice:   stop,
		TargetPrice: target,
		Confidence:  0.8,
	}
}

func TestRunNoCandidatesFlatCurve(t *testing.T) {
	// Mon Jan 8 through Wed Jan 10 2024.
	cfg := testEngineConfig(date(2024, 1, 8), date(2024, 1, 10))
	e := NewEngine(cfg, newFakeAccessor(), newScriptedSignals(), nil, nil, testLogger())

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Partial || res.State != StateCompleted {
		t.Fatalf("unexpected run state: %+v", res)
	}
	if res.Summary.TotalTrades != 0 {
		t.Fatalf("trades = %d, want 0", res.Summary.TotalTrades)
	}
	if len(res.Curve) != 3 {
		t.Fatalf("curve length = %d, want 3", len(res.Curve))
	}
	for _, pt := range res.Curve {
		if pt.Equity != 100000 || pt.OpenPositions != 0 {
			t.Fatalf("flat run drifted: %+v", pt)
		}
	}
	if res.Summary.FinalEquity != 100000 {
		t.Fatalf("final equity = %v, want 100000", res.Summary.FinalEquity)
	}
	if !math.IsNaN(res.Summary.WinRate) {
		t.Fatalf("win rate = %v, want NaN with no trades", res.Summary.WinRate)
	}
}

func TestRunStopTakesPrecedenceOverTarget(t *testing.T) {
	day1, day2 := date(2024, 1, 8), date(2024, 1, 9)
	cfg := testEngineConfig(day1, day2)

	signals := newScriptedSignals()
	signals.add(day1, longCandidate("AAA", 100, 95, 110))

	// Day two touches both the stop and the target.
	acc := newFakeAccessor()
	acc.add("AAA", day2, 94, 111, 108)

	e := NewEngine(cfg, acc, signals, nil, nil, testLogger())
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(res.Trades))
	}
	trade := res.Trades[0]
	if trade.ExitReason != models.ExitReasonStop || trade.ExitPrice != 95 {
		t.Fatalf("exit = (%v, %s), want stop at 95", trade.ExitPrice, trade.ExitReason)
	}
	// Cold-start sizing: 2% of 100000 at 100 per share is 20 shares, so the
	// stop costs 100.
	if trade.Size != 20 || math.Abs(trade.PnL+100) > 1e-9 {
		t.Fatalf("trade = %+v, want 20 shares losing 100", trade)
	}
	if math.Abs(res.Summary.FinalEquity-99900) > 1e-9 {
		t.Fatalf("final equity = %v, want 99900", res.Summary.FinalEquity)
	}
}

func TestRunDeterministic(t *testing.T) {
	day1, day5 := date(2024, 1, 8), date(2024, 1, 12)

	build := func() *Engine {
		cfg := testEngineConfig(day1, day5)
		signals := newScriptedSignals()
		signals.add(day1, longCandidate("AAA", 100, 95, 110))
		signals.add(day1, longCandidate("BBB", 50, 47, 56))
		signals.add(date(2024, 1, 10), longCandidate("CCC", 200, 190, 220))

		acc := newFakeAccessor()
		for i, day := 0, day1; i < 5; i, day = i+1, day.AddDate(0, 0, 1) {
			acc.add("AAA", day, 98, 104, 101)
			acc.add("BBB", day, 48, 57, 56.5) // target hit
			acc.add("CCC", day, 195, 205, 201)
		}
		return NewEngine(cfg, acc, signals, nil, nil, testLogger())
	}

	first, err := build().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	second, err := build().Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !reflect.DeepEqual(first.Trades, second.Trades) {
		t.Fatal("trade logs differ between identical runs")
	}
	if !reflect.DeepEqual(first.Curve, second.Curve) {
		t.Fatal("equity curves differ between identical runs")
	}
}

func TestRunDailyLossHaltAndResume(t *testing.T) {
	day1, day2, day3 := date(2024, 1, 8), date(2024, 1, 9), date(2024, 1, 10)
	cfg := testEngineConfig(day1, day3)
	cfg.Risk.MaxDailyLossFraction = 0.001

	signals := newScriptedSignals()
	signals.add(day1, longCandidate("AAA", 100, 85, 120))
	signals.add(day2, longCandidate("BBB", 100, 95, 110)) // arrives while halted
	signals.add(day3, longCandidate("CCC", 100, 95, 110))

	acc := newFakeAccessor()
	// AAA drops 10% on day two without touching the 85 stop: a 0.2% equity
	// loss against a 0.1% limit.
	acc.add("AAA", day2, 89, 101, 90)
	acc.add("AAA", day3, 89, 91, 90)

	e := NewEngine(cfg, acc, signals, nil, nil, testLogger())
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Curve) != 3 {
		t.Fatalf("curve length = %d, want 3", len(res.Curve))
	}
	// Day two: the kill switch engaged before entries, so BBB never opened.
	if res.Curve[1].OpenPositions != 1 {
		t.Fatalf("day-two open positions = %d, want AAA only", res.Curve[1].OpenPositions)
	}
	// Day three: the halt lifted and CCC was admitted.
	if res.Curve[2].OpenPositions != 2 {
		t.Fatalf("day-three open positions = %d, want 2 after resume", res.Curve[2].OpenPositions)
	}
	for _, p := range e.ledger.OpenPositions() {
		if p.Symbol == "BBB" {
			t.Fatal("BBB opened during a daily loss halt")
		}
	}
}

func TestRunDataOutageCarriesPositionForward(t *testing.T) {
	day1, day2 := date(2024, 1, 8), date(2024, 1, 9)
	cfg := testEngineConfig(day1, day2)

	signals := newScriptedSignals()
	signals.add(day1, longCandidate("AAA", 100, 95, 110))

	// No bars at all: day two is an outage for the open position.
	e := NewEngine(cfg, newFakeAccessor(), signals, nil, nil, testLogger())
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Trades) != 0 {
		t.Fatalf("trades = %d, want 0: outage must not force-close", len(res.Trades))
	}
	open := e.ledger.OpenPositions()
	if len(open) != 1 || !open[0].DataStale {
		t.Fatalf("open positions = %+v, want one stale AAA", open)
	}
	// Carried forward at the entry price, equity holds.
	if res.Curve[1].Equity != 100000 {
		t.Fatalf("day-two equity = %v, want 100000", res.Curve[1].Equity)
	}
}

func TestRunCancellationYieldsPartialResults(t *testing.T) {
	cfg := testEngineConfig(date(2024, 1, 8), date(2024, 1, 12))
	e := NewEngine(cfg, newFakeAccessor(), newScriptedSignals(), nil, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Partial {
		t.Fatal("cancelled run not marked partial")
	}
	if len(res.Curve) != 0 {
		t.Fatalf("curve length = %d, want 0 before any day processed", len(res.Curve))
	}
}

func TestRunRejectionAuditTrail(t *testing.T) {
	day1, day2 := date(2024, 1, 8), date(2024, 1, 9)
	cfg := testEngineConfig(day1, day2)

	signals := newScriptedSignals()
	signals.add(day1, longCandidate("AAA", 100, 95, 110))
	signals.add(day1, longCandidate("AAA", 101, 96, 111)) // duplicate symbol

	e := NewEngine(cfg, newFakeAccessor(), signals, nil, nil, testLogger())
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Rejections) != 1 {
		t.Fatalf("rejections = %d, want 1", len(res.Rejections))
	}
	r := res.Rejections[0]
	if r.Symbol != "AAA" || !r.Date.Equal(day1) || r.Reason == "" {
		t.Fatalf("unexpected rejection %+v", r)
	}
	if len(e.ledger.OpenPositions()) != 1 {
		t.Fatal("duplicate candidate still opened a position")
	}
}

// memRecorder captures recorder calls for assertions.
type memRecorder struct {
	equity     []portfolio.EquityPoint
	trades     []portfolio.Trade
	rejections int
	snapshots  [][]portfolio.Position
}

func (m *memRecorder) RecordEquity(runID string, p portfolio.EquityPoint) error {
	m.equity = append(m.equity, p)
	return nil
}

func (m *memRecorder) RecordTrade(runID string, t portfolio.Trade) error {
	m.trades = append(m.trades, t)
	return nil
}

func (m *memRecorder) RecordRejection(runID string, d time.Time, symbol, reason string) error {
	m.rejections++
	return nil
}

func (m *memRecorder) RecordSnapshot(runID string, open []portfolio.Position) error {
	m.snapshots = append(m.snapshots, open)
	return nil
}

func TestRunPersistsThroughRecorder(t *testing.T) {
	day1, day2 := date(2024, 1, 8), date(2024, 1, 9)
	cfg := testEngineConfig(day1, day2)

	signals := newScriptedSignals()
	signals.add(day1, longCandidate("AAA", 100, 95, 110))

	acc := newFakeAccessor()
	acc.add("AAA", day2, 94, 100, 96)

	rec := &memRecorder{}
	e := NewEngine(cfg, acc, signals, nil, rec, testLogger())
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(rec.equity) != 2 {
		t.Fatalf("equity points recorded = %d, want one per day", len(rec.equity))
	}
	if len(rec.trades) != 1 {
		t.Fatalf("trades recorded = %d, want 1", len(rec.trades))
	}
	if len(rec.snapshots) != 2 {
		t.Fatalf("snapshots recorded = %d, want one per day", len(rec.snapshots))
	}
	// Final snapshot is flat after the stop-out.
	if len(rec.snapshots[1]) != 0 {
		t.Fatalf("final snapshot has %d open positions, want 0", len(rec.snapshots[1]))
	}
}
