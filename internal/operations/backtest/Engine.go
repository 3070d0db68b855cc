package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"EquityPaperBot/internal/models"
	"EquityPaperBot/internal/operations/calendar"
	"EquityPaperBot/internal/operations/marketdata"
	"EquityPaperBot/internal/operations/portfolio"
	"EquityPaperBot/internal/services/cost"
	"EquityPaperBot/internal/services/metrics"
	"EquityPaperBot/internal/services/risk"
	"EquityPaperBot/internal/services/sizing"
	"EquityPaperBot/internal/services/strategy"
)

// Engine walks the trading calendar one day at a time, turning signals
// into sized positions under capital and risk constraints and tracking
// open positions to exit. The daily loop is strictly sequential: later
// timestamps depend on ledger state produced by earlier ones. Each run
// owns its own engine, ledger and risk manager; nothing is shared between
// concurrent runs.
type Engine struct {
	cfg Config

	calendar    *calendar.Calendar
	accessor    marketdata.Accessor
	signals     strategy.SignalSource
	sizer       *sizing.Sizer
	risk        *risk.Manager
	costs       *cost.Model
	ledger      *portfolio.Ledger
	recorder    RunRecorder
	instruments InstrumentIndex
	log         *logrus.Logger

	state      State
	rejections []Rejection
}

func NewEngine(cfg Config, accessor marketdata.Accessor, signals strategy.SignalSource, instruments InstrumentIndex, recorder RunRecorder, log *logrus.Logger) *Engine {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if instruments == nil {
		instruments = InstrumentIndex{}
	}
	return &Engine{
		cfg:         cfg,
		calendar:    calendar.New(cfg.Holidays),
		accessor:    accessor,
		signals:     signals,
		sizer:       sizing.NewSizer(cfg.Sizing),
		risk:        risk.NewManager(cfg.Risk),
		costs:       cost.NewModel(cfg.Cost),
		ledger:      portfolio.NewLedger(cfg.InitialBalance),
		recorder:    recorder,
		instruments: instruments,
		log:         log,
		state:       StateInitializing,
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	return e.state
}

// Run executes the simulation over the configured date range. A ledger
// invariant violation aborts the run; everything else is recovered locally
// and recorded in the rejection audit trail. Cancellation is cooperative,
// checked once per timestamp, so the ledger is never left mid-day.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	e.state = StateRunning
	e.log.WithFields(logrus.Fields{
		"run":   e.cfg.RunID,
		"name":  e.cfg.Name,
		"start": e.cfg.Start.Format("2006-01-02"),
		"end":   e.cfg.End.Format("2006-01-02"),
	}).Info("simulation started")

	partial := false
	for _, day := range e.calendar.Timeline(e.cfg.Start, e.cfg.End) {
		if ctx.Err() != nil {
			partial = true
			break
		}
		if err := e.Step(ctx, day); err != nil {
			e.log.WithError(err).Error("simulation aborted")
			return nil, fmt.Errorf("run %s aborted on %s: %w", e.cfg.RunID, day.Format("2006-01-02"), err)
		}
	}

	e.state = StateCompleted
	results := &Results{
		RunID:      e.cfg.RunID,
		Name:       e.cfg.Name,
		State:      e.state,
		Partial:    partial,
		Summary:    metrics.Calculate(e.ledger.Trades(), e.ledger.Curve(), e.cfg.InitialBalance),
		Trades:     e.ledger.Trades(),
		Curve:      e.ledger.Curve(),
		Rejections: e.rejections,
	}
	e.log.WithFields(logrus.Fields{
		"run":     e.cfg.RunID,
		"trades":  results.Summary.TotalTrades,
		"equity":  results.Summary.FinalEquity,
		"partial": partial,
	}).Info("simulation completed")
	return results, nil
}

// Step processes a single trading day: exits and mark-to-market first,
// then new entries unless the kill switch is engaged, then the equity
// point and ledger snapshot. The paper trader drives this directly off the
// wall clock; Run drives it from the historical calendar.
func (e *Engine) Step(ctx context.Context, day time.Time) error {
	if e.risk.StartDay(day) {
		e.state = StateRunning
		e.log.WithField("date", day.Format("2006-01-02")).Info("daily loss halt lifted, resuming")
	}

	bars, err := e.processExits(ctx, day)
	if err != nil {
		return err
	}

	snap, err := e.ledger.MarkToMarket(day, func(symbol string) (*models.Price, bool) {
		bar, ok := bars[symbol]
		return bar, ok
	})
	if err != nil {
		return err
	}

	if e.risk.RecordDailyLoss(day, e.dayLossFraction(snap)) {
		e.state = StateHalted
		e.log.WithFields(logrus.Fields{
			"date":   day.Format("2006-01-02"),
			"equity": snap.Equity,
		}).Warn("daily loss limit breached, entries halted")
	}

	if e.risk.State() == risk.StateNormal {
		if err := e.processEntries(ctx, day, snap); err != nil {
			return err
		}
	}

	point, err := e.ledger.CommitDay(day)
	if err != nil {
		return err
	}
	if err := e.recorder.RecordEquity(e.cfg.RunID, portfolio.EquityPoint{
		Date:          day,
		Equity:        point.Equity,
		Cash:          point.Cash,
		OpenPositions: point.OpenPositions,
	}); err != nil {
		return fmt.Errorf("persisting equity point: %w", err)
	}
	if err := e.recorder.RecordSnapshot(e.cfg.RunID, e.ledger.OpenPositions()); err != nil {
		return fmt.Errorf("persisting ledger snapshot: %w", err)
	}
	return nil
}

// processExits fetches today's bar for every open position and closes the
// ones whose stop, target or time limit fired. A persistent data failure
// marks the position stale and carries it forward at its last price;
// force-closing on an outage would corrupt P&L.
func (e *Engine) processExits(ctx context.Context, day time.Time) (map[string]*models.Price, error) {
	bars := make(map[string]*models.Price)

	for _, p := range e.ledger.OpenPositions() {
		bar, err := e.accessor.GetBar(ctx, p.Symbol, day)
		if err != nil {
			// Includes cancellation mid-day: the position is carried
			// forward at its last price and the day still closes cleanly.
			e.ledger.MarkStale(p.ID, true)
			e.log.WithFields(logrus.Fields{
				"date":   day.Format("2006-01-02"),
				"symbol": p.Symbol,
			}).WithError(err).Warn("no bar for open position, carrying forward stale")
			continue
		}
		e.ledger.MarkStale(p.ID, false)
		bars[p.Symbol] = bar

		level, reason, hit := portfolio.ExitCheck(p, bar, day, e.cfg.ExitPolicy, e.cfg.MaxHoldingDays)
		if !hit {
			continue
		}

		inst := e.instruments.Lookup(p.Symbol)
		exitPrice, exitFee := e.costs.ExitFill(level, p.Side, p.Size, e.costs.Classify(inst))
		trade, err := e.ledger.ClosePosition(p.ID, exitPrice, reason, day, exitFee)
		if err != nil {
			return nil, err
		}
		if err := e.recorder.RecordTrade(e.cfg.RunID, trade); err != nil {
			return nil, fmt.Errorf("persisting trade: %w", err)
		}
		e.log.WithFields(logrus.Fields{
			"date":   day.Format("2006-01-02"),
			"symbol": trade.Symbol,
			"reason": trade.ExitReason,
			"pnl":    trade.PnL,
		}).Info("position closed")
	}
	return bars, nil
}

// processEntries pulls candidates for the day and admits the ones that
// survive sizing, risk checks and the cost model. Per-candidate failures
// are non-fatal; each is recorded with its reason.
func (e *Engine) processEntries(ctx context.Context, day time.Time, snap portfolio.AccountState) error {
	candidates, err := e.signals.GetCandidates(ctx, day, e.cfg.Universe)
	if err != nil {
		// No signal is a normal outcome; a failing source just means no
		// entries today.
		e.log.WithField("date", day.Format("2006-01-02")).WithError(err).Warn("signal source failed, skipping entries")
		return nil
	}

	stats := sizing.StatsFromTrades(e.ledger.Trades())
	for i := range candidates {
		c := candidates[i]
		inst := e.instruments.Lookup(c.Symbol)

		sized, err := e.sizer.Size(&c, snap, stats, inst.LotSize)
		if err != nil {
			e.reject(day, c.Symbol, err.Error())
			continue
		}
		if err := e.risk.Admit(&c, sized, snap, e.ledger.OpenPositions()); err != nil {
			e.reject(day, c.Symbol, err.Error())
			continue
		}

		liquidity := e.costs.Classify(inst)
		entryPrice, entryFee := e.costs.EntryFill(c.EntryPrice, c.Direction, sized.Shares, liquidity)
		if sized.Shares*entryPrice+entryFee > e.ledger.Cash() {
			e.reject(day, c.Symbol, sizing.ErrInsufficientCapital.Error())
			continue
		}

		if _, err := e.ledger.OpenPosition(portfolio.Position{
			Symbol:      c.Symbol,
			Side:        c.Direction,
			Size:        sized.Shares,
			EntryDate:   day,
			EntryPrice:  entryPrice,
			StopPrice:   c.StopPrice,
			TargetPrice: c.TargetPrice,
			EntryFee:    entryFee,
			Confidence:  c.Confidence,
		}); err != nil {
			return err
		}
		e.log.WithFields(logrus.Fields{
			"date":   day.Format("2006-01-02"),
			"symbol": c.Symbol,
			"side":   c.Direction,
			"shares": sized.Shares,
			"price":  entryPrice,
		}).Info("position opened")
	}
	return nil
}

// dayLossFraction compares post-exit equity to the previous day's close.
func (e *Engine) dayLossFraction(snap portfolio.AccountState) float64 {
	prev := e.cfg.InitialBalance
	if curve := e.ledger.Curve(); len(curve) > 0 {
		prev = curve[len(curve)-1].Equity
	}
	if prev <= 0 {
		return 0
	}
	loss := (prev - snap.Equity) / prev
	if loss < 0 {
		return 0
	}
	return loss
}

func (e *Engine) reject(day time.Time, symbol, reason string) {
	e.rejections = append(e.rejections, Rejection{Date: day, Symbol: symbol, Reason: reason})
	if err := e.recorder.RecordRejection(e.cfg.RunID, day, symbol, reason); err != nil {
		e.log.WithError(err).Warn("failed to persist rejection")
	}
	e.log.WithFields(logrus.Fields{
		"date":   day.Format("2006-01-02"),
		"symbol": symbol,
		"reason": reason,
	}).Info("candidate rejected")
}
