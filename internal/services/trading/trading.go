package trading

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"EquityPaperBot/internal/operations/backtest"
	"EquityPaperBot/internal/operations/calendar"
)

// PaperTrader operates the simulation core in live mode: the same engine
// step that drives a backtest runs once per trading day against the latest
// stored bars, so paper results and backtest results cannot drift apart.
type PaperTrader struct {
	engine   *backtest.Engine
	calendar *calendar.Calendar
	interval time.Duration
	log      *logrus.Logger

	lastProcessed time.Time
}

func NewPaperTrader(engine *backtest.Engine, cal *calendar.Calendar, interval time.Duration, log *logrus.Logger) *PaperTrader {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &PaperTrader{
		engine:   engine,
		calendar: cal,
		interval: interval,
		log:      log,
	}
}

// Run polls until the context is cancelled, stepping the engine once per
// trading day.
func (t *PaperTrader) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.log.WithField("interval", t.interval.String()).Info("paper trading started")
	for {
		select {
		case <-ctx.Done():
			t.log.Info("paper trading stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := t.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (t *PaperTrader) tick(ctx context.Context) error {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if !t.calendar.IsTradingDay(day) || day.Equal(t.lastProcessed) {
		return nil
	}

	if err := t.engine.Step(ctx, day); err != nil {
		return err
	}
	t.lastProcessed = day
	return nil
}
