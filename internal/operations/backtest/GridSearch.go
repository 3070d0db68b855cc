package backtest

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"EquityPaperBot/internal/operations/marketdata"
	"EquityPaperBot/internal/services/strategy"
)

// GridSearch runs independent simulations in parallel, one per config.
// Every run gets its own engine, ledger and risk manager; the only shared
// pieces are the read-only accessor and signal source. Results come back
// in config order regardless of completion order.
func GridSearch(ctx context.Context, configs []Config, accessor marketdata.Accessor, signals strategy.SignalSource, instruments InstrumentIndex, log *logrus.Logger, workers int) ([]*Results, error) {
	if workers <= 0 {
		workers = 4
	}

	results := make([]*Results, len(configs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range configs {
		i := i
		g.Go(func() error {
			engine := NewEngine(configs[i], accessor, signals, instruments, NopRecorder{}, log)
			res, err := engine.Run(ctx)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
