package marketdata

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"EquityPaperBot/internal/models"
	"EquityPaperBot/internal/repositories"
)

const realizedVolWindow = 20

// Recorder backfills the prices table from a Fetcher, annotating each bar
// with its trailing realized volatility.
type Recorder struct {
	fetcher *Fetcher
	repo    *repositories.PriceRepository
	log     *logrus.Logger
}

func NewRecorder(fetcher *Fetcher, repo *repositories.PriceRepository, log *logrus.Logger) *Recorder {
	return &Recorder{fetcher: fetcher, repo: repo, log: log}
}

// Backfill fetches and stores daily bars for every symbol in the universe.
// Symbols already covered through the end date are skipped.
func (r *Recorder) Backfill(ctx context.Context, universe []string, start, end time.Time) error {
	for _, symbol := range universe {
		latest, err := r.repo.LatestDate(symbol)
		if err != nil {
			return err
		}
		if !latest.IsZero() && !latest.Before(end) {
			r.log.WithField("symbol", symbol).Debug("bars already current, skipping backfill")
			continue
		}

		from := start
		if latest.After(from) {
			from = latest.AddDate(0, 0, 1)
		}

		bars, err := r.fetcher.FetchDaily(ctx, symbol, from, end)
		if err != nil {
			return err
		}
		annotateRealizedVol(bars)
		if err := r.repo.BatchCreate(bars); err != nil {
			return err
		}
	}
	return nil
}

// annotateRealizedVol fills RealizedVol with the annualized standard
// deviation of trailing log returns.
func annotateRealizedVol(bars []models.Price) {
	for i := range bars {
		if i < realizedVolWindow {
			continue
		}
		var returns []float64
		for j := i - realizedVolWindow + 1; j <= i; j++ {
			if bars[j-1].Close > 0 && bars[j].Close > 0 {
				returns = append(returns, math.Log(bars[j].Close/bars[j-1].Close))
			}
		}
		bars[i].RealizedVol = annualizedStdDev(returns)
	}
}

func annualizedStdDev(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += math.Pow(r-mean, 2)
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance) * math.Sqrt(252)
}
