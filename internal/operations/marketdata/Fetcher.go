package marketdata

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"EquityPaperBot/internal/models"
)

// Fetcher pulls daily klines from the exchange to seed the prices table.
// This is a thin data-source adapter; the simulation core never sees it,
// only the Accessor interface over the stored bars.
type Fetcher struct {
	client  *futures.Client
	limiter *rate.Limiter
	log     *logrus.Logger
}

func NewFetcher(client *futures.Client, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		// Binance weight limits are generous for klines; 5 req/s keeps a
		// full-universe backfill well under them.
		limiter: rate.NewLimiter(rate.Limit(5), 1),
		log:     log,
	}
}

// FetchDaily retrieves daily bars for a symbol over [start, end].
func (f *Fetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.Price, error) {
	var all []models.Price

	// 500 daily bars per request.
	for chunkStart := start; chunkStart.Before(end); {
		chunkEnd := chunkStart.AddDate(0, 0, 500)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := f.client.NewKlinesService().
			Symbol(symbol).
			Interval("1d").
			StartTime(chunkStart.UnixMilli()).
			EndTime(chunkEnd.UnixMilli()).
			Limit(500).
			Do(ctx)
		if err != nil {
			return nil, err
		}

		for _, k := range klines {
			all = append(all, models.Price{
				Symbol: symbol,
				Date:   time.UnixMilli(k.OpenTime).UTC().Truncate(24 * time.Hour),
				Open:   parseFloat(k.Open),
				High:   parseFloat(k.High),
				Low:    parseFloat(k.Low),
				Close:  parseFloat(k.Close),
				Volume: parseFloat(k.Volume),
			})
		}

		chunkStart = chunkEnd.AddDate(0, 0, 1)
	}

	f.log.WithFields(logrus.Fields{
		"symbol": symbol,
		"bars":   len(all),
	}).Info("fetched daily bars")
	return all, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
