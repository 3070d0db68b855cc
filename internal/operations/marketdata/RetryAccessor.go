package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"EquityPaperBot/internal/models"
)

// RetryAccessor wraps another accessor with a bounded retry and backoff
// schedule. Retrying lives here, at the call site boundary, so the engine
// stays free of retry control flow. ErrNotAvailable is not retried: a
// missing bar is an answer, not a transient failure.
type RetryAccessor struct {
	inner    Accessor
	attempts int
	backoff  time.Duration
	log      *logrus.Logger
}

func NewRetryAccessor(inner Accessor, attempts int, backoff time.Duration, log *logrus.Logger) *RetryAccessor {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryAccessor{
		inner:    inner,
		attempts: attempts,
		backoff:  backoff,
		log:      log,
	}
}

func (a *RetryAccessor) GetBar(ctx context.Context, symbol string, date time.Time) (*models.Price, error) {
	var lastErr error
	delay := a.backoff

	for attempt := 1; attempt <= a.attempts; attempt++ {
		bar, err := a.inner.GetBar(ctx, symbol, date)
		if err == nil {
			return bar, nil
		}
		if errors.Is(err, ErrNotAvailable) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		lastErr = err

		if attempt < a.attempts {
			a.log.WithFields(logrus.Fields{
				"symbol":  symbol,
				"date":    date.Format("2006-01-02"),
				"attempt": attempt,
			}).WithError(err).Warn("bar read failed, retrying")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return nil, lastErr
}
