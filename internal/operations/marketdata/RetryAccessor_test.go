package marketdata

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"EquityPaperBot/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type flakyAccessor struct {
	calls    int
	failures int
	err      error
}

func (f *flakyAccessor) GetBar(ctx context.Context, symbol string, date time.Time) (*models.Price, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &models.Price{Symbol: symbol, Date: date, Close: 100}, nil
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	inner := &flakyAccessor{failures: 2, err: errors.New("connection reset")}
	a := NewRetryAccessor(inner, 3, time.Millisecond, testLogger())

	bar, err := a.GetBar(context.Background(), "AAA", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bar == nil || bar.Close != 100 {
		t.Fatalf("unexpected bar %+v", bar)
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryGivesUpAfterAttempts(t *testing.T) {
	boom := errors.New("connection reset")
	inner := &flakyAccessor{failures: 10, err: boom}
	a := NewRetryAccessor(inner, 3, time.Millisecond, testLogger())

	_, err := a.GetBar(context.Background(), "AAA", time.Now())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
}

func TestRetrySkipsMissingBar(t *testing.T) {
	// A missing bar is an answer, not a failure to retry.
	inner := &flakyAccessor{failures: 10, err: ErrNotAvailable}
	a := NewRetryAccessor(inner, 3, time.Millisecond, testLogger())

	_, err := a.GetBar(context.Background(), "AAA", time.Now())
	if !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("calls = %d, want 1 with no retries", inner.calls)
	}
}

func TestRetryStopsOnCancellation(t *testing.T) {
	inner := &flakyAccessor{failures: 10, err: errors.New("connection reset")}
	a := NewRetryAccessor(inner, 5, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := a.GetBar(ctx, "AAA", time.Now())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
