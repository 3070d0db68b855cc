package marketdata

import (
	"context"
	"errors"
	"time"

	"EquityPaperBot/internal/models"
	"EquityPaperBot/internal/repositories"
)

// ErrNotAvailable means no bar exists for (symbol, date). For open-position
// exit checks the caller retries; for new candidates the day is skipped.
var ErrNotAvailable = errors.New("bar not available")

// Accessor is the narrow read interface the simulation core consumes.
// Implementations must be idempotent and side-effect free from the core's
// perspective; caching and rate limiting are their own concern.
type Accessor interface {
	GetBar(ctx context.Context, symbol string, date time.Time) (*models.Price, error)
}

// RepoAccessor serves bars from the prices table.
type RepoAccessor struct {
	repo *repositories.PriceRepository
}

func NewRepoAccessor(repo *repositories.PriceRepository) *RepoAccessor {
	return &RepoAccessor{repo: repo}
}

func (a *RepoAccessor) GetBar(ctx context.Context, symbol string, date time.Time) (*models.Price, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bar, err := a.repo.GetBar(symbol, date)
	if err != nil {
		return nil, err
	}
	if bar == nil {
		return nil, ErrNotAvailable
	}
	return bar, nil
}
