package backtest

import (
	"time"

	"EquityPaperBot/internal/models"
	"EquityPaperBot/internal/operations/portfolio"
	"EquityPaperBot/internal/repositories"
)

// GormRecorder persists run artifacts through the repositories so a run
// can be inspected (and resumed) after a crash.
type GormRecorder struct {
	positions  *repositories.PositionRepository
	equity     *repositories.EquityRepository
	rejections *repositories.RejectionRepository
}

func NewGormRecorder(positions *repositories.PositionRepository, equity *repositories.EquityRepository, rejections *repositories.RejectionRepository) *GormRecorder {
	return &GormRecorder{
		positions:  positions,
		equity:     equity,
		rejections: rejections,
	}
}

func (r *GormRecorder) RecordEquity(runID string, point portfolio.EquityPoint) error {
	return r.equity.Append(&models.EquityPoint{
		RunID:         runID,
		Date:          point.Date,
		Equity:        point.Equity,
		Cash:          point.Cash,
		OpenPositions: point.OpenPositions,
	})
}

func (r *GormRecorder) RecordTrade(runID string, t portfolio.Trade) error {
	return r.positions.Create(&models.Position{
		RunID:       runID,
		Symbol:      t.Symbol,
		Side:        t.Side,
		Size:        t.Size,
		EntryDate:   t.EntryDate,
		EntryPrice:  t.EntryPrice,
		StopPrice:   t.StopPrice,
		TargetPrice: t.TargetPrice,
		ExitDate:    t.ExitDate,
		ExitPrice:   t.ExitPrice,
		ExitReason:  t.ExitReason,
		PnL:         t.PnL,
		PnLPct:      t.PnLPct,
		EntryFee:    t.EntryFee,
		ExitFee:     t.ExitFee,
		Status:      models.PositionStatusClosed,
		Confidence:  t.Confidence,
	})
}

func (r *GormRecorder) RecordRejection(runID string, date time.Time, symbol, reason string) error {
	return r.rejections.Create(&models.Rejection{
		RunID:  runID,
		Date:   date,
		Symbol: symbol,
		Reason: reason,
	})
}

func (r *GormRecorder) RecordSnapshot(runID string, open []portfolio.Position) error {
	rows := make([]models.Position, 0, len(open))
	for _, p := range open {
		rows = append(rows, models.Position{
			RunID:       runID,
			Symbol:      p.Symbol,
			Side:        p.Side,
			Size:        p.Size,
			EntryDate:   p.EntryDate,
			EntryPrice:  p.EntryPrice,
			StopPrice:   p.StopPrice,
			TargetPrice: p.TargetPrice,
			EntryFee:    p.EntryFee,
			Status:      models.PositionStatusOpen,
			DataStale:   p.DataStale,
			Confidence:  p.Confidence,
		})
	}
	return r.positions.ReplaceOpenByRun(runID, rows)
}
