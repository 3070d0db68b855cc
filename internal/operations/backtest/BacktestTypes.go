package backtest

import (
	"time"

	"github.com/google/uuid"

	"EquityPaperBot/config"
	"EquityPaperBot/internal/models"
	"EquityPaperBot/internal/operations/portfolio"
	"EquityPaperBot/internal/services/metrics"
)

// State of the simulation engine.
type State string

const (
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateHalted       State = "halted"
	StateCompleted    State = "completed"
)

// Config is the fully resolved configuration for one simulation run.
type Config struct {
	RunID          string
	Name           string
	Universe       []string
	Start          time.Time
	End            time.Time
	InitialBalance float64
	Holidays       []time.Time

	MaxHoldingDays int
	ExitPolicy     portfolio.ExitPolicy

	Risk   config.RiskConfig
	Sizing config.SizingConfig
	Cost   config.CostConfig
}

// ConfigFromRun resolves a YAML run configuration into an engine config
// with a fresh run ID.
func ConfigFromRun(rc *config.RunConfig) (Config, error) {
	dr, err := rc.DateRange()
	if err != nil {
		return Config{}, err
	}
	holidays, err := rc.HolidayDates()
	if err != nil {
		return Config{}, err
	}
	return Config{
		RunID:          uuid.NewString(),
		Name:           rc.Name,
		Universe:       rc.Universe,
		Start:          dr[0],
		End:            dr[1],
		InitialBalance: rc.InitialBalance,
		Holidays:       holidays,
		MaxHoldingDays: rc.Hold.MaxHoldingDays,
		ExitPolicy:     portfolio.ParseExitPolicy(rc.Exits.Policy),
		Risk:           rc.Risk,
		Sizing:         rc.Sizing,
		Cost:           rc.Cost,
	}, nil
}

// Rejection is one entry of the candidate audit trail.
type Rejection struct {
	Date   time.Time
	Symbol string
	Reason string
}

// Results is everything a run communicates outward: the metrics summary,
// the trade log, the equity curve, and the rejection audit trail.
type Results struct {
	RunID   string
	Name    string
	State   State
	Partial bool

	Summary    metrics.Summary
	Trades     []portfolio.Trade
	Curve      []portfolio.EquityPoint
	Rejections []Rejection
}

// RunRecorder persists run artifacts as the engine produces them, keeping
// the ledger recoverable after a crash. The engine only needs this narrow
// interface; production wires the gorm-backed recorder, tests the no-op.
type RunRecorder interface {
	RecordEquity(runID string, point portfolio.EquityPoint) error
	RecordTrade(runID string, trade portfolio.Trade) error
	RecordRejection(runID string, date time.Time, symbol, reason string) error
	RecordSnapshot(runID string, open []portfolio.Position) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordEquity(string, portfolio.EquityPoint) error        { return nil }
func (NopRecorder) RecordTrade(string, portfolio.Trade) error               { return nil }
func (NopRecorder) RecordRejection(string, time.Time, string, string) error { return nil }
func (NopRecorder) RecordSnapshot(string, []portfolio.Position) error       { return nil }

// InstrumentIndex resolves per-symbol reference data. Symbols without a
// row fall back to a lot size of one share.
type InstrumentIndex map[string]models.Instrument

func (ix InstrumentIndex) Lookup(symbol string) models.Instrument {
	if inst, ok := ix[symbol]; ok {
		return inst
	}
	return models.Instrument{Symbol: symbol, LotSize: 1, TickSize: 0.01}
}
