package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunConfig is the on-disk shape (YAML) of a single simulation run.
type RunConfig struct {
	Name           string   `yaml:"name"`
	Universe       []string `yaml:"universe"`
	StartDate      string   `yaml:"start_date"` // 2006-01-02
	EndDate        string   `yaml:"end_date"`
	InitialBalance float64  `yaml:"initial_balance"`

	Risk    RiskConfig    `yaml:"risk"`
	Sizing  SizingConfig  `yaml:"sizing"`
	Cost    CostConfig    `yaml:"cost"`
	Exits   ExitConfig    `yaml:"exits"`
	Hold    HoldingConfig `yaml:"holding"`
	Session SessionConfig `yaml:"session"`
}

type RiskConfig struct {
	MaxConcurrentPositions   int     `yaml:"max_concurrent_positions"`
	MaxPortfolioRiskFraction float64 `yaml:"max_portfolio_risk_fraction"`
	MaxDailyLossFraction     float64 `yaml:"max_daily_loss_fraction"`
	AllowPyramiding          bool    `yaml:"allow_pyramiding"`
	DailyHaltReset           bool    `yaml:"daily_halt_reset"`
}

type SizingConfig struct {
	KellyMultiplier      float64 `yaml:"kelly_multiplier"`
	KellyCeilingFraction float64 `yaml:"kelly_ceiling_fraction"`
	ColdStartFraction    float64 `yaml:"cold_start_fraction"`
	MinTradeHistory      int     `yaml:"min_trade_history"`
	MinPositionValue     float64 `yaml:"min_position_value"`
}

type CostConfig struct {
	SpreadFraction     float64 `yaml:"spread_fraction"`
	IlliquidImpact     float64 `yaml:"illiquid_impact"`
	FeeFixed           float64 `yaml:"fee_fixed"`
	FeeProportional    float64 `yaml:"fee_proportional"`
	LiquidityThreshold float64 `yaml:"liquidity_threshold"`
}

type ExitConfig struct {
	// "stop_first" is the conservative intrabar convention; "target_first"
	// exists because other backtest conventions differ.
	Policy string `yaml:"policy"`
}

type HoldingConfig struct {
	MaxHoldingDays int `yaml:"max_holding_days"`
}

type SessionConfig struct {
	Holidays []string `yaml:"holidays"` // 2006-01-02, skipped like weekends
}

// LoadRunConfig reads and validates a run configuration file.
func LoadRunConfig(path string) (*RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rc RunConfig
	if err := yaml.Unmarshal(raw, &rc); err != nil {
		return nil, err
	}
	rc.applyDefaults()
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	return &rc, nil
}

func (rc *RunConfig) applyDefaults() {
	if rc.Risk.MaxConcurrentPositions == 0 {
		rc.Risk.MaxConcurrentPositions = 5
	}
	if rc.Risk.MaxPortfolioRiskFraction == 0 {
		rc.Risk.MaxPortfolioRiskFraction = 0.5
	}
	if rc.Risk.MaxDailyLossFraction == 0 {
		rc.Risk.MaxDailyLossFraction = 0.03
	}
	if rc.Sizing.KellyMultiplier == 0 {
		rc.Sizing.KellyMultiplier = 0.5
	}
	if rc.Sizing.KellyCeilingFraction == 0 {
		rc.Sizing.KellyCeilingFraction = 0.2
	}
	if rc.Sizing.ColdStartFraction == 0 {
		rc.Sizing.ColdStartFraction = 0.02
	}
	if rc.Sizing.MinTradeHistory == 0 {
		rc.Sizing.MinTradeHistory = 20
	}
	if rc.Sizing.MinPositionValue == 0 {
		rc.Sizing.MinPositionValue = 100
	}
	if rc.Exits.Policy == "" {
		rc.Exits.Policy = "stop_first"
	}
	if rc.Hold.MaxHoldingDays == 0 {
		rc.Hold.MaxHoldingDays = 10
	}
	if rc.InitialBalance == 0 {
		rc.InitialBalance = 100000
	}
}

func (rc *RunConfig) Validate() error {
	if len(rc.Universe) == 0 {
		return errors.New("universe is required")
	}
	if _, err := rc.DateRange(); err != nil {
		return err
	}
	if rc.Risk.MaxPortfolioRiskFraction <= 0 || rc.Risk.MaxPortfolioRiskFraction > 1 {
		return fmt.Errorf("max_portfolio_risk_fraction out of range: %v", rc.Risk.MaxPortfolioRiskFraction)
	}
	if rc.Risk.MaxDailyLossFraction <= 0 || rc.Risk.MaxDailyLossFraction > 1 {
		return fmt.Errorf("max_daily_loss_fraction out of range: %v", rc.Risk.MaxDailyLossFraction)
	}
	if rc.Sizing.KellyMultiplier <= 0 || rc.Sizing.KellyMultiplier > 1 {
		return fmt.Errorf("kelly_multiplier out of range: %v", rc.Sizing.KellyMultiplier)
	}
	if rc.Sizing.KellyCeilingFraction <= 0 || rc.Sizing.KellyCeilingFraction > 1 {
		return fmt.Errorf("kelly_ceiling_fraction out of range: %v", rc.Sizing.KellyCeilingFraction)
	}
	if rc.Exits.Policy != "stop_first" && rc.Exits.Policy != "target_first" {
		return fmt.Errorf("unknown exit policy %q", rc.Exits.Policy)
	}
	return nil
}

// DateRange parses the configured start/end dates.
func (rc *RunConfig) DateRange() (dr [2]time.Time, err error) {
	start, err := time.Parse("2006-01-02", rc.StartDate)
	if err != nil {
		return dr, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", rc.EndDate)
	if err != nil {
		return dr, fmt.Errorf("invalid end_date: %w", err)
	}
	if end.Before(start) {
		return dr, errors.New("end_date before start_date")
	}
	return [2]time.Time{start, end}, nil
}

// HolidayDates parses the configured holiday list.
func (rc *RunConfig) HolidayDates() ([]time.Time, error) {
	out := make([]time.Time, 0, len(rc.Session.Holidays))
	for _, h := range rc.Session.Holidays {
		t, err := time.Parse("2006-01-02", h)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", h, err)
		}
		out = append(out, t)
	}
	return out, nil
}
