package risk

import (
	"errors"
	"fmt"
	"time"

	"EquityPaperBot/config"
	"EquityPaperBot/internal/operations/portfolio"
	"EquityPaperBot/internal/services/sizing"
	"EquityPaperBot/internal/services/strategy"
)

var (
	// ErrRiskLimitBreached wraps every admission failure so callers can
	// match the whole family with errors.Is.
	ErrRiskLimitBreached = errors.New("risk limit breached")

	// ErrDailyLossHalt is returned while the kill switch is engaged.
	ErrDailyLossHalt = fmt.Errorf("%w: daily loss halt", ErrRiskLimitBreached)
)

// State of the kill-switch machine.
type State string

const (
	StateNormal State = "normal"
	StateHalted State = "halted"
)

// Manager enforces portfolio-level constraints before a candidate is
// admitted. It is a two-state machine: NORMAL until the daily loss limit is
// breached, HALTED afterwards. HALTED clears on the next trading day when
// daily reset is allowed, otherwise only on an explicit Reset.
type Manager struct {
	cfg config.RiskConfig

	state    State
	haltedOn time.Time
}

func NewManager(cfg config.RiskConfig) *Manager {
	return &Manager{cfg: cfg, state: StateNormal}
}

// State returns the current kill-switch state.
func (m *Manager) State() State {
	return m.state
}

// StartDay applies the daily reset policy. Returns true when a halt was
// lifted.
func (m *Manager) StartDay(date time.Time) bool {
	if m.state == StateHalted && m.cfg.DailyHaltReset && date.After(m.haltedOn) {
		m.state = StateNormal
		return true
	}
	return false
}

// RecordDailyLoss feeds the day's realized-plus-unrealized loss fraction
// into the kill switch. Reaching the configured threshold trips it.
// Returns true on the NORMAL -> HALTED transition.
func (m *Manager) RecordDailyLoss(date time.Time, lossFraction float64) bool {
	if m.state == StateHalted {
		return false
	}
	if lossFraction >= m.cfg.MaxDailyLossFraction {
		m.state = StateHalted
		m.haltedOn = date
		return true
	}
	return false
}

// Reset clears the halt unconditionally (new run, or manual intervention).
func (m *Manager) Reset() {
	m.state = StateNormal
	m.haltedOn = time.Time{}
}

// Admit checks a sized candidate against the portfolio constraints. Checks
// run in order and the first failure short-circuits.
func (m *Manager) Admit(c *strategy.Candidate, sized *sizing.Sized, account portfolio.AccountState, open []portfolio.Position) error {
	if len(open) >= m.cfg.MaxConcurrentPositions {
		return fmt.Errorf("%w: %d positions already open (max %d)",
			ErrRiskLimitBreached, len(open), m.cfg.MaxConcurrentPositions)
	}

	if account.Equity > 0 {
		aggregate := candidateRisk(c, sized)
		for _, p := range open {
			aggregate += p.RiskAmount()
		}
		if frac := aggregate / account.Equity; frac > m.cfg.MaxPortfolioRiskFraction {
			return fmt.Errorf("%w: aggregate risk %.1f%% exceeds %.1f%%",
				ErrRiskLimitBreached, frac*100, m.cfg.MaxPortfolioRiskFraction*100)
		}
	}

	if !m.cfg.AllowPyramiding {
		for _, p := range open {
			if p.Symbol == c.Symbol {
				return fmt.Errorf("%w: %s already held", ErrRiskLimitBreached, c.Symbol)
			}
		}
	}

	if m.state == StateHalted {
		return ErrDailyLossHalt
	}
	return nil
}

func candidateRisk(c *strategy.Candidate, sized *sizing.Sized) float64 {
	d := c.EntryPrice - c.StopPrice
	if d < 0 {
		d = -d
	}
	return sized.Shares * d
}
