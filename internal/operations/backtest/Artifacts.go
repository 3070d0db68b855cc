package backtest

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"EquityPaperBot/internal/operations/portfolio"
)

// WriteEquityCSV exports the equity curve in the stable tabular layout
// downstream report generators consume.
func WriteEquityCSV(path string, curve []portfolio.EquityPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "equity", "cash", "open_position_count"}); err != nil {
		return err
	}
	for _, p := range curve {
		row := []string{
			fmtDate(p.Date),
			fmtFloat(p.Equity),
			fmtFloat(p.Cash),
			strconv.Itoa(p.OpenPositions),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteTradesCSV exports the closed-trade log, one row per trade.
func WriteTradesCSV(path string, trades []portfolio.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"symbol", "side", "size",
		"entry_date", "entry_price", "stop_price", "target_price",
		"exit_date", "exit_price", "exit_reason",
		"pnl", "pnl_pct", "holding_days", "entry_fee", "exit_fee",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range trades {
		row := []string{
			t.Symbol,
			t.Side,
			fmtFloat(t.Size),
			fmtDate(t.EntryDate),
			fmtFloat(t.EntryPrice),
			fmtFloat(t.StopPrice),
			fmtFloat(t.TargetPrice),
			fmtDate(t.ExitDate),
			fmtFloat(t.ExitPrice),
			t.ExitReason,
			fmtFloat(t.PnL),
			fmtFloat(t.PnLPct),
			strconv.Itoa(t.HoldingDays),
			fmtFloat(t.EntryFee),
			fmtFloat(t.ExitFee),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteRejectionsCSV exports the candidate audit trail.
func WriteRejectionsCSV(path string, rejections []Rejection) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "symbol", "reason"}); err != nil {
		return err
	}
	for _, r := range rejections {
		if err := w.Write([]string{fmtDate(r.Date), r.Symbol, r.Reason}); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
