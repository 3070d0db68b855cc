package backtest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"EquityPaperBot/internal/models"
	"EquityPaperBot/internal/operations/portfolio"
)

func TestWriteEquityCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equity.csv")
	curve := []portfolio.EquityPoint{
		{Date: date(2024, 1, 8), Equity: 100000, Cash: 98000, OpenPositions: 1},
		{Date: date(2024, 1, 9), Equity: 99900, Cash: 99900, OpenPositions: 0},
	}
	if err := WriteEquityCSV(path, curve); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows", len(lines))
	}
	if lines[0] != "date,equity,cash,open_position_count" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2024-01-08,100000.000000,98000.000000,1") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestWriteTradesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	trades := []portfolio.Trade{{
		Symbol:     "AAA",
		Side:       models.PositionSideLong,
		Size:       20,
		EntryDate:  date(2024, 1, 8),
		EntryPrice: 100,
		ExitDate:   date(2024, 1, 9),
		ExitPrice:  95,
		ExitReason: models.ExitReasonStop,
		PnL:        -100,
	}}
	if err := WriteTradesCSV(path, trades); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus 1 row", len(lines))
	}
	if !strings.Contains(lines[1], "AAA") || !strings.Contains(lines[1], models.ExitReasonStop) {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestGridSearchIndependentRuns(t *testing.T) {
	day1, day2 := date(2024, 1, 8), date(2024, 1, 9)

	signals := newScriptedSignals()
	signals.add(day1, longCandidate("AAA", 100, 95, 110))

	acc := newFakeAccessor()
	acc.add("AAA", day2, 94, 100, 96) // stop hit

	// Same dates, different sizing: the cold-start fraction separates them.
	small := testEngineConfig(day1, day2)
	small.RunID = "small"
	small.Sizing.ColdStartFraction = 0.02
	large := testEngineConfig(day1, day2)
	large.RunID = "large"
	large.Sizing.ColdStartFraction = 0.04

	results, err := GridSearch(context.Background(), []Config{small, large}, acc, signals, nil, testLogger(), 2)
	if err != nil {
		t.Fatalf("grid search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	// Order follows config order, not completion order.
	if results[0].RunID != "small" || results[1].RunID != "large" {
		t.Fatalf("result order wrong: %s, %s", results[0].RunID, results[1].RunID)
	}
	// 20 shares losing 5 vs 40 shares losing 5.
	if results[0].Trades[0].Size != 20 || results[1].Trades[0].Size != 40 {
		t.Fatalf("sizes = %v, %v; runs not independent",
			results[0].Trades[0].Size, results[1].Trades[0].Size)
	}
}
