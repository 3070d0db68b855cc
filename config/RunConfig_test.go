package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRunFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRunConfigDefaults(t *testing.T) {
	path := writeRunFile(t, `
name: smoke
universe: [AAA, BBB]
start_date: "2024-01-08"
end_date: "2024-03-29"
`)
	rc, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if rc.InitialBalance != 100000 {
		t.Fatalf("initial balance = %v, want default 100000", rc.InitialBalance)
	}
	if rc.Risk.MaxConcurrentPositions != 5 || rc.Risk.MaxPortfolioRiskFraction != 0.5 || rc.Risk.MaxDailyLossFraction != 0.03 {
		t.Fatalf("risk defaults wrong: %+v", rc.Risk)
	}
	if rc.Sizing.KellyMultiplier != 0.5 || rc.Sizing.KellyCeilingFraction != 0.2 || rc.Sizing.ColdStartFraction != 0.02 {
		t.Fatalf("sizing defaults wrong: %+v", rc.Sizing)
	}
	if rc.Exits.Policy != "stop_first" {
		t.Fatalf("exit policy = %q, want stop_first", rc.Exits.Policy)
	}
	if rc.Hold.MaxHoldingDays != 10 {
		t.Fatalf("max holding days = %d, want 10", rc.Hold.MaxHoldingDays)
	}
}

func TestLoadRunConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "missing universe",
			body: `
name: bad
start_date: "2024-01-08"
end_date: "2024-03-29"
`,
			wantErr: "universe",
		},
		{
			name: "reversed dates",
			body: `
name: bad
universe: [AAA]
start_date: "2024-03-29"
end_date: "2024-01-08"
`,
			wantErr: "end_date before start_date",
		},
		{
			name: "bad exit policy",
			body: `
name: bad
universe: [AAA]
start_date: "2024-01-08"
end_date: "2024-03-29"
exits:
  policy: random
`,
			wantErr: "exit policy",
		},
		{
			name: "kelly multiplier out of range",
			body: `
name: bad
universe: [AAA]
start_date: "2024-01-08"
end_date: "2024-03-29"
sizing:
  kelly_multiplier: 1.5
`,
			wantErr: "kelly_multiplier",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadRunConfig(writeRunFile(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestHolidayDates(t *testing.T) {
	rc := &RunConfig{Session: SessionConfig{Holidays: []string{"2024-01-15", "2024-02-19"}}}
	dates, err := rc.HolidayDates()
	if err != nil {
		t.Fatalf("holidays: %v", err)
	}
	if len(dates) != 2 || dates[0].Format("2006-01-02") != "2024-01-15" {
		t.Fatalf("unexpected holidays %v", dates)
	}

	rc.Session.Holidays = []string{"not-a-date"}
	if _, err := rc.HolidayDates(); err == nil {
		t.Fatal("invalid holiday accepted")
	}
}
