package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTimelineSkipsWeekends(t *testing.T) {
	cal := New(nil)

	// Mon Jan 8 2024 through Sun Jan 14 2024.
	days := cal.Timeline(date(2024, 1, 8), date(2024, 1, 14))
	if len(days) != 5 {
		t.Fatalf("expected 5 trading days, got %d", len(days))
	}
	if !days[0].Equal(date(2024, 1, 8)) || !days[4].Equal(date(2024, 1, 12)) {
		t.Fatalf("unexpected timeline bounds: %v .. %v", days[0], days[4])
	}
}

func TestTimelineSkipsHolidays(t *testing.T) {
	cal := New([]time.Time{date(2024, 1, 10)})

	days := cal.Timeline(date(2024, 1, 8), date(2024, 1, 12))
	if len(days) != 4 {
		t.Fatalf("expected 4 trading days, got %d", len(days))
	}
	for _, d := range days {
		if d.Equal(date(2024, 1, 10)) {
			t.Fatal("holiday not skipped")
		}
	}
}

func TestNextTradingDay(t *testing.T) {
	cal := New([]time.Time{date(2024, 1, 15)}) // Monday holiday

	// Friday -> skips weekend and the Monday holiday.
	next := cal.NextTradingDay(date(2024, 1, 12))
	if !next.Equal(date(2024, 1, 16)) {
		t.Fatalf("expected Tue Jan 16, got %v", next)
	}
}

func TestIsTradingDay(t *testing.T) {
	cal := New(nil)
	if cal.IsTradingDay(date(2024, 1, 13)) {
		t.Fatal("Saturday reported as trading day")
	}
	if !cal.IsTradingDay(date(2024, 1, 11)) {
		t.Fatal("Thursday reported as non-trading day")
	}
}
