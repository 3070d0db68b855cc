package calendar

import "time"

// Calendar produces the ordered sequence of trading days that drives a
// simulation run. Weekends are always skipped; exchange holidays come from
// the run configuration.
type Calendar struct {
	holidays map[string]struct{}
}

func New(holidays []time.Time) *Calendar {
	h := make(map[string]struct{}, len(holidays))
	for _, d := range holidays {
		h[dateKey(d)] = struct{}{}
	}
	return &Calendar{holidays: h}
}

// IsTradingDay reports whether the market is open on the given date.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[dateKey(t)]
	return !holiday
}

// Timeline returns every trading day in [start, end], normalized to UTC
// midnight, oldest first.
func (c *Calendar) Timeline(start, end time.Time) []time.Time {
	var days []time.Time
	for d := normalize(start); !d.After(normalize(end)); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// NextTradingDay returns the first trading day strictly after t.
func (c *Calendar) NextTradingDay(t time.Time) time.Time {
	d := normalize(t).AddDate(0, 0, 1)
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
