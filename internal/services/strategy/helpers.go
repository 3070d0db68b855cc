package strategy

import (
	"math"
	"time"

	"EquityPaperBot/internal/models"
)

func tail(bars []models.Price, n int) []models.Price {
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}

func highestHigh(bars []models.Price) float64 {
	h := math.Inf(-1)
	for _, b := range bars {
		if b.High > h {
			h = b.High
		}
	}
	return h
}

func lowestLow(bars []models.Price) float64 {
	l := math.Inf(1)
	for _, b := range bars {
		if b.Low < l {
			l = b.Low
		}
	}
	return l
}

func closeMean(bars []models.Price) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Close
	}
	return sum / float64(len(bars))
}

func closeStdDev(bars []models.Price, mean float64) float64 {
	if len(bars) < 2 {
		return 0
	}
	variance := 0.0
	for _, b := range bars {
		variance += math.Pow(b.Close-mean, 2)
	}
	variance /= float64(len(bars) - 1)
	return math.Sqrt(variance)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
