package calculator

import (
	"errors"
	"math"

	"MarketPulse/internal/model"
)

// CalculateRange scans the most recent `lookback` bars and returns the high and low.
// A lookback of 1 gives the range of the latest daily bar.
func CalculateRange(bars model.BarSeries, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	if lookback <= 0 {
		return 0, 0, errors.New("lookback must be positive")
	}
	n := len(bars)
	start := n - lookback
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// ChangePercent returns the percentage move from previous to current.
func ChangePercent(current, previous float64) (float64, error) {
	if previous == 0 {
		return 0, errors.New("previous value must be non-zero")
	}
	return (current - previous) / previous * 100, nil
}
