package calculator

import (
	"errors"

	"github.com/markcheno/go-talib"
)

// BollingerSeries returns the upper and lower bands: the period SMA of closes
// plus/minus stdDevs population standard deviations over the same window.
func BollingerSeries(closes []float64, period int, stdDevs float64) (upper, lower []float64, err error) {
	if period <= 1 {
		return nil, nil, errors.New("period must be greater than one")
	}
	if stdDevs <= 0 {
		return nil, nil, errors.New("standard deviation multiplier must be positive")
	}
	upper = nanSeries(len(closes))
	lower = nanSeries(len(closes))
	if len(closes) < period {
		return upper, lower, nil
	}
	up, _, low := talib.BBands(closes, period, stdDevs, stdDevs, talib.SMA)
	copy(upper[period-1:], up[period-1:])
	copy(lower[period-1:], low[period-1:])
	return upper, lower, nil
}
