package calculator

import (
	"errors"
	"math"
)

// MACDSeries returns the MACD line (fast EMA - slow EMA) and its signal line
// (EMA of the MACD line). The MACD line is defined from index slow-1, the
// signal line from index slow-1+signal-1; earlier positions are NaN.
func MACDSeries(closes []float64, fast, slow, signal int) (macd, macdSignal []float64, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return nil, nil, errors.New("periods must be positive")
	}
	if fast >= slow {
		return nil, nil, errors.New("fast period must be shorter than slow period")
	}
	macd = nanSeries(len(closes))
	macdSignal = nanSeries(len(closes))

	start := slow - 1
	if len(closes) < start+signal {
		return macd, macdSignal, nil
	}

	fastEMA, err := EMASeries(closes, fast)
	if err != nil {
		return nil, nil, err
	}
	slowEMA, err := EMASeries(closes, slow)
	if err != nil {
		return nil, nil, err
	}
	for i := start; i < len(closes); i++ {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	// The signal EMA must only see defined MACD values, so it runs on the tail.
	sig, err := EMASeries(macd[start:], signal)
	if err != nil {
		return nil, nil, err
	}
	for i, v := range sig {
		if !math.IsNaN(v) {
			macdSignal[start+i] = v
		}
	}
	return macd, macdSignal, nil
}
