package calculator

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"
)

// SMASeries computes the simple moving average of values over period.
// Positions where the window has not filled yet are NaN.
func SMASeries(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := nanSeries(len(values))
	if len(values) < period {
		return out, nil
	}
	sma := talib.Sma(values, period)
	copy(out[period-1:], sma[period-1:])
	return out, nil
}

// EMASeries computes the exponential moving average of values over period,
// seeded with the SMA of the first window. Positions before the seed are NaN.
func EMASeries(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := nanSeries(len(values))
	if len(values) < period {
		return out, nil
	}
	ema := talib.Ema(values, period)
	copy(out[period-1:], ema[period-1:])
	return out, nil
}

func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
