package calculator

import (
	"errors"
	"fmt"
	"math"

	"MarketPulse/internal/model"
)

// Indicator parameters.
const (
	MinBars = 30

	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BollingerPeriod = 20
	BollingerStdDev = 2.0
	VolumeMAPeriod  = 20
	SparklineLength = 7
)

var (
	// ErrInsufficientData means the series is too short to produce a snapshot.
	// Callers treat it as a skip, not a failure.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMalformedSeries means the series violates the bar invariants.
	ErrMalformedSeries = errors.New("malformed series")
)

// ValidateSeries checks the bar invariants: non-empty, finite, non-negative,
// positive open/close and strictly ascending timestamps.
func ValidateSeries(series model.BarSeries) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: empty series", ErrMalformedSeries)
	}
	for i, b := range series {
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value at bar %d", ErrMalformedSeries, i)
			}
			if v < 0 {
				return fmt.Errorf("%w: negative value at bar %d", ErrMalformedSeries, i)
			}
		}
		if b.Open <= 0 || b.Close <= 0 {
			return fmt.Errorf("%w: non-positive open/close at bar %d", ErrMalformedSeries, i)
		}
		if i > 0 && !b.Time.After(series[i-1].Time) {
			return fmt.Errorf("%w: timestamps not ascending at bar %d", ErrMalformedSeries, i)
		}
	}
	return nil
}

// ComputeIndicators derives RSI, MACD, Bollinger bands and the volume moving
// average from series and returns the snapshot for its last bar. The series is
// only read. Rows where any indicator window has not filled are dropped; fewer
// than two remaining rows yields ErrInsufficientData.
func ComputeIndicators(series model.BarSeries) (*model.IndicatorSnapshot, error) {
	if err := ValidateSeries(series); err != nil {
		return nil, err
	}
	if len(series) < MinBars {
		return nil, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientData, len(series), MinBars)
	}

	closes := series.Closes()
	volumes := series.Volumes()

	rsi, err := RSISeries(closes, RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	macd, macdSignal, err := MACDSeries(closes, MACDFast, MACDSlow, MACDSignal)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	upper, lower, err := BollingerSeries(closes, BollingerPeriod, BollingerStdDev)
	if err != nil {
		return nil, fmt.Errorf("bollinger: %w", err)
	}
	volMA, err := SMASeries(volumes, VolumeMAPeriod)
	if err != nil {
		return nil, fmt.Errorf("volume ma: %w", err)
	}

	columns := [][]float64{rsi, macd, macdSignal, upper, lower, volMA}
	rows := make([]int, 0, len(closes))
	for i := range closes {
		if rowDefined(columns, i) {
			rows = append(rows, i)
		}
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %d rows after indicator warm-up", ErrInsufficientData, len(rows))
	}

	cur := rows[len(rows)-1]
	prev := rows[len(rows)-2]

	snap := &model.IndicatorSnapshot{
		RSI:                 clamp(rsi[cur], 0, 100),
		MACD:                macd[cur],
		MACDSignal:          macdSignal[cur],
		BollingerUpper:      upper[cur],
		BollingerLower:      lower[cur],
		VolumeMovingAverage: volMA[cur],
		VolumeRatio:         volumeRatio(volumes[cur], volMA[cur]),
		CurrentClose:        closes[cur],
		PreviousClose:       closes[prev],
		Sparkline:           sparkline(closes),
	}

	high, low, err := CalculateRange(series[:cur+1], 1)
	if err != nil {
		return nil, fmt.Errorf("daily range: %w", err)
	}
	snap.High24h, snap.Low24h = high, low

	if chg, err := ChangePercent(snap.CurrentClose, snap.PreviousClose); err == nil {
		snap.ChangePercent = chg
	}
	return snap, nil
}

func rowDefined(columns [][]float64, i int) bool {
	for _, col := range columns {
		if math.IsNaN(col[i]) {
			return false
		}
	}
	return true
}

func volumeRatio(current, average float64) float64 {
	if average == 0 || math.IsNaN(average) {
		return 1.0
	}
	r := current / average
	if r < 0 {
		return 0
	}
	return r
}

func sparkline(closes []float64) []float64 {
	n := SparklineLength
	if len(closes) < n {
		n = len(closes)
	}
	out := make([]float64, n)
	copy(out, closes[len(closes)-n:])
	return out
}
