package collector

import (
	"math"
	"sort"
	"time"

	"MarketPulse/internal/model"
)

// Normalize turns raw provider bars into a clean daily series: null bars are
// dropped, bars are sorted by day, duplicate days keep the last bar, and
// missing days are forward-filled with a copy of the previous bar. Crypto
// trades every calendar day; stocks are filled on weekdays only.
func Normalize(raw []model.OHLCV, asset model.AssetType) model.BarSeries {
	bars := make([]model.OHLCV, 0, len(raw))
	for _, b := range raw {
		if isNullBar(b) {
			continue
		}
		b.Time = dayOf(b.Time)
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	deduped := bars[:0]
	for _, b := range bars {
		if n := len(deduped); n > 0 && deduped[n-1].Time.Equal(b.Time) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}

	if len(deduped) == 0 {
		return nil
	}
	out := make(model.BarSeries, 0, len(deduped))
	out = append(out, deduped[0])
	for _, b := range deduped[1:] {
		prev := out[len(out)-1]
		for next := nextTradingDay(prev.Time, asset); next.Before(b.Time); next = nextTradingDay(next, asset) {
			fill := prev
			fill.Time = next
			out = append(out, fill)
		}
		out = append(out, b)
	}
	return out
}

func isNullBar(b model.OHLCV) bool {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nextTradingDay(t time.Time, asset model.AssetType) time.Time {
	next := t.AddDate(0, 0, 1)
	if asset == model.AssetStock {
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next
}
