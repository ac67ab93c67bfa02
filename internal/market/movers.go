package market

import (
	"math"
	"sort"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/model"
	"MarketPulse/internal/strategy"
)

// Top mover selection.
const (
	MoverThreshold = 3.0 // absolute daily change in percent
	MaxMovers      = 3
)

type moverCandidate struct {
	inst   model.Instrument
	price  float64
	change float64 // percent
}

// newMoverCandidate reads the latest daily move of series. It reports false
// when the series has fewer than two closes or the move is undefined.
func newMoverCandidate(inst model.Instrument, series model.BarSeries) (moverCandidate, bool) {
	if len(series) < 2 {
		return moverCandidate{}, false
	}
	last, prev := series[len(series)-1].Close, series[len(series)-2].Close
	change, err := calculator.ChangePercent(last, prev)
	if err != nil || math.IsNaN(change) || math.IsInf(change, 0) {
		return moverCandidate{}, false
	}
	return moverCandidate{inst: inst, price: last, change: change}, true
}

// topMovers returns up to MaxMovers instruments whose daily change exceeds
// MoverThreshold, biggest gain first. Candidates need not have produced a
// signal.
func topMovers(candidates []moverCandidate) []model.TopMover {
	picked := make([]moverCandidate, 0, len(candidates))
	for _, c := range candidates {
		if math.Abs(c.change) > MoverThreshold {
			picked = append(picked, c)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].change > picked[j].change
	})
	if len(picked) > MaxMovers {
		picked = picked[:MaxMovers]
	}

	movers := make([]model.TopMover, 0, len(picked))
	for _, c := range picked {
		change := strategy.FormatFixed(c.change, 2)
		if c.change >= 0 {
			change = "+" + change
		}
		movers = append(movers, model.TopMover{
			Symbol:    c.inst.Symbol,
			Name:      c.inst.Symbol,
			Price:     "$" + strategy.FormatFixed(c.price, 2),
			Change24h: change + "%",
			Type:      c.inst.AssetType,
		})
	}
	return movers
}
