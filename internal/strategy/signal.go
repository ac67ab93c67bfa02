package strategy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"MarketPulse/internal/model"
)

// BuildSignal classifies and narrates snap for inst and assembles the
// display-ready Signal.
func BuildSignal(inst model.Instrument, snap *model.IndicatorSnapshot, generatedAt time.Time) model.Signal {
	body := Classify(snap)
	spark := make([]float64, len(snap.Sparkline))
	copy(spark, snap.Sparkline)

	return model.Signal{
		ID:         fmt.Sprintf("sig_%s_%d", inst.Symbol, generatedAt.Unix()),
		Symbol:     inst.Symbol,
		AssetType:  inst.AssetType,
		Price:      FormatFixed(snap.CurrentClose, 2),
		SignalType: body.Type,
		Action:     body.Action,
		Detail:     body.Detail,
		Score:      clampScore(body.Score),
		Narrative:  Narrate(snap),
		Sparkline:  spark,
		Stats: model.SignalStats{
			RSI:      FormatFixed(snap.RSI, 1),
			VolRatio: FormatFixed(snap.VolumeRatio, 1) + "x",
			High24h:  FormatFixed(snap.High24h, 2),
			Low24h:   FormatFixed(snap.Low24h, 2),
		},
	}
}

// FormatFixed renders v with exactly places decimal digits, rounding the
// exact binary value of v (1.005 renders as "1.00").
func FormatFixed(v float64, places int32) string {
	return decimal.NewFromFloatWithExponent(v, -places).StringFixed(places)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
