package strategy

import (
	"fmt"
	"strings"

	"MarketPulse/internal/model"
)

// Narrative thresholds. They are independent of the classification table.
const (
	narrativeOversold    = 30.0
	narrativeOverbought  = 70.0
	narrativeVolumeSpike = 2.0
	narrativeVolumeDry   = 0.6
)

// Narrate explains the snapshot in a few short clauses: trend, RSI, then
// volume and band position when they stand out.
func Narrate(snap *model.IndicatorSnapshot) string {
	price := snap.CurrentClose
	clauses := make([]string, 0, 4)

	if snap.MACD > snap.MACDSignal {
		clauses = append(clauses, "MACD is above its signal line, bullish trend intact.")
	} else {
		clauses = append(clauses, "MACD is below its signal line, momentum weakening.")
	}

	rsi := FormatFixed(snap.RSI, 1)
	switch {
	case snap.RSI < narrativeOversold:
		clauses = append(clauses, fmt.Sprintf("RSI %s is oversold.", rsi))
	case snap.RSI > narrativeOverbought:
		clauses = append(clauses, fmt.Sprintf("RSI %s is overbought.", rsi))
	default:
		clauses = append(clauses, fmt.Sprintf("RSI %s is neutral.", rsi))
	}

	switch {
	case snap.VolumeRatio > narrativeVolumeSpike:
		side := "selling"
		if price > snap.PreviousClose {
			side = "buying"
		}
		clauses = append(clauses, fmt.Sprintf("Volume anomaly at %sx average, heavy %s.", FormatFixed(snap.VolumeRatio, 1), side))
	case snap.VolumeRatio < narrativeVolumeDry:
		clauses = append(clauses, "Volume extremely low, awaiting direction.")
	}

	switch {
	case price < snap.BollingerLower:
		clauses = append(clauses, "Price is below the lower band, reversion likely.")
	case price > snap.BollingerUpper:
		clauses = append(clauses, "Price is above the upper band, strong momentum.")
	}

	return strings.Join(clauses, " ")
}
