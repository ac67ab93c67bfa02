package strategy

import (
	"fmt"
	"math"

	"MarketPulse/internal/model"
)

// Volatility bounds for the stock market mood score.
const (
	calmVolatility  = 10.0
	panicVolatility = 35.0
	calmMood        = 95
	panicMood       = 5
	NeutralMood     = 50
)

// StockMarketMood maps a volatility index reading to a 0-100 mood score.
func StockMarketMood(v float64) int {
	switch {
	case v <= calmVolatility:
		return calmMood
	case v >= panicVolatility:
		return panicMood
	}
	mood := math.Floor(100 - (v-calmVolatility)/(panicVolatility-calmVolatility)*100)
	return int(math.Max(0, math.Min(100, mood)))
}

// Headline picks the headline and body for a snapshot whose signals are
// already sorted by score.
func Headline(signals []model.Signal, sentiment model.Sentiment) (headline, body string) {
	if len(signals) > 0 && signals[0].Score >= HighConviction {
		top := signals[0]
		return fmt.Sprintf("%s flashes %s", top.Symbol, top.SignalType),
			fmt.Sprintf("%s detected (%s): suggested action %s.", top.SignalType, top.Detail, top.Action)
	}
	return "No high-conviction setup",
		fmt.Sprintf("Crypto is in %s mode. Markets are choppy, no instrument cleared the conviction bar; automated analysis based on RSI, MACD, Bollinger and volume data.", sentiment.Label)
}
