package model

// IndicatorSnapshot holds the computed indicators for the latest bar
// alongside the values of the bar before it.
type IndicatorSnapshot struct {
	RSI                 float64 // 0 ~ 100
	MACD                float64
	MACDSignal          float64
	BollingerUpper      float64
	BollingerLower      float64
	VolumeMovingAverage float64
	VolumeRatio         float64 // current volume / VolumeMovingAverage, 1.0 when the average is zero
	CurrentClose        float64
	PreviousClose       float64
	High24h             float64
	Low24h              float64
	ChangePercent       float64
	Sparkline           []float64 // last 7 closes, oldest first
}
