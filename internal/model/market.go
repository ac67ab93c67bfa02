package model

import "time"

// AssetType classifies an instrument by market.
type AssetType string

const (
	AssetCrypto AssetType = "crypto"
	AssetStock  AssetType = "stock"
)

// Valid reports whether t is a known asset type.
func (t AssetType) Valid() bool {
	return t == AssetCrypto || t == AssetStock
}

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarSeries is the ascending daily history of one instrument.
type BarSeries []OHLCV

// Closes returns the closing prices in chronological order.
func (s BarSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Volumes returns the traded volumes in chronological order.
func (s BarSeries) Volumes() []float64 {
	vols := make([]float64, len(s))
	for i, b := range s {
		vols[i] = b.Volume
	}
	return vols
}

// Instrument is one entry of the configured universe.
type Instrument struct {
	Symbol       string    `yaml:"symbol" json:"symbol"`
	SourceSymbol string    `yaml:"source_symbol" json:"source_symbol"`
	AssetType    AssetType `yaml:"asset_type" json:"asset_type"`
}

// Sentiment is the externally published fear & greed reading.
type Sentiment struct {
	Value int
	Label string
}

// NeutralSentiment is used whenever the sentiment source is unavailable.
var NeutralSentiment = Sentiment{Value: 50, Label: "Neutral"}
