package collector

import (
	"context"
	"fmt"

	"MarketPulse/internal/model"
)

// VolatilityFetcher reads the latest close of a volatility index such as ^VIX.
type VolatilityFetcher struct {
	Fetcher    Fetcher
	Instrument model.Instrument
}

// NewVolatilityFetcher creates a VolatilityFetcher for sourceSymbol.
func NewVolatilityFetcher(f Fetcher, sourceSymbol string) *VolatilityFetcher {
	return &VolatilityFetcher{
		Fetcher:    f,
		Instrument: model.Instrument{Symbol: sourceSymbol, SourceSymbol: sourceSymbol, AssetType: model.AssetStock},
	}
}

// FetchVolatility returns the most recent close of the volatility index.
func (v *VolatilityFetcher) FetchVolatility(ctx context.Context) (float64, error) {
	bars, err := v.Fetcher.FetchDailyBars(ctx, v.Instrument, 5)
	if err != nil {
		return 0, fmt.Errorf("fetch volatility index: %w", err)
	}
	series := Normalize(bars, v.Instrument.AssetType)
	if len(series) == 0 {
		return 0, fmt.Errorf("volatility index %s: no data", v.Instrument.SourceSymbol)
	}
	return series[len(series)-1].Close, nil
}
