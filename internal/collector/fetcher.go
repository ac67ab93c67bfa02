package collector

import (
	"context"

	"MarketPulse/internal/model"
)

// Fetcher defines the interface for fetching daily market data.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, inst model.Instrument, days int) ([]model.OHLCV, error)
	Name() string
}
