package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"MarketPulse/internal/model"
)

// AlpacaFetcher implements Fetcher using the Alpaca market data API. Stocks
// use the IEX feed; crypto symbols are converted from "BTC-USD" to "BTC/USD".
type AlpacaFetcher struct {
	client *marketdata.Client
	now    func() time.Time
}

// NewAlpacaFetcher creates a fetcher authenticated with the given key pair.
func NewAlpacaFetcher(apiKey, apiSecret string) *AlpacaFetcher {
	return &AlpacaFetcher{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		now: time.Now,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// FetchDailyBars returns up to days daily bars for inst, oldest first.
func (f *AlpacaFetcher) FetchDailyBars(ctx context.Context, inst model.Instrument, days int) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	end := f.now().UTC()
	// Weekends and holidays eat into a calendar window for stocks.
	start := end.AddDate(0, 0, -(days*3/2 + 7))

	var bars []model.OHLCV
	switch inst.AssetType {
	case model.AssetCrypto:
		raw, err := f.client.GetCryptoBars(alpacaCryptoSymbol(inst.SourceSymbol), marketdata.GetCryptoBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, fmt.Errorf("alpaca crypto bars: %w", err)
		}
		bars = make([]model.OHLCV, 0, len(raw))
		for _, b := range raw {
			bars = append(bars, model.OHLCV{
				Time: b.Timestamp, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
			})
		}
	default:
		raw, err := f.client.GetBars(inst.SourceSymbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      marketdata.IEX,
		})
		if err != nil {
			return nil, fmt.Errorf("alpaca stock bars: %w", err)
		}
		bars = make([]model.OHLCV, 0, len(raw))
		for _, b := range raw {
			bars = append(bars, model.OHLCV{
				Time: b.Timestamp, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: float64(b.Volume),
			})
		}
	}

	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func alpacaCryptoSymbol(symbol string) string {
	if strings.Contains(symbol, "/") {
		return symbol
	}
	if i := strings.LastIndex(symbol, "-"); i > 0 {
		return symbol[:i] + "/" + symbol[i+1:]
	}
	return symbol + "/USD"
}
