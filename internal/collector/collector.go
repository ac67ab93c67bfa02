package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"MarketPulse/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.OHLCV // keyed by source symbol
	Err   error
	Calls int

	mu sync.Mutex
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, inst model.Instrument, days int) ([]model.OHLCV, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[inst.SourceSymbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, days), nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	today := dayOf(time.Now())
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   today.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches and cleans daily series. Each asset type has an ordered
// list of sources; later sources are only tried when earlier ones fail.
type Collector struct {
	Sources     map[model.AssetType][]Fetcher
	HistoryDays int
}

// NewCollector creates a new Collector.
func NewCollector(historyDays int) *Collector {
	return &Collector{Sources: make(map[model.AssetType][]Fetcher), HistoryDays: historyDays}
}

// Use appends fetchers to the source list of an asset type.
func (c *Collector) Use(asset model.AssetType, fetchers ...Fetcher) *Collector {
	c.Sources[asset] = append(c.Sources[asset], fetchers...)
	return c
}

// FetchSeries returns the normalized daily series of inst.
func (c *Collector) FetchSeries(ctx context.Context, inst model.Instrument) (model.BarSeries, error) {
	sources := c.Sources[inst.AssetType]
	if len(sources) == 0 {
		return nil, fmt.Errorf("no data source for asset type %q", inst.AssetType)
	}

	var errs []error
	for _, f := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		bars, err := f.FetchDailyBars(ctx, inst, c.HistoryDays)
		if err != nil {
			log.WithFields(log.Fields{"symbol": inst.Symbol, "source": f.Name()}).Warnf("fetch daily bars failed: %v", err)
			errs = append(errs, fmt.Errorf("%s: %w", f.Name(), err))
			continue
		}
		series := Normalize(bars, inst.AssetType)
		if len(series) == 0 {
			errs = append(errs, fmt.Errorf("%s: no usable bars", f.Name()))
			continue
		}
		log.WithFields(log.Fields{"symbol": inst.Symbol, "source": f.Name(), "bars": len(series)}).Debug("series collected")
		return series, nil
	}
	return nil, fmt.Errorf("fetch %s: %w", inst.Symbol, errors.Join(errs...))
}
