package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bar(t time.Time, c float64) model.OHLCV {
	return model.OHLCV{Time: t, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 100}
}

func TestNormalize_CryptoFillsCalendarDays(t *testing.T) {
	raw := []model.OHLCV{
		bar(day(2025, 3, 4), 12),
		bar(day(2025, 3, 1), 10),
		bar(day(2025, 3, 2).Add(15*time.Hour), 11),
	}
	series := Normalize(raw, model.AssetCrypto)

	require.Len(t, series, 4)
	assert.Equal(t, day(2025, 3, 1), series[0].Time)
	assert.Equal(t, day(2025, 3, 2), series[1].Time)
	assert.Equal(t, day(2025, 3, 3), series[2].Time)
	assert.Equal(t, 11.0, series[2].Close, "missing day copies the previous bar")
	assert.Equal(t, 12.0, series[3].Close)
}

func TestNormalize_StockSkipsWeekends(t *testing.T) {
	// Friday 2025-03-07, then Tuesday 2025-03-11.
	raw := []model.OHLCV{bar(day(2025, 3, 7), 10), bar(day(2025, 3, 11), 12)}
	series := Normalize(raw, model.AssetStock)

	require.Len(t, series, 3)
	assert.Equal(t, day(2025, 3, 10), series[1].Time)
	assert.Equal(t, 10.0, series[1].Close)
}

func TestNormalize_DropsNullAndDuplicateBars(t *testing.T) {
	raw := []model.OHLCV{
		bar(day(2025, 3, 1), 10),
		{Time: day(2025, 3, 2)},
		bar(day(2025, 3, 2), 11),
		bar(day(2025, 3, 2).Add(time.Hour), 13),
		{Time: day(2025, 3, 3), Open: 1, High: 1, Low: 1, Close: math.NaN()},
	}
	series := Normalize(raw, model.AssetCrypto)

	require.Len(t, series, 2)
	assert.Equal(t, 13.0, series[1].Close, "duplicate day keeps the last bar")
	assert.Nil(t, Normalize(nil, model.AssetCrypto))
}

func TestCollector_FallsBackToSecondarySource(t *testing.T) {
	primary := &MockFetcher{Err: errors.New("boom")}
	secondary := &MockFetcher{Price: 100}
	c := NewCollector(40).Use(model.AssetCrypto, primary, secondary)

	series, err := c.FetchSeries(context.Background(), model.Instrument{Symbol: "BTC", SourceSymbol: "BTC-USD", AssetType: model.AssetCrypto})
	require.NoError(t, err)
	assert.Len(t, series, 40)
	assert.Equal(t, 1, primary.Calls)
	assert.Equal(t, 1, secondary.Calls)
}

func TestCollector_AllSourcesFail(t *testing.T) {
	c := NewCollector(40).
		Use(model.AssetStock, &MockFetcher{Err: errors.New("a")}, &MockFetcher{Bars: map[string][]model.OHLCV{"AAPL": {}}})

	_, err := c.FetchSeries(context.Background(), model.Instrument{Symbol: "AAPL", SourceSymbol: "AAPL", AssetType: model.AssetStock})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mock: a")
	assert.Contains(t, err.Error(), "no usable bars")

	_, err = c.FetchSeries(context.Background(), model.Instrument{Symbol: "BTC", AssetType: model.AssetCrypto})
	assert.Error(t, err, "asset type without sources")
}

const yahooBody = `{"chart":{"result":[{"timestamp":[1741046400,1740960000,1741132800],
"indicators":{"quote":[{"open":[11,10,null],"high":[12,11,null],"low":[10,9,null],"close":[11.5,10.5,null],"volume":[2000,1000,null]}]}}],"error":null}}`

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	var gotPath, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		fmt.Fprint(w, yahooBody)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 0)
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), model.Instrument{Symbol: "NVDA", SourceSymbol: "NVDA", AssetType: model.AssetStock}, 120)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/NVDA", gotPath)
	assert.Equal(t, "6mo", gotRange)
	require.Len(t, bars, 2, "null bar is skipped")
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 11.5, bars[1].Close)
	assert.Equal(t, 2000.0, bars[1].Volume)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 0)
	f.BaseURL = srv.URL
	_, err := f.FetchDailyBars(context.Background(), model.Instrument{SourceSymbol: "NOPE"}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestRESTFetcher_FetchDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars/daily", r.URL.Path)
		assert.Equal(t, "ETH-USD", r.URL.Query().Get("symbol"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[{"timestamp":1741046400,"open":2,"high":3,"low":1,"close":2.5,"volume":10},
{"timestamp":1740960000,"open":1,"high":2,"low":1,"close":1.5,"volume":5}]`)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchDailyBars(context.Background(), model.Instrument{SourceSymbol: "ETH-USD"}, 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 1.5, bars[0].Close)
}

func TestFearGreedClient(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		want    model.Sentiment
		wantErr bool
	}{
		{"ok", `{"data":[{"value":"25","value_classification":"Extreme Fear"}]}`, 200, model.Sentiment{Value: 25, Label: "Extreme Fear"}, false},
		{"empty", `{"data":[]}`, 200, model.Sentiment{}, true},
		{"not a number", `{"data":[{"value":"abc"}]}`, 200, model.Sentiment{}, true},
		{"out of range", `{"data":[{"value":"140"}]}`, 200, model.Sentiment{}, true},
		{"server error", ``, 500, model.Sentiment{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			got, err := NewFearGreedClient(srv.URL).FetchSentiment(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVolatilityFetcher(t *testing.T) {
	m := &MockFetcher{Bars: map[string][]model.OHLCV{
		"^VIX": {bar(day(2025, 3, 6), 18), bar(day(2025, 3, 7), 21.5)},
	}}
	v, err := NewVolatilityFetcher(m, "^VIX").FetchVolatility(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21.5, v)

	_, err = NewVolatilityFetcher(&MockFetcher{Err: errors.New("down")}, "^VIX").FetchVolatility(context.Background())
	assert.Error(t, err)
}

func TestAlpacaCryptoSymbol(t *testing.T) {
	assert.Equal(t, "BTC/USD", alpacaCryptoSymbol("BTC-USD"))
	assert.Equal(t, "ETH/USD", alpacaCryptoSymbol("ETH/USD"))
	assert.Equal(t, "SOL/USD", alpacaCryptoSymbol("SOL"))
}

func TestYahooRange(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{5, "1mo"},
		{20, "1mo"},
		{21, "3mo"},
		{120, "6mo"},
		{250, "1y"},
		{400, "2y"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, yahooRange(tt.days), "days=%d", tt.days)
	}
}
