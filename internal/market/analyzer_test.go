package market

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/model"
	"MarketPulse/internal/strategy"
)

var runAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func makeSeries(n int, closeAt func(i int) float64) model.BarSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(model.BarSeries, n)
	for i := range series {
		c := closeAt(i)
		series[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return series
}

func wave(i int) float64   { return 100 + 10*math.Sin(float64(i)/3) }
func rising(i int) float64 { return 100 + float64(i) }

type fakeSeries struct {
	mu     sync.Mutex
	series map[string]model.BarSeries
	errs   map[string]error
	panics map[string]bool
	calls  []string
}

func (f *fakeSeries) FetchSeries(_ context.Context, inst model.Instrument) (model.BarSeries, error) {
	f.mu.Lock()
	f.calls = append(f.calls, inst.Symbol)
	f.mu.Unlock()
	if f.panics[inst.Symbol] {
		panic("provider exploded")
	}
	if err := f.errs[inst.Symbol]; err != nil {
		return nil, err
	}
	return f.series[inst.Symbol], nil
}

type fakeSentiment struct {
	value model.Sentiment
	err   error
}

func (f fakeSentiment) FetchSentiment(context.Context) (model.Sentiment, error) { return f.value, f.err }

type fakeVolatility struct {
	v   float64
	err error
}

func (f fakeVolatility) FetchVolatility(context.Context) (float64, error) { return f.v, f.err }

func crypto(symbol string) model.Instrument {
	return model.Instrument{Symbol: symbol, SourceSymbol: symbol + "-USD", AssetType: model.AssetCrypto}
}

func newTestAnalyzer(series *fakeSeries) *Analyzer {
	a := NewAnalyzer(series, fakeSentiment{value: model.Sentiment{Value: 20, Label: "Extreme Fear"}}, fakeVolatility{v: 22.5})
	a.Now = func() time.Time { return runAt }
	return a
}

func TestAnalyzeMarket_ExcludesShortSeries(t *testing.T) {
	series := &fakeSeries{series: map[string]model.BarSeries{
		"BTC": makeSeries(60, wave),
		"ETH": makeSeries(25, wave),
	}}
	snap, report, err := newTestAnalyzer(series).AnalyzeMarket(context.Background(), []model.Instrument{crypto("BTC"), crypto("ETH")})
	require.NoError(t, err)

	require.Len(t, snap.Signals, 1)
	assert.Equal(t, "BTC", snap.Signals[0].Symbol)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, model.OutcomeInsufficient, report.Outcomes[1].Outcome)
	assert.Equal(t, model.StatusSuccess, snap.Status)
	assert.Equal(t, 50, snap.MarketMood)
	assert.Equal(t, 20, snap.SentimentValue)
	assert.Equal(t, runAt, snap.GeneratedAt)
}

func TestAnalyzeMarket_SentimentFailureFallsBackToNeutral(t *testing.T) {
	series := &fakeSeries{series: map[string]model.BarSeries{"BTC": makeSeries(60, wave)}}
	a := newTestAnalyzer(series)
	a.Sentiment = fakeSentiment{err: errors.New("timeout")}

	snap, report, err := a.AnalyzeMarket(context.Background(), []model.Instrument{crypto("BTC")})
	require.NoError(t, err)
	assert.Equal(t, 50, snap.SentimentValue)
	assert.Equal(t, "Neutral", snap.SentimentLabel)
	assert.True(t, report.SentimentFallback)
	assert.Equal(t, model.StatusDegraded, snap.Status)
}

func TestAnalyzeMarket_VolatilityFallback(t *testing.T) {
	a := newTestAnalyzer(&fakeSeries{})
	a.Volatility = fakeVolatility{err: errors.New("no vix")}
	snap, report, err := a.AnalyzeMarket(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, strategy.NeutralMood, snap.MarketMood)
	assert.True(t, report.VolatilityFallback)

	a.Volatility = fakeVolatility{v: 8}
	snap, _, err = a.AnalyzeMarket(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 95, snap.MarketMood)
}

func TestAnalyzeMarket_TiesKeepUniverseOrder(t *testing.T) {
	universe := []model.Instrument{crypto("A"), crypto("B"), crypto("C"), crypto("D"), crypto("E")}
	series := &fakeSeries{series: map[string]model.BarSeries{}}
	for _, inst := range universe {
		series.series[inst.Symbol] = makeSeries(60, wave)
	}
	a := newTestAnalyzer(series)
	a.Workers = len(universe)

	for run := 0; run < 10; run++ {
		snap, _, err := a.AnalyzeMarket(context.Background(), universe)
		require.NoError(t, err)
		require.Len(t, snap.Signals, len(universe))
		for i, sig := range snap.Signals {
			assert.Equal(t, universe[i].Symbol, sig.Symbol)
		}
	}
}

func TestAnalyzeMarket_SortedByScore(t *testing.T) {
	universe := []model.Instrument{crypto("WAVE"), crypto("UP"), crypto("DOWN")}
	series := &fakeSeries{series: map[string]model.BarSeries{
		"WAVE": makeSeries(60, wave),
		"UP":   makeSeries(60, rising),
		"DOWN": makeSeries(60, func(i int) float64 { return 200 - float64(i) }),
	}}
	snap, _, err := newTestAnalyzer(series).AnalyzeMarket(context.Background(), universe)
	require.NoError(t, err)
	require.Len(t, snap.Signals, 3)

	// Expected order computed by classifying each series directly.
	want := make([]model.Signal, 0, len(universe))
	for _, inst := range universe {
		ind, err := calculator.ComputeIndicators(series.series[inst.Symbol])
		require.NoError(t, err)
		want = append(want, strategy.BuildSignal(inst, ind, runAt))
	}
	SortSignals(want)
	assert.Equal(t, want, snap.Signals)

	for i := 1; i < len(snap.Signals); i++ {
		assert.GreaterOrEqual(t, snap.Signals[i-1].Score, snap.Signals[i].Score)
	}

	again := append([]model.Signal(nil), snap.Signals...)
	SortSignals(again)
	assert.Equal(t, snap.Signals, again, "sorting is idempotent")
}

func TestAnalyzeMarket_EmptyUniverse(t *testing.T) {
	snap, report, err := newTestAnalyzer(&fakeSeries{}).AnalyzeMarket(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, snap.Signals)
	assert.Empty(t, snap.TopMovers)
	assert.Equal(t, "No high-conviction setup", snap.Headline)
	assert.NotEmpty(t, snap.Body)
	assert.NotEmpty(t, report.ID)
}

func TestAnalyzeMarket_AllFetchesFail(t *testing.T) {
	series := &fakeSeries{errs: map[string]error{
		"BTC": errors.New("down"),
		"ETH": errors.New("down"),
	}}
	snap, report, err := newTestAnalyzer(series).AnalyzeMarket(context.Background(), []model.Instrument{crypto("BTC"), crypto("ETH")})
	assert.ErrorIs(t, err, ErrNoMarketData)
	assert.Nil(t, snap)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.FetchFailures)
}

func TestAnalyzeMarket_IsolatesFailures(t *testing.T) {
	series := &fakeSeries{
		series: map[string]model.BarSeries{
			"OK":  makeSeries(60, wave),
			"BAD": {{Time: runAt, Open: 1, High: 1, Low: 1, Close: math.NaN(), Volume: 1}},
		},
		errs:   map[string]error{"GONE": errors.New("404")},
		panics: map[string]bool{"BOOM": true},
	}
	universe := []model.Instrument{crypto("BOOM"), crypto("GONE"), crypto("BAD"), crypto("OK")}

	snap, report, err := newTestAnalyzer(series).AnalyzeMarket(context.Background(), universe)
	require.NoError(t, err)
	require.Len(t, snap.Signals, 1)
	assert.Equal(t, "OK", snap.Signals[0].Symbol)
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, 1, report.FetchFailures)
	assert.Contains(t, report.Outcomes[0].Reason, "panic")
	assert.Equal(t, model.StatusDegraded, snap.Status)
}

func TestAnalyzeMarket_MaxInstruments(t *testing.T) {
	series := &fakeSeries{series: map[string]model.BarSeries{
		"A": makeSeries(60, wave), "B": makeSeries(60, wave), "C": makeSeries(60, wave),
	}}
	a := newTestAnalyzer(series)
	a.MaxInstruments = 2

	_, report, err := a.AnalyzeMarket(context.Background(), []model.Instrument{crypto("A"), crypto("B"), crypto("C")})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Instruments)
	assert.ElementsMatch(t, []string{"A", "B"}, series.calls)
}

func TestTopMovers(t *testing.T) {
	cand := func(symbol string, asset model.AssetType, price, change float64) moverCandidate {
		return moverCandidate{
			inst:   model.Instrument{Symbol: symbol, AssetType: asset},
			price:  price,
			change: change,
		}
	}
	movers := topMovers([]moverCandidate{
		cand("BTC", model.AssetCrypto, 64000, -5.5),
		cand("ETH", model.AssetCrypto, 3000, 2.9),
		cand("NVDA", model.AssetStock, 120.456, 4.25),
		cand("TSLA", model.AssetStock, 180, 3.01),
		cand("SOL", model.AssetCrypto, 150, 9),
		cand("SPY", model.AssetStock, 500, -3),
	})

	require.Len(t, movers, 3)
	assert.Equal(t, "SOL", movers[0].Symbol)
	assert.Equal(t, "+9.00%", movers[0].Change24h)
	assert.Equal(t, "NVDA", movers[1].Symbol)
	assert.Equal(t, "$120.46", movers[1].Price)
	assert.Equal(t, model.AssetStock, movers[1].Type)
	assert.Equal(t, "TSLA", movers[2].Symbol)

	movers = topMovers([]moverCandidate{cand("BTC", model.AssetCrypto, 64000, -5.5)})
	require.Len(t, movers, 1)
	assert.Equal(t, "-5.50%", movers[0].Change24h)
	assert.Equal(t, "BTC", movers[0].Name)
}

func TestAnalyzeMarket_MoversIncludeSkippedInstruments(t *testing.T) {
	jump := makeSeries(25, func(int) float64 { return 100 })
	jump[len(jump)-1].Close = 110
	series := &fakeSeries{
		series: map[string]model.BarSeries{
			"BTC": makeSeries(60, wave),
			"ETH": jump,
			"BAD": makeSeries(60, func(i int) float64 { return 100 + 50*float64(i%2) }),
		},
		panics: map[string]bool{"BAD": true},
	}
	snap, report, err := newTestAnalyzer(series).AnalyzeMarket(context.Background(),
		[]model.Instrument{crypto("BTC"), crypto("ETH"), crypto("BAD")})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	require.Len(t, snap.TopMovers, 1)
	assert.Equal(t, "ETH", snap.TopMovers[0].Symbol)
	assert.Equal(t, "+10.00%", snap.TopMovers[0].Change24h)
	assert.Equal(t, "$110.00", snap.TopMovers[0].Price)
}

func TestNewMoverCandidate(t *testing.T) {
	_, ok := newMoverCandidate(crypto("BTC"), makeSeries(1, rising))
	assert.False(t, ok, "one close has no move")

	zero := makeSeries(2, func(i int) float64 { return float64(i) })
	_, ok = newMoverCandidate(crypto("BTC"), zero)
	assert.False(t, ok, "move from a zero close is undefined")

	c, ok := newMoverCandidate(crypto("BTC"), makeSeries(2, func(i int) float64 { return 100 - 4*float64(i) }))
	require.True(t, ok)
	assert.InDelta(t, -4.0, c.change, 1e-9)
	assert.Equal(t, 96.0, c.price)
}
