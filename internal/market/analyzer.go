package market

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/model"
	"MarketPulse/internal/strategy"
)

// ErrNoMarketData is returned when no instrument of a non-empty universe
// could be fetched from any source.
var ErrNoMarketData = errors.New("no market data for any instrument")

const (
	defaultWorkers           = 4
	defaultInstrumentTimeout = 30 * time.Second
)

// SeriesProvider returns the cleaned daily series of an instrument.
type SeriesProvider interface {
	FetchSeries(ctx context.Context, inst model.Instrument) (model.BarSeries, error)
}

// SentimentProvider returns the current crypto fear & greed reading.
type SentimentProvider interface {
	FetchSentiment(ctx context.Context) (model.Sentiment, error)
}

// VolatilityProvider returns the latest volatility index reading.
type VolatilityProvider interface {
	FetchVolatility(ctx context.Context) (float64, error)
}

// Analyzer runs one analysis pass over a universe of instruments.
type Analyzer struct {
	Series     SeriesProvider
	Sentiment  SentimentProvider  // optional
	Volatility VolatilityProvider // optional

	Workers           int
	InstrumentTimeout time.Duration
	MaxInstruments    int // 0 means unlimited
	Now               func() time.Time
}

// NewAnalyzer creates an Analyzer with default pool settings.
func NewAnalyzer(series SeriesProvider, sentiment SentimentProvider, volatility VolatilityProvider) *Analyzer {
	return &Analyzer{
		Series:            series,
		Sentiment:         sentiment,
		Volatility:        volatility,
		Workers:           defaultWorkers,
		InstrumentTimeout: defaultInstrumentTimeout,
		Now:               time.Now,
	}
}

// instrumentResult is written by exactly one worker, at the instrument's
// universe index.
type instrumentResult struct {
	signal      *model.Signal
	mover       *moverCandidate
	outcome     model.InstrumentOutcome
	fetchFailed bool
}

// AnalyzeMarket fetches, computes and classifies every instrument of universe
// and aggregates the results into a MarketSnapshot. Per-instrument failures
// are logged and skipped; only a total data outage returns an error.
func (a *Analyzer) AnalyzeMarket(ctx context.Context, universe []model.Instrument) (*model.MarketSnapshot, *model.RunReport, error) {
	now := a.now().UTC()
	report := &model.RunReport{ID: uuid.NewString(), StartedAt: now}
	logger := log.WithField("run_id", report.ID)

	if a.MaxInstruments > 0 && len(universe) > a.MaxInstruments {
		logger.Warnf("universe has %d instruments, analyzing the first %d", len(universe), a.MaxInstruments)
		universe = universe[:a.MaxInstruments]
	}
	report.Instruments = len(universe)

	sentiment := a.fetchSentiment(ctx, logger, report)
	mood := a.marketMood(ctx, logger, report)

	results := make([]instrumentResult, len(universe))
	g := new(errgroup.Group)
	g.SetLimit(a.workers())
	for i, inst := range universe {
		i, inst := i, inst
		g.Go(func() error {
			results[i] = a.analyzeInstrument(ctx, logger, inst, now)
			return nil
		})
	}
	_ = g.Wait()

	signals := make([]model.Signal, 0, len(universe))
	movers := make([]moverCandidate, 0, len(universe))
	for _, r := range results {
		report.Outcomes = append(report.Outcomes, r.outcome)
		switch r.outcome.Outcome {
		case model.OutcomeSignal:
			report.Signals++
			signals = append(signals, *r.signal)
		case model.OutcomeInsufficient:
			report.Skipped++
		case model.OutcomeFailed:
			report.Failed++
		}
		if r.fetchFailed {
			report.FetchFailures++
		}
		if r.mover != nil && r.outcome.Outcome != model.OutcomeFailed {
			movers = append(movers, *r.mover)
		}
	}
	report.FinishedAt = a.now().UTC()

	if len(universe) > 0 && report.FetchFailures == len(universe) {
		logger.Errorf("all %d instrument fetches failed", len(universe))
		return nil, report, ErrNoMarketData
	}

	SortSignals(signals)
	headline, body := strategy.Headline(signals, sentiment)

	snapshot := &model.MarketSnapshot{
		GeneratedAt:    now,
		Status:         model.StatusSuccess,
		SentimentValue: sentiment.Value,
		SentimentLabel: sentiment.Label,
		MarketMood:     mood,
		Headline:       headline,
		Body:           body,
		Signals:        signals,
		TopMovers:      topMovers(movers),
	}
	if report.Degraded() {
		snapshot.Status = model.StatusDegraded
	}

	logger.WithFields(log.Fields{
		"instruments": report.Instruments,
		"signals":     report.Signals,
		"skipped":     report.Skipped,
		"failed":      report.Failed,
		"mood":        mood,
		"sentiment":   sentiment.Value,
		"status":      snapshot.Status,
	}).Info("market analysis finished")
	return snapshot, report, nil
}

// SortSignals orders signals by score, highest first. Equal scores keep
// their relative order.
func SortSignals(signals []model.Signal) {
	sort.SliceStable(signals, func(i, j int) bool { return signals[i].Score > signals[j].Score })
}

func (a *Analyzer) analyzeInstrument(ctx context.Context, logger *log.Entry, inst model.Instrument, now time.Time) (res instrumentResult) {
	res.outcome = model.InstrumentOutcome{Symbol: inst.Symbol, AssetType: inst.AssetType}
	logger = logger.WithFields(log.Fields{"symbol": inst.Symbol, "asset_type": inst.AssetType})

	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("instrument analysis panicked: %v", r)
			res.signal, res.mover = nil, nil
			res.outcome.Outcome = model.OutcomeFailed
			res.outcome.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	fetchCtx := ctx
	if a.InstrumentTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, a.InstrumentTimeout)
		defer cancel()
	}

	series, err := a.Series.FetchSeries(fetchCtx, inst)
	if err != nil {
		logger.Warnf("fetch series: %v", err)
		res.fetchFailed = true
		res.outcome.Outcome = model.OutcomeFailed
		res.outcome.Reason = err.Error()
		return res
	}
	if m, ok := newMoverCandidate(inst, series); ok {
		res.mover = &m
	}

	snap, err := calculator.ComputeIndicators(series)
	if err != nil {
		res.outcome.Reason = err.Error()
		if errors.Is(err, calculator.ErrInsufficientData) {
			logger.Debugf("skipped: %v", err)
			res.outcome.Outcome = model.OutcomeInsufficient
			return res
		}
		logger.Warnf("compute indicators: %v", err)
		res.outcome.Outcome = model.OutcomeFailed
		return res
	}

	sig := strategy.BuildSignal(inst, snap, now)
	res.signal = &sig
	res.outcome.Outcome = model.OutcomeSignal
	res.outcome.Score = sig.Score
	return res
}

func (a *Analyzer) fetchSentiment(ctx context.Context, logger *log.Entry, report *model.RunReport) model.Sentiment {
	if a.Sentiment == nil {
		report.SentimentFallback = true
		return model.NeutralSentiment
	}
	s, err := a.Sentiment.FetchSentiment(ctx)
	if err != nil {
		logger.Warnf("sentiment unavailable, using neutral: %v", err)
		report.SentimentFallback = true
		return model.NeutralSentiment
	}
	return s
}

func (a *Analyzer) marketMood(ctx context.Context, logger *log.Entry, report *model.RunReport) int {
	if a.Volatility == nil {
		report.VolatilityFallback = true
		return strategy.NeutralMood
	}
	v, err := a.Volatility.FetchVolatility(ctx)
	if err != nil {
		logger.Warnf("volatility unavailable, using neutral mood: %v", err)
		report.VolatilityFallback = true
		return strategy.NeutralMood
	}
	return strategy.StockMarketMood(v)
}

func (a *Analyzer) workers() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return defaultWorkers
}

func (a *Analyzer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
