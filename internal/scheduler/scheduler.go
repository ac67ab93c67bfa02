package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/output"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/strategy"
)

// ErrRunInProgress is returned when a pass is requested while one is running.
var ErrRunInProgress = errors.New("analysis run already in progress")

// Analyzer runs one analysis pass.
type Analyzer interface {
	AnalyzeMarket(ctx context.Context, universe []model.Instrument) (*model.MarketSnapshot, *model.RunReport, error)
}

// Notifier delivers messages to the operator.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// LatestSnapshot returns the most recently published snapshot.
type LatestSnapshot interface {
	Latest() *model.MarketSnapshot
}

// Scheduler runs analysis passes on a cron schedule and on demand.
type Scheduler struct {
	Cron      *cron.Cron
	Analyzer  Analyzer
	Universe  []model.Instrument
	Publisher output.Publisher
	Latest    LatestSnapshot
	Recorder  recorder.Recorder
	Notifier  Notifier // optional
	Ctx       context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, analyzer Analyzer, universe []model.Instrument, pub output.Publisher, latest LatestSnapshot, rec recorder.Recorder, n Notifier) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Analyzer:  analyzer,
		Universe:  universe,
		Publisher: pub,
		Latest:    latest,
		Recorder:  rec,
		Notifier:  n,
		Ctx:       ctx,
	}
}

// Register adds the analysis pass on runCron.
func (s *Scheduler) Register(runCron string) error {
	if _, err := s.Cron.AddFunc(runCron, s.runTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running pass to finish,
// including one started through RunNow.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.running.Lock()
	s.running.Unlock()
	log.Info("scheduler stopped")
}

// RunNow executes one analysis pass immediately (RUN_ON_START, RUN_ONCE, /run).
func (s *Scheduler) RunNow(ctx context.Context) (*model.MarketSnapshot, error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()
	return s.run(ctx)
}

func (s *Scheduler) runTask() {
	if _, err := s.RunNow(s.Ctx); err != nil {
		log.Errorf("scheduled analysis: %v", err)
	}
}

func (s *Scheduler) run(ctx context.Context) (*model.MarketSnapshot, error) {
	log.WithField("instruments", len(s.Universe)).Info("running market analysis")
	start := time.Now()

	snap, report, err := s.Analyzer.AnalyzeMarket(ctx, s.Universe)
	if report != nil {
		if recErr := s.Recorder.RecordRun(ctx, report, snap, err); recErr != nil {
			log.Errorf("record run: %v", recErr)
		}
	}
	if err != nil {
		s.trySend(ctx, fmt.Sprintf("❌ Market analysis failed: %v", err))
		return nil, fmt.Errorf("analyze market: %w", err)
	}

	if err := s.Publisher.Publish(ctx, snap); err != nil {
		// Partial publish failures leave the other outputs updated.
		log.Errorf("publish snapshot: %v", err)
	}

	if top := snap.Top(); top != nil && top.Score >= strategy.HighConviction {
		s.trySend(ctx, notifier.FormatAlert(snap))
	}

	log.WithFields(log.Fields{
		"signals":  len(snap.Signals),
		"status":   snap.Status,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("market analysis published")
	return snap, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/signals":
		return notifier.FormatSnapshot(s.Latest.Latest())
	case "/top":
		snap := s.Latest.Latest()
		if snap == nil {
			return notifier.FormatSnapshot(nil)
		}
		return notifier.FormatSignal(snap.Top())
	case "/run":
		snap, err := s.RunNow(ctx)
		if err != nil {
			return fmt.Sprintf("Run failed: %v", err)
		}
		return notifier.FormatSnapshot(snap)
	default:
		return "Available commands:\n• /signals latest snapshot\n• /top strongest signal\n• /run analyze now"
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Errorf("send notification: %v", err)
	}
}
