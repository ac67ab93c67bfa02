package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/market"
	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/output"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/scheduler"
	"MarketPulse/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("load .env: %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}
	setupLogging(cfg)
	log.Info("MarketPulse starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Data collection
	yahoo := collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RequestsPerSecond)
	col := collector.NewCollector(cfg.DataSource.HistoryDays)
	for asset, names := range map[model.AssetType][]string{
		model.AssetCrypto: cfg.DataSource.Crypto,
		model.AssetStock:  cfg.DataSource.Stock,
	} {
		for _, name := range names {
			f, err := buildFetcher(cfg, name, yahoo)
			if err != nil {
				log.Fatalf("init data source: %v", err)
			}
			col.Use(asset, f)
		}
		log.WithField("asset_type", asset).Infof("data sources: %v", names)
	}

	analyzer := market.NewAnalyzer(
		col,
		collector.NewFearGreedClient(cfg.DataSource.SentimentURL),
		collector.NewVolatilityFetcher(yahoo, cfg.DataSource.VolatilitySymbol),
	)
	analyzer.Workers = cfg.Analysis.Workers
	analyzer.InstrumentTimeout = cfg.Analysis.InstrumentTimeout
	analyzer.MaxInstruments = cfg.Analysis.MaxInstruments

	// Outputs
	store := server.NewStore()
	if prev, err := output.ReadSnapshot(cfg.Output.JSONPath); err != nil {
		log.Warnf("read previous snapshot: %v", err)
	} else if prev != nil {
		store.Set(prev)
	}
	publishers := output.Multi{store, output.NewJSONWriter(cfg.Output.JSONPath)}
	if cfg.Output.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Output.Redis.Addr,
			Password: cfg.Output.Redis.Password,
			DB:       cfg.Output.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("connect to redis: %v", err)
		}
		defer rdb.Close()
		publishers = append(publishers, output.NewRedisPublisher(rdb, cfg.Output.Redis.Key, cfg.Output.Redis.Channel, cfg.Output.Redis.TTL))
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Telegram is optional
	var tn *notifier.TelegramNotifier
	var n scheduler.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	}

	sched := scheduler.NewScheduler(ctx, analyzer, cfg.Universe, publishers, store, rec, n)

	if os.Getenv("RUN_ONCE") == "true" {
		if _, err := sched.RunNow(ctx); err != nil {
			log.Fatalf("run: %v", err)
		}
		log.Info("RUN_ONCE finished")
		return
	}

	if err := sched.Register(cfg.Schedule.RunCron); err != nil {
		log.Fatalf("register cron task: %v", err)
	}
	sched.Start()
	// Runs before the recorder closes and waits out any in-flight pass.
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(store, rec).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, running analysis now")
		go func() {
			if _, err := sched.RunNow(ctx); err != nil {
				log.Errorf("startup run: %v", err)
			}
		}()
	}

	log.Info("MarketPulse is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	cancel()
	log.Info("MarketPulse stopped")
}

func buildFetcher(cfg *config.Config, name string, yahoo *collector.YahooFetcher) (collector.Fetcher, error) {
	switch name {
	case config.ProviderYahoo:
		return yahoo, nil
	case config.ProviderAlpaca:
		return collector.NewAlpacaFetcher(cfg.DataSource.Alpaca.APIKey, cfg.DataSource.Alpaca.APISecret), nil
	case config.ProviderREST:
		return collector.NewRESTFetcher(cfg.DataSource.REST.BaseURL, cfg.DataSource.REST.APIKey, cfg.Proxy), nil
	case config.ProviderMock:
		return &collector.MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warnf("invalid log level %q, using info", cfg.Log.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
