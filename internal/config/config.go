package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"MarketPulse/internal/model"
)

// Data source provider names.
const (
	ProviderYahoo  = "yahoo"
	ProviderAlpaca = "alpaca"
	ProviderREST   = "rest"
	ProviderMock   = "mock"
)

// DefaultUniverse is analyzed when the config lists no instruments.
var DefaultUniverse = []model.Instrument{
	{Symbol: "BTC", SourceSymbol: "BTC-USD", AssetType: model.AssetCrypto},
	{Symbol: "ETH", SourceSymbol: "ETH-USD", AssetType: model.AssetCrypto},
	{Symbol: "SOL", SourceSymbol: "SOL-USD", AssetType: model.AssetCrypto},
	{Symbol: "NVDA", SourceSymbol: "NVDA", AssetType: model.AssetStock},
	{Symbol: "TSLA", SourceSymbol: "TSLA", AssetType: model.AssetStock},
	{Symbol: "AAPL", SourceSymbol: "AAPL", AssetType: model.AssetStock},
	{Symbol: "SPY", SourceSymbol: "SPY", AssetType: model.AssetStock},
}

// Config holds all application configuration.
type Config struct {
	Universe   []model.Instrument `yaml:"universe"`
	DataSource struct {
		Crypto            []string `yaml:"crypto"` // provider names, in fallback order
		Stock             []string `yaml:"stock"`
		HistoryDays       int      `yaml:"history_days"`
		VolatilitySymbol  string   `yaml:"volatility_symbol"`
		SentimentURL      string   `yaml:"sentiment_url"`
		RequestsPerSecond float64  `yaml:"requests_per_second"`
		Alpaca            struct {
			APIKey    string `yaml:"api_key"`
			APISecret string `yaml:"api_secret"`
		} `yaml:"alpaca"`
		REST struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"rest"`
	} `yaml:"data_source"`
	Analysis struct {
		Workers           int           `yaml:"workers"`
		InstrumentTimeout time.Duration `yaml:"instrument_timeout"`
		MaxInstruments    int           `yaml:"max_instruments"`
	} `yaml:"analysis"`
	Schedule struct {
		RunCron string `yaml:"run_cron"`
	} `yaml:"schedule"`
	Output struct {
		JSONPath string `yaml:"json_path"`
		Redis    struct {
			Addr     string        `yaml:"addr"`
			Password string        `yaml:"password"`
			DB       int           `yaml:"db"`
			Key      string        `yaml:"key"`
			Channel  string        `yaml:"channel"`
			TTL      time.Duration `yaml:"ttl"`
		} `yaml:"redis"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"ALPACA_API_KEY":     &c.DataSource.Alpaca.APIKey,
		"ALPACA_API_SECRET":  &c.DataSource.Alpaca.APISecret,
		"BARS_API_URL":       &c.DataSource.REST.BaseURL,
		"BARS_API_KEY":       &c.DataSource.REST.APIKey,
		"HTTPS_PROXY":        &c.Proxy,
		"RUN_CRON":           &c.Schedule.RunCron,
		"OUTPUT_JSON_PATH":   &c.Output.JSONPath,
		"REDIS_ADDR":         &c.Output.Redis.Addr,
		"REDIS_PASSWORD":     &c.Output.Redis.Password,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"SERVER_ADDR":        &c.Server.Addr,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("HISTORY_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse HISTORY_DAYS: %w", err)
		}
		c.DataSource.HistoryDays = n
	}
	if v := os.Getenv("ANALYSIS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse ANALYSIS_WORKERS: %w", err)
		}
		c.Analysis.Workers = n
	}
	if v := os.Getenv("CRYPTO_SOURCES"); v != "" {
		c.DataSource.Crypto = splitList(v)
	}
	if v := os.Getenv("STOCK_SOURCES"); v != "" {
		c.DataSource.Stock = splitList(v)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Universe) == 0 {
		c.Universe = append([]model.Instrument(nil), DefaultUniverse...)
	}
	for i := range c.Universe {
		if c.Universe[i].SourceSymbol == "" {
			c.Universe[i].SourceSymbol = c.Universe[i].Symbol
		}
	}
	// Alpaca becomes the fallback source once credentials are present.
	sources := []string{ProviderYahoo}
	if c.DataSource.Alpaca.APIKey != "" && c.DataSource.Alpaca.APISecret != "" {
		sources = append(sources, ProviderAlpaca)
	}
	if len(c.DataSource.Crypto) == 0 {
		c.DataSource.Crypto = append([]string(nil), sources...)
	}
	if len(c.DataSource.Stock) == 0 {
		c.DataSource.Stock = append([]string(nil), sources...)
	}
	if c.DataSource.HistoryDays == 0 {
		c.DataSource.HistoryDays = 120
	}
	if c.DataSource.VolatilitySymbol == "" {
		c.DataSource.VolatilitySymbol = "^VIX"
	}
	if c.DataSource.RequestsPerSecond == 0 {
		c.DataSource.RequestsPerSecond = 2
	}
	if c.Analysis.Workers == 0 {
		c.Analysis.Workers = 4
	}
	if c.Analysis.InstrumentTimeout == 0 {
		c.Analysis.InstrumentTimeout = 30 * time.Second
	}
	if c.Analysis.MaxInstruments == 0 {
		c.Analysis.MaxInstruments = 50
	}
	if c.Schedule.RunCron == "" {
		c.Schedule.RunCron = "0 0 */4 * * *"
	}
	if c.Output.JSONPath == "" {
		c.Output.JSONPath = "data/data.json"
	}
	if c.Output.Redis.TTL == 0 {
		c.Output.Redis.TTL = 6 * time.Hour
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/market_pulse.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Universe))
	for i, inst := range c.Universe {
		if inst.Symbol == "" {
			return fmt.Errorf("universe[%d]: symbol is required", i)
		}
		if !inst.AssetType.Valid() {
			return fmt.Errorf("universe[%d] %s: asset_type must be crypto or stock, got %q", i, inst.Symbol, inst.AssetType)
		}
		if seen[inst.Symbol] {
			return fmt.Errorf("universe[%d]: duplicate symbol %s", i, inst.Symbol)
		}
		seen[inst.Symbol] = true
	}
	for _, p := range append(append([]string(nil), c.DataSource.Crypto...), c.DataSource.Stock...) {
		switch p {
		case ProviderYahoo, ProviderMock:
		case ProviderAlpaca:
			if c.DataSource.Alpaca.APIKey == "" || c.DataSource.Alpaca.APISecret == "" {
				return fmt.Errorf("data_source.alpaca api_key and api_secret are required for provider alpaca")
			}
		case ProviderREST:
			if c.DataSource.REST.BaseURL == "" {
				return fmt.Errorf("data_source.rest.base_url is required for provider rest")
			}
		default:
			return fmt.Errorf("unknown data source provider %q", p)
		}
	}
	if c.DataSource.HistoryDays < 35 {
		return fmt.Errorf("data_source.history_days must be at least 35, got %d", c.DataSource.HistoryDays)
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be positive")
	}
	if c.Analysis.MaxInstruments < 0 {
		return fmt.Errorf("analysis.max_instruments must not be negative")
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(c.Schedule.RunCron); err != nil {
		return fmt.Errorf("schedule.run_cron: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// TelegramEnabled reports whether Telegram notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
