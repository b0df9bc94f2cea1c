package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"BreakoutScreener/internal/model"
	"BreakoutScreener/internal/store"
	"BreakoutScreener/internal/strategy"
	"BreakoutScreener/internal/universe"
)

// Config holds all application configuration.
type Config struct {
	Screen strategy.Params `yaml:"screen"`
	Store  struct {
		Backend       string `yaml:"backend"`
		SQLitePath    string `yaml:"sqlite_path"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisKey      string `yaml:"redis_key"`
		CSVPath       string `yaml:"csv_path"`
		Table         string `yaml:"table"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"store"`
	DataSource struct {
		Provider     string        `yaml:"provider"`
		APIKey       string        `yaml:"api_key"`
		LookbackDays int           `yaml:"lookback_days"`
		RequestDelay time.Duration `yaml:"request_delay"`
	} `yaml:"data_source"`
	Universe struct {
		Sources []string       `yaml:"sources"`
		Symbols []SymbolConfig `yaml:"symbols"`
	} `yaml:"universe"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
		Timezone  string `yaml:"timezone"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// SymbolConfig is one statically configured ticker.
type SymbolConfig struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

// Load reads .env (if present) and the YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{Screen: strategy.DefaultParams()}

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
		"TELEGRAM_BOT_TOKEN":   &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":     &c.Telegram.ChatID,
		"DATA_PROVIDER":        &c.DataSource.Provider,
		"ALPHAVANTAGE_API_KEY": &c.DataSource.APIKey,
		"STORE_BACKEND":        &c.Store.Backend,
		"SQLITE_PATH":          &c.Store.SQLitePath,
		"REDIS_ADDR":           &c.Store.RedisAddr,
		"CSV_PATH":             &c.Store.CSVPath,
		"CRON_DAILY":           &c.Schedule.DailyCron,
		"METRICS_ADDR":         &c.Metrics.Addr,
		"HTTPS_PROXY":          &c.Proxy,
		"LOG_LEVEL":            &c.LogLevel,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"MIN_PRICE":  &c.Screen.MinPrice,
		"MIN_VOLUME": &c.Screen.MinVolume,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("env %s: %w", key, err)
			}
			*dst = f
		}
	}

	if v := os.Getenv("RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env RETENTION_DAYS: %w", err)
		}
		c.Store.RetentionDays = n
	}
	if v := os.Getenv("REQUEST_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("env REQUEST_DELAY: %w", err)
		}
		c.DataSource.RequestDelay = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "data/screener.db"
	}
	if c.Store.CSVPath == "" {
		c.Store.CSVPath = "data/rsi_scanner_us.csv"
	}
	if c.Store.Table == "" {
		c.Store.Table = "rsi_scanner_us"
	}
	if c.Store.RedisKey == "" {
		c.Store.RedisKey = "screener:" + c.Store.Table
	}
	if c.Store.RetentionDays == 0 {
		c.Store.RetentionDays = store.DefaultRetentionDays
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.LookbackDays == 0 {
		c.DataSource.LookbackDays = 500
	}
	if c.DataSource.RequestDelay == 0 {
		c.DataSource.RequestDelay = 500 * time.Millisecond
	}
	if len(c.Universe.Sources) == 0 {
		c.Universe.Sources = universe.DefaultSources
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 17 * * 1-5"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/New_York"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks thresholds, windows and backend selection.
func (c *Config) Validate() error {
	s := c.Screen
	if s.MinPrice < 0 {
		return fmt.Errorf("screen.min_price must not be negative")
	}
	if s.MinVolume < 0 {
		return fmt.Errorf("screen.min_volume must not be negative")
	}
	if s.RSI <= 0 || s.RSISMA <= 0 {
		return fmt.Errorf("screen.rsi_length and screen.rsi_sma_length must be positive")
	}
	if len(s.MA) == 0 {
		return fmt.Errorf("screen.ma_lengths must not be empty")
	}
	for _, n := range s.MA {
		if n <= 0 {
			return fmt.Errorf("screen.ma_lengths must be positive, got %d", n)
		}
	}
	// The previous bar also needs every indicator defined.
	if need := s.Longest() + 1; s.MinBars < need {
		return fmt.Errorf("screen.min_bars must be at least %d for the configured windows, got %d", need, s.MinBars)
	}
	if c.DataSource.LookbackDays < s.MinBars {
		return fmt.Errorf("data_source.lookback_days (%d) must cover screen.min_bars (%d)", c.DataSource.LookbackDays, s.MinBars)
	}
	if c.Store.RetentionDays < 1 {
		return fmt.Errorf("store.retention_days must be at least 1")
	}

	switch c.Store.Backend {
	case "sqlite", "csv", "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}

	switch c.DataSource.Provider {
	case "yahoo":
	case "alphavantage":
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for alphavantage")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}

	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the schedule timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	return loc, nil
}

// StaticTickers returns the configured symbol list, if any.
func (c *Config) StaticTickers() []model.Ticker {
	out := make([]model.Ticker, 0, len(c.Universe.Symbols))
	for _, s := range c.Universe.Symbols {
		sym := strings.TrimSpace(s.Symbol)
		if sym == "" {
			continue
		}
		name := s.Name
		if name == "" {
			name = sym
		}
		out = append(out, model.Ticker{Symbol: sym, Name: name})
	}
	return out
}
