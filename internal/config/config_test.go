package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutScreener/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.Screen.MinPrice)
	assert.Equal(t, 200000.0, cfg.Screen.MinVolume)
	assert.Equal(t, 300, cfg.Screen.MinBars)
	assert.Equal(t, 100, cfg.Screen.RSI)
	assert.Equal(t, 200, cfg.Screen.RSISMA)
	assert.Equal(t, []int{20, 60, 120, 240}, cfg.Screen.MA)
	assert.Equal(t, 3, cfg.Store.RetentionDays)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "rsi_scanner_us", cfg.Store.Table)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, 500*time.Millisecond, cfg.DataSource.RequestDelay)
	assert.Len(t, cfg.Universe.Sources, 2)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := writeConfig(t, `
screen:
  min_price: 10
  min_volume: 1000000
  min_bars: 260
  rsi_length: 14
  rsi_sma_length: 50
  ma_lengths: [10, 50, 200]
store:
  backend: redis
  redis_addr: localhost:6379
  retention_days: 5
data_source:
  request_delay: 250ms
universe:
  symbols:
    - symbol: ACME
      name: Acme Corp
    - symbol: BRK-B
schedule:
  timezone: UTC
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Screen.MinPrice)
	assert.Equal(t, 1000000.0, cfg.Screen.MinVolume)
	assert.Equal(t, 14, cfg.Screen.RSI)
	assert.Equal(t, 50, cfg.Screen.RSISMA)
	assert.Equal(t, []int{10, 50, 200}, cfg.Screen.MA)
	assert.Equal(t, 5, cfg.Store.RetentionDays)
	assert.Equal(t, "screener:rsi_scanner_us", cfg.Store.RedisKey)
	assert.Equal(t, 250*time.Millisecond, cfg.DataSource.RequestDelay)
	assert.Equal(t, []model.Ticker{
		{Symbol: "ACME", Name: "Acme Corp"},
		{Symbol: "BRK-B", Name: "BRK-B"},
	}, cfg.StaticTickers())
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MIN_PRICE", "7.5")
	t.Setenv("RETENTION_DAYS", "4")
	t.Setenv("STORE_BACKEND", "csv")
	t.Setenv("REQUEST_DELAY", "1s")

	cfg, err := Load(writeConfig(t, "screen:\n  min_price: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, 7.5, cfg.Screen.MinPrice)
	assert.Equal(t, 4, cfg.Store.RetentionDays)
	assert.Equal(t, "csv", cfg.Store.Backend)
	assert.Equal(t, time.Second, cfg.DataSource.RequestDelay)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("MIN_VOLUME", "lots")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative price", func(c *Config) { c.Screen.MinPrice = -1 }},
		{"min bars below longest window", func(c *Config) { c.Screen.MinBars = 240 }},
		{"zero MA length", func(c *Config) { c.Screen.MA = []int{20, 0} }},
		{"no MAs", func(c *Config) { c.Screen.MA = nil }},
		{"zero retention", func(c *Config) { c.Store.RetentionDays = 0 }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "sheets" }},
		{"redis without addr", func(c *Config) { c.Store.Backend = "redis" }},
		{"alphavantage without key", func(c *Config) { c.DataSource.Provider = "alphavantage" }},
		{"lookback shorter than min bars", func(c *Config) { c.DataSource.LookbackDays = 100 }},
		{"telegram half configured", func(c *Config) { c.Telegram.BotToken = "token" }},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
