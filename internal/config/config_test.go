package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/velalab/vela/internal/core"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
symbol: "ETHUSDT"
interval: "1h"

archive:
  type: localfs
  path: "/tmp/vela/reports"

strategy:
  bollinger:
    length: 30
    std: 2.5
  rsi:
    use_filter: true
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Symbol != "ETHUSDT" {
		t.Errorf("expected symbol ETHUSDT, got %s", cfg.Symbol)
	}
	if cfg.Interval != core.Interval1h {
		t.Errorf("expected interval 1h, got %s", cfg.Interval)
	}
	if cfg.Strategy.Bollinger.Length != 30 {
		t.Errorf("expected bollinger length 30, got %d", cfg.Strategy.Bollinger.Length)
	}
	if cfg.Strategy.Bollinger.Std != 2.5 {
		t.Errorf("expected bollinger std 2.5, got %f", cfg.Strategy.Bollinger.Std)
	}
	if !cfg.Strategy.RSI.UseFilter {
		t.Error("expected RSI filter enabled")
	}

	// Values not in the file keep their defaults
	if cfg.Strategy.MACD.Slow != 26 {
		t.Errorf("expected default macd slow 26, got %d", cfg.Strategy.MACD.Slow)
	}
	if cfg.Strategy.Backtest.InitialCash != 10000 {
		t.Errorf("expected default initial cash 10000, got %f", cfg.Strategy.Backtest.InitialCash)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Exchange != "binance" {
		t.Errorf("expected default exchange binance, got %s", cfg.Exchange)
	}
	if cfg.Strategy.Bollinger.Length != 20 {
		t.Errorf("expected default bollinger length 20, got %d", cfg.Strategy.Bollinger.Length)
	}
	if cfg.Strategy.MACD.Fast != 12 || cfg.Strategy.MACD.Slow != 26 || cfg.Strategy.MACD.Signal != 9 {
		t.Errorf("unexpected default macd %d/%d/%d",
			cfg.Strategy.MACD.Fast, cfg.Strategy.MACD.Slow, cfg.Strategy.MACD.Signal)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	mutate := func(fn func(*Config)) *Config {
		cfg := Defaults()
		fn(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"defaults", Defaults(), false},
		{"bad interval", mutate(func(c *Config) { c.Interval = "7m" }), true},
		{"zero candle limit", mutate(func(c *Config) { c.CandleLimit = 0 }), true},
		{"bad archive type", mutate(func(c *Config) { c.Archive.Type = "ftp" }), true},
		{"bollinger too short", mutate(func(c *Config) { c.Strategy.Bollinger.Length = 1 }), true},
		{"bollinger zero std", mutate(func(c *Config) { c.Strategy.Bollinger.Std = 0 }), true},
		{"macd fast >= slow", mutate(func(c *Config) { c.Strategy.MACD.Fast = 26 }), true},
		{"rsi bounds", mutate(func(c *Config) { c.Strategy.RSI.BuyMax = 150 }), true},
		{"negative tolerance", mutate(func(c *Config) { c.Strategy.Execution.TouchTolerancePct = -0.01 }), true},
		{"negative fee", mutate(func(c *Config) { c.Strategy.Execution.FeePct = -1 }), true},
		{"bad ema mode", mutate(func(c *Config) {
			c.Strategy.Filters.EMATrend.Use = true
			c.Strategy.Filters.EMATrend.Mode = "short_only"
		}), true},
		{"atr risk without atr", mutate(func(c *Config) { c.Strategy.Backtest.SizeMode = "atr_risk" }), true},
		{"atr risk with atr", mutate(func(c *Config) {
			c.Strategy.Risk.UseATR = true
			c.Strategy.Backtest.SizeMode = "atr_risk"
		}), false},
		{"size pct too large", mutate(func(c *Config) { c.Strategy.Backtest.SizePct = 1.5 }), true},
		{"allow short", mutate(func(c *Config) { c.Strategy.Backtest.AllowShort = true }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr && !errors.Is(err, core.ErrConfigInvalid) {
				t.Errorf("expected CONFIG_INVALID, got %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
