package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/velalab/vela/internal/core"
)

// Config is the root application configuration.
type Config struct {
	Exchange    string         `mapstructure:"exchange"`
	Symbol      string         `mapstructure:"symbol"`
	Interval    string         `mapstructure:"interval"`
	CandleLimit int            `mapstructure:"candle_limit"`
	Archive     ArchiveConfig  `mapstructure:"archive"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
	Strategy    StrategyConfig `mapstructure:"strategy"`
}

// ArchiveConfig selects where backtest artifacts are written.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// StrategyConfig carries every tunable of the signal and simulation
// pipeline. Loaded once per run and read-only thereafter.
type StrategyConfig struct {
	Bollinger BollingerConfig `mapstructure:"bollinger"`
	MACD      MACDConfig      `mapstructure:"macd"`
	RSI       RSIConfig       `mapstructure:"rsi"`
	Filters   FiltersConfig   `mapstructure:"filters"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Exits     ExitsConfig     `mapstructure:"exits"`
	Backtest  BacktestConfig  `mapstructure:"backtest"`
}

type BollingerConfig struct {
	Length int     `mapstructure:"length"`
	Std    float64 `mapstructure:"std"`
}

type MACDConfig struct {
	Fast   int `mapstructure:"fast"`
	Slow   int `mapstructure:"slow"`
	Signal int `mapstructure:"signal"`
}

type RSIConfig struct {
	Length    int     `mapstructure:"length"`
	UseFilter bool    `mapstructure:"use_filter"`
	BuyMax    float64 `mapstructure:"buy_max"`
	SellMin   float64 `mapstructure:"sell_min"`
}

// EMATrendConfig gates long entries on the close relative to a slow EMA.
type EMATrendConfig struct {
	Use    bool   `mapstructure:"use"`
	Length int    `mapstructure:"length"`
	Mode   string `mapstructure:"mode"` // "long_only_above"
}

type FiltersConfig struct {
	EMATrend EMATrendConfig `mapstructure:"ema_trend"`
}

type ExecutionConfig struct {
	TouchTolerancePct float64 `mapstructure:"touch_tolerance_pct"`
	SlippagePct       float64 `mapstructure:"slippage_pct"`
	FeePct            float64 `mapstructure:"fee_pct"`
}

type RiskConfig struct {
	UseATR    bool    `mapstructure:"use_atr"`
	ATRLength int     `mapstructure:"atr_length"`
	StopMult  float64 `mapstructure:"stop_mult"`
	TrailMult float64 `mapstructure:"trail_mult"`
}

type TimeBasedExitConfig struct {
	Use            bool `mapstructure:"use"`
	MaxBarsInTrade int  `mapstructure:"max_bars_in_trade"`
}

type MidbandExitConfig struct {
	Use bool `mapstructure:"use"`
}

type ExitsConfig struct {
	TimeBased TimeBasedExitConfig `mapstructure:"time_based"`
	Midband   MidbandExitConfig   `mapstructure:"midband_exit"`
}

type BacktestConfig struct {
	InitialCash float64 `mapstructure:"initial_cash"`
	SizePct     float64 `mapstructure:"size_pct"`
	SizeMode    string  `mapstructure:"size_mode"` // "fixed" or "atr_risk"
	AllowShort  bool    `mapstructure:"allow_short"`
	Plot        bool    `mapstructure:"plot"`
}

// Defaults returns a config with sensible default values.
func Defaults() *Config {
	return &Config{
		Exchange:    "binance",
		Symbol:      "BTCUSDT",
		Interval:    core.Interval5m,
		CandleLimit: 1000,
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "reports",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Strategy: DefaultStrategy(),
	}
}

// DefaultStrategy returns the baseline strategy parameters.
func DefaultStrategy() StrategyConfig {
	return StrategyConfig{
		Bollinger: BollingerConfig{Length: 20, Std: 2.0},
		MACD:      MACDConfig{Fast: 12, Slow: 26, Signal: 9},
		RSI:       RSIConfig{Length: 14, UseFilter: false, BuyMax: 40.0, SellMin: 60.0},
		Filters: FiltersConfig{
			EMATrend: EMATrendConfig{Use: false, Length: 200, Mode: "long_only_above"},
		},
		Execution: ExecutionConfig{
			TouchTolerancePct: 0.0,
			SlippagePct:       0.0005,
			FeePct:            0.0004,
		},
		Risk: RiskConfig{UseATR: false, ATRLength: 14, StopMult: 1.5, TrailMult: 2.0},
		Exits: ExitsConfig{
			TimeBased: TimeBasedExitConfig{Use: false, MaxBarsInTrade: 60},
			Midband:   MidbandExitConfig{Use: false},
		},
		Backtest: BacktestConfig{
			InitialCash: 10000.0,
			SizePct:     0.99,
			SizeMode:    "fixed",
			AllowShort:  false,
			Plot:        false,
		},
	}
}

// Load reads configuration from the given file, layering it over defaults.
// Environment variables prefixed with VELA_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("VELA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("exchange", d.Exchange)
	v.SetDefault("symbol", d.Symbol)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("candle_limit", d.CandleLimit)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)

	s := d.Strategy
	v.SetDefault("strategy.bollinger.length", s.Bollinger.Length)
	v.SetDefault("strategy.bollinger.std", s.Bollinger.Std)
	v.SetDefault("strategy.macd.fast", s.MACD.Fast)
	v.SetDefault("strategy.macd.slow", s.MACD.Slow)
	v.SetDefault("strategy.macd.signal", s.MACD.Signal)
	v.SetDefault("strategy.rsi.length", s.RSI.Length)
	v.SetDefault("strategy.rsi.use_filter", s.RSI.UseFilter)
	v.SetDefault("strategy.rsi.buy_max", s.RSI.BuyMax)
	v.SetDefault("strategy.rsi.sell_min", s.RSI.SellMin)
	v.SetDefault("strategy.filters.ema_trend.use", s.Filters.EMATrend.Use)
	v.SetDefault("strategy.filters.ema_trend.length", s.Filters.EMATrend.Length)
	v.SetDefault("strategy.filters.ema_trend.mode", s.Filters.EMATrend.Mode)
	v.SetDefault("strategy.execution.touch_tolerance_pct", s.Execution.TouchTolerancePct)
	v.SetDefault("strategy.execution.slippage_pct", s.Execution.SlippagePct)
	v.SetDefault("strategy.execution.fee_pct", s.Execution.FeePct)
	v.SetDefault("strategy.risk.use_atr", s.Risk.UseATR)
	v.SetDefault("strategy.risk.atr_length", s.Risk.ATRLength)
	v.SetDefault("strategy.risk.stop_mult", s.Risk.StopMult)
	v.SetDefault("strategy.risk.trail_mult", s.Risk.TrailMult)
	v.SetDefault("strategy.exits.time_based.use", s.Exits.TimeBased.Use)
	v.SetDefault("strategy.exits.time_based.max_bars_in_trade", s.Exits.TimeBased.MaxBarsInTrade)
	v.SetDefault("strategy.exits.midband_exit.use", s.Exits.Midband.Use)
	v.SetDefault("strategy.backtest.initial_cash", s.Backtest.InitialCash)
	v.SetDefault("strategy.backtest.size_pct", s.Backtest.SizePct)
	v.SetDefault("strategy.backtest.size_mode", s.Backtest.SizeMode)
	v.SetDefault("strategy.backtest.allow_short", s.Backtest.AllowShort)
	v.SetDefault("strategy.backtest.plot", s.Backtest.Plot)
}

// Validate checks parameter ranges. Violations are configuration errors and
// are never silently defaulted away.
func (c *Config) Validate() error {
	if core.IntervalMinutes(c.Interval) == 0 {
		return core.Errorf(core.ErrConfigInvalid, "unknown interval %q", c.Interval)
	}
	if c.CandleLimit <= 0 {
		return core.Errorf(core.ErrConfigInvalid, "candle_limit must be positive, got %d", c.CandleLimit)
	}
	if c.Archive.Type != "localfs" && c.Archive.Type != "s3" {
		return core.Errorf(core.ErrConfigInvalid, "archive.type must be localfs or s3, got %q", c.Archive.Type)
	}
	return c.Strategy.Validate()
}

// Validate checks the strategy parameter ranges.
func (s *StrategyConfig) Validate() error {
	if s.Bollinger.Length < 2 {
		return core.Errorf(core.ErrConfigInvalid, "bollinger.length must be >= 2, got %d", s.Bollinger.Length)
	}
	if s.Bollinger.Std <= 0 {
		return core.Errorf(core.ErrConfigInvalid, "bollinger.std must be positive, got %g", s.Bollinger.Std)
	}
	if s.MACD.Fast <= 0 || s.MACD.Slow <= 0 || s.MACD.Signal <= 0 {
		return core.Errorf(core.ErrConfigInvalid, "macd periods must be positive, got %d/%d/%d",
			s.MACD.Fast, s.MACD.Slow, s.MACD.Signal)
	}
	if s.MACD.Fast >= s.MACD.Slow {
		return core.Errorf(core.ErrConfigInvalid, "macd.fast (%d) must be less than macd.slow (%d)",
			s.MACD.Fast, s.MACD.Slow)
	}
	if s.RSI.Length < 2 {
		return core.Errorf(core.ErrConfigInvalid, "rsi.length must be >= 2, got %d", s.RSI.Length)
	}
	if s.RSI.BuyMax < 0 || s.RSI.BuyMax > 100 || s.RSI.SellMin < 0 || s.RSI.SellMin > 100 {
		return core.Errorf(core.ErrConfigInvalid, "rsi filter bounds must be within [0,100], got %g/%g",
			s.RSI.BuyMax, s.RSI.SellMin)
	}
	if s.Filters.EMATrend.Use {
		if s.Filters.EMATrend.Length < 2 {
			return core.Errorf(core.ErrConfigInvalid, "filters.ema_trend.length must be >= 2, got %d",
				s.Filters.EMATrend.Length)
		}
		if s.Filters.EMATrend.Mode != "long_only_above" {
			return core.Errorf(core.ErrConfigInvalid, "unsupported ema_trend mode %q", s.Filters.EMATrend.Mode)
		}
	}
	if s.Execution.TouchTolerancePct < 0 {
		return core.Errorf(core.ErrConfigInvalid, "execution.touch_tolerance_pct must be non-negative, got %g",
			s.Execution.TouchTolerancePct)
	}
	if s.Execution.FeePct < 0 || s.Execution.SlippagePct < 0 {
		return core.Errorf(core.ErrConfigInvalid, "execution fees and slippage must be non-negative, got %g/%g",
			s.Execution.FeePct, s.Execution.SlippagePct)
	}
	if s.Risk.UseATR {
		if s.Risk.ATRLength < 1 {
			return core.Errorf(core.ErrConfigInvalid, "risk.atr_length must be >= 1, got %d", s.Risk.ATRLength)
		}
		if s.Risk.StopMult <= 0 || s.Risk.TrailMult <= 0 {
			return core.Errorf(core.ErrConfigInvalid, "risk multipliers must be positive, got %g/%g",
				s.Risk.StopMult, s.Risk.TrailMult)
		}
	}
	if s.Exits.TimeBased.Use && s.Exits.TimeBased.MaxBarsInTrade < 1 {
		return core.Errorf(core.ErrConfigInvalid, "exits.time_based.max_bars_in_trade must be >= 1, got %d",
			s.Exits.TimeBased.MaxBarsInTrade)
	}
	if s.Backtest.InitialCash <= 0 {
		return core.Errorf(core.ErrConfigInvalid, "backtest.initial_cash must be positive, got %g",
			s.Backtest.InitialCash)
	}
	if s.Backtest.SizePct <= 0 || s.Backtest.SizePct > 1 {
		return core.Errorf(core.ErrConfigInvalid, "backtest.size_pct must be in (0,1], got %g",
			s.Backtest.SizePct)
	}
	if s.Backtest.SizeMode != "fixed" && s.Backtest.SizeMode != "atr_risk" {
		return core.Errorf(core.ErrConfigInvalid, "backtest.size_mode must be fixed or atr_risk, got %q",
			s.Backtest.SizeMode)
	}
	if s.Backtest.SizeMode == "atr_risk" && !s.Risk.UseATR {
		return core.Errorf(core.ErrConfigInvalid, "backtest.size_mode atr_risk requires risk.use_atr")
	}
	if s.Backtest.AllowShort {
		return core.Errorf(core.ErrConfigInvalid, "short selling is not supported")
	}
	return nil
}
