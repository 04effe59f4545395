package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tradekit/osprey/internal/core"
)

type Config struct {
	Watchlist []string        `mapstructure:"watchlist"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Backtest  BacktestConfig  `mapstructure:"backtest"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Collector CollectorConfig `mapstructure:"collector"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Debug     bool            `mapstructure:"debug"`
}

// ScheduleConfig controls the daily run.
type ScheduleConfig struct {
	RunAt    string `mapstructure:"run_at"`   // wall-clock "HH:MM"
	Timezone string `mapstructure:"timezone"` // IANA name, e.g. "America/New_York"
}

// BacktestConfig holds the ratio grid and history window.
type BacktestConfig struct {
	LookbackYears int       `mapstructure:"lookback_years"`
	StopRatios    []float64 `mapstructure:"stop_ratios"`
	ProfitRatios  []float64 `mapstructure:"profit_ratios"`
}

// StrategyConfig holds signal generation settings.
type StrategyConfig struct {
	FastPeriod     int `mapstructure:"fast_period"`
	SlowPeriod     int `mapstructure:"slow_period"`
	SignalPeriod   int `mapstructure:"signal_period"`
	BaselinePeriod int `mapstructure:"baseline_period"`
}

type CollectorConfig struct {
	Provider  string `mapstructure:"provider"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	BaseURL   string `mapstructure:"base_url"`
}

// BrokerConfig holds broker integration settings.
type BrokerConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	Provider string  `mapstructure:"provider"` // "paper"
	Cash     float64 `mapstructure:"cash"`
}

// RiskConfig holds position sizing settings.
type RiskConfig struct {
	Fraction float64 `mapstructure:"fraction"`
}

// ArchiveConfig holds run report archive settings.
type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // for localfs
	S3      S3Config `mapstructure:"s3"`   // for s3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			RunAt:    "10:00",
			Timezone: "America/New_York",
		},
		Backtest: BacktestConfig{
			LookbackYears: 5,
		},
		Strategy: StrategyConfig{
			FastPeriod:     12,
			SlowPeriod:     26,
			SignalPeriod:   9,
			BaselinePeriod: 100,
		},
		Collector: CollectorConfig{
			Provider: "alpaca",
		},
		Broker: BrokerConfig{
			Enabled:  true,
			Provider: "paper",
			Cash:     100000,
		},
		Risk: RiskConfig{
			Fraction: 0.10,
		},
		Archive: ArchiveConfig{
			Enabled: true,
			Type:    "localfs",
			Path:    "data/reports",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Watchlist) == 0 {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("watchlist must name at least one symbol"))
	}

	if _, err := ParseRunAt(c.Schedule.RunAt); err != nil {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("schedule run_at: %w", err))
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("schedule timezone: %w", err))
	}

	if c.Backtest.LookbackYears < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("lookback_years must be positive, got %d", c.Backtest.LookbackYears))
	}
	for _, r := range c.Backtest.StopRatios {
		if r <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("stop ratios must be positive, got %f", r))
		}
	}
	for _, r := range c.Backtest.ProfitRatios {
		if r <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("profit ratios must be positive, got %f", r))
		}
	}

	if c.Risk.Fraction <= 0 || c.Risk.Fraction > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("risk fraction must be in (0, 1], got %f", c.Risk.Fraction))
	}

	if c.Broker.Enabled && c.Broker.Cash <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("broker cash must be positive, got %f", c.Broker.Cash))
	}

	if c.Collector.Provider == "alpaca" {
		if c.Collector.APIKey == "" || c.Collector.APISecret == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("alpaca api_key and api_secret required"))
		}
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive path required for localfs"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("s3 bucket required"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive type: %s", c.Archive.Type))
		}
	}

	return nil
}

// ParseRunAt parses a wall-clock "HH:MM" string into hour and minute.
func ParseRunAt(s string) (time.Duration, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("out of range: %q", s)
	}
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute, nil
}
