// Package config resolves logscope settings from flags, the config file,
// LOGSCOPE_* environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/atikulmunna/logscope/internal/aggregator"
	"github.com/atikulmunna/logscope/internal/chart"
	"github.com/atikulmunna/logscope/internal/logging"
	"github.com/atikulmunna/logscope/internal/sysmetrics"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. LOGSCOPE_PORT
// or LOGSCOPE_CHART_BINS.
const EnvPrefix = "LOGSCOPE"

type Config struct {
	Data  string `mapstructure:"data"`
	Port  string `mapstructure:"port"`
	Watch bool   `mapstructure:"watch"`

	Log        LogConfig        `mapstructure:"log"`
	Chart      ChartConfig      `mapstructure:"chart"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type ChartConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
	Bins   int     `mapstructure:"bins"`
	Order  string  `mapstructure:"order"`
}

type MonitoringConfig struct {
	DiskPath     string `mapstructure:"disk_path"`
	ProcessLimit int    `mapstructure:"process_limit"`
}

// SetDefaults registers every key so that environment overrides are seen
// by Unmarshal even when no config file exists.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data", "log_data.csv")
	v.SetDefault("port", "8080")
	v.SetDefault("watch", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)

	def := chart.DefaultOptions()
	v.SetDefault("chart.width", def.Width)
	v.SetDefault("chart.height", def.Height)
	v.SetDefault("chart.bins", def.Bins)
	v.SetDefault("chart.order", string(def.Order))

	v.SetDefault("monitoring.disk_path", "/")
	v.SetDefault("monitoring.process_limit", 50)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: port must not be empty")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("config: chart size must be positive, got %gx%g", c.Chart.Width, c.Chart.Height)
	}
	if c.Chart.Bins <= 0 {
		return fmt.Errorf("config: chart.bins must be positive, got %d", c.Chart.Bins)
	}
	if _, err := aggregator.ParseOrder(c.Chart.Order); err != nil {
		return fmt.Errorf("config: chart.order: %w", err)
	}
	if c.Monitoring.ProcessLimit < 0 {
		return fmt.Errorf("config: monitoring.process_limit must not be negative, got %d", c.Monitoring.ProcessLimit)
	}
	return nil
}

func (c Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
	}
}

// ChartOptions assumes c has been validated.
func (c Config) ChartOptions() chart.Options {
	order, _ := aggregator.ParseOrder(c.Chart.Order)
	opts := chart.DefaultOptions()
	opts.Width = c.Chart.Width
	opts.Height = c.Chart.Height
	opts.Bins = c.Chart.Bins
	opts.Order = order
	return opts
}

func (c Config) Monitor() sysmetrics.Options {
	return sysmetrics.Options{
		DiskPath:     c.Monitoring.DiskPath,
		ProcessLimit: c.Monitoring.ProcessLimit,
	}
}
