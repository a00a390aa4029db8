// Package config loads and saves mfgdash settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/theirongolddev/mfgdash/internal/source"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all mfgdash configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Source     SourceConfig     `toml:"source"`
	Forecast   ForecastConfig   `toml:"forecast"`
	Server     ServerConfig     `toml:"server"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds feed location and column naming.
type GeneralConfig struct {
	FeedPath      string `toml:"feed_path,omitempty"`
	MergeFeeds    bool   `toml:"merge_feeds"`
	MonthColumn   string `toml:"month_column"`
	TotalColumn   string `toml:"total_column"`
	DefaultMetric string `toml:"default_metric"`
}

// SourceConfig selects a SQL table instead of a CSV file when Driver is set.
type SourceConfig struct {
	Driver string `toml:"driver,omitempty"` // postgres, mysql, sqlite
	DSN    string `toml:"dsn,omitempty"`
	Table  string `toml:"table,omitempty"`
}

// ForecastConfig holds forecast engine settings.
type ForecastConfig struct {
	Horizon    int `toml:"horizon"`
	MaxHorizon int `toml:"max_horizon"`
}

// ServerConfig holds web dashboard settings.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	PollIntervalSec int    `toml:"poll_interval_sec"`
	EventsBuffer    int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// EnvFile is read for overrides not present in the process environment.
var EnvFile = ".env"

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			FeedPath:      "powerbi_feed.csv",
			MonthColumn:   "Month",
			TotalColumn:   "Total Sales",
			DefaultMetric: "Total Sales",
		},
		Forecast: ForecastConfig{
			Horizon:    6,
			MaxHorizon: 24,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8790",
			PollIntervalSec: 15,
			EventsBuffer:    200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mfgdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mfgdash")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Validate checks values the rest of the program relies on.
func (c Config) Validate() error {
	if c.Forecast.Horizon < 1 {
		return fmt.Errorf("config: forecast.horizon must be at least 1, got %d", c.Forecast.Horizon)
	}
	if c.Forecast.MaxHorizon > 0 && c.Forecast.Horizon > c.Forecast.MaxHorizon {
		return fmt.Errorf("config: forecast.horizon %d exceeds forecast.max_horizon %d",
			c.Forecast.Horizon, c.Forecast.MaxHorizon)
	}
	if c.Source.Driver != "" && c.Source.Table == "" {
		return errors.New("config: source.table is required when source.driver is set")
	}
	return nil
}

// SourceOptions returns the column options for feed parsing.
func (c Config) SourceOptions() source.Options {
	return source.Options{
		MonthColumn: c.General.MonthColumn,
		TotalColumn: c.General.TotalColumn,
	}
}

// ApplyEnv overlays MFGDASH_* variables from the process environment, then
// from EnvFile. The process environment is never modified.
func ApplyEnv(cfg Config) Config {
	fileVars, _ := godotenv.Read(EnvFile)
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok && v != ""
	}

	if v, ok := lookup("MFGDASH_FEED"); ok {
		cfg.General.FeedPath = v
	}
	if v, ok := lookup("MFGDASH_SOURCE_DRIVER"); ok {
		cfg.Source.Driver = v
	}
	if v, ok := lookup("MFGDASH_SOURCE_DSN"); ok {
		cfg.Source.DSN = v
	}
	if v, ok := lookup("MFGDASH_SOURCE_TABLE"); ok {
		cfg.Source.Table = v
	}
	if v, ok := lookup("MFGDASH_ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := lookup("MFGDASH_HORIZON"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.Horizon = n
		}
	}
	return cfg
}
