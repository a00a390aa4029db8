package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Forecast.Horizon != 6 || cfg.Forecast.MaxHorizon != 24 {
		t.Errorf("Forecast = %+v, want horizon 6 max 24", cfg.Forecast)
	}
	if cfg.General.DefaultMetric != "Total Sales" {
		t.Errorf("DefaultMetric = %q", cfg.General.DefaultMetric)
	}
	if Exists() {
		t.Error("Exists() = true with no file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.FeedPath = "/srv/feeds"
	cfg.General.MergeFeeds = true
	cfg.Forecast.Horizon = 12
	cfg.Source = SourceConfig{Driver: "postgres", DSN: "postgres://localhost/sales", Table: "monthly_sales"}

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "mfgdash"), 0o755); err != nil {
		t.Fatal(err)
	}
	data := "[forecast]\nhorizon = 3\n"
	if err := os.WriteFile(ConfigPath(), []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Forecast.Horizon != 3 {
		t.Errorf("Horizon = %d, want 3", cfg.Forecast.Horizon)
	}
	if cfg.Forecast.MaxHorizon != 24 || cfg.Server.Addr != "127.0.0.1:8790" {
		t.Errorf("defaults lost: %+v %+v", cfg.Forecast, cfg.Server)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero horizon", func(c *Config) { c.Forecast.Horizon = 0 }},
		{"horizon over cap", func(c *Config) { c.Forecast.Horizon = 30 }},
		{"driver without table", func(c *Config) { c.Source.Driver = "mysql" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Forecast.MaxHorizon = 0
	cfg.Forecast.Horizon = 100
	if err := cfg.Validate(); err != nil {
		t.Errorf("uncapped horizon: unexpected error: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("MFGDASH_FEED=/from/file.csv\nMFGDASH_SOURCE_DSN=file-dsn\nMFGDASH_HORIZON=9\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	old := EnvFile
	EnvFile = envPath
	defer func() { EnvFile = old }()

	t.Setenv("MFGDASH_FEED", "/from/env.csv")
	t.Setenv("MFGDASH_ADDR", "0.0.0.0:9000")

	cfg := ApplyEnv(DefaultConfig())
	if cfg.General.FeedPath != "/from/env.csv" {
		t.Errorf("FeedPath = %q, want process env to win", cfg.General.FeedPath)
	}
	if cfg.Source.DSN != "file-dsn" {
		t.Errorf("DSN = %q, want value from .env", cfg.Source.DSN)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Forecast.Horizon != 9 {
		t.Errorf("Horizon = %d, want 9", cfg.Forecast.Horizon)
	}
	if _, set := os.LookupEnv("MFGDASH_SOURCE_DSN"); set {
		t.Error("ApplyEnv modified the process environment")
	}
}

func TestSourceOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.MonthColumn = "Period"
	opts := cfg.SourceOptions()
	if opts.MonthColumn != "Period" || opts.TotalColumn != "Total Sales" {
		t.Errorf("SourceOptions = %+v", opts)
	}
}
