// Package config loads the edgelab YAML configuration and applies
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the edgelab tools.
type Config struct {
	Storage Storage      `yaml:"storage"`
	Alpaca  Alpaca       `yaml:"alpaca"`
	Logging Logging      `yaml:"logging"`
	Sweep   SweepConfig  `yaml:"sweep"`
	Report  ReportConfig `yaml:"report"`
}

// Storage holds backends for data persistence. SQLitePath and PostgresDSN
// select the sweep-row store; when both are set, Postgres wins.
type Storage struct {
	DataDir     string `yaml:"data_dir"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API,
// used only by the price backfill collaborator.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SweepConfig defines the default parameter grid for sweep runs.
type SweepConfig struct {
	ModelVersion   string         `yaml:"model_version"`
	Symbols        []string       `yaml:"symbols"`
	HoldingPeriods []int          `yaml:"holding_periods"`
	Sides          []string       `yaml:"sides"`
	MinMentions    []int64        `yaml:"min_mentions"`
	PosThresholds  []float64      `yaml:"pos_thresholds"`
	PositionSize   float64        `yaml:"position_size"`
	MaxWorkers     int            `yaml:"max_workers"`
	Windows        []WindowConfig `yaml:"windows"`
}

// WindowConfig is one evaluation window, dates as YYYY-MM-DD.
type WindowConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// ParseDates returns the window bounds as UTC times.
func (w WindowConfig) ParseDates() (start, end time.Time, err error) {
	start, err = time.ParseInLocation("2006-01-02", w.Start, time.UTC)
	if err != nil {
		return start, end, fmt.Errorf("invalid window start %q: %w", w.Start, err)
	}
	end, err = time.ParseInLocation("2006-01-02", w.End, time.UTC)
	if err != nil {
		return start, end, fmt.Errorf("invalid window end %q: %w", w.End, err)
	}
	return start, end, nil
}

// ReportConfig holds the default aggregation controls.
type ReportConfig struct {
	MinWindows int    `yaml:"min_windows"`
	Limit      int    `yaml:"limit"`
	OrderBy    string `yaml:"order_by"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
