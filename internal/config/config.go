// Package config loads application configuration from a YAML file with
// environment variable overrides. A .env file, when present, is loaded
// before overrides are applied.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Server   Server         `yaml:"server"`
	Backtest BacktestConfig `yaml:"backtest"`
	Intraday IntradayConfig `yaml:"intraday"`
}

// Storage holds datastore connection strings and the snapshot file directory.
type Storage struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	DataDir       string `yaml:"data_dir"`
}

// Server holds network listener configuration.
type Server struct {
	Addr string `yaml:"addr"`
}

// BacktestConfig holds default run parameters. Callers can still override
// any of these per run.
type BacktestConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	MaxPerStock    float64 `yaml:"max_per_stock"`
	BuyExpensive   bool    `yaml:"buy_expensive"`
}

// IntradayConfig holds analyzer target percentages.
type IntradayConfig struct {
	ProfitTargetPercent float64 `yaml:"profit_target_percent"`
	LossTargetPercent   float64 `yaml:"loss_target_percent"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir: "data",
		},
		Server: Server{
			Addr: ":8080",
		},
		Backtest: BacktestConfig{
			InitialCapital: 10_000_000,
			MaxPerStock:    2_000_000,
		},
		Intraday: IntradayConfig{
			ProfitTargetPercent: 5,
			LossTargetPercent:   3,
		},
	}
}

// Load reads the YAML configuration file at the given path, parses it into
// a Config, and applies environment variable overrides. An empty path
// yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	// Missing .env is not an error.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("INITIAL_CAPITAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backtest.InitialCapital = f
		}
	}
	if v := os.Getenv("MAX_PER_STOCK"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backtest.MaxPerStock = f
		}
	}
	if v := os.Getenv("BUY_EXPENSIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Backtest.BuyExpensive = b
		}
	}
}
