// Package config loads the dashboard configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds all application configuration.
type Config struct {
	Title      string `yaml:"title"`
	ChartTitle string `yaml:"chart_title"`
	Symbol     string `yaml:"symbol"`
	Data       struct {
		Source      string `yaml:"source"`
		Path        string `yaml:"path"`
		DateColumn  string `yaml:"date_column"`
		CloseColumn string `yaml:"close_column"`
	} `yaml:"data"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`
	Forecast struct {
		CacheSize int `yaml:"cache_size"`
	} `yaml:"forecast"`
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		RateLimit      float64       `yaml:"rate_limit"`
		RateBurst      int           `yaml:"rate_burst"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		TrustProxy     bool          `yaml:"trust_proxy"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Watch bool `yaml:"watch"`
}

const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults are used instead.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve returns path if it exists, otherwise the same file name one directory up.
// This lets the binary run from the repository root or from cmd/.
func Resolve(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		parent := filepath.Join("..", path)
		if _, err := os.Stat(parent); err == nil {
			return parent
		}
	}
	return path
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STOCKCAST_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Http.Port = port
		}
	}
	if v := os.Getenv("STOCKCAST_DATA_PATH"); v != "" {
		cfg.Data.Path = v
	}
	if v := os.Getenv("STOCKCAST_MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("STOCKCAST_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Title == "" {
		cfg.Title = "Apple Stock Price Prediction using ARIMA"
	}
	if cfg.ChartTitle == "" {
		cfg.ChartTitle = "Apple Stock Price Forecast"
	}
	if cfg.Symbol == "" {
		cfg.Symbol = "AAPL"
	}
	if cfg.Data.Source == "" {
		cfg.Data.Source = SourceCSV
	}
	if cfg.Data.Path == "" {
		cfg.Data.Path = "AAPL.csv"
	}
	if cfg.Data.DateColumn == "" {
		cfg.Data.DateColumn = "Date"
	}
	if cfg.Data.CloseColumn == "" {
		cfg.Data.CloseColumn = "Close"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/prices.db"
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = "arima_model.json"
	}
	if cfg.Forecast.CacheSize == 0 {
		cfg.Forecast.CacheSize = 128
	}
	if cfg.Http.Port == 0 {
		cfg.Http.Port = 8501
	}
	if cfg.Http.Timeout == 0 {
		cfg.Http.Timeout = 30 * time.Second
	}
	if cfg.Http.RateLimit == 0 {
		cfg.Http.RateLimit = 5
	}
	if cfg.Http.RateBurst == 0 {
		cfg.Http.RateBurst = 15
	}
	if len(cfg.Http.AllowedOrigins) == 0 {
		cfg.Http.AllowedOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 28
	}
}

// Validate checks that all required fields hold usable values.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceCSV, SourceSQLite:
	default:
		return fmt.Errorf("data.source must be %q or %q, got %q", SourceCSV, SourceSQLite, c.Data.Source)
	}
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.Http.Port)
	}
	if c.Forecast.CacheSize < 0 {
		return fmt.Errorf("forecast.cache_size must not be negative")
	}
	if c.Http.RateLimit < 0 || c.Http.RateBurst < 0 {
		return fmt.Errorf("http.rate_limit and http.rate_burst must not be negative")
	}
	return nil
}
