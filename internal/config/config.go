// Package config loads application configuration from an optional YAML file,
// a .env file, and environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings.
type App struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// Ticker configures the collection loop.
type Ticker struct {
	Symbol       string `yaml:"symbol"`
	Source       string `yaml:"source"`
	IntervalSecs int    `yaml:"interval_secs"`
	CSVPath      string `yaml:"csv_path"`
}

// DB configures the SQLite database.
type DB struct {
	Path string `yaml:"path"`
}

// Config collects every configuration leaf.
type Config struct {
	App    App    `yaml:"app"`
	Ticker Ticker `yaml:"ticker"`
	DB     DB     `yaml:"db"`
}

// Load reads the YAML file at path, fills in defaults, and applies
// environment overrides. A missing file is not an error; the defaults
// describe a complete setup (SPY every 15 seconds). A .env file in the
// working directory is loaded first, best-effort.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Path returns the config file location, overridable via CONFIG_PATH.
func Path() string {
	return getEnv("CONFIG_PATH", "config.yaml")
}

func (c *Config) applyEnv() {
	c.App.Port = getEnv("PORT", c.App.Port)
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)
	c.Ticker.Symbol = getEnv("TICKER", c.Ticker.Symbol)
	c.DB.Path = getEnv("DB_PATH", c.DB.Path)
}

func (c *Config) applyDefaults() {
	if c.App.Port == "" {
		c.App.Port = "8080"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Ticker.Symbol == "" {
		c.Ticker.Symbol = "SPY"
	}
	if c.Ticker.Source == "" {
		c.Ticker.Source = "yahoo"
	}
	if c.Ticker.IntervalSecs <= 0 {
		c.Ticker.IntervalSecs = 15
	}
	if c.Ticker.CSVPath == "" {
		c.Ticker.CSVPath = c.Ticker.Symbol + "_stock_data.csv"
	}
	if c.DB.Path == "" {
		c.DB.Path = "tickerd.db"
	}
}

// Interval returns the collection interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Ticker.IntervalSecs) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
