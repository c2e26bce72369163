// Package config loads process configuration from the environment and
// scenario definitions from YAML files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	HTTPAddr         string
	MetricsAddr      string
	PostgresDSN      string
	PostgresMaxConns int
	ClickHouseDSN    string
	UseMemory        bool
	LogLevel         string
	LogFormat        string
	DiscountFactor   float64
	SweepConcurrency int
}

// Load reads an optional .env file from the working directory, then
// loads configuration from environment variables. Variables already set
// in the environment take precedence over .env values.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		ClickHouseDSN: getEnv("CLICKHOUSE_DSN", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}

	var err error
	defaultMemory := cfg.PostgresDSN == "" && cfg.ClickHouseDSN == ""
	if cfg.UseMemory, err = getEnvBool("USE_MEMORY", defaultMemory); err != nil {
		return nil, err
	}
	if cfg.DiscountFactor, err = getEnvFloat("DISCOUNT_FACTOR", 0.9); err != nil {
		return nil, err
	}
	if cfg.SweepConcurrency, err = getEnvInt("SWEEP_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.PostgresMaxConns, err = getEnvInt("POSTGRES_MAX_CONNS", 10); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if !(c.DiscountFactor > 0 && c.DiscountFactor <= 1) {
		return fmt.Errorf("DISCOUNT_FACTOR must be in (0,1], got %v", c.DiscountFactor)
	}
	if c.SweepConcurrency < 1 {
		return fmt.Errorf("SWEEP_CONCURRENCY must be >= 1, got %d", c.SweepConcurrency)
	}
	if c.PostgresMaxConns < 0 {
		return fmt.Errorf("POSTGRES_MAX_CONNS must be >= 0, got %d", c.PostgresMaxConns)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if !c.UseMemory && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when USE_MEMORY=false")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
