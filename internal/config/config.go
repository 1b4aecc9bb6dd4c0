// Package config loads application settings from a TOML file with
// SOLEMN_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/combo"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. SOLEMN_SERVER_PORT.
const EnvPrefix = "SOLEMN_"

const dirName = ".solemnstats"

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server" envPrefix:"SERVER_"`
	Storage    StorageConfig    `toml:"storage" envPrefix:"STORAGE_"`
	Catalog    CatalogConfig    `toml:"catalog" envPrefix:"CATALOG_"`
	Simulation SimulationConfig `toml:"simulation" envPrefix:"SIMULATION_"`
	Jobs       JobsConfig       `toml:"jobs" envPrefix:"JOBS_"`
	Log        logging.Config   `toml:"log" envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host" env:"HOST"`
	Port           int      `toml:"port" env:"PORT"`
	RequestTimeout string   `toml:"request_timeout" env:"REQUEST_TIMEOUT"` // e.g. "60s"
	AllowedOrigins []string `toml:"allowed_origins" env:"ALLOWED_ORIGINS"`
}

// StorageConfig contains database settings.
type StorageConfig struct {
	Path         string `toml:"path" env:"PATH"`
	BusyTimeout  string `toml:"busy_timeout" env:"BUSY_TIMEOUT"`
	MaxOpenConns int    `toml:"max_open_conns" env:"MAX_OPEN_CONNS"`
}

// CatalogConfig contains card database client settings.
type CatalogConfig struct {
	BaseURL           string  `toml:"base_url" env:"BASE_URL"`
	RequestsPerSecond float64 `toml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	Timeout           string  `toml:"timeout" env:"TIMEOUT"`
	MaxRetries        int     `toml:"max_retries" env:"MAX_RETRIES"`
	// LookupBudget caps the catalog time spent resolving one deck import.
	LookupBudget string `toml:"lookup_budget" env:"LOOKUP_BUDGET"`
}

// SimulationConfig contains simulator defaults and limits.
type SimulationConfig struct {
	HandSize      int    `toml:"hand_size" env:"HAND_SIZE"`
	Iterations    int    `toml:"iterations" env:"ITERATIONS"`
	MaxIterations int    `toml:"max_iterations" env:"MAX_ITERATIONS"`
	Workers       int    `toml:"workers" env:"WORKERS"` // 0 = one per CPU
	Matcher       string `toml:"matcher" env:"MATCHER"`
}

// JobsConfig contains background simulation settings.
type JobsConfig struct {
	MaxConcurrent    int    `toml:"max_concurrent" env:"MAX_CONCURRENT"`
	MaxRetained      int    `toml:"max_retained" env:"MAX_RETAINED"`
	ProgressInterval string `toml:"progress_interval" env:"PROGRESS_INTERVAL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dbPath := "solemnstats.db"
	if dir, err := Dir(); err == nil {
		dbPath = filepath.Join(dir, "solemnstats.db")
	}
	return &Config{
		Server: ServerConfig{
			Host:           "",
			Port:           8080,
			RequestTimeout: "60s",
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*", "https://localhost:*"},
		},
		Storage: StorageConfig{
			Path:         dbPath,
			BusyTimeout:  "5s",
			MaxOpenConns: 10,
		},
		Catalog: CatalogConfig{
			BaseURL:           "https://db.ygoprodeck.com/api/v7/cardinfo.php",
			RequestsPerSecond: 15,
			Timeout:           "30s",
			MaxRetries:        3,
			LookupBudget:      "20s",
		},
		Simulation: SimulationConfig{
			HandSize:      combo.DefaultHandSize,
			Iterations:    combo.DefaultIterations,
			MaxIterations: 10_000_000,
			Workers:       0,
			Matcher:       combo.Backtracking.String(),
		},
		Jobs: JobsConfig{
			MaxConcurrent:    2,
			MaxRetained:      100,
			ProgressInterval: "250ms",
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, dirName), nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration at path (DefaultPath when empty) over the
// defaults, then applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from SOLEMN_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes the configuration to path (DefaultPath when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port out of range: %d", c.Server.Port))
	}
	for name, value := range map[string]string{
		"server request timeout": c.Server.RequestTimeout,
		"storage busy timeout":   c.Storage.BusyTimeout,
		"catalog timeout":        c.Catalog.Timeout,
		"catalog lookup budget":  c.Catalog.LookupBudget,
		"jobs progress interval": c.Jobs.ProgressInterval,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", name, value, err))
		}
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		errs = append(errs, errors.New("storage path is required"))
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("catalog requests per second must be positive: %v", c.Catalog.RequestsPerSecond))
	}
	if c.Catalog.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("catalog max retries cannot be negative: %d", c.Catalog.MaxRetries))
	}

	s := c.Simulation
	if s.HandSize < 1 {
		errs = append(errs, fmt.Errorf("simulation hand size must be at least 1: %d", s.HandSize))
	}
	if s.Iterations < 1 {
		errs = append(errs, fmt.Errorf("simulation iterations must be at least 1: %d", s.Iterations))
	}
	if s.MaxIterations < s.Iterations {
		errs = append(errs, fmt.Errorf("simulation max iterations %d below default iterations %d", s.MaxIterations, s.Iterations))
	}
	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("simulation workers cannot be negative: %d", s.Workers))
	}
	if _, err := combo.ParseMatcher(s.Matcher); err != nil {
		errs = append(errs, err)
	}

	if c.Jobs.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("jobs max concurrent must be at least 1: %d", c.Jobs.MaxConcurrent))
	}
	if c.Jobs.MaxRetained < 0 {
		errs = append(errs, fmt.Errorf("jobs max retained cannot be negative: %d", c.Jobs.MaxRetained))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// RequestTimeout returns the server request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.Server.RequestTimeout, 60*time.Second)
}

// BusyTimeout returns the sqlite busy timeout.
func (c *Config) BusyTimeout() time.Duration {
	return parseDuration(c.Storage.BusyTimeout, 5*time.Second)
}

// CatalogTimeout returns the catalog HTTP timeout.
func (c *Config) CatalogTimeout() time.Duration {
	return parseDuration(c.Catalog.Timeout, 30*time.Second)
}

// CatalogLookupBudget returns the catalog time allowed per deck import.
func (c *Config) CatalogLookupBudget() time.Duration {
	return parseDuration(c.Catalog.LookupBudget, 20*time.Second)
}

// ProgressInterval returns the minimum spacing of job progress events.
func (c *Config) ProgressInterval() time.Duration {
	return parseDuration(c.Jobs.ProgressInterval, 250*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
