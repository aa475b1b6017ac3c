package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"StockLens/internal/cache"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Upstream struct {
		BaseURL     string        `yaml:"base_url"`
		AccessToken string        `yaml:"access_token"`
		Timeout     time.Duration `yaml:"timeout"`
		MaxMinutes  int           `yaml:"max_minutes"`
	} `yaml:"upstream"`
	Server struct {
		Port int    `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`
	Cache struct {
		TTL       time.Duration `yaml:"ttl"`
		Strategy  string        `yaml:"strategy"`
		SampleTTL time.Duration `yaml:"sample_ttl"`
		SweepCron string        `yaml:"sweep_cron"`
		WarmCron  string        `yaml:"warm_cron"`
	} `yaml:"cache"`
	Correlation struct {
		MaxGap time.Duration `yaml:"max_gap"`
	} `yaml:"correlation"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
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

	// Environment variable overrides
	if v := os.Getenv("TEST_SERVER_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("ACCESS_TOKEN"); v != "" {
		cfg.Upstream.AccessToken = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 5 * time.Second
	}
	if cfg.Upstream.MaxMinutes == 0 {
		cfg.Upstream.MaxMinutes = 1440
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Minute
	}
	if cfg.Cache.Strategy == "" {
		cfg.Cache.Strategy = string(cache.WholeEntry)
	}
	if cfg.Cache.SampleTTL == 0 {
		cfg.Cache.SampleTTL = 5 * time.Minute
	}
	if cfg.Cache.SweepCron == "" {
		cfg.Cache.SweepCron = "0 * * * * *"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if c.Upstream.MaxMinutes <= 0 {
		return fmt.Errorf("upstream.max_minutes must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	strategy, err := cache.ParseStrategy(c.Cache.Strategy)
	if err != nil {
		return fmt.Errorf("cache.strategy: %w", err)
	}
	if strategy == cache.PerSample && c.Cache.SampleTTL <= 0 {
		return fmt.Errorf("cache.sample_ttl must be positive for the %s strategy", cache.PerSample)
	}
	if c.Correlation.MaxGap < 0 {
		return fmt.Errorf("correlation.max_gap must not be negative")
	}
	return nil
}
