// Package config handles loading and validating the application
// configuration from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Supplier SupplierConfig `yaml:"supplier"`
	Database DatabaseConfig `yaml:"database"`
	Settings SettingsConfig `yaml:"settings"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SupplierConfig defines supplier API settings.
type SupplierConfig struct {
	BaseURL        string          `yaml:"base_url"`
	CallTimeout    time.Duration   `yaml:"call_timeout"`
	MyProductsPage int             `yaml:"my_products_page_size"`
	Freight        FreightConfig   `yaml:"freight"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// FreightConfig defines freight quoting destinations.
type FreightConfig struct {
	// Destinations are ISO country codes quoted in parallel. The first
	// entry is the preferred destination and its options sort first.
	Destinations []string `yaml:"destinations"`
	StartCountry string   `yaml:"start_country"`
}

// RateLimitConfig defines the outbound call gate.
type RateLimitConfig struct {
	// MinInterval is the minimum spacing between supplier calls.
	MinInterval time.Duration `yaml:"min_interval"`
}

// RetryConfig defines the retry policy for supplier calls.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	BaseBackoff  time.Duration `yaml:"base_backoff"`
	NetworkDelay time.Duration `yaml:"network_delay"`
}

// DatabaseConfig defines PostgreSQL connection settings for the
// settings store. Optional: the in-memory store is used when host is
// empty.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// Enabled reports whether a Postgres settings store is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// SettingsConfig defines encrypted settings store behavior.
type SettingsConfig struct {
	// Secret is the passphrase the AES key is derived from. Set via
	// environment substitution, never committed.
	Secret string `yaml:"secret"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment
// variable substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applySupplierDefaults(&cfg.Supplier)
	applyDatabaseDefaults(&cfg.Database)
	applyLoggingDefaults(&cfg.Logging)
}

func applySupplierDefaults(s *SupplierConfig) {
	if s.BaseURL == "" {
		s.BaseURL = "https://developers.cjdropshipping.com/api2.0/v1"
	}
	if s.CallTimeout == 0 {
		s.CallTimeout = 10 * time.Second
	}
	if s.MyProductsPage == 0 {
		s.MyProductsPage = 200
	}
	if len(s.Freight.Destinations) == 0 {
		s.Freight.Destinations = []string{"US", "CA", "GB", "AU"}
	}
	if s.Freight.StartCountry == "" {
		s.Freight.StartCountry = "CN"
	}
	if s.RateLimit.MinInterval == 0 {
		s.RateLimit.MinInterval = 200 * time.Millisecond
	}
	if s.Retry.MaxAttempts == 0 {
		s.Retry.MaxAttempts = 3
	}
	if s.Retry.BaseBackoff == 0 {
		s.Retry.BaseBackoff = time.Second
	}
	if s.Retry.NetworkDelay == 0 {
		s.Retry.NetworkDelay = 500 * time.Millisecond
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Settings.Secret == "" {
		errs = append(errs, fmt.Errorf("settings.secret is required"))
	}
	if cfg.Supplier.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("supplier.retry.max_attempts must be at least 1"))
	}
	if cfg.Database.Enabled() {
		if cfg.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required when database.host is set"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required when database.host is set"))
		}
	}

	return errors.Join(errs...)
}
