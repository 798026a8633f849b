// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"bidmarket/internal/notify"
	"bidmarket/pkg/db" // Import db package for its Config struct
)

// MarketplaceConfig holds the bidding rules that are fixed at start-up.
type MarketplaceConfig struct {
	// USDRate is how many base-currency units one USD is worth.
	USDRate                     float64 `yaml:"usd_rate"`
	MinimumParticipationBalance float64 `yaml:"minimum_participation_balance"`
}

// ServerConfig bounds the HTTP server's connection handling.
// WriteTimeout must outlast the per-request timeout so handlers can still answer.
type ServerConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort  string            `yaml:"server_port"`
	Server      ServerConfig      `yaml:"server"`
	LogLevel    string            `yaml:"log_level"`
	DB          db.Config         `yaml:"db"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Retry       db.RetryConfig    `yaml:"retry"`
	Notify      notify.Config     `yaml:"notify"`
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		ServerPort: "8080",
		Server: ServerConfig{
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    35 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		LogLevel: "info",
		DB: db.Config{
			Host:         "localhost",
			Port:         5432,
			User:         "user",
			Password:     "password",
			DBName:       "bidmarket",
			SSLMode:      "disable",
			MaxOpenConns: 25,
		},
		Marketplace: MarketplaceConfig{
			USDRate:                     3.0,
			MinimumParticipationBalance: 6.0,
		},
		Retry: db.RetryConfig{
			MaxRetries: 3,
			Delay:      20 * time.Millisecond,
			MaxDelay:   500 * time.Millisecond,
		},
		Notify: notify.Config{
			Workers:    4,
			Capacity:   256,
			MaxRetries: 3,
			RetryDelay: 100 * time.Millisecond,
			Timeout:    10 * time.Second,
		},
	}
}

// LoadConfig loads configuration from an optional YAML file named by CONFIG_FILE,
// then applies environment variable overrides.
func LoadConfig() (*AppConfig, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	setString(&cfg.ServerPort, "SERVER_PORT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.DB.Host, "DB_HOST")
	setString(&cfg.DB.User, "DB_USER")
	setString(&cfg.DB.Password, "DB_PASSWORD")
	setString(&cfg.DB.DBName, "DB_NAME")
	setString(&cfg.DB.SSLMode, "DB_SSLMODE")

	for key, dst := range map[string]*time.Duration{
		"SERVER_READ_TIMEOUT":     &cfg.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":    &cfg.Server.WriteTimeout,
		"SERVER_IDLE_TIMEOUT":     &cfg.Server.IdleTimeout,
		"SERVER_SHUTDOWN_TIMEOUT": &cfg.Server.ShutdownTimeout,
	} {
		if err := setDuration(dst, key); err != nil {
			return err
		}
	}
	if err := setInt(&cfg.DB.Port, "DB_PORT"); err != nil {
		return err
	}
	if err := setInt(&cfg.DB.MaxOpenConns, "DB_MAX_OPEN_CONNS"); err != nil {
		return err
	}
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
		}
		cfg.DB.AutoMigrate = b
	}

	if err := setFloat(&cfg.Marketplace.USDRate, "MARKET_USD_RATE"); err != nil {
		return err
	}
	if err := setFloat(&cfg.Marketplace.MinimumParticipationBalance, "MARKET_MIN_PARTICIPATION_BALANCE"); err != nil {
		return err
	}
	if err := setInt(&cfg.Retry.MaxRetries, "TX_MAX_RETRIES"); err != nil {
		return err
	}
	if err := setInt(&cfg.Notify.Workers, "NOTIFY_WORKERS"); err != nil {
		return err
	}
	return setInt(&cfg.Notify.MaxRetries, "NOTIFY_MAX_RETRIES")
}

// Validate rejects configurations the marketplace cannot run with.
func (c *AppConfig) Validate() error {
	if c.Marketplace.USDRate <= 0 {
		return fmt.Errorf("invalid marketplace usd_rate %v: must be positive", c.Marketplace.USDRate)
	}
	if c.Marketplace.MinimumParticipationBalance < 0 {
		return fmt.Errorf("invalid marketplace minimum_participation_balance %v: must not be negative", c.Marketplace.MinimumParticipationBalance)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid server timeouts %+v: read, write and shutdown must be positive", c.Server)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("invalid retry max_retries %d: must not be negative", c.Retry.MaxRetries)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
