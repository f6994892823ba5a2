// Package config provides configuration management for the tick-replay application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	Backtest BacktestConfig `mapstructure:"backtest" validate:"required"`
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// CacheConfig represents two-tier cache configuration
type CacheConfig struct {
	LocalMaxEntries  int    `mapstructure:"local_max_entries" validate:"required,gt=0"`
	RemoteAddress    string `mapstructure:"remote_address"`
	RemotePassword   string `mapstructure:"remote_password"`
	RemoteDB         int    `mapstructure:"remote_db" validate:"gte=0"`
	RemoteTTLSeconds int    `mapstructure:"remote_ttl_seconds" validate:"required,gt=0"`
}

// RemoteEnabled reports whether a remote tier is configured.
func (c CacheConfig) RemoteEnabled() bool {
	return c.RemoteAddress != ""
}

// RemoteTTL returns the remote tier expiry as a duration.
func (c CacheConfig) RemoteTTL() time.Duration {
	return time.Duration(c.RemoteTTLSeconds) * time.Second
}

// BacktestConfig represents default backtest run settings
type BacktestConfig struct {
	InitialCapital  string  `mapstructure:"initial_capital" validate:"required"`
	CommissionRate  string  `mapstructure:"commission_rate" validate:"required"`
	DefaultSymbol   string  `mapstructure:"default_symbol" validate:"required"`
	DefaultCount    int     `mapstructure:"default_count" validate:"required,gt=0"`
	DefaultStrategy string  `mapstructure:"default_strategy" validate:"required"`
	RiskFreeRate    float64 `mapstructure:"risk_free_rate" validate:"gte=0,lte=1"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port              int     `mapstructure:"port" validate:"required,min=1,max=65535"`
	HealthPort        int     `mapstructure:"health_port" validate:"required,min=1,max=65535"`
	RunRatePerSecond  float64 `mapstructure:"run_rate_per_second" validate:"gt=0"`
	RunRateBurst      int     `mapstructure:"run_rate_burst" validate:"gt=0"`
	ShutdownTimeoutMS int     `mapstructure:"shutdown_timeout_ms" validate:"required,gt=0"`
	// SummaryRefreshCron periodically rebuilds the stored-data summary in the
	// background; empty disables the job.
	SummaryRefreshCron string `mapstructure:"summary_refresh_cron"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
