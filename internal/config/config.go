// Package config loads the application settings from a config file, .env and the environment
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Series   SeriesConfig   `mapstructure:"series"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Import   ImportConfig   `mapstructure:"import"`
	Server   ServerConfig   `mapstructure:"server"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SeriesConfig selects the variant of the measurement series
type SeriesConfig struct {
	TimeUnit       string `mapstructure:"time_unit"` // minutes or hours
	TrackTurbidity bool   `mapstructure:"track_turbidity"`
	TrackPH        bool   `mapstructure:"track_ph"`
	Seasonal       bool   `mapstructure:"seasonal"` // hour-of-day offset, meaningful for hourly series
}

// StorageConfig represents persistence configuration
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	Path   string `mapstructure:"path"`   // sqlite database file
	DSN    string `mapstructure:"dsn"`    // postgres connection string
}

// ImportConfig represents bulk import sources
type ImportConfig struct {
	CSVPath       string        `mapstructure:"csv_path"`
	HTMLURL       string        `mapstructure:"html_url"`
	Delimiter     string        `mapstructure:"delimiter"`
	Schedule      string        `mapstructure:"schedule"`       // cron expression for scheduled imports
	ReloadEvery   string        `mapstructure:"reload_every"`   // cron expression for reloading the store from storage
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"` // bytes
}

// ServerConfig represents HTTP API configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	HTTPPort int    `mapstructure:"http_port"`
}

// TelegramConfig represents bot configuration
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// OpenAIConfig represents the natural-language interpreter configuration
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Series.Validate(); err != nil {
		return fmt.Errorf("series config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Import.Validate(); err != nil {
		return fmt.Errorf("import config: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates series configuration
func (c *SeriesConfig) Validate() error {
	if c.TimeUnit != "minutes" && c.TimeUnit != "hours" {
		return fmt.Errorf("series.time_unit must be 'minutes' or 'hours'")
	}
	return nil
}

// Validate validates storage configuration
func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("storage.driver must be 'sqlite' or 'postgres'")
	}
	return nil
}

// Validate validates import configuration
func (c *ImportConfig) Validate() error {
	if len([]rune(c.Delimiter)) != 1 {
		return fmt.Errorf("import.delimiter must be a single character")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("import.fetch_timeout must be positive")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("import.max_upload_size must be positive")
	}
	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	return nil
}

// ListenAddr returns the host:port string for the HTTP server
func (c ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// DelimiterRune returns the CSV delimiter as a rune
func (c ImportConfig) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
