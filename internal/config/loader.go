package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional file, a .env file and WQ_ environment variables
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	setDefaults(v)

	v.SetEnvPrefix("WQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("series.time_unit", d.Series.TimeUnit)
	v.SetDefault("series.track_turbidity", d.Series.TrackTurbidity)
	v.SetDefault("series.track_ph", d.Series.TrackPH)
	v.SetDefault("series.seasonal", d.Series.Seasonal)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.dsn", d.Storage.DSN)

	v.SetDefault("import.csv_path", d.Import.CSVPath)
	v.SetDefault("import.html_url", d.Import.HTMLURL)
	v.SetDefault("import.delimiter", d.Import.Delimiter)
	v.SetDefault("import.schedule", d.Import.Schedule)
	v.SetDefault("import.reload_every", d.Import.ReloadEvery)
	v.SetDefault("import.fetch_timeout", d.Import.FetchTimeout.String())
	v.SetDefault("import.max_upload_size", d.Import.MaxUploadSize)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)

	v.SetDefault("telegram.token", d.Telegram.Token)

	v.SetDefault("openai.api_key", d.OpenAI.APIKey)
	v.SetDefault("openai.model", d.OpenAI.Model)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Series: SeriesConfig{
			TimeUnit:       "minutes",
			TrackTurbidity: true,
			TrackPH:        true,
			Seasonal:       false,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "data/measurements.db",
		},
		Import: ImportConfig{
			Delimiter:     ",",
			Schedule:      "0 * * * *",
			ReloadEvery:   "@every 1m",
			FetchTimeout:  30 * time.Second,
			MaxUploadSize: 10 << 20,
		},
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 8080,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
