package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Evaluator EvaluatorConfig `mapstructure:"evaluator"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Currency  CurrencyConfig  `mapstructure:"currency"`
	Dice      DiceConfig      `mapstructure:"dice"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// EvaluatorConfig holds script evaluator configuration.
//
// The timeout bounds apply to the per-call "timeout" tool parameter: the tool
// handler rejects values outside [MinTimeoutMs, MaxTimeoutMs] before the
// evaluator runs, and DefaultTimeoutMs is used when the caller omits it.
type EvaluatorConfig struct {
	Engine           string `mapstructure:"engine"`
	DefaultTimeoutMs int    `mapstructure:"default_timeout_ms"`
	MinTimeoutMs     int    `mapstructure:"min_timeout_ms"`
	MaxTimeoutMs     int    `mapstructure:"max_timeout_ms"`
	MaxOutputBytes   int    `mapstructure:"max_output_bytes"`
}

// WeatherConfig holds the weather tool configuration
type WeatherConfig struct {
	GeocodingURL string `mapstructure:"geocoding_url"`
	ForecastURL  string `mapstructure:"forecast_url"`
	TimeoutSec   int    `mapstructure:"timeout_sec"`
}

// CurrencyConfig holds the currency tool configuration
type CurrencyConfig struct {
	RatesURL   string `mapstructure:"rates_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// DiceConfig holds the dice tool configuration
type DiceConfig struct {
	MaxDice  int `mapstructure:"max_dice"`
	MaxSides int `mapstructure:"max_sides"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("server.transport", "stdio")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")

	viper.SetDefault("evaluator.engine", "goja")
	viper.SetDefault("evaluator.default_timeout_ms", 5000)
	viper.SetDefault("evaluator.min_timeout_ms", 100)
	viper.SetDefault("evaluator.max_timeout_ms", 10000)
	viper.SetDefault("evaluator.max_output_bytes", 64*1024)

	viper.SetDefault("weather.geocoding_url", "https://geocoding-api.open-meteo.com/v1/search")
	viper.SetDefault("weather.forecast_url", "https://api.open-meteo.com/v1/forecast")
	viper.SetDefault("weather.timeout_sec", 10)

	viper.SetDefault("currency.rates_url", "https://open.er-api.com/v6/latest")
	viper.SetDefault("currency.timeout_sec", 10)

	viper.SetDefault("dice.max_dice", 100)
	viper.SetDefault("dice.max_sides", 1000)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Evaluator.Engine != "goja" {
		return fmt.Errorf("unsupported evaluator.engine: %s", c.Evaluator.Engine)
	}

	if c.Evaluator.MinTimeoutMs <= 0 {
		return fmt.Errorf("evaluator.min_timeout_ms must be positive, got: %d", c.Evaluator.MinTimeoutMs)
	}

	if c.Evaluator.MaxTimeoutMs < c.Evaluator.MinTimeoutMs {
		return fmt.Errorf("evaluator.max_timeout_ms must be >= min_timeout_ms, got: %d < %d",
			c.Evaluator.MaxTimeoutMs, c.Evaluator.MinTimeoutMs)
	}

	if c.Evaluator.DefaultTimeoutMs < c.Evaluator.MinTimeoutMs || c.Evaluator.DefaultTimeoutMs > c.Evaluator.MaxTimeoutMs {
		return fmt.Errorf("evaluator.default_timeout_ms must be within [%d, %d], got: %d",
			c.Evaluator.MinTimeoutMs, c.Evaluator.MaxTimeoutMs, c.Evaluator.DefaultTimeoutMs)
	}

	if c.Evaluator.MaxOutputBytes <= 0 {
		return fmt.Errorf("evaluator.max_output_bytes must be positive, got: %d", c.Evaluator.MaxOutputBytes)
	}

	if c.Weather.GeocodingURL == "" || c.Weather.ForecastURL == "" {
		return fmt.Errorf("weather.geocoding_url and weather.forecast_url must be set")
	}

	if c.Weather.TimeoutSec <= 0 {
		return fmt.Errorf("weather.timeout_sec must be positive, got: %d", c.Weather.TimeoutSec)
	}

	if c.Currency.RatesURL == "" {
		return fmt.Errorf("currency.rates_url must be set")
	}

	if c.Currency.TimeoutSec <= 0 {
		return fmt.Errorf("currency.timeout_sec must be positive, got: %d", c.Currency.TimeoutSec)
	}

	if c.Dice.MaxDice <= 0 {
		return fmt.Errorf("dice.max_dice must be positive, got: %d", c.Dice.MaxDice)
	}

	if c.Dice.MaxSides < 2 {
		return fmt.Errorf("dice.max_sides must be at least 2, got: %d", c.Dice.MaxSides)
	}

	return nil
}

// DefaultTimeout returns the default script evaluation timeout as a duration
func (c *EvaluatorConfig) DefaultTimeout() time.Duration {
	return time.Duration(c.DefaultTimeoutMs) * time.Millisecond
}

// WeatherTimeout returns the weather API request timeout as a duration
func (c *Config) WeatherTimeout() time.Duration {
	return time.Duration(c.Weather.TimeoutSec) * time.Second
}

// CurrencyTimeout returns the currency API request timeout as a duration
func (c *Config) CurrencyTimeout() time.Duration {
	return time.Duration(c.Currency.TimeoutSec) * time.Second
}
