package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full application configuration, populated from defaults,
// an optional YAML file and QC_BIKE_PATH_* environment variables.
type Config struct {
	API         APIConfig       `mapstructure:"api" yaml:"api"`
	Mongo       MongoConfig     `mapstructure:"mongo" yaml:"mongo"`
	Cache       CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Transform   TransformConfig `mapstructure:"transform" yaml:"transform"`
	Log         LogConfig       `mapstructure:"log" yaml:"log"`
	Environment string          `mapstructure:"environment" yaml:"environment"`
}

// APIConfig configures the open data portal client.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	// ResourceID identifies the bike path dataset in the portal's
	// datastore. It has no sensible default; run and health commands
	// refuse to start without it.
	ResourceID    string        `mapstructure:"resource_id" yaml:"resource_id"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	RetryAttempts int           `mapstructure:"retry_attempts" yaml:"retry_attempts" validate:"gte=0"`
	RateLimit     float64       `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// MongoConfig configures the document store.
type MongoConfig struct {
	URI        string        `mapstructure:"uri" yaml:"uri" validate:"required"`
	Database   string        `mapstructure:"database" yaml:"database" validate:"required"`
	Collection string        `mapstructure:"collection" yaml:"collection" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// CacheConfig configures portal response caching.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"`
}

// TransformConfig configures the batch transformer.
type TransformConfig struct {
	// Workers > 1 transforms records in parallel; output order always
	// follows input order.
	Workers int `mapstructure:"workers" yaml:"workers" validate:"gte=1"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:       "https://www.donneesquebec.ca/recherche/api/3/action/datastore_search",
			ResourceID:    "",
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
			RateLimit:     2,
			UserAgent:     "qc-bike-path/1.0 (+https://github.com/lekaf974/qc-bike-path)",
		},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "qc_bike_path",
			Collection: "bike_paths",
			Timeout:    5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		Transform: TransformConfig{
			Workers: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Environment: "development",
	}
}

// Load merges viper state (config file, environment) over the defaults and
// validates the result. Callers are expected to have initialized viper's
// config search paths and env binding beforehand.
func Load() (*Config, error) {
	registerDefaults(Default())

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// registerDefaults makes every key known to viper so environment overrides
// are picked up by Unmarshal.
func registerDefaults(cfg *Config) {
	viper.SetDefault("api.base_url", cfg.API.BaseURL)
	viper.SetDefault("api.resource_id", cfg.API.ResourceID)
	viper.SetDefault("api.timeout", cfg.API.Timeout)
	viper.SetDefault("api.retry_attempts", cfg.API.RetryAttempts)
	viper.SetDefault("api.rate_limit", cfg.API.RateLimit)
	viper.SetDefault("api.user_agent", cfg.API.UserAgent)
	viper.SetDefault("mongo.uri", cfg.Mongo.URI)
	viper.SetDefault("mongo.database", cfg.Mongo.Database)
	viper.SetDefault("mongo.collection", cfg.Mongo.Collection)
	viper.SetDefault("mongo.timeout", cfg.Mongo.Timeout)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.ttl", cfg.Cache.TTL)
	viper.SetDefault("transform.workers", cfg.Transform.Workers)
	viper.SetDefault("log.level", cfg.Log.Level)
	viper.SetDefault("log.format", cfg.Log.Format)
	viper.SetDefault("environment", cfg.Environment)
}

// Validate checks the structural constraints of the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
