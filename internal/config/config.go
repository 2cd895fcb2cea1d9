package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	TMDB      TMDBConfig      `mapstructure:"tmdb"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds history database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// TMDBConfig holds metadata provider configuration.
type TMDBConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Timeout      int    `mapstructure:"timeout"` // seconds
}

// ScraperConfig holds Netflix page fetch configuration.
type ScraperConfig struct {
	FirstTimeout int `mapstructure:"first_timeout"` // seconds, desktop profile
	RetryTimeout int `mapstructure:"retry_timeout"` // seconds, mobile profile
}

// CacheConfig holds sizing and TTLs for the three lookup caches.
type CacheConfig struct {
	ResultTTL   time.Duration `mapstructure:"result_ttl"`
	ResultMax   int           `mapstructure:"result_max"`
	NegativeTTL time.Duration `mapstructure:"negative_ttl"`
	NegativeMax int           `mapstructure:"negative_max"`
	SearchTTL   time.Duration `mapstructure:"search_ttl"`
	SearchMax   int           `mapstructure:"search_max"`
}

// RateLimitConfig holds the per-client request ceiling.
type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.streamwise")
	}

	v.SetEnvPrefix("STREAMWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The original deployment supplied the provider key as TMDB_API_KEY.
	_ = v.BindEnv("tmdb.api_key", "STREAMWISE_TMDB_API_KEY", "TMDB_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4000)

	v.SetDefault("database.path", "./data/streamwise.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p")
	v.SetDefault("tmdb.timeout", 10)

	v.SetDefault("scraper.first_timeout", 15)
	v.SetDefault("scraper.retry_timeout", 20)

	v.SetDefault("cache.result_ttl", 30*24*time.Hour)
	v.SetDefault("cache.result_max", 1000)
	v.SetDefault("cache.negative_ttl", time.Hour)
	v.SetDefault("cache.negative_max", 500)
	v.SetDefault("cache.search_ttl", 7*24*time.Hour)
	v.SetDefault("cache.search_max", 2000)

	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window", 15*time.Minute)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
