package config

import (
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scrapedgit/backend/internal/domain"
	"github.com/scrapedgit/backend/internal/usecase"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	NLU       NLUConfig       `mapstructure:"nlu"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Search    SearchConfig    `mapstructure:"search"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Shipping  ShippingConfig  `mapstructure:"shipping"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// NLUConfig holds language-model delegate configuration
type NLUConfig struct {
	Provider          string        `mapstructure:"provider"` // "none" or "anthropic"
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxTokens         int64         `mapstructure:"max_tokens"`
	Temperature       float64       `mapstructure:"temperature"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Burst             int           `mapstructure:"burst"`
	HistoryWindow     int           `mapstructure:"history_window"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL   string        `mapstructure:"redis_url"`
	Prefix     string        `mapstructure:"prefix"`
	MaxEntries int           `mapstructure:"max_entries"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	SearchTTL  time.Duration `mapstructure:"search_ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP            int           `mapstructure:"per_ip"` // requests per minute
	ScraperPerSource int           `mapstructure:"scraper_per_source"`
	ScraperWindow    time.Duration `mapstructure:"scraper_window"`
}

// SearchConfig holds marketplace search configuration
type SearchConfig struct {
	DefaultLocation      string        `mapstructure:"default_location"`
	MaxProductsPerSource int           `mapstructure:"max_products_per_source"`
	MaxStoredResults     int           `mapstructure:"max_stored_results"`
	Timeout              time.Duration `mapstructure:"timeout"`
}

// ScoringConfig holds recommendation weights
type ScoringConfig struct {
	Weights domain.Weights `mapstructure:"weights"`
}

// ShippingConfig holds the shipping cost model
type ShippingConfig struct {
	DistanceTablePath string  `mapstructure:"distance_table_path"`
	BaseCost          float64 `mapstructure:"base_cost"`
	PerKmRate         float64 `mapstructure:"per_km_rate"`
	PerExtraKgRate    float64 `mapstructure:"per_extra_kg_rate"`
	DefaultDistance   float64 `mapstructure:"default_distance"`
	RoundTo           float64 `mapstructure:"round_to"`
}

// Load loads configuration from environment variables and config files.
// configFile overrides the search paths when set.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/scrapedgit/")
	}

	// Environment variable settings
	v.SetEnvPrefix("SCRAPEDGIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough to run
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, eris.Wrap(err, "config: decode")
	}

	if err := validate(&config); err != nil {
		return nil, eris.Wrap(err, "config: invalid")
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// NLU defaults
	v.SetDefault("nlu.provider", "none")
	v.SetDefault("nlu.api_key", "")
	v.SetDefault("nlu.model", "claude-haiku-4-5-20251001")
	v.SetDefault("nlu.timeout", "10s")
	v.SetDefault("nlu.max_tokens", 800)
	v.SetDefault("nlu.temperature", 0.2)
	v.SetDefault("nlu.requests_per_minute", 60)
	v.SetDefault("nlu.burst", 5)
	v.SetDefault("nlu.history_window", 6)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.prefix", "scrapedgit:")
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.session_ttl", "30m")
	v.SetDefault("cache.search_ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.scraper_per_source", 5)
	v.SetDefault("ratelimit.scraper_window", "30s")

	// Search defaults
	v.SetDefault("search.default_location", "Jakarta")
	v.SetDefault("search.max_products_per_source", 10)
	v.SetDefault("search.max_stored_results", 50)
	v.SetDefault("search.timeout", "15s")

	// Scoring defaults
	v.SetDefault("scoring.weights.price", domain.DefaultWeights.Price)
	v.SetDefault("scoring.weights.shipping", domain.DefaultWeights.Shipping)
	v.SetDefault("scoring.weights.sold_count", domain.DefaultWeights.SoldCount)
	v.SetDefault("scoring.weights.rating", domain.DefaultWeights.Rating)

	// Shipping defaults
	v.SetDefault("shipping.distance_table_path", "")
	v.SetDefault("shipping.base_cost", 10000)
	v.SetDefault("shipping.per_km_rate", 15)
	v.SetDefault("shipping.per_extra_kg_rate", 2000)
	v.SetDefault("shipping.default_distance", 500)
	v.SetDefault("shipping.round_to", 500)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.NLU.Provider {
	case "none":
	case "anthropic":
		if config.NLU.APIKey == "" {
			return eris.New("nlu api key is required for provider 'anthropic' (set SCRAPEDGIT_NLU_API_KEY)")
		}
	default:
		return eris.Errorf("nlu provider must be 'none' or 'anthropic', got: %s", config.NLU.Provider)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return eris.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return eris.New("redis url is required when cache type is 'redis'")
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return eris.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	if err := usecase.ValidateWeights(config.Scoring.Weights); err != nil {
		return err
	}

	return nil
}

// InitLogger builds the global zap logger from LogConfig
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
