// Package config loads application configuration and initializes logging.
package config

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Landmark LandmarkConfig `yaml:"landmark" mapstructure:"landmark"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Catalog  CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SearchConfig configures the place-search upstream.
type SearchConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent        string  `yaml:"user_agent" mapstructure:"user_agent"`
	Language         string  `yaml:"language" mapstructure:"language"`
	ResultLimit      int     `yaml:"result_limit" mapstructure:"result_limit"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	CacheEntries     int     `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLMins     int     `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// LandmarkConfig configures classification.
type LandmarkConfig struct {
	Region   string `yaml:"region" mapstructure:"region"`
	MaxItems int    `yaml:"max_items" mapstructure:"max_items"`
}

// ReportConfig configures report assembly.
type ReportConfig struct {
	// Mode is "live" (search with static fallback) or "static" (never search).
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// CatalogConfig configures the sector catalog.
type CatalogConfig struct {
	// Path to a YAML catalog. Empty uses the embedded catalog.
	Path           string `yaml:"path" mapstructure:"path"`
	PrefixFallback bool   `yaml:"prefix_fallback" mapstructure:"prefix_fallback"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LOCALITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("search.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("search.user_agent", "locality-intel/1.0")
	v.SetDefault("search.language", "en")
	v.SetDefault("search.result_limit", 30)
	v.SetDefault("search.timeout_secs", 10)
	v.SetDefault("search.rate_limit", 1.0)
	v.SetDefault("search.cache_entries", 256)
	v.SetDefault("search.cache_ttl_mins", 30)
	v.SetDefault("search.breaker_threshold", 3)
	v.SetDefault("search.breaker_reset_secs", 60)
	v.SetDefault("landmark.region", "Noida, Uttar Pradesh")
	v.SetDefault("landmark.max_items", 10)
	v.SetDefault("report.mode", "live")
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.prefix_fallback", false)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the values every command depends on.
func (c *Config) Validate() error {
	var problems []string

	if u, err := url.Parse(c.Search.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "search.base_url must be an absolute URL")
	}
	if c.Search.ResultLimit <= 0 {
		problems = append(problems, "search.result_limit must be positive")
	}
	if c.Search.RateLimit <= 0 {
		problems = append(problems, "search.rate_limit must be positive")
	}
	if c.Landmark.MaxItems <= 0 {
		problems = append(problems, "landmark.max_items must be positive")
	}
	switch strings.ToLower(c.Report.Mode) {
	case "", "live", "static":
	default:
		problems = append(problems, "report.mode must be live or static")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port out of range")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
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
