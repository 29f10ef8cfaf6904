package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrAPIKeyRequired is returned by Validate when no TMDB token is configured.
var ErrAPIKeyRequired = errors.New("TMDB_API_KEY is required")

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	TMDB      TMDBConfig      `mapstructure:"tmdb"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Client    ClientConfig    `mapstructure:"client"`
	Favorites FavoritesConfig `mapstructure:"favorites"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Prefix string `mapstructure:"prefix"`
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

// TMDBConfig holds settings for the upstream movie metadata provider.
type TMDBConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout int           `mapstructure:"timeout"` // seconds
	Breaker BreakerConfig `mapstructure:"breaker"`

	// RequestsPerSecond paces outgoing calls below the provider's limit. 0 disables pacing.
	RequestsPerSecond int `mapstructure:"requests_per_second"`
}

// BreakerConfig controls the circuit breaker around provider calls.
type BreakerConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Failures int  `mapstructure:"failures"` // consecutive failures before opening
	Cooldown int  `mapstructure:"cooldown"` // seconds spent open before probing
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	FrontendURL    string   `mapstructure:"frontend_url"`
	OriginPatterns []string `mapstructure:"origin_patterns"`
}

// RateLimitConfig holds the fixed-window limiter settings.
type RateLimitConfig struct {
	TTL int `mapstructure:"ttl"` // window length in seconds
	Max int `mapstructure:"max"` // requests allowed per window
}

// ClientConfig holds settings for the CLI client commands.
type ClientConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"`
	DebounceMS int    `mapstructure:"debounce_ms"`
	CacheTTL   int    `mapstructure:"cache_ttl"`
}

// FavoritesConfig selects the favorites backend. An empty path keeps favorites in memory.
type FavoritesConfig struct {
	Path string `mapstructure:"path"`
}

// DefaultOriginPatterns are origins accepted in addition to the configured frontend URL.
var DefaultOriginPatterns = []string{
	`^https?://localhost(:\d+)?$`,
	`^https?://127\.0\.0\.1(:\d+)?$`,
	`^https://[a-z0-9-]+\.vercel\.app$`,
	`^https://[a-z0-9-]+\.netlify\.app$`,
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:   "0.0.0.0",
			Port:   3000,
			Prefix: "/api",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Compress: true,
		},
		TMDB: TMDBConfig{
			APIKey:  EmbeddedTMDBKey,
			BaseURL: "https://api.themoviedb.org/3",
			Timeout: 10,
			Breaker: BreakerConfig{
				Enabled:  true,
				Failures: 5,
				Cooldown: 30,
			},
			RequestsPerSecond: 40,
		},
		CORS: CORSConfig{
			FrontendURL:    "http://localhost:3001",
			OriginPatterns: append([]string(nil), DefaultOriginPatterns...),
		},
		RateLimit: RateLimitConfig{
			TTL: 60,
			Max: 100,
		},
		Client: ClientConfig{
			BaseURL:    "http://localhost:3000/api",
			Timeout:    10,
			DebounceMS: 500,
			CacheTTL:   60,
		},
	}
}

// Load reads configuration from a .env file, the config file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.marquee")
	}

	v.SetEnvPrefix("MARQUEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// bindLegacyEnv maps the unprefixed variable names used by existing deployments.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"tmdb.api_key":      "TMDB_API_KEY",
		"tmdb.base_url":     "TMDB_BASE_URL",
		"cors.frontend_url": "FRONTEND_URL",
		"server.port":       "PORT",
		"ratelimit.ttl":     "RATE_LIMIT_TTL",
		"ratelimit.max":     "RATE_LIMIT_MAX",
	}
	for key, env := range bindings {
		prefixed := "MARQUEE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.prefix", d.Server.Prefix)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("tmdb.api_key", d.TMDB.APIKey)
	v.SetDefault("tmdb.base_url", d.TMDB.BaseURL)
	v.SetDefault("tmdb.timeout", d.TMDB.Timeout)
	v.SetDefault("tmdb.breaker.enabled", d.TMDB.Breaker.Enabled)
	v.SetDefault("tmdb.breaker.failures", d.TMDB.Breaker.Failures)
	v.SetDefault("tmdb.breaker.cooldown", d.TMDB.Breaker.Cooldown)
	v.SetDefault("tmdb.requests_per_second", d.TMDB.RequestsPerSecond)

	v.SetDefault("cors.frontend_url", d.CORS.FrontendURL)
	v.SetDefault("cors.origin_patterns", d.CORS.OriginPatterns)

	v.SetDefault("ratelimit.ttl", d.RateLimit.TTL)
	v.SetDefault("ratelimit.max", d.RateLimit.Max)

	v.SetDefault("client.base_url", d.Client.BaseURL)
	v.SetDefault("client.timeout", d.Client.Timeout)
	v.SetDefault("client.debounce_ms", d.Client.DebounceMS)
	v.SetDefault("client.cache_ttl", d.Client.CacheTTL)

	v.SetDefault("favorites.path", d.Favorites.Path)
}

// Validate checks settings required to serve the proxy API.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		return ErrAPIKeyRequired
	}
	if c.RateLimit.TTL <= 0 || c.RateLimit.Max <= 0 {
		return fmt.Errorf("invalid rate limit: ttl=%d max=%d", c.RateLimit.TTL, c.RateLimit.Max)
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Window returns the rate limit window as a duration.
func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// TimeoutDuration returns the upstream timeout as a duration.
func (c *TMDBConfig) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// Debounce returns the search debounce interval.
func (c *ClientConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
