package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/servicemap/pkg/errors"
)

// EnvPrefix prefixes every environment variable read through viper.
const EnvPrefix = "SERVICEMAP"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheLRU    = "lru"
	CacheRedis  = "redis"
)

// CatalogAConfig locates the company catalog: a PostgreSQL DSN or a YAML file.
type CatalogAConfig struct {
	DSN  string
	File string
}

// CatalogBConfig locates the worker catalog: a SQLite database or a YAML file.
type CatalogBConfig struct {
	Path string
	File string
}

// CacheConfig selects the response cache used by the HTTP server.
type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	Size          int
	Prefix        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Catalog sources
	CatalogA CatalogAConfig
	CatalogB CatalogBConfig
	RowCap   int

	// Search behaviour
	GatewayTimeout time.Duration
	DefaultLimit   int
	Threshold      float64
	TieBreak       string
	Fallback       bool

	// Intent analysis
	GeminiAPIKey string
	GeminiModel  string

	Cache CacheConfig

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (SERVICEMAP_CATALOG_A_DSN, ...)
// 3. .env files
// 4. Config file (path, or ~/.servicemap.yaml, or ./.servicemap.yaml)
// 5. Defaults
func LoadConfig(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Provider API keys are commonly exported without the prefix.
	_ = v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapIO("read", path, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".servicemap")
		// A missing default config file is fine.
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		CatalogA: CatalogAConfig{
			DSN:  v.GetString("catalog_a.dsn"),
			File: v.GetString("catalog_a.file"),
		},
		CatalogB: CatalogBConfig{
			Path: v.GetString("catalog_b.path"),
			File: v.GetString("catalog_b.file"),
		},
		RowCap: v.GetInt("row_cap"),

		GatewayTimeout: v.GetDuration("gateway_timeout"),
		DefaultLimit:   v.GetInt("default_limit"),
		Threshold:      v.GetFloat64("threshold"),
		TieBreak:       v.GetString("tie_break"),
		Fallback:       v.GetBool("fallback"),

		GeminiAPIKey: v.GetString("gemini.api_key"),
		GeminiModel:  v.GetString("gemini.model"),

		Cache: CacheConfig{
			Backend:       strings.ToLower(v.GetString("cache.backend")),
			TTL:           v.GetDuration("cache.ttl"),
			Size:          v.GetInt("cache.size"),
			Prefix:        v.GetString("cache.prefix"),
			RedisAddr:     v.GetString("cache.redis.addr"),
			RedisPassword: v.GetString("cache.redis.password"),
			RedisDB:       v.GetInt("cache.redis.db"),
		},

		// LogLevel stays empty unless set so -v/-q can apply.
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gateway_timeout", 5*time.Second)
	v.SetDefault("fallback", true)
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.size", 1024)
	v.SetDefault("cache.prefix", "servicemap:")
	v.SetDefault("cache.redis.addr", "localhost:6379")
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheLRU, CacheRedis:
	default:
		return errors.NewValidationError("cache.backend", c.Cache.Backend, "expected memory, lru or redis")
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.NewValidationError("threshold", c.Threshold, "must be between 0 and 1")
	}
	if c.GatewayTimeout < 0 {
		return errors.NewValidationError("gateway_timeout", c.GatewayTimeout, "must not be negative")
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	envFiles := []string{
		".env.local",
		".env",
	}
	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
