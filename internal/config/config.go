package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultConfigFile is read when present and no --config is given.
	DefaultConfigFile = "apimongodb.yaml"

	// EnvPrefix selects the environment variables that override the file.
	EnvPrefix = "APIMONGO_"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	Documents DocumentsConfig `koanf:"documents"`
	Query     QueryConfig     `koanf:"query"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Auth      AuthConfig      `koanf:"auth"`
	Health    HealthConfig    `koanf:"health"`

	Idempotency IdempotencyConfig `koanf:"idempotency"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Env             string        `koanf:"env"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DatabaseConfig holds connection settings. URI is optional; without it the
// server starts disconnected.
type DatabaseConfig struct {
	URI                    string        `koanf:"uri"`
	ConnectTimeout         time.Duration `koanf:"connect_timeout"`
	SavedQueriesCollection string        `koanf:"saved_queries_collection"`
}

// DocumentsConfig holds pagination limits
type DocumentsConfig struct {
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
}

// QueryConfig holds query execution limits
type QueryConfig struct {
	MaxResults int `koanf:"max_results"`
}

// RateLimitConfig holds per-client rate limiting settings
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// AuthConfig holds optional basic auth credentials
type AuthConfig struct {
	Username     string `koanf:"username"`
	PasswordHash string `koanf:"password_hash"`
}

// HealthConfig holds the connection health monitor settings
type HealthConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// IdempotencyConfig controls replay of POST requests carrying an
// Idempotency-Key header. A zero TTL disables it.
type IdempotencyConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.port":                       8080,
		"server.env":                        "development",
		"server.read_timeout":               "15s",
		"server.write_timeout":              "30s",
		"server.shutdown_timeout":           "10s",
		"server.allowed_origins":            []string{"http://localhost:8081"},
		"log.level":                         "info",
		"log.format":                        "json",
		"database.uri":                      "",
		"database.connect_timeout":          "10s",
		"database.saved_queries_collection": "saved_queries",
		"documents.default_limit":           20,
		"documents.max_limit":               1000,
		"query.max_results":                 100,
		"ratelimit.enabled":                 false,
		"ratelimit.rps":                     20.0,
		"ratelimit.burst":                   40,
		"auth.username":                     "admin",
		"auth.password_hash":                "",
		"health.interval":                   "30s",
		"idempotency.ttl":                   "10m",
	}
}

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"port":         "server.port",
	"env":          "server.env",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"database-uri": "database.uri",
}

// Load reads configuration from defaults, an optional YAML file, APIMONGO_
// environment variables and explicitly set flags, in increasing precedence.
// An explicit cfgFile must exist; the default file is optional.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Environment: APIMONGO_SERVER_READ_TIMEOUT -> server.read_timeout
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	return unmarshal(k)
}

// Default returns the built-in configuration without reading any file,
// environment variable or flag.
func Default() *Config {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	cfg, err := unmarshal(k)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// envKey turns an environment variable into a configuration key. The first
// underscore separates the section; list values are comma separated.
func envKey(name, value string) (string, interface{}) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return "", nil
	}
	key = section + "." + field
	if key == "server.allowed_origins" {
		return key, splitList(value)
	}
	return key, value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// AuthEnabled reports whether basic auth guards the API
func (c *Config) AuthEnabled() bool {
	return c.Auth.PasswordHash != ""
}

// SlogLevel returns the configured log level
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks that all configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("server.env must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("server.allowed_origins must have at least one origin"))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}

	// Log validation
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got '%s'", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be 'json' or 'text', got '%s'", c.Log.Format))
	}

	// Database validation
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("database.connect_timeout must be positive"))
	}
	if strings.TrimSpace(c.Database.SavedQueriesCollection) == "" {
		errs = append(errs, errors.New("database.saved_queries_collection is required"))
	}

	// Limits
	if c.Documents.DefaultLimit <= 0 {
		errs = append(errs, errors.New("documents.default_limit must be positive"))
	}
	if c.Documents.MaxLimit < c.Documents.DefaultLimit {
		errs = append(errs, errors.New("documents.max_limit must not be below documents.default_limit"))
	}
	if c.Query.MaxResults <= 0 {
		errs = append(errs, errors.New("query.max_results must be positive"))
	}

	// Rate limit validation
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("ratelimit.rps and ratelimit.burst must be positive when ratelimit.enabled is true"))
	}

	// Auth validation
	if c.AuthEnabled() {
		if c.Auth.Username == "" {
			errs = append(errs, errors.New("auth.username is required when auth.password_hash is set"))
		}
		if _, err := bcrypt.Cost([]byte(c.Auth.PasswordHash)); err != nil {
			errs = append(errs, fmt.Errorf("auth.password_hash is not a bcrypt hash: %w", err))
		}
	}

	if c.Health.Interval < 0 {
		errs = append(errs, errors.New("health.interval must not be negative"))
	}
	if c.Idempotency.TTL < 0 {
		errs = append(errs, errors.New("idempotency.ttl must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
