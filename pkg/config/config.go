package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML duration
// strings like "15s" or "24h"
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Auth configuration
	Auth AuthConfig `yaml:"auth"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            string   `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// Addr returns the host:port the server listens on
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// DatabaseConfig holds database configuration. Driver selects between
// the embedded sqlite3 database and an external postgres server.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AuthConfig holds authentication and session configuration
type AuthConfig struct {
	// JWTSecret signs session and password-reset tokens. Required;
	// there is no default.
	JWTSecret string `yaml:"jwt_secret"`

	SessionTTL Duration `yaml:"session_ttl"`
	ResetTTL   Duration `yaml:"reset_ttl"`

	// PasswordCandidates are the plaintext candidates checked against a
	// frontend pre-hash during login. Empty means the built-in list.
	PasswordCandidates []string `yaml:"password_candidates"`

	// ReplayBackend selects the anti-replay nonce store: memory or redis
	ReplayBackend string `yaml:"replay_backend"`
	RedisURL      string `yaml:"redis_url"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Load builds the configuration. When RMB_CONFIG_FILE is set the YAML
// file is read first, then environment variables override its values.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("RMB_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(15 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(30 * time.Second),
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "file:users.db?_fk=1",
		},
		Auth: AuthConfig{
			SessionTTL:    Duration(24 * time.Hour),
			ResetTTL:      Duration(time.Hour),
			ReplayBackend: "memory",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	c.Server.Host = getEnv("RMB_HOST", c.Server.Host)
	c.Server.Port = getEnv("RMB_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("RMB_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("RMB_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("RMB_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("RMB_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.Driver = getEnv("RMB_DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("RMB_DB_DSN", c.Database.DSN)

	c.Auth.JWTSecret = getEnv("RMB_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.SessionTTL = getEnvDuration("RMB_SESSION_TTL", c.Auth.SessionTTL)
	c.Auth.ResetTTL = getEnvDuration("RMB_RESET_TTL", c.Auth.ResetTTL)
	if candidates := os.Getenv("RMB_PASSWORD_CANDIDATES"); candidates != "" {
		c.Auth.PasswordCandidates = splitAndTrim(candidates)
	}
	c.Auth.ReplayBackend = getEnv("RMB_REPLAY_BACKEND", c.Auth.ReplayBackend)
	c.Auth.RedisURL = getEnv("RMB_REDIS_URL", c.Auth.RedisURL)

	c.Log.Level = getEnv("RMB_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("RMB_LOG_FORMAT", c.Log.Format)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite3 or postgres)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required (set RMB_JWT_SECRET)")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Auth.ResetTTL <= 0 {
		return fmt.Errorf("reset TTL must be positive")
	}

	switch c.Auth.ReplayBackend {
	case "memory":
	case "redis":
		if c.Auth.RedisURL == "" {
			return fmt.Errorf("redis URL is required for the redis replay backend")
		}
	default:
		return fmt.Errorf("invalid replay backend: %s (must be memory or redis)", c.Auth.ReplayBackend)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}

	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue Duration) Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return Duration(duration)
		}
	}
	return defaultValue
}
