package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RMB_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, time.Duration(cfg.Auth.SessionTTL))
	assert.Equal(t, time.Hour, time.Duration(cfg.Auth.ResetTTL))
	assert.Equal(t, "memory", cfg.Auth.ReplayBackend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Auth.PasswordCandidates)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RMB_JWT_SECRET", "test-secret")
	t.Setenv("RMB_PORT", "9001")
	t.Setenv("RMB_DB_DRIVER", "postgres")
	t.Setenv("RMB_DB_DSN", "postgres://localhost/users")
	t.Setenv("RMB_SESSION_TTL", "2h")
	t.Setenv("RMB_PASSWORD_CANDIDATES", "alpha, beta ,gamma")
	t.Setenv("RMB_REPLAY_BACKEND", "redis")
	t.Setenv("RMB_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, time.Duration(cfg.Auth.SessionTTL))
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.Auth.PasswordCandidates)
	assert.Equal(t, "redis", cfg.Auth.ReplayBackend)
}

func TestLoadYAMLFileWithEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	file := `
server:
  port: "9100"
database:
  driver: postgres
  dsn: postgres://db.internal/users
auth:
  jwt_secret: from-file
  session_ttl: 8h
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(file), 0o600))

	t.Setenv("RMB_CONFIG_FILE", path)
	t.Setenv("RMB_PORT", "9200") // env beats file

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9200", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 8*time.Hour, time.Duration(cfg.Auth.SessionTTL))
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Auth.JWTSecret = "s"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT secret is required"},
		{"bad port", func(c *Config) { c.Server.Port = "http" }, "invalid server port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "invalid database driver"},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, "database DSN is required"},
		{"bad replay backend", func(c *Config) { c.Auth.ReplayBackend = "memcached" }, "invalid replay backend"},
		{"redis without url", func(c *Config) { c.Auth.ReplayBackend = "redis" }, "redis URL is required"},
		{"zero session ttl", func(c *Config) { c.Auth.SessionTTL = 0 }, "session TTL must be positive"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestLoadRejectsMissingConfigFile(t *testing.T) {
	t.Setenv("RMB_JWT_SECRET", "s")
	t.Setenv("RMB_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}
