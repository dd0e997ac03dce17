package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_CODEC", "msgpack")
	t.Setenv("CACHE_CAPACITY", "500")
	t.Setenv("CACHE_TTL", "1h")
	t.Setenv("CACHE_METRICS", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("DATABASE_BACKEND", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://poetry@localhost/poetry")
	t.Setenv("DATABASE_MAX_CONNS", "20")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "msgpack", cfg.Cache.Codec)
	assert.Equal(t, 500, cfg.Cache.Capacity)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.Metrics)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.Equal(t, DatabasePostgres, cfg.Database.Backend)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_BadValues(t *testing.T) {
	t.Setenv("CACHE_CAPACITY", "lots")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "CACHE_CAPACITY")

	t.Setenv("CACHE_CAPACITY", "")
	t.Setenv("CACHE_TTL", "forever")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "CACHE_TTL")
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"postgres without dsn": func(c *Config) { c.Database.Backend = DatabasePostgres },
		"unknown database":     func(c *Config) { c.Database.Backend = "sqlite" },
		"unknown cache":        func(c *Config) { c.Cache.Backend = "memcached" },
		"redis without addr": func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.Redis.Addr = ""
		},
		"min above max": func(c *Config) { c.Database.MinConns = 50 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_BACKEND=postgres\nDATABASE_DSN=postgres://from-file\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_BACKEND")
		os.Unsetenv("DATABASE_DSN")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-file", cfg.Database.DSN)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err, "a missing .env file is not an error")
}
