// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"

	"github.com/goliatone/go-poetry-cache/cache"
)

// Database backends.
const (
	DatabaseMemory   = "memory"
	DatabasePostgres = "postgres"
)

type Config struct {
	App      AppConfig
	Cache    CacheConfig
	Database DatabaseConfig
}

type AppConfig struct {
	Environment string // development, staging, production
	LogLevel    string
}

type CacheConfig struct {
	cache.Config
	// Metrics wraps the store with prometheus counters.
	Metrics bool
}

type DatabaseConfig struct {
	Backend  string
	DSN      string
	MaxConns int
	MinConns int
}

// Default returns the configuration used when no variable is set: an
// in-process cache over the in-memory engine.
func Default() Config {
	return Config{
		App: AppConfig{
			Environment: "development",
			LogLevel:    "info",
		},
		Cache: CacheConfig{Config: cache.DefaultConfig()},
		Database: DatabaseConfig{
			Backend:  DatabaseMemory,
			MaxConns: 10,
			MinConns: 1,
		},
	}
}

// Load reads the .env files (or ".env" when none is given) if they exist and
// then the environment. Variables that are unset keep their default.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (Config, error) {
	cfg := Default()
	p := &parser{}

	cfg.App.Environment = getEnv("APP_ENV", cfg.App.Environment)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)

	c := &cfg.Cache
	c.Backend = getEnv("CACHE_BACKEND", c.Backend)
	c.Codec = getEnv("CACHE_CODEC", c.Codec)
	c.Capacity = p.int("CACHE_CAPACITY", c.Capacity)
	c.NumShards = p.int("CACHE_SHARDS", c.NumShards)
	c.TTL = p.duration("CACHE_TTL", c.TTL)
	c.EvictionPercentage = p.int("CACHE_EVICTION_PERCENTAGE", c.EvictionPercentage)
	c.EvictionInterval = p.duration("CACHE_EVICTION_INTERVAL", c.EvictionInterval)
	c.Metrics = p.bool("CACHE_METRICS", c.Metrics)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = p.int("REDIS_DB", c.Redis.DB)

	d := &cfg.Database
	d.Backend = getEnv("DATABASE_BACKEND", d.Backend)
	d.DSN = getEnv("DATABASE_DSN", d.DSN)
	d.MaxConns = p.int("DATABASE_MAX_CONNS", d.MaxConns)
	d.MinConns = p.int("DATABASE_MIN_CONNS", d.MinConns)

	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, nil
}

// Validate checks the combination of settings.
func (c Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Backend, validation.Required, validation.In(DatabaseMemory, DatabasePostgres)),
		validation.Field(&c.Database.DSN, validation.When(c.Database.Backend == DatabasePostgres, validation.Required)),
		validation.Field(&c.Database.MaxConns, validation.Min(1)),
		validation.Field(&c.Database.MinConns, validation.Min(0), validation.Max(c.Database.MaxConns)),
	)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parser keeps the first conversion error.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("config: %s=%q: %w", key, value, err)
	}
}

func (p *parser) int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return n
}

func (p *parser) bool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return b
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return d
}
