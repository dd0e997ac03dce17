package di

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-poetry-cache/cache"
	"github.com/goliatone/go-poetry-cache/internal/config"
	"github.com/goliatone/go-poetry-cache/pkg/logger"
	"github.com/goliatone/go-poetry-cache/service"
	"github.com/goliatone/go-poetry-cache/storage"
	"github.com/goliatone/go-poetry-cache/storage/bunstore"
	"github.com/goliatone/go-poetry-cache/storage/memory"
)

// MetricsNamespace prefixes the cache counters when metrics are enabled.
const MetricsNamespace = "poetry"

// Container owns the process-wide singletons: the cache store and façade, the
// storage engine and the entity services built on both.
type Container struct {
	config   config.Config
	logger   zerolog.Logger
	store    cache.Store
	cache    *cache.Cache
	engine   storage.Engine
	services *service.Services
}

// Option customizes container construction.
type Option func(*options)

type options struct {
	logger      *zerolog.Logger
	registerer  prometheus.Registerer
	engine      storage.Engine
	serviceOpts []service.Option
}

// WithLogger replaces the logger derived from the configuration.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithRegisterer sets where cache metrics are registered. It defaults to
// prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithEngine supplies a storage engine instead of opening the configured one.
// The container takes ownership and closes it.
func WithEngine(engine storage.Engine) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// WithServiceOptions forwards options to service.New.
func WithServiceOptions(opts ...service.Option) Option {
	return func(o *options) {
		o.serviceOpts = append(o.serviceOpts, opts...)
	}
}

// NewContainer validates cfg and wires every component. On postgres the
// schema is created if missing.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Container{config: cfg}
	if o.logger != nil {
		c.logger = *o.logger
	} else {
		c.logger = logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	}

	store, err := cache.NewStore(cfg.Cache.Config)
	if err != nil {
		return nil, fmt.Errorf("cache store: %w", err)
	}
	if cfg.Cache.Metrics {
		instrumented, err := cache.Instrument(store, MetricsNamespace, o.registerer)
		if err != nil {
			closeStore(store)
			return nil, fmt.Errorf("cache metrics: %w", err)
		}
		store = instrumented
	}
	c.store = store

	c.cache, err = cache.New(store,
		cache.WithCodec(cache.CodecByName(cfg.Cache.Codec)),
		cache.WithLogger(c.logger.With().Str("component", "cache").Logger()),
	)
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("cache: %w", err)
	}

	c.engine = o.engine
	if c.engine == nil {
		if c.engine, err = openEngine(ctx, cfg.Database); err != nil {
			closeStore(store)
			return nil, err
		}
	}

	serviceOpts := append([]service.Option{
		service.WithLogger(c.logger.With().Str("component", "service").Logger()),
	}, o.serviceOpts...)
	c.services = service.New(c.engine, c.cache, serviceOpts...)

	c.logger.Info().
		Str("cache", cfg.Cache.Backend).
		Str("codec", cfg.Cache.Codec).
		Bool("metrics", cfg.Cache.Metrics).
		Str("database", cfg.Database.Backend).
		Msg("container ready")

	return c, nil
}

// NewContainerWithDefaults builds a container from config.Default: an
// in-process cache over the in-memory engine.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return NewContainer(ctx, config.Default(), opts...)
}

func openEngine(ctx context.Context, cfg config.DatabaseConfig) (storage.Engine, error) {
	switch cfg.Backend {
	case config.DatabasePostgres:
		dbCfg := bunstore.DefaultConfig(cfg.DSN)
		dbCfg.MaxConns = int32(cfg.MaxConns)
		dbCfg.MinConns = int32(cfg.MinConns)

		engine, err := bunstore.Open(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := bunstore.CreateSchema(ctx, engine.DB()); err != nil {
			_ = engine.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
		return engine, nil
	default:
		return memory.New(), nil
	}
}

func closeStore(store cache.Store) {
	if closer, ok := store.(io.Closer); ok {
		_ = closer.Close()
	}
}

// Config returns the configuration the container was built from.
func (c *Container) Config() config.Config {
	return c.config
}

// Logger returns the root logger.
func (c *Container) Logger() zerolog.Logger {
	return c.logger
}

// Store returns the cache backend, instrumented when metrics are enabled.
func (c *Container) Store() cache.Store {
	return c.store
}

// Cache returns the cache façade shared by every service.
func (c *Container) Cache() *cache.Cache {
	return c.cache
}

// Engine returns the storage engine.
func (c *Container) Engine() storage.Engine {
	return c.engine
}

// Services returns the entity services.
func (c *Container) Services() *service.Services {
	return c.services
}

// Close releases the storage engine and the cache backend.
func (c *Container) Close() error {
	var errs []error
	if err := c.engine.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if closer, ok := c.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache: %w", err))
		}
	}
	return errors.Join(errs...)
}
