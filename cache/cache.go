package cache

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// ErrNilStore is returned by New when no backend store is given.
var ErrNilStore = errors.New("cache: store is required")

// Cache is the façade services talk to. It encodes values, maintains the relation
// index and hides backend failures: a failed read is a miss and a failed write or
// invalidation is logged and dropped, so the storage engine stays the source of truth.
type Cache struct {
	store  Store
	codec  Codec
	logger zerolog.Logger

	mu       sync.RWMutex
	variants map[string][][]string
}

// Option configures a Cache.
type Option func(*Cache)

// WithCodec overrides the default JSON codec.
func WithCodec(codec Codec) Option {
	return func(c *Cache) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithLogger sets the logger used for degraded cache operations.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New wraps a backend store.
func New(store Store, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	c := &Cache{
		store:    store,
		codec:    JSONCodec{},
		logger:   zerolog.Nop(),
		variants: make(map[string][][]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Store exposes the backend, mostly for health checks and tests.
func (c *Cache) Store() Store {
	return c.store
}

// Get fetches and decodes a single cached value. Misses, backend errors and
// undecodable payloads all report found=false.
func Get[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var out T
	if !c.load(ctx, key, &out) {
		var zero T
		return zero, false
	}
	return out, true
}

// GetAll fetches a cached list value with the same miss semantics as Get.
// A cached empty list is a hit and returns a non-nil empty slice.
func GetAll[T any](ctx context.Context, c *Cache, key string) ([]T, bool) {
	var out []T
	if !c.load(ctx, key, &out) {
		return nil, false
	}
	if out == nil {
		out = []T{}
	}
	return out, true
}

// GetOrFetch reads key and falls back to fetchFn on a miss, storing the fetched value.
// fetched reports whether fetchFn ran, so callers can register the key in the relation index.
// Concurrent misses may both call fetchFn; the last writer wins.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, fetchFn FetchFn[T]) (value T, fetched bool, err error) {
	if cached, ok := Get[T](ctx, c, key); ok {
		return cached, false, nil
	}
	value, err = fetchFn(ctx)
	if err != nil {
		var zero T
		return zero, true, err
	}
	c.Set(ctx, key, value)
	return value, true, nil
}

func (c *Cache) load(ctx context.Context, key string, dest any) bool {
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		return false
	}
	if !found {
		return false
	}
	if err := c.codec.Unmarshal(raw, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Str("codec", c.codec.Name()).Msg("cache payload undecodable, treating as miss")
		return false
	}
	return true
}

// Set encodes and stores value with no expiry. Slices are stored whole, so list
// results use the same call.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	raw, err := c.codec.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// SAdd appends cache keys to the named set.
func (c *Cache) SAdd(ctx context.Context, setKey string, cacheKeys ...string) {
	if len(cacheKeys) == 0 {
		return
	}
	if err := c.store.SAdd(ctx, setKey, cacheKeys...); err != nil {
		c.logger.Warn().Err(err).Str("set", setKey).Msg("cache relation index write failed")
	}
}

// Del removes keys.
func (c *Cache) Del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("cache delete failed")
	}
}

// DelByPattern removes every key matching a glob pattern.
func (c *Cache) DelByPattern(ctx context.Context, pattern string) {
	if err := c.store.DeleteByPattern(ctx, pattern); err != nil {
		c.logger.Warn().Err(err).Str("pattern", pattern).Msg("cache pattern delete failed")
	}
}

// RegisterVariants declares the variant segments single-entity keys of a
// namespace may carry. RemoveRelations deletes those keys by name, so no
// keyspace scan is needed per relation.
func (c *Cache) RegisterVariants(name string, variants ...[]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range variants {
		if len(v) == 0 || c.hasVariant(name, v) {
			continue
		}
		c.variants[name] = append(c.variants[name], append([]string(nil), v...))
	}
}

func (c *Cache) hasVariant(name string, v []string) bool {
	for _, known := range c.variants[name] {
		if slices.Equal(known, v) {
			return true
		}
	}
	return false
}

// EntityKeys returns "{name}:id:{id}" and its registered variants.
func (c *Cache) EntityKeys(name, id string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.variants[name])+1)
	keys = append(keys, EntityKey(name, id))
	for _, v := range c.variants[name] {
		keys = append(keys, EntityKey(name, id, v...))
	}
	return keys
}

// RemoveRelations drops every cache key registered in "{name}:{id}:queries",
// then the set itself and the entity's own keys in every registered variant.
func (c *Cache) RemoveRelations(ctx context.Context, id, name string) {
	setKey := QuerySetKey(name, id)
	members, err := c.store.SMembers(ctx, setKey)
	if err != nil {
		c.logger.Warn().Err(err).Str("set", setKey).Msg("cache relation index read failed")
	}
	keys := append(members, setKey)
	keys = append(keys, c.EntityKeys(name, id)...)
	c.Del(ctx, keys...)
}

// Flush clears the whole keyspace.
func (c *Cache) Flush(ctx context.Context) {
	c.DelByPattern(ctx, "*")
}
