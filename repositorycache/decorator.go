package repositorycache

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-poetry-cache/cache"
	"github.com/goliatone/go-poetry-cache/model"
	"github.com/goliatone/go-poetry-cache/storage"
)

// Relation points at another cached entity whose relation set must be dropped
// when a row changes, usually a parent such as a poem's author.
type Relation struct {
	Name string
	ID   uuid.UUID
}

// Options configure an EntityCache.
type Options[T model.Entity] struct {
	// Name is the cache namespace. Defaults to the pluralised snake_case type name.
	Name string
	// Relations lists the entities a row depends on. Creating, updating or
	// removing the row drops their relation sets.
	Relations func(T) []Relation
	// Variant is appended to single-entity keys written by Get and Prime, and
	// Shape is applied to the row before it is cached. Together they keep
	// sensitive columns out of the default key.
	Variant []string
	Shape   func(T) T
	// Variants lists every other variant GetVariant is called with. Invalidation
	// deletes single-entity keys by name, so an unlisted variant outlives it
	// unless a read registered it in the relation set.
	Variants [][]string

	KeySerializer cache.KeySerializer
	Logger        *zerolog.Logger
}

// EntityCache decorates one storage repository with read-through caching and
// relation-based invalidation. It holds no per-request state.
type EntityCache[T model.Entity, F any] struct {
	name      string
	repo      storage.Repository[T, F]
	cache     *cache.Cache
	keys      cache.KeySerializer
	relations func(T) []Relation
	variant   []string
	shape     func(T) T
	logger    zerolog.Logger
}

// New wraps repo.
func New[T model.Entity, F any](repo storage.Repository[T, F], c *cache.Cache, opts Options[T]) *EntityCache[T, F] {
	e := &EntityCache[T, F]{
		name:      opts.Name,
		repo:      repo,
		cache:     c,
		keys:      opts.KeySerializer,
		relations: opts.Relations,
		variant:   opts.Variant,
		shape:     opts.Shape,
		logger:    zerolog.Nop(),
	}
	if e.name == "" {
		e.name = namespaceFor[T]()
	}
	if e.keys == nil {
		e.keys = cache.NewDefaultKeySerializer()
	}
	if e.relations == nil {
		e.relations = func(T) []Relation { return nil }
	}
	if e.shape == nil {
		e.shape = func(v T) T { return v }
	}
	if opts.Logger != nil {
		e.logger = opts.Logger.With().Str("entity", e.name).Logger()
	}
	c.RegisterVariants(e.name, append([][]string{e.variant}, opts.Variants...)...)
	return e
}

// Name returns the cache namespace.
func (e *EntityCache[T, F]) Name() string { return e.name }

// Repository returns the wrapped storage repository.
func (e *EntityCache[T, F]) Repository() storage.Repository[T, F] { return e.repo }

// Relation returns a Relation naming id in this namespace.
func (e *EntityCache[T, F]) Relation(id uuid.UUID) Relation {
	return Relation{Name: e.name, ID: id}
}

// Key returns the single-entity key of id with the given variant segments.
func (e *EntityCache[T, F]) Key(id uuid.UUID, variant ...string) string {
	return cache.EntityKey(e.name, id.String(), variant...)
}

// Get reads one row through the default variant.
func (e *EntityCache[T, F]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	return e.GetVariant(ctx, id, e.shape, e.variant...)
}

// GetVariant reads one row under the key variant and caches shape(row). Each
// variant is a distinct key, so differently shaped values never share an entry.
func (e *EntityCache[T, F]) GetVariant(ctx context.Context, id uuid.UUID, shape func(T) T, variant ...string) (T, error) {
	if shape == nil {
		shape = func(v T) T { return v }
	}
	return e.Lookup(ctx, e.Key(id, variant...), func(ctx context.Context) (T, error) {
		row, err := e.repo.FindUnique(ctx, id)
		if err != nil {
			return row, err
		}
		return shape(row), nil
	})
}

// Lookup caches the result of fetch under key and registers key in the
// returned row's relation set. Lookups by unique columns go through here.
func (e *EntityCache[T, F]) Lookup(ctx context.Context, key string, fetch cache.FetchFn[T]) (T, error) {
	value, fetched, err := cache.GetOrFetch(ctx, e.cache, key, fetch)
	if err != nil {
		var zero T
		return zero, err
	}
	if fetched {
		e.cache.SAdd(ctx, cache.QuerySetKey(e.name, value.GetID().String()), key)
		e.registerTags(ctx, key)
	}
	return value, nil
}

// List runs a filtered list read. The key encodes the whole query, and on a miss
// it is registered against every returned row and every tag on ctx. Rows go
// through the default Shape.
func (e *EntityCache[T, F]) List(ctx context.Context, q storage.FindManyQuery[F]) ([]T, error) {
	key := e.keys.SerializeKey(cache.ListMethod(e.name), q.Filter, q.After, q.Take, q.Direction)

	if rows, ok := cache.GetAll[T](ctx, e.cache, key); ok {
		return rows, nil
	}

	rows, err := e.repo.FindMany(ctx, q)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	for i := range rows {
		rows[i] = e.shape(rows[i])
	}

	e.cache.Set(ctx, key, rows)
	for _, row := range rows {
		e.cache.SAdd(ctx, cache.QuerySetKey(e.name, row.GetID().String()), key)
	}
	e.registerTags(ctx, key)

	return rows, nil
}

// Count runs a cached count. Attach the entity the count describes with
// WithCacheTags so its mutations invalidate the result.
func (e *EntityCache[T, F]) Count(ctx context.Context, filter F) (int, error) {
	key := e.keys.SerializeKey(cache.CountMethod(e.name), filter)
	n, fetched, err := cache.GetOrFetch(ctx, e.cache, key, func(ctx context.Context) (int, error) {
		return e.repo.Count(ctx, filter)
	})
	if err != nil {
		return 0, err
	}
	if fetched {
		e.registerTags(ctx, key)
	}
	return n, nil
}

// Connection pages through the filtered list in forward order.
func (e *EntityCache[T, F]) Connection(ctx context.Context, filter F, args PageArgs) (Connection[T], error) {
	fetch := func(ctx context.Context, after *uuid.UUID, take int) ([]T, error) {
		return e.List(ctx, storage.FindManyQuery[F]{
			Filter:    filter,
			After:     after,
			Take:      take,
			Direction: storage.Descending,
		})
	}
	probe := func(ctx context.Context, id uuid.UUID) (bool, error) {
		rows, err := e.List(ctx, storage.FindManyQuery[F]{
			Filter:    filter,
			After:     &id,
			Take:      1,
			Direction: storage.Ascending,
		})
		return len(rows) > 0, err
	}
	return Paginate(ctx, args, fetch, probe)
}

// Create inserts rec, drops list and count results, drops the relation sets
// of the entities rec depends on, then primes the new row.
func (e *EntityCache[T, F]) Create(ctx context.Context, rec T) (T, error) {
	created, err := e.repo.Create(ctx, rec)
	if err != nil {
		return created, err
	}

	e.InvalidateQueries(ctx)
	e.Invalidate(ctx, e.relations(created)...)
	e.Prime(ctx, created)

	return created, nil
}

// Update writes next, drops every cache entry depending on the row, on the
// entities either version of it depends on, and on dependents, then primes
// the fresh row.
func (e *EntityCache[T, F]) Update(ctx context.Context, previous, next T, dependents ...Relation) (T, error) {
	updated, err := e.repo.Update(ctx, next)
	if err != nil {
		return updated, err
	}

	rels := []Relation{e.Relation(updated.GetID())}
	rels = append(rels, e.relations(previous)...)
	rels = append(rels, e.relations(updated)...)
	rels = append(rels, dependents...)

	e.InvalidateQueries(ctx)
	e.Invalidate(ctx, rels...)
	e.Prime(ctx, updated)

	return updated, nil
}

// Remove deletes the row and drops every cache entry depending on it, on the
// entities it depended on, and on dependents. Nothing is reprimed.
func (e *EntityCache[T, F]) Remove(ctx context.Context, id uuid.UUID, dependents ...Relation) (T, error) {
	deleted, err := e.repo.Delete(ctx, id)
	if err != nil {
		return deleted, err
	}

	rels := []Relation{e.Relation(id)}
	rels = append(rels, e.relations(deleted)...)
	rels = append(rels, dependents...)

	e.InvalidateQueries(ctx)
	e.Invalidate(ctx, rels...)

	return deleted, nil
}

// Prime writes rec under the default variant key.
func (e *EntityCache[T, F]) Prime(ctx context.Context, rec T) {
	key := e.Key(rec.GetID(), e.variant...)
	e.cache.Set(ctx, key, e.shape(rec))
	e.cache.SAdd(ctx, cache.QuerySetKey(e.name, rec.GetID().String()), key)
}

// Invalidate drops the relation sets of rels, each once.
func (e *EntityCache[T, F]) Invalidate(ctx context.Context, rels ...Relation) {
	seen := make(map[Relation]struct{}, len(rels))
	for _, rel := range rels {
		if rel.ID == uuid.Nil || rel.Name == "" {
			continue
		}
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		e.cache.RemoveRelations(ctx, rel.ID.String(), rel.Name)
	}
	if len(seen) > 0 {
		e.logger.Debug().Int("relations", len(seen)).Msg("cache relations invalidated")
	}
}

// InvalidateIDs drops the relation sets of rows in this namespace.
func (e *EntityCache[T, F]) InvalidateIDs(ctx context.Context, ids ...uuid.UUID) {
	rels := make([]Relation, len(ids))
	for i, id := range ids {
		rels[i] = e.Relation(id)
	}
	e.Invalidate(ctx, rels...)
}

// InvalidateQueries drops every cached list and count of the namespace; their
// key space is too large to track per row.
func (e *EntityCache[T, F]) InvalidateQueries(ctx context.Context) {
	e.cache.DelByPattern(ctx, cache.ListPattern(e.name))
	e.cache.DelByPattern(ctx, cache.CountPattern(e.name))
}

func (e *EntityCache[T, F]) registerTags(ctx context.Context, key string) {
	for _, tag := range cacheTagsFromContext(ctx) {
		e.cache.SAdd(ctx, tag, key)
	}
}
