// Package cache is the key/value and set façade the entity caches run on.
//
// # Overview
//
// The package exports:
//
//   - Store: the backend contract (get/set bytes, set add/members, delete, pattern delete)
//   - Cache: the façade that encodes values, hides backend failures and owns the relation index
//   - KeySerializer: builds stable list/count keys from a method name and query arguments
//
// Backends live in internal/cacheinfra: an in-process sturdyc store and a Redis
// store. NewStore picks one from Config.
//
// # Basic Usage
//
//	store, err := cache.NewStore(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	c, err := cache.New(store, cache.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	poem, fetched, err := cache.GetOrFetch(ctx, c, cache.EntityKey("poems", id), func(ctx context.Context) (Poem, error) {
//		return repo.FindUnique(ctx, id)
//	})
//	if fetched {
//		c.SAdd(ctx, cache.QuerySetKey("poems", id), cache.EntityKey("poems", id))
//	}
//
// # Key Layout
//
//	{name}:id:{id}[:variant]   single entity
//	{name}:list::...           list query, arguments rendered by the KeySerializer
//	{name}:count::...          count query
//	{name}:{id}:queries        relation index: every key whose value depends on id
//
// Coarse invalidation only pattern-deletes the list and count prefixes, so the
// relation sets survive it. RemoveRelations resolves one set and drops exactly
// the keys it names, plus the entity's own key in every variant declared with
// RegisterVariants.
//
// # Failure Semantics
//
// Values never expire on their own. A failed or undecodable read is a miss and is
// logged at debug level. A failed write or invalidation is logged at warn level and
// dropped: the storage engine stays the source of truth and a stale entry is
// recoverable, a lost database write is not.
//
// # Key Serialization
//
// The default serializer renders arguments with reflection: nil as "-", Stringers
// (uuid.UUID, time.Time) through String, slices as [a,b], maps and structs as sorted
// {k=v} lists with zero struct fields skipped. Function values use their pointer,
// which is only stable within one process; never put them in keys shared through Redis.
package cache
