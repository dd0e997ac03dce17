// Package repositorycache provides EntityCache, a read-through cache decorator
// for storage repositories with relation-based invalidation, and Paginate, the
// relay-style connection builder shared by every entity.
//
// # Overview
//
// One EntityCache wraps one storage.Repository. Reads go through the cache:
//
//   - Get / GetVariant / Lookup: single rows, keyed "{name}:id:{id}[:variant]"
//   - List: filtered list reads, keyed by the serialized query
//   - Count: aggregate counts
//   - Connection: one page of a list, built by Paginate on top of List
//
// Writes go to storage first and then invalidate:
//
//   - Create drops the namespace's list and count keys and the relation sets of
//     the entities the new row depends on, then primes the row
//   - Update drops the row's own relation set, those of the entities either
//     version depends on and any extra dependents, then primes the fresh row
//   - Remove does the same without priming
//
// Invalidation always happens before priming, so a prime is never wiped by an
// overlapping invalidation.
//
// # Relation Index
//
// Every list result is registered in the relation set of each row it contains.
// Counts and lists can also be registered against the entity they describe:
//
//	ctx = repositorycache.WithCacheTags(ctx, repositorycache.Tag("poems", poemID))
//	n, err := likes.Count(ctx, model.LikeFilter{PoemID: &poemID})
//
// A later change to that poem drops the count along with everything else in
// the poem's set.
//
// # Basic Usage
//
//	poems := repositorycache.New(engine.Poems(), c, repositorycache.Options[model.Poem]{
//		Relations: func(p model.Poem) []repositorycache.Relation {
//			return []repositorycache.Relation{{Name: "authors", ID: p.AuthorID}}
//		},
//	})
//
//	poem, err := poems.Get(ctx, id)
//	page, err := poems.Connection(ctx, model.PoemFilter{AuthorID: &authorID}, repositorycache.PageArgs{First: &n})
//
// # Pagination
//
// Rows are ordered by the entity's sort column descending with the id as
// tie-break. Paginate fetches First+1 rows after the cursor to compute
// hasNextPage and probes in ascending order from the first edge to compute
// hasPreviousPage. Omitting First returns every remaining row.
//
// # Concurrency
//
// EntityCache is stateless beyond its collaborators and safe for concurrent use.
// Two concurrent misses on the same key may both reach storage; both write the
// same value.
package repositorycache
