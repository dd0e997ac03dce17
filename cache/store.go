package cache

import "context"

// KeySerializer builds a cache key from a method name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn is the function signature GetOrFetch expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Store is the backend contract the Cache façade runs on top of.
// Implementations must be safe for concurrent use. Values never expire on their own;
// every removal is an explicit Delete or DeleteByPattern.
type Store interface {
	// Get returns the raw value stored at key. found is false on a miss.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value at key without expiry.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// SAdd adds members to the set stored at key, creating it when needed.
	SAdd(ctx context.Context, key string, members ...string) error
	// SMembers returns every member of the set stored at key.
	SMembers(ctx context.Context, key string) ([]string, error)
	// DeleteByPattern removes every key (values and sets) matching a glob pattern.
	DeleteByPattern(ctx context.Context, pattern string) error
}
