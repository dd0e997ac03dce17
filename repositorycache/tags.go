package repositorycache

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-poetry-cache/cache"
)

type cacheTagsContextKey struct{}

// Tag names the relation set of entity id in namespace name. Reads carrying the
// tag on their context register their keys in that set.
func Tag(name string, id uuid.UUID) string {
	return cache.QuerySetKey(name, id.String())
}

// WithCacheTags attaches relation sets to the context. List and count reads made
// with the returned context register their cache keys in every attached set, so
// a mutation of the tagged entity invalidates them.
func WithCacheTags(ctx context.Context, tags ...string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(tags) == 0 {
		return ctx
	}

	combined := dedupeStrings(append(cacheTagsFromContext(ctx), tags...))
	if len(combined) == 0 {
		return ctx
	}

	return context.WithValue(ctx, cacheTagsContextKey{}, combined)
}

func cacheTagsFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if tags, ok := ctx.Value(cacheTagsContextKey{}).([]string); ok {
		return append([]string(nil), tags...)
	}
	return nil
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
