package cacheinfra

import (
	"context"
	"sync"

	"github.com/viccon/sturdyc"
)

// MemoryStore is the in-process backend. Values live in a sturdyc client, which
// shards them and evicts under capacity pressure; an evicted value is only a miss.
// Relation sets are kept apart in a plain map so eviction can never drop part of
// the relation index and leave cached keys that nothing would invalidate.
type MemoryStore struct {
	client *sturdyc.Client[[]byte]

	mu   sync.Mutex
	sets map[string]map[string]struct{}
}

// NewMemoryStore creates the sturdyc backed store.
// Capacity, NumShards, TTL and EvictionPercentage go to sturdyc.New(),
// the remaining knobs through ToSturdycOptions().
func NewMemoryStore(cfg Config) (*MemoryStore, error) {
	if err := cfg.validateMemory(); err != nil {
		return nil, err
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &MemoryStore{
		client: client,
		sets:   make(map[string]map[string]struct{}),
	}, nil
}

// Get implements cache.Store.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	value, ok := s.client.Get(key)
	return value, ok, nil
}

// Set implements cache.Store.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.client.Set(key, stored)
	return nil
}

// Delete implements cache.Store. Keys may name values or sets.
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	for _, key := range keys {
		delete(s.sets, key)
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// SAdd implements cache.Store.
func (s *MemoryStore) SAdd(ctx context.Context, key string, members ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{}, len(members))
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

// SMembers implements cache.Store.
func (s *MemoryStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members, nil
}

// DeleteByPattern implements cache.Store by scanning both keyspaces.
func (s *MemoryStore) DeleteByPattern(ctx context.Context, pattern string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	re, err := compileGlob(pattern)
	if err != nil {
		return err
	}

	for _, key := range s.client.ScanKeys() {
		if re.MatchString(key) {
			s.client.Delete(key)
		}
	}

	s.mu.Lock()
	for key := range s.sets {
		if re.MatchString(key) {
			delete(s.sets, key)
		}
	}
	s.mu.Unlock()

	return nil
}

// Len reports the number of values currently held, excluding sets.
func (s *MemoryStore) Len() int {
	return s.client.Size()
}
