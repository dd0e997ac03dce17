package cacheinfra

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != BackendMemory {
		t.Errorf("expected Backend to be %q, got %q", BackendMemory, cfg.Backend)
	}

	if cfg.Capacity != 100000 {
		t.Errorf("expected Capacity to be 100000, got %d", cfg.Capacity)
	}

	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}

	if cfg.TTL != 7*24*time.Hour {
		t.Errorf("expected TTL to be 7 days, got %v", cfg.TTL)
	}

	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}

	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("expected Redis.Addr to be localhost:6379, got %q", cfg.Redis.Addr)
	}

	if cfg.Redis.ScanCount != 500 {
		t.Errorf("expected Redis.ScanCount to be 500, got %d", cfg.Redis.ScanCount)
	}
}

func TestConfig_Validate(t *testing.T) {
	memory := func(mutate func(*Config)) Config {
		cfg := DefaultConfig()
		mutate(&cfg)
		return cfg
	}

	tests := []struct {
		name      string
		cfg       Config
		wantError bool
		field     string
	}{
		{
			name: "valid default config",
			cfg:  DefaultConfig(),
		},
		{
			name: "empty backend means memory",
			cfg:  memory(func(c *Config) { c.Backend = "" }),
		},
		{
			name:      "invalid capacity - zero",
			cfg:       memory(func(c *Config) { c.Capacity = 0 }),
			wantError: true,
			field:     "Capacity",
		},
		{
			name:      "invalid shards - negative",
			cfg:       memory(func(c *Config) { c.NumShards = -1 }),
			wantError: true,
			field:     "NumShards",
		},
		{
			name:      "invalid ttl - zero",
			cfg:       memory(func(c *Config) { c.TTL = 0 }),
			wantError: true,
			field:     "TTL",
		},
		{
			name:      "invalid eviction percentage - over 100",
			cfg:       memory(func(c *Config) { c.EvictionPercentage = 101 }),
			wantError: true,
			field:     "EvictionPercentage",
		},
		{
			name:      "invalid eviction interval - negative",
			cfg:       memory(func(c *Config) { c.EvictionInterval = -time.Second }),
			wantError: true,
			field:     "EvictionInterval",
		},
		{
			name: "redis backend ignores memory knobs",
			cfg: memory(func(c *Config) {
				c.Backend = BackendRedis
				c.Capacity = 0
			}),
		},
		{
			name: "redis backend requires address",
			cfg: memory(func(c *Config) {
				c.Backend = BackendRedis
				c.Redis.Addr = ""
			}),
			wantError: true,
			field:     "Redis.Addr",
		},
		{
			name:      "unknown backend",
			cfg:       memory(func(c *Config) { c.Backend = "memcached" }),
			wantError: true,
			field:     "Backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !tt.wantError {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	cfg := DefaultConfig()
	if got := len(cfg.ToSturdycOptions()); got != 0 {
		t.Errorf("expected no options for default config, got %d", got)
	}

	cfg.EvictionInterval = time.Minute
	if got := len(cfg.ToSturdycOptions()); got != 1 {
		t.Errorf("expected eviction interval option, got %d options", got)
	}
}

func newTestMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create memory store: %v", err)
	}
	return store
}

func TestNewMemoryStore_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 0

	if _, err := NewMemoryStore(cfg); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore(t)

	if _, found, err := store.Get(ctx, "poems:id:1"); err != nil || found {
		t.Fatalf("expected miss on empty store, found=%v err=%v", found, err)
	}

	value := []byte(`{"title":"Ozymandias"}`)
	if err := store.Set(ctx, "poems:id:1", value); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// mutating the caller's slice must not leak into the store
	value[2] = 'X'

	got, found, err := store.Get(ctx, "poems:id:1")
	if err != nil || !found {
		t.Fatalf("expected hit, found=%v err=%v", found, err)
	}
	if string(got) != `{"title":"Ozymandias"}` {
		t.Errorf("unexpected value %q", got)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 value, got %d", store.Len())
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore(t)

	_ = store.Set(ctx, "a", []byte("1"))
	_ = store.Set(ctx, "b", []byte("2"))
	_ = store.SAdd(ctx, "authors:1:queries", "a")

	if err := store.Delete(ctx, "a", "authors:1:queries", "missing"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, found, _ := store.Get(ctx, "a"); found {
		t.Error("expected a to be deleted")
	}
	if _, found, _ := store.Get(ctx, "b"); !found {
		t.Error("expected b to survive")
	}
	members, _ := store.SMembers(ctx, "authors:1:queries")
	if len(members) != 0 {
		t.Errorf("expected set to be deleted, got %v", members)
	}
}

func TestMemoryStore_Sets(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore(t)

	if err := store.SAdd(ctx, "poems:1:queries", "poems:list::x", "poems:count::y"); err != nil {
		t.Fatalf("sadd failed: %v", err)
	}
	if err := store.SAdd(ctx, "poems:1:queries", "poems:list::x"); err != nil {
		t.Fatalf("sadd failed: %v", err)
	}

	members, err := store.SMembers(ctx, "poems:1:queries")
	if err != nil {
		t.Fatalf("smembers failed: %v", err)
	}
	sort.Strings(members)
	if strings.Join(members, ",") != "poems:count::y,poems:list::x" {
		t.Errorf("unexpected members %v", members)
	}

	empty, err := store.SMembers(ctx, "poems:2:queries")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty set, got %v err=%v", empty, err)
	}
}

func TestMemoryStore_DeleteByPattern(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore(t)

	keys := []string{
		"poems:list::a",
		"poems:list::b",
		"poems:count::a",
		"poems:id:1",
		"comments:list::a",
	}
	for _, k := range keys {
		_ = store.Set(ctx, k, []byte("v"))
	}
	_ = store.SAdd(ctx, "poems:1:queries", "poems:list::a")

	if err := store.DeleteByPattern(ctx, "poems:list:*"); err != nil {
		t.Fatalf("pattern delete failed: %v", err)
	}

	for _, k := range []string{"poems:list::a", "poems:list::b"} {
		if _, found, _ := store.Get(ctx, k); found {
			t.Errorf("expected %s to be deleted", k)
		}
	}
	for _, k := range []string{"poems:count::a", "poems:id:1", "comments:list::a"} {
		if _, found, _ := store.Get(ctx, k); !found {
			t.Errorf("expected %s to survive", k)
		}
	}
	if members, _ := store.SMembers(ctx, "poems:1:queries"); len(members) != 1 {
		t.Errorf("relation set must survive list pattern delete, got %v", members)
	}

	if err := store.DeleteByPattern(ctx, "*"); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store after flush, got %d", store.Len())
	}
	if members, _ := store.SMembers(ctx, "poems:1:queries"); len(members) != 0 {
		t.Errorf("expected sets to be flushed, got %v", members)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := newTestMemoryStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := store.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get: expected context.Canceled, got %v", err)
	}
	if err := store.Set(ctx, "k", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Set: expected context.Canceled, got %v", err)
	}
	if err := store.DeleteByPattern(ctx, "*"); !errors.Is(err, context.Canceled) {
		t.Errorf("DeleteByPattern: expected context.Canceled, got %v", err)
	}
}

func TestCompileGlob(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		match   bool
	}{
		{"poems:list:*", "poems:list::abc", true},
		{"poems:list:*", "poems:count::abc", false},
		{"poems:list:*", "xpoems:list::abc", false},
		{"authors:id:1*", "authors:id:1:password=false:authVersion=true", true},
		{"authors:id:1*", "authors:id:2", false},
		{"*", "anything/with/slashes", true},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"h[ae]llo", "hallo", true},
		{"h[^e]llo", "hello", false},
		{`lit\*`, "lit*", true},
		{`lit\*`, "literal", false},
		{"a.b", "axb", false},
		{"open[", "open[", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.key, func(t *testing.T) {
			re, err := compileGlob(tt.pattern)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			if got := re.MatchString(tt.key); got != tt.match {
				t.Errorf("match(%q, %q) = %v, want %v", tt.pattern, tt.key, got, tt.match)
			}
		})
	}
}
