package cacheinfra

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type failingStore struct {
	Store
}

func (failingStore) Set(context.Context, string, []byte) error {
	return errors.New("boom")
}

func TestInstrumentedStore_Counts(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	metrics, err := NewMetrics("poetry", reg)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	inner := newTestMemoryStore(t)
	store := NewInstrumentedStore(inner, metrics)

	_, _, _ = store.Get(ctx, "k")
	_ = store.Set(ctx, "k", []byte("v"))
	_, _, _ = store.Get(ctx, "k")
	_, _, _ = store.Get(ctx, "k")
	_ = store.DeleteByPattern(ctx, "*")

	if got := testutil.ToFloat64(metrics.Hits); got != 2 {
		t.Errorf("expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Misses); got != 1 {
		t.Errorf("expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Operations.WithLabelValues("get", "ok")); got != 3 {
		t.Errorf("expected 3 get operations, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Operations.WithLabelValues("delete_pattern", "ok")); got != 1 {
		t.Errorf("expected 1 pattern delete, got %v", got)
	}
	if store.Unwrap() != Store(inner) {
		t.Error("expected Unwrap to return the inner store")
	}
}

func TestInstrumentedStore_Errors(t *testing.T) {
	metrics, err := NewMetrics("poetry", nil)
	if err != nil {
		t.Fatalf("metrics failed: %v", err)
	}

	store := NewInstrumentedStore(failingStore{Store: newTestMemoryStore(t)}, metrics)
	if err := store.Set(context.Background(), "k", nil); err == nil {
		t.Fatal("expected error from inner store")
	}

	if got := testutil.ToFloat64(metrics.Operations.WithLabelValues("set", "error")); got != 1 {
		t.Errorf("expected 1 failed set, got %v", got)
	}
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics("poetry", reg); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := NewMetrics("poetry", reg); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}
