package cacheinfra

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// Store mirrors cache.Store; it is redeclared here so the cache package can
// depend on this one without a cycle.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Metrics holds the counters recorded by InstrumentedStore.
type Metrics struct {
	Hits       prometheus.Counter
	Misses     prometheus.Counter
	Operations *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg when it is not nil.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache reads answered from the store.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache reads that fell through to storage.",
		}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache store operations by name and outcome.",
		}, []string{"op", "result"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.Hits, m.Misses, m.Operations} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// InstrumentedStore decorates a Store with prometheus counters.
type InstrumentedStore struct {
	inner   Store
	metrics *Metrics
}

// NewInstrumentedStore wraps inner.
func NewInstrumentedStore(inner Store, metrics *Metrics) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, metrics: metrics}
}

// Unwrap returns the decorated store.
func (s *InstrumentedStore) Unwrap() Store {
	return s.inner
}

func (s *InstrumentedStore) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.Operations.WithLabelValues(op, result).Inc()
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, found, err := s.inner.Get(ctx, key)
	s.observe("get", err)
	switch {
	case err != nil:
	case found:
		s.metrics.Hits.Inc()
	default:
		s.metrics.Misses.Inc()
	}
	return value, found, err
}

func (s *InstrumentedStore) Set(ctx context.Context, key string, value []byte) error {
	err := s.inner.Set(ctx, key, value)
	s.observe("set", err)
	return err
}

func (s *InstrumentedStore) Delete(ctx context.Context, keys ...string) error {
	err := s.inner.Delete(ctx, keys...)
	s.observe("delete", err)
	return err
}

func (s *InstrumentedStore) SAdd(ctx context.Context, key string, members ...string) error {
	err := s.inner.SAdd(ctx, key, members...)
	s.observe("sadd", err)
	return err
}

func (s *InstrumentedStore) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.inner.SMembers(ctx, key)
	s.observe("smembers", err)
	return members, err
}

func (s *InstrumentedStore) DeleteByPattern(ctx context.Context, pattern string) error {
	err := s.inner.DeleteByPattern(ctx, pattern)
	s.observe("delete_pattern", err)
	return err
}

// Close closes the inner store when it holds connections.
func (s *InstrumentedStore) Close() error {
	if closer, ok := s.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
