package query

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"hirindex/internal/bug"
	"hirindex/internal/hir"
	"hirindex/internal/trace"
)

// opt stores comma-ok results in a cache.
type opt[T any] struct {
	v  T
	ok bool
}

func some[T any](v T, ok bool) opt[T] { return opt[T]{v: v, ok: ok} }

// invalidator is implemented by every cache so the Ctx can clear them
// without knowing their types.
type invalidator interface {
	reset()
	forget(def hir.DefID)
}

// Cache memoizes one provider. Concurrent first requests for a key share a
// single computation; a panicking computation stores nothing.
type Cache[K comparable, V any] struct {
	name     string
	fmtKey   func(K) string
	defOf    func(K) (hir.DefID, bool)
	mu       sync.RWMutex
	vals     map[K]V
	group    singleflight.Group
	computes atomic.Int64
}

func newCache[K comparable, V any](name string, fmtKey func(K) string, defOf func(K) (hir.DefID, bool)) *Cache[K, V] {
	return &Cache[K, V]{
		name:   name,
		fmtKey: fmtKey,
		defOf:  defOf,
		vals:   make(map[K]V),
	}
}

// Name returns the provider name used in trace spans and ICE frames.
func (c *Cache[K, V]) Name() string { return c.name }

// Computations returns how many times the provider ran.
func (c *Cache[K, V]) Computations() int64 { return c.computes.Load() }

func (c *Cache[K, V]) lookup(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vals[key]
	return v, ok
}

func (c *Cache[K, V]) get(q *Ctx, key K, compute func(K) V) V {
	if v, ok := c.lookup(key); ok {
		return v
	}
	frame := c.name + "(" + c.fmtKey(key) + ")"
	res, _, _ := c.group.Do(frame, func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		c.computes.Add(1)
		span := trace.Begin(q.tracer, trace.ScopeQuery, frame, q.rootSpan)
		var v V
		bug.WithFrame(frame, func() {
			v = compute(key)
		})
		span.End("")

		c.mu.Lock()
		c.vals[key] = v
		c.mu.Unlock()
		return v, nil
	})
	return res.(V) //nolint:errcheck // Do returns exactly what the closure stored
}

func (c *Cache[K, V]) reset() {
	c.mu.Lock()
	c.vals = make(map[K]V)
	c.mu.Unlock()
}

func (c *Cache[K, V]) forgetWhere(drop func(K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.vals {
		if drop(k) {
			delete(c.vals, k)
		}
	}
}

func (c *Cache[K, V]) forget(def hir.DefID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.defOf == nil {
		// crate-wide results depend on every owner
		c.vals = make(map[K]V)
		return
	}
	for k := range c.vals {
		if d, ok := c.defOf(k); ok && d == def {
			delete(c.vals, k)
		}
	}
}
