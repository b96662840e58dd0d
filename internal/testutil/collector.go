// Package testutil holds finalizers and leak checks shared by the package tests.
package testutil

// Collector is a finalizer that records every payload it is asked to collect.
//
// Example:
//
//	col := testutil.NewCollector[*Font]()
//	s := refcount.NewShared(font, col)
//	s.Release()
//	require.Equal(t, 1, col.Count(font))
type Collector[T comparable] struct {
	calls map[T]int
	order []T
}

// NewCollector returns an empty Collector.
func NewCollector[T comparable]() *Collector[T] {
	return &Collector[T]{calls: make(map[T]int)}
}

// Collect records v.
func (c *Collector[T]) Collect(v T) {
	c.calls[v]++
	c.order = append(c.order, v)
}

// Count returns how many times v was collected.
func (c *Collector[T]) Count(v T) int { return c.calls[v] }

// Total returns the number of Collect calls.
func (c *Collector[T]) Total() int { return len(c.order) }

// Order returns the collected payloads in call order.
func (c *Collector[T]) Order() []T { return append([]T(nil), c.order...) }
