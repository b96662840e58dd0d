package refcount

import "github.com/joshuapare/memkit/mem/alloc"

// Shared is a typed strong handle over a SharedCount.
type Shared[T any] struct {
	SharedCount
}

// NewShared wraps payload with finalizer fin.
func NewShared[T any, F Finalizer[T]](payload T, fin F) Shared[T] {
	return Shared[T]{NewSharedCount(payload, fin)}
}

// NewSharedIn wraps payload with its counters in ctx's counter pool.
func NewSharedIn[T any, F Finalizer[T]](ctx *alloc.Context, payload T, fin F) (Shared[T], error) {
	sc, err := NewSharedCountIn(ctx, payload, fin)
	if err != nil {
		return Shared[T]{}, err
	}
	return Shared[T]{sc}, nil
}

// Get returns the payload. It panics when p is empty or finalized.
func (p Shared[T]) Get() T {
	v, ok := p.TryGet()
	if !ok {
		panic("refcount: Get on an invalid shared handle")
	}
	return v
}

// TryGet returns the payload and whether it is alive.
func (p Shared[T]) TryGet() (T, bool) {
	var zero T
	if !p.IsValid() {
		return zero, false
	}
	h, ok := p.uc.body.(holder[T])
	if !ok {
		return zero, false
	}
	return h.get()
}

// Clone retains another strong reference.
func (p Shared[T]) Clone() Shared[T] { return Shared[T]{p.SharedCount.Clone()} }

// Assign makes p share o's payload, releasing what p held before.
func (p *Shared[T]) Assign(o Shared[T]) { p.SharedCount.Assign(o.SharedCount) }

// Weak returns a typed weak reference to the same payload.
func (p Shared[T]) Weak() Weak[T] { return Weak[T]{p.SharedCount.Weak()} }

// Weak is a typed weak handle over a WeakCount.
type Weak[T any] struct {
	WeakCount
}

// Clone retains another weak reference.
func (w Weak[T]) Clone() Weak[T] { return Weak[T]{w.WeakCount.Clone()} }

// Assign makes w observe o's payload, releasing what w held before.
func (w *Weak[T]) Assign(o Weak[T]) { w.WeakCount.Assign(o.WeakCount) }

// Lock upgrades w. ok is false once the payload has been finalized.
func (w Weak[T]) Lock() (Shared[T], bool) {
	sc, ok := w.Upgrade()
	return Shared[T]{sc}, ok
}
