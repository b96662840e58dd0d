package resource

import (
	"fmt"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/refcount"
)

// countCell is the counter record cell holding the reference count.
const countCell = 0

// AutoResource shares one resource value between handles with a single
// reference count. When the last handle is released the counter record goes
// back to its context and F.Collect(value) runs.
//
// The zero AutoResource is empty and holds N's null value. Copies do not
// retain: use Clone and Release.
//
// NOT thread-safe.
type AutoResource[T comparable, F refcount.Finalizer[T], N NullResource[T]] struct {
	value T
	fin   F
	rec   *alloc.CounterRecord
}

// Handle is an AutoResource whose null value is T's zero value.
type Handle[T comparable, F refcount.Finalizer[T]] = AutoResource[T, F, Zero[T]]

// New wraps value with a count of 1 taken from ctx's counter pool, or from a
// detached record when ctx is nil. The null value yields an empty resource and
// allocates nothing. The null policy comes first so the rest can be inferred:
//
//	fd := resource.New[resource.MinusOne[int]](ctx, openFile(), closeFD)
//
// New panics if ctx cannot supply a counter record.
func New[N NullResource[T], T comparable, F refcount.Finalizer[T]](ctx *alloc.Context, value T, fin F) AutoResource[T, F, N] {
	var null N
	if value == null.Value() {
		return AutoResource[T, F, N]{}
	}
	var rec *alloc.CounterRecord
	if ctx == nil {
		rec = alloc.NewDetachedCounterRecord()
	} else {
		var err error
		if rec, err = ctx.AllocCounterRecord(); err != nil {
			panic(fmt.Sprintf("resource: counter for %v: %v", value, err))
		}
	}
	rec.Store(countCell, 1)
	return AutoResource[T, F, N]{value: value, fin: fin, rec: rec}
}

// NewHandle is New with the zero-value null policy.
func NewHandle[T comparable, F refcount.Finalizer[T]](ctx *alloc.Context, value T, fin F) Handle[T, F] {
	return New[Zero[T]](ctx, value, fin)
}

// Get returns the resource, or the null value when r is empty.
func (r AutoResource[T, F, N]) Get() T {
	if r.rec == nil {
		var null N
		return null.Value()
	}
	return r.value
}

// IsNull reports whether r holds no resource.
func (r AutoResource[T, F, N]) IsNull() bool { return r.rec == nil }

// UseCount returns the number of handles sharing the resource, 0 when empty.
func (r AutoResource[T, F, N]) UseCount() int {
	if r.rec == nil {
		return 0
	}
	return int(r.rec.Load(countCell))
}

// Clone returns another handle to the same resource.
func (r AutoResource[T, F, N]) Clone() AutoResource[T, F, N] {
	if r.rec != nil {
		r.rec.Add(countCell, 1)
	}
	return r
}

// Release drops r's reference and empties r. The last release frees the
// counter record and then collects the resource.
func (r *AutoResource[T, F, N]) Release() {
	rec, value, fin := r.rec, r.value, r.fin
	*r = AutoResource[T, F, N]{}
	if rec == nil {
		return
	}
	n := rec.Add(countCell, -1)
	switch {
	case n < 0:
		panic(fmt.Sprintf("resource: reference count underflow for %v", value))
	case n == 0:
		rec.Free()
		fin.Collect(value)
	}
}

// Assign makes r share other's resource, releasing what r held before.
// Assigning the resource r already holds changes nothing.
func (r *AutoResource[T, F, N]) Assign(other AutoResource[T, F, N]) {
	if r.rec == other.rec {
		return
	}
	r.Release()
	*r = other.Clone()
}
