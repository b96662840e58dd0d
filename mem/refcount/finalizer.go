package refcount

import (
	"io"
	"log/slog"

	"github.com/joshuapare/memkit/mem/alloc"
)

// Finalizer is the policy invoked exactly once to release a payload when its
// strong count reaches zero.
type Finalizer[T any] interface {
	Collect(payload T)
}

// FinalizerFunc adapts a function to Finalizer.
type FinalizerFunc[T any] func(T)

// Collect calls f(payload).
func (f FinalizerFunc[T]) Collect(payload T) { f(payload) }

// Nop is a Finalizer that does nothing, for payloads with no release step.
type Nop[T any] struct{}

// Collect implements Finalizer.
func (Nop[T]) Collect(T) {}

// CloseFinalizer closes io.Closer payloads. Close errors cannot be returned
// from a release, so they are logged.
type CloseFinalizer[T io.Closer] struct {
	Logger *slog.Logger // nil uses slog.Default()
}

// Collect implements Finalizer.
func (c CloseFinalizer[T]) Collect(payload T) {
	if err := payload.Close(); err != nil {
		l := c.Logger
		if l == nil {
			l = slog.Default()
		}
		l.Warn("refcount: closing finalized payload", "err", err)
	}
}

// FreeBlock returns block payloads to the context that allocated them.
type FreeBlock struct {
	Ctx *alloc.Context
}

// Collect implements Finalizer.
func (f FreeBlock) Collect(b *alloc.Block) { f.Ctx.Free(b) }
