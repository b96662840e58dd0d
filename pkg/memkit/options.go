package memkit

import (
	"log/slog"

	"github.com/joshuapare/memkit/mem/alloc"
)

// Option configures CreateAllocator.
type Option func(*options)

type options struct {
	budget    int
	budgetSet bool
	ctx       []alloc.Option
}

// WithBudget bounds the allocator to n bytes, headers included. Without it the
// allocator is unbudgeted. A non-positive n makes CreateAllocator panic.
func WithBudget(n int) Option {
	return func(o *options) { o.budget, o.budgetSet = n, true }
}

// WithLogger routes allocator debug logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.ctx = append(o.ctx, alloc.WithLogger(l)) }
}

// WithMmapThreshold sets the size at or above which regions are page-mapped
// instead of heap-allocated. Negative disables page mapping.
func WithMmapThreshold(n int) Option {
	return func(o *options) { o.ctx = append(o.ctx, alloc.WithMmapThreshold(n)) }
}

// WithUserdata presets the allocator's user-data slot.
func WithUserdata(v any) Option {
	return func(o *options) { o.ctx = append(o.ctx, alloc.WithUserdata(v)) }
}
