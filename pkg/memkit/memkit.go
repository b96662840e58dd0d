package memkit

import (
	"fmt"

	"github.com/joshuapare/memkit/mem/alloc"
)

type (
	// Allocator is an allocation context.
	Allocator = alloc.Context

	// Block is a region returned by Allocate.
	Block = alloc.Block

	// CounterRecord is a shared counter cell pair.
	CounterRecord = alloc.CounterRecord
)

var (
	ErrExhausted     = alloc.ErrExhausted
	ErrQuotaExceeded = alloc.ErrQuotaExceeded
	ErrOutOfMemory   = alloc.ErrOutOfMemory
	ErrSizeOverflow  = alloc.ErrSizeOverflow
)

// CreateAllocator creates an allocator over the system backend, or over a
// quota backend when WithBudget is given. A non-positive budget panics.
func CreateAllocator(opts ...Option) *Allocator {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.budgetSet {
		if o.budget <= 0 {
			panic(fmt.Sprintf("memkit: budget must be positive, got %d", o.budget))
		}
		return alloc.NewQuota(o.budget, o.ctx...)
	}
	return alloc.New(o.ctx...)
}

// DestroyAllocator destroys a. Every block and counter record it issued must
// have been released.
func DestroyAllocator(a *Allocator) { a.Destroy() }

// Allocate returns n usable bytes from a. On exhaustion the block is nil and
// the error matches ErrExhausted.
func Allocate(a *Allocator, n int) (*Block, error) { return a.Allocate(n) }

// Calloc returns count*size zeroed bytes from a.
func Calloc(a *Allocator, count, size int) (*Block, error) { return a.Calloc(count, size) }

// Reallocate resizes b, preserving its contents. A nil b allocates. On failure
// b is unchanged and still owned by the caller.
func Reallocate(a *Allocator, b *Block, n int) (*Block, error) { return a.Reallocate(b, n) }

// Free releases b back to a. A nil b is ignored.
func Free(a *Allocator, b *Block) { a.Free(b) }

// AllocCounterRecord takes a zeroed counter record from a's counter pool.
func AllocCounterRecord(a *Allocator) (*CounterRecord, error) { return a.AllocCounterRecord() }

// FreeCounterRecord returns r to its pool.
func FreeCounterRecord(r *CounterRecord) { alloc.FreeCounterRecord(r) }

// Userdata returns a's user-data slot.
func Userdata(a *Allocator) any { return a.Userdata() }

// SetUserdata stores v in a's user-data slot.
func SetUserdata(a *Allocator, v any) { a.SetUserdata(v) }
