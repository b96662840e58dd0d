// Package alloc provides allocation contexts, budget-constrained backends and a
// fixed-size block pool.
//
// # Overview
//
// Every allocation is made through a Context. A Context wraps a Backend and
// tracks the blocks it has issued, so that frees through the wrong context,
// double frees and leaks at teardown are caught as contract violations.
//
//	ctx := alloc.NewQuota(1 << 20) // 1 MiB budget
//	defer ctx.Destroy()
//
//	b, err := ctx.Allocate(256)
//	if err != nil {
//	    // errors.Is(err, alloc.ErrExhausted)
//	    return err
//	}
//	copy(b.Bytes(), payload)
//	ctx.Free(b)
//
// # Backends
//
// System: pass-through backend
//
//   - Regions below the mmap threshold (64 KiB by default) come from the Go heap
//   - Larger regions are anonymous page mappings, unmapped again on Free
//   - No header, no accounting
//
// Quota: budget-constrained backend
//
//   - Wraps another backend (System by default)
//   - Each region is prefixed with an 8-byte header holding the usable size
//   - Each allocation is charged n + 8 bytes; requests past the budget fail
//     with ErrQuotaExceeded and leave the accounting untouched
//
// Custom strategies implement Backend and are installed with WithBackend.
//
// # Errors
//
// Exhaustion is returned, never panicked: a nil block comes with an error
// matching ErrExhausted, refined by ErrQuotaExceeded (budget) or
// ErrOutOfMemory (heap or page mapping). Contract violations (wrong context,
// double free, negative sizes, use after Destroy) panic.
//
// # Fixed-Size Blocks
//
// FixedBlockAllocator carves same-sized slots out of slabs allocated from a
// Context. Each slab keeps a bump pointer for never-issued slots and an in-band
// free list for returned ones; a Slot names its slab by index, so Free is O(1)
// and bounds-checked. Slabs are only released when the allocator is destroyed.
//
// The Context uses a FixedBlockAllocator of 8-byte slots for CounterRecords,
// the shared counters behind the refcount and resource packages.
//
// # Thread Safety
//
// Nothing in this package is synchronized. A Context, its backend and its pools
// must be used from one goroutine at a time; handing blocks to another
// goroutine requires the caller's own synchronization.
//
// # Related Packages
//
//   - github.com/joshuapare/memkit/mem/refcount: strong/weak ownership handles
//   - github.com/joshuapare/memkit/mem/resource: single-counter resource handles
package alloc
