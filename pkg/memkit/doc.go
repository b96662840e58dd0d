/*
Package memkit is the flat entry point to the memkit allocator.

# Quick Start

	a := memkit.CreateAllocator(memkit.WithBudget(1 << 20))
	defer memkit.DestroyAllocator(a)

	b, err := memkit.Allocate(a, 256)
	if errors.Is(err, memkit.ErrQuotaExceeded) {
	    // over budget
	}
	memkit.Free(a, b)

# Budgets

With WithBudget every allocation is charged its size plus an 8-byte header.
A request that would cross the budget fails and changes nothing, so the
caller can free something and retry.

# Ownership

Blocks and counter records must go back to the allocator that issued them.
DestroyAllocator panics if any are still outstanding.

For shared ownership build on the lower-level packages:

  - github.com/joshuapare/memkit/mem/alloc: contexts, backends, fixed-size pools
  - github.com/joshuapare/memkit/mem/refcount: strong and weak handles
  - github.com/joshuapare/memkit/mem/resource: single-counter resource handles
*/
package memkit
