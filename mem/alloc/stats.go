package alloc

// Stats is a snapshot of a Context's bookkeeping.
type Stats struct {
	Allocs   int // Successful Allocate/Calloc calls (Reallocate of nil included)
	Reallocs int // Successful Reallocate calls on an existing block
	Frees    int // Free calls that released a block
	Failures int // Allocation requests that returned an error

	LiveBlocks int // Blocks not yet freed, fixed-block slabs included
	LiveBytes  int // Usable bytes across live blocks
	PeakBytes  int // High-water mark of LiveBytes

	CounterRecords int // Outstanding counter records
	CounterSlabs   int // Slabs backing the counter record pool

	BytesUsed int // Quota backends: bytes charged, headers included
	BytesMax  int // Quota backends: the budget
}
