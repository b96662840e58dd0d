package alloc

// HeaderSize is the size of the hidden header a Quota backend places in front of
// every payload: one machine word holding the exact usable byte count.
const HeaderSize = 8

// Backend is the pluggable allocation strategy behind a Context.
//
// Implementations:
//   - System: Go heap for small regions, anonymous page mappings for large ones
//   - Quota: budget-enforcing wrapper around another backend
//
// A region is Overhead() bytes of backend-private header followed by the usable
// bytes. Backends never see Block handles; the Context owns those.
type Backend interface {
	// Alloc returns a region with n usable bytes, or an error wrapping ErrExhausted.
	Alloc(n int) ([]byte, error)

	// Realloc resizes a region previously returned by this backend, preserving the
	// usable contents up to min(old, n). On error p must remain valid and unchanged.
	Realloc(p []byte, n int) ([]byte, error)

	// Free releases a region previously returned by this backend.
	Free(p []byte)

	// Overhead is the number of header bytes preceding the usable bytes of every region.
	Overhead() int
}

// Budgeted is implemented by backends that enforce a byte budget.
type Budgeted interface {
	BytesUsed() int
	BytesMax() int
}
