package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is the parent of every allocation failure. A nil block from
	// Allocate, Calloc or Reallocate always comes with an error matching it.
	ErrExhausted = errors.New("alloc: allocation failed")

	// ErrQuotaExceeded indicates the request would push a quota backend past its budget.
	ErrQuotaExceeded = fmt.Errorf("%w: quota exceeded", ErrExhausted)

	// ErrOutOfMemory indicates the backing heap or page mapping could not supply the region.
	ErrOutOfMemory = fmt.Errorf("%w: out of memory", ErrExhausted)

	// ErrSizeOverflow indicates count*size in Calloc does not fit in an int.
	ErrSizeOverflow = fmt.Errorf("%w: size overflow", ErrExhausted)
)
