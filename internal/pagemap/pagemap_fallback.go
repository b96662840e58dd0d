//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly && !windows

// Package pagemap provides anonymous, page-granular memory mappings for the
// system allocator's large regions.
package pagemap

import (
	"fmt"
	"os"
)

// PageSize returns the operating system page size.
func PageSize() int {
	return os.Getpagesize()
}

// Map allocates from the Go heap when anonymous mappings are not available.
func Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pagemap: invalid mapping length %d", n)
	}
	return make([]byte, n, roundToPage(n)), nil
}

// Unmap is a no-op; the garbage collector reclaims heap-backed regions.
func Unmap(b []byte) error {
	return nil
}
