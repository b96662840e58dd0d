//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

// Package pagemap provides anonymous, page-granular memory mappings for the
// system allocator's large regions.
package pagemap

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// PageSize returns the operating system page size.
func PageSize() int {
	return unix.Getpagesize()
}

// Map returns n bytes of zeroed, read-write memory from a private anonymous
// mapping. The returned slice has len n and a cap rounded up to a whole page;
// pass it (or any reslice of it) back to Unmap.
func Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pagemap: invalid mapping length %d", n)
	}
	size := roundToPage(n)
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("pagemap: mmap %d bytes: %w", size, err)
	}
	return data[:n], nil
}

// Unmap releases a mapping returned by Map.
func Unmap(b []byte) error {
	if cap(b) == 0 {
		return nil
	}
	err := unix.Munmap(b[:cap(b)])
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
