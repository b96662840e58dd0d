//go:build windows

// Package pagemap provides anonymous, page-granular memory mappings for the
// system allocator's large regions.
package pagemap

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// PageSize returns the operating system page size.
func PageSize() int {
	return os.Getpagesize()
}

// Map returns n bytes of zeroed, read-write committed memory.
// The returned slice has len n and a cap rounded up to a whole page.
func Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pagemap: invalid mapping length %d", n)
	}
	size := roundToPage(n)
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("pagemap: VirtualAlloc %d bytes: %w", size, err)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return data[:n], nil
}

// Unmap releases a mapping returned by Map.
func Unmap(b []byte) error {
	if cap(b) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}
