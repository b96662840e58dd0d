package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/pagemap"
)

// DefaultMmapThreshold is the region size at which System switches from the Go
// heap to anonymous page mappings (64 KiB).
const DefaultMmapThreshold = 64 << 10

// System is the pass-through backend. Small regions come from the Go heap;
// regions of at least the mmap threshold come from anonymous page mappings and
// are returned to the OS on Free.
//
// A region is mapped exactly when cap(region) >= threshold: heap regions are
// always created with cap == len < threshold, and mappings never shrink their cap.
//
// System is not safe for concurrent use.
type System struct {
	threshold int // 0 disables page mappings

	mappedRegions int
	mappedBytes   int
}

// NewSystemBackend returns a System backend. A threshold of 0 selects
// DefaultMmapThreshold; a negative threshold keeps every region on the Go heap.
func NewSystemBackend(mmapThreshold int) *System {
	switch {
	case mmapThreshold == 0:
		mmapThreshold = DefaultMmapThreshold
	case mmapThreshold < 0:
		mmapThreshold = 0
	}
	return &System{threshold: mmapThreshold}
}

// Overhead implements Backend. System regions carry no header.
func (s *System) Overhead() int { return 0 }

// Alloc implements Backend.
func (s *System) Alloc(n int) ([]byte, error) {
	if s.wantsMapping(n) {
		return s.mapRegion(n)
	}
	return make([]byte, n), nil
}

// Realloc implements Backend. Shrinking, and growth within the existing
// capacity, happen in place.
func (s *System) Realloc(p []byte, n int) ([]byte, error) {
	if n <= cap(p) && (s.isMapped(p) || !s.wantsMapping(n)) {
		return p[:n], nil
	}
	np, err := s.Alloc(n)
	if err != nil {
		return nil, err
	}
	copy(np, p)
	s.Free(p)
	return np, nil
}

// Free implements Backend. Heap regions are left to the garbage collector.
func (s *System) Free(p []byte) {
	if !s.isMapped(p) {
		return
	}
	size := cap(p)
	if err := pagemap.Unmap(p); err != nil {
		panic(fmt.Sprintf("alloc: unmapping %d-byte region: %v", size, err))
	}
	s.mappedRegions--
	s.mappedBytes -= size
}

// MappedBytes reports the bytes currently held in page mappings.
func (s *System) MappedBytes() int { return s.mappedBytes }

// MappedRegions reports the number of live page mappings.
func (s *System) MappedRegions() int { return s.mappedRegions }

func (s *System) wantsMapping(n int) bool {
	return s.threshold > 0 && n >= s.threshold
}

func (s *System) isMapped(p []byte) bool {
	return s.threshold > 0 && cap(p) >= s.threshold
}

func (s *System) mapRegion(n int) ([]byte, error) {
	region, err := pagemap.Map(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}
	s.mappedRegions++
	s.mappedBytes += cap(region)
	return region, nil
}
