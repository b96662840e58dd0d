package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/buf"
)

const (
	// CounterRecordSize is the size of a counter record: two int32 cells.
	CounterRecordSize = 8

	// CounterCells is the number of int32 cells in a counter record.
	CounterCells = 2

	// defaultCounterSlots is the number of counter records per pool slab.
	defaultCounterSlots = 128
)

// CounterRecord is a small record of CounterCells int32 cells used by the
// reference-counting layers. Records issued by a Context live in slots of its
// counter pool; detached records live on the Go heap.
type CounterRecord struct {
	cells []byte
	pool  *FixedBlockAllocator
	slot  Slot
}

// NewDetachedCounterRecord returns a heap-backed record with all cells zero.
func NewDetachedCounterRecord() *CounterRecord {
	return &CounterRecord{cells: make([]byte, CounterRecordSize)}
}

// AllocCounterRecord carves a zeroed counter record from the context's counter
// pool, creating the pool on first use. Pool slabs are ordinary blocks, so the
// call fails with ErrQuotaExceeded when a quota context has no room for a new slab.
func (c *Context) AllocCounterRecord() (*CounterRecord, error) {
	c.mustBeLive("AllocCounterRecord")
	if c.counters == nil {
		c.counters = NewFixedBlock(c, CounterRecordSize, WithSlotsPerSlab(c.counterSlots))
	}
	s, err := c.counters.Alloc()
	if err != nil {
		return nil, fmt.Errorf("alloc: counter record: %w", err)
	}
	return &CounterRecord{cells: c.counters.Bytes(s), pool: c.counters, slot: s}, nil
}

// FreeCounterRecord returns r to the pool it came from.
func FreeCounterRecord(r *CounterRecord) {
	r.Free()
}

// Free releases the record. Using it afterwards panics.
func (r *CounterRecord) Free() {
	r.mustBeLive()
	if r.pool != nil {
		r.pool.Free(r.slot)
	}
	r.cells = nil
	r.pool = nil
	r.slot = Slot{}
}

// Detached reports whether the record lives on the Go heap rather than in a pool.
func (r *CounterRecord) Detached() bool {
	r.mustBeLive()
	return r.pool == nil
}

// Load returns the value of cell i.
func (r *CounterRecord) Load(i int) int32 {
	return buf.I32LE(r.cell(i))
}

// Store sets cell i to v.
func (r *CounterRecord) Store(i int, v int32) {
	buf.PutI32LE(r.cell(i), v)
}

// Add adds delta to cell i and returns the new value.
func (r *CounterRecord) Add(i int, delta int32) int32 {
	c := r.cell(i)
	v := buf.I32LE(c) + delta
	buf.PutI32LE(c, v)
	return v
}

func (r *CounterRecord) cell(i int) []byte {
	r.mustBeLive()
	if i < 0 || i >= CounterCells {
		panic(fmt.Sprintf("alloc: counter cell %d out of range", i))
	}
	return r.cells[i*4 : i*4+4]
}

func (r *CounterRecord) mustBeLive() {
	if r == nil || r.cells == nil {
		panic("alloc: counter record used after free")
	}
}
