package alloc

import (
	"fmt"

	"github.com/kelindar/bitmap"

	"github.com/joshuapare/memkit/internal/buf"
)

const (
	// DefaultSlotsPerSlab is the number of slots carved from each slab.
	DefaultSlotsPerSlab = 64

	// slotAlign keeps every slot word-aligned; it also leaves room for the
	// in-band free-list link.
	slotAlign = 8

	// noSlot terminates a slab's free list.
	noSlot int32 = -1
)

// Slot identifies one fixed-size slot: the owning allocator, the index of the
// slab it was carved from, and its position in that slab.
// The zero Slot is invalid.
type Slot struct {
	owner *FixedBlockAllocator
	slab  uint32 // slab index + 1
	index uint32
}

// IsZero reports whether s is the zero Slot.
func (s Slot) IsZero() bool { return s.owner == nil }

// slab is one block of perSlab same-sized slots.
type slab struct {
	mem    *Block
	bump   int           // next never-issued slot
	free   int32         // head of the in-band free list, noSlot when empty
	nfree  int           // entries on the free list
	issued bitmap.Bitmap // slots currently handed out
	queued bool          // present on the partial stack
}

// FixedBlockAllocator serves same-sized slots from a growing chain of slabs.
// Alloc and Free are O(1): a freed slot always returns to the free list of the
// slab it came from, and slabs are only released by Destroy.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type FixedBlockAllocator struct {
	ctx      *Context
	slotSize int
	perSlab  int

	slabs   []*slab
	current int   // slab serving allocations, -1 before the first grow
	partial []int // filled slabs that have since had slots freed

	live      int
	destroyed bool
}

// FixedOption configures a FixedBlockAllocator.
type FixedOption func(*FixedBlockAllocator)

// WithSlotsPerSlab sets the number of slots per slab.
func WithSlotsPerSlab(n int) FixedOption {
	return func(f *FixedBlockAllocator) {
		if n > 0 {
			f.perSlab = n
		}
	}
}

// NewFixedBlock returns an allocator of slotSize-byte slots whose slabs are
// allocated from ctx. slotSize is rounded up to a multiple of 8.
func NewFixedBlock(ctx *Context, slotSize int, opts ...FixedOption) *FixedBlockAllocator {
	if slotSize <= 0 {
		panic(fmt.Sprintf("alloc: fixed-block slot size must be positive, got %d", slotSize))
	}
	f := &FixedBlockAllocator{
		ctx:      ctx,
		slotSize: buf.AlignUp(slotSize, slotAlign),
		perSlab:  DefaultSlotsPerSlab,
		current:  -1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SlotSize returns the (aligned) size of every slot.
func (f *FixedBlockAllocator) SlotSize() int { return f.slotSize }

// Live returns the number of slots currently issued.
func (f *FixedBlockAllocator) Live() int { return f.live }

// Slabs returns the number of slabs in the chain.
func (f *FixedBlockAllocator) Slabs() int { return len(f.slabs) }

// Capacity returns the total number of slots across all slabs.
func (f *FixedBlockAllocator) Capacity() int { return len(f.slabs) * f.perSlab }

// Alloc returns a zeroed slot. It only fails when a new slab is needed and the
// context cannot supply one.
func (f *FixedBlockAllocator) Alloc() (Slot, error) {
	f.mustBeLive("Alloc")
	for {
		if f.current >= 0 {
			if idx, ok := f.take(f.slabs[f.current]); ok {
				return Slot{owner: f, slab: uint32(f.current) + 1, index: uint32(idx)}, nil
			}
		}
		if n := len(f.partial); n > 0 {
			f.current = f.partial[n-1]
			f.partial = f.partial[:n-1]
			f.slabs[f.current].queued = false
			continue
		}
		if err := f.grow(); err != nil {
			return Slot{}, err
		}
	}
}

// Free returns s to the free list of its slab. Slots from another allocator,
// unknown slabs, never-issued positions and double frees panic.
func (f *FixedBlockAllocator) Free(s Slot) {
	f.mustBeLive("Free")
	si, sl := f.lookup(s, "Free")
	idx := int(s.index)

	sl.issued.Remove(s.index)
	buf.PutI32LE(f.slotBytes(sl, idx), sl.free)
	sl.free = int32(idx)
	sl.nfree++
	f.live--

	if si != f.current && !sl.queued {
		sl.queued = true
		f.partial = append(f.partial, si)
	}
}

// Bytes returns the memory of an issued slot.
func (f *FixedBlockAllocator) Bytes(s Slot) []byte {
	f.mustBeLive("Bytes")
	_, sl := f.lookup(s, "Bytes")
	return f.slotBytes(sl, int(s.index))
}

// Destroy frees every slab back to the context, regardless of issued slots.
func (f *FixedBlockAllocator) Destroy() {
	f.mustBeLive("Destroy")
	for _, sl := range f.slabs {
		f.ctx.Free(sl.mem)
	}
	f.slabs = nil
	f.partial = nil
	f.current = -1
	f.live = 0
	f.destroyed = true
}

// take issues one slot from sl: the head of its free list, else the bump pointer.
func (f *FixedBlockAllocator) take(sl *slab) (int, bool) {
	var idx int
	switch {
	case sl.free != noSlot:
		idx = int(sl.free)
		sl.free = buf.I32LE(f.slotBytes(sl, idx))
		sl.nfree--
	case sl.bump < f.perSlab:
		idx = sl.bump
		sl.bump++
	default:
		return 0, false
	}
	sl.issued.Set(uint32(idx))
	clear(f.slotBytes(sl, idx))
	f.live++
	return idx, true
}

func (f *FixedBlockAllocator) grow() error {
	size := f.slotSize * f.perSlab
	mem, err := f.ctx.Allocate(size)
	if err != nil {
		return fmt.Errorf("alloc: fixed-block slab of %d bytes: %w", size, err)
	}
	f.slabs = append(f.slabs, &slab{
		mem:    mem,
		free:   noSlot,
		issued: make(bitmap.Bitmap, (f.perSlab>>6)+1),
	})
	f.current = len(f.slabs) - 1
	f.ctx.log.Debug("fixed-block slab created",
		"slot_size", f.slotSize, "slots", f.perSlab, "slabs", len(f.slabs))
	return nil
}

func (f *FixedBlockAllocator) lookup(s Slot, op string) (int, *slab) {
	if s.owner != f {
		panic(fmt.Sprintf("alloc: fixed-block %s of slot from another allocator", op))
	}
	si := int(s.slab) - 1
	if si < 0 || si >= len(f.slabs) {
		panic(fmt.Sprintf("alloc: fixed-block %s of slot in unknown slab %d", op, si))
	}
	sl := f.slabs[si]
	if int(s.index) >= sl.bump {
		panic(fmt.Sprintf("alloc: fixed-block %s of never-issued slot %d/%d", op, si, s.index))
	}
	if !sl.issued.Contains(s.index) {
		panic(fmt.Sprintf("alloc: fixed-block %s of free slot %d/%d", op, si, s.index))
	}
	return si, sl
}

func (f *FixedBlockAllocator) slotBytes(sl *slab, idx int) []byte {
	off := idx * f.slotSize
	return sl.mem.Bytes()[off : off+f.slotSize : off+f.slotSize]
}

func (f *FixedBlockAllocator) mustBeLive(op string) {
	if f.destroyed {
		panic(fmt.Sprintf("alloc: fixed-block %s after Destroy", op))
	}
}
