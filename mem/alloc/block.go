package alloc

import "fmt"

// Block is a handle to one allocation: the backend region (hidden header
// followed by the payload) plus its owning Context.
//
// Blocks are only valid between the Allocate/Calloc that produced them and the
// Free that releases them. Block methods panic after Free; slices obtained
// from Bytes are not tracked and must be dropped before Free or Reallocate.
type Block struct {
	region []byte
	hdr    int
	owner  *Context
	serial uint64
	freed  bool
}

// Bytes returns the usable payload. The backend header is never exposed.
// The returned slice is capped at Len so appends cannot reach past the block.
// It aliases the block's region: do not keep it past Free or Reallocate, which
// may unmap the region or move it. Call Bytes again after a Reallocate.
func (b *Block) Bytes() []byte {
	b.mustBeLive("Bytes")
	return b.region[b.hdr:len(b.region):len(b.region)]
}

// Len returns the usable size requested for the block.
func (b *Block) Len() int {
	b.mustBeLive("Len")
	return len(b.region) - b.hdr
}

// Serial is the block's allocation sequence number within its Context.
func (b *Block) Serial() uint64 { return b.serial }

// Owner returns the Context that allocated the block.
func (b *Block) Owner() *Context { return b.owner }

// Freed reports whether the block has been released.
func (b *Block) Freed() bool { return b.freed }

func (b *Block) String() string {
	if b.freed {
		return fmt.Sprintf("block#%d(freed)", b.serial)
	}
	return fmt.Sprintf("block#%d(%d bytes)", b.serial, len(b.region)-b.hdr)
}

func (b *Block) mustBeLive(op string) {
	if b.freed {
		panic(fmt.Sprintf("alloc: %s on freed block #%d", op, b.serial))
	}
}

// blockLess orders the live-block index by allocation serial.
func blockLess(a, b *Block) bool {
	return a.serial < b.serial
}
