package alloc

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/btree"
	"github.com/google/uuid"

	"github.com/joshuapare/memkit/internal/buf"
)

// liveIndexDegree is the btree degree of the live-block index.
const liveIndexDegree = 16

// maxLeakReport caps the number of blocks named in a Destroy panic.
const maxLeakReport = 8

// Context is an allocation context (arena handle). Every allocation, free and
// counter record performed through a Context must use that same Context for its
// whole lifetime.
//
// A Context is created once per subsystem and destroyed exactly once, after
// every block and counter record it issued has been released.
//
// NOT thread-safe. Only one goroutine should use a Context at a time.
type Context struct {
	id       uuid.UUID
	backend  Backend
	userdata any
	log      *slog.Logger

	live   *btree.BTreeG[*Block]
	serial uint64
	stats  Stats

	counters     *FixedBlockAllocator
	counterSlots int

	destroyed bool
}

// New creates a Context over the System backend (or the backend given with WithBackend).
func New(opts ...Option) *Context {
	cfg := buildConfig(opts)
	backend := cfg.backend
	if backend == nil {
		backend = NewSystemBackend(cfg.mmapThreshold)
	}
	return newContext(backend, cfg)
}

// NewQuota creates a Context whose allocations are bounded by budget bytes,
// headers included. WithBackend selects the quota's source backend.
func NewQuota(budget int, opts ...Option) *Context {
	cfg := buildConfig(opts)
	src := cfg.backend
	if src == nil {
		src = NewSystemBackend(cfg.mmapThreshold)
	}
	return newContext(NewQuotaBackend(budget, src), cfg)
}

func newContext(backend Backend, cfg config) *Context {
	c := &Context{
		id:           uuid.New(),
		backend:      backend,
		userdata:     cfg.userdata,
		live:         btree.NewG(liveIndexDegree, blockLess),
		counterSlots: cfg.counterSlots,
	}
	c.log = cfg.logger.With("ctx", c.id.String())
	if q, ok := backend.(Budgeted); ok {
		c.log.Debug("context created", "backend", "quota", "budget", q.BytesMax())
	} else {
		c.log.Debug("context created", "backend", fmt.Sprintf("%T", backend))
	}
	return c
}

// ID returns the context's identity, used in logs and reports.
func (c *Context) ID() uuid.UUID { return c.id }

// Backend returns the context's backend.
func (c *Context) Backend() Backend { return c.backend }

// Userdata returns the value stored in the user-data slot.
func (c *Context) Userdata() any { return c.userdata }

// SetUserdata stores v in the user-data slot.
func (c *Context) SetUserdata(v any) { c.userdata = v }

// Budget reports quota usage. ok is false for unbudgeted backends.
func (c *Context) Budget() (used, limit int, ok bool) {
	q, ok := c.backend.(Budgeted)
	if !ok {
		return 0, 0, false
	}
	return q.BytesUsed(), q.BytesMax(), true
}

// Allocate returns a block with n usable bytes. On exhaustion it returns a nil
// block and an error matching ErrExhausted (ErrQuotaExceeded or ErrOutOfMemory).
func (c *Context) Allocate(n int) (*Block, error) {
	c.mustBeLive("Allocate")
	if n < 0 {
		panic(fmt.Sprintf("alloc: negative allocation size %d", n))
	}
	region, err := c.backend.Alloc(n)
	if err != nil {
		c.stats.Failures++
		c.log.Debug("allocation failed", "size", n, "err", err)
		return nil, err
	}
	b := &Block{region: c.trim(region, n), hdr: c.backend.Overhead(), owner: c}
	c.track(b)
	return b, nil
}

// Calloc allocates count*size zeroed bytes. An overflowing product fails with
// ErrSizeOverflow.
func (c *Context) Calloc(count, size int) (*Block, error) {
	total, ok := buf.MulOverflowSafe(count, size)
	if !ok {
		c.stats.Failures++
		return nil, fmt.Errorf("%w: %d x %d bytes", ErrSizeOverflow, count, size)
	}
	b, err := c.Allocate(total)
	if err != nil {
		return nil, err
	}
	clear(b.Bytes())
	return b, nil
}

// Reallocate resizes b to n usable bytes, preserving its contents up to
// min(old, n), and returns the same handle. A nil b behaves like Allocate.
//
// If the new size cannot be satisfied, Reallocate returns an error and b is
// left untouched and still valid, with its budget charge unchanged.
func (c *Context) Reallocate(b *Block, n int) (*Block, error) {
	if b == nil {
		return c.Allocate(n)
	}
	c.mustBeLive("Reallocate")
	c.mustOwn(b, "Reallocate")
	if n < 0 {
		panic(fmt.Sprintf("alloc: negative allocation size %d", n))
	}
	old := len(b.region) - b.hdr
	region, err := c.backend.Realloc(b.region, n)
	if err != nil {
		c.stats.Failures++
		c.log.Debug("reallocation failed", "block", b.serial, "from", old, "to", n, "err", err)
		return nil, err
	}
	b.region = c.trim(region, n)
	c.stats.Reallocs++
	c.addLiveBytes(n - old)
	return b, nil
}

// Free releases b. A nil b is a no-op. Freeing a block owned by another
// context, or freeing twice, panics.
func (c *Context) Free(b *Block) {
	if b == nil {
		return
	}
	c.mustBeLive("Free")
	c.mustOwn(b, "Free")
	size := len(b.region) - b.hdr
	c.backend.Free(b.region)
	c.live.Delete(b)
	b.region = nil
	b.freed = true
	c.stats.Frees++
	c.stats.LiveBlocks--
	c.addLiveBytes(-size)
}

// Outstanding returns the live blocks in allocation order, including the slabs
// backing fixed-block pools.
func (c *Context) Outstanding() []*Block {
	out := make([]*Block, 0, c.live.Len())
	c.live.Ascend(func(b *Block) bool {
		out = append(out, b)
		return true
	})
	return out
}

// Stats returns a snapshot of the context's bookkeeping.
func (c *Context) Stats() Stats {
	s := c.stats
	if c.counters != nil {
		s.CounterRecords = c.counters.Live()
		s.CounterSlabs = c.counters.Slabs()
	}
	s.BytesUsed, s.BytesMax, _ = c.Budget()
	return s
}

// Destroy tears the context down. It panics if any block or counter record is
// still outstanding, or if a quota backend has not returned to zero usage.
func (c *Context) Destroy() {
	c.mustBeLive("Destroy")
	if c.counters != nil {
		if n := c.counters.Live(); n > 0 {
			panic(fmt.Sprintf("alloc: destroying context %s with %d outstanding counter records", c.id, n))
		}
		c.counters.Destroy()
		c.counters = nil
	}
	if n := c.live.Len(); n > 0 {
		panic(fmt.Sprintf("alloc: destroying context %s with %d outstanding blocks: %s", c.id, n, c.leakReport()))
	}
	if used, _, ok := c.Budget(); ok && used != 0 {
		panic(fmt.Sprintf("alloc: destroying context %s with %d quota bytes still charged", c.id, used))
	}
	c.destroyed = true
	c.log.Debug("context destroyed",
		"allocs", c.stats.Allocs, "frees", c.stats.Frees, "peak_bytes", c.stats.PeakBytes)
}

// Destroyed reports whether Destroy has run.
func (c *Context) Destroyed() bool { return c.destroyed }

func (c *Context) track(b *Block) {
	c.serial++
	b.serial = c.serial
	c.live.ReplaceOrInsert(b)
	c.stats.Allocs++
	c.stats.LiveBlocks++
	c.addLiveBytes(len(b.region) - b.hdr)
}

func (c *Context) addLiveBytes(delta int) {
	c.stats.LiveBytes += delta
	if c.stats.LiveBytes > c.stats.PeakBytes {
		c.stats.PeakBytes = c.stats.LiveBytes
	}
}

// trim validates a backend region and cuts it to header + n bytes.
func (c *Context) trim(region []byte, n int) []byte {
	want := c.backend.Overhead() + n
	if len(region) < want {
		panic(fmt.Sprintf("alloc: backend returned %d-byte region for %d-byte request", len(region), n))
	}
	return region[:want]
}

func (c *Context) leakReport() string {
	var names []string
	c.live.Ascend(func(b *Block) bool {
		names = append(names, b.String())
		return len(names) < maxLeakReport
	})
	if rest := c.live.Len() - len(names); rest > 0 {
		names = append(names, fmt.Sprintf("... %d more", rest))
	}
	return strings.Join(names, ", ")
}

func (c *Context) mustBeLive(op string) {
	if c.destroyed {
		panic(fmt.Sprintf("alloc: %s on destroyed context %s", op, c.id))
	}
}

func (c *Context) mustOwn(b *Block, op string) {
	if b.owner != c {
		panic(fmt.Sprintf("alloc: %s of block #%d owned by another context", op, b.serial))
	}
	if b.freed {
		panic(fmt.Sprintf("alloc: %s of already freed block #%d", op, b.serial))
	}
}
