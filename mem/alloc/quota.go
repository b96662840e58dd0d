package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/buf"
)

// Quota is a budget-enforcing backend. Every region it hands out starts with a
// HeaderSize-byte header holding the exact usable size, and every allocation is
// charged n + HeaderSize against the budget.
//
// Invariant: BytesUsed() <= BytesMax() before and after every call. A request
// that would break it fails with ErrQuotaExceeded and changes nothing.
//
// Quota is not safe for concurrent use.
type Quota struct {
	src       Backend
	bytesUsed int
	bytesMax  int
}

// NewQuotaBackend returns a Quota backend with the given budget drawing regions from src.
// A nil src selects a System backend with default settings. bytesMax must be positive.
func NewQuotaBackend(bytesMax int, src Backend) *Quota {
	if bytesMax <= 0 {
		panic(fmt.Sprintf("alloc: quota budget must be positive, got %d", bytesMax))
	}
	if src == nil {
		src = NewSystemBackend(0)
	}
	return &Quota{src: src, bytesMax: bytesMax}
}

// BytesUsed reports the bytes charged against the budget, headers included.
func (q *Quota) BytesUsed() int { return q.bytesUsed }

// BytesMax reports the immutable budget.
func (q *Quota) BytesMax() int { return q.bytesMax }

// Overhead implements Backend.
func (q *Quota) Overhead() int { return q.src.Overhead() + HeaderSize }

// Alloc implements Backend.
func (q *Quota) Alloc(n int) ([]byte, error) {
	charge, err := q.willConsume(n)
	if err != nil {
		return nil, err
	}
	region, err := q.src.Alloc(charge)
	if err != nil {
		return nil, err
	}
	q.bytesUsed += charge
	q.setHeader(region, n)
	return region, nil
}

// Realloc implements Backend. The old region's charge is released before the
// budget check and restored if the new size does not fit.
func (q *Quota) Realloc(p []byte, n int) ([]byte, error) {
	oldCharge := q.header(p) + HeaderSize
	q.bytesUsed -= oldCharge

	charge, err := q.willConsume(n)
	if err != nil {
		q.bytesUsed += oldCharge
		return nil, err
	}
	region, err := q.src.Realloc(p, charge)
	if err != nil {
		q.bytesUsed += oldCharge
		return nil, err
	}
	q.bytesUsed += charge
	q.setHeader(region, n)
	return region, nil
}

// Free implements Backend.
func (q *Quota) Free(p []byte) {
	q.bytesUsed -= q.header(p) + HeaderSize
	if q.bytesUsed < 0 {
		panic(fmt.Sprintf("alloc: quota accounting underflow (%d bytes in use)", q.bytesUsed))
	}
	q.src.Free(p)
}

// willConsume returns the charge for an n-byte request, or ErrQuotaExceeded.
func (q *Quota) willConsume(n int) (int, error) {
	charge, ok := buf.AddOverflowSafe(n, HeaderSize)
	if ok {
		var total int
		total, ok = buf.AddOverflowSafe(q.bytesUsed, charge)
		ok = ok && total <= q.bytesMax
	}
	if !ok {
		return 0, fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			ErrQuotaExceeded, n, q.bytesUsed, q.bytesMax)
	}
	return charge, nil
}

func (q *Quota) setHeader(region []byte, n int) {
	hdr, _ := buf.Slice(region, q.src.Overhead(), HeaderSize)
	buf.PutU64LE(hdr, uint64(n))
}

func (q *Quota) header(region []byte) int {
	hdr, ok := buf.Slice(region, q.src.Overhead(), HeaderSize)
	if !ok {
		panic(fmt.Sprintf("alloc: %d-byte region has no quota header", len(region)))
	}
	return int(buf.U64LE(hdr))
}
