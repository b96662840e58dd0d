package refcount

import (
	"fmt"

	"github.com/joshuapare/memkit/mem/alloc"
)

// Cells of the counter record behind a UseCount.
const (
	strongCell = 0
	weakCell   = 1
)

// payload is the finalize capability a UseCount delegates to. The base record
// holds no payload of its own.
type payload interface {
	finalize()
}

// UseCount is the dual-counter finalization primitive. Both counts start at 1:
// the creator holds one implicit strong and one implicit weak reference.
//
// Strong reaching zero finalizes the payload exactly once and then releases the
// creator's implicit weak reference. Weak reaching zero destroys the record and
// returns its counter record to its pool. Driving either count below zero,
// resurrecting a finalized payload, or touching a destroyed record panics.
//
// NOT thread-safe.
type UseCount struct {
	rec  *alloc.CounterRecord
	body payload
	dead bool
}

// funcPayload finalizes by calling a function.
type funcPayload func()

func (f funcPayload) finalize() { f() }

// NewUseCount returns a standalone record whose finalize step calls fn.
// Counters are kept in a detached counter record.
func NewUseCount(fn func()) *UseCount {
	return newUseCount(alloc.NewDetachedCounterRecord(), funcPayload(fn))
}

func newUseCount(rec *alloc.CounterRecord, body payload) *UseCount {
	rec.Store(strongCell, 1)
	rec.Store(weakCell, 1)
	return &UseCount{rec: rec, body: body}
}

// RetainStrong adds a strong reference.
func (u *UseCount) RetainStrong() {
	u.mustBeLive("RetainStrong")
	if u.rec.Load(strongCell) <= 0 {
		panic("refcount: RetainStrong on a finalized payload")
	}
	u.rec.Add(strongCell, 1)
}

// ReleaseStrong drops a strong reference. The last one finalizes the payload and
// then releases the creator's weak reference.
func (u *UseCount) ReleaseStrong() {
	u.mustBeLive("ReleaseStrong")
	if u.rec.Load(strongCell) <= 0 {
		panic("refcount: strong count underflow")
	}
	if u.rec.Add(strongCell, -1) == 0 {
		u.body.finalize()
		u.ReleaseWeak()
	}
}

// RetainWeak adds a weak reference.
func (u *UseCount) RetainWeak() {
	u.mustBeLive("RetainWeak")
	u.rec.Add(weakCell, 1)
}

// ReleaseWeak drops a weak reference. The last one destroys the record.
func (u *UseCount) ReleaseWeak() {
	u.mustBeLive("ReleaseWeak")
	w := u.rec.Load(weakCell)
	if w <= 0 {
		panic("refcount: weak count underflow")
	}
	if s := u.rec.Load(strongCell); w == 1 && s > 0 {
		panic(fmt.Sprintf("refcount: releasing last weak reference with %d strong references", s))
	}
	if u.rec.Add(weakCell, -1) > 0 {
		return
	}
	u.rec.Free()
	u.rec = nil
	u.body = nil
	u.dead = true
}

// IsValid reports whether the payload is still alive (strong > 0).
func (u *UseCount) IsValid() bool {
	return !u.dead && u.rec.Load(strongCell) > 0
}

// Strong returns the strong count, 0 once the record is destroyed.
func (u *UseCount) Strong() int {
	if u.dead {
		return 0
	}
	return int(u.rec.Load(strongCell))
}

// Weak returns the weak count, 0 once the record is destroyed.
func (u *UseCount) Weak() int {
	if u.dead {
		return 0
	}
	return int(u.rec.Load(weakCell))
}

// Destroyed reports whether the weak count has reached zero.
func (u *UseCount) Destroyed() bool { return u.dead }

func (u *UseCount) mustBeLive(op string) {
	if u.dead {
		panic(fmt.Sprintf("refcount: %s on destroyed record", op))
	}
}
