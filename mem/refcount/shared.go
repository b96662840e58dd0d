package refcount

import (
	"fmt"

	"github.com/joshuapare/memkit/mem/alloc"
)

// SharedCount is a strong reference to a type-erased UseCount record. The zero
// SharedCount is empty and invalid.
//
// Go copies do not retain: duplicate a reference with Clone and drop it with
// Release. Release clears the handle, so releasing it again is a no-op.
type SharedCount struct {
	uc *UseCount
}

// NewSharedCount wraps payload in a fresh record with strong=1 and weak=1,
// keeping the counters in a detached counter record.
func NewSharedCount[T any, F Finalizer[T]](payload T, fin F) SharedCount {
	return SharedCount{uc: newUseCount(alloc.NewDetachedCounterRecord(), newImpl(payload, fin))}
}

// NewSharedCountIn is NewSharedCount with the counters carved from ctx's
// counter pool. It fails only when ctx cannot supply a counter record.
func NewSharedCountIn[T any, F Finalizer[T]](ctx *alloc.Context, payload T, fin F) (SharedCount, error) {
	rec, err := ctx.AllocCounterRecord()
	if err != nil {
		return SharedCount{}, fmt.Errorf("refcount: shared count: %w", err)
	}
	return SharedCount{uc: newUseCount(rec, newImpl(payload, fin))}, nil
}

// Clone retains another strong reference to the same record.
func (s SharedCount) Clone() SharedCount {
	if s.uc == nil {
		return SharedCount{}
	}
	s.uc.RetainStrong()
	return s
}

// Release drops the strong reference held by s and empties it.
func (s *SharedCount) Release() {
	if s.uc == nil {
		return
	}
	uc := s.uc
	s.uc = nil
	uc.ReleaseStrong()
}

// Assign makes s reference the same record as other. Assigning the record s
// already holds changes nothing.
func (s *SharedCount) Assign(other SharedCount) {
	if s.uc == other.uc {
		return
	}
	s.Release()
	if other.uc != nil {
		other.uc.RetainStrong()
	}
	s.uc = other.uc
}

// Weak demotes s to a new weak reference. s keeps its own strong reference.
func (s SharedCount) Weak() WeakCount {
	if s.uc == nil {
		return WeakCount{}
	}
	s.uc.RetainWeak()
	return WeakCount{uc: s.uc}
}

// IsValid reports whether s references a live payload.
func (s SharedCount) IsValid() bool {
	return s.uc != nil && s.uc.IsValid()
}

// UseCount returns the strong count of the referenced record, 0 when empty.
func (s SharedCount) UseCount() int {
	if s.uc == nil {
		return 0
	}
	return s.uc.Strong()
}

// Equal reports whether s and other reference the same record.
func (s SharedCount) Equal(other SharedCount) bool { return s.uc == other.uc }

// EqualWeak reports whether s and w reference the same record.
func (s SharedCount) EqualWeak(w WeakCount) bool { return s.uc == w.uc }

// WeakCount is a weak reference: it keeps the record alive but not the payload.
// The zero WeakCount is empty and expired.
type WeakCount struct {
	uc *UseCount
}

// Clone retains another weak reference to the same record.
func (w WeakCount) Clone() WeakCount {
	if w.uc == nil {
		return WeakCount{}
	}
	w.uc.RetainWeak()
	return w
}

// Release drops the weak reference held by w and empties it.
func (w *WeakCount) Release() {
	if w.uc == nil {
		return
	}
	uc := w.uc
	w.uc = nil
	uc.ReleaseWeak()
}

// Assign makes w reference the same record as other.
func (w *WeakCount) Assign(other WeakCount) {
	if w.uc == other.uc {
		return
	}
	w.Release()
	if other.uc != nil {
		other.uc.RetainWeak()
	}
	w.uc = other.uc
}

// Upgrade returns a new strong reference if the payload is still alive. When it
// has already been finalized, Upgrade returns an empty handle and false without
// touching the counts.
func (w WeakCount) Upgrade() (SharedCount, bool) {
	if w.uc == nil || !w.uc.IsValid() {
		return SharedCount{}, false
	}
	w.uc.RetainStrong()
	return SharedCount{uc: w.uc}, true
}

// Promote is Upgrade without the flag; check IsValid on the result.
func (w WeakCount) Promote() SharedCount {
	s, _ := w.Upgrade()
	return s
}

// Expired reports whether the payload has been finalized (or w is empty).
func (w WeakCount) Expired() bool {
	return w.uc == nil || !w.uc.IsValid()
}

// WeakRefs returns the weak count of the referenced record, 0 when empty.
func (w WeakCount) WeakRefs() int {
	if w.uc == nil {
		return 0
	}
	return w.uc.Weak()
}

// Equal reports whether w and other reference the same record.
func (w WeakCount) Equal(other WeakCount) bool { return w.uc == other.uc }
