// Package refcount provides strong/weak reference counting over shared
// counter records.
//
// A UseCount keeps two counts. Strong references keep the payload alive; weak
// references keep only the record alive, so observers can ask whether the
// payload still exists. Both counts start at 1: the creator holds one strong
// reference and one implicit weak reference.
//
//	s := refcount.NewShared(conn, refcount.CloseFinalizer[*Conn]{})
//	w := s.Weak()
//	s.Release() // conn.Close() runs here
//
//	if _, ok := w.Lock(); !ok {
//	    // expired
//	}
//	w.Release() // record destroyed
//
// # Handles
//
// SharedCount and WeakCount are type-erased: the payload type lives only in
// the concrete record, and the only type-specific operation is finalization.
// Shared[T] and Weak[T] add typed access on top.
//
// Handles are plain values. Copying one does not retain; call Clone for another
// reference and Release to drop one. Release empties the handle it is called
// on, so a second Release is a no-op.
//
// # Failure Semantics
//
// Counter underflow, retaining a finalized payload and touching a destroyed
// record panic. Promoting an expired weak reference is not an error: Upgrade
// reports false and leaves the counts alone.
//
// # Thread Safety
//
// Counters are not atomic. All handles to one record must be used from one
// goroutine at a time.
package refcount
