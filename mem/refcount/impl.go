package refcount

// impl is the concrete record body owning one payload of type T with finalizer
// policy F. Finalizing collects the payload and zeroes the stored value, so a
// second attempt is detected instead of collecting twice.
type impl[T any, F Finalizer[T]] struct {
	payload T
	fin     F
	live    bool
}

func newImpl[T any, F Finalizer[T]](payload T, fin F) *impl[T, F] {
	return &impl[T, F]{payload: payload, fin: fin, live: true}
}

func (p *impl[T, F]) finalize() {
	if !p.live {
		panic("refcount: payload finalized twice")
	}
	p.live = false
	p.fin.Collect(p.payload)
	var zero T
	p.payload = zero
}

func (p *impl[T, F]) get() (T, bool) {
	return p.payload, p.live
}

// holder is implemented by every impl[T, F] for a given T.
type holder[T any] interface {
	get() (T, bool)
}
