package resource

// NullResource is the policy naming the sentinel value that means "no
// resource". Implementations are stateless; their zero value is used.
type NullResource[T any] interface {
	Value() T
}

// Zero uses T's zero value as the null sentinel.
type Zero[T any] struct{}

// Value returns the zero T.
func (Zero[T]) Value() T {
	var zero T
	return zero
}

// MinusOne uses -1 as the null sentinel, for descriptor-like handles where 0
// is a valid resource.
type MinusOne[T ~int | ~int32 | ~int64] struct{}

// Value returns -1.
func (MinusOne[T]) Value() T { return -1 }
