package refcount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/testutil"
)

func Test_Ptr_GetAndLock(t *testing.T) {
	col := testutil.NewCollector[*font]()
	p := &font{name: "mono"}

	s := NewShared(p, col)
	assert.Same(t, p, s.Get())

	w := s.Weak()
	locked, ok := w.Lock()
	require.True(t, ok)
	assert.Equal(t, "mono", locked.Get().name)
	locked.Release()

	s2 := s.Clone()
	s.Release()
	got, ok := s2.TryGet()
	require.True(t, ok)
	assert.Same(t, p, got)

	s2.Release()
	assert.Equal(t, 1, col.Count(p))

	_, ok = s2.TryGet()
	assert.False(t, ok)
	require.Panics(t, func() { s2.Get() })

	_, ok = w.Lock()
	assert.False(t, ok)
	w2 := w.Clone()
	w.Release()
	w2.Release()
}

func Test_Ptr_Untyped(t *testing.T) {
	col := testutil.NewCollector[*font]()
	s := Shared[int]{NewSharedCount(&font{}, col)}
	_, ok := s.TryGet()
	assert.False(t, ok, "payload type mismatch")
	s.Release()
	assert.Equal(t, 1, col.Total())
}

func Test_Ptr_TypedAssign(t *testing.T) {
	col := testutil.NewCollector[*font]()
	p1, p2 := &font{name: "a"}, &font{name: "b"}
	a := NewShared(p1, col)
	b := NewShared(p2, col)
	wa, wb := a.Weak(), b.Weak()

	a.Assign(b)
	assert.Equal(t, []*font{p1}, col.Order())
	assert.Same(t, p2, a.Get())
	assert.Equal(t, 2, b.UseCount())

	wa.Assign(wb)
	got, ok := wa.Lock()
	require.True(t, ok)
	assert.Same(t, p2, got.Get())
	got.Release()

	a.Release()
	b.Release()
	wa.Release()
	wb.Release()
	assert.Equal(t, []*font{p1, p2}, col.Order())
}
