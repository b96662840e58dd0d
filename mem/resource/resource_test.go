package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/testutil"
	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/refcount"
)

type fd int

type fdHandle = AutoResource[fd, *testutil.Collector[fd], MinusOne[fd]]

func Test_Resource_ScenarioD(t *testing.T) {
	ctx := alloc.New()
	col := testutil.NewCollector[int]()

	var r Handle[int, *testutil.Collector[int]]
	assert.True(t, r.IsNull())
	assert.Equal(t, 0, r.Get())
	assert.Equal(t, 0, r.UseCount())

	c := r.Clone()
	assert.True(t, c.IsNull())
	assert.Equal(t, 0, ctx.Stats().CounterRecords)

	c.Release()
	r.Release()
	assert.Equal(t, 0, col.Total())
	testutil.DestroyClean(t, ctx)
}

func Test_Resource_LastReleaseCollects(t *testing.T) {
	ctx := alloc.New()
	col := testutil.NewCollector[int]()

	r := NewHandle(ctx, 42, col)
	require.False(t, r.IsNull())
	assert.Equal(t, 1, ctx.Stats().CounterRecords)

	r2 := r.Clone()
	r3 := r2.Clone()
	assert.Equal(t, 3, r.UseCount())
	assert.Equal(t, 42, r3.Get())

	r.Release()
	r2.Release()
	assert.Equal(t, 0, col.Total())
	assert.True(t, r.IsNull())
	assert.Equal(t, 1, r3.UseCount())

	r3.Release()
	assert.Equal(t, []int{42}, col.Order())
	assert.Equal(t, 0, ctx.Stats().CounterRecords, "counter returned before collect")
	assert.Equal(t, 0, r3.Get())

	r3.Release()
	assert.Equal(t, 1, col.Total())
	testutil.DestroyClean(t, ctx)
}

func Test_Resource_CustomNullNeverAllocates(t *testing.T) {
	ctx := alloc.New()
	col := testutil.NewCollector[fd]()

	var empty fdHandle
	assert.Equal(t, fd(-1), empty.Get())

	r := New[MinusOne[fd]](ctx, fd(-1), col)
	assert.True(t, r.IsNull())
	assert.Equal(t, fd(-1), r.Get())
	assert.Equal(t, 0, ctx.Stats().CounterRecords)
	r.Release()
	assert.Equal(t, 0, col.Total())

	stdin := New[MinusOne[fd]](ctx, fd(0), col)
	assert.False(t, stdin.IsNull(), "0 is a valid descriptor")
	assert.Equal(t, 1, ctx.Stats().CounterRecords)
	stdin.Release()
	assert.Equal(t, 1, col.Count(fd(0)))
	assert.Equal(t, fd(-1), stdin.Get())

	testutil.DestroyClean(t, ctx)
}

func Test_Resource_Assign(t *testing.T) {
	ctx := alloc.New()
	col := testutil.NewCollector[fd]()

	a := New[MinusOne[fd]](ctx, fd(3), col)
	b := New[MinusOne[fd]](ctx, fd(4), col)

	a.Assign(a)
	assert.Equal(t, 1, a.UseCount())

	c := a.Clone()
	c.Assign(a)
	assert.Equal(t, 2, a.UseCount())

	c.Assign(b)
	assert.Equal(t, fd(4), c.Get())
	assert.Equal(t, 1, a.UseCount())
	assert.Equal(t, 2, b.UseCount())

	a.Assign(fdHandle{})
	assert.Equal(t, []fd{3}, col.Order())
	assert.True(t, a.IsNull())

	b.Release()
	c.Release()
	assert.Equal(t, []fd{3, 4}, col.Order())
	testutil.DestroyClean(t, ctx)
}

func Test_Resource_Detached(t *testing.T) {
	var closed []string
	r := NewHandle(nil, "font.ttf", refcount.FinalizerFunc[string](func(s string) {
		closed = append(closed, s)
	}))
	r2 := r.Clone()
	r.Release()
	r2.Release()
	assert.Equal(t, []string{"font.ttf"}, closed)
}

func Test_Resource_ExhaustedPanics(t *testing.T) {
	ctx := alloc.NewQuota(64)
	col := testutil.NewCollector[int]()

	require.Panics(t, func() { NewHandle(ctx, 1, col) })
	assert.Equal(t, 0, col.Total())
	testutil.DestroyClean(t, ctx)
}

func Test_Resource_StaleCopyPanics(t *testing.T) {
	col := testutil.NewCollector[int]()
	r := NewHandle(nil, 9, col)
	stale := r
	r.Release()
	require.Panics(t, func() { stale.Release() })
	assert.Equal(t, 1, col.Total())
}
