package refcount

import (
	"bytes"
	"errors"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/testutil"
	"github.com/joshuapare/memkit/mem/alloc"
)

type font struct {
	name string
}

func Test_Shared_ScenarioB(t *testing.T) {
	col := testutil.NewCollector[*font]()
	p := &font{name: "mono"}

	s1 := NewSharedCount(p, col)
	s2 := s1.Clone()
	assert.Equal(t, 2, s1.UseCount())

	s1.Release()
	assert.Equal(t, 0, col.Total())
	assert.Equal(t, 1, s2.UseCount())
	assert.True(t, s2.IsValid())

	s2.Release()
	assert.Equal(t, 1, col.Count(p))
	assert.Equal(t, 1, col.Total())
}

func Test_Shared_ScenarioC(t *testing.T) {
	col := testutil.NewCollector[*font]()
	p := &font{name: "serif"}

	s1 := NewSharedCount(p, col)
	w := s1.Weak()
	uc := s1.uc

	s1.Release()
	require.Equal(t, 1, col.Count(p))
	assert.True(t, w.Expired())
	assert.Equal(t, 1, w.WeakRefs())

	s3 := w.Promote()
	assert.False(t, s3.IsValid())
	assert.Equal(t, 0, uc.Strong(), "promotion of an expired record retains nothing")

	s3.Release()
	assert.Equal(t, 1, col.Total(), "no second finalize")

	w.Release()
	assert.True(t, uc.Destroyed())
	assert.Equal(t, 1, col.Total())
}

func Test_Shared_UpgradeLive(t *testing.T) {
	col := testutil.NewCollector[*font]()
	p := &font{}
	s := NewSharedCount(p, col)
	w := s.Weak()

	up, ok := w.Upgrade()
	require.True(t, ok)
	assert.True(t, up.Equal(s))
	assert.True(t, up.EqualWeak(w))
	assert.Equal(t, 2, s.UseCount())

	s.Release()
	assert.False(t, w.Expired())
	up.Release()
	assert.True(t, w.Expired())

	_, ok = w.Upgrade()
	assert.False(t, ok)
	w.Release()
	assert.Equal(t, 1, col.Count(p))
}

func Test_Shared_ReleaseTwiceIsNoop(t *testing.T) {
	col := testutil.NewCollector[*font]()
	s := NewSharedCount(&font{}, col)
	s.Release()
	s.Release()
	assert.Equal(t, 1, col.Total())
	assert.False(t, s.IsValid())
	assert.Equal(t, 0, s.UseCount())

	var empty SharedCount
	assert.False(t, empty.Clone().IsValid())
	assert.True(t, empty.Weak().Expired())
	var ew WeakCount
	ew.Release()
	assert.False(t, ew.Promote().IsValid())
}

func Test_Shared_Assign(t *testing.T) {
	col := testutil.NewCollector[*font]()
	p1, p2 := &font{name: "a"}, &font{name: "b"}
	a := NewSharedCount(p1, col)
	b := NewSharedCount(p2, col)

	a.Assign(a)
	assert.Equal(t, 1, a.UseCount(), "self-assignment is a no-op")

	c := a.Clone()
	c.Assign(a)
	assert.Equal(t, 2, a.UseCount(), "assigning an equal reference is a no-op")

	c.Assign(b)
	assert.True(t, c.Equal(b))
	assert.Equal(t, 1, a.UseCount())
	assert.Equal(t, 2, b.UseCount())

	a.Release()
	assert.Equal(t, []*font{p1}, col.Order())

	var d SharedCount
	d.Assign(c)
	assert.Equal(t, 3, b.UseCount())
	d.Assign(SharedCount{})
	assert.Equal(t, 2, b.UseCount())
	assert.False(t, d.IsValid())

	c.Release()
	b.Release()
	assert.Equal(t, []*font{p1, p2}, col.Order())
}

func Test_Weak_Assign(t *testing.T) {
	col := testutil.NewCollector[*font]()
	a := NewSharedCount(&font{}, col)
	b := NewSharedCount(&font{}, col)
	wa, wb := a.Weak(), b.Weak()

	wa.Assign(wa)
	assert.Equal(t, 2, wa.WeakRefs())

	w := wa.Clone()
	assert.True(t, w.Equal(wa))
	assert.Equal(t, 3, wa.WeakRefs())
	w.Assign(wb)
	assert.Equal(t, 2, wa.WeakRefs())
	assert.Equal(t, 3, wb.WeakRefs())
	assert.False(t, w.Equal(wa))

	a.Release()
	b.Release()
	for _, h := range []*WeakCount{&w, &wa, &wb} {
		h.Release()
	}
	assert.Equal(t, 2, col.Total())
}

func Test_Shared_ContextRecord(t *testing.T) {
	ctx := alloc.New()
	col := testutil.NewCollector[*font]()

	s, err := NewSharedCountIn(ctx, &font{}, col)
	require.NoError(t, err)
	require.False(t, s.uc.rec.Detached())
	assert.Equal(t, 1, ctx.Stats().CounterRecords)

	w := s.Weak()
	s.Release()
	assert.Equal(t, 1, ctx.Stats().CounterRecords, "weak keeps the record")
	w.Release()
	assert.Equal(t, 0, ctx.Stats().CounterRecords)
	assert.Equal(t, 1, col.Total())

	testutil.DestroyClean(t, ctx)
}

func Test_Shared_ContextExhausted(t *testing.T) {
	ctx := alloc.NewQuota(64)
	col := testutil.NewCollector[*font]()

	s, err := NewSharedCountIn(ctx, &font{}, col)
	require.ErrorIs(t, err, alloc.ErrQuotaExceeded)
	require.ErrorIs(t, err, alloc.ErrExhausted)
	assert.False(t, s.IsValid())
	assert.Equal(t, 0, col.Total())

	testutil.DestroyClean(t, ctx)
}

type closer struct {
	closed int
	err    error
}

func (c *closer) Close() error {
	c.closed++
	return c.err
}

func Test_Finalizer_Close(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	ok := &closer{}
	bad := &closer{err: errors.New("device busy")}
	s1 := NewShared(ok, CloseFinalizer[*closer]{Logger: logger})
	s2 := NewShared(bad, CloseFinalizer[*closer]{Logger: logger})

	s1.Release()
	assert.Equal(t, 1, ok.closed)
	assert.Empty(t, out.String())

	s2.Release()
	assert.Equal(t, 1, bad.closed)
	assert.Contains(t, out.String(), "device busy")
}

func Test_Finalizer_FreeBlock(t *testing.T) {
	ctx := alloc.New()
	b, err := ctx.Allocate(32)
	require.NoError(t, err)

	s, err := NewSharedIn(ctx, b, FreeBlock{Ctx: ctx})
	require.NoError(t, err)
	s2 := s.Clone()
	s.Release()
	assert.False(t, b.Freed())

	s2.Release()
	assert.True(t, b.Freed())
	testutil.DestroyClean(t, ctx)
}

func Test_Finalizer_Nop(t *testing.T) {
	s := NewShared(7, Nop[int]{})
	assert.Equal(t, 7, s.Get())
	s.Release()
	assert.False(t, s.IsValid())
}

// Any interleaving of clones, demotions, upgrades and releases finalizes the
// payload exactly once, when the last strong reference goes.
func Test_Shared_RandomHolders(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := range 50 {
		col := testutil.NewCollector[*font]()
		p := &font{}
		strongs := []SharedCount{NewSharedCount(p, col)}
		var weaks []WeakCount
		uc := strongs[0].uc

		for step := 0; step < 200 && (len(strongs) > 0 || len(weaks) > 0); step++ {
			switch op := rng.IntN(6); {
			case op == 0 && len(strongs) > 0:
				strongs = append(strongs, strongs[rng.IntN(len(strongs))].Clone())
			case op == 1 && len(strongs) > 0:
				i := rng.IntN(len(strongs))
				strongs[i].Release()
				strongs = append(strongs[:i], strongs[i+1:]...)
			case op == 2 && len(strongs) > 0:
				weaks = append(weaks, strongs[rng.IntN(len(strongs))].Weak())
			case op == 3 && len(weaks) > 0:
				weaks = append(weaks, weaks[rng.IntN(len(weaks))].Clone())
			case op == 4 && len(weaks) > 0:
				i := rng.IntN(len(weaks))
				weaks[i].Release()
				weaks = append(weaks[:i], weaks[i+1:]...)
			case op == 5 && len(weaks) > 0:
				if s, ok := weaks[rng.IntN(len(weaks))].Upgrade(); ok {
					strongs = append(strongs, s)
				} else {
					require.Empty(t, strongs, "round %d: upgrade failed with live strongs", round)
				}
			}

			if len(strongs) > 0 {
				require.Equal(t, 0, col.Total(), "round %d step %d", round, step)
				require.Equal(t, len(strongs), uc.Strong())
				require.Equal(t, len(weaks)+1, uc.Weak())
			} else {
				require.Equal(t, 1, col.Total(), "round %d step %d", round, step)
			}
		}

		for i := range strongs {
			strongs[i].Release()
		}
		for i := range weaks {
			weaks[i].Release()
		}
		require.Equal(t, 1, col.Count(p))
		require.True(t, uc.Destroyed())
	}
}
