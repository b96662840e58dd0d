package testutil

import (
	"testing"

	"github.com/joshuapare/memkit/mem/alloc"
)

// DestroyClean asserts ctx has no outstanding blocks or counter records, then
// destroys it.
func DestroyClean(t testing.TB, ctx *alloc.Context) {
	t.Helper()
	s := ctx.Stats()
	if s.CounterRecords != 0 {
		t.Fatalf("context %s: %d counter records still outstanding", ctx.ID(), s.CounterRecords)
	}
	// Counter pool slabs are released by Destroy itself.
	if leaked := s.LiveBlocks - s.CounterSlabs; leaked != 0 {
		t.Fatalf("context %s: %d blocks still outstanding", ctx.ID(), leaked)
	}
	ctx.Destroy()
}
