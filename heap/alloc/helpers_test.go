package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/brkalloc/heap/block"
	"github.com/joshuapare/brkalloc/heap/brk"
	"github.com/joshuapare/brkalloc/internal/testutil"
)

// testCapacity is large enough for every unit test; stress tests pick their own.
const testCapacity = 16 << 20

// newTestHeap opens a heap over a private region closed at test cleanup.
func newTestHeap(t testing.TB) *Heap {
	t.Helper()
	hp, err := Open(&Options{Capacity: testCapacity})
	require.NoError(t, err)
	t.Cleanup(func() { _ = hp.Close() })
	return hp
}

// flakySegment wraps a region and refuses to grow or shrink on demand.
type flakySegment struct {
	*brk.Region
	failGrow   bool
	failShrink bool
	grows      int
}

func (s *flakySegment) Sbrk(delta int) (uintptr, error) {
	if delta > 0 && s.failGrow {
		return 0, brk.ErrNoMemory
	}
	if delta < 0 && s.failShrink {
		return 0, brk.ErrBadDelta
	}
	if delta > 0 {
		s.grows++
	}
	return s.Region.Sbrk(delta)
}

// newFlakyHeap returns a heap over a flakySegment the test can toggle.
func newFlakyHeap(t testing.TB, capacity int) (*Heap, *flakySegment) {
	t.Helper()
	r, err := brk.Reserve(capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	seg := &flakySegment{Region: r}
	return New(seg, nil), seg
}

// assertInvariants runs Check and fails the test on any violation.
func assertInvariants(t testing.TB, hp *Heap) Report {
	t.Helper()
	rep, err := hp.Check()
	require.NoError(t, err)
	return rep
}

// fillPattern writes a pattern derived from seed into the first n bytes at p.
func fillPattern(t testing.TB, hp *Heap, p Ptr, n int, seed byte) {
	t.Helper()
	b := hp.Bytes(p)
	require.GreaterOrEqual(t, len(b), n)
	testutil.Fill(b, n, seed)
}

// requirePattern checks the pattern written by fillPattern.
func requirePattern(t testing.TB, hp *Heap, p Ptr, n int, seed byte) {
	t.Helper()
	b := hp.Bytes(p)
	require.GreaterOrEqual(t, len(b), n)
	if i := testutil.Mismatch(b, n, seed); i >= 0 {
		t.Fatalf("payload at 0x%X differs from pattern 0x%X at byte %d", p, seed, i)
	}
}

// blockSpan returns the [start, end) range a live pointer's block occupies.
func blockSpan(hp *Heap, p Ptr) (uintptr, uintptr) {
	return block.HeaderFor(p), p + uintptr(hp.UsableSize(p))
}
