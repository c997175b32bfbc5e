package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/brkalloc/heap/block"
)

func TestCheck_EmptyHeap(t *testing.T) {
	hp := newTestHeap(t)
	rep := assertInvariants(t, hp)
	assert.Zero(t, rep.Blocks)
	assert.Zero(t, rep.FirstBlock)
	assert.Equal(t, hp.Break(), rep.Break)
}

func TestCheck_Report(t *testing.T) {
	hp := newTestHeap(t)
	a := hp.Malloc(16)
	b := hp.Malloc(100)
	c := hp.Malloc(32)
	require.NotEqual(t, Nil, c)
	hp.Free(a)

	rep := assertInvariants(t, hp)
	assert.Equal(t, 3, rep.Blocks)
	assert.Equal(t, 2, rep.Used)
	assert.Equal(t, 1, rep.Free)
	assert.Equal(t, uintptr(112+32), rep.UsedBytes)
	assert.Equal(t, uintptr(16), rep.FreeBytes)
	assert.Equal(t, block.HeaderFor(a), rep.FirstBlock)
	assert.Equal(t, uintptr(3*block.HeaderSize+16+112+32), rep.HeapBytes)
	assert.Equal(t, b+112, block.HeaderFor(c))
}

func corruptHeader(t *testing.T, hp *Heap, p Ptr) block.Header {
	t.Helper()
	h, ok := hp.header(block.HeaderFor(p))
	require.True(t, ok)
	return h
}

func TestCheck_DetectsBadPrevLink(t *testing.T) {
	hp := newTestHeap(t)
	a := hp.Malloc(16)
	b := hp.Malloc(16)
	require.NotEqual(t, Nil, a)

	corruptHeader(t, hp, b).SetPrev(0)

	_, err := hp.Check()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
	var ie *InvariantError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, block.HeaderFor(b), ie.Addr)
}

func TestCheck_DetectsCycle(t *testing.T) {
	hp := newTestHeap(t)
	a := hp.Malloc(16)
	b := hp.Malloc(16)
	require.NotEqual(t, Nil, b)

	corruptHeader(t, hp, b).SetNext(block.HeaderFor(a))

	_, err := hp.Check()
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestCheck_DetectsOversizedBlock(t *testing.T) {
	hp := newTestHeap(t)
	a := hp.Malloc(16)
	require.NotEqual(t, Nil, a)

	corruptHeader(t, hp, a).SetSize(1 << 20)

	_, err := hp.Check()
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestCheck_DetectsForeignBreakMove(t *testing.T) {
	hp, seg := newFlakyHeap(t, 1<<20)
	require.NotEqual(t, Nil, hp.Malloc(16))

	// Growing the region behind the heap's back breaks tail == break.
	_, err := seg.Sbrk(64)
	require.NoError(t, err)

	_, err = hp.Check()
	require.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "break")
}

func TestCheck_DetectsTailMismatch(t *testing.T) {
	hp := newTestHeap(t)
	a := hp.Malloc(16)
	require.NotEqual(t, Nil, hp.Malloc(16))

	hp.mu.Lock()
	hp.tail = block.HeaderFor(a)
	hp.mu.Unlock()

	_, err := hp.Check()
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestWalk_VisitsInAddressOrder(t *testing.T) {
	hp := newTestHeap(t)
	var ptrs []Ptr
	for _, n := range []uint{16, 48, 32, 64} {
		ptrs = append(ptrs, hp.Malloc(n))
	}
	hp.Free(ptrs[1])

	var seen []BlockInfo
	hp.Walk(func(b BlockInfo) bool {
		seen = append(seen, b)
		return true
	})
	require.Len(t, seen, 4)
	for i, b := range seen {
		assert.Equal(t, ptrs[i], b.Payload)
		assert.Equal(t, block.HeaderFor(ptrs[i]), b.Addr)
		assert.Equal(t, i == 1, b.Free)
	}
	assert.Equal(t, uintptr(48), seen[1].Size)

	count := 0
	hp.Walk(func(BlockInfo) bool {
		count++
		return count < 2
	})
	assert.Equal(t, 2, count, "Walk stops when fn returns false")
}

func TestWalk_CallbackMayUseHeap(t *testing.T) {
	hp := newTestHeap(t)
	p := hp.Malloc(16)
	require.NotEqual(t, Nil, p)

	hp.Walk(func(b BlockInfo) bool {
		hp.Free(b.Payload) // would deadlock if Walk held the lock
		return true
	})
	rep := assertInvariants(t, hp)
	assert.Zero(t, rep.Blocks)
}
