package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealloc_NilActsAsMalloc(t *testing.T) {
	hp := newTestHeap(t)
	p := hp.Realloc(Nil, 100)
	require.NotEqual(t, Nil, p)
	assert.GreaterOrEqual(t, hp.UsableSize(p), uint(100))

	assert.Equal(t, Nil, hp.Realloc(Nil, 0))
}

func TestRealloc_ZeroSizeFrees(t *testing.T) {
	hp := newTestHeap(t)
	start := hp.Break()
	p := hp.Malloc(100)
	require.NotEqual(t, Nil, p)

	assert.Equal(t, Nil, hp.Realloc(p, 0))
	assert.Equal(t, start, hp.Break())
	assert.Zero(t, hp.Stats().LiveBlocks)
}

func TestRealloc_ShrinkKeepsPointer(t *testing.T) {
	hp := newTestHeap(t)
	p := hp.Malloc(500)
	require.NotEqual(t, Nil, p)
	fillPattern(t, hp, p, 500, 3)

	assert.Equal(t, p, hp.Realloc(p, 10))
	assert.Equal(t, p, hp.Realloc(p, 500))
	assert.Equal(t, p, hp.Realloc(p, 512), "rounded capacity is usable")
	assert.Equal(t, uint(512), hp.UsableSize(p), "no shrink-to-fit")
	requirePattern(t, hp, p, 500, 3)
	assert.Equal(t, int64(3), hp.Stats().ReallocInPlace)
}

func TestRealloc_GrowPreservesPrefix(t *testing.T) {
	hp := newTestHeap(t)
	p := hp.Malloc(100)
	guard := hp.Malloc(16)
	require.NotEqual(t, Nil, guard)
	fillPattern(t, hp, p, 100, 0x11)

	q := hp.Realloc(p, 5000)
	require.NotEqual(t, Nil, q)
	require.NotEqual(t, p, q)
	requirePattern(t, hp, q, 100, 0x11)
	assert.GreaterOrEqual(t, hp.UsableSize(q), uint(5000))

	rep := assertInvariants(t, hp)
	assert.Equal(t, 1, rep.Free, "old block released")
	assert.Equal(t, int64(1), hp.Stats().ReallocMoved)
}

func TestRealloc_GrowTailBlock(t *testing.T) {
	hp := newTestHeap(t)
	start := hp.Break()
	p := hp.Malloc(64)
	fillPattern(t, hp, p, 64, 0x40)

	q := hp.Realloc(p, 128)
	require.NotEqual(t, Nil, q)
	requirePattern(t, hp, q, 64, 0x40)

	hp.Free(q)
	rep := assertInvariants(t, hp)
	assert.Equal(t, 1, rep.Blocks, "the old block is left as a free head")
	hp.Free(hp.Malloc(64))
	assert.Equal(t, start, hp.Break(), "reused head released from the tail")
}

func TestRealloc_FailureKeepsOriginal(t *testing.T) {
	hp, seg := newFlakyHeap(t, 1<<20)
	p := hp.Malloc(200)
	require.NotEqual(t, Nil, p)
	fillPattern(t, hp, p, 200, 0x77)
	before := assertInvariants(t, hp)

	seg.failGrow = true
	assert.Equal(t, Nil, hp.Realloc(p, 10000))

	requirePattern(t, hp, p, 200, 0x77)
	assert.Equal(t, uint(208), hp.UsableSize(p))
	after := assertInvariants(t, hp)
	assert.Equal(t, before, after)

	seg.failGrow = false
	q := hp.Realloc(p, 10000)
	require.NotEqual(t, Nil, q)
	requirePattern(t, hp, q, 200, 0x77)
}

func TestRealloc_MovesIntoEarlierFreeBlock(t *testing.T) {
	hp := newTestHeap(t)
	hole := hp.Malloc(1024)
	p := hp.Malloc(64)
	require.NotEqual(t, Nil, p)
	hp.Free(hole)
	fillPattern(t, hp, p, 64, 0x21)

	q := hp.Realloc(p, 512)
	assert.Equal(t, hole, q)
	requirePattern(t, hp, q, 64, 0x21)

	rep := assertInvariants(t, hp)
	assert.Equal(t, 1, rep.Blocks, "p was the tail and was trimmed")
}
