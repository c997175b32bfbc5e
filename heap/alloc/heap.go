package alloc

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/joshuapare/brkalloc/heap/block"
	"github.com/joshuapare/brkalloc/heap/brk"
	"github.com/joshuapare/brkalloc/internal/buf"
	"github.com/joshuapare/brkalloc/internal/format"
)

// maxRequest is the largest payload that still leaves room for the header
// and alignment padding in an int-sized break delta.
const maxRequest = uint(math.MaxInt) - block.HeaderSize - format.Alignment

// Heap is a first-fit allocator over one Segment.
//
// Invariants (while mu is not held by a mutator):
//   - blocks from head to tail are address-ascending and contiguous
//   - the end of tail's payload equals the segment's break
//   - head == 0 iff tail == 0
type Heap struct {
	mu sync.Mutex

	seg    Segment
	closer io.Closer // set when the heap owns seg

	head uintptr
	tail uintptr

	log   *slog.Logger
	stats Stats
}

// New creates a heap that allocates from seg, starting at seg's current
// break. Nothing else may move seg's break while the heap is in use.
func New(seg Segment, opts *Options) *Heap {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Heap{
		seg: seg,
		log: logger,
	}
}

// Open reserves a fresh region of opts.Capacity bytes (DefaultCapacity if 0)
// and returns a heap that owns it. Close releases the region.
func Open(opts *Options) (*Heap, error) {
	capacity := DefaultCapacity
	if opts != nil && opts.Capacity > 0 {
		capacity = opts.Capacity
	}
	r, err := brk.Reserve(capacity)
	if err != nil {
		return nil, err
	}
	hp := New(r, opts)
	hp.closer = r
	return hp, nil
}

// Close releases the region if the heap owns it. Every pointer from this heap
// is invalid afterwards; later calls behave as if the region were exhausted.
func (hp *Heap) Close() error {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	hp.head, hp.tail = 0, 0
	hp.stats.LiveBlocks, hp.stats.LivePayload, hp.stats.FreeListBlocks = 0, 0, 0
	if hp.closer == nil {
		return nil
	}
	err := hp.closer.Close()
	hp.closer = nil
	return err
}

// Malloc returns a pointer to at least size writable bytes, disjoint from
// every other live allocation, or Nil when size is 0 or memory is exhausted.
func (hp *Heap) Malloc(size uint) Ptr {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	hp.stats.MallocCalls++
	return hp.allocLocked(size)
}

// Free releases p. Free(Nil) is a no-op. p must have come from this heap and
// must not have been released already.
func (hp *Heap) Free(p Ptr) {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	hp.stats.FreeCalls++
	hp.releaseLocked(p)
}

// Calloc allocates count*size zeroed bytes. It returns Nil if either argument
// is 0, if the product overflows, or if memory is exhausted. An overflowing
// request never touches the region.
func (hp *Heap) Calloc(count, size uint) Ptr {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	hp.stats.CallocCalls++
	if count == 0 || size == 0 {
		return Nil
	}
	total, ok := buf.MulOverflow(count, size)
	if !ok {
		hp.stats.Overflow++
		return Nil
	}
	p := hp.allocLocked(total)
	if p == Nil {
		return Nil
	}
	// Reused blocks carry the previous owner's bytes.
	if b, ok := hp.seg.Slice(p, int(total)); ok {
		clear(b)
	}
	return p
}

// Realloc resizes the allocation at p to size bytes.
//
//   - p == Nil behaves as Malloc(size).
//   - size == 0 frees p and returns Nil.
//   - If the block already holds size bytes, p is returned unchanged.
//   - Otherwise the contents move to a new block and p is freed. If no new
//     block can be had, Nil is returned and p stays valid and untouched.
func (hp *Heap) Realloc(p Ptr, size uint) Ptr {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	hp.stats.ReallocCalls++
	if p == Nil {
		return hp.allocLocked(size)
	}
	if size == 0 {
		hp.releaseLocked(p)
		return Nil
	}

	h, ok := hp.header(block.HeaderFor(p))
	if !ok {
		return Nil
	}
	old := h.Size()
	if uint(old) >= size {
		hp.stats.ReallocInPlace++
		return p
	}

	np := hp.allocLocked(size)
	if np == Nil {
		return Nil
	}
	src, _ := hp.seg.Slice(p, int(old))
	dst, _ := hp.seg.Slice(np, int(old))
	copy(dst, src)
	hp.releaseLocked(p)
	hp.stats.ReallocMoved++
	return np
}

// UsableSize returns the payload size of the block at p, which is at least
// the size requested for it. It returns 0 for Nil.
func (hp *Heap) UsableSize(p Ptr) uint {
	if p == Nil {
		return 0
	}
	hp.mu.Lock()
	defer hp.mu.Unlock()

	h, ok := hp.header(block.HeaderFor(p))
	if !ok {
		return 0
	}
	return uint(h.Size())
}

// Bytes returns the payload of the block at p as a slice of UsableSize(p)
// bytes. The slice aliases heap memory and is invalid once p is freed.
func (hp *Heap) Bytes(p Ptr) []byte {
	if p == Nil {
		return nil
	}
	hp.mu.Lock()
	defer hp.mu.Unlock()

	h, ok := hp.header(block.HeaderFor(p))
	if !ok {
		return nil
	}
	b, _ := hp.seg.Slice(p, int(h.Size()))
	return b
}

// Break returns the segment's current break.
func (hp *Heap) Break() uintptr {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	cur, err := hp.seg.Sbrk(0)
	if err != nil {
		return 0
	}
	return cur
}

// Stats returns a copy of the heap's counters.
func (hp *Heap) Stats() Stats {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	return hp.stats
}
