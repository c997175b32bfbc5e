package alloc

import "log/slog"

// Ptr is the address of a payload handed out by a Heap.
type Ptr = uintptr

// Nil is the null pointer returned when a request cannot be satisfied.
const Nil Ptr = 0

// DefaultCapacity is the reservation made by Open when Options.Capacity is 0.
const DefaultCapacity = 256 << 20

// Segment is the growth primitive a Heap allocates from. brk.Region is the
// production implementation.
type Segment interface {
	// Sbrk moves the break by delta bytes and returns the previous break.
	// Zero delta only reports the break. A failed call must not move it.
	Sbrk(delta int) (uintptr, error)

	// Slice returns the bytes in [addr, addr+n) if they lie below the break.
	Slice(addr uintptr, n int) ([]byte, bool)
}

// Options configures a Heap. A nil *Options selects the defaults.
type Options struct {
	// Capacity is the number of bytes Open reserves. Ignored by New.
	Capacity int

	// Logger receives debug records for growth and trimming. Nil discards.
	Logger *slog.Logger
}

// Stats holds allocator counters. All values are cumulative except the
// Live* fields.
type Stats struct {
	MallocCalls  int64
	FreeCalls    int64
	CallocCalls  int64
	ReallocCalls int64

	Reused   int64 // requests satisfied from a free block
	Grown    int64 // requests satisfied by moving the break up
	Failures int64 // requests that returned Nil for lack of memory or oversize
	Overflow int64 // Calloc requests rejected for count*size overflow

	ReallocInPlace int64 // Realloc calls that kept the same block
	ReallocMoved   int64 // Realloc calls that copied to a new block

	Trims          int64 // trailing blocks returned to the region
	TrimFailures   int64 // trailing blocks kept because the shrink failed
	GrowBytes      int64 // bytes added to the break, headers included
	TrimBytes      int64 // bytes removed from the break, headers included
	LiveBlocks     int64 // blocks currently handed out
	LivePayload    int64 // payload bytes currently handed out
	FreeListBlocks int64 // free blocks still linked in the chain
}

// BlockInfo is a snapshot of one block, as reported by Walk.
type BlockInfo struct {
	Addr    uintptr // header address
	Payload Ptr     // payload address
	Size    uintptr // payload size
	Free    bool
}

// Report summarizes a successful Check.
type Report struct {
	Blocks     int
	Used       int
	Free       int
	UsedBytes  uintptr // payload bytes in used blocks
	FreeBytes  uintptr // payload bytes in free blocks
	HeapBytes  uintptr // head to break, headers included
	FirstBlock uintptr
	Break      uintptr
}
