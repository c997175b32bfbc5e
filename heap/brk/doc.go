// Package brk provides the heap-growth primitive the allocator sits on: a
// reserved, contiguous range of address space whose accessible prefix is
// moved up and down by a break cursor, in the manner of sbrk(2).
//
// # Overview
//
// Reserve asks the operating system for a range of virtual addresses without
// backing it with memory. Sbrk then moves the break:
//
//	r, err := brk.Reserve(64 << 20)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	prev, err := r.Sbrk(4096)  // extend; prev is the old break
//	cur, _ := r.Sbrk(0)        // peek
//	_, err = r.Sbrk(-4096)     // shrink back
//
// Pages are made accessible as the break crosses them and handed back to the
// OS (and made inaccessible again) when a shrink uncovers whole pages, so a
// released page reads as zero when it is grown into again.
//
// # Failure
//
// A request that cannot be satisfied returns an error wrapping ErrNoMemory
// and leaves the break where it was.
//
// # Thread Safety
//
// Region is not thread-safe. The allocator holds its own lock around every
// call; nothing else may move the break of a region an allocator owns.
package brk
