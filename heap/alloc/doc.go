// Package alloc provides a first-fit free-list allocator over a growable
// memory region.
//
// # Overview
//
// Every allocation is a block: a 32-byte header followed by a 16-byte aligned
// payload. All blocks, used and free, form one address-ordered, doubly linked
// chain from head to tail, and the tail always ends exactly at the region's
// break.
//
// # Allocation
//
// Malloc walks the chain from the head and reuses the first free block whose
// payload is large enough. The block is handed out whole: oversized free
// blocks are not split. When no block fits, the break is moved up by one
// header plus the rounded request and the new block becomes the tail.
//
// # Release
//
// Free marks a block free in place. If the block is the tail, the break is
// moved back down instead and the block disappears. Adjacent free blocks are
// never merged, so a long-lived heap can fragment.
//
// # Usage Example
//
//	hp, err := alloc.Open(&alloc.Options{Capacity: 64 << 20})
//	if err != nil {
//	    return err
//	}
//	defer hp.Close()
//
//	p := hp.Malloc(128)
//	if p == alloc.Nil {
//	    // out of memory
//	}
//	copy(hp.Bytes(p), "hello")
//	p = hp.Realloc(p, 4096)
//	hp.Free(p)
//
// # Failure
//
// None of the four entry points return errors. Zero-size requests, size
// overflow and an exhausted region all return Nil and leave the heap as it was.
// Releasing a pointer twice or releasing a pointer this heap did not return is
// undefined behavior and is not detected.
//
// # Thread Safety
//
// A Heap is safe for concurrent use. Every exported method holds one mutex for
// its whole duration, so calls from all goroutines behave as if executed one
// at a time in some total order.
//
// # Related Packages
//
//   - github.com/joshuapare/brkalloc/heap/brk: the growth primitive
//   - github.com/joshuapare/brkalloc/heap/block: header encoding
//   - github.com/joshuapare/brkalloc/pkg/malloc: process-wide default heap
package alloc
