/*
Package malloc is the conventional four-function allocator surface over one
process-wide heap.

# Quick Start

	p := malloc.Malloc(256)
	if p == malloc.Nil {
	    // out of memory
	}
	copy(malloc.Bytes(p), data)
	p = malloc.Realloc(p, 1024)
	malloc.Free(p)

# Lifecycle

The default heap is created on first use from the environment (see
ConfigFromEnv). Call Init before any allocation to configure it explicitly,
and Shutdown to release its region; the next allocation then starts a fresh
heap.

	err := malloc.Init(malloc.Config{Capacity: 1 << 30})
	defer malloc.Shutdown()

Pointers from a heap that was shut down must not be used or freed.

# Error Handling

Allocation functions never return errors and never panic: every failure,
including a default heap that could not be created, is reported as Nil.

# Environment

  - BRKALLOC_CAPACITY: bytes to reserve, with an optional K, M or G suffix
  - BRKALLOC_LOG_ALLOC: any non-empty value logs growth and trimming to stderr
*/
package malloc
