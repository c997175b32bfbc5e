package malloc

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/brkalloc/heap/alloc"
)

// Ptr is a payload address; Nil is the failed-allocation result.
type Ptr = alloc.Ptr

// Nil is returned by every allocation function on failure.
const Nil = alloc.Nil

// ErrInitialized is returned by Init when the default heap already exists.
var ErrInitialized = errors.New("malloc: default heap already initialized")

var (
	initMu sync.Mutex
	std    atomic.Pointer[alloc.Heap]
)

// Init creates the default heap from cfg. It must run before the first
// allocation; afterwards it returns ErrInitialized until Shutdown.
func Init(cfg Config) error {
	initMu.Lock()
	defer initMu.Unlock()

	if std.Load() != nil {
		return ErrInitialized
	}
	hp, err := alloc.Open(cfg.options())
	if err != nil {
		return err
	}
	std.Store(hp)
	return nil
}

// Default returns the default heap, creating it from the environment on
// first use. It returns nil if the heap cannot be created; invalid
// environment values fall back to defaults.
func Default() *alloc.Heap {
	if hp := std.Load(); hp != nil {
		return hp
	}

	initMu.Lock()
	defer initMu.Unlock()

	if hp := std.Load(); hp != nil {
		return hp
	}
	cfg, err := ConfigFromEnv()
	if err != nil {
		cfg = Config{LogAlloc: cfg.LogAlloc}
	}
	hp, err := alloc.Open(cfg.options())
	if err != nil {
		return nil
	}
	std.Store(hp)
	return hp
}

// Shutdown releases the default heap. Pointers it handed out become invalid.
// Shutdown without a default heap is a no-op.
func Shutdown() error {
	initMu.Lock()
	defer initMu.Unlock()

	hp := std.Swap(nil)
	if hp == nil {
		return nil
	}
	return hp.Close()
}

// Malloc allocates size bytes from the default heap. See alloc.Heap.Malloc.
func Malloc(size uint) Ptr {
	hp := Default()
	if hp == nil {
		return Nil
	}
	return hp.Malloc(size)
}

// Free releases p to the default heap. Free(Nil) is a no-op.
func Free(p Ptr) {
	if p == Nil {
		return
	}
	if hp := std.Load(); hp != nil {
		hp.Free(p)
	}
}

// Calloc allocates count*size zeroed bytes from the default heap.
// See alloc.Heap.Calloc.
func Calloc(count, size uint) Ptr {
	hp := Default()
	if hp == nil {
		return Nil
	}
	return hp.Calloc(count, size)
}

// Realloc resizes p within the default heap. See alloc.Heap.Realloc.
func Realloc(p Ptr, size uint) Ptr {
	hp := Default()
	if hp == nil {
		return Nil
	}
	return hp.Realloc(p, size)
}

// UsableSize returns the payload size behind p.
func UsableSize(p Ptr) uint {
	if hp := std.Load(); hp != nil {
		return hp.UsableSize(p)
	}
	return 0
}

// Bytes returns the payload behind p as a slice of UsableSize(p) bytes.
func Bytes(p Ptr) []byte {
	if hp := std.Load(); hp != nil {
		return hp.Bytes(p)
	}
	return nil
}
