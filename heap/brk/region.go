package brk

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/brkalloc/internal/buf"
	"github.com/joshuapare/brkalloc/internal/format"
)

// Region is a reserved address range with a movable break.
//
// Invariants:
//   - 0 <= brk <= committed <= len(mem)
//   - committed is a multiple of the page size
//   - bytes in [base, base+brk) are readable and writable
type Region struct {
	mem       []byte
	base      uintptr
	brk       int
	committed int
	pageSize  int
}

// Reserve reserves at least capacity bytes of address space. Nothing is
// accessible until the break is moved with Sbrk.
func Reserve(capacity int) (*Region, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("brk: capacity must be positive, got %d", capacity)
	}
	ps := pageSize()
	n := format.AlignPage(capacity, ps)
	mem, err := reserve(n)
	if err != nil {
		return nil, fmt.Errorf("brk: reserve %d bytes: %w", n, err)
	}
	return &Region{
		mem:      mem,
		base:     uintptr(unsafe.Pointer(&mem[0])),
		pageSize: ps,
	}, nil
}

// Sbrk moves the break by delta bytes and returns the previous break.
// A zero delta returns the current break without side effects.
// On failure the break is left unchanged.
func (r *Region) Sbrk(delta int) (uintptr, error) {
	if r.mem == nil {
		return 0, ErrClosed
	}
	prev := r.base + uintptr(r.brk)
	switch {
	case delta == 0:
		return prev, nil
	case delta > 0:
		if err := r.grow(delta); err != nil {
			return 0, err
		}
	default:
		if err := r.shrink(delta); err != nil {
			return 0, err
		}
	}
	return prev, nil
}

func (r *Region) grow(delta int) error {
	if delta > len(r.mem)-r.brk {
		return fmt.Errorf("%w: grow by %d with %d of %d bytes in use",
			ErrNoMemory, delta, r.brk, len(r.mem))
	}
	newBrk := r.brk + delta
	if want := format.AlignPage(newBrk, r.pageSize); want > r.committed {
		if err := commit(r.mem[r.committed:want]); err != nil {
			return fmt.Errorf("%w: commit pages: %w", ErrNoMemory, err)
		}
		r.committed = want
	}
	r.brk = newBrk
	return nil
}

func (r *Region) shrink(delta int) error {
	// delta is negative; compare without negating to stay clear of MinInt.
	if delta < -r.brk {
		return fmt.Errorf("%w: shrink by %d with break at %d", ErrBadDelta, delta, r.brk)
	}
	newBrk := r.brk + delta
	if keep := format.AlignPage(newBrk, r.pageSize); keep < r.committed {
		if err := decommit(r.mem[keep:r.committed]); err != nil {
			return fmt.Errorf("brk: release pages: %w", err)
		}
		r.committed = keep
	}
	r.brk = newBrk
	return nil
}

// Break returns the current break address.
func (r *Region) Break() uintptr { return r.base + uintptr(r.brk) }

// Base returns the lowest address of the reservation.
func (r *Region) Base() uintptr { return r.base }

// Len returns the number of bytes below the break.
func (r *Region) Len() int { return r.brk }

// Cap returns the size of the reservation.
func (r *Region) Cap() int { return len(r.mem) }

// Committed returns the number of bytes currently backed by accessible pages.
func (r *Region) Committed() int { return r.committed }

// PageSize returns the granularity used to commit and release memory.
func (r *Region) PageSize() int { return r.pageSize }

// Slice returns the bytes in [addr, addr+n). ok is false unless the whole
// range lies below the break.
func (r *Region) Slice(addr uintptr, n int) ([]byte, bool) {
	if r.mem == nil || addr < r.base {
		return nil, false
	}
	off := addr - r.base
	if off > uintptr(r.brk) {
		return nil, false
	}
	return buf.Slice(r.mem[:r.brk], int(off), n)
}

// Close releases the reservation. Any pointer into the region is invalid
// afterwards. Closing twice is a no-op.
func (r *Region) Close() error {
	if r.mem == nil {
		return nil
	}
	mem := r.mem
	r.mem = nil
	r.brk, r.committed = 0, 0
	return unreserve(mem)
}
