package alloc

import (
	"errors"
	"fmt"
)

// ErrCorrupt indicates the block chain violates a heap invariant. It is only
// reported by Check; the allocation paths never return errors.
var ErrCorrupt = errors.New("alloc: heap corrupt")

// InvariantError describes one invariant violation found by Check.
type InvariantError struct {
	Addr   uintptr // header address of the offending block, 0 if not block-specific
	Reason string
}

func (e *InvariantError) Error() string {
	if e.Addr == 0 {
		return fmt.Sprintf("alloc: invariant violated: %s", e.Reason)
	}
	return fmt.Sprintf("alloc: invariant violated at block 0x%X: %s", e.Addr, e.Reason)
}

// Is makes errors.Is(err, ErrCorrupt) match every InvariantError.
func (e *InvariantError) Is(target error) bool {
	return target == ErrCorrupt
}
