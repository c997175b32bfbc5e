package brk

import "errors"

var (
	// ErrNoMemory indicates the break could not be moved up: the reservation is
	// exhausted or the OS refused to commit more pages.
	ErrNoMemory = errors.New("brk: out of memory")

	// ErrBadDelta indicates a shrink that would move the break below the base.
	ErrBadDelta = errors.New("brk: break would move below base")

	// ErrClosed indicates use of a region after Close.
	ErrClosed = errors.New("brk: region closed")
)
