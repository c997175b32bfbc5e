// Package block encodes and decodes the metadata header that precedes every
// allocation's payload.
//
// Block layout:
//
//	Offset  Size  Description
//	0x00    32    Header (see format.Header* offsets)
//	0x20    size  Payload, 16-byte aligned
//
// The header and payload are located from each other by pure arithmetic;
// nothing here validates that an address really belongs to a block.
package block

import (
	"github.com/joshuapare/brkalloc/internal/format"
)

const (
	// HeaderSize is the number of bytes between a block's start and its payload.
	HeaderSize = format.HeaderSize

	// Alignment is the alignment of every payload address.
	Alignment = format.Alignment
)

// HeaderFor returns the header address for a payload address previously
// returned by the allocator. Any other input yields a meaningless address.
func HeaderFor(payload uintptr) uintptr {
	return payload - HeaderSize
}

// PayloadFor returns the payload address of the block whose header starts at addr.
func PayloadFor(addr uintptr) uintptr {
	return addr + HeaderSize
}

// Header is a view of the HeaderSize bytes at the start of a block.
// Writes go straight to heap memory.
type Header []byte

// Size returns the payload size in bytes.
func (h Header) Size() uintptr {
	return uintptr(format.ReadU64(h, format.HeaderSizeOffset))
}

// SetSize sets the payload size in bytes.
func (h Header) SetSize(n uintptr) {
	format.PutU64(h, format.HeaderSizeOffset, uint64(n))
}

// Free reports whether the block is on offer for reuse.
func (h Header) Free() bool {
	return format.ReadU64(h, format.HeaderFlagsOffset)&format.FlagFree != 0
}

// SetFree sets or clears the free flag.
func (h Header) SetFree(free bool) {
	flags := format.ReadU64(h, format.HeaderFlagsOffset)
	if free {
		flags |= format.FlagFree
	} else {
		flags &^= format.FlagFree
	}
	format.PutU64(h, format.HeaderFlagsOffset, flags)
}

// Next returns the header address of the following block, or 0.
func (h Header) Next() uintptr {
	return format.ReadAddr(h, format.HeaderNextOffset)
}

// SetNext sets the forward link.
func (h Header) SetNext(addr uintptr) {
	format.PutAddr(h, format.HeaderNextOffset, addr)
}

// Prev returns the header address of the preceding block, or 0.
func (h Header) Prev() uintptr {
	return format.ReadAddr(h, format.HeaderPrevOffset)
}

// SetPrev sets the backward link.
func (h Header) SetPrev(addr uintptr) {
	format.PutAddr(h, format.HeaderPrevOffset, addr)
}

// Init writes a fresh, used, unlinked header for a payload of size bytes.
func (h Header) Init(size uintptr) {
	h.SetSize(size)
	h.SetNext(0)
	h.SetPrev(0)
	format.PutU64(h, format.HeaderFlagsOffset, 0)
}

// End returns the address one past the payload of the block whose header is at addr.
func End(addr uintptr, h Header) uintptr {
	return PayloadFor(addr) + h.Size()
}
