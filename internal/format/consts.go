// Package format describes the in-memory layout of allocator block headers:
// field offsets, alignment rules, and the fixed-width encoding used to read
// and write them. It has no knowledge of lists or locking so the allocator and
// the block view can share one definition of the layout.
package format

const (
	// Alignment is the worst-case alignment every payload satisfies. 16 bytes
	// covers all scalar and SIMD-free vector types on supported platforms.
	Alignment = 16

	// AlignmentMask is used for rounding to Alignment.
	AlignmentMask = Alignment - 1

	// PageSize is the granularity used when committing or releasing memory
	// when the OS page size is unknown.
	PageSize = 0x1000

	// PageMask is used for rounding to PageSize.
	PageMask = PageSize - 1
)

// Block header layout (little-endian, 32 bytes):
//
//	Offset  Size  Description
//	0x00    8     Payload size in bytes, excluding the header.
//	0x08    8     Address of the next header, 0 when this is the tail.
//	0x10    8     Address of the previous header, 0 when this is the head.
//	0x18    8     Flags. Bit 0 set => free.
//	0x20    ...   Payload.
const (
	HeaderSizeOffset  = 0x00
	HeaderNextOffset  = 0x08
	HeaderPrevOffset  = 0x10
	HeaderFlagsOffset = 0x18

	// headerFields is the number of bytes actually occupied by fields.
	headerFields = 0x20

	// HeaderSize is headerFields padded to Alignment.
	HeaderSize = (headerFields + AlignmentMask) &^ AlignmentMask
)

const (
	// FlagFree marks a block whose payload is not owned by any caller.
	FlagFree uint64 = 1 << 0
)
