package format

// Align16Uint returns n aligned up to the next 16-byte boundary. Payload
// sizes are rounded this way so the following header stays aligned. ok is
// false when rounding would wrap around.
//
// Example:
//
//	Align16Uint(1)  = 16
//	Align16Uint(16) = 16
//	Align16Uint(17) = 32
func Align16Uint(n uint) (uint, bool) {
	r := (n + AlignmentMask) &^ AlignmentMask
	if r < n {
		return 0, false
	}
	return r, true
}

// AlignPage returns n aligned up to the next multiple of pageSize.
// pageSize must be a power of two; 0 selects PageSize.
//
// Example:
//
//	AlignPage(1, 4096)    = 4096
//	AlignPage(4096, 4096) = 4096
//	AlignPage(4097, 4096) = 8192
func AlignPage(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	mask := pageSize - 1
	return (n + mask) &^ mask
}

// IsAligned reports whether addr is a multiple of Alignment.
func IsAligned(addr uintptr) bool {
	return addr&AlignmentMask == 0
}
