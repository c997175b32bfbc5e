// Package buf contains overflow-checked size arithmetic and bounds helpers
// shared by the region and allocator layers.
package buf

import "math/bits"

// MulOverflow multiplies a and b, returning ok = false when the product does
// not fit in a uint. This is the count * elementSize check for zeroed
// allocations; the product is never computed in a wrapped form.
func MulOverflow(a, b uint) (uint, bool) {
	hi, lo := bits.Mul(a, b)
	if hi != 0 {
		return 0, false
	}
	return lo, true
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	if n > len(b)-off {
		return nil, false
	}
	return b[off : off+n : off+n], true
}
